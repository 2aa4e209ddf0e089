package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soyeahso/crew/internal/component"
	"github.com/soyeahso/crew/internal/execx"
	"github.com/soyeahso/crew/internal/preset"
	"github.com/soyeahso/crew/internal/tui"
)

func newTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Manage devcontainer templates",
	}

	cmd.AddCommand(newTemplatesInitCmd())
	cmd.AddCommand(newTemplatesComposeCmd())
	cmd.AddCommand(newTemplatesListCmd())
	return cmd
}

func newTemplatesInitCmd() *cobra.Command {
	var (
		force          bool
		nonInteractive bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Install the embedded presets, components, and profiles for editing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver := newResolver()

			install := func(doForce bool) error {
				for _, name := range resolver.EmbeddedPresets() {
					if _, err := resolver.InstallPreset(name, doForce); err != nil {
						return err
					}
				}
				for _, name := range resolver.EmbeddedProfiles() {
					if _, err := resolver.InstallPreset(name, doForce); err != nil {
						return err
					}
				}
				if _, err := resolver.InstallComponents(doForce); err != nil {
					return err
				}
				if _, err := resolver.InstallProfiles(doForce); err != nil {
					return err
				}
				return nil
			}

			err := install(force)
			var freq *preset.ForceRequiredError
			if errors.As(err, &freq) && !force && !nonInteractive && execx.IsTerminal() {
				yes, cerr := tui.Confirm(fmt.Sprintf("%s exists. Overwrite installed templates?", freq.Target))
				if cerr != nil {
					return cerr
				}
				if !yes {
					fmt.Println("Cancelled")
					return nil
				}
				err = install(true)
			}
			if err != nil {
				return err
			}
			fmt.Printf("Installed templates into %s\n", paths.Templates)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	cmd.Flags().BoolVar(&nonInteractive, "non-interactive", false, "never prompt; fail instead")
	return cmd
}

func newTemplatesComposeCmd() *cobra.Command {
	var (
		with   []string
		params []string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "compose NAME",
		Short: "Compose components into a named template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(with) == 0 {
				return errors.New("at least one --with COMPONENT is required")
			}

			paramMap := make(map[string]string, len(params))
			for _, p := range params {
				k, v, ok := strings.Cut(p, "=")
				if !ok || k == "" {
					return fmt.Errorf("invalid --param %q, expected KEY=VALUE", p)
				}
				paramMap[k] = v
			}

			resolver := newResolver()
			if err := validateParamChoices(resolver.Store(), with, paramMap); err != nil {
				return err
			}

			dir, err := resolver.WriteComposed(args[0], component.Profile{
				Components: with,
				Params:     paramMap,
			}, force)
			if err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", dir)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&with, "with", nil, "component id to include (repeatable)")
	cmd.Flags().StringArrayVar(&params, "param", nil, "parameter override KEY=VALUE (repeatable)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing template")
	return cmd
}

// validateParamChoices rejects values outside a parameter's declared
// choice list. The engine itself substitutes whatever it is given; the
// check belongs at the interaction boundary.
func validateParamChoices(store *component.Store, ids []string, params map[string]string) error {
	defs, err := store.ParamDefs(ids)
	if err != nil {
		return err
	}
	for _, def := range defs {
		val, given := params[def.Key]
		if !given || len(def.Choices) == 0 {
			continue
		}
		valid := false
		for _, c := range def.Choices {
			if c == val {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("invalid value %q for parameter %s (choices: %s)",
				val, def.Key, strings.Join(def.Choices, ", "))
		}
	}
	return nil
}

func newTemplatesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List presets, profiles, and components",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver := newResolver()

			if user := resolver.UserPresets(); len(user) > 0 {
				fmt.Println("User templates:")
				for _, name := range user {
					fmt.Printf("  %s\n", name)
				}
			}

			fmt.Println("Profiles:")
			for _, name := range resolver.EmbeddedProfiles() {
				fmt.Printf("  %s\n", name)
			}

			manifests, err := resolver.Store().Manifests()
			if err != nil {
				return err
			}
			fmt.Println("Components:")
			for _, m := range manifests {
				desc := m.Description
				if desc == "" {
					desc = m.Name
				}
				fmt.Printf("  %-24s %s\n", m.ID, desc)
			}
			return nil
		},
	}
}
