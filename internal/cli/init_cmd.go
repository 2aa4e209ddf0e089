package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/soyeahso/crew/internal/preset"
)

func newInitCmd() *cobra.Command {
	var (
		presetName string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "init [DIR]",
		Short: "Write a devcontainer preset into DIR/.devcontainer",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			dir, err := filepath.Abs(dir)
			if err != nil {
				return err
			}

			resolver := newResolver()
			files, err := resolver.Files(resolvePreset(presetName))
			if err != nil {
				return err
			}

			target := filepath.Join(dir, ".devcontainer")
			if err := preset.WriteDir(target, files, force); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVar(&presetName, "preset", "", "devcontainer preset to use")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	return cmd
}
