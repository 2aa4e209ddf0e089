// Package cli wires the crew command tree. Commands stay thin: flag
// parsing plus construction of the engine collaborators; the logic
// lives in the other internal packages.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/soyeahso/crew/internal/component"
	"github.com/soyeahso/crew/internal/config"
	"github.com/soyeahso/crew/internal/logging"
	"github.com/soyeahso/crew/internal/preset"
	"github.com/soyeahso/crew/internal/templates"
)

var (
	cfgFile  string
	logLevel string

	// loaded at init time
	paths config.Paths
	cfg   config.Config
	log   *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crew",
		Short: "crew: isolated dev environments per branch",
		Long: "crew provisions isolated development environments (\"agents\"): one git\n" +
			"worktree, one composed devcontainer configuration, and one container\n" +
			"sandbox per branch, namespaced so concurrent agents never collide.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}
			cfg, err = config.Load(paths.Config)
			if err != nil {
				return err
			}
			level := logLevel
			if level == "" {
				level = cfg.Logging.Level
			}
			log = logging.New(nil, level)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.crew/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, silent)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newNewCmd())
	cmd.AddCommand(newAgentCmd())
	cmd.AddCommand(newUpCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newTemplatesCmd())

	return cmd
}

// newResolver builds the preset resolver over the user template root
// and the embedded defaults.
func newResolver() *preset.Resolver {
	store := component.NewStore(paths.Components, templates.Components(), log)
	return preset.NewResolver(paths, store, templates.Data(), log)
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
