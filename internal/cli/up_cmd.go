package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/soyeahso/crew/internal/agent"
	"github.com/soyeahso/crew/internal/preset"
	"github.com/soyeahso/crew/internal/sandbox"
)

func newUpCmd() *cobra.Command {
	var (
		presetName string
		desktop    bool
		initFirst  bool
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "up [DIR]",
		Short: "Start a devcontainer sandbox for a directory",
		Long: "Start a sandbox for DIR (default: current directory). With a committed\n" +
			".devcontainer the sandbox uses it directly. Without one, crew runs in\n" +
			"stealth mode: the preset is materialized outside the checkout and passed\n" +
			"to the container tool at startup, leaving the working tree untouched.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := sandbox.RequireDevcontainer(); err != nil {
				return err
			}
			if err := sandbox.RequireDocker(); err != nil {
				return err
			}

			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			dir, err := filepath.Abs(dir)
			if err != nil {
				return err
			}
			if info, err := os.Stat(dir); err != nil || !info.IsDir() {
				return fmt.Errorf("not a directory: %s", dir)
			}

			resolver := newResolver()
			name := resolvePreset(presetName)

			devDir := filepath.Join(dir, ".devcontainer")
			if initFirst {
				files, err := resolver.Files(name)
				if err != nil {
					return err
				}
				if err := preset.WriteDir(devDir, files, force); err != nil {
					return err
				}
				fmt.Printf("Wrote %s\n", devDir)
			}

			project, cachePrefix := agent.NamespaceForDir(dir)
			env := []string{
				"COMPOSE_PROJECT_NAME=" + project,
				"DEVCONTAINER_CACHE_PREFIX=" + cachePrefix,
			}
			if desktop {
				env = append(env, "COMPOSE_PROFILES=desktop")
			}

			box := sandbox.New(nil, log)

			if fileExists(filepath.Join(devDir, "devcontainer.json")) {
				if compose, err := os.ReadFile(filepath.Join(devDir, "compose.yaml")); err == nil {
					if err := box.EnsureCacheVolumes(compose, cachePrefix); err != nil {
						return err
					}
				}
				return box.Up(sandbox.UpOptions{WorkspaceDir: dir, Env: env})
			}

			// Stealth: config supplied from outside the checkout.
			stealthDir, err := resolver.EnsureRuntimeStealth(name, force)
			if err != nil {
				return err
			}
			env = append(env,
				"CREW_WORKSPACE_DIR="+dir,
				"CREW_DEVCONTAINER_DIR="+stealthDir,
			)
			if compose, err := os.ReadFile(filepath.Join(stealthDir, "compose.yaml")); err == nil {
				if err := box.EnsureCacheVolumes(compose, cachePrefix); err != nil {
					return err
				}
			}
			return box.Up(sandbox.UpOptions{
				WorkspaceDir: dir,
				ConfigPath:   filepath.Join(stealthDir, "devcontainer.json"),
				Env:          env,
			})
		},
	}

	cmd.Flags().StringVar(&presetName, "preset", "", "devcontainer preset to use")
	cmd.Flags().BoolVar(&desktop, "desktop", false, "also start the desktop sidecar (compose profile)")
	cmd.Flags().BoolVar(&initFirst, "init", false, "write the preset into DIR/.devcontainer first")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	return cmd
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
