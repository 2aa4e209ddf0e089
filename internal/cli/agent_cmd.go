package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/soyeahso/crew/internal/agent"
	"github.com/soyeahso/crew/internal/execx"
	"github.com/soyeahso/crew/internal/gitx"
	"github.com/soyeahso/crew/internal/sandbox"
	"github.com/soyeahso/crew/internal/tui"
)

func newAgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Manage agents",
	}

	cmd.AddCommand(newAgentNewCmd())
	cmd.AddCommand(newAgentRmCmd())
	cmd.AddCommand(newAgentLsCmd())
	return cmd
}

// newNewCmd is the top-level shorthand: `crew new BRANCH` is
// `crew agent new BRANCH`.
func newNewCmd() *cobra.Command {
	return newAgentNewCmd()
}

func newOrchestrator() (*agent.Orchestrator, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	git := gitx.New(cwd, nil, log)
	box := sandbox.New(nil, log)
	orch := agent.New(git, box, newResolver(), paths, log, nil)
	orch.SelectBase = tui.SelectBranch
	orch.ConfirmForce = tui.Confirm
	return orch, nil
}

func newAgentNewCmd() *cobra.Command {
	var (
		agentName  string
		baseRef    string
		selectBase bool
		baseDir    string
		presetName string
		noUp       bool
		noOpen     bool
	)

	cmd := &cobra.Command{
		Use:   "new BRANCH",
		Short: "Create an agent: worktree + devcontainer config + sandbox",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !noUp {
				if err := sandbox.RequireDevcontainer(); err != nil {
					return err
				}
				if err := sandbox.RequireDocker(); err != nil {
					return err
				}
			}
			if selectBase && !execx.IsTerminal() {
				return tui.ErrNotATerminal
			}

			orch, err := newOrchestrator()
			if err != nil {
				return err
			}
			res, err := orch.Create(agent.CreateOptions{
				Branch:     args[0],
				AgentName:  agentName,
				BaseRef:    baseRef,
				SelectBase: selectBase,
				BaseDir:    resolveBaseDir(baseDir),
				Preset:     resolvePreset(presetName),
				NoUp:       noUp,
				NoOpen:     noOpen,
			})
			if err != nil {
				return err
			}

			if res.Name != res.Branch {
				fmt.Printf("Agent:    %s\n", res.Name)
			}
			fmt.Printf("Branch:   %s\n", res.Branch)
			fmt.Printf("Worktree: %s\n", res.Dir)
			return nil
		},
	}

	cmd.Flags().StringVar(&agentName, "agent-name", "", "agent name (default: derived from branch)")
	cmd.Flags().StringVar(&baseRef, "base", "", "base ref to branch from (default: HEAD)")
	cmd.Flags().BoolVar(&selectBase, "select-base", false, "pick the base branch interactively")
	cmd.Flags().StringVar(&baseDir, "base-dir", "", "directory to create worktrees in")
	cmd.Flags().StringVar(&presetName, "preset", "", "devcontainer preset when the repo has none committed")
	cmd.Flags().BoolVar(&noUp, "no-up", false, "skip sandbox startup")
	cmd.Flags().BoolVar(&noOpen, "no-open", false, "do not open an editor window")
	cmd.MarkFlagsMutuallyExclusive("base", "select-base")
	return cmd
}

func newAgentRmCmd() *cobra.Command {
	var (
		agentName string
		baseDir   string
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "rm BRANCH",
		Short: "Remove an agent: sandbox + worktree + metadata (branch is kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := newOrchestrator()
			if err != nil {
				return err
			}
			err = orch.Remove(agent.RemoveOptions{
				Branch:    args[0],
				AgentName: agentName,
				BaseDir:   resolveBaseDir(baseDir),
				Preset:    resolvePreset(""),
				Force:     force,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Removed agent for branch %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&agentName, "agent-name", "", "agent name (default: derived from branch)")
	cmd.Flags().StringVar(&baseDir, "base-dir", "", "directory the worktree was created in")
	cmd.Flags().BoolVar(&force, "force", false, "remove even with uncommitted changes")
	return cmd
}

func newAgentLsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List agents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := newOrchestrator()
			if err != nil {
				return err
			}
			entries, err := orch.List()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("No agents.")
				return nil
			}
			for _, e := range entries {
				presetInfo := ""
				if e.Meta != nil {
					presetInfo = fmt.Sprintf("  preset=%s  created=%s",
						e.Meta.Preset, e.Meta.CreatedAt.Format("2006-01-02"))
				}
				fmt.Printf("  %-24s %-24s %s%s\n", e.Name, e.Branch, e.Dir, presetInfo)
			}
			return nil
		},
	}

	return cmd
}

// resolveBaseDir applies the config/env fallback under an explicit flag.
func resolveBaseDir(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return cfg.Defaults.BaseDir
}

// resolvePreset applies the configured default preset under an explicit
// flag.
func resolvePreset(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return cfg.Defaults.Preset
}
