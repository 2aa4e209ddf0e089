// Package agent implements the lifecycle of an agent: one branch, one
// worktree, one composed devcontainer configuration, one sandbox,
// namespaced so concurrent agents never collide.
package agent

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/soyeahso/crew/internal/config"
	"github.com/soyeahso/crew/internal/execx"
	"github.com/soyeahso/crew/internal/gitx"
	"github.com/soyeahso/crew/internal/logging"
	"github.com/soyeahso/crew/internal/preset"
	"github.com/soyeahso/crew/internal/sandbox"
)

// excludeDirs are generated-artifact directories added to the local
// ignore rules before removal, so their presence alone never forces a
// non-clean worktree removal.
var excludeDirs = []string{".venv/", "node_modules/", "target/", ".pytest_cache/", ".ruff_cache/"}

// Orchestrator drives agent creation and removal.
type Orchestrator struct {
	git     *gitx.Git
	box     *sandbox.Sandbox
	presets *preset.Resolver
	paths   config.Paths
	log     *logging.Logger
	out     io.Writer

	// Interactive collaborators, injected so tests and non-TTY runs can
	// substitute them.
	SelectBase   func(branches []string) (string, error)
	ConfirmForce func(prompt string) (bool, error)
	OpenEditor   func(dir string) error
	IsTerminal   func() bool
}

// New returns an Orchestrator wired to its collaborators. out receives
// user-facing progress lines; nil means stdout.
func New(git *gitx.Git, box *sandbox.Sandbox, presets *preset.Resolver, paths config.Paths, log *logging.Logger, out io.Writer) *Orchestrator {
	if log == nil {
		log = logging.Nop()
	}
	if out == nil {
		out = os.Stdout
	}
	return &Orchestrator{
		git:     git,
		box:     box,
		presets: presets,
		paths:   paths,
		log:     log.Sub("agent"),
		out:     out,
		OpenEditor: func(dir string) error {
			_, err := execx.Run("code", []string{"--new-window", dir}, "", nil)
			return err
		},
		IsTerminal: execx.IsTerminal,
	}
}

// CreateOptions configure agent creation.
type CreateOptions struct {
	Branch     string
	AgentName  string // explicit override; derived from Branch when empty
	BaseRef    string // ref to branch from; HEAD when empty
	SelectBase bool   // pick the base branch interactively
	BaseDir    string // worktree parent dir; conventional default when empty
	Preset     string
	NoUp       bool // skip sandbox startup
	NoOpen     bool // skip the editor sidecar
}

// Result describes a created agent.
type Result struct {
	Name          string
	Branch        string
	Dir           string
	BranchCreated bool
	Meta          Meta
}

// Create runs the creation state machine: validate, check collisions,
// add the worktree, materialize configuration, write the env file,
// start the sandbox, persist metadata. Any failure after the worktree
// exists triggers best-effort rollback; the original error propagates.
func (o *Orchestrator) Create(opts CreateOptions) (*Result, error) {
	repoRoot, err := o.git.RepoRoot()
	if err != nil {
		return nil, err
	}
	repoName := filepath.Base(repoRoot)

	if !o.git.HasCommit() {
		return nil, fmt.Errorf("repository has no commits yet; make an initial commit first")
	}
	if !o.git.ValidBranchName(opts.Branch) {
		return nil, fmt.Errorf("invalid branch name %q", opts.Branch)
	}

	name := opts.AgentName
	if name == "" {
		if name, err = DeriveName(opts.Branch); err != nil {
			return nil, err
		}
	} else if !IsValidName(name) {
		return nil, fmt.Errorf("invalid agent name %q", name)
	}

	baseRef := opts.BaseRef
	if opts.SelectBase {
		if o.SelectBase == nil {
			return nil, fmt.Errorf("interactive base selection is not available here")
		}
		branches, err := o.git.LocalBranchesByRecent()
		if err != nil {
			return nil, err
		}
		if baseRef, err = o.SelectBase(branches); err != nil {
			return nil, err
		}
	}
	if baseRef != "" && !o.git.RefExists(baseRef) {
		return nil, fmt.Errorf("base ref %q does not resolve to a commit", baseRef)
	}

	dir := filepath.Join(o.worktreeBase(opts.BaseDir, repoRoot, repoName), repoName+"-"+name)
	if err := o.checkCollisions(dir, opts.Branch); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return nil, err
	}

	branchCreated, err := o.git.WorktreeAdd(dir, opts.Branch, baseRef)
	if err != nil {
		return nil, fmt.Errorf("creating worktree: %w", err)
	}
	rb := rollbackState{dir: dir, branch: opts.Branch, branchCreated: branchCreated}

	meta := NewMeta(opts.Branch, name, repoName, opts.Preset)
	env := []string{
		"COMPOSE_PROJECT_NAME=" + meta.ComposeProject,
		"DEVCONTAINER_CACHE_PREFIX=" + meta.CachePrefix,
	}

	devDir := filepath.Join(dir, ".devcontainer")
	if !fileExists(filepath.Join(devDir, "devcontainer.json")) {
		files, err := o.presets.Files(opts.Preset)
		if err != nil {
			return nil, o.rollback(rb, err)
		}
		if err := preset.WriteDir(devDir, files, false); err != nil {
			return nil, o.rollback(rb, fmt.Errorf("materializing configuration: %w", err))
		}
	}

	envPath := filepath.Join(devDir, ".env")
	if !fileExists(envPath) {
		content := fmt.Sprintf("COMPOSE_PROJECT_NAME=%s\nDEVCONTAINER_CACHE_PREFIX=%s\n", meta.ComposeProject, meta.CachePrefix)
		if err := os.WriteFile(envPath, []byte(content), 0o644); err != nil {
			return nil, o.rollback(rb, fmt.Errorf("writing env file: %w", err))
		}
	}

	if !opts.NoUp {
		rb.sandboxTried = true
		composeBytes, err := os.ReadFile(filepath.Join(devDir, "compose.yaml"))
		if err == nil {
			if err := o.box.EnsureCacheVolumes(composeBytes, meta.CachePrefix); err != nil {
				return nil, o.rollback(rb, err)
			}
		}
		if err := o.box.Up(sandbox.UpOptions{WorkspaceDir: dir, Env: env}); err != nil {
			return nil, o.rollback(rb, fmt.Errorf("sandbox startup failed: %w", err))
		}
	}

	if err := WriteMeta(o.git, name, meta); err != nil {
		rb.metaMaybe = name
		return nil, o.rollback(rb, fmt.Errorf("persisting agent metadata: %w", err))
	}

	if !opts.NoOpen && execx.Installed("code") {
		if err := o.OpenEditor(dir); err != nil {
			o.log.Warn().Err(err).Msg("could not open editor")
		}
	}

	return &Result{
		Name:          name,
		Branch:        opts.Branch,
		Dir:           dir,
		BranchCreated: branchCreated,
		Meta:          meta,
	}, nil
}

func (o *Orchestrator) checkCollisions(dir, branch string) error {
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("checkout path already exists: %s", dir)
	}
	if wt, err := o.git.WorktreeForBasename(filepath.Base(dir)); err != nil {
		return err
	} else if wt != nil {
		return fmt.Errorf("an agent checkout with this name already exists: %s", wt.Path)
	}
	if wt, err := o.git.WorktreeForBranch(branch); err != nil {
		return err
	} else if wt != nil {
		return fmt.Errorf("branch %q is already checked out at %s", branch, wt.Path)
	}
	return nil
}

// worktreeBase resolves where agent checkouts live: explicit dir, else
// a sibling of the repository named <repo>-agents.
func (o *Orchestrator) worktreeBase(baseDir, repoRoot, repoName string) string {
	if baseDir != "" {
		return baseDir
	}
	return filepath.Join(filepath.Dir(repoRoot), repoName+"-agents")
}

type rollbackState struct {
	dir           string
	branch        string
	branchCreated bool
	sandboxTried  bool
	metaMaybe     string
}

type rollbackStep struct {
	desc string
	fn   func() error
}

// rollback tears down partially created state, best effort: each step
// runs regardless of earlier step failures, which are logged at warn.
// The original error is always what comes back.
func (o *Orchestrator) rollback(rb rollbackState, orig error) error {
	o.log.Warn().Err(orig).Msg("creation failed, rolling back")

	steps := []rollbackStep{}
	if rb.sandboxTried {
		steps = append(steps, rollbackStep{"tear down sandbox", func() error {
			return o.box.ComposeDown(filepath.Join(rb.dir, ".devcontainer"), "compose.yaml", ".env", nil)
		}})
	}
	steps = append(steps, rollbackStep{"remove checkout", func() error {
		return o.git.WorktreeRemove(rb.dir, true)
	}})
	if rb.branchCreated {
		steps = append(steps, rollbackStep{"delete branch " + rb.branch, func() error {
			return o.git.BranchDeleteForce(rb.branch)
		}})
	}
	if rb.metaMaybe != "" {
		steps = append(steps, rollbackStep{"remove metadata", func() error {
			return RemoveMeta(o.git, rb.metaMaybe)
		}})
	}

	for _, step := range steps {
		if err := step.fn(); err != nil {
			o.log.Warn().Err(err).Str("step", step.desc).Msg("rollback step failed")
		}
	}
	return orig
}

// RemoveOptions configure agent removal.
type RemoveOptions struct {
	Branch    string
	AgentName string
	BaseDir   string
	Preset    string // fallback when no metadata survives
	Force     bool
}

// Remove tears an agent down: both sandbox shapes best-effort, then
// the worktree, then metadata. The branch is preserved. Metadata is
// only deleted once the checkout is confirmed gone; a declined force
// confirmation deletes nothing.
func (o *Orchestrator) Remove(opts RemoveOptions) error {
	repoRoot, err := o.git.RepoRoot()
	if err != nil {
		return err
	}
	repoName := filepath.Base(repoRoot)

	name := opts.AgentName
	if name == "" {
		if name, err = DeriveName(opts.Branch); err != nil {
			return err
		}
	}

	dir := filepath.Join(o.worktreeBase(opts.BaseDir, repoRoot, repoName), repoName+"-"+name)
	if !isDir(dir) {
		wt, err := o.git.WorktreeForBranch(opts.Branch)
		if err != nil {
			return err
		}
		if wt == nil {
			return fmt.Errorf("no agent checkout found for branch %q", opts.Branch)
		}
		dir = wt.Path
	}

	if err := o.git.EnsureExclude(excludeDirs); err != nil {
		o.log.Warn().Err(err).Msg("could not update local ignore rules")
	}

	meta, ok, err := ReadMeta(o.git, name)
	if err != nil {
		o.log.Warn().Err(err).Msg("could not read agent metadata")
	}
	if !ok {
		// Half-created agents may have no record; reconstruct the
		// namespacing from the same inputs creation used.
		meta = Meta{
			BranchName:     opts.Branch,
			Preset:         opts.Preset,
			ComposeProject: ComposeProject(name, opts.Branch),
			CachePrefix:    CachePrefix(repoName, name, opts.Branch),
		}
	}
	env := []string{
		"COMPOSE_PROJECT_NAME=" + meta.ComposeProject,
		"DEVCONTAINER_CACHE_PREFIX=" + meta.CachePrefix,
	}

	// Pass 1: committed (or materialized) configuration in the checkout.
	devDir := filepath.Join(dir, ".devcontainer")
	if fileExists(filepath.Join(devDir, "compose.yaml")) {
		if err := o.box.ComposeDown(devDir, "compose.yaml", ".env", env); err != nil {
			o.log.Warn().Err(err).Msg("compose teardown failed")
		}
	}

	// Pass 2: stealth configuration supplied from the runtime dir.
	if meta.Preset != "" {
		stealthDir := o.paths.RuntimePresetDir(meta.Preset)
		if fileExists(filepath.Join(stealthDir, "compose.yaml")) {
			stealthEnv := append([]string{
				"CREW_WORKSPACE_DIR=" + dir,
				"CREW_DEVCONTAINER_DIR=" + stealthDir,
			}, env...)
			if err := o.box.ComposeDown(stealthDir, "compose.yaml", "", stealthEnv); err != nil {
				o.log.Warn().Err(err).Msg("stealth compose teardown failed")
			}
		}
	}

	if err := o.git.WorktreeRemove(dir, opts.Force); err != nil {
		if !gitx.NeedsForce(err) {
			return err
		}
		if o.IsTerminal == nil || !o.IsTerminal() || o.ConfirmForce == nil {
			return fmt.Errorf("checkout has local changes; re-run with --force: %w", err)
		}
		yes, cerr := o.ConfirmForce(fmt.Sprintf("%s has uncommitted changes. Remove anyway?", dir))
		if cerr != nil {
			return cerr
		}
		if !yes {
			fmt.Fprintln(o.out, "Cancelled")
			return nil
		}
		if err := o.git.WorktreeRemove(dir, true); err != nil {
			return err
		}
	}

	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("checkout still present after removal: %s", dir)
	}
	if err := o.git.WorktreePrune(); err != nil {
		o.log.Warn().Err(err).Msg("worktree prune failed")
	}
	return RemoveMeta(o.git, name)
}

// ListEntry is one row of `crew agent ls`.
type ListEntry struct {
	Name   string
	Branch string
	Dir    string
	Meta   *Meta
}

// List joins the repository's worktrees with persisted metadata. The
// main worktree is skipped.
func (o *Orchestrator) List() ([]ListEntry, error) {
	repoRoot, err := o.git.RepoRoot()
	if err != nil {
		return nil, err
	}
	repoName := filepath.Base(repoRoot)

	wts, err := o.git.Worktrees()
	if err != nil {
		return nil, err
	}
	var entries []ListEntry
	for _, wt := range wts {
		if wt.Path == repoRoot {
			continue
		}
		name := filepath.Base(wt.Path)
		if trimmed, found := strings.CutPrefix(name, repoName+"-"); found && trimmed != "" {
			name = trimmed
		}
		entry := ListEntry{Name: name, Branch: wt.Branch, Dir: wt.Path}
		if meta, ok, err := ReadMeta(o.git, name); err == nil && ok {
			m := meta
			entry.Meta = &m
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
