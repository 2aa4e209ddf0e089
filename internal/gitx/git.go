// Package gitx wraps the git executable for the worktree and branch
// operations crew needs. Nothing here links libgit2 or parses object
// storage; git is invoked as an opaque tool and its porcelain output is
// parsed by small pure helpers.
package gitx

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/soyeahso/crew/internal/execx"
	"github.com/soyeahso/crew/internal/logging"
)

// Runner abstracts tool execution so tests can substitute canned
// output for git invocations.
type Runner func(tool string, args []string, dir string, extraEnv []string) (string, error)

// Git runs git commands rooted at a repository directory.
type Git struct {
	dir string
	run Runner
	log *logging.Logger
}

// New returns a Git bound to dir. A nil runner uses execx.Run.
func New(dir string, run Runner, log *logging.Logger) *Git {
	if run == nil {
		run = execx.Run
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Git{dir: dir, run: run, log: log.Sub("git")}
}

// Dir returns the directory the Git instance is bound to.
func (g *Git) Dir() string { return g.dir }

func (g *Git) git(args ...string) (string, error) {
	g.log.Debug().Str("args", strings.Join(args, " ")).Msg("exec git")
	return g.run("git", args, g.dir, nil)
}

// RepoRoot returns the top-level directory of the working tree.
func (g *Git) RepoRoot() (string, error) {
	out, err := g.git("rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("not inside a git repository: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// HasCommit reports whether HEAD resolves, i.e. the repository has at
// least one commit. Worktree creation needs a base to branch from.
func (g *Git) HasCommit() bool {
	_, err := g.git("rev-parse", "--verify", "HEAD")
	return err == nil
}

// RefExists reports whether ref resolves to a commit.
func (g *Git) RefExists(ref string) bool {
	_, err := g.git("rev-parse", "--verify", "--quiet", ref+"^{commit}")
	return err == nil
}

// BranchExists reports whether a local branch by that name exists.
func (g *Git) BranchExists(branch string) bool {
	_, err := g.git("show-ref", "--verify", "--quiet", "refs/heads/"+branch)
	return err == nil
}

// ValidBranchName checks name against git's own ref syntax rules.
func (g *Git) ValidBranchName(name string) bool {
	if name == "" {
		return false
	}
	_, err := g.git("check-ref-format", "--branch", name)
	return err == nil
}

// WorktreeAdd creates a worktree at dir. When branch exists it is
// checked out; otherwise a new branch is created from baseRef (HEAD if
// empty). created reports whether the branch was newly created, so the
// caller knows whether rollback must delete it.
func (g *Git) WorktreeAdd(dir, branch, baseRef string) (created bool, err error) {
	if g.BranchExists(branch) {
		_, err = g.git("worktree", "add", dir, branch)
		return false, err
	}
	args := []string{"worktree", "add", "-b", branch, dir}
	if baseRef != "" {
		args = append(args, baseRef)
	}
	_, err = g.git(args...)
	return err == nil, err
}

// WorktreeRemove detaches the worktree at path. force discards
// uncommitted changes; without it git refuses on a dirty tree.
func (g *Git) WorktreeRemove(path string, force bool) error {
	args := []string{"worktree", "remove"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, path)
	_, err := g.git(args...)
	return err
}

// WorktreePrune drops stale administrative entries for worktrees whose
// directories are already gone.
func (g *Git) WorktreePrune() error {
	_, err := g.git("worktree", "prune")
	return err
}

// StatusPorcelain returns `git status --porcelain` for the worktree at
// path. Empty output means clean.
func (g *Git) StatusPorcelain(path string) (string, error) {
	return g.run("git", []string{"status", "--porcelain"}, path, nil)
}

// BranchDeleteForce deletes a local branch regardless of merge status.
func (g *Git) BranchDeleteForce(branch string) error {
	_, err := g.git("branch", "-D", branch)
	return err
}

// Worktree is one entry from `git worktree list --porcelain`.
type Worktree struct {
	Path   string
	Branch string // short name, empty when detached
}

// Worktrees lists the repository's worktrees, main one first.
func (g *Git) Worktrees() ([]Worktree, error) {
	out, err := g.git("worktree", "list", "--porcelain")
	if err != nil {
		return nil, err
	}
	return parseWorktreeList(out), nil
}

// WorktreeForBranch returns the worktree that has branch checked out,
// or nil.
func (g *Git) WorktreeForBranch(branch string) (*Worktree, error) {
	wts, err := g.Worktrees()
	if err != nil {
		return nil, err
	}
	for i := range wts {
		if wts[i].Branch == branch {
			return &wts[i], nil
		}
	}
	return nil, nil
}

// WorktreeForBasename returns the worktree whose directory basename
// matches name, or nil. Used to detect checkout-name collisions for
// branches that map to the same directory name.
func (g *Git) WorktreeForBasename(name string) (*Worktree, error) {
	wts, err := g.Worktrees()
	if err != nil {
		return nil, err
	}
	for i := range wts {
		if filepath.Base(wts[i].Path) == name {
			return &wts[i], nil
		}
	}
	return nil, nil
}

// LocalBranchesByRecent lists local branch names, most recently
// committed first.
func (g *Git) LocalBranchesByRecent() ([]string, error) {
	out, err := g.git("for-each-ref", "--sort=-committerdate", "--format=%(refname:short)", "refs/heads/")
	if err != nil {
		return nil, err
	}
	var branches []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			branches = append(branches, line)
		}
	}
	return branches, nil
}

// GitPath resolves a path under the repository's git directory (handles
// worktrees and separate git dirs), made absolute relative to the repo.
func (g *Git) GitPath(rel string) (string, error) {
	out, err := g.git("rev-parse", "--git-path", rel)
	if err != nil {
		return "", err
	}
	p := strings.TrimSpace(out)
	if !filepath.IsAbs(p) {
		p = filepath.Join(g.dir, p)
	}
	return p, nil
}

// EnsureExclude appends lines to .git/info/exclude if not already
// present, so per-checkout junk never shows up in status.
func (g *Git) EnsureExclude(lines []string) error {
	path, err := g.GitPath("info/exclude")
	if err != nil {
		return err
	}
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	updated, changed := ensureExcludeLines(string(existing), lines)
	if !changed {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(updated), 0o644)
}

// parseWorktreeList parses `git worktree list --porcelain` output.
func parseWorktreeList(out string) []Worktree {
	var wts []Worktree
	var cur *Worktree
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		switch {
		case strings.HasPrefix(line, "worktree "):
			if cur != nil {
				wts = append(wts, *cur)
			}
			cur = &Worktree{Path: strings.TrimPrefix(line, "worktree ")}
		case strings.HasPrefix(line, "branch ") && cur != nil:
			ref := strings.TrimPrefix(line, "branch ")
			cur.Branch = strings.TrimPrefix(ref, "refs/heads/")
		case line == "" && cur != nil:
			wts = append(wts, *cur)
			cur = nil
		}
	}
	if cur != nil {
		wts = append(wts, *cur)
	}
	return wts
}

// ensureExcludeLines returns content with any missing lines appended,
// and whether anything changed.
func ensureExcludeLines(content string, lines []string) (string, bool) {
	present := make(map[string]bool)
	for _, line := range strings.Split(content, "\n") {
		present[strings.TrimSpace(line)] = true
	}
	out := content
	changed := false
	for _, line := range lines {
		if present[strings.TrimSpace(line)] {
			continue
		}
		if out != "" && !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		out += line + "\n"
		changed = true
	}
	return out, changed
}

// NeedsForce reports whether a git failure message indicates the
// operation would succeed with --force (dirty worktree, locked tree).
func NeedsForce(err error) bool {
	var toolErr *execx.ToolError
	if !errors.As(err, &toolErr) {
		return false
	}
	return strings.Contains(toolErr.Stderr, "use --force")
}
