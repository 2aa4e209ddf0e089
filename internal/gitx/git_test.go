package gitx

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/crew/internal/execx"
)

const worktreeListOutput = `worktree /home/me/proj
HEAD 1111111111111111111111111111111111111111
branch refs/heads/main

worktree /home/me/proj-agent-a
HEAD 2222222222222222222222222222222222222222
branch refs/heads/agent-a

worktree /home/me/detached
HEAD 3333333333333333333333333333333333333333
detached
`

func TestParseWorktreeList(t *testing.T) {
	wts := parseWorktreeList(worktreeListOutput)
	require.Len(t, wts, 3)

	assert.Equal(t, Worktree{Path: "/home/me/proj", Branch: "main"}, wts[0])
	assert.Equal(t, Worktree{Path: "/home/me/proj-agent-a", Branch: "agent-a"}, wts[1])
	assert.Equal(t, Worktree{Path: "/home/me/detached", Branch: ""}, wts[2])
}

func TestParseWorktreeList_NoTrailingBlank(t *testing.T) {
	wts := parseWorktreeList("worktree /w\nbranch refs/heads/x")
	require.Len(t, wts, 1)
	assert.Equal(t, "x", wts[0].Branch)
}

func TestParseWorktreeList_Empty(t *testing.T) {
	assert.Empty(t, parseWorktreeList(""))
}

func fakeRunner(t *testing.T, responses map[string]string) Runner {
	t.Helper()
	return func(tool string, args []string, dir string, extraEnv []string) (string, error) {
		require.Equal(t, "git", tool)
		key := strings.Join(args, " ")
		out, ok := responses[key]
		if !ok {
			return "", &execx.ToolError{Tool: tool, Args: args, ExitCode: 1, Stderr: "fatal: " + key}
		}
		return out, nil
	}
}

func TestWorktreeForBranch(t *testing.T) {
	run := fakeRunner(t, map[string]string{
		"worktree list --porcelain": worktreeListOutput,
	})
	g := New("/home/me/proj", run, nil)

	wt, err := g.WorktreeForBranch("agent-a")
	require.NoError(t, err)
	require.NotNil(t, wt)
	assert.Equal(t, "/home/me/proj-agent-a", wt.Path)

	wt, err = g.WorktreeForBranch("no-such")
	require.NoError(t, err)
	assert.Nil(t, wt)
}

func TestWorktreeForBasename(t *testing.T) {
	run := fakeRunner(t, map[string]string{
		"worktree list --porcelain": worktreeListOutput,
	})
	g := New("/home/me/proj", run, nil)

	wt, err := g.WorktreeForBasename("proj-agent-a")
	require.NoError(t, err)
	require.NotNil(t, wt)
	assert.Equal(t, "agent-a", wt.Branch)
}

func TestWorktreeAdd_NewBranchReportsCreated(t *testing.T) {
	var calls []string
	run := func(tool string, args []string, dir string, extraEnv []string) (string, error) {
		calls = append(calls, strings.Join(args, " "))
		if args[0] == "show-ref" {
			return "", &execx.ToolError{Tool: tool, Args: args, ExitCode: 1}
		}
		return "", nil
	}
	g := New("/repo", run, nil)

	created, err := g.WorktreeAdd("/repo-agent-a", "agent-a", "main")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Contains(t, calls, "worktree add -b agent-a /repo-agent-a main")
}

func TestWorktreeAdd_ExistingBranchCheckedOut(t *testing.T) {
	var calls []string
	run := func(tool string, args []string, dir string, extraEnv []string) (string, error) {
		calls = append(calls, strings.Join(args, " "))
		return "", nil
	}
	g := New("/repo", run, nil)

	created, err := g.WorktreeAdd("/repo-agent-a", "agent-a", "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Contains(t, calls, "worktree add /repo-agent-a agent-a")
}

func TestLocalBranchesByRecent(t *testing.T) {
	run := fakeRunner(t, map[string]string{
		"for-each-ref --sort=-committerdate --format=%(refname:short) refs/heads/": "feature-x\nmain\n\n",
	})
	g := New("/repo", run, nil)

	branches, err := g.LocalBranchesByRecent()
	require.NoError(t, err)
	assert.Equal(t, []string{"feature-x", "main"}, branches)
}

func TestEnsureExcludeLines(t *testing.T) {
	t.Run("appends missing", func(t *testing.T) {
		out, changed := ensureExcludeLines("", []string{".venv/", "node_modules/"})
		assert.True(t, changed)
		assert.Equal(t, ".venv/\nnode_modules/\n", out)
	})

	t.Run("skips present", func(t *testing.T) {
		out, changed := ensureExcludeLines(".venv/\n", []string{".venv/", "target/"})
		assert.True(t, changed)
		assert.Equal(t, ".venv/\ntarget/\n", out)
	})

	t.Run("no change when all present", func(t *testing.T) {
		content := ".venv/\ntarget/\n"
		out, changed := ensureExcludeLines(content, []string{".venv/", "target/"})
		assert.False(t, changed)
		assert.Equal(t, content, out)
	})

	t.Run("adds newline before appending", func(t *testing.T) {
		out, changed := ensureExcludeLines("existing", []string{"new/"})
		assert.True(t, changed)
		assert.Equal(t, "existing\nnew/\n", out)
	})
}

func TestEnsureExclude_WritesFile(t *testing.T) {
	repo := t.TempDir()
	run := fakeRunner(t, map[string]string{
		"rev-parse --git-path info/exclude": ".git/info/exclude\n",
	})
	g := New(repo, run, nil)

	require.NoError(t, g.EnsureExclude([]string{".venv/"}))

	data, err := os.ReadFile(filepath.Join(repo, ".git", "info", "exclude"))
	require.NoError(t, err)
	assert.Equal(t, ".venv/\n", string(data))

	// Second call is a no-op.
	require.NoError(t, g.EnsureExclude([]string{".venv/"}))
}

func TestNeedsForce(t *testing.T) {
	dirty := &execx.ToolError{
		Tool: "git", Args: []string{"worktree", "remove", "x"},
		ExitCode: 128,
		Stderr:   "fatal: 'x' contains modified or untracked files, use --force to delete it",
	}
	assert.True(t, NeedsForce(dirty))
	assert.True(t, NeedsForce(fmt.Errorf("wrapped: %w", dirty)))
	assert.False(t, NeedsForce(&execx.ToolError{Tool: "git", Stderr: "fatal: other"}))
	assert.False(t, NeedsForce(fmt.Errorf("plain")))
	assert.False(t, NeedsForce(nil))
}
