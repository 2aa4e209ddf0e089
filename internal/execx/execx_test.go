package execx

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeStub(t *testing.T, dir, name, script string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
}

func TestRun_CapturesStdout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs")
	}
	dir := t.TempDir()
	writeStub(t, dir, "hello", `echo "out: $1"`)
	t.Setenv("PATH", dir)

	out, err := Run("hello", []string{"world"}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "out: world\n", out)
}

func TestRun_NonZeroExitIsToolError(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs")
	}
	dir := t.TempDir()
	writeStub(t, dir, "boom", "echo nope >&2\nexit 3")
	t.Setenv("PATH", dir)

	_, err := Run("boom", []string{"a", "b"}, "", nil)
	require.Error(t, err)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "boom", toolErr.Tool)
	assert.Equal(t, 3, toolErr.ExitCode)
	assert.Contains(t, toolErr.Stderr, "nope")
	assert.Contains(t, toolErr.Error(), "exit 3")
	assert.Contains(t, toolErr.Error(), "nope")
}

func TestRun_ExtraEnvAndDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs")
	}
	bin := t.TempDir()
	work := t.TempDir()
	writeStub(t, bin, "show", `echo "$MARKER"
pwd`)
	t.Setenv("PATH", bin)

	out, err := Run("show", nil, work, []string{"MARKER=abc"})
	require.NoError(t, err)
	assert.Contains(t, out, "abc")
	assert.Contains(t, out, filepath.Base(work))
}

func TestRun_MissingTool(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	_, err := Run("definitely-not-here", nil, "", nil)
	require.Error(t, err)

	var toolErr *ToolError
	assert.False(t, errors.As(err, &toolErr), "lookup failures are not ToolError")
}

func TestInstalled(t *testing.T) {
	dir := t.TempDir()
	writeStub(t, dir, "present", "exit 0")
	t.Setenv("PATH", dir)

	assert.True(t, Installed("present"))
	assert.False(t, Installed("absent"))

	assert.NoError(t, Require("present"))
	assert.EqualError(t, Require("absent"), "absent not found in PATH")
}
