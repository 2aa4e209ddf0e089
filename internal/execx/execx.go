// Package execx runs external tools, capturing output and mapping
// non-zero exits onto a typed error. git, docker, and devcontainer are
// opaque executables to crew: exit status plus text is all we read.
package execx

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/term"
)

// ToolError is a non-zero exit from an external tool, with captured
// diagnostics attached.
type ToolError struct {
	Tool     string
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s %s failed (exit %d)", e.Tool, strings.Join(e.Args, " "), e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// Run executes tool with args, returning captured stdout. The child
// inherits the parent environment plus extraEnv ("K=V" entries). dir, if
// non-empty, becomes the working directory.
func Run(tool string, args []string, dir string, extraEnv []string) (string, error) {
	cmd := exec.Command(tool, args...)
	cmd.Dir = dir
	if len(extraEnv) > 0 {
		cmd.Env = append(os.Environ(), extraEnv...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.String(), nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return stdout.String(), &ToolError{
			Tool:     tool,
			Args:     args,
			ExitCode: exitErr.ExitCode(),
			Stderr:   stderr.String(),
		}
	}
	return "", fmt.Errorf("running %s: %w", tool, err)
}

// RunInteractive executes tool with args connected to the caller's
// terminal, so long-running tools (devcontainer builds) stream progress.
// stderr is still teed into the returned ToolError on failure.
func RunInteractive(tool string, args []string, dir string, extraEnv []string) error {
	cmd := exec.Command(tool, args...)
	cmd.Dir = dir
	if len(extraEnv) > 0 {
		cmd.Env = append(os.Environ(), extraEnv...)
	}

	var stderr bytes.Buffer
	cmd.Stdout = os.Stdout
	cmd.Stderr = &teeWriter{a: os.Stderr, b: &stderr}
	cmd.Stdin = os.Stdin

	err := cmd.Run()
	if err == nil {
		return nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return &ToolError{
			Tool:     tool,
			Args:     args,
			ExitCode: exitErr.ExitCode(),
			Stderr:   stderr.String(),
		}
	}
	return fmt.Errorf("running %s: %w", tool, err)
}

type teeWriter struct {
	a, b interface{ Write([]byte) (int, error) }
}

func (t *teeWriter) Write(p []byte) (int, error) {
	t.b.Write(p)
	return t.a.Write(p)
}

// Installed reports whether bin resolves on PATH.
func Installed(bin string) bool {
	_, err := exec.LookPath(bin)
	return err == nil
}

// Require returns an actionable error when bin is not on PATH.
func Require(bin string) error {
	if !Installed(bin) {
		return fmt.Errorf("%s not found in PATH", bin)
	}
	return nil
}

// IsTerminal reports whether both stdin and stdout are attached to a
// terminal; interactive-only paths are gated on this.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
