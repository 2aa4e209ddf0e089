// Package sandbox starts and tears down devcontainer sandboxes. Both
// the devcontainer CLI and docker are treated as opaque executables;
// crew only composes their argument lists and environment.
package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/soyeahso/crew/internal/execx"
	"github.com/soyeahso/crew/internal/logging"
)

// Runner mirrors execx.Run for substitution in tests.
type Runner func(tool string, args []string, dir string, extraEnv []string) (string, error)

// Sandbox drives the devcontainer and docker CLIs.
type Sandbox struct {
	run Runner
	log *logging.Logger

	// Interactive streams devcontainer up output to the terminal
	// instead of capturing it. Off when a runner is injected.
	Interactive bool
}

// New returns a Sandbox. A nil runner uses execx.Run with interactive
// sandbox startup.
func New(run Runner, log *logging.Logger) *Sandbox {
	interactive := run == nil
	if run == nil {
		run = execx.Run
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Sandbox{run: run, log: log.Sub("sandbox"), Interactive: interactive}
}

// RequireDevcontainer fails with an actionable message when the
// devcontainer CLI is not installed.
func RequireDevcontainer() error {
	if err := execx.Require("devcontainer"); err != nil {
		return fmt.Errorf("%w (npm install -g @devcontainers/cli)", err)
	}
	return nil
}

// RequireDocker fails when docker is not installed.
func RequireDocker() error {
	return execx.Require("docker")
}

// UpOptions configure a sandbox start.
type UpOptions struct {
	// WorkspaceDir is the checkout the sandbox mounts.
	WorkspaceDir string
	// ConfigPath overrides the devcontainer.json location; empty means
	// the default <workspace>/.devcontainer/devcontainer.json.
	ConfigPath string
	// Env is extra "K=V" entries for the child process, typically the
	// compose project name and cache prefix.
	Env []string
}

// Up starts (building if needed) the sandbox for a workspace.
func (s *Sandbox) Up(opts UpOptions) error {
	args := []string{"up", "--workspace-folder", opts.WorkspaceDir}
	if opts.ConfigPath != "" {
		args = append(args, "--config", opts.ConfigPath)
	}
	s.log.Info().Str("workspace", opts.WorkspaceDir).Msg("starting sandbox")
	if s.Interactive {
		return execx.RunInteractive("devcontainer", args, opts.WorkspaceDir, opts.Env)
	}
	_, err := s.run("devcontainer", args, opts.WorkspaceDir, opts.Env)
	return err
}

// ComposeDown stops the compose stack rendered at dir. Named volumes
// are always left in place; caches outlive the sandbox.
func (s *Sandbox) ComposeDown(dir, composeFile, envFile string, env []string) error {
	args := []string{"compose", "-f", composeFile}
	if envFile != "" {
		if _, err := os.Stat(filepath.Join(dir, envFile)); err == nil {
			args = append(args, "--env-file", envFile)
		}
	}
	args = append(args, "down", "--remove-orphans")
	s.log.Info().Str("dir", dir).Msg("stopping compose stack")
	_, err := s.run("docker", args, dir, env)
	return err
}

// EnsureCacheVolumes creates the external cache volumes a compose file
// references, named <prefix>-<suffix>. docker volume create is
// idempotent so pre-existing volumes are reused untouched.
func (s *Sandbox) EnsureCacheVolumes(composeYAML []byte, prefix string) error {
	for _, suffix := range CacheVolumeSuffixes(composeYAML) {
		name := prefix + "-" + suffix
		s.log.Debug().Str("volume", name).Msg("ensuring cache volume")
		if _, err := s.run("docker", []string{"volume", "create", name}, "", nil); err != nil {
			return fmt.Errorf("creating cache volume %s: %w", name, err)
		}
	}
	return nil
}

var cacheVolumeRe = regexp.MustCompile(`\$\{DEVCONTAINER_CACHE_PREFIX(?::-[^}]*)?\}-([A-Za-z0-9._-]+)`)

// CacheVolumeSuffixes extracts the cache volume suffixes a compose file
// declares via ${DEVCONTAINER_CACHE_PREFIX}-<suffix> names, sorted and
// deduplicated.
func CacheVolumeSuffixes(composeYAML []byte) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range cacheVolumeRe.FindAllStringSubmatch(string(composeYAML), -1) {
		suffix := m[1]
		if !seen[suffix] {
			seen[suffix] = true
			out = append(out, suffix)
		}
	}
	sort.Strings(out)
	return out
}
