// Package config resolves crew's home directory layout and optional
// user configuration file.
package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Config is the optional ~/.crew/config.yaml. Everything has a working
// default; the file only exists to change them.
type Config struct {
	Defaults DefaultsConfig `yaml:"defaults"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DefaultsConfig sets fallback values for agent provisioning flags.
type DefaultsConfig struct {
	// Preset used when a worktree has no committed devcontainer config.
	Preset string `yaml:"preset"`
	// BaseDir is where agent worktrees are created. Empty means
	// <repo-parent>/<repo>-agents.
	BaseDir string `yaml:"base_dir"`
}

// LoggingConfig controls diagnostic output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Defaults returns a Config with working defaults applied.
func Defaults() Config {
	return Config{
		Defaults: DefaultsConfig{
			Preset: "python-uv",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
