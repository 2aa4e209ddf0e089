package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads the config file, applies environment overrides, and returns
// a merged Config. A missing file produces defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// applyDefaults fills zero-value fields after unmarshalling, since a
// partial config file overwrites the seeded defaults wholesale.
func applyDefaults(cfg *Config) {
	if cfg.Defaults.Preset == "" {
		cfg.Defaults.Preset = "python-uv"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// applyEnvOverrides reads CREW_* environment variables over config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CREW_PRESET"); v != "" {
		cfg.Defaults.Preset = v
	}
	if v := os.Getenv("CREW_WORKTREE_BASE_DIR"); v != "" {
		cfg.Defaults.BaseDir = v
	}
	if v := os.Getenv("CREW_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
}
