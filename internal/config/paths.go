package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const defaultBaseDir = ".crew"

// Paths holds resolved filesystem paths for crew data. They are computed
// once at startup and threaded into constructors; nothing reads the
// environment mid-algorithm.
type Paths struct {
	Base       string // ~/.crew
	Config     string // ~/.crew/config.yaml
	Templates  string // ~/.crew/templates
	Components string // ~/.crew/templates/.components
	Profiles   string // ~/.crew/templates/.profiles
	Runtime    string // ~/.crew/runtime
}

// ResolvePaths computes all standard paths from the home directory.
// If CREW_HOME is set, it overrides the default base directory.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("CREW_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, fmt.Errorf("resolving home directory: %w", err)
		}
		base = filepath.Join(home, defaultBaseDir)
	}
	return PathsAt(base), nil
}

// PathsAt computes standard paths rooted at an explicit base directory.
// Tests use this to run the whole engine against a temp dir.
func PathsAt(base string) Paths {
	templates := filepath.Join(base, "templates")
	return Paths{
		Base:       base,
		Config:     filepath.Join(base, "config.yaml"),
		Templates:  templates,
		Components: filepath.Join(templates, ".components"),
		Profiles:   filepath.Join(templates, ".profiles"),
		Runtime:    filepath.Join(base, "runtime"),
	}
}

// PresetDir returns the user override directory for a named preset.
func (p Paths) PresetDir(name string) string {
	return filepath.Join(p.Templates, name)
}

// RuntimePresetDir returns the materialization target for a stealth preset.
func (p Paths) RuntimePresetDir(name string) string {
	return filepath.Join(p.Runtime, "devcontainer-presets", name, ".devcontainer")
}
