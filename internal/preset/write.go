package preset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/soyeahso/crew/internal/component"
)

// reservedNames are template names that collide with the template root's
// own bookkeeping directories.
var reservedNames = map[string]bool{
	".components": true,
	".profiles":   true,
	"runtime":     true,
}

// ValidateTemplateName rejects names that would escape or shadow the
// template root layout.
func ValidateTemplateName(name string) error {
	if name == "" {
		return errors.New("template name cannot be empty")
	}
	if reservedNames[name] {
		return fmt.Errorf("template name %s is reserved", name)
	}
	if strings.ContainsAny(name, `/\`) {
		return errors.New("template name must not contain path separators")
	}
	return nil
}

// WriteDir writes rendered files under dir. Without force, any existing
// target aborts the whole write before anything is touched.
func WriteDir(dir string, files []component.TemplateFile, force bool) error {
	if !force {
		for _, f := range files {
			target := filepath.Join(dir, filepath.FromSlash(f.RelPath))
			if _, err := os.Stat(target); err == nil {
				return &ForceRequiredError{Target: target}
			}
		}
	}
	for _, f := range files {
		target := filepath.Join(dir, filepath.FromSlash(f.RelPath))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(target), err)
		}
		if err := os.WriteFile(target, f.Bytes, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", target, err)
		}
	}
	return nil
}

// WriteComposed renders a component request and persists it as a named
// user template. Returns the template directory.
func (r *Resolver) WriteComposed(name string, profile component.Profile, force bool) (string, error) {
	if err := ValidateTemplateName(name); err != nil {
		return "", err
	}
	files, err := r.store.Render(profile.Components, profile.Params)
	if err != nil {
		return "", err
	}
	dir := r.paths.PresetDir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	if err := WriteDir(dir, files, force); err != nil {
		return "", err
	}
	return dir, nil
}
