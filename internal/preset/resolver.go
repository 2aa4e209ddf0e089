// Package preset turns a target name into a rendered devcontainer file
// tree, whether that name is a pre-rendered directory, a composable
// profile, or an embedded default, and materializes stealth variants for
// workspaces that must not carry a committed configuration.
package preset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/soyeahso/crew/internal/component"
	"github.com/soyeahso/crew/internal/config"
	"github.com/soyeahso/crew/internal/logging"
)

const profileManifest = "profile.yaml"

// requiredTopLevel are the files a pre-rendered preset directory must
// contain. A user directory missing any of them is a hard error, never a
// silent fallthrough to the next resolution step.
var requiredTopLevel = []string{
	component.OutDevcontainer,
	component.OutCompose,
	component.OutDockerfile,
}

// Resolver resolves preset/profile names against the user's template root
// and the embedded defaults.
type Resolver struct {
	paths config.Paths
	store *component.Store
	data  fs.FS // embedded template tree: profiles/ plus preset dirs
	log   *logging.Logger
}

// NewResolver builds a resolver. data is normally templates.Data(); tests
// inject their own tree.
func NewResolver(paths config.Paths, store *component.Store, data fs.FS, log *logging.Logger) *Resolver {
	if log == nil {
		log = logging.Nop()
	}
	return &Resolver{paths: paths, store: store, data: data, log: log.Sub("preset")}
}

// Store exposes the underlying component store.
func (r *Resolver) Store() *component.Store { return r.store }

// Files resolves name to a rendered file tree. Resolution order: user
// pre-rendered directory, user profile, embedded pre-rendered preset,
// embedded profile.
func (r *Resolver) Files(name string) ([]component.TemplateFile, error) {
	if dir := r.paths.PresetDir(name); isDir(dir) {
		if err := ensureComplete(dir); err != nil {
			return nil, err
		}
		return readDirTree(os.DirFS(dir))
	}

	userProfile := filepath.Join(r.paths.Profiles, name, profileManifest)
	if fileExists(userProfile) {
		p, err := readProfileFile(userProfile)
		if err != nil {
			return nil, err
		}
		return r.store.Render(p.Components, p.Params)
	}

	if r.embeddedPresetExists(name) {
		sub, err := fs.Sub(r.data, name)
		if err != nil {
			return nil, err
		}
		return readDirTree(sub)
	}

	if p, ok, err := r.embeddedProfile(name); err != nil {
		return nil, err
	} else if ok {
		return r.store.Render(p.Components, p.Params)
	}

	return nil, &UnknownError{Name: name}
}

// EmbeddedPresets lists embedded pre-rendered preset names, sorted.
func (r *Resolver) EmbeddedPresets() []string {
	entries, err := fs.ReadDir(r.data, ".")
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() || e.Name() == "components" || e.Name() == "profiles" {
			continue
		}
		if r.embeddedPresetExists(e.Name()) {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out
}

// EmbeddedProfiles lists embedded profile names, sorted.
func (r *Resolver) EmbeddedProfiles() []string {
	entries, err := fs.ReadDir(r.data, "profiles")
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := fs.Stat(r.data, path.Join("profiles", e.Name(), profileManifest)); err == nil {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out
}

// UserPresets lists user template directories (presets composed or
// installed under the template root), sorted, dot-directories excluded.
func (r *Resolver) UserPresets() []string {
	entries, err := os.ReadDir(r.paths.Templates)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

func (r *Resolver) embeddedPresetExists(name string) bool {
	if name == "components" || name == "profiles" || strings.Contains(name, "/") {
		return false
	}
	_, err := fs.Stat(r.data, path.Join(name, component.OutDevcontainer))
	return err == nil
}

func (r *Resolver) embeddedProfile(name string) (component.Profile, bool, error) {
	p := path.Join("profiles", name, profileManifest)
	data, err := fs.ReadFile(r.data, p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return component.Profile{}, false, nil
		}
		return component.Profile{}, false, err
	}
	var prof component.Profile
	if err := yaml.Unmarshal(data, &prof); err != nil {
		return component.Profile{}, false, fmt.Errorf("parsing embedded %s: %w", p, err)
	}
	return prof, true, nil
}

func readProfileFile(path string) (component.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return component.Profile{}, fmt.Errorf("reading %s: %w", path, err)
	}
	var prof component.Profile
	if err := yaml.Unmarshal(data, &prof); err != nil {
		return component.Profile{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return prof, nil
}

// ensureComplete rejects a user pre-rendered directory missing any of the
// three synthesized files; partial overrides must not fall through.
func ensureComplete(dir string) error {
	for _, name := range requiredTopLevel {
		p := filepath.Join(dir, name)
		if _, err := os.ReadFile(p); err != nil {
			return fmt.Errorf("incomplete preset directory %s: reading %s: %w", dir, name, err)
		}
	}
	return nil
}

func readDirTree(fsys fs.FS) ([]component.TemplateFile, error) {
	var out []component.TemplateFile
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		out = append(out, component.TemplateFile{RelPath: p, Bytes: data})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RelPath < out[j].RelPath })
	return out, nil
}

func isDir(p string) bool {
	st, err := os.Stat(p)
	return err == nil && st.IsDir()
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}
