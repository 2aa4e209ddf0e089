package component

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/soyeahso/crew/internal/logging"
)

const (
	manifestName = "component.yaml"

	fragmentDevcontainer = "devcontainer.json"
	fragmentCompose      = "compose.yaml"
	fragmentDockerfile   = "Dockerfile.part"
	filesDirName         = "files"
)

// Store looks up components by id. Lookup is layered: the user override
// tree (if present) shadows the embedded default set, so the store stays
// side-effect-free and tests can inject arbitrary trees.
type Store struct {
	userRoot string // filesystem dir of user component sources, may be ""
	embedded fs.FS
	log      *logging.Logger
}

// NewStore creates a store over the embedded component tree with an
// optional user override directory layered on top.
func NewStore(userRoot string, embedded fs.FS, log *logging.Logger) *Store {
	if log == nil {
		log = logging.Nop()
	}
	return &Store{userRoot: userRoot, embedded: embedded, log: log.Sub("component")}
}

// Load returns the component for id, preferring a user override.
func (s *Store) Load(id string) (*Component, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	if s.userRoot != "" {
		dir := path.Join(s.userRoot, id)
		if st, err := os.Stat(dir); err == nil && st.IsDir() {
			c, err := loadFromFS(os.DirFS(dir))
			if err != nil {
				return nil, fmt.Errorf("component %s: %w", id, err)
			}
			return c, nil
		}
	}

	if _, err := fs.Stat(s.embedded, path.Join(id, manifestName)); err != nil {
		return nil, &NotFoundError{ID: id}
	}
	sub, err := fs.Sub(s.embedded, id)
	if err != nil {
		return nil, &NotFoundError{ID: id}
	}
	c, err := loadFromFS(sub)
	if err != nil {
		return nil, fmt.Errorf("component %s: %w", id, err)
	}
	return c, nil
}

// Manifests returns every known component manifest, user overrides
// shadowing embedded ones with the same id, sorted by id.
func (s *Store) Manifests() ([]Manifest, error) {
	merged := make(map[string]Manifest)

	embedded, err := manifestsIn(s.embedded)
	if err != nil {
		return nil, fmt.Errorf("embedded components: %w", err)
	}
	for _, m := range embedded {
		merged[m.ID] = m
	}

	if s.userRoot != "" {
		if st, err := os.Stat(s.userRoot); err == nil && st.IsDir() {
			user, err := manifestsIn(os.DirFS(s.userRoot))
			if err != nil {
				return nil, fmt.Errorf("user components in %s: %w", s.userRoot, err)
			}
			for _, m := range user {
				merged[m.ID] = m
			}
		}
	}

	out := make([]Manifest, 0, len(merged))
	for _, m := range merged {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func validateID(id string) error {
	if id == "" {
		return errors.New("component id cannot be empty")
	}
	if strings.Contains(id, "..") || strings.HasPrefix(id, "/") {
		return fmt.Errorf("invalid component id: %s", id)
	}
	return nil
}

// loadFromFS reads one component rooted at fsys: component.yaml plus
// optional fragments and a files/ tree.
func loadFromFS(fsys fs.FS) (*Component, error) {
	data, err := fs.ReadFile(fsys, manifestName)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", manifestName, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", manifestName, err)
	}

	c := &Component{Manifest: m}
	if c.DevcontainerJSON, err = readOptional(fsys, fragmentDevcontainer); err != nil {
		return nil, err
	}
	if c.ComposeYAML, err = readOptional(fsys, fragmentCompose); err != nil {
		return nil, err
	}
	if c.DockerfilePart, err = readOptional(fsys, fragmentDockerfile); err != nil {
		return nil, err
	}
	if c.Files, err = readFilesTree(fsys, filesDirName); err != nil {
		return nil, err
	}
	return c, nil
}

func readOptional(fsys fs.FS, name string) (string, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("reading %s: %w", name, err)
	}
	return string(data), nil
}

func readFilesTree(fsys fs.FS, root string) ([]TemplateFile, error) {
	if _, err := fs.Stat(fsys, root); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var out []TemplateFile
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
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
		out = append(out, TemplateFile{
			RelPath: strings.TrimPrefix(p, root+"/"),
			Bytes:   data,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func manifestsIn(fsys fs.FS) ([]Manifest, error) {
	var out []Manifest
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Base(p) != manifestName {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		var m Manifest
		if err := yaml.Unmarshal(data, &m); err != nil {
			return fmt.Errorf("parsing %s: %w", p, err)
		}
		out = append(out, m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
