// Package component implements the composition engine: a layered component
// store, dependency resolution, parameter substitution, and structural
// merging of configuration fragments into one rendered file tree.
package component

// Param is a parameter a component exposes for substitution. If Choices is
// non-empty the effective value is expected to be one of them; that is
// enforced at the interaction boundary, not by the engine.
type Param struct {
	Key     string   `yaml:"key"`
	Prompt  string   `yaml:"prompt"`
	Default string   `yaml:"default"`
	Choices []string `yaml:"choices"`
}

// Manifest is the parsed component.yaml. Immutable once loaded; components
// are identified by their hierarchical id (e.g. "lang/python") within a
// merged namespace where user overrides shadow embedded defaults.
type Manifest struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Category    string   `yaml:"category"`
	Depends     []string `yaml:"depends"`
	Conflicts   []string `yaml:"conflicts"`
	Params      []Param  `yaml:"params"`
}

// Component is a manifest plus its raw fragments. A component with no
// fragments still participates in dependency and conflict resolution.
type Component struct {
	Manifest Manifest

	// Raw fragment text, empty when the component does not contribute
	// to that synthesized file.
	DevcontainerJSON string
	ComposeYAML      string
	DockerfilePart   string

	// Auxiliary files copied verbatim (after substitution for UTF-8
	// content) into the rendered output.
	Files []TemplateFile
}

// TemplateFile is the unit of rendered output: a relative path plus bytes.
type TemplateFile struct {
	RelPath string
	Bytes   []byte
}

// Profile is a named, persisted compose request: component ids plus
// parameter overrides, renderable on demand.
type Profile struct {
	Components []string          `yaml:"components"`
	Params     map[string]string `yaml:"params"`
}
