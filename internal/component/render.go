package component

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// The three synthesized output files every render produces.
const (
	OutDevcontainer = "devcontainer.json"
	OutCompose      = "compose.yaml"
	OutDockerfile   = "Dockerfile"
)

const defaultBaseImage = "FROM mcr.microsoft.com/devcontainers/base:bookworm\n"

// ParamDefs collects every parameter declared across the resolved set of
// the requested components, first declaration wins per key, sorted by key.
// Params are keyed globally, not per component; key collisions across
// components intentionally share one effective value.
func (s *Store) ParamDefs(requested []string) ([]Param, error) {
	resolved, err := s.Resolve(requested)
	if err != nil {
		return nil, err
	}
	defs := make(map[string]Param)
	for _, id := range resolved {
		c, err := s.Load(id)
		if err != nil {
			return nil, err
		}
		for _, p := range c.Manifest.Params {
			if _, ok := defs[p.Key]; !ok {
				defs[p.Key] = p
			}
		}
	}
	keys := make([]string, 0, len(defs))
	for k := range defs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Param, 0, len(keys))
	for _, k := range keys {
		out = append(out, defs[k])
	}
	return out, nil
}

// Render resolves the requested components and produces the full output
// tree: the three synthesized files plus every component's auxiliary
// files, deduplicated by path (first occurrence wins) and path-sorted.
// Caller-supplied params always win over component defaults and are never
// mutated. Any resolution, parse, or merge error aborts the whole render.
func (s *Store) Render(requested []string, params map[string]string) ([]TemplateFile, error) {
	resolved, err := s.Resolve(requested)
	if err != nil {
		return nil, err
	}

	effective := make(map[string]string, len(params))
	for k, v := range params {
		effective[k] = v
	}
	for _, id := range resolved {
		c, err := s.Load(id)
		if err != nil {
			return nil, err
		}
		for _, p := range c.Manifest.Params {
			if _, ok := effective[p.Key]; !ok {
				effective[p.Key] = p.Default
			}
		}
	}

	var (
		files         []TemplateFile
		devFragments  []fragment
		compFragments []fragment
		dockerParts   []dockerPart
	)

	for _, id := range resolved {
		c, err := s.Load(id)
		if err != nil {
			return nil, err
		}

		if c.DevcontainerJSON != "" {
			text := applyParams(c.DevcontainerJSON, effective)
			var v any
			if err := json.Unmarshal(jsonc.ToJSON([]byte(text)), &v); err != nil {
				return nil, fmt.Errorf("parsing devcontainer.json fragment for %s: %w", id, err)
			}
			devFragments = append(devFragments, fragment{id: id, value: v})
		}
		if c.ComposeYAML != "" {
			text := applyParams(c.ComposeYAML, effective)
			var v any
			if err := yaml.Unmarshal([]byte(text), &v); err != nil {
				return nil, fmt.Errorf("parsing compose.yaml fragment for %s: %w", id, err)
			}
			compFragments = append(compFragments, fragment{id: id, value: v})
		}
		if c.DockerfilePart != "" {
			dockerParts = append(dockerParts, dockerPart{
				id:   id,
				text: applyParams(c.DockerfilePart, effective),
			})
		}
		for _, f := range c.Files {
			// Non-UTF-8 auxiliary files pass through unmodified.
			if utf8.Valid(f.Bytes) {
				f.Bytes = []byte(applyParams(string(f.Bytes), effective))
			}
			files = append(files, f)
		}
	}

	devTree, err := mergeFragments(devFragments)
	if err != nil {
		return nil, err
	}
	compTree, err := mergeFragments(compFragments)
	if err != nil {
		return nil, err
	}

	devText, err := json.MarshalIndent(devTree, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing devcontainer.json: %w", err)
	}
	compText, err := marshalYAML(compTree)
	if err != nil {
		return nil, fmt.Errorf("serializing compose.yaml: %w", err)
	}

	files = append(files,
		TemplateFile{RelPath: OutDevcontainer, Bytes: append(devText, '\n')},
		TemplateFile{RelPath: OutCompose, Bytes: compText},
		TemplateFile{RelPath: OutDockerfile, Bytes: []byte(renderDockerfile(dockerParts))},
	)

	return dedupAndSort(files), nil
}

// applyParams replaces every literal {{key}} token with its effective
// value. No recursive expansion, no escaping; intentionally that simple.
func applyParams(s string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s = strings.ReplaceAll(s, "{{"+k+"}}", params[k])
	}
	return s
}

type dockerPart struct {
	id   string
	text string
}

// renderDockerfile concatenates Dockerfile parts in resolution order with
// component markers. The first part is kept bare so the output still opens
// with its FROM directive.
func renderDockerfile(parts []dockerPart) string {
	if len(parts) == 0 {
		return defaultBaseImage
	}

	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			fmt.Fprintf(&b, "# crew:component %s begin\n", p.id)
		}
		b.WriteString(p.text)
		if !strings.HasSuffix(p.text, "\n") {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "# crew:component %s end\n\n", p.id)
	}
	return b.String()
}

func marshalYAML(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func dedupAndSort(files []TemplateFile) []TemplateFile {
	seen := make(map[string]bool, len(files))
	out := make([]TemplateFile, 0, len(files))
	for _, f := range files {
		if seen[f.RelPath] {
			continue
		}
		seen[f.RelPath] = true
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RelPath < out[j].RelPath })
	return out
}
