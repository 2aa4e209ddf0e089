package agent

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/crew/internal/gitx"
)

// metaDir is the subpath under the repository's git directory where
// per-agent metadata lives. Living under the git dir keeps it out of
// the tracked working tree.
const metaDir = "crew/agents"

// Meta is the durable record for one agent.
type Meta struct {
	ID             string    `json:"id"`
	BranchName     string    `json:"branch_name"`
	Preset         string    `json:"preset"`
	ComposeProject string    `json:"compose_project"`
	CachePrefix    string    `json:"cache_prefix"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewMeta builds the record for a freshly created agent.
func NewMeta(branch, name, repo, preset string) Meta {
	return Meta{
		ID:             uuid.NewString(),
		BranchName:     branch,
		Preset:         preset,
		ComposeProject: ComposeProject(name, branch),
		CachePrefix:    CachePrefix(repo, name, branch),
		CreatedAt:      time.Now().UTC().Truncate(time.Second),
	}
}

func metaPath(g *gitx.Git, name string) (string, error) {
	return g.GitPath(filepath.Join(metaDir, name+".json"))
}

// WriteMeta persists meta for the named agent.
func WriteMeta(g *gitx.Git, name string, meta Meta) error {
	path, err := metaPath(g, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// ReadMeta loads the named agent's metadata. ok is false when no
// record exists; removal then reconstructs defaults instead of failing.
func ReadMeta(g *gitx.Git, name string) (meta Meta, ok bool, err error) {
	path, err := metaPath(g, name)
	if err != nil {
		return Meta{}, false, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Meta{}, false, nil
	}
	if err != nil {
		return Meta{}, false, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return Meta{}, false, err
	}
	return meta, true, nil
}

// RemoveMeta deletes the named agent's metadata, tolerating absence.
func RemoveMeta(g *gitx.Git, name string) error {
	path, err := metaPath(g, name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
