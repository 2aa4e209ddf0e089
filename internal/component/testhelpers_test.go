package component

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeComponent writes a component.yaml (and nothing else) for id under
// a user override root.
func writeComponent(t *testing.T, root, id, manifest string) {
	t.Helper()
	dir := filepath.Join(root, filepath.FromSlash(id))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "component.yaml"), []byte(manifest), 0o644))
}

// writeComponentFile adds a fragment or auxiliary file to a user
// override component directory.
func writeComponentFile(t *testing.T, root, id, name, body string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(id), filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}
