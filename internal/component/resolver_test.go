package component

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/crew/internal/templates"
)

// testStore builds a store over an in-memory component tree. Each entry
// maps a component id to its component.yaml body.
func testStore(t *testing.T, manifests map[string]string) *Store {
	t.Helper()
	fsys := fstest.MapFS{}
	for id, body := range manifests {
		fsys[id+"/component.yaml"] = &fstest.MapFile{Data: []byte(body)}
	}
	return NewStore("", fsys, nil)
}

const baseManifest = "id: base/devcontainer\nname: Base\n"

func TestResolve_InsertsBaseFirst(t *testing.T) {
	s := testStore(t, map[string]string{
		"base/devcontainer": baseManifest,
		"lang/python":       "id: lang/python\nname: Python\n",
	})

	order, err := s.Resolve([]string{"lang/python"})
	require.NoError(t, err)
	assert.Equal(t, []string{"base/devcontainer", "lang/python"}, order)
}

func TestResolve_BaseRequestedExplicitlyIsIdempotent(t *testing.T) {
	s := testStore(t, map[string]string{
		"base/devcontainer": baseManifest,
	})

	order, err := s.Resolve([]string{"base/devcontainer"})
	require.NoError(t, err)
	assert.Equal(t, []string{"base/devcontainer"}, order)
}

func TestResolve_DependencyPrecedesDependent(t *testing.T) {
	s := testStore(t, map[string]string{
		"base/devcontainer": baseManifest,
		"lang/node":         "id: lang/node\nname: Node\n",
		"tool/node/pnpm":    "id: tool/node/pnpm\nname: pnpm\ndepends: [lang/node]\n",
	})

	order, err := s.Resolve([]string{"tool/node/pnpm"})
	require.NoError(t, err)
	assert.Equal(t, []string{"base/devcontainer", "lang/node", "tool/node/pnpm"}, order)
}

func TestResolve_DeterministicAndIdempotent(t *testing.T) {
	s := testStore(t, map[string]string{
		"base/devcontainer": baseManifest,
		"a":                 "id: a\nname: A\ndepends: [b, c]\n",
		"b":                 "id: b\nname: B\ndepends: [c]\n",
		"c":                 "id: c\nname: C\n",
	})

	first, err := s.Resolve([]string{"a"})
	require.NoError(t, err)
	second, err := s.Resolve([]string{"a"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"base/devcontainer", "c", "b", "a"}, first)
}

func TestResolve_DuplicateRequestCollapses(t *testing.T) {
	s := testStore(t, map[string]string{
		"base/devcontainer": baseManifest,
		"a":                 "id: a\nname: A\n",
	})

	order, err := s.Resolve([]string{"a", "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"base/devcontainer", "a"}, order)
}

func TestResolve_CycleError(t *testing.T) {
	s := testStore(t, map[string]string{
		"base/devcontainer": baseManifest,
		"a":                 "id: a\nname: A\ndepends: [b]\n",
		"b":                 "id: b\nname: B\ndepends: [a]\n",
	})

	_, err := s.Resolve([]string{"a"})
	var cerr *CycleError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, []string{"a", "b"}, cerr.ID)
}

func TestResolve_SelfCycleError(t *testing.T) {
	s := testStore(t, map[string]string{
		"base/devcontainer": baseManifest,
		"a":                 "id: a\nname: A\ndepends: [a]\n",
	})

	_, err := s.Resolve([]string{"a"})
	var cerr *CycleError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "a", cerr.ID)
}

func TestResolve_ConflictRegardlessOfRequestOrder(t *testing.T) {
	s := testStore(t, map[string]string{
		"base/devcontainer": baseManifest,
		"a":                 "id: a\nname: A\nconflicts: [b]\n",
		"b":                 "id: b\nname: B\n",
	})

	for _, req := range [][]string{{"a", "b"}, {"b", "a"}} {
		_, err := s.Resolve(req)
		var cerr *ConflictError
		require.ErrorAs(t, err, &cerr, "request order %v", req)
		assert.Equal(t, "a", cerr.ID)
		assert.Equal(t, "b", cerr.Conflict)
	}
}

func TestResolve_ConflictViaTransitiveDependency(t *testing.T) {
	s := testStore(t, map[string]string{
		"base/devcontainer": baseManifest,
		"a":                 "id: a\nname: A\ndepends: [c]\n",
		"b":                 "id: b\nname: B\nconflicts: [c]\n",
		"c":                 "id: c\nname: C\n",
	})

	_, err := s.Resolve([]string{"a", "b"})
	var cerr *ConflictError
	require.ErrorAs(t, err, &cerr)
}

func TestResolve_UnknownComponent(t *testing.T) {
	s := testStore(t, map[string]string{
		"base/devcontainer": baseManifest,
	})

	_, err := s.Resolve([]string{"nope/nothing"})
	var nerr *NotFoundError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "nope/nothing", nerr.ID)
}

func TestCanonicalID_LegacyAliases(t *testing.T) {
	assert.Equal(t, "lang/python", CanonicalID("python"))
	assert.Equal(t, "tool/python/uv", CanonicalID("uv"))
	assert.Equal(t, "lang/node", CanonicalID("node"))
	assert.Equal(t, "tool/node/pnpm", CanonicalID("pnpm"))
	assert.Equal(t, "lang/go", CanonicalID("go"))
	assert.Equal(t, "extra/desktop", CanonicalID("desktop"))
	assert.Equal(t, "lang/rust", CanonicalID("lang/rust"))
}

func TestResolve_EmbeddedPnpmImpliesNode(t *testing.T) {
	s := NewStore("", templates.Components(), nil)

	order, err := s.Resolve([]string{"pnpm"})
	require.NoError(t, err)
	assert.Equal(t, []string{"base/devcontainer", "lang/node", "tool/node/pnpm"}, order)
}

func TestStore_UserOverrideShadowsEmbedded(t *testing.T) {
	dir := t.TempDir()
	writeComponent(t, dir, "lang/python", "id: lang/python\nname: Patched Python\n")

	s := NewStore(dir, templates.Components(), nil)
	c, err := s.Load("lang/python")
	require.NoError(t, err)
	assert.Equal(t, "Patched Python", c.Manifest.Name)

	// Unshadowed ids still come from the embedded set.
	c, err = s.Load("lang/go")
	require.NoError(t, err)
	assert.Equal(t, "Go", c.Manifest.Name)
}

func TestStore_LoadRejectsTraversal(t *testing.T) {
	s := NewStore("", templates.Components(), nil)
	_, err := s.Load("../escape")
	require.Error(t, err)
	_, err = s.Load("")
	require.Error(t, err)
}

func TestStore_ManifestsMergedAndSorted(t *testing.T) {
	dir := t.TempDir()
	writeComponent(t, dir, "zz/custom", "id: zz/custom\nname: Custom\n")

	s := NewStore(dir, templates.Components(), nil)
	ms, err := s.Manifests()
	require.NoError(t, err)

	ids := make([]string, len(ms))
	for i, m := range ms {
		ids[i] = m.ID
	}
	assert.Contains(t, ids, "zz/custom")
	assert.Contains(t, ids, "base/devcontainer")
	assert.IsIncreasing(t, ids)
}
