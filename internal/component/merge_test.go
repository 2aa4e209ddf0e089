package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func obj(pairs ...any) map[string]any {
	m := make(map[string]any)
	for i := 0; i < len(pairs); i += 2 {
		m[pairs[i].(string)] = pairs[i+1]
	}
	return m
}

func TestMerge_DisjointKeysAdd(t *testing.T) {
	got, err := mergeFragments([]fragment{
		{id: "a", value: obj("x", "1")},
		{id: "b", value: obj("y", "2")},
	})
	require.NoError(t, err)
	assert.Equal(t, obj("x", "1", "y", "2"), got)
}

func TestMerge_IdenticalContentIsNoOp(t *testing.T) {
	frag := obj("name", "ws", "nested", obj("k", true))

	once, err := mergeFragments([]fragment{{id: "a", value: frag}})
	require.NoError(t, err)
	twice, err := mergeFragments([]fragment{
		{id: "a", value: obj("name", "ws", "nested", obj("k", true))},
		{id: "b", value: obj("name", "ws", "nested", obj("k", true))},
	})
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestMerge_DifferingScalarsConflict(t *testing.T) {
	_, err := mergeFragments([]fragment{
		{id: "a", value: obj("svc", obj("cmd", "sleep"))},
		{id: "b", value: obj("svc", obj("cmd", "bash"))},
	})
	var merr *MergeError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, "$.svc.cmd", merr.Path)
	assert.Equal(t, "b", merr.ComponentID)
}

func TestMerge_ContainerVsScalarConflict(t *testing.T) {
	_, err := mergeFragments([]fragment{
		{id: "a", value: obj("k", obj("nested", "v"))},
		{id: "b", value: obj("k", "scalar")},
	})
	var merr *MergeError
	require.ErrorAs(t, err, &merr)
	assert.True(t, merr.TypeMismatch)
	assert.Equal(t, "$.k", merr.Path)
}

func TestMerge_NonObjectTopLevelConflicts(t *testing.T) {
	_, err := mergeFragments([]fragment{
		{id: "a", value: []any{"not", "an", "object"}},
	})
	var merr *MergeError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, "$", merr.Path)
}

func TestMerge_ScalarArraysConcatAndDedup(t *testing.T) {
	got, err := mergeFragments([]fragment{
		{id: "a", value: obj("exts", []any{"go", "python"})},
		{id: "b", value: obj("exts", []any{"python", "rust"})},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"go", "python", "rust"}, got["exts"])
}

func TestMerge_NumberArraysDedupAcrossDecoders(t *testing.T) {
	got, err := mergeFragments([]fragment{
		{id: "a", value: obj("ports", []any{3000, 8080})},
		{id: "b", value: obj("ports", []any{8080, 9090})},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{3000, 8080, 9090}, got["ports"])
}

func TestMerge_MixedTypeArraysNeverDedup(t *testing.T) {
	got, err := mergeFragments([]fragment{
		{id: "a", value: obj("vals", []any{"x", 1})},
		{id: "b", value: obj("vals", []any{1, "x"})},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"x", 1, 1, "x"}, got["vals"])
}

func TestMerge_IdenticalArraysAreANoOp(t *testing.T) {
	got, err := mergeFragments([]fragment{
		{id: "a", value: obj("vals", []any{"x", 1})},
		{id: "b", value: obj("vals", []any{"x", 1})},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"x", 1}, got["vals"])
}

func TestMerge_ObjectArraysConcatWithoutDedup(t *testing.T) {
	cacheMount := obj("source", "cache", "target", "/cache")
	dataMount := obj("source", "data", "target", "/data")
	got, err := mergeFragments([]fragment{
		{id: "a", value: obj("mounts", []any{obj("source", "cache", "target", "/cache")})},
		{id: "b", value: obj("mounts", []any{
			obj("source", "data", "target", "/data"),
			obj("source", "cache", "target", "/cache"),
		})},
	})
	require.NoError(t, err)

	// The repeated cache mount survives: object arrays concatenate and
	// never deduplicate.
	assert.Equal(t, []any{cacheMount, dataMount, cacheMount}, got["mounts"])
}

func TestMerge_DependencyEstablishesKeysLaterComponentsExtend(t *testing.T) {
	got, err := mergeFragments([]fragment{
		{id: "base", value: obj("features", obj())},
		{id: "python", value: obj("features", obj("py", obj("version", "3.12")))},
	})
	require.NoError(t, err)
	assert.Equal(t, obj("features", obj("py", obj("version", "3.12"))), got)
}
