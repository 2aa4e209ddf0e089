package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/crew/internal/component"
	"github.com/soyeahso/crew/internal/templates"
)

func embeddedStore(t *testing.T) *component.Store {
	t.Helper()
	return component.NewStore(t.TempDir(), templates.Components(), nil)
}

func TestValidateParamChoices(t *testing.T) {
	store := embeddedStore(t)

	// python_version declares a choice list
	err := validateParamChoices(store, []string{"lang/python"}, map[string]string{"python_version": "3.12"})
	assert.NoError(t, err)

	err = validateParamChoices(store, []string{"lang/python"}, map[string]string{"python_version": "2.7"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "python_version")
	assert.Contains(t, err.Error(), "choices")
}

func TestValidateParamChoices_UnlistedParamsPass(t *testing.T) {
	store := embeddedStore(t)

	// project_name has no choices; any value goes through
	err := validateParamChoices(store, []string{"lang/python"}, map[string]string{"project_name": "anything at all"})
	assert.NoError(t, err)
}

func TestRootCommand_Tree(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"new", "agent", "up", "init", "templates", "version"} {
		assert.Contains(t, names, want)
	}
}
