package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestSelectModel_EnterPicksHighlighted(t *testing.T) {
	m := newSelectModel("Select base branch", []string{"main", "feature-x"})

	next, _ := m.Update(key("down"))
	next, _ = next.Update(key("enter"))

	final := next.(selectModel)
	assert.Equal(t, "feature-x", final.choice)
	assert.False(t, final.aborted)
}

func TestSelectModel_EscapeAborts(t *testing.T) {
	m := newSelectModel("Select base branch", []string{"main"})

	next, _ := m.Update(key("esc"))
	final := next.(selectModel)
	assert.True(t, final.aborted)
	assert.Empty(t, final.choice)
}

func TestSelectModel_ViewListsOptions(t *testing.T) {
	m := newSelectModel("Select base branch", []string{"main", "feature-x"})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 60, Height: 24})

	view := next.(selectModel).View()
	assert.Contains(t, view, "main")
	assert.Contains(t, view, "feature-x")
}

func TestConfirmModel(t *testing.T) {
	cases := []struct {
		key  string
		want bool
	}{
		{"y", true},
		{"Y", true},
		{"n", false},
		{"enter", false},
		{"esc", false},
	}
	for _, tc := range cases {
		next, _ := confirmModel{prompt: "Remove?"}.Update(key(tc.key))
		final := next.(confirmModel)
		require.True(t, final.decided, tc.key)
		assert.Equal(t, tc.want, final.answer, tc.key)
	}
}

func TestConfirmModel_View(t *testing.T) {
	m := confirmModel{prompt: "Remove?"}
	assert.Contains(t, m.View(), "[y/N]")

	m.decided = true
	assert.Empty(t, m.View())
}
