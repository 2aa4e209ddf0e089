// Package tui holds the interactive collaborators: a branch picker and
// a yes/no confirm prompt. Callers gate on ErrNotATerminal before
// reaching for either.
package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/soyeahso/crew/internal/execx"
)

// ErrNotATerminal is returned when an interactive-only path is invoked
// without a terminal attached.
var ErrNotATerminal = errors.New("interactive selection requires a terminal")

// ErrAborted is returned when the user backs out without choosing.
var ErrAborted = errors.New("selection aborted")

var titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))

type branchItem string

func (i branchItem) Title() string       { return string(i) }
func (i branchItem) Description() string { return "" }
func (i branchItem) FilterValue() string { return string(i) }

type selectModel struct {
	list    list.Model
	choice  string
	aborted bool
}

func newSelectModel(title string, options []string) selectModel {
	items := make([]list.Item, len(options))
	for i, o := range options {
		items[i] = branchItem(o)
	}
	delegate := list.NewDefaultDelegate()
	delegate.SetHeight(1)
	delegate.SetSpacing(0)
	delegate.ShowDescription = false

	l := list.New(items, delegate, 0, min(len(options)+6, 20))
	l.Title = title
	l.Styles.Title = titleStyle
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	return selectModel{list: l}
}

func (m selectModel) Init() tea.Cmd { return nil }

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if item, ok := m.list.SelectedItem().(branchItem); ok {
				m.choice = string(item)
			}
			return m, tea.Quit
		case "ctrl+c", "esc", "q":
			if m.list.FilterState() == list.Filtering {
				break
			}
			m.aborted = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m selectModel) View() string {
	return "\n" + m.list.View()
}

// SelectBranch shows an interactive picker over branches and returns
// the chosen one.
func SelectBranch(branches []string) (string, error) {
	if !execx.IsTerminal() {
		return "", ErrNotATerminal
	}
	if len(branches) == 0 {
		return "", fmt.Errorf("no branches to select from")
	}

	final, err := tea.NewProgram(newSelectModel("Select base branch", branches)).Run()
	if err != nil {
		return "", err
	}
	m := final.(selectModel)
	if m.aborted || m.choice == "" {
		return "", ErrAborted
	}
	return m.choice, nil
}
