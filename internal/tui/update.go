package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.filtering {
			return m.handleFilterKey(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if len(m.visible) > 0 {
			m.cursor--
			if m.cursor < 0 {
				m.cursor = len(m.visible) - 1
			}
		}

	case key.Matches(msg, m.keys.Down):
		if len(m.visible) > 0 {
			m.cursor++
			if m.cursor >= len(m.visible) {
				m.cursor = 0
			}
		}

	case key.Matches(msg, m.keys.PageUp):
		m.cursor = max(m.cursor-m.pageSize(), 0)

	case key.Matches(msg, m.keys.PageDown):
		m.cursor = max(min(m.cursor+m.pageSize(), len(m.visible)-1), 0)

	case key.Matches(msg, m.keys.Home):
		m.cursor = 0

	case key.Matches(msg, m.keys.End):
		m.cursor = max(len(m.visible)-1, 0)

	case key.Matches(msg, m.keys.Choose):
		if len(m.visible) > 0 {
			m.chosen = m.items[m.visible[m.cursor]].Index
			return m, tea.Quit
		}

	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		return m, m.filter.Focus()

	case key.Matches(msg, m.keys.Back):
		if m.filter.Value() != "" {
			m.filter.SetValue("")
			m.applyFilter()
		}
	}
	return m, nil
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit
	case tea.KeyEnter:
		m.filtering = false
		m.filter.Blur()
		return m, nil
	case tea.KeyEsc:
		m.filtering = false
		m.filter.Blur()
		m.filter.SetValue("")
		m.applyFilter()
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}
