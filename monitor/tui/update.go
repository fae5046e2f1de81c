package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model interface
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			return m, pollStatus(m.Client)
		}
	case TickMsg:
		return m, tea.Batch(pollStatus(m.Client), tickCmd())
	case StatusUpdateMsg:
		return m.handleStatus(msg), nil
	}
	return m, nil
}

func (m Model) handleStatus(msg StatusUpdateMsg) Model {
	if msg.Err != nil {
		m.Connected = false
		m.Err = msg.Err
		return m
	}
	m.Connected = true
	m.Err = nil
	m.Status = msg.Status
	return m
}
