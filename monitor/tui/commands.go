package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// PollInterval is how often the monitor refreshes.
const PollInterval = time.Second

func pollStatus(client *StatusClient) tea.Cmd {
	return func() tea.Msg {
		status, err := client.GetStatus()
		return StatusUpdateMsg{Status: status, Err: err}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(PollInterval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}
