package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"yt2x/types"
)

// MaxLogLines is how many of the daemon's recent log entries are shown.
const MaxLogLines = 12

// Model is a read-only view of a running daemon.
type Model struct {
	Client *StatusClient

	Status    *types.StatusResponse
	Err       error
	Connected bool
	LastPoll  time.Time
}

// NewModel creates a new TUI model
func NewModel(baseURL string) Model {
	return Model{Client: NewStatusClient(baseURL)}
}

// Init implements tea.Model interface
func (m Model) Init() tea.Cmd {
	return tea.Batch(pollStatus(m.Client), tickCmd())
}

// stateText renders the loop state line.
func (m Model) stateText() string {
	if !m.Connected {
		msg := "❌ Not connected to yt2x"
		if m.Err != nil {
			msg += ": " + m.Err.Error()
		}
		return ErrorStyle.Render(msg)
	}

	s := m.Status
	switch s.State {
	case types.StateIdle:
		return InfoStyle.Render("💤 Idle")
	case types.StatePolling:
		return StatusStyle.Render("⏳ Polling feed...")
	case types.StateProcessing:
		return StatusStyle.Render("🎬 Processing video...")
	case types.StatePublishing:
		return StatusStyle.Render("📤 Publishing to X...")
	case types.StateSleeping:
		return InfoStyle.Render("😴 Sleeping until next poll")
	case types.StateBackoff:
		return WarningStyle.Render(fmt.Sprintf("🚦 Rate limited, backing off until %s", s.BackoffUntil.Local().Format(time.Kitchen)))
	case types.StateStopped:
		return ErrorStyle.Render("🛑 Stopped")
	default:
		return string(s.State)
	}
}
