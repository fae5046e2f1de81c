package tui

import (
	"fmt"
	"strings"
	"time"
)

// View implements tea.Model interface
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("📺 yt2x monitor"))
	b.WriteString("\n\n")
	b.WriteString(m.stateText())
	b.WriteString("\n\n")

	if m.Connected && m.Status != nil {
		b.WriteString(BoxStyle.Render(m.summary()))
		b.WriteString("\n\n")

		if logs := m.Status.Logs; len(logs) > 0 {
			if len(logs) > MaxLogLines {
				logs = logs[len(logs)-MaxLogLines:]
			}
			b.WriteString(InfoStyle.Render("📝 Recent Activity:"))
			b.WriteString("\n")
			for _, entry := range logs {
				line := fmt.Sprintf("   %s  %s", entry.Timestamp.Local().Format("15:04:05"), entry.Message)
				b.WriteString(InfoStyle.Render(line))
				b.WriteString("\n")
			}
			b.WriteString("\n")
		}
	}

	b.WriteString(InfoStyle.Render("Press 'r' to refresh | Press 'q' or Ctrl+C to quit"))
	return b.String()
}

func (m Model) summary() string {
	s := m.Status
	var b strings.Builder

	cursor := s.Cursor
	if cursor == "" {
		cursor = "(none)"
	}
	fmt.Fprintf(&b, "Feed:      %s\n", s.FeedURL)
	fmt.Fprintf(&b, "Cursor:    %s\n", cursor)

	switch {
	case s.Identity.Confirmed && s.Identity.Username != "":
		fmt.Fprintf(&b, "Identity:  %s\n", StatusStyle.Render("@"+s.Identity.Username))
	case s.Identity.Confirmed:
		fmt.Fprintf(&b, "Identity:  %s\n", StatusStyle.Render("confirmed"))
	default:
		fmt.Fprintf(&b, "Identity:  %s\n", WarningStyle.Render("unconfirmed"))
	}

	if s.DryRun {
		fmt.Fprintf(&b, "Mode:      %s\n", HighlightStyle.Render("DRY RUN"))
	}
	if !s.LastHeartbeat.IsZero() {
		fmt.Fprintf(&b, "Heartbeat: %s ago\n", time.Since(s.LastHeartbeat).Round(time.Second))
	}
	if s.PendingOverrides > 0 {
		fmt.Fprintf(&b, "Pending:   %d cursor override(s)\n", s.PendingOverrides)
	}
	if c := s.LastCycle; c != nil {
		fmt.Fprintf(&b, "Last cycle: %d unseen, %d published", c.Unseen, c.Published)
		if c.StopReason != "" {
			fmt.Fprintf(&b, " (stopped: %s)", c.StopReason)
		}
		b.WriteString("\n")
	}
	if s.Error != "" {
		b.WriteString(ErrorStyle.Render("Error: " + s.Error))
	}
	return strings.TrimRight(b.String(), "\n")
}
