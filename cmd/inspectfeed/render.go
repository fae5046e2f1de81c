package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"yt2x/rssfeeds"
	"yt2x/types"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	cursorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFB86C"))
	unseenStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	infoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)

const maxTitle = 60

// render lists the newest items (cursor and unseen rows highlighted) followed by the batch in
// the order it would be published.
func render(feedURL, cur string, sorted, batch []types.FeedItem, top int) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Feed: " + feedURL))
	b.WriteString("\n")
	shown := cur
	if shown == "" {
		shown = "<none>"
	}
	b.WriteString(infoStyle.Render(fmt.Sprintf("Cursor: %s | Total entries: %d", shown, len(sorted))))
	b.WriteString("\n\n")

	unseen := make(map[string]bool, len(batch))
	for _, item := range batch {
		unseen[item.ID] = true
	}

	if top > len(sorted) {
		top = len(sorted)
	}
	b.WriteString(fmt.Sprintf("Top %d feed items (newest first):\n", top))
	for i, item := range sorted[:top] {
		line := fmt.Sprintf("  %2d  %s  %-11s  %s", i, item.PublishedAt.UTC().Format("2006-01-02 15:04"), item.ID, truncate(item.Title))
		switch {
		case item.ID == cur:
			b.WriteString(cursorStyle.Render(line + "  ← cursor"))
		case unseen[item.ID]:
			b.WriteString(unseenStyle.Render(line + "  ● unseen"))
		default:
			b.WriteString(infoStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("\nWould publish %d item(s), in order:\n", len(batch)))
	for i, item := range rssfeeds.OldestFirst(batch) {
		b.WriteString(unseenStyle.Render(fmt.Sprintf("  %d. %s  %s", i+1, item.ID, truncate(item.Title))))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxTitle {
		return s
	}
	return string(r[:maxTitle-3]) + "..."
}
