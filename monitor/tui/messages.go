package tui

import (
	"time"

	"yt2x/types"
)

// StatusUpdateMsg is sent when a status poll returns.
type StatusUpdateMsg struct {
	Status *types.StatusResponse
	Err    error
}

// TickMsg is sent periodically to trigger polling
type TickMsg struct {
	Time time.Time
}
