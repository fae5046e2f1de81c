package types

import "time"

// LoopState is the poll loop's current phase.
type LoopState string

const (
	StateIdle       LoopState = "idle"
	StatePolling    LoopState = "polling"
	StateProcessing LoopState = "processing"
	StatePublishing LoopState = "publishing"
	StateSleeping   LoopState = "sleeping"
	StateBackoff    LoopState = "backoff"
	StateStopped    LoopState = "stopped"
)

// LogEntry represents a single log line with timestamp
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// IdentityState is the cached publishing-identity confirmation and its backoff clock.
type IdentityState struct {
	Confirmed   bool      `json:"confirmed"`
	Username    string    `json:"username,omitempty"`
	NextCheckAt time.Time `json:"next_check_at,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
}

// CycleSummary describes the most recently finished poll cycle.
type CycleSummary struct {
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Unseen      int       `json:"unseen"`
	Published   int       `json:"published"`
	CursorAfter string    `json:"cursor_after,omitempty"`
	StopReason  string    `json:"stop_reason,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// StatusResponse is the JSON response for GET /api/status
type StatusResponse struct {
	State            LoopState     `json:"state"`
	FeedURL          string        `json:"feed_url"`
	Cursor           string        `json:"cursor"`
	DryRun           bool          `json:"dry_run"`
	Identity         IdentityState `json:"identity"`
	LastHeartbeat    time.Time     `json:"last_heartbeat,omitempty"`
	BackoffUntil     time.Time     `json:"backoff_until,omitempty"`
	LastCycle        *CycleSummary `json:"last_cycle,omitempty"`
	PendingOverrides int           `json:"pending_overrides"`
	Logs             []LogEntry    `json:"logs"`
	Error            string        `json:"error,omitempty"`
}
