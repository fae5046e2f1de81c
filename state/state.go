package state

import (
	"fmt"
	"sync"
	"time"

	"yt2x/types"
)

// Manager holds the loop's observable status with thread-safe access. The poll loop writes
// it; the status API and monitor read snapshots.
type Manager struct {
	mu sync.RWMutex

	state        types.LoopState
	feedURL      string
	dryRun       bool
	cursor       string
	identity     types.IdentityState
	heartbeat    time.Time
	backoffUntil time.Time
	lastCycle    *types.CycleSummary
	pending      int
	lastErr      error

	// Logs (ring buffer)
	logs    []types.LogEntry
	maxLogs int

	now func() time.Time
}

// NewManager creates a new state manager
func NewManager(feedURL string, dryRun bool) *Manager {
	return &Manager{
		state:   types.StateIdle,
		feedURL: feedURL,
		dryRun:  dryRun,
		logs:    make([]types.LogEntry, 0),
		maxLogs: 50,
		now:     time.Now,
	}
}

// AddLog appends a formatted entry to the ring buffer.
func (m *Manager) AddLog(format string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendLog(fmt.Sprintf(format, args...))
}

// must hold lock
func (m *Manager) appendLog(msg string) {
	m.logs = append(m.logs, types.LogEntry{Timestamp: m.now(), Message: msg})
	if len(m.logs) > m.maxLogs {
		m.logs = m.logs[len(m.logs)-m.maxLogs:]
	}
}

func (m *Manager) SetState(s types.LoopState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
	if s != types.StateBackoff {
		m.backoffUntil = time.Time{}
	}
}

func (m *Manager) State() types.LoopState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// SetBackoff records a rate-limit pause and switches to the backoff state.
func (m *Manager) SetBackoff(until time.Time, where string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = types.StateBackoff
	m.backoffUntil = until
	m.appendLog(fmt.Sprintf("Rate limited at %s; backing off until %s", where, until.Format(time.RFC3339)))
}

// SetError records err without changing the loop state; the loop never stops on errors.
func (m *Manager) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastErr = err
	m.appendLog(fmt.Sprintf("Error: %v", err))
}

func (m *Manager) SetCursor(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursor = id
}

func (m *Manager) SetIdentity(s types.IdentityState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identity = s
}

func (m *Manager) SetPendingOverrides(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = n
}

// Heartbeat records loop liveness.
func (m *Manager) Heartbeat(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.heartbeat = t
}

// FinishCycle stores the summary and clears the last error when the cycle ended cleanly.
func (m *Manager) FinishCycle(summary types.CycleSummary) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastCycle = &summary
	if summary.Error == "" {
		m.lastErr = nil
	}
}

// Healthy reports whether the loop has signalled liveness within maxAge. A loop sleeping out
// a rate-limit backoff counts as live until the backoff ends.
func (m *Manager) Healthy(maxAge time.Duration) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.heartbeat.IsZero() {
		return false
	}
	now := m.now()
	return now.Sub(m.heartbeat) <= maxAge || now.Before(m.backoffUntil)
}

// GetStatus returns a snapshot of the current state (thread-safe)
func (m *Manager) GetStatus() types.StatusResponse {
	m.mu.RLock()
	defer m.mu.RUnlock()

	resp := types.StatusResponse{
		State:            m.state,
		FeedURL:          m.feedURL,
		Cursor:           m.cursor,
		DryRun:           m.dryRun,
		Identity:         m.identity,
		LastHeartbeat:    m.heartbeat,
		BackoffUntil:     m.backoffUntil,
		PendingOverrides: m.pending,
		Logs:             append([]types.LogEntry{}, m.logs...),
	}
	if m.lastCycle != nil {
		c := *m.lastCycle
		resp.LastCycle = &c
	}
	if m.lastErr != nil {
		resp.Error = m.lastErr.Error()
	}
	return resp
}
