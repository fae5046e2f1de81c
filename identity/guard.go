package identity

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"yt2x/logger"
	"yt2x/ratelimit"
	"yt2x/types"
)

// ErrIdentityMismatch means the credentials belong to a different account than expected.
// It is fatal: the process must not post as the wrong principal.
var ErrIdentityMismatch = errors.New("authenticated account does not match expected account")

// Lookup returns the username the publishing credentials belong to.
type Lookup interface {
	WhoAmI(ctx context.Context) (string, error)
}

// State is the cached confirmation and its backoff clock.
type State = types.IdentityState

// Options configures a Guard.
type Options struct {
	Expected string // username without '@'; empty accepts any account
	Disabled bool   // SKIP_IDENTITY_CHECK
	Now      func() time.Time
	Jitter   func() time.Duration
	Logger   *log.Logger
}

// Guard confirms the publishing identity without ever blocking feed polling.
// Once confirmed it stays confirmed for the life of the process.
type Guard struct {
	lookup   Lookup
	expected string
	disabled bool
	now      func() time.Time
	jitter   func() time.Duration
	logger   *log.Logger

	mu    sync.RWMutex
	state State
}

// NewGuard creates a Guard. Zero-valued options fall back to the wall clock and 0–5s jitter.
func NewGuard(lookup Lookup, opts Options) *Guard {
	g := &Guard{
		lookup:   lookup,
		expected: normalize(opts.Expected),
		disabled: opts.Disabled,
		now:      opts.Now,
		jitter:   opts.Jitter,
		logger:   opts.Logger,
	}
	if g.now == nil {
		g.now = time.Now
	}
	if g.jitter == nil {
		g.jitter = ratelimit.Jitter
	}
	if g.logger == nil {
		g.logger = logger.New("identity")
	}
	return g
}

// EnsureConfirmed performs at most one identity lookup, respecting the backoff clock.
// Only ErrIdentityMismatch is returned; lookup failures just reschedule.
func (g *Guard) EnsureConfirmed(ctx context.Context) error {
	if g.disabled {
		return nil
	}

	g.mu.RLock()
	confirmed, next := g.state.Confirmed, g.state.NextCheckAt
	g.mu.RUnlock()

	now := g.now()
	if confirmed || now.Before(next) {
		return nil
	}

	username, err := g.lookup.WhoAmI(ctx)
	if err != nil {
		_, resetAt := ratelimit.Classify(err)
		next := ratelimit.ResetOrDefault(resetAt, now).Add(g.jitter())

		g.mu.Lock()
		g.state.NextCheckAt = next
		g.state.LastError = err.Error()
		g.mu.Unlock()

		g.logger.Printf("Identity check deferred (%v). Will retry after %s", err, next.UTC().Format(time.RFC3339))
		return nil
	}

	actual := normalize(username)
	if g.expected != "" && actual != g.expected {
		return fmt.Errorf("%w: authenticated @%s != expected @%s", ErrIdentityMismatch, actual, g.expected)
	}

	g.mu.Lock()
	g.state = State{Confirmed: true, Username: username}
	g.mu.Unlock()

	g.logger.Printf("Identity confirmed as @%s", username)
	return nil
}

// Confirmed reports whether posting is allowed. A disabled check counts as confirmed.
func (g *Guard) Confirmed() bool {
	if g.disabled {
		return true
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state.Confirmed
}

// Snapshot returns a copy of the current state.
func (g *Guard) Snapshot() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s := g.state
	if g.disabled {
		s.Confirmed = true
	}
	return s
}

// Check is a one-shot lookup used by the checkcreds tool. It ignores the backoff clock.
func Check(ctx context.Context, lookup Lookup, expected string) (string, error) {
	username, err := lookup.WhoAmI(ctx)
	if err != nil {
		return "", err
	}
	if exp := normalize(expected); exp != "" && normalize(username) != exp {
		return username, fmt.Errorf("%w: authenticated @%s != expected @%s", ErrIdentityMismatch, normalize(username), exp)
	}
	return username, nil
}

func normalize(name string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), "@")
}
