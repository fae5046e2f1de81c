package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"yt2x/config"
	"yt2x/logger"
)

// Kind is the classification assigned to an error at the boundary where it was observed.
type Kind int

const (
	KindOther Kind = iota
	KindRateLimited
)

// ClassifiedError wraps an error from an external collaborator (feed, X API, YouTube API).
// ResetAt is zero when the server gave no reset hint.
type ClassifiedError struct {
	Kind    Kind
	Status  int
	ResetAt time.Time
	Source  string
	Err     error
}

func (e *ClassifiedError) Error() string {
	label := "error"
	if e.Kind == KindRateLimited {
		label = "rate limited"
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s (status %d)", e.Source, label, e.Status)
	}
	return fmt.Sprintf("%s: %s (status %d): %v", e.Source, label, e.Status, e.Err)
}

func (e *ClassifiedError) Unwrap() error { return e.Err }

// RateLimited builds a rate-limit classified error.
func RateLimited(source string, resetAt time.Time, err error) *ClassifiedError {
	return &ClassifiedError{Kind: KindRateLimited, Status: 429, ResetAt: resetAt, Source: source, Err: err}
}

// FromStatus classifies an HTTP status code; 429 is the only rate-limit marker.
func FromStatus(source string, status int, resetAt time.Time, err error) *ClassifiedError {
	kind := KindOther
	if status == 429 {
		kind = KindRateLimited
	}
	return &ClassifiedError{Kind: kind, Status: status, ResetAt: resetAt, Source: source, Err: err}
}

// Classify reports whether err carries a rate-limit marker anywhere in its chain.
func Classify(err error) (limited bool, resetAt time.Time) {
	var ce *ClassifiedError
	if errors.As(err, &ce) && ce.Kind == KindRateLimited {
		return true, ce.ResetAt
	}
	return false, time.Time{}
}

// IsRateLimited is Classify without the reset time.
func IsRateLimited(err error) bool {
	limited, _ := Classify(err)
	return limited
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Governor turns rate-limit signals into jittered sleeps. The same policy applies
// whichever subsystem produced the signal.
type Governor struct {
	Now    func() time.Time
	Jitter func() time.Duration
	Sleep  SleepFunc
	Logger *log.Logger

	// OnBackoff, when set, is told when a Wait will end before the sleep starts.
	OnBackoff func(until time.Time, where string)
}

// NewGovernor returns a Governor on the wall clock with 0–5s uniform jitter.
func NewGovernor() *Governor {
	return &Governor{
		Now:    time.Now,
		Jitter: Jitter,
		Sleep:  Sleep,
		Logger: logger.New("ratelimit"),
	}
}

// Jitter returns a uniform random duration in [0, MaxJitter).
func Jitter() time.Duration {
	return time.Duration(rand.Int63n(int64(config.MaxJitter)))
}

// ResetOrDefault returns resetAt, or now plus the default window when no hint was given.
func ResetOrDefault(resetAt, now time.Time) time.Time {
	if resetAt.IsZero() {
		return now.Add(config.DefaultRateLimitWindow)
	}
	return resetAt
}

// BackoffDelay is max(resetAt-now, 0) plus jitter; a zero resetAt means now+15min.
func (g *Governor) BackoffDelay(resetAt time.Time) time.Duration {
	now := g.Now()
	wait := ResetOrDefault(resetAt, now).Sub(now)
	if wait < 0 {
		wait = 0
	}
	return wait + g.Jitter()
}

// Wait sleeps out a rate-limit signal. It returns false without sleeping when err is not
// rate-limit classified, so callers can fall through to their own handling.
func (g *Governor) Wait(ctx context.Context, err error, where string) (bool, error) {
	limited, resetAt := Classify(err)
	if !limited {
		return false, nil
	}
	d := g.BackoffDelay(resetAt)
	if g.OnBackoff != nil {
		g.OnBackoff(g.Now().Add(d), where)
	}
	g.Logger.Printf("⚠️ 429 at %s. Sleeping ~%ds…", where, int(d.Round(time.Second)/time.Second))
	return true, g.Sleep(ctx, d)
}
