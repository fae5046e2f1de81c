package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"yt2x/logger"
)

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedGovernor(jitter time.Duration) (*Governor, *[]time.Duration) {
	var slept []time.Duration
	g := &Governor{
		Now:    func() time.Time { return base },
		Jitter: func() time.Duration { return jitter },
		Sleep: func(ctx context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		},
		Logger: logger.Discard(),
	}
	return g, &slept
}

func TestClassify(t *testing.T) {
	reset := base.Add(time.Minute)
	cases := []struct {
		name      string
		err       error
		limited   bool
		wantReset time.Time
	}{
		{"nil", nil, false, time.Time{}},
		{"plain", errors.New("boom"), false, time.Time{}},
		{"429 with reset", RateLimited("x", reset, nil), true, reset},
		{"wrapped 429", fmt.Errorf("post: %w", RateLimited("x", reset, nil)), true, reset},
		{"500", FromStatus("x", 500, time.Time{}, nil), false, time.Time{}},
		{"status 429", FromStatus("feed", 429, time.Time{}, errors.New("slow down")), true, time.Time{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			limited, resetAt := Classify(c.err)
			if limited != c.limited || !resetAt.Equal(c.wantReset) {
				t.Fatalf("Classify = (%v, %v); want (%v, %v)", limited, resetAt, c.limited, c.wantReset)
			}
		})
	}
}

func TestBackoffDelay(t *testing.T) {
	g, _ := fixedGovernor(3 * time.Second)

	cases := []struct {
		name    string
		resetAt time.Time
		want    time.Duration
	}{
		{"future reset", base.Add(90 * time.Second), 93 * time.Second},
		{"past reset", base.Add(-time.Minute), 3 * time.Second},
		{"no reset", time.Time{}, 15*time.Minute + 3*time.Second},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := g.BackoffDelay(c.resetAt); got != c.want {
				t.Fatalf("BackoffDelay = %v; want %v", got, c.want)
			}
		})
	}
}

func TestBackoffDelayNeverShorterThanReset(t *testing.T) {
	g := &Governor{Now: func() time.Time { return base }, Jitter: Jitter}
	for i := 0; i < 200; i++ {
		reset := base.Add(time.Duration(i) * time.Second)
		d := g.BackoffDelay(reset)
		if d < reset.Sub(base) || d >= reset.Sub(base)+5*time.Second {
			t.Fatalf("BackoffDelay(%v) = %v out of range", reset, d)
		}
	}
}

func TestWait(t *testing.T) {
	g, slept := fixedGovernor(0)

	handled, err := g.Wait(context.Background(), errors.New("other"), "tweet")
	if handled || err != nil || len(*slept) != 0 {
		t.Fatalf("non rate-limit error must not sleep: handled=%v err=%v slept=%v", handled, err, *slept)
	}

	handled, err = g.Wait(context.Background(), RateLimited("x", base.Add(10*time.Second), nil), "tweet")
	if !handled || err != nil {
		t.Fatalf("Wait = (%v, %v)", handled, err)
	}
	if len(*slept) != 1 || (*slept)[0] != 10*time.Second {
		t.Fatalf("slept %v; want [10s]", *slept)
	}
}

func TestWaitReportsBackoffWindow(t *testing.T) {
	g, _ := fixedGovernor(2 * time.Second)
	var until time.Time
	var where string
	g.OnBackoff = func(u time.Time, w string) { until, where = u, w }

	if _, err := g.Wait(context.Background(), RateLimited("x", base.Add(time.Minute), nil), "feed"); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if want := base.Add(time.Minute + 2*time.Second); !until.Equal(want) || where != "feed" {
		t.Errorf("OnBackoff(%v, %q); want (%v, feed)", until, where, want)
	}
}

func TestSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("Sleep = %v; want context.Canceled", err)
	}
}
