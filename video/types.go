package video

import (
	"context"
	"os/exec"
	"time"

	"yt2x/types"
)

// Prober classifies an item's live status before acquisition.
type Prober interface {
	LiveStatus(ctx context.Context, id string) (types.LiveStatus, error)
}

// Acquirer downloads a bounded section (or live capture) of an item to dest.
// Re-running with the same dest overwrites any prior partial output.
type Acquirer interface {
	Acquire(ctx context.Context, id string, status types.LiveStatus, duration time.Duration, dest string) error
}

// Transcoder converts src into the publish-ready clip profile at dst.
type Transcoder interface {
	Transcode(ctx context.Context, src, dst string, duration time.Duration) error
}

// Runner executes an external tool and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs the command with os/exec; stderr is folded into the error.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// WatchURL is the canonical page for a YouTube video id.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}
