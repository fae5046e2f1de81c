package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"yt2x/config"
	"yt2x/cursor"
	"yt2x/events"
	"yt2x/identity"
	"yt2x/logger"
	"yt2x/publisher"
	"yt2x/ratelimit"
	"yt2x/rssfeeds"
	"yt2x/state"
	"yt2x/types"
)

// FeedSource yields the current feed window.
type FeedSource interface {
	Fetch(ctx context.Context) ([]types.FeedItem, error)
}

// ItemProcessor turns an item into a local clip.
type ItemProcessor interface {
	Process(ctx context.Context, item types.FeedItem) types.Outcome
}

// Publisher posts a clip.
type Publisher interface {
	Publish(ctx context.Context, item types.FeedItem, clipPath string) (publisher.Result, error)
}

// IdentityGuard confirms the publishing account without blocking polling.
type IdentityGuard interface {
	EnsureConfirmed(ctx context.Context) error
	Confirmed() bool
	Snapshot() identity.State
}

// Archiver keeps a copy of published clips.
type Archiver interface {
	ArchiveClip(ctx context.Context, item types.FeedItem, clipPath string) (string, error)
}

// EventSink receives posted events.
type EventSink interface {
	PublishPosted(ctx context.Context, ev types.PostedEvent) error
}

// Deps are the loop's collaborators. Archive and Events are optional.
type Deps struct {
	Feed      FeedSource
	Store     cursor.Store
	Processor ItemProcessor
	Publisher Publisher
	Identity  IdentityGuard
	Archive   Archiver
	Events    EventSink
	Status    *state.Manager
}

// Loop is the single-worker poll/process/publish cycle. Exactly one item is in flight at a
// time and the cursor is written at most once per cycle.
type Loop struct {
	Deps

	PollInterval  time.Duration
	HeartbeatFile string
	DryRun        bool

	Governor *ratelimit.Governor
	Sleep    ratelimit.SleepFunc
	Now      func() time.Time
	Jitter   func() time.Duration
	Logger   *log.Logger

	mu        sync.Mutex
	overrides []types.CursorOverride

	// unsaved holds progress whose cursor write failed, so the next cycle does not repost it.
	unsaved string
}

// New wires a loop from configuration.
func New(cfg config.Config, deps Deps) *Loop {
	if deps.Status == nil {
		deps.Status = state.NewManager(cfg.Feed.URL, cfg.Publish.DryRun)
	}
	gov := ratelimit.NewGovernor()
	gov.OnBackoff = deps.Status.SetBackoff
	return &Loop{
		Deps:          deps,
		PollInterval:  cfg.PollInterval(),
		HeartbeatFile: cfg.Clip.HeartbeatFile,
		DryRun:        cfg.Publish.DryRun,
		Governor:      gov,
		Sleep:         ratelimit.Sleep,
		Now:           time.Now,
		Jitter:        ratelimit.Jitter,
		Logger:        logger.New(""),
	}
}

// SubmitOverride queues a cursor replacement; it takes effect at the start of the next cycle.
func (l *Loop) SubmitOverride(o types.CursorOverride) {
	if o.RequestedAt.IsZero() {
		o.RequestedAt = l.Now()
	}
	l.mu.Lock()
	l.overrides = append(l.overrides, o)
	n := len(l.overrides)
	l.mu.Unlock()
	l.Status.SetPendingOverrides(n)
	l.Status.AddLog("Cursor override queued: %s (by %s)", o.ItemID, o.RequestedBy)
}

// takeOverride drains the queue; the most recent request wins.
func (l *Loop) takeOverride() (types.CursorOverride, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.overrides) == 0 {
		return types.CursorOverride{}, false
	}
	o := l.overrides[len(l.overrides)-1]
	l.overrides = nil
	l.Status.SetPendingOverrides(0)
	return o, true
}

// Run loops until ctx is cancelled or the publishing identity turns out to be wrong. No other
// error stops it.
func (l *Loop) Run(ctx context.Context) error {
	for {
		err := l.RunCycle(ctx)
		if errors.Is(err, identity.ErrIdentityMismatch) {
			l.Status.SetState(types.StateStopped)
			l.Status.SetError(err)
			return err
		}
		if ctx.Err() != nil {
			l.Status.SetState(types.StateStopped)
			return ctx.Err()
		}

		delay := l.PollInterval
		if err != nil {
			limited, werr := l.Governor.Wait(ctx, err, sourceOf(err))
			if werr != nil {
				l.Status.SetState(types.StateStopped)
				return werr
			}
			if limited {
				continue
			}
			l.Logger.Printf("❌ Cycle error: %v", err)
			l.Status.SetError(err)
			delay += l.Jitter()
		}

		l.Status.SetState(types.StateSleeping)
		if err := l.Sleep(ctx, delay); err != nil {
			l.Status.SetState(types.StateStopped)
			return err
		}
	}
}

// RunCycle performs one poll: heartbeat, identity check, diff, ordered processing and at most
// one cursor write.
func (l *Loop) RunCycle(ctx context.Context) (err error) {
	summary := types.CycleSummary{StartedAt: l.Now()}
	var itemErr error
	defer func() {
		summary.FinishedAt = l.Now()
		switch {
		case err != nil:
			summary.Error = err.Error()
		case itemErr != nil:
			summary.Error = itemErr.Error()
		}
		l.Status.FinishCycle(summary)
	}()

	l.heartbeat()
	l.Status.SetState(types.StatePolling)
	l.Logger.Printf("Polling feed at %s …", summary.StartedAt.UTC().Format(time.RFC3339))

	if err := l.Identity.EnsureConfirmed(ctx); err != nil {
		return err
	}
	l.Status.SetIdentity(l.Identity.Snapshot())

	stored, err := l.Store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load cursor: %w", err)
	}
	cur := stored
	if l.unsaved != "" {
		l.Logger.Printf("Resuming from unsaved cursor %s (store has %q)", l.unsaved, stored)
		cur = l.unsaved
	}
	if o, ok := l.takeOverride(); ok {
		l.Logger.Printf("Applying cursor override %q (was %q, by %s)", o.ItemID, stored, o.RequestedBy)
		cur = o.ItemID
	}
	l.Status.SetCursor(cur)

	items, err := l.Feed.Fetch(ctx)
	if err != nil {
		return err
	}
	batch, err := rssfeeds.Unseen(cur, items)
	if err != nil {
		return err
	}
	summary.Unseen = len(batch)

	last := cur
	var stopErr error
	if len(batch) == 0 {
		l.Logger.Println("No new videos.")
	} else {
		l.Logger.Printf("Found %d unseen video(s)", len(batch))
		l.Status.SetState(types.StateProcessing)
		for _, item := range rssfeeds.OldestFirst(batch) {
			published, stop, failed, err := l.handleItem(ctx, item)
			if published {
				last = item.ID
				summary.Published++
			}
			if err != nil || stop != "" {
				stopErr = err
				itemErr = failed
				summary.StopReason = stop
				break
			}
		}
	}

	if last != stored {
		if err := l.Store.Save(ctx, last); err != nil {
			l.unsaved = last
			return errors.Join(stopErr, fmt.Errorf("save cursor: %w", err))
		}
		l.unsaved = ""
		l.Logger.Printf("Cursor advanced to %s", last)
		l.Status.AddLog("Cursor advanced to %s", last)
	}
	l.Status.SetCursor(last)
	summary.CursorAfter = last
	return stopErr
}

// handleItem processes and publishes one item. A non-empty stop reason ends the batch. failed
// carries a contained item error for the cycle summary; err is escalated to Run.
func (l *Loop) handleItem(ctx context.Context, item types.FeedItem) (published bool, stop string, failed, err error) {
	l.Logger.Printf("Processing %s: %s", item.ID, item.Title)
	l.Status.AddLog("Processing %s: %s", item.ID, item.Title)

	out := l.Processor.Process(ctx, item)
	defer l.cleanup(item.ID, out.Artifact)

	switch out.Kind {
	case types.OutcomeDefer, types.OutcomeSkip:
		l.Logger.Printf("Stopping batch at %s (%s): %s", item.ID, out.Kind, out.Reason)
		l.Status.AddLog("Stopped at %s (%s): %s", item.ID, out.Kind, out.Reason)
		return false, out.Kind.String(), nil, nil
	case types.OutcomeFailure:
		l.Logger.Printf("❌ Processing failed for %s: %v", item.ID, out.Err)
		l.Status.SetError(out.Err)
		return false, "processing failed", fmt.Errorf("process %s: %w", item.ID, out.Err), nil
	}

	if !l.Identity.Confirmed() {
		l.Logger.Println("Waiting for identity confirmation; skipping post this cycle.")
		l.Status.AddLog("Identity unconfirmed; %s will be retried", item.ID)
		return false, "identity unconfirmed", nil, nil
	}

	l.Status.SetState(types.StatePublishing)
	res, err := l.Publisher.Publish(ctx, item, out.Artifact.Clip)
	l.Status.SetState(types.StateProcessing)
	if err != nil {
		if ratelimit.IsRateLimited(err) {
			return false, "rate limited", nil, err
		}
		l.Logger.Printf("❌ Publish failed for %s: %v", item.ID, err)
		l.Status.SetError(err)
		return false, "publish failed", fmt.Errorf("publish %s: %w", item.ID, err), nil
	}

	l.Status.AddLog("Published %s (post %s, fallback=%t, dry_run=%t)", item.ID, res.PostID, res.Fallback, res.DryRun)
	l.afterPublish(ctx, item, res, out.Artifact.Clip)
	return true, "", nil, nil
}

// afterPublish archives the clip and emits the posted event. Both are best-effort and skipped
// in dry run.
func (l *Loop) afterPublish(ctx context.Context, item types.FeedItem, res publisher.Result, clip string) {
	if l.DryRun {
		return
	}
	if l.Archive != nil {
		if key, err := l.Archive.ArchiveClip(ctx, item, clip); err != nil {
			l.Logger.Printf("S3 archive failed for %s: %v", item.ID, err)
		} else {
			l.Logger.Printf("Archived %s to %s", item.ID, key)
		}
	}
	if l.Events != nil {
		ev := events.NewPostedEvent(item, res.PostID, res.Fallback, res.DryRun, l.Now())
		if err := l.Events.PublishPosted(ctx, ev); err != nil {
			l.Logger.Printf("Posted event failed for %s: %v", item.ID, err)
		}
	}
}

func (l *Loop) cleanup(id string, art types.Artifact) {
	if err := art.Remove(); err != nil {
		l.Logger.Printf("Cleanup failed for %s: %v", id, err)
	}
}

// heartbeat touches the liveness file. Failures are logged and never stop the loop.
func (l *Loop) heartbeat() {
	now := l.Now()
	l.Status.Heartbeat(now)
	if l.HeartbeatFile == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(l.HeartbeatFile), 0o755); err != nil {
		l.Logger.Printf("Heartbeat dir: %v", err)
		return
	}
	if err := os.WriteFile(l.HeartbeatFile, []byte(now.UTC().Format(time.RFC3339)+"\n"), 0o644); err != nil {
		l.Logger.Printf("Heartbeat write: %v", err)
	}
}

func sourceOf(err error) string {
	var ce *ratelimit.ClassifiedError
	if errors.As(err, &ce) && ce.Source != "" {
		return ce.Source
	}
	return "unknown"
}
