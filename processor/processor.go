package processor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"yt2x/config"
	"yt2x/logger"
	"yt2x/ratelimit"
	"yt2x/types"
	"yt2x/video"
)

var (
	// ErrAcquisitionFailed wraps the last tool error once download retries are exhausted.
	ErrAcquisitionFailed = errors.New("acquisition failed")
	// ErrConversionFailed wraps a transcode error. Conversion is not retried.
	ErrConversionFailed = errors.New("conversion failed")
)

// Installer verifies (and if needed repairs) the acquisition tool before use.
type Installer interface {
	EnsureInstalled(ctx context.Context) error
}

// Processor turns one feed item into a publish-ready clip. It never reads or writes the cursor.
type Processor struct {
	Prober     video.Prober
	Acquirer   video.Acquirer
	Transcoder video.Transcoder
	Installer  Installer

	WorkDir      string
	ClipDuration time.Duration
	MaxRetries   int
	RetryDelay   time.Duration

	Sleep  ratelimit.SleepFunc
	Logger *log.Logger
}

// New builds a processor from the clip configuration.
func New(cfg config.Config, prober video.Prober, acquirer video.Acquirer, transcoder video.Transcoder) *Processor {
	return &Processor{
		Prober:       prober,
		Acquirer:     acquirer,
		Transcoder:   transcoder,
		WorkDir:      cfg.Clip.WorkDir,
		ClipDuration: cfg.ClipDuration(),
		MaxRetries:   cfg.Clip.MaxRetries,
		RetryDelay:   cfg.RetryDelay(),
		Sleep:        ratelimit.Sleep,
		Logger:       logger.New("processor"),
	}
}

// Paths returns the raw and clip file locations for an item id.
func (p *Processor) Paths(id string) types.Artifact {
	return types.Artifact{
		Raw:  filepath.Join(p.WorkDir, id+".mp4"),
		Clip: filepath.Join(p.WorkDir, id+".clip.mp4"),
	}
}

// Process classifies, acquires and transcodes item. Upcoming lives are deferred without
// touching disk; on failure any partial files are removed before returning.
func (p *Processor) Process(ctx context.Context, item types.FeedItem) types.Outcome {
	status, err := p.classify(ctx, item.ID)
	if ratelimit.IsRateLimited(err) {
		p.Logger.Printf("live status rate limited for %s, skipping this cycle: %v", item.ID, err)
		return types.Skip("live status rate limited")
	}
	if status == types.StatusIsUpcoming {
		p.Logger.Printf("live is upcoming for %s, will retry later", item.ID)
		return types.Defer("live is upcoming")
	}

	if p.Installer != nil {
		if err := p.Installer.EnsureInstalled(ctx); err != nil {
			p.Logger.Printf("acquisition tool unavailable, skipping %s this cycle: %v", item.ID, err)
			return types.Skip("acquisition tool unavailable")
		}
	}

	art := p.Paths(item.ID)
	if err := p.acquire(ctx, item.ID, status, art.Raw); err != nil {
		p.cleanup(art)
		return types.Failure(err)
	}

	if err := p.Transcoder.Transcode(ctx, art.Raw, art.Clip, p.ClipDuration); err != nil {
		p.cleanup(art)
		p.Logger.Printf("transcode failed for %s: %v", item.ID, err)
		return types.Failure(fmt.Errorf("%w: %s: %w", ErrConversionFailed, item.ID, err))
	}

	p.Logger.Printf("clip ready for %s (%s)", item.ID, status)
	return types.Success(art)
}

// classify returns unknown for any prober error. A rate-limited error is also returned
// so the item is not acquired on a guess.
func (p *Processor) classify(ctx context.Context, id string) (types.LiveStatus, error) {
	status, err := p.Prober.LiveStatus(ctx, id)
	if ratelimit.IsRateLimited(err) {
		return types.StatusUnknown, err
	}
	if err != nil {
		p.Logger.Printf("live status unknown for %s, treating as not live: %v", id, err)
		return types.StatusUnknown, nil
	}
	if status == types.StatusUnknown {
		p.Logger.Printf("live status unknown for %s, treating as not live", id)
	}
	return status, nil
}

func (p *Processor) acquire(ctx context.Context, id string, status types.LiveStatus, dest string) error {
	attempts := p.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		lastErr = p.Acquirer.Acquire(ctx, id, status, p.ClipDuration, dest)
		if lastErr == nil {
			return nil
		}
		if i == attempts {
			break
		}
		p.Logger.Printf("download failed for %s (attempt %d/%d), retrying in %s: %v", id, i, attempts, p.RetryDelay, lastErr)
		if err := p.Sleep(ctx, p.RetryDelay); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrAcquisitionFailed, id, err)
		}
	}

	p.Logger.Printf("download failed for %s after %d attempts: %v", id, attempts, lastErr)
	return fmt.Errorf("%w: %s: %w", ErrAcquisitionFailed, id, lastErr)
}

func (p *Processor) cleanup(art types.Artifact) {
	if err := art.Remove(); err != nil {
		p.Logger.Printf("failed to remove partial files: %v", err)
	}
}
