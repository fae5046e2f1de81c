package publisher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"yt2x/config"
	"yt2x/logger"
	"yt2x/ratelimit"
	"yt2x/types"
)

var (
	ErrMediaProcessingFailed  = errors.New("media processing failed")
	ErrMediaProcessingTimeout = errors.New("media processing timed out")
	ErrPublishFailed          = errors.New("publish failed")
)

// Client is the subset of the X API the publisher needs.
type Client interface {
	UploadMedia(ctx context.Context, path string) (string, error)
	MediaStatus(ctx context.Context, mediaID string) (types.MediaStatus, error)
	CreatePost(ctx context.Context, text string, mediaIDs []string) (string, error)
}

// Result describes a completed publish. PostID is empty in dry run.
type Result struct {
	PostID   string
	Fallback bool
	DryRun   bool
}

// Publisher uploads a clip, waits for server-side processing and creates the post. Callers
// must confirm identity first; the publisher does not re-check it.
type Publisher struct {
	client            Client
	DryRun            bool
	AllowLinkFallback bool
	MaxPolls          int
	Sleep             ratelimit.SleepFunc
	Logger            *log.Logger
}

// New builds a publisher from the publish settings.
func New(client Client, cfg config.PublishConfig) *Publisher {
	return &Publisher{
		client:            client,
		DryRun:            cfg.DryRun,
		AllowLinkFallback: cfg.AllowLinkFallback,
		MaxPolls:          config.MaxStatusPolls,
		Sleep:             ratelimit.Sleep,
		Logger:            logger.New("publisher"),
	}
}

// Caption is the post text for item. The link is the item's derived URL, or the short
// YouTube link when the entry carried none.
func Caption(item types.FeedItem) string {
	title := item.Title
	if r := []rune(title); len(r) > 200 {
		title = string(r[:197]) + "..."
	}
	link := item.URL
	if link == "" {
		link = "https://youtu.be/" + item.ID
	}
	return fmt.Sprintf("%s\n\nWatch full on YouTube: %s", title, link)
}

// Publish posts item with the clip at clipPath attached. Rate-limited errors are returned
// as-is so the caller can back off; any other failure falls back to a text-only post when
// enabled.
func (p *Publisher) Publish(ctx context.Context, item types.FeedItem, clipPath string) (Result, error) {
	text := Caption(item)

	if p.DryRun {
		p.Logger.Printf("[DRY_RUN] Would upload %s and post: %q", clipPath, text)
		return Result{DryRun: true}, nil
	}

	postID, err := p.publishWithMedia(ctx, text, clipPath)
	if err == nil {
		p.Logger.Printf("✅ Posted %s with native video (post %s)", item.ID, postID)
		return Result{PostID: postID}, nil
	}
	if ratelimit.IsRateLimited(err) {
		return Result{}, err
	}

	p.Logger.Printf("❌ Native video post failed for %s: %v", item.ID, err)
	if !p.AllowLinkFallback {
		p.Logger.Println("Skipping link-only fallback (set ALLOW_LINK_FALLBACK=1 to enable)")
		return Result{}, fmt.Errorf("%w: %s: %w", ErrPublishFailed, item.ID, err)
	}

	postID, fbErr := p.client.CreatePost(ctx, text, nil)
	if fbErr != nil {
		p.Logger.Printf("❌ Link-only fallback failed for %s: %v", item.ID, fbErr)
		return Result{}, fmt.Errorf("%w: %s: %w", ErrPublishFailed, item.ID, errors.Join(err, fbErr))
	}
	p.Logger.Printf("⚠️  Fallback link-only post for %s (post %s)", item.ID, postID)
	return Result{PostID: postID, Fallback: true}, nil
}

func (p *Publisher) publishWithMedia(ctx context.Context, text, clipPath string) (string, error) {
	mediaID, err := p.client.UploadMedia(ctx, clipPath)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	if err := p.waitForMedia(ctx, mediaID); err != nil {
		return "", err
	}
	postID, err := p.client.CreatePost(ctx, text, []string{mediaID})
	if err != nil {
		return "", fmt.Errorf("create post: %w", err)
	}
	return postID, nil
}

func (p *Publisher) waitForMedia(ctx context.Context, mediaID string) error {
	for i := 0; i < p.MaxPolls; i++ {
		status, err := p.client.MediaStatus(ctx, mediaID)
		if err != nil {
			return fmt.Errorf("media status: %w", err)
		}

		switch status.State {
		case types.MediaSucceeded:
			return nil
		case types.MediaFailed:
			reason := status.Error
			if reason == "" {
				reason = "unknown"
			}
			return fmt.Errorf("%w: %s", ErrMediaProcessingFailed, reason)
		}

		if err := p.Sleep(ctx, statusDelay(status.CheckAfter)); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w: media %s after %d checks", ErrMediaProcessingTimeout, mediaID, p.MaxPolls)
}

func statusDelay(checkAfter time.Duration) time.Duration {
	if checkAfter <= 0 {
		checkAfter = config.DefaultStatusDelay
	}
	return min(checkAfter, config.MaxStatusDelay)
}
