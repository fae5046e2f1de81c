package video

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"yt2x/logger"
	"yt2x/ratelimit"
	"yt2x/types"
)

// ErrVideoNotFound is returned when the Data API has no record of the id.
var ErrVideoNotFound = errors.New("video not found")

// YouTubeProber classifies live status through the YouTube Data API.
type YouTubeProber struct {
	service *youtube.Service
}

// NewYouTubeProber builds a Data API client keyed by apiKey. Extra options are appended, which
// lets tests point the client at a local server.
func NewYouTubeProber(ctx context.Context, apiKey string, opts ...option.ClientOption) (*YouTubeProber, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube service: %w", err)
	}
	return &YouTubeProber{service: svc}, nil
}

// LiveStatus maps snippet.liveBroadcastContent and liveStreamingDetails onto a LiveStatus.
func (p *YouTubeProber) LiveStatus(ctx context.Context, id string) (types.LiveStatus, error) {
	resp, err := p.service.Videos.List([]string{"snippet", "liveStreamingDetails"}).Id(id).Context(ctx).Do()
	if err != nil {
		return types.StatusUnknown, classifyGoogleError(err)
	}
	if len(resp.Items) == 0 {
		return types.StatusUnknown, fmt.Errorf("%w: %s", ErrVideoNotFound, id)
	}

	v := resp.Items[0]
	if v.Snippet != nil {
		switch v.Snippet.LiveBroadcastContent {
		case "upcoming":
			return types.StatusIsUpcoming, nil
		case "live":
			return types.StatusIsLive, nil
		}
	}
	if d := v.LiveStreamingDetails; d != nil && d.ActualEndTime != "" {
		return types.StatusWasLive, nil
	}
	return types.StatusNotLive, nil
}

func classifyGoogleError(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return fmt.Errorf("youtube videos.list: %w", err)
	}

	limited := gerr.Code == http.StatusTooManyRequests
	if gerr.Code == http.StatusForbidden {
		for _, item := range gerr.Errors {
			if item.Reason == "rateLimitExceeded" || item.Reason == "quotaExceeded" {
				limited = true
			}
		}
	}
	if limited {
		return ratelimit.RateLimited("youtube", time.Time{}, err)
	}
	return fmt.Errorf("youtube videos.list: %w", err)
}

// FallbackProber asks Primary first and falls back to Secondary on any error, including an
// exhausted API quota. The Secondary error is returned when both fail.
type FallbackProber struct {
	Primary   Prober
	Secondary Prober
	Logger    *log.Logger
}

// NewFallbackProber wires the Data API prober in front of yt-dlp.
func NewFallbackProber(primary, secondary Prober) *FallbackProber {
	return &FallbackProber{Primary: primary, Secondary: secondary, Logger: logger.New("livestatus")}
}

func (f *FallbackProber) LiveStatus(ctx context.Context, id string) (types.LiveStatus, error) {
	status, err := f.Primary.LiveStatus(ctx, id)
	if err == nil {
		return status, nil
	}
	if f.Secondary == nil {
		return status, err
	}
	if ratelimit.IsRateLimited(err) {
		f.Logger.Printf("⚠️ YouTube API rate limited for %s, falling back: %v", id, err)
	} else {
		f.Logger.Printf("YouTube API lookup failed for %s, falling back: %v", id, err)
	}
	return f.Secondary.LiveStatus(ctx, id)
}
