package types

import (
	"errors"
	"io/fs"
	"os"
	"time"
)

// FeedItem is a single entry read from the publication feed.
type FeedItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
}

// LiveStatus classifies an item before acquisition.
type LiveStatus string

const (
	StatusNotLive    LiveStatus = "not_live"
	StatusIsUpcoming LiveStatus = "is_upcoming"
	StatusIsLive     LiveStatus = "is_live"
	StatusWasLive    LiveStatus = "was_live"
	StatusUnknown    LiveStatus = "unknown"
)

// ParseLiveStatus maps a tool-reported value to a LiveStatus. Empty means not live.
func ParseLiveStatus(s string) LiveStatus {
	switch LiveStatus(s) {
	case "", StatusNotLive:
		return StatusNotLive
	case StatusIsUpcoming, StatusIsLive, StatusWasLive:
		return LiveStatus(s)
	default:
		return StatusUnknown
	}
}

// Artifact is the pair of local files produced for one item.
type Artifact struct {
	Raw  string `json:"raw"`
	Clip string `json:"clip"`
}

// Remove deletes both files. Files that are already gone are not an error.
func (a Artifact) Remove() error {
	var errs []error
	for _, p := range []string{a.Raw, a.Clip} {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PostedEvent is emitted after an item has been published.
type PostedEvent struct {
	EventID  string    `json:"event_id"`
	ItemID   string    `json:"item_id"`
	Title    string    `json:"title"`
	URL      string    `json:"url"`
	PostID   string    `json:"post_id,omitempty"`
	Fallback bool      `json:"fallback"`
	DryRun   bool      `json:"dry_run"`
	PostedAt time.Time `json:"posted_at"`
}

// CursorOverride asks the running loop to replace the persisted cursor.
type CursorOverride struct {
	ItemID      string    `json:"item_id"`
	RequestedBy string    `json:"requested_by,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}
