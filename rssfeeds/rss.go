package rssfeeds

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"yt2x/config"
	"yt2x/ratelimit"
	"yt2x/types"

	"github.com/mmcdole/gofeed"
)

var (
	// ErrFeedEmpty is returned when the feed yields zero parsable items.
	ErrFeedEmpty = errors.New("no valid entries found in feed")
	// ErrFeedFetch wraps network and parse failures.
	ErrFeedFetch = errors.New("feed fetch failed")
)

const youtubeIDPrefix = "yt:video:"

// Fetcher retrieves and parses a single RSS/Atom feed.
type Fetcher struct {
	url    string
	parser *gofeed.Parser
}

// NewFetcher creates a fetcher for feedURL. A nil client uses a 30s timeout client.
func NewFetcher(feedURL string, client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	parser := gofeed.NewParser()
	parser.UserAgent = config.FeedUserAgent
	parser.Client = client
	return &Fetcher{url: feedURL, parser: parser}
}

// URL returns the feed address.
func (f *Fetcher) URL() string { return f.url }

// Fetch returns the feed entries that carry an id, in feed order.
// A 429 from the feed host comes back as a rate-limit classified error.
func (f *Fetcher) Fetch(ctx context.Context) ([]types.FeedItem, error) {
	feed, err := f.parser.ParseURLWithContext(f.url, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			return nil, ratelimit.FromStatus("rss", httpErr.StatusCode, time.Time{},
				fmt.Errorf("%w: %s", ErrFeedFetch, httpErr.Status))
		}
		return nil, fmt.Errorf("%w: %v", ErrFeedFetch, err)
	}

	items := make([]types.FeedItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if item, ok := toFeedItem(entry); ok {
			items = append(items, item)
		}
	}

	if len(items) == 0 {
		return nil, ErrFeedEmpty
	}
	return items, nil
}

// toFeedItem maps a gofeed entry. YouTube entries are keyed by yt:videoId; other feeds
// fall back to the GUID, then a hash of the link.
func toFeedItem(entry *gofeed.Item) (types.FeedItem, bool) {
	if entry == nil {
		return types.FeedItem{}, false
	}

	id := youtubeVideoID(entry)
	url := entry.Link
	if id != "" {
		url = "https://youtu.be/" + id
	} else if entry.GUID != "" {
		id = strings.TrimPrefix(entry.GUID, youtubeIDPrefix)
	} else if entry.Link != "" {
		id = linkID(entry.Link)
	}
	if id == "" {
		return types.FeedItem{}, false
	}

	var publishedAt time.Time
	if entry.PublishedParsed != nil {
		publishedAt = *entry.PublishedParsed
	} else if entry.UpdatedParsed != nil {
		publishedAt = *entry.UpdatedParsed
	}

	return types.FeedItem{
		ID:          id,
		Title:       strings.TrimSpace(entry.Title),
		URL:         url,
		PublishedAt: publishedAt,
	}, true
}

func youtubeVideoID(entry *gofeed.Item) string {
	yt, ok := entry.Extensions["yt"]
	if !ok {
		return ""
	}
	for _, ext := range yt["videoId"] {
		if v := strings.TrimSpace(ext.Value); v != "" {
			return v
		}
	}
	return ""
}

// linkID derives a stable 16-hex-char id for entries that carry neither a video id nor a GUID.
func linkID(link string) string {
	sum := sha256.Sum256([]byte(link))
	return hex.EncodeToString(sum[:8])
}
