package config

import "strings"

// YouTube feed endpoints keyed by the id prefix they accept.
const (
	channelFeedURL  = "https://www.youtube.com/feeds/videos.xml?channel_id="
	playlistFeedURL = "https://www.youtube.com/feeds/videos.xml?playlist_id="
)

// ResolveFeedURL resolves a feed identifier to a URL.
// Bare channel ids (UC…) and playlist ids (PL…/UU…) become YouTube feed URLs; anything else
// is returned as-is (assuming it's a direct URL).
func ResolveFeedURL(input string) string {
	input = strings.TrimSpace(input)
	if strings.Contains(input, "://") {
		return input
	}
	switch {
	case strings.HasPrefix(input, "UC") && len(input) == 24:
		return channelFeedURL + input
	case strings.HasPrefix(input, "PL"), strings.HasPrefix(input, "UU"):
		return playlistFeedURL + input
	}
	return input
}
