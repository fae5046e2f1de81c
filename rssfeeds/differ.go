package rssfeeds

import (
	"sort"

	"yt2x/config"
	"yt2x/types"
)

// SortNewestFirst returns a copy of items ordered by PublishedAt descending.
// Ties keep their input order.
func SortNewestFirst(items []types.FeedItem) []types.FeedItem {
	sorted := make([]types.FeedItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PublishedAt.After(sorted[j].PublishedAt)
	})
	return sorted
}

// Unseen computes the items newer than cursor, newest first, capped at MaxUnseenPerCycle.
//
// When the cursor is empty or no longer in the feed window only the single newest item is
// returned, so a first run or a rotated feed never floods the account with old posts.
func Unseen(cursor string, items []types.FeedItem) ([]types.FeedItem, error) {
	if len(items) == 0 {
		return nil, ErrFeedEmpty
	}

	sorted := SortNewestFirst(items)

	idx := -1
	if cursor != "" {
		for i, item := range sorted {
			if item.ID == cursor {
				idx = i
				break
			}
		}
	}

	var unseen []types.FeedItem
	if idx >= 0 {
		unseen = sorted[:idx]
	} else {
		unseen = sorted[:1]
	}

	if len(unseen) > config.MaxUnseenPerCycle {
		unseen = unseen[:config.MaxUnseenPerCycle]
	}
	return unseen, nil
}

// OldestFirst returns a reversed copy of a newest-first batch.
func OldestFirst(batch []types.FeedItem) []types.FeedItem {
	out := make([]types.FeedItem, len(batch))
	for i, item := range batch {
		out[len(batch)-1-i] = item
	}
	return out
}
