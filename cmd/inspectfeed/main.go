// Command inspectfeed prints the newest feed items and the batch the daemon would process for
// a given cursor, without downloading or posting anything.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"yt2x/config"
	"yt2x/cursor"
	"yt2x/rssfeeds"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	feedURL := flag.String("feed", cfg.Feed.URL, "Feed URL or YouTube channel/playlist id")
	last := flag.String("cursor", "", "Treat this item id as last published (default: read the configured store)")
	top := flag.Int("n", 10, "Number of feed items to list")
	flag.Parse()

	url := config.ResolveFeedURL(*feedURL)
	if url == "" {
		fmt.Fprintln(os.Stderr, "FEED_URL is required (or pass -feed)")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cur := *last
	if cur == "" {
		store, err := cursor.Open(ctx, cfg.Cursor)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot open cursor store: %v\n", err)
		} else if cur, err = store.Load(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot read cursor: %v\n", err)
		}
	}

	items, err := rssfeeds.NewFetcher(url, nil).Fetch(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	batch, err := rssfeeds.Unseen(cur, items)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	fmt.Println(render(url, cur, rssfeeds.SortNewestFirst(items), batch, *top))
}
