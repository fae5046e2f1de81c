// Command backfill rewinds the cursor so the daemon republishes everything newer than the
// given item on its next cycle.
//
// Usage:
//
//	backfill [-api http://localhost:8080] <video_id>
//
// With -api the override is queued on the running daemon, which applies it at the start of
// its next cycle. Without it the configured cursor store is written directly; only do that
// while the daemon is stopped.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"yt2x/config"
	"yt2x/cursor"
	"yt2x/monitor/tui"
)

func main() {
	_ = godotenv.Load()

	apiURL := flag.String("api", "", "Status API of a running daemon (queues the override instead of writing the store)")
	flag.Parse()

	videoID := strings.TrimSpace(flag.Arg(0))
	if videoID == "" {
		fmt.Fprintln(os.Stderr, "Usage: backfill [-api URL] <video_id>")
		fmt.Fprintln(os.Stderr, "Example: backfill H0_aovRF-RY")
		os.Exit(1)
	}

	if err := backfill(*apiURL, videoID); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Backfill failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Backfilled state to: %s\n", videoID)
	fmt.Println("The daemon will process all videos newer than this ID on the next poll cycle.")
}

func backfill(apiURL, videoID string) error {
	if apiURL != "" {
		return tui.NewStatusClient(apiURL).SetCursor(videoID, "backfill")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := config.Load()
	store, err := cursor.Open(ctx, cfg.Cursor)
	if err != nil {
		return err
	}
	return store.Save(ctx, videoID)
}
