package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"yt2x/api"
	"yt2x/common"
	"yt2x/config"
	"yt2x/cursor"
	"yt2x/events"
	"yt2x/identity"
	"yt2x/logger"
	"yt2x/orchestrator"
	"yt2x/processor"
	"yt2x/publisher"
	"yt2x/rssfeeds"
	"yt2x/state"
	"yt2x/video"
	"yt2x/xapi"
)

// exitIdentityMismatch is the exit code when the credentials belong to the wrong account.
const exitIdentityMismatch = 2

func main() {
	os.Exit(run())
}

func run() int {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	log := logger.New("")
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Printf("❌ %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := cursor.Open(ctx, cfg.Cursor)
	if err != nil {
		log.Printf("❌ Failed to open cursor store (%s): %v", cfg.Cursor.Backend, err)
		return 1
	}
	if c, ok := store.(io.Closer); ok {
		defer c.Close()
	}

	ytdlp := video.NewYtDlp(cfg.Clip.CookiesFile)
	if err := ytdlp.EnsureInstalled(ctx); err != nil {
		log.Printf("Warning: %v (will retry before each download)", err)
	}

	var prober video.Prober = ytdlp
	if cfg.YouTube.APIKey != "" {
		yp, err := video.NewYouTubeProber(ctx, cfg.YouTube.APIKey)
		if err != nil {
			log.Printf("Warning: failed to init YouTube Data API: %v (using yt-dlp for live status)", err)
		} else {
			prober = video.NewFallbackProber(yp, ytdlp)
		}
	}

	proc := processor.New(cfg, prober, ytdlp, video.NewFFmpeg())
	proc.Installer = ytdlp

	x := xapi.NewClient(ctx, cfg.X)
	status := state.NewManager(cfg.Feed.URL, cfg.Publish.DryRun)

	deps := orchestrator.Deps{
		Feed:      rssfeeds.NewFetcher(cfg.Feed.URL, &http.Client{Timeout: 30 * time.Second}),
		Store:     store,
		Processor: proc,
		Publisher: publisher.New(x, cfg.Publish),
		Identity: identity.NewGuard(x, identity.Options{
			Expected: cfg.Publish.ExpectedUsername,
			Disabled: cfg.Publish.SkipIdentityCheck,
		}),
		Status: status,
	}

	if cfg.S3.Bucket != "" {
		archive, err := common.NewArchive(ctx, cfg.S3)
		if err != nil {
			log.Printf("Warning: failed to init S3 client: %v (archiving disabled)", err)
		} else {
			deps.Archive = archive
		}
	} else {
		log.Printf("S3 not configured; skipping clip archive")
	}

	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.PostedTopic)
		if err != nil {
			log.Printf("Warning: %v (posted events disabled)", err)
		} else {
			defer producer.Close()
			deps.Events = producer
		}
	}

	loop := orchestrator.New(cfg, deps)

	if len(cfg.Kafka.Brokers) > 0 {
		consumer, err := events.NewConsumer(events.ConsumerConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.CommandsTopic,
			GroupID: cfg.Kafka.GroupID,
			Handler: events.NewOverrideHandler(loop.SubmitOverride),
		})
		if err != nil {
			log.Printf("Warning: failed to start Kafka consumer: %v (remote overrides disabled)", err)
		} else {
			defer consumer.Close()
			go consumer.Run(ctx)
		}
	}

	if cfg.Server.Port != "" {
		srv := api.NewServer(cfg.Server.Port, api.NewRouter(status, loop, 3*cfg.PollInterval()))
		srv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	log.Printf("=== yt2x watching %s (every %s, dry_run=%t) ===", cfg.Feed.URL, cfg.PollInterval(), cfg.Publish.DryRun)
	err = loop.Run(ctx)
	if errors.Is(err, identity.ErrIdentityMismatch) {
		log.Printf("❌ %v; refusing to post. Fix the credentials or X_EXPECTED_USERNAME.", err)
		return exitIdentityMismatch
	}
	log.Println("Shutting down")
	return 0
}
