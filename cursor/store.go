package cursor

import (
	"context"
	"fmt"
	"strings"

	"yt2x/config"
)

// Store persists the id of the last successfully published item.
// Load returns "" when nothing has ever been published.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, id string) error
}

// Open builds the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.CursorConfig) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "file":
		return NewFileStore(cfg.File), nil
	case "redis":
		return NewRedisStore(ctx, RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.Key,
		})
	case "postgres":
		return NewPostgresStore(ctx, cfg.DatabaseDSN, cfg.Key)
	default:
		return nil, fmt.Errorf("unknown cursor backend %q", cfg.Backend)
	}
}
