package cursor

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const cursorTable = "yt2x_cursor"

const createTableSQL = `CREATE TABLE IF NOT EXISTS yt2x_cursor (
	feed_key   TEXT PRIMARY KEY,
	item_id    TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// querier is the subset of pgxpool.Pool the store needs.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps one cursor row per feed key.
type PostgresStore struct {
	db   querier
	pool *pgxpool.Pool
	key  string
}

// NewPostgresStore opens a pool, verifies it and creates the table if needed.
func NewPostgresStore(ctx context.Context, dsn, key string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := newPostgresStore(pool, key)
	s.pool = pool
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func newPostgresStore(db querier, key string) *PostgresStore {
	if key == "" {
		key = "yt2x:cursor"
	}
	return &PostgresStore{db: db, key: key}
}

// EnsureSchema creates the cursor table.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create %s: %w", cursorTable, err)
	}
	return nil
}

// Load returns "" when no row exists for the key.
func (s *PostgresStore) Load(ctx context.Context) (string, error) {
	query, args, err := loadQuery(s.key)
	if err != nil {
		return "", err
	}

	var id string
	err = s.db.QueryRow(ctx, query, args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("select cursor: %w", err)
	}
	return id, nil
}

// Save upserts the row in a single statement.
func (s *PostgresStore) Save(ctx context.Context, id string) error {
	query, args, err := saveQuery(s.key, id)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert cursor: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func loadQuery(key string) (string, []any, error) {
	return psql.Select("item_id").
		From(cursorTable).
		Where(sq.Eq{"feed_key": key}).
		ToSql()
}

func saveQuery(key, id string) (string, []any, error) {
	return psql.Insert(cursorTable).
		Columns("feed_key", "item_id", "updated_at").
		Values(key, id, sq.Expr("NOW()")).
		Suffix("ON CONFLICT (feed_key) DO UPDATE SET item_id = EXCLUDED.item_id, updated_at = NOW()").
		ToSql()
}
