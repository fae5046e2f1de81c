package cursor

import (
	"context"
	"path/filepath"
	"testing"

	"yt2x/config"
)

func TestOpenFileBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last.txt")
	s, err := Open(context.Background(), config.CursorConfig{Backend: "file", File: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	fs, ok := s.(*FileStore)
	if !ok || fs.Path() != path {
		t.Fatalf("Open returned %T", s)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open(context.Background(), config.CursorConfig{Backend: "etcd"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestOpenPostgresRequiresDSN(t *testing.T) {
	if _, err := Open(context.Background(), config.CursorConfig{Backend: "postgres"}); err == nil {
		t.Fatal("expected error without DSN")
	}
}
