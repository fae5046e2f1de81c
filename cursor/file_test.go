package cursor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state", "last.txt")
	s := NewFileStore(path)

	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != "" {
		t.Fatalf("Load = %q; want empty", got)
	}
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Fatalf("state dir not created: %v", err)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(filepath.Join(dir, "last.txt"))
	ctx := context.Background()

	for _, id := range []string{"H0_aovRF-RY", "cSTfxJSa2QY"} {
		if err := s.Save(ctx, id); err != nil {
			t.Fatalf("Save(%q): %v", id, err)
		}
		got, err := s.Load(ctx)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if got != id {
			t.Fatalf("Load = %q; want %q", got, id)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestFileStoreTrimsOperatorEdits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last.txt")
	// echo "id" > last.txt leaves a trailing newline
	if err := os.WriteFile(path, []byte("  abc123\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := NewFileStore(path).Load(context.Background())
	if err != nil || got != "abc123" {
		t.Fatalf("Load = (%q, %v); want abc123", got, err)
	}
}
