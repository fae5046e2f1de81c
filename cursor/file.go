package cursor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps the cursor as a single text value in a file.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by path. The directory is created on first use.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

// Load reads the cursor; a missing file means no cursor.
func (s *FileStore) Load(ctx context.Context) (string, error) {
	if err := s.ensureDir(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read cursor %s: %w", s.path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save replaces the cursor atomically: temp file in the same directory, fsync, rename.
func (s *FileStore) Save(ctx context.Context, id string) error {
	if err := s.ensureDir(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp cursor: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.WriteString(id); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp cursor: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp cursor: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp cursor: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp cursor: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace cursor %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) ensureDir() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cursor dir %s: %w", dir, err)
	}
	return nil
}
