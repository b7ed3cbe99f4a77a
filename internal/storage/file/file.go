// Package file stores each snapshot as a JSON file inside a directory.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/tinoosan/microfin/internal/errs"
	"github.com/tinoosan/microfin/internal/slug"
)

// Store writes snapshots atomically: a .tmp sibling is written and fsynced, then
// renamed over the target so a crash never leaves a half-written file.
type Store struct {
	dir string
	mu  sync.Mutex
}

// New creates dir if needed and returns a store rooted there.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("file store: directory required: %w", errs.ErrInvalid)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("file store: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Path is the file a key is stored in.
func (s *Store) Path(key string) string {
	name := slug.Slugify(key)
	if name == "" {
		name = "snapshot"
	}
	return filepath.Join(s.dir, name+".json")
}

func (s *Store) Load(_ context.Context, key string) ([]byte, error) {
	b, err := os.ReadFile(s.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("file store: read: %w", err)
	}
	return b, nil
}

func (s *Store) Save(_ context.Context, key string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(key)
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return fmt.Errorf("file store: create: %w", err)
	}
	if _, err := f.Write(payload); err != nil {
		f.Close()
		return fmt.Errorf("file store: write: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("file store: sync: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("file store: close: %w", err)
	}
	return os.Rename(tmp, path)
}

// Ready checks that the directory is still there.
func (s *Store) Ready(context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("file store: %s is not a directory", s.dir)
	}
	return nil
}

func (s *Store) Close() error { return nil }
