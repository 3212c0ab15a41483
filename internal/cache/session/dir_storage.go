package session

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DirStorage persists items as files in a directory that lives only as long as the session.
// Writes go through a temp file and rename so readers never observe partial items.
type DirStorage struct {
	mu    sync.Mutex
	dir   string
	owned bool
	quota int64
	sizes map[string]int64
	used  int64
}

// NewDirStorage roots storage at dir. When dir is empty a private temp directory is created
// and removed again by Close.
func NewDirStorage(dir string, quota int64) (*DirStorage, error) {
	owned := false
	if dir == "" {
		tmp, err := os.MkdirTemp("", "player-session-*")
		if err != nil {
			return nil, fmt.Errorf("create session dir: %w", err)
		}
		dir = tmp
		owned = true
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &DirStorage{
		dir:   dir,
		owned: owned,
		quota: quota,
		sizes: make(map[string]int64),
	}, nil
}

// Dir exposes the storage root (primarily for testing).
func (s *DirStorage) Dir() string {
	if s == nil {
		return ""
	}
	return s.dir
}

func (s *DirStorage) GetItem(key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (s *DirStorage) SetItem(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	size := itemSize(key, value)
	next := s.used - s.sizes[key] + size
	if s.quota > 0 && next > s.quota {
		return ErrQuotaExceeded
	}

	target := s.path(key)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, value, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	s.sizes[key] = size
	s.used = next
	return nil
}

func (s *DirStorage) RemoveItem(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	s.used -= s.sizes[key]
	delete(s.sizes, key)
	return nil
}

// Close ends the session: every item written through this storage is removed,
// along with the directory itself when it was created by NewDirStorage.
func (s *DirStorage) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.owned {
		return os.RemoveAll(s.dir)
	}
	var firstErr error
	for key := range s.sizes {
		if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) && firstErr == nil {
			firstErr = err
		}
	}
	s.sizes = make(map[string]int64)
	s.used = 0
	return firstErr
}

// Keys are hex-encoded so arbitrary partition keys map to safe file names.
func (s *DirStorage) path(key string) string {
	return filepath.Join(s.dir, hex.EncodeToString([]byte(key))+".json")
}
