package session

import (
	"errors"
	"sync"
)

// ErrQuotaExceeded is returned when a write would push the storage past its quota.
var ErrQuotaExceeded = errors.New("session storage quota exceeded")

// ErrNotFound is returned by GetItem when the key is absent.
var ErrNotFound = errors.New("session storage item not found")

// Storage is a synchronous string-keyed byte store scoped to the process session.
type Storage interface {
	GetItem(key string) ([]byte, error)
	SetItem(key string, value []byte) error
	RemoveItem(key string) error
}

// MemoryStorage keeps items in memory up to a byte quota.
type MemoryStorage struct {
	mu    sync.RWMutex
	items map[string][]byte
	used  int64
	quota int64
}

// NewMemoryStorage constructs an empty MemoryStorage. A non-positive quota means unbounded.
func NewMemoryStorage(quota int64) *MemoryStorage {
	return &MemoryStorage{
		items: make(map[string][]byte),
		quota: quota,
	}
}

// GetItem returns a copy of the stored value.
func (s *MemoryStorage) GetItem(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), val...), nil
}

// SetItem stores value under key, replacing any existing value.
func (s *MemoryStorage) SetItem(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	size := itemSize(key, value)
	next := s.used - s.sizeOfLocked(key) + size
	if s.quota > 0 && next > s.quota {
		return ErrQuotaExceeded
	}
	s.items[key] = append([]byte(nil), value...)
	s.used = next
	return nil
}

// RemoveItem deletes key; removing a missing key is not an error.
func (s *MemoryStorage) RemoveItem(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.used -= s.sizeOfLocked(key)
	delete(s.items, key)
	return nil
}

// Used reports the bytes currently accounted against the quota.
func (s *MemoryStorage) Used() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.used
}

func (s *MemoryStorage) sizeOfLocked(key string) int64 {
	val, ok := s.items[key]
	if !ok {
		return 0
	}
	return itemSize(key, val)
}

func itemSize(key string, value []byte) int64 {
	return int64(len(key) + len(value))
}
