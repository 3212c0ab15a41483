package store

import (
	"sync"

	"sleeper-players-service/internal/domain/players"
)

// MemoryStore keeps a thread-safe snapshot of one player dictionary in memory.
// Readers always receive copies.
type MemoryStore struct {
	mu   sync.RWMutex
	dict players.Dictionary
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Loaded reports whether a dictionary has been adopted, even an empty one.
func (s *MemoryStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dict != nil
}

// Len returns the number of held players.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.dict)
}

// Dictionary returns a copy of the held dictionary, or nil when nothing is loaded.
func (s *MemoryStore) Dictionary() players.Dictionary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dict.Clone()
}

// ListPlayers returns a copy of every held player in no particular order.
func (s *MemoryStore) ListPlayers() []players.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]players.Player, 0, len(s.dict))
	for _, p := range s.dict {
		result = append(result, p.Clone())
	}
	return result
}

// GetPlayer retrieves a player by ID.
func (s *MemoryStore) GetPlayer(id string) (players.Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.dict[id]
	if !ok {
		return players.Player{}, false
	}
	return p.Clone(), true
}

// SetPlayers replaces the existing dictionary with a copy of dict.
// A nil dict is stored as empty so the store still counts as loaded.
func (s *MemoryStore) SetPlayers(dict players.Dictionary) {
	next := dict.Clone()
	if next == nil {
		next = players.Dictionary{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dict = next
}
