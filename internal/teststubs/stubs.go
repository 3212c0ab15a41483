package teststubs

import (
	"context"
	"sync"
	"sync/atomic"

	"sleeper-players-service/internal/domain/players"
)

// StubProvider is a test double for providers.PlayerProvider.
type StubProvider struct {
	Dict   players.Dictionary
	Err    error
	Calls  atomic.Int32
	Notify chan struct{}
	// Gate, when set, blocks each fetch until it is closed or receives.
	Gate chan struct{}
}

// FetchPlayers returns the configured dictionary and error while tracking calls.
func (s *StubProvider) FetchPlayers(ctx context.Context, sport string) (players.Dictionary, error) {
	_ = sport
	if s.Notify != nil {
		select {
		case <-s.Notify:
		default:
			close(s.Notify)
		}
	}
	s.Calls.Add(1)
	if s.Gate != nil {
		select {
		case <-s.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Dict.Clone(), nil
}

// StubDurableTier is an in-memory test double for the durable cache tier.
type StubDurableTier struct {
	mu sync.Mutex

	Unavailable bool
	Entries     map[string]players.Dictionary
	FailWrites  bool
	// Written receives the partition key after every SetPlayers call when non-nil.
	Written chan string

	GetCalls   atomic.Int32
	SetCalls   atomic.Int32
	ClearCalls atomic.Int32
}

func (s *StubDurableTier) IsAvailable() bool {
	return !s.Unavailable
}

// GetAllPlayers returns a copy of the stored dictionary for partitionKey.
func (s *StubDurableTier) GetAllPlayers(ctx context.Context, partitionKey string) players.Dictionary {
	_ = ctx
	s.GetCalls.Add(1)
	if s.Unavailable {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	dict := s.Entries[partitionKey]
	if dict.Len() == 0 {
		return nil
	}
	return dict.Clone()
}

// SetPlayers stores dict unless writes are configured to fail.
func (s *StubDurableTier) SetPlayers(ctx context.Context, partitionKey string, dict players.Dictionary) bool {
	_ = ctx
	s.SetCalls.Add(1)
	ok := !s.Unavailable && !s.FailWrites
	if ok {
		s.mu.Lock()
		if s.Entries == nil {
			s.Entries = make(map[string]players.Dictionary)
		}
		s.Entries[partitionKey] = dict.Clone()
		s.mu.Unlock()
	}
	if s.Written != nil {
		s.Written <- partitionKey
	}
	return ok
}

func (s *StubDurableTier) Clear(ctx context.Context, partitionKey string) bool {
	_ = ctx
	s.ClearCalls.Add(1)
	if s.Unavailable {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Entries, partitionKey)
	return true
}

// Entry returns the stored dictionary for partitionKey without counting a lookup.
func (s *StubDurableTier) Entry(partitionKey string) players.Dictionary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Entries[partitionKey].Clone()
}

// StubSessionTier is an in-memory test double for the session cache tier.
type StubSessionTier struct {
	mu sync.Mutex

	Entries    map[string]players.Dictionary
	FailWrites bool

	SetCalls   atomic.Int32
	ClearCalls atomic.Int32
}

func (s *StubSessionTier) Get(partitionKey string) players.Dictionary {
	s.mu.Lock()
	defer s.mu.Unlock()
	dict := s.Entries[partitionKey]
	if dict.Len() == 0 {
		return nil
	}
	return dict.Clone()
}

func (s *StubSessionTier) Set(partitionKey string, dict players.Dictionary) bool {
	s.SetCalls.Add(1)
	if s.FailWrites {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Entries == nil {
		s.Entries = make(map[string]players.Dictionary)
	}
	s.Entries[partitionKey] = dict.Clone()
	return true
}

func (s *StubSessionTier) Clear(partitionKey string) {
	s.ClearCalls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Entries, partitionKey)
}

// Entry returns the stored dictionary for partitionKey.
func (s *StubSessionTier) Entry(partitionKey string) players.Dictionary {
	return s.Get(partitionKey)
}
