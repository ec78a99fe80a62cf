package otp

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used in tests and single-node
// development setups without Redis.
type MemoryStore struct {
	mu    sync.Mutex
	codes map[string]memoryEntry
	now   func() time.Time
}

type memoryEntry struct {
	code      string
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{codes: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Put(_ context.Context, purpose Purpose, subject, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[key(purpose, subject)] = memoryEntry{code: code, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Consume(_ context.Context, purpose Purpose, subject, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(purpose, subject)
	entry, ok := s.codes[k]
	delete(s.codes, k)
	if !ok || s.now().After(entry.expiresAt) {
		return false, nil
	}
	return codesEqual(entry.code, code), nil
}
