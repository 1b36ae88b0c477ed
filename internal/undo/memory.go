package undo

import (
	"context"
	"sync"
	"time"

	"github.com/plannivo/booking-engine/internal/domain"
)

type memoryEntry struct {
	payload   Payload
	expiresAt time.Time
}

// MemoryStore is an in-process token store for single-instance deployments
// and tests. Expired entries are swept periodically; Redeem also checks the
// deadline so a token never outlives its TTL between sweeps.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	stopCh  chan struct{}
	stopped sync.Once
}

// NewMemoryStore creates a MemoryStore and starts its sweep loop
func NewMemoryStore(sweepInterval time.Duration) *MemoryStore {
	if sweepInterval <= 0 {
		sweepInterval = 30 * time.Second
	}
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		stopCh:  make(chan struct{}),
	}
	go s.sweep(sweepInterval)
	return s
}

// Put stores the payload under the token for the given TTL
func (s *MemoryStore) Put(_ context.Context, token string, payload Payload, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = memoryEntry{
		payload:   payload,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Redeem removes and returns the payload exactly once
func (s *MemoryStore) Redeem(_ context.Context, token string) (Payload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[token]
	if !ok {
		return Payload{}, domain.ErrUndoTokenGone
	}
	delete(s.entries, token)
	if time.Now().After(entry.expiresAt) {
		return Payload{}, domain.ErrUndoTokenGone
	}
	return entry.payload, nil
}

// Stop terminates the sweep loop
func (s *MemoryStore) Stop() {
	s.stopped.Do(func() { close(s.stopCh) })
}

func (s *MemoryStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for token, entry := range s.entries {
				if now.After(entry.expiresAt) {
					delete(s.entries, token)
				}
			}
			s.mu.Unlock()
		}
	}
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
