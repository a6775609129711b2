package memory

import (
	"context"
	"strings"
	"sync"
	"time"
)

type leaseEntry struct {
	value     string
	expiresAt time.Time
}

// LeaseStore is the in-memory stand-in for the valkey typing-lease store.
// Entries expire lazily on read.
type LeaseStore struct {
	mu      sync.Mutex
	entries map[string]leaseEntry

	// Now is swappable so expiry behavior can be pinned in tests.
	Now func() time.Time
}

func NewLeaseStore() *LeaseStore {
	return &LeaseStore{
		entries: make(map[string]leaseEntry),
		Now:     time.Now,
	}
}

func (s *LeaseStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = leaseEntry{value: value, expiresAt: s.Now().Add(ttl)}
	return nil
}

func (s *LeaseStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// List returns the values of all unexpired leases under prefix.
func (s *LeaseStore) List(ctx context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.Now()
	var out []string
	for key, e := range s.entries {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if now.After(e.expiresAt) {
			delete(s.entries, key)
			continue
		}
		out = append(out, e.value)
	}
	return out, nil
}
