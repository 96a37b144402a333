package auth

import (
	"context"
	"sync"
	"time"
)

// RevocationStore tracks revoked access-token identifiers until their
// recorded expiry. Implementations must be safe for concurrent use.
//
// IsRevoked returning an error means the store could not be consulted;
// callers must treat that as revoked rather than admit the request.
type RevocationStore interface {
	// Revoke records the jti as rejected until expiresAt. Recording the same
	// jti again is a no-op or refreshes the entry; it never shortens it.
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	// IsRevoked reports whether a non-expired entry exists for the jti.
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// MemoryRevocationStore is a process-local RevocationStore. It backs tests
// and single-node deployments that run without Redis. Expired entries are
// compacted lazily on lookup.
type MemoryRevocationStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

// NewMemoryRevocationStore creates an empty store.
func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{entries: make(map[string]time.Time)}
}

// Revoke records the jti until expiresAt.
func (s *MemoryRevocationStore) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.entries[jti]; ok && existing.After(expiresAt) {
		return nil
	}
	s.entries[jti] = expiresAt
	return nil
}

// IsRevoked reports whether the jti has a live entry.
func (s *MemoryRevocationStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiresAt, ok := s.entries[jti]
	if !ok {
		return false, nil
	}
	if time.Now().After(expiresAt) {
		delete(s.entries, jti)
		return false, nil
	}
	return true, nil
}
