package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"
)

const stateTokenBytes = 32

type pendingHandshake struct {
	verifier      string
	createdAt     time.Time
	redirectAfter string
}

// HandshakeStore correlates an outbound OAuth authorization request with its
// PKCE verifier and post-login redirect target. Entries live until consumed
// or until the TTL elapses.
//
// All access is serialized under one mutex, so removal and the TTL check in
// Complete are atomic: two callbacks racing on the same state token can never
// both succeed.
type HandshakeStore struct {
	mu      sync.Mutex
	entries map[string]pendingHandshake
	ttl     time.Duration
	now     func() time.Time
}

// HandshakeStoreOption configures a HandshakeStore.
type HandshakeStoreOption func(*HandshakeStore)

// WithHandshakeNow overrides the clock, primarily for tests.
func WithHandshakeNow(now func() time.Time) HandshakeStoreOption {
	return func(s *HandshakeStore) {
		s.now = now
	}
}

// NewHandshakeStore constructs a store with the given entry TTL. The TTL is a
// tunable security/usability trade-off, not part of the public contract.
func NewHandshakeStore(ttl time.Duration, opts ...HandshakeStoreOption) *HandshakeStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	s := &HandshakeStore{
		entries: make(map[string]pendingHandshake),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Begin mints a fresh unguessable state token and records the pending
// handshake. Expired entries are pruned while the lock is held, amortizing
// cleanup onto normal traffic.
func (s *HandshakeStore) Begin(verifier, redirectAfter string) (string, error) {
	buf := make([]byte, stateTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("auth: generate state token: %w", err)
	}
	state := base64.RawURLEncoding.EncodeToString(buf)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := now.Add(-s.ttl)
	for key, entry := range s.entries {
		if entry.createdAt.Before(cutoff) {
			delete(s.entries, key)
		}
	}

	s.entries[state] = pendingHandshake{
		verifier:      verifier,
		createdAt:     now,
		redirectAfter: redirectAfter,
	}
	return state, nil
}

// Complete removes and returns the entry for state. ok is false when the
// token is unknown or the entry's age exceeds the TTL at the moment of
// lookup; callers treat both identically as authentication failure. The
// entry is removed either way, so a second Complete with the same token
// always fails.
func (s *HandshakeStore) Complete(state string) (verifier, redirectAfter string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, found := s.entries[state]
	if !found {
		return "", "", false
	}
	delete(s.entries, state)

	if s.now().Sub(entry.createdAt) > s.ttl {
		return "", "", false
	}
	return entry.verifier, entry.redirectAfter, true
}

// Sweep removes all expired entries and returns how many were dropped.
// Complete already enforces the TTL logically; the sweep only bounds the
// physical size of the map between lookups.
func (s *HandshakeStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for key, entry := range s.entries {
		if entry.createdAt.Before(cutoff) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep on the given interval until ctx is done.
func (s *HandshakeStore) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-ctx.Done():
			return
		}
	}
}
