// Package idempotency stores replayable responses keyed by the
// Idempotency-Key request header.
package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is a recorded response for one idempotency key.
type Entry struct {
	Key            string    `json:"key"`
	ResponseBody   []byte    `json:"response_body"`
	ResponseStatus int       `json:"response_status"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// Store returns (nil, nil) for unknown or expired keys.
//
// Reserve marks a key as in flight for at most ttl and reports false when
// another request already holds it. The returned token releases the
// reservation; Release with a stale token is a no-op.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, entry *Entry) error
	Reserve(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}

type reservation struct {
	token     string
	expiresAt time.Time
}

// MemoryStore keeps entries in process memory. Expired entries are dropped
// lazily on lookup and by Cleanup.
type MemoryStore struct {
	mu       sync.Mutex
	entries  map[string]*Entry
	inFlight map[string]reservation
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:  make(map[string]*Entry),
		inFlight: make(map[string]reservation),
		now:      time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	if !s.now().Before(e.ExpiresAt) {
		delete(s.entries, key)
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (s *MemoryStore) Set(_ context.Context, entry *Entry) error {
	cp := *entry
	s.mu.Lock()
	s.entries[entry.Key] = &cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Reserve(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if r, ok := s.inFlight[key]; ok && now.Before(r.expiresAt) {
		return "", false, nil
	}
	token := uuid.NewString()
	s.inFlight[key] = reservation{token: token, expiresAt: now.Add(ttl)}
	return token, true, nil
}

func (s *MemoryStore) Release(_ context.Context, key, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.inFlight[key]; ok && r.token == token {
		delete(s.inFlight, key)
	}
	return nil
}

// Cleanup removes expired entries and stale reservations and reports how
// many entries were dropped.
func (s *MemoryStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for k, e := range s.entries {
		if !now.Before(e.ExpiresAt) {
			delete(s.entries, k)
			removed++
		}
	}
	for k, r := range s.inFlight {
		if !now.Before(r.expiresAt) {
			delete(s.inFlight, k)
		}
	}
	return removed
}
