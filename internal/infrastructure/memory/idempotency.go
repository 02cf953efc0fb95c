package memory

import (
	"context"
	"sync"
	"time"
)

type idemEntry struct {
	orderIDs  []string
	done      bool
	expiresAt time.Time
}

// IdempotencyStore is the process-local stand-in for the Redis store.
type IdempotencyStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]*idemEntry
	now     func() time.Time
}

func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{ttl: ttl, entries: make(map[string]*idemEntry), now: time.Now}
}

func (s *IdempotencyStore) Claim(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.live(key); ok && e != nil {
		return false, ctx.Err()
	}
	s.entries[key] = &idemEntry{expiresAt: s.now().Add(s.ttl)}
	return true, ctx.Err()
}

func (s *IdempotencyStore) Complete(ctx context.Context, key string, orderIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = &idemEntry{
		orderIDs:  append([]string(nil), orderIDs...),
		done:      true,
		expiresAt: s.now().Add(s.ttl),
	}
	return ctx.Err()
}

func (s *IdempotencyStore) Lookup(ctx context.Context, key string) ([]string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(key)
	if !ok || !e.done {
		return nil, false, ctx.Err()
	}
	return append([]string(nil), e.orderIDs...), true, ctx.Err()
}

// Release drops a pending claim; completed keys are kept until they expire.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok && !e.done {
		delete(s.entries, key)
	}
	return ctx.Err()
}

func (s *IdempotencyStore) live(key string) (*idemEntry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if s.now().After(e.expiresAt) {
		delete(s.entries, key)
		return nil, false
	}
	return e, true
}
