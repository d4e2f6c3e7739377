package ratelimit

import (
	"math"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"
)

// Store keeps one Limiter per client key. Buckets are created lazily and
// evicted when the key count exceeds maxKeys or a key is idle for idleTTL.
type Store struct {
	name     string
	rate     Rate
	limiters *expirable.LRU[string, *Limiter]

	// mu makes lookup-or-create atomic so a key never gets two buckets
	mu sync.Mutex
}

// NewStore creates a new store for managing rate limiters.
//
// Parameters:
//   - name: Store name used in log messages (e.g. "general", "login")
//   - r: The rate applied to every key
//   - maxKeys: Upper bound on the number of buckets kept in memory
//   - idleTTL: How long an unused bucket is kept
//
// Returns:
//   - A configured limiter store
func NewStore(name string, r Rate, maxKeys int, idleTTL time.Duration) *Store {
	if maxKeys <= 0 {
		maxKeys = 1
	}
	s := &Store{
		name: name,
		rate: r,
	}
	s.limiters = expirable.NewLRU[string, *Limiter](maxKeys, s.onEvict, idleTTL)
	return s
}

// GetLimiter returns the bucket for key, creating it on first use.
func (s *Store) GetLimiter(key string) *Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-adding on a hit restarts the idle timer; expirable entries age from insertion.
	if limiter, ok := s.limiters.Get(key); ok {
		s.limiters.Add(key, limiter)
		return limiter
	}

	limiter := NewLimiter(s.rate)
	s.limiters.Add(key, limiter)
	return limiter
}

// TryConsume takes one token from key's bucket and reports whether the
// request is admitted.
func (s *Store) TryConsume(key string) bool {
	return s.GetLimiter(key).Allow()
}

// RetryAfter is the hint sent with a rejection: the time to refill one token.
func (s *Store) RetryAfter() time.Duration {
	if s.rate.Capacity <= 0 || s.rate.Interval <= 0 {
		return time.Second
	}
	return s.rate.Interval / time.Duration(s.rate.Capacity)
}

// RetryAfterSeconds returns RetryAfter rounded up to whole seconds, at least one.
func (s *Store) RetryAfterSeconds() int {
	secs := int(math.Ceil(s.RetryAfter().Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// Len returns the number of buckets currently held.
func (s *Store) Len() int {
	return s.limiters.Len()
}

// Name returns the store name.
func (s *Store) Name() string {
	return s.name
}

func (s *Store) onEvict(key string, _ *Limiter) {
	log.Debug().Str("store", s.name).Str("key", key).Msg("Rate limit bucket evicted")
}
