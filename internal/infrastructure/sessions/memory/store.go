// Package memory keeps per-caller account retry counters in process.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	DefaultIdleTTL    = 15 * time.Minute
	DefaultMaxEntries = 10000
)

// RetryStore counts clarification retries per caller. Counters expire
// after an idle period, and the store never holds more than MaxEntries
// callers.
type RetryStore struct {
	mu         sync.Mutex
	cache      *cache.Cache
	maxEntries int
}

func NewRetryStore(idleTTL time.Duration, maxEntries int) *RetryStore {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &RetryStore{
		cache:      cache.New(idleTTL, idleTTL),
		maxEntries: maxEntries,
	}
}

func (s *RetryStore) Get(_ context.Context, caller string) (int, error) {
	if x, found := s.cache.Get(caller); found {
		return x.(int), nil
	}
	return 0, nil
}

// Increment bumps the counter and refreshes its idle expiry.
func (s *RetryStore) Increment(_ context.Context, caller string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 1
	if x, found := s.cache.Get(caller); found {
		n = x.(int) + 1
	} else if s.cache.ItemCount() >= s.maxEntries {
		s.evictOldest()
	}
	s.cache.Set(caller, n, cache.DefaultExpiration)
	return n, nil
}

func (s *RetryStore) Reset(_ context.Context, caller string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Delete(caller)
	return nil
}

func (s *RetryStore) Len() int {
	return s.cache.ItemCount()
}

// evictOldest drops the entry closest to expiry, which is the one touched
// least recently since every write resets the expiry.
func (s *RetryStore) evictOldest() {
	var oldestKey string
	var oldest int64
	for k, item := range s.cache.Items() {
		if oldestKey == "" || item.Expiration < oldest {
			oldestKey, oldest = k, item.Expiration
		}
	}
	if oldestKey != "" {
		s.cache.Delete(oldestKey)
	}
}
