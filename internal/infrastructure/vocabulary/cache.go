// Package vocabulary keeps per-collection facet vocabularies in memory and
// refreshes them from a facet source.
package vocabulary

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kirillkom/catalog-nlq/internal/core/domain"
	"github.com/kirillkom/catalog-nlq/internal/core/ports"
)

const (
	DefaultTTL           = 10 * time.Minute
	DefaultRetryInterval = 30 * time.Second
	DefaultFetchTimeout  = 30 * time.Second
)

// RefreshObserver receives the outcome of each refresh attempt.
type RefreshObserver func(collection string, ok bool, size int)

type Options struct {
	TTL           time.Duration
	RetryInterval time.Duration
	FetchTimeout  time.Duration
	Logger        *slog.Logger
	Observer      RefreshObserver
	Now           func() time.Time
}

// Cache holds the last good vocabulary of one collection. Readers get a
// snapshot; refreshes never surface errors.
type Cache struct {
	collection string
	source     ports.FacetSource
	ttl        time.Duration
	retry      time.Duration
	timeout    time.Duration
	logger     *slog.Logger
	observer   RefreshObserver
	now        func() time.Time

	group singleflight.Group

	mu          sync.RWMutex
	vocab       domain.Vocabulary
	lastRefresh time.Time
	lastFailure time.Time
	version     uint64
}

func NewCache(collection string, source ports.FacetSource, opts Options) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = DefaultRetryInterval
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache{
		collection: collection,
		source:     source,
		ttl:        opts.TTL,
		retry:      opts.RetryInterval,
		timeout:    opts.FetchTimeout,
		logger:     opts.Logger,
		observer:   opts.Observer,
		now:        opts.Now,
		vocab:      domain.Vocabulary{},
	}
}

func (c *Cache) Collection() string { return c.collection }

// Get returns the values of one field from the current snapshot.
func (c *Cache) Get(field string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vocab.Get(field)
}

// Snapshot returns the current vocabulary. Callers must not mutate it.
func (c *Cache) Snapshot() domain.Vocabulary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vocab
}

// Version increases on every successful refresh.
func (c *Cache) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Refresh reloads the vocabulary if it is stale, or unconditionally when
// forced. Concurrent calls share one fetch. Once a vocabulary has loaded, a
// stale non-forced call returns the current snapshot and leaves the fetch
// running in the background. The fetch is detached from ctx so a cancelled
// request does not fail it for everyone.
func (c *Cache) Refresh(ctx context.Context, force bool) domain.Vocabulary {
	if !force && !c.due() {
		return c.Snapshot()
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(c.collection, func() (any, error) {
		if !force && !c.due() {
			return c.Snapshot(), nil
		}
		loadCtx, cancel := context.WithTimeout(fetchCtx, c.timeout)
		defer cancel()
		return c.load(loadCtx), nil
	})

	if !force && c.loaded() {
		return c.Snapshot()
	}
	select {
	case res := <-ch:
		return res.Val.(domain.Vocabulary)
	case <-ctx.Done():
		return c.Snapshot()
	}
}

func (c *Cache) loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.lastRefresh.IsZero()
}

func (c *Cache) due() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	now := c.now()
	if !c.lastFailure.IsZero() && now.Sub(c.lastFailure) < c.retry {
		return false
	}
	return c.lastRefresh.IsZero() || now.Sub(c.lastRefresh) >= c.ttl
}

func (c *Cache) load(ctx context.Context) domain.Vocabulary {
	fetched, err := c.source.FetchFacets(ctx, c.collection)
	if err == nil && fetched.Size() == 0 {
		c.logger.Warn("vocabulary_refresh_empty", "collection", c.collection)
		c.markFailure()
		return c.Snapshot()
	}
	if err != nil {
		c.logger.Warn("vocabulary_refresh_failed", "collection", c.collection, "error", err)
		c.markFailure()
		return c.Snapshot()
	}

	c.mu.Lock()
	c.vocab = fetched
	c.lastRefresh = c.now()
	c.lastFailure = time.Time{}
	c.version++
	c.mu.Unlock()

	c.logger.Info("vocabulary_refreshed",
		"collection", c.collection,
		"fields", len(fetched),
		"values", fetched.Size(),
	)
	if c.observer != nil {
		c.observer(c.collection, true, fetched.Size())
	}
	return fetched
}

func (c *Cache) markFailure() {
	c.mu.Lock()
	c.lastFailure = c.now()
	size := c.vocab.Size()
	c.mu.Unlock()
	if c.observer != nil {
		c.observer(c.collection, false, size)
	}
}
