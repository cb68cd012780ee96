package vocabulary

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/catalog-nlq/internal/core/domain"
)

// Merged combines collection caches. Later caches win on field collisions.
type Merged struct {
	caches  []*Cache
	builtin []string
}

// NewMerged takes caches in precedence order and an optional list of
// built-in known terms.
func NewMerged(builtin []string, caches ...*Cache) *Merged {
	return &Merged{caches: caches, builtin: builtin}
}

func (m *Merged) Vocabulary(ctx context.Context) domain.Vocabulary {
	out := domain.Vocabulary{}
	for _, c := range m.caches {
		out = out.Merge(c.Refresh(ctx, false))
	}
	return out
}

// KnownTerms is every lowercased vocabulary value and each of its words,
// plus the built-in list.
func (m *Merged) KnownTerms(ctx context.Context) map[string]struct{} {
	known := make(map[string]struct{}, len(m.builtin))
	add := func(v string) {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			return
		}
		known[v] = struct{}{}
		for _, w := range strings.Fields(v) {
			known[w] = struct{}{}
		}
	}
	for _, t := range m.builtin {
		add(t)
	}
	for _, values := range m.Vocabulary(ctx) {
		for _, v := range values {
			add(v)
		}
	}
	return known
}

// RefreshAll forces every cache concurrently and returns the merged result.
func (m *Merged) RefreshAll(ctx context.Context) domain.Vocabulary {
	results := make([]domain.Vocabulary, len(m.caches))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range m.caches {
		i, c := i, c
		g.Go(func() error {
			results[i] = c.Refresh(gctx, true)
			return nil
		})
	}
	_ = g.Wait()

	out := domain.Vocabulary{}
	for _, v := range results {
		out = out.Merge(v)
	}
	return out
}

// Collections reports the version of each cache, keyed by collection.
func (m *Merged) Collections() map[string]uint64 {
	out := make(map[string]uint64, len(m.caches))
	for _, c := range m.caches {
		out[c.Collection()] = c.Version()
	}
	return out
}
