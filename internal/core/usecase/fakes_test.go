package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/kirillkom/catalog-nlq/internal/core/domain"
)

type retryStoreFake struct {
	mu     sync.Mutex
	counts map[string]int
	err    error
}

func newRetryStoreFake() *retryStoreFake {
	return &retryStoreFake{counts: map[string]int{}}
}

func (f *retryStoreFake) Get(_ context.Context, key string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return f.counts[key], nil
}

func (f *retryStoreFake) Increment(_ context.Context, key string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.counts[key]++
	return f.counts[key], nil
}

func (f *retryStoreFake) Reset(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	delete(f.counts, key)
	return nil
}

type classifierFake struct {
	pred domain.Prediction
	text string
}

func (f *classifierFake) Classify(_ context.Context, text string) domain.Prediction {
	f.text = text
	return f.pred
}

type vocabularyFake struct {
	vocab     domain.Vocabulary
	refreshed int
}

func (f *vocabularyFake) Vocabulary(context.Context) domain.Vocabulary { return f.vocab }
func (f *vocabularyFake) KnownTerms(context.Context) map[string]struct{} {
	out := map[string]struct{}{}
	for _, vals := range f.vocab {
		for _, v := range vals {
			out[v] = struct{}{}
		}
	}
	return out
}
func (f *vocabularyFake) RefreshAll(context.Context) domain.Vocabulary {
	f.refreshed++
	return f.vocab
}

type unknownReaderFake struct {
	stats []domain.UnknownTermStat
	limit int
	err   error
}

func (f *unknownReaderFake) TopUnknownTerms(_ context.Context, limit int) ([]domain.UnknownTermStat, error) {
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.stats, nil
}

var errStoreDown = errors.New("store down")
