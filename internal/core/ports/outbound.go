package ports

import (
	"context"

	"github.com/kirillkom/catalog-nlq/internal/core/domain"
)

// IntentClassifier predicts an intent label for normalized text.
// Implementations never fail: any error yields domain.UnknownPrediction.
type IntentClassifier interface {
	Classify(ctx context.Context, text string) domain.Prediction
}

// FacetSource fetches the distinct facet values of one collection.
type FacetSource interface {
	FetchFacets(ctx context.Context, collection string) (domain.Vocabulary, error)
}

// VocabularyProvider serves the merged vocabulary and its derived known-term set.
type VocabularyProvider interface {
	Vocabulary(ctx context.Context) domain.Vocabulary
	KnownTerms(ctx context.Context) map[string]struct{}
	RefreshAll(ctx context.Context) domain.Vocabulary
}

// RetryStore keeps per-caller account clarification counters.
type RetryStore interface {
	Get(ctx context.Context, key string) (int, error)
	Increment(ctx context.Context, key string) (int, error)
	Reset(ctx context.Context, key string) error
}

// UnknownTermSink records unknown tokens without blocking the caller.
type UnknownTermSink interface {
	Record(terms []string, original string)
}

// UnknownTermReader reports the most frequent unknown terms.
type UnknownTermReader interface {
	TopUnknownTerms(ctx context.Context, limit int) ([]domain.UnknownTermStat, error)
}

// UnknownTermStore persists unknown-term events.
type UnknownTermStore interface {
	UnknownTermReader
	AppendUnknownTerms(ctx context.Context, terms []domain.UnknownTerm) error
}

// UnknownTermPublisher forwards unknown-term events to the collector.
type UnknownTermPublisher interface {
	PublishUnknownTerms(ctx context.Context, terms []domain.UnknownTerm) error
	SubscribeUnknownTerms(ctx context.Context, handler func(context.Context, []domain.UnknownTerm) error) error
}
