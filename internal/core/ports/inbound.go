package ports

import (
	"context"

	"github.com/kirillkom/catalog-nlq/internal/core/domain"
)

// QueryUnderstander is the inbound contract for utterance understanding.
type QueryUnderstander interface {
	UnderstandOrders(ctx context.Context, query domain.OrderQuery) (*domain.Understanding, error)
	UnderstandCatalog(ctx context.Context, query domain.CatalogQuery) (*domain.Understanding, error)
}

// VocabularyAdmin exposes vocabulary maintenance operations.
type VocabularyAdmin interface {
	RefreshVocabulary(ctx context.Context) (map[string]int, error)
	UnknownTerms(ctx context.Context, limit int) ([]domain.UnknownTermStat, error)
}
