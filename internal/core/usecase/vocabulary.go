package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/catalog-nlq/internal/core/domain"
	"github.com/kirillkom/catalog-nlq/internal/core/ports"
)

const defaultUnknownTermLimit = 50

type VocabularyUseCase struct {
	provider ports.VocabularyProvider
	terms    ports.UnknownTermReader
}

func NewVocabularyUseCase(provider ports.VocabularyProvider, terms ports.UnknownTermReader) *VocabularyUseCase {
	return &VocabularyUseCase{provider: provider, terms: terms}
}

// RefreshVocabulary forces every facet source to reload and reports the
// number of values per field.
func (uc *VocabularyUseCase) RefreshVocabulary(ctx context.Context) (map[string]int, error) {
	return uc.provider.RefreshAll(ctx).Counts(), nil
}

func (uc *VocabularyUseCase) UnknownTerms(ctx context.Context, limit int) ([]domain.UnknownTermStat, error) {
	if limit <= 0 {
		limit = defaultUnknownTermLimit
	}
	if uc.terms == nil {
		return nil, nil
	}
	stats, err := uc.terms.TopUnknownTerms(ctx, limit)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "list unknown terms", fmt.Errorf("read: %w", err))
	}
	return stats, nil
}
