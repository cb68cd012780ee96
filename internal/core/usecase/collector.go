package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/catalog-nlq/internal/core/domain"
	"github.com/kirillkom/catalog-nlq/internal/core/ports"
)

// UnknownTermCollector persists unknown-term batches received from the API
// processes.
type UnknownTermCollector struct {
	store  ports.UnknownTermStore
	logger *slog.Logger
}

func NewUnknownTermCollector(store ports.UnknownTermStore, logger *slog.Logger) *UnknownTermCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &UnknownTermCollector{store: store, logger: logger}
}

// Collect drops blank and duplicate events and appends the rest. It returns
// the number of events handed to the store.
func (uc *UnknownTermCollector) Collect(ctx context.Context, batch []domain.UnknownTerm) (int, error) {
	clean := make([]domain.UnknownTerm, 0, len(batch))
	seen := make(map[string]struct{}, len(batch))
	for _, t := range batch {
		t.Term = strings.ToLower(strings.TrimSpace(t.Term))
		if t.Term == "" || t.ID == "" {
			continue
		}
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		clean = append(clean, t)
	}
	if len(clean) == 0 {
		return 0, nil
	}

	if err := uc.store.AppendUnknownTerms(ctx, clean); err != nil {
		if errors.Is(err, context.Canceled) {
			return 0, err
		}
		return 0, domain.WrapError(domain.ErrTemporary, "collect unknown terms", fmt.Errorf("append: %w", err))
	}
	uc.logger.Debug("unknown_terms_collected", "received", len(batch), "stored", len(clean))
	return len(clean), nil
}
