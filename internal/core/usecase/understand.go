package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/kirillkom/catalog-nlq/internal/core/domain"
	"github.com/kirillkom/catalog-nlq/internal/core/nlu"
	"github.com/kirillkom/catalog-nlq/internal/core/ports"
)

var errEmptyQuery = errors.New("query text required")

// Keys dropped from order-scope entities before compilation.
var orderIgnoredKeys = []string{
	domain.FieldSearchText,
	domain.FieldAccountPartial,
	"notes", "by", "to", "for",
}

// UnderstandUseCase runs the full pipeline for one utterance.
type UnderstandUseCase struct {
	normalizer *nlu.Normalizer
	matcher    *nlu.Matcher
	accounts   *nlu.AccountExtractor
	classifier ports.IntentClassifier
	vocabulary ports.VocabularyProvider
	resolver   *Resolver
	compiler   *Compiler
	logger     *slog.Logger
}

func NewUnderstandUseCase(
	normalizer *nlu.Normalizer,
	matcher *nlu.Matcher,
	accounts *nlu.AccountExtractor,
	classifier ports.IntentClassifier,
	vocabulary ports.VocabularyProvider,
	resolver *Resolver,
	compiler *Compiler,
	logger *slog.Logger,
) *UnderstandUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &UnderstandUseCase{
		normalizer: normalizer,
		matcher:    matcher,
		accounts:   accounts,
		classifier: classifier,
		vocabulary: vocabulary,
		resolver:   resolver,
		compiler:   compiler,
		logger:     logger,
	}
}

func (uc *UnderstandUseCase) UnderstandOrders(ctx context.Context, query domain.OrderQuery) (*domain.Understanding, error) {
	text := strings.TrimSpace(query.Text)
	if text == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "understand orders", errEmptyQuery)
	}

	vocab := uc.vocabulary.Vocabulary(ctx)
	normalized := uc.normalizer.NormalizeKnown(text, uc.vocabulary.KnownTerms(ctx))
	pred := uc.classifier.Classify(ctx, normalized)
	entities := uc.matcher.Extract(normalized, vocab)

	// Account extraction reads the raw text so phonetic rules can not
	// rewrite spoken digits.
	switch match := uc.accounts.Extract(text); {
	case match.Found():
		entities.SetAccountID(match.ID)
		delete(entities, domain.FieldSearchText)
	case match.Partial:
		entities.MarkAccountPartial()
		delete(entities, domain.FieldSearchText)
	}

	res := uc.resolver.ResolveOrders(ctx, OrderInput{
		Caller:     query.Caller,
		Normalized: normalized,
		Entities:   entities,
		Prediction: pred,
	})

	out := &domain.Understanding{
		Scope:      domain.ScopeOrders,
		Intent:     res.Intent,
		Confidence: res.Confidence,
		Normalized: normalized,
		Entities:   res.Entities,
	}
	if res.Clarification != nil {
		out.Clarification = res.Clarification
		out.Summary = res.Clarification.Message
		return out, nil
	}

	scoped := SanitizeOrderEntities(res.Entities)
	if res.Intent == domain.IntentViewAllOrders {
		delete(scoped, domain.FieldAccountID)
	}
	out.Filters = uc.compiler.CompileWith(scoped, vocab)
	out.MainQuery = domain.MatchAllQuery
	out.Summary = orderSummary(out.Filters)

	uc.logger.Debug("order_query_understood",
		"intent", out.Intent,
		"confidence", out.Confidence,
		"filters", out.Filters.String(),
	)
	return out, nil
}

func (uc *UnderstandUseCase) UnderstandCatalog(ctx context.Context, query domain.CatalogQuery) (*domain.Understanding, error) {
	text := strings.TrimSpace(query.Text)
	if text == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "understand catalog", errEmptyQuery)
	}

	vocab := uc.vocabulary.Vocabulary(ctx)
	normalized := uc.normalizer.NormalizeKnown(text, uc.vocabulary.KnownTerms(ctx))
	pred := uc.classifier.Classify(ctx, normalized)
	entities := uc.matcher.Extract(normalized, vocab)

	out := &domain.Understanding{
		Scope:      domain.ScopeCatalog,
		Confidence: pred.Confidence,
		Normalized: normalized,
		Entities:   entities,
	}

	if len(query.Filters) > 0 {
		out.Intent = domain.IntentFacetFilter
		out.Filters = uc.compiler.CompileFilters(query.Filters, vocab)
		out.MainQuery = strings.ReplaceAll(text, `"`, "")
		return out, nil
	}

	_, priceKind := nlu.ExtractPrice(normalized)
	res := uc.resolver.ResolveCatalog(CatalogInput{
		RawText:    text,
		Normalized: normalized,
		Entities:   entities,
		Prediction: pred,
		PriceKind:  priceKind,
	}, uc.compiler.FacetFields())

	out.Intent = res.Intent
	out.MainQuery = res.MainQuery
	switch res.Intent {
	case domain.IntentBrowseAll, domain.IntentTextSearch:
	default:
		out.Filters = uc.compiler.CompileWith(catalogEntities(entities), vocab)
	}

	uc.logger.Debug("catalog_query_understood",
		"intent", out.Intent,
		"confidence", out.Confidence,
		"query", out.MainQuery,
		"filters", out.Filters.String(),
	)
	return out, nil
}

// SanitizeOrderEntities drops filler and control keys from order-scope
// entities. Item-level keys are dropped when an account id is present.
func SanitizeOrderEntities(entities domain.EntitySet) domain.EntitySet {
	out := entities.Clone()
	for _, k := range orderIgnoredKeys {
		delete(out, k)
	}
	if out.Has(domain.FieldAccountID) {
		for _, k := range ItemScopedFields {
			delete(out, k)
		}
	}
	return out
}

func catalogEntities(entities domain.EntitySet) domain.EntitySet {
	out := entities.Clone()
	delete(out, domain.FieldSearchText)
	delete(out, domain.FieldAccountID)
	delete(out, domain.FieldAccountPartial)
	return out
}

func orderSummary(filters domain.FilterExpression) string {
	var b strings.Builder
	b.WriteString("Showing orders")
	var others []string
	for _, t := range filters.Terms {
		if t.Field == domain.FieldAccountID {
			fmt.Fprintf(&b, " for account %s", strings.Join(t.Values, ","))
			continue
		}
		if t.Op == domain.OpRange {
			others = append(others, fmt.Sprintf("%s=%d-%d", t.Field, t.Low, t.High))
			continue
		}
		others = append(others, t.Field+"="+strings.Join(t.Values, ","))
	}
	if len(others) > 0 {
		sort.Strings(others)
		b.WriteString(" filtered by ")
		b.WriteString(strings.Join(others, ", "))
	}
	b.WriteString(".")
	return b.String()
}
