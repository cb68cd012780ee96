package usecase

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/kirillkom/catalog-nlq/internal/core/domain"
	"github.com/kirillkom/catalog-nlq/internal/core/nlu"
)

var (
	allKeywordRe    = regexp.MustCompile(`\ball\b`)
	privilegeHintRe = regexp.MustCompile(`\b(?:super\s*user|admin(?:istrator)?)\b`)
	browseAllRe     = regexp.MustCompile(`\b(?:all\s+products?|show\s+products?|list\s+products?|back\s+to\s+products?|go\s+back\s+to\s+products?)\b`)
)

// OrderInput carries everything the order-scope resolver decides on.
type OrderInput struct {
	Caller     domain.Caller
	Normalized string
	Entities   domain.EntitySet
	Prediction domain.Prediction
}

// OrderResolution is the resolved intent. Entities may gain an account id
// adopted from the caller's trusted context.
type OrderResolution struct {
	Intent        domain.Intent
	Confidence    float64
	Entities      domain.EntitySet
	Clarification *domain.Clarification
}

// CatalogInput carries everything the catalog-scope resolver decides on.
type CatalogInput struct {
	RawText    string
	Normalized string
	Entities   domain.EntitySet
	Prediction domain.Prediction
	PriceKind  nlu.PriceKind
}

type CatalogResolution struct {
	Intent     domain.Intent
	Confidence float64
	MainQuery  string
}

// Resolver picks the final intent from classifier output, entities, caller
// privilege and clarification state.
type Resolver struct {
	clarifier *Clarifier
	logger    *slog.Logger
}

func NewResolver(clarifier *Clarifier, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{clarifier: clarifier, logger: logger}
}

// ResolveOrders applies the order-scope rules in order:
//  1. a captured account id wins and resets retries;
//  2. an unprivileged caller without one is clarified or, when the trusted
//     context carries an id, scoped to it;
//  3. a privileged caller asking for everything gets view_all_orders;
//  4. otherwise the classifier intent passes through.
func (r *Resolver) ResolveOrders(ctx context.Context, in OrderInput) OrderResolution {
	entities := in.Entities.Clone()
	pred := in.Prediction
	callerID := in.Caller.ID

	if privilegeHintRe.MatchString(in.Normalized) {
		r.logger.Info("privilege_phrase_ignored", "caller_id", callerID, "privileged", in.Caller.Privileged)
	}

	trustedID, hasTrusted := "", false
	if !in.Caller.Privileged && in.Caller.AccountID != "" {
		trustedID, hasTrusted = nlu.CanonicalAccountID(in.Caller.AccountID)
	}

	if spoken := entities.AccountID(); spoken != "" {
		if hasTrusted && spoken != trustedID {
			r.logger.Warn("account_mismatch_overridden", "caller_id", callerID)
			entities.SetAccountID(trustedID)
		}
		r.clarifier.OnResolved(ctx, callerID)
		return OrderResolution{Intent: domain.IntentViewOrders, Confidence: pred.Confidence, Entities: entities}
	}

	if !in.Caller.Privileged {
		if entities.AccountPartial() {
			c := r.clarifier.OnPartial(ctx, callerID)
			return OrderResolution{Intent: domain.IntentClarifyAccount, Entities: entities, Clarification: &c}
		}
		if hasTrusted {
			entities.SetAccountID(trustedID)
			r.clarifier.OnResolved(ctx, callerID)
			return OrderResolution{Intent: domain.IntentViewOrders, Confidence: pred.Confidence, Entities: entities}
		}
		c := r.clarifier.MissingAccount(ctx, callerID)
		return OrderResolution{Intent: domain.IntentClarifyAccount, Entities: entities, Clarification: &c}
	}

	if allKeywordRe.MatchString(in.Normalized) ||
		pred.Intent == domain.IntentViewAllOrders ||
		pred.Intent == domain.IntentViewOrders {
		return OrderResolution{Intent: domain.IntentViewAllOrders, Confidence: pred.Confidence, Entities: entities}
	}
	return OrderResolution{Intent: pred.Intent, Confidence: pred.Confidence, Entities: entities}
}

// ResolveCatalog routes a product-scope utterance. Price phrases override
// browse phrases; classifier field intents are kept when the field was
// extracted; any facet entity yields facet_filter; the rest is text search.
func (r *Resolver) ResolveCatalog(in CatalogInput, facets []string) CatalogResolution {
	pred := in.Prediction
	lower := strings.ToLower(strings.TrimSpace(in.RawText))
	out := CatalogResolution{Intent: pred.Intent, Confidence: pred.Confidence, MainQuery: domain.MatchAllQuery}

	browse := browseAllRe.MatchString(lower)

	if intent, ok := nlu.PriceIntent(in.PriceKind); ok {
		out.Intent = intent
		return out
	}
	if browse {
		out.Intent = domain.IntentBrowseAll
		return out
	}
	if field, ok := pred.Intent.SearchField(); ok && in.Entities.Has(field) {
		return out
	}
	for _, f := range facets {
		if in.Entities.Has(f) {
			out.Intent = domain.IntentFacetFilter
			return out
		}
	}

	clean := strings.TrimSpace(strings.ReplaceAll(in.RawText, `"`, ""))
	if clean == "" || clean == domain.MatchAllQuery {
		out.Intent = domain.IntentBrowseAll
		return out
	}
	out.Intent = domain.IntentTextSearch
	out.MainQuery = domain.FieldSearchText + `:"` + clean + `"`
	return out
}
