package usecase

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kirillkom/catalog-nlq/internal/core/domain"
	"github.com/kirillkom/catalog-nlq/internal/core/nlu"
)

// DefaultFacetFields are the product facets every deployment supports.
var DefaultFacetFields = []string{
	domain.FieldBrand,
	domain.FieldMaterial,
	domain.FieldColor,
	domain.FieldCategory,
}

// ItemScopedFields never coexist with an account filter.
var ItemScopedFields = []string{"item_product_id", "product_id", "sku"}

var connectiveRe = regexp.MustCompile(`(?i)\b(?:and|or)\b`)

// Compiler turns entities and explicit filters into a FilterExpression.
type Compiler struct {
	facets   []string
	facetSet map[string]struct{}
	itemSet  map[string]struct{}
}

// NewCompiler builds a compiler for the default facets plus extra fields,
// such as order status facets.
func NewCompiler(extraFacets ...string) *Compiler {
	c := &Compiler{
		facetSet: make(map[string]struct{}),
		itemSet:  make(map[string]struct{}, len(ItemScopedFields)),
	}
	for _, f := range append(append([]string(nil), DefaultFacetFields...), extraFacets...) {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		if _, dup := c.facetSet[f]; dup {
			continue
		}
		c.facetSet[f] = struct{}{}
		c.facets = append(c.facets, f)
	}
	for _, f := range ItemScopedFields {
		c.itemSet[f] = struct{}{}
	}
	return c
}

func (c *Compiler) FacetFields() []string {
	return append([]string(nil), c.facets...)
}

func (c *Compiler) IsFacet(field string) bool {
	_, ok := c.facetSet[field]
	return ok
}

// Compile renders an entity set without vocabulary context.
func (c *Compiler) Compile(entities domain.EntitySet) domain.FilterExpression {
	return c.CompileWith(entities, nil)
}

// CompileWith renders an entity set. Facet values that are known vocabulary
// values are kept whole; other values go through the AND/OR split pass.
func (c *Compiler) CompileWith(entities domain.EntitySet, vocab domain.Vocabulary) domain.FilterExpression {
	b := c.newBuilder(vocab, false)
	for _, field := range entities.Fields() {
		b.add(field, entities[field])
	}
	return b.build()
}

// CompileFilters renders explicit UI selections. Values are normalized to
// the vocabulary's canonical casing, falling back to title case.
func (c *Compiler) CompileFilters(filters map[string][]string, vocab domain.Vocabulary) domain.FilterExpression {
	b := c.newBuilder(vocab, true)
	fields := make([]string, 0, len(filters))
	for k := range filters {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	for _, field := range fields {
		for _, v := range filters[field] {
			b.add(strings.ToLower(strings.TrimSpace(field)), v)
		}
	}
	return b.build()
}

type filterBuilder struct {
	c         *Compiler
	vocab     domain.Vocabulary
	titleCase bool
	accountID string
	price     *domain.PriceRange
	facetVals map[string][]string
	itemVals  map[string][]string
	residual  []string
}

func (c *Compiler) newBuilder(vocab domain.Vocabulary, titleCase bool) *filterBuilder {
	return &filterBuilder{
		c:         c,
		vocab:     vocab,
		titleCase: titleCase,
		facetVals: make(map[string][]string),
		itemVals:  make(map[string][]string),
	}
}

func (b *filterBuilder) add(field, raw string) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return
	}
	switch {
	case field == domain.FieldAccountPartial:
	case field == domain.FieldAccountID:
		if id, ok := nlu.CanonicalAccountID(value); ok {
			b.accountID = id
		}
	case field == domain.FieldPrice:
		if r, ok := domain.ParsePriceRange(value); ok {
			b.price = &r
		}
	case b.c.IsFacet(field):
		b.addFacet(field, value)
	case b.isItemField(field):
		b.itemVals[field] = appendUnique(b.itemVals[field], value)
	default:
		b.residual = append(b.residual, value)
	}
}

func (b *filterBuilder) isItemField(field string) bool {
	_, ok := b.c.itemSet[field]
	return ok
}

func (b *filterBuilder) addFacet(field, value string) {
	if canonical, ok := exactVocabularyValue(b.vocab.Get(field), value); ok {
		b.facetVals[field] = appendUnique(b.facetVals[field], canonical)
		return
	}
	for _, part := range connectiveRe.Split(value, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		target, rest := b.redirect(field, part)
		if rest == "" {
			continue
		}
		b.facetVals[target] = appendUnique(b.facetVals[target], b.normalizeValue(target, rest))
	}
}

// redirect moves a fragment that names another facet field into that field
// and strips the field word from the value.
func (b *filterBuilder) redirect(field, part string) (string, string) {
	words := strings.Fields(part)
	for _, other := range b.c.facets {
		for i, w := range words {
			if !strings.EqualFold(w, other) {
				continue
			}
			rest := append(append([]string(nil), words[:i]...), words[i+1:]...)
			return other, strings.Join(rest, " ")
		}
	}
	return field, part
}

func (b *filterBuilder) normalizeValue(field, raw string) string {
	values := b.vocab.Get(field)
	if canonical, ok := exactVocabularyValue(values, raw); ok {
		return canonical
	}
	up := strings.ToUpper(raw)
	for _, v := range values {
		key := strings.ToUpper(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if strings.Contains(key, up) || strings.Contains(up, key) {
			return strings.TrimSpace(v)
		}
	}
	if b.titleCase {
		return cases.Title(language.Und).String(strings.ToLower(raw))
	}
	return raw
}

func (b *filterBuilder) build() domain.FilterExpression {
	var terms []domain.FilterTerm
	if b.accountID != "" {
		terms = append(terms, domain.FilterTerm{
			Field:  domain.FieldAccountID,
			Op:     domain.OpEq,
			Values: []string{b.accountID},
		})
	}
	for _, field := range b.c.facets {
		if vals := b.facetVals[field]; len(vals) > 0 {
			terms = append(terms, valuesTerm(field, vals))
		}
	}
	if b.accountID == "" {
		for _, field := range ItemScopedFields {
			if vals := b.itemVals[field]; len(vals) > 0 {
				terms = append(terms, valuesTerm(field, vals))
			}
		}
	}
	if b.price != nil {
		terms = append(terms, domain.FilterTerm{
			Field: domain.FieldPrice,
			Op:    domain.OpRange,
			Low:   b.price.Low,
			High:  b.price.High,
		})
	}
	if len(b.residual) > 0 {
		terms = append(terms, domain.FilterTerm{
			Field:  domain.FieldSearchText,
			Op:     domain.OpEq,
			Values: []string{strings.Join(b.residual, " ")},
		})
	}
	return domain.FilterExpression{Terms: terms}
}

func valuesTerm(field string, vals []string) domain.FilterTerm {
	op := domain.OpEq
	if len(vals) > 1 {
		op = domain.OpIn
	}
	return domain.FilterTerm{Field: field, Op: op, Values: vals}
}

func exactVocabularyValue(values []string, raw string) (string, bool) {
	up := strings.ToUpper(strings.TrimSpace(raw))
	for _, v := range values {
		if strings.ToUpper(strings.TrimSpace(v)) == up {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

func appendUnique(vals []string, v string) []string {
	for _, existing := range vals {
		if existing == v {
			return vals
		}
	}
	return append(vals, v)
}
