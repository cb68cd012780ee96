package nlu

import (
	"sort"
	"strings"

	"github.com/kirillkom/catalog-nlq/internal/core/domain"
)

// MatchThreshold is the minimum similarity for a fuzzy vocabulary match.
const MatchThreshold = 0.8

// synonymWindow is how many words after a synonym are tried as a value.
const synonymWindow = 3

// Fields never matched against the vocabulary. Account fields come only
// from the account extractor; matching them fuzzily could resolve a
// different customer's account.
var defaultIgnoredFields = []string{
	domain.FieldSearchText, "_text_", "_version_", "id",
	domain.FieldAccountID, domain.FieldAccountPartial, domain.FieldPrice,
}

// Matcher extracts typed entities from normalized text.
type Matcher struct {
	ignored   map[string]struct{}
	synonyms  []synonym
	threshold float64
}

type synonym struct {
	word  string
	field string
}

func NewMatcher(rules RuleSet) *Matcher {
	m := &Matcher{
		ignored:   make(map[string]struct{}, len(defaultIgnoredFields)),
		threshold: MatchThreshold,
	}
	for _, f := range defaultIgnoredFields {
		m.ignored[f] = struct{}{}
	}
	for word, field := range rules.Synonyms {
		m.synonyms = append(m.synonyms, synonym{word: strings.ToLower(word), field: field})
	}
	sort.Slice(m.synonyms, func(i, j int) bool { return m.synonyms[i].word < m.synonyms[j].word })
	return m
}

// Extract resolves vocabulary entities, price and synonyms. When nothing is
// found the normalized text becomes the search_text entity.
func (m *Matcher) Extract(normalized string, vocab domain.Vocabulary) domain.EntitySet {
	entities := domain.NewEntitySet()
	text := strings.ToLower(normalized)

	for _, field := range vocab.Fields() {
		if _, skip := m.ignored[field]; skip {
			continue
		}
		if value, ok := m.BestMatch(text, vocab.Get(field)); ok {
			entities.Set(field, value)
		}
	}

	if r, kind := ExtractPrice(text); kind != PriceNone {
		entities.SetPrice(r)
	}

	m.applySynonyms(text, vocab, entities)

	if len(entities) == 0 && text != "" {
		entities.Set(domain.FieldSearchText, text)
	}
	return entities
}

// BestMatch picks the candidate closest to text. A whole-word literal
// occurrence scores 1 and ends the scan.
func (m *Matcher) BestMatch(text string, candidates []string) (string, bool) {
	best := ""
	bestScore := 0.0
	for _, v := range candidates {
		clean := strings.ToLower(strings.TrimSpace(v))
		if clean == "" {
			continue
		}
		if score := Ratio(text, clean); score > bestScore {
			best, bestScore = v, score
		}
		if ContainsPhrase(text, clean) {
			best, bestScore = v, 1.0
			break
		}
	}
	if best == "" || bestScore < m.threshold {
		return "", false
	}
	return best, true
}

// applySynonyms handles phrases like "manufacturer bosch": the words after
// the synonym are scored against the canonical field's values.
func (m *Matcher) applySynonyms(text string, vocab domain.Vocabulary, entities domain.EntitySet) {
	words := strings.Fields(text)
	for _, syn := range m.synonyms {
		if entities.Has(syn.field) {
			continue
		}
		values := vocab.Get(syn.field)
		if len(values) == 0 {
			continue
		}
		for i, w := range words {
			if w != syn.word {
				continue
			}
			if value, ok := m.matchWindow(words[i+1:], values); ok {
				entities.Set(syn.field, value)
				break
			}
		}
	}
}

func (m *Matcher) matchWindow(tail []string, values []string) (string, bool) {
	best := ""
	bestScore := 0.0
	for n := 1; n <= synonymWindow && n <= len(tail); n++ {
		phrase := strings.Join(tail[:n], " ")
		for _, v := range values {
			clean := strings.ToLower(strings.TrimSpace(v))
			if clean == "" {
				continue
			}
			score := Ratio(phrase, clean)
			if phrase == clean {
				score = 1.0
			}
			if score > bestScore {
				best, bestScore = v, score
			}
		}
	}
	if best == "" || bestScore < m.threshold {
		return "", false
	}
	return best, true
}
