package nlu

import (
	"math"
	"testing"

	"github.com/kirillkom/catalog-nlq/internal/core/domain"
)

func TestRatio(t *testing.T) {
	cases := []struct {
		a, b string
		want float64
	}{
		{"", "", 1},
		{"abcd", "abcdef", 0.8},
		{"abcd", "bcde", 0.75},
		{"abc", "xyz", 0},
		{"Bosch", "bosch", 1},
		{"makitta", "makita", 12.0 / 13.0},
		{"abcdefghijklmnopqrs", "abcdefghijklmnopqrstuvwxyz123", 38.0 / 48.0},
	}
	for _, tc := range cases {
		if got := Ratio(tc.a, tc.b); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("Ratio(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestContainsPhrase(t *testing.T) {
	cases := []struct {
		text, phrase string
		want         bool
	}{
		{"red steel chair", "steel", true},
		{"steelworks", "steel", false},
		{"3m ge tape", "3m ge", true},
		{"power tools", "tool", false},
		{"tools steel", "steel", true},
		{"anything", "", false},
	}
	for _, tc := range cases {
		if got := ContainsPhrase(tc.text, tc.phrase); got != tc.want {
			t.Fatalf("ContainsPhrase(%q, %q) = %v, want %v", tc.text, tc.phrase, got, tc.want)
		}
	}
}

func TestExtractAcceptsExactThreshold(t *testing.T) {
	m := NewMatcher(DefaultRuleSet())
	got := m.Extract("abcd", domain.Vocabulary{"brand": {"abcdef"}})
	if v, _ := got.Get("brand"); v != "abcdef" {
		t.Fatalf("expected match at ratio 0.8, got %v", got)
	}
}

func TestExtractRejectsBelowThreshold(t *testing.T) {
	m := NewMatcher(DefaultRuleSet())
	got := m.Extract("abc", domain.Vocabulary{"brand": {"abcdef"}})
	if got.Has("brand") {
		t.Fatalf("expected no brand below threshold, got %v", got)
	}
	if v, _ := got.Get(domain.FieldSearchText); v != "abc" {
		t.Fatalf("expected search_text fallback, got %v", got)
	}
}

func TestExtractRejectsJustBelowThreshold(t *testing.T) {
	m := NewMatcher(DefaultRuleSet())
	// 2*19/48 = 0.7917
	got := m.Extract("abcdefghijklmnopqrs", domain.Vocabulary{"brand": {"abcdefghijklmnopqrstuvwxyz123"}})
	if got.Has("brand") {
		t.Fatalf("expected no brand at ratio 0.79, got %v", got)
	}
}

func TestExtractLiteralMatchAlwaysWins(t *testing.T) {
	m := NewMatcher(DefaultRuleSet())
	vocab := domain.Vocabulary{
		"brand":    {"Makita", "Bosch"},
		"material": {"Steel", "Plastic"},
	}
	got := m.Extract("bosch cordless drill with long lasting battery and steel case", vocab)
	if v, _ := got.Get("brand"); v != "Bosch" {
		t.Fatalf("expected brand Bosch, got %v", got)
	}
	if v, _ := got.Get("material"); v != "Steel" {
		t.Fatalf("expected material Steel, got %v", got)
	}
	if got.Has(domain.FieldSearchText) {
		t.Fatalf("search_text must be absent when entities were found: %v", got)
	}
}

func TestExtractPricePhrases(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"drill under 500", "[0 TO 500]"},
		{"drill above 100", "[100 TO 999999]"},
		{"drill over 100", "[100 TO 999999]"},
		{"drill greater than 250", "[250 TO 999999]"},
		{"drill between 100 and 500", "[100 TO 500]"},
		{"drill between 100 2 500", "[100 TO 500]"},
		{"under 900 between 100 and 500", "[100 TO 500]"},
	}
	m := NewMatcher(DefaultRuleSet())
	for _, tc := range cases {
		got := m.Extract(tc.text, nil)
		if v, _ := got.Get(domain.FieldPrice); v != tc.want {
			t.Fatalf("Extract(%q) price = %q, want %q", tc.text, v, tc.want)
		}
	}
}

func TestExtractPriceKinds(t *testing.T) {
	if _, kind := ExtractPrice("under 10"); kind != PriceMax {
		t.Fatalf("expected PriceMax, got %v", kind)
	}
	if _, kind := ExtractPrice("above 10"); kind != PriceMin {
		t.Fatalf("expected PriceMin, got %v", kind)
	}
	if _, kind := ExtractPrice("between 10 and 20"); kind != PriceBetween {
		t.Fatalf("expected PriceBetween, got %v", kind)
	}
	if _, kind := ExtractPrice("thunder 10"); kind != PriceNone {
		t.Fatalf("expected PriceNone, got %v", kind)
	}
}

func TestExtractSynonymScoresFollowingWords(t *testing.T) {
	m := NewMatcher(DefaultRuleSet())
	vocab := domain.Vocabulary{"brand": {"Bosch", "Makita"}}
	got := m.Extract("tool with manufacturer makitta", vocab)
	if v, _ := got.Get("brand"); v != "Makita" {
		t.Fatalf("expected synonym to resolve Makita, got %v", got)
	}
}

func TestExtractSynonymNeedsVocabularyField(t *testing.T) {
	m := NewMatcher(DefaultRuleSet())
	got := m.Extract("tool with manufacturer makitta", domain.Vocabulary{"color": {"Red"}})
	if got.Has("brand") {
		t.Fatalf("synonym must not set a field missing from vocabulary: %v", got)
	}
}

func TestExtractNeverMatchesAccountFields(t *testing.T) {
	m := NewMatcher(DefaultRuleSet())
	got := m.Extract("acc1027", domain.Vocabulary{domain.FieldAccountID: {"ACC1028", "ACC1027"}})
	if got.Has(domain.FieldAccountID) {
		t.Fatalf("account_id must not come from vocabulary: %v", got)
	}
}
