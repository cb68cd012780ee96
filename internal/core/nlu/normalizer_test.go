package nlu

import (
	"sync"
	"testing"
)

type unknownSinkFake struct {
	mu    sync.Mutex
	terms []string
	calls int
}

func (f *unknownSinkFake) Record(terms []string, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.terms = append(f.terms, terms...)
}

func (f *unknownSinkFake) has(term string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.terms {
		if t == term {
			return true
		}
	}
	return false
}

func TestNormalize(t *testing.T) {
	n := NewNormalizer(DefaultRuleSet())
	cases := []struct {
		in   string
		want string
	}{
		{"Please show the Bosch drills", "bosch drills"},
		{"show products under 500", "product under 500"},
		{"god rage drill machine", "godrej drill"},
		{"Bósch grinder machine", "bosch grinder"},
		{"commercial broad loom", "commercial broadloom"},
		{"orders for two items", "order 4 2 items"},
		{"stan lee hammer", "stanley hammer"},
		{"3 m r tape", "3m tape"},
		{"boshh drill", "bosch drill"},
		{"read steal chair", "red steel chair"},
		{"Canceled orders", "cancelled order"},
		{"   ", ""},
	}
	for _, tc := range cases {
		if got := n.Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	n := NewNormalizer(DefaultRuleSet())
	corpus := []string{
		"Please show the Bosch drills",
		"show me all of the orders for account one zero two seven",
		"god rage drill machine under 500",
		"grey plastick bucket",
		"default drill between 100 and 400",
		"hitache grinder",
		"3 m g e filters",
		"residential broad loom granitt tiles",
		"boshh drill",
		"blew wooden paint brush",
		"view all orders",
		"cancel order",
		"stan lee hand tool",
		"oh two four",
	}
	for _, in := range corpus {
		once := n.Normalize(in)
		twice := n.Normalize(once)
		if once != twice {
			t.Fatalf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNormalizeRecordsUnknownTerms(t *testing.T) {
	sink := &unknownSinkFake{}
	n := NewNormalizer(DefaultRuleSet(), WithUnknownTermSink(sink))

	n.NormalizeKnown("bosch zxqv drill", nil)
	if !sink.has("zxqv") {
		t.Fatalf("expected zxqv recorded, got %v", sink.terms)
	}
	if sink.has("bosch") || sink.has("drill") {
		t.Fatalf("known terms must not be recorded, got %v", sink.terms)
	}
}

func TestNormalizeSkipsTermsKnownFromVocabulary(t *testing.T) {
	sink := &unknownSinkFake{}
	n := NewNormalizer(DefaultRuleSet(), WithUnknownTermSink(sink))

	n.NormalizeKnown("bosch zxqv", map[string]struct{}{"zxqv": {}})
	if sink.calls != 0 {
		t.Fatalf("expected no unknown terms, got %v", sink.terms)
	}
}

func TestUnknownTokensIgnoresShortTokens(t *testing.T) {
	n := NewNormalizer(DefaultRuleSet())
	got := n.UnknownTokens("ab 2 xyzw", nil)
	if len(got) != 1 || got[0] != "xyzw" {
		t.Fatalf("unexpected unknown tokens: %v", got)
	}
}
