package nlu

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRuleTableAppliesInOrderWithoutReapplying(t *testing.T) {
	table := MustRuleTable("test", []Rule{
		{Pattern: `\ba\b`, Replacement: "b"},
		{Pattern: `\bb\b`, Replacement: "c"},
		{Pattern: "x", Replacement: "xx", Literal: true},
	})

	var hits []Hit
	got := table.Apply("a x", func(h Hit) { hits = append(hits, h) })
	if got != "c xx" {
		t.Fatalf("Apply() = %q, want %q", got, "c xx")
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
}

func TestLiteralRuleIsCaseInsensitive(t *testing.T) {
	table := MustRuleTable("test", []Rule{{Pattern: "Stan Lee", Replacement: "stanley", Literal: true}})
	if got := table.Apply("STAN LEE tools", nil); got != "stanley tools" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestNewRuleTableRejectsInvalidPattern(t *testing.T) {
	if _, err := NewRuleTable("bad", []Rule{{Pattern: "(", Replacement: ""}}); err == nil {
		t.Fatalf("expected compile error")
	}
}

func TestNilRuleTableIsIdentity(t *testing.T) {
	var table *RuleTable
	if got := table.Apply("unchanged", nil); got != "unchanged" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestParseRuleSetOverlaysTables(t *testing.T) {
	set, err := ParseRuleSet([]byte(`
mishear:
  - pattern: "blu"
    replacement: "blue"
    literal: true
known_terms: ["hilti"]
synonyms:
  shade: color
`))
	if err != nil {
		t.Fatalf("ParseRuleSet() error = %v", err)
	}
	if set.Mishear.Len() != 1 {
		t.Fatalf("expected mishear table replaced, got %d rules", set.Mishear.Len())
	}
	if set.Phonetic.Len() != len(defaultPhonetic) {
		t.Fatalf("phonetic table must keep defaults")
	}
	if set.Synonyms["shade"] != "color" || set.Synonyms["colour"] != "color" {
		t.Fatalf("unexpected synonyms: %v", set.Synonyms)
	}
	found := false
	for _, term := range set.KnownTerms {
		if term == "hilti" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected hilti in known terms")
	}
}

func TestParseRuleSetRejectsBadPattern(t *testing.T) {
	_, err := ParseRuleSet([]byte(`phonetic: [{pattern: "(", replacement: "x"}]`))
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoadRuleSetFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte("fillers: '\\b(um|uh)\\b'\n"), 0o600); err != nil {
		t.Fatalf("write rules: %v", err)
	}
	set, err := LoadRuleSet(path)
	if err != nil {
		t.Fatalf("LoadRuleSet() error = %v", err)
	}
	n := NewNormalizer(set)
	if got := n.Normalize("um show the drill"); got != "show the drill" {
		t.Fatalf("unexpected normalization with custom fillers: %q", got)
	}
}

func TestLoadRuleSetEmptyPathReturnsDefaults(t *testing.T) {
	set, err := LoadRuleSet("")
	if err != nil {
		t.Fatalf("LoadRuleSet() error = %v", err)
	}
	if set.Mishear.Len() != len(defaultMishear) {
		t.Fatalf("expected default mishear table")
	}
}
