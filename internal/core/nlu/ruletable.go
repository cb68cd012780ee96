package nlu

import (
	"fmt"
	"regexp"
)

// Rule is one (pattern, replacement) entry of a rule table.
// Literal rules match the pattern as a case-insensitive substring.
type Rule struct {
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
	Literal     bool   `yaml:"literal,omitempty"`
}

type compiledRule struct {
	Rule
	re *regexp.Regexp
}

// RuleTable is an ordered list of rewrite rules. Rules are applied once each,
// in declaration order; output of one rule is input to the next.
type RuleTable struct {
	name  string
	rules []compiledRule
}

// Hit describes one rule that changed the text.
type Hit struct {
	Table  string
	Rule   Rule
	Before string
	After  string
}

func NewRuleTable(name string, rules []Rule) (*RuleTable, error) {
	table := &RuleTable{name: name, rules: make([]compiledRule, 0, len(rules))}
	for i, rule := range rules {
		expr := rule.Pattern
		if rule.Literal {
			expr = "(?i)" + regexp.QuoteMeta(rule.Pattern)
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compile %s rule %d %q: %w", name, i, rule.Pattern, err)
		}
		table.rules = append(table.rules, compiledRule{Rule: rule, re: re})
	}
	return table, nil
}

// MustRuleTable panics on an invalid pattern. Use only for built-in tables.
func MustRuleTable(name string, rules []Rule) *RuleTable {
	table, err := NewRuleTable(name, rules)
	if err != nil {
		panic(err)
	}
	return table
}

func (t *RuleTable) Name() string {
	if t == nil {
		return ""
	}
	return t.name
}

func (t *RuleTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rules)
}

func (t *RuleTable) Rules() []Rule {
	if t == nil {
		return nil
	}
	out := make([]Rule, 0, len(t.rules))
	for _, r := range t.rules {
		out = append(out, r.Rule)
	}
	return out
}

// Apply runs every rule over text. onHit, when non-nil, is called for each
// rule that changed the text.
func (t *RuleTable) Apply(text string, onHit func(Hit)) string {
	if t == nil {
		return text
	}
	for _, r := range t.rules {
		next := r.re.ReplaceAllLiteralString(text, r.Replacement)
		if next != text && onHit != nil {
			onHit(Hit{Table: t.name, Rule: r.Rule, Before: text, After: next})
		}
		text = next
	}
	return text
}
