// Package keyword is a deterministic intent classifier driven by an ordered
// rule table. It backs the offline CLI and runs when no model is configured.
package keyword

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/kirillkom/catalog-nlq/internal/core/domain"
)

type Rule struct {
	Intent     domain.Intent
	Pattern    string
	Confidence float64
}

var DefaultRules = []Rule{
	{Intent: domain.IntentViewAllOrders, Pattern: `\b(?:every|everyone'?s?|all)\b.*\border\b|\border\b.*\b(?:every|all)\s+(?:account|customer)`, Confidence: 0.85},
	{Intent: domain.IntentViewOrders, Pattern: `\b(?:my\s+)?order\b|\bpurchase|\bbought\b`, Confidence: 0.8},
	{Intent: domain.IntentSearchByPriceBetween, Pattern: `\bbetween\s+\d+\s+(?:and|to|2)\s+\d+`, Confidence: 0.9},
	{Intent: domain.IntentSearchByPriceMax, Pattern: `\b(?:under|below|cheaper\s+than)\s+\d+`, Confidence: 0.9},
	{Intent: domain.IntentSearchByPriceMin, Pattern: `\b(?:above|over|greater\s+than)\s+\d+`, Confidence: 0.9},
	{Intent: domain.SearchBy(domain.FieldBrand), Pattern: `\b(?:brand|make|manufacturer)\b`, Confidence: 0.7},
	{Intent: domain.SearchBy(domain.FieldMaterial), Pattern: `\b(?:material|fabric|made\s+of)\b`, Confidence: 0.7},
	{Intent: domain.SearchBy(domain.FieldColor), Pattern: `\b(?:colou?r|tone)\b`, Confidence: 0.7},
	{Intent: domain.SearchBy(domain.FieldCategory), Pattern: `\b(?:category|type\s+of)\b`, Confidence: 0.7},
	{Intent: domain.IntentBrowseAll, Pattern: `^\s*(?:everything|product|catalog)\s*$`, Confidence: 0.6},
}

type compiledRule struct {
	intent     domain.Intent
	re         *regexp.Regexp
	confidence float64
}

// Classifier returns the first rule that matches the normalized text.
type Classifier struct {
	rules []compiledRule
}

func New(rules []Rule) (*Classifier, error) {
	c := &Classifier{rules: make([]compiledRule, 0, len(rules))}
	for i, r := range rules {
		re, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("keyword rule %d (%s): %w", i, r.Intent, err)
		}
		conf := r.Confidence
		if conf <= 0 || conf > 1 {
			conf = 0.5
		}
		c.rules = append(c.rules, compiledRule{intent: r.Intent, re: re, confidence: conf})
	}
	return c, nil
}

func NewDefault() *Classifier {
	c, err := New(DefaultRules)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Classifier) Classify(_ context.Context, text string) domain.Prediction {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.UnknownPrediction()
	}
	for _, r := range c.rules {
		if r.re.MatchString(text) {
			return domain.Prediction{Intent: r.intent, Confidence: r.confidence}
		}
	}
	return domain.UnknownPrediction()
}

// Labels lists the intents the table can produce, in rule order.
func (c *Classifier) Labels() []string {
	seen := make(map[domain.Intent]struct{}, len(c.rules))
	out := make([]string, 0, len(c.rules))
	for _, r := range c.rules {
		if _, ok := seen[r.intent]; ok {
			continue
		}
		seen[r.intent] = struct{}{}
		out = append(out, string(r.intent))
	}
	return out
}
