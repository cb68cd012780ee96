package nlu

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/kirillkom/catalog-nlq/internal/core/ports"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	tokenRe      = regexp.MustCompile(`[a-z0-9]+`)
)

const (
	unknownStageRaw   = "raw"
	unknownStageFinal = "final"
)

// Normalizer rewrites utterances into the canonical form used for matching
// and classification. It is safe for concurrent use.
type Normalizer struct {
	rules   RuleSet
	builtin map[string]struct{}
	sink    ports.UnknownTermSink
	logger  *slog.Logger
}

type NormalizerOption func(*Normalizer)

// WithUnknownTermSink forwards tokens missing from the known-term set.
func WithUnknownTermSink(sink ports.UnknownTermSink) NormalizerOption {
	return func(n *Normalizer) { n.sink = sink }
}

func WithLogger(logger *slog.Logger) NormalizerOption {
	return func(n *Normalizer) {
		if logger != nil {
			n.logger = logger
		}
	}
}

func NewNormalizer(rules RuleSet, opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		rules:   rules,
		builtin: make(map[string]struct{}, len(rules.KnownTerms)),
		logger:  slog.Default(),
	}
	for _, t := range rules.KnownTerms {
		n.builtin[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Normalizer) Rules() RuleSet {
	return n.rules
}

// Normalize rewrites text using only the built-in known terms.
func (n *Normalizer) Normalize(text string) string {
	return n.NormalizeKnown(text, nil)
}

// NormalizeKnown rewrites text; known extends the built-in known-term set for
// unknown-term detection and does not affect the output.
func (n *Normalizer) NormalizeKnown(text string, known map[string]struct{}) string {
	out := foldAccents(strings.ToLower(strings.TrimSpace(text)))
	if n.rules.Fillers != nil {
		out = n.rules.Fillers.ReplaceAllLiteralString(out, " ")
	}
	out = n.rules.Plurals.Apply(out, nil)
	out = strings.TrimSpace(whitespaceRe.ReplaceAllLiteralString(out, " "))

	n.recordUnknown(out, text, known, unknownStageRaw)

	out = n.rules.Phonetic.Apply(out, nil)
	out = n.rules.ProductTypes.Apply(out, nil)
	out = n.rules.Mishear.Apply(out, func(h Hit) {
		n.logger.Debug("voice_correction",
			"pattern", h.Rule.Pattern,
			"replacement", h.Rule.Replacement,
			"before", h.Before,
		)
	})
	out = n.rules.PhoneticMap.Apply(out, nil)

	n.recordUnknown(out, text, known, unknownStageFinal)
	return out
}

// UnknownTokens lists tokens longer than two characters that are neither
// built-in nor in known.
func (n *Normalizer) UnknownTokens(text string, known map[string]struct{}) []string {
	var out []string
	for _, tok := range tokenRe.FindAllString(text, -1) {
		if len(tok) <= 2 {
			continue
		}
		if _, ok := n.builtin[tok]; ok {
			continue
		}
		if _, ok := known[tok]; ok {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func (n *Normalizer) recordUnknown(text, original string, known map[string]struct{}, stage string) {
	if n.sink == nil {
		return
	}
	terms := n.UnknownTokens(text, known)
	if len(terms) == 0 {
		return
	}
	n.logger.Debug("unknown_terms_detected", "stage", stage, "count", len(terms))
	n.sink.Record(terms, original)
}

// foldAccents strips combining marks. Chained transformers hold state, so a
// new chain is built per call.
func foldAccents(s string) string {
	for _, r := range s {
		if r > unicode.MaxASCII {
			folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
			if err != nil {
				return s
			}
			return folded
		}
	}
	return s
}
