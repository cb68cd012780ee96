package domain

import (
	"sort"
	"strings"
)

// Vocabulary maps a facet field to its ordered set of known values.
type Vocabulary map[string][]string

func (v Vocabulary) Get(field string) []string {
	return v[field]
}

// Fields returns field names in sorted order.
func (v Vocabulary) Fields() []string {
	out := make([]string, 0, len(v))
	for k := range v {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (v Vocabulary) Counts() map[string]int {
	out := make(map[string]int, len(v))
	for k, vals := range v {
		out[k] = len(vals)
	}
	return out
}

func (v Vocabulary) Size() int {
	n := 0
	for _, vals := range v {
		n += len(vals)
	}
	return n
}

// Clone copies the mapping so callers can not mutate a shared snapshot.
func (v Vocabulary) Clone() Vocabulary {
	out := make(Vocabulary, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}

// Merge overlays other on top of v; other wins on key collision.
func (v Vocabulary) Merge(other Vocabulary) Vocabulary {
	out := v.Clone()
	for k, vals := range other {
		out[k] = append([]string(nil), vals...)
	}
	return out
}

// Dedup drops blank and repeated values while preserving first-seen order.
func Dedup(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, raw := range values {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
