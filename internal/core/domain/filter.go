package domain

import (
	"fmt"
	"strings"
)

type FilterOp string

const (
	OpEq    FilterOp = "eq"
	OpIn    FilterOp = "in"
	OpRange FilterOp = "range"
)

// FilterTerm is one (field, operator, value-or-range) triple.
type FilterTerm struct {
	Field  string   `json:"field"`
	Op     FilterOp `json:"op"`
	Values []string `json:"values,omitempty"`
	Low    int64    `json:"low,omitempty"`
	High   int64    `json:"high,omitempty"`
}

func (t FilterTerm) String() string {
	switch t.Op {
	case OpRange:
		return fmt.Sprintf("%s:[%d TO %d]", t.Field, t.Low, t.High)
	case OpIn:
		parts := make([]string, 0, len(t.Values))
		for _, v := range t.Values {
			parts = append(parts, QuoteFilterValue(v))
		}
		return fmt.Sprintf("%s:(%s)", t.Field, strings.Join(parts, " OR "))
	default:
		if len(t.Values) == 0 {
			return t.Field + ":*"
		}
		return t.Field + ":" + QuoteFilterValue(t.Values[0])
	}
}

// FilterExpression is the ordered list of compiled filter terms.
type FilterExpression struct {
	Terms []FilterTerm `json:"terms"`
}

func (e FilterExpression) Empty() bool {
	return len(e.Terms) == 0
}

// Strings renders each term in backend filter-query form.
func (e FilterExpression) Strings() []string {
	out := make([]string, 0, len(e.Terms))
	for _, t := range e.Terms {
		out = append(out, t.String())
	}
	return out
}

func (e FilterExpression) String() string {
	return strings.Join(e.Strings(), " AND ")
}

func (e FilterExpression) Term(field string) (FilterTerm, bool) {
	for _, t := range e.Terms {
		if t.Field == field {
			return t, true
		}
	}
	return FilterTerm{}, false
}

// QuoteFilterValue wraps values containing whitespace in double quotes.
func QuoteFilterValue(v string) string {
	v = strings.ReplaceAll(strings.TrimSpace(v), `"`, "")
	if strings.ContainsAny(v, " \t") {
		return `"` + v + `"`
	}
	return v
}
