package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Canonical entity fields.
const (
	FieldBrand          = "brand"
	FieldMaterial       = "material"
	FieldColor          = "color"
	FieldCategory       = "category"
	FieldPrice          = "price"
	FieldAccountID      = "account_id"
	FieldAccountPartial = "account_partial"
	FieldSearchText     = "search_text"
)

// PriceOpenHigh is the upper bound used for "above N" phrases.
const PriceOpenHigh int64 = 999999

// EntitySet maps a canonical field name to its single resolved value.
type EntitySet map[string]string

func NewEntitySet() EntitySet {
	return EntitySet{}
}

func (e EntitySet) Get(field string) (string, bool) {
	v, ok := e[field]
	return v, ok
}

func (e EntitySet) Has(field string) bool {
	_, ok := e[field]
	return ok
}

func (e EntitySet) Set(field, value string) {
	e[field] = value
}

// SetAccountID records a fully resolved account and clears any partial marker.
func (e EntitySet) SetAccountID(id string) {
	delete(e, FieldAccountPartial)
	e[FieldAccountID] = id
}

// MarkAccountPartial records that an account was mentioned but not captured.
// It is a no-op when a full account id is already present.
func (e EntitySet) MarkAccountPartial() {
	if e.Has(FieldAccountID) {
		return
	}
	e[FieldAccountPartial] = "true"
}

func (e EntitySet) AccountID() string {
	return e[FieldAccountID]
}

func (e EntitySet) AccountPartial() bool {
	return e[FieldAccountPartial] == "true"
}

func (e EntitySet) Price() (PriceRange, bool) {
	raw, ok := e[FieldPrice]
	if !ok {
		return PriceRange{}, false
	}
	return ParsePriceRange(raw)
}

func (e EntitySet) SetPrice(r PriceRange) {
	e[FieldPrice] = r.String()
}

// Fields returns the populated field names in sorted order.
func (e EntitySet) Fields() []string {
	out := make([]string, 0, len(e))
	for k := range e {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (e EntitySet) Clone() EntitySet {
	out := make(EntitySet, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Strings flattens the set into "field:value" pairs for telemetry payloads.
func (e EntitySet) Strings() []string {
	out := make([]string, 0, len(e))
	for _, k := range e.Fields() {
		out = append(out, k+":"+e[k])
	}
	return out
}

// PriceRange is a closed numeric range.
type PriceRange struct {
	Low  int64 `json:"low"`
	High int64 `json:"high"`
}

func (r PriceRange) String() string {
	return fmt.Sprintf("[%d TO %d]", r.Low, r.High)
}

// ParsePriceRange parses the "[low TO high]" form produced by String.
func ParsePriceRange(raw string) (PriceRange, bool) {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return PriceRange{}, false
	}
	parts := strings.Fields(s[1 : len(s)-1])
	if len(parts) != 3 || !strings.EqualFold(parts[1], "TO") {
		return PriceRange{}, false
	}
	low, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return PriceRange{}, false
	}
	high, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return PriceRange{}, false
	}
	return PriceRange{Low: low, High: high}, true
}
