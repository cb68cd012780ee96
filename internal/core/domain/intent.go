package domain

import "strings"

type Intent string

const (
	IntentViewOrders           Intent = "view_orders"
	IntentViewAllOrders        Intent = "view_all_orders"
	IntentFacetFilter          Intent = "facet_filter"
	IntentBrowseAll            Intent = "browse_all"
	IntentTextSearch           Intent = "text_search"
	IntentClarifyAccount       Intent = "clarify_account"
	IntentUnknown              Intent = "unknown"
	IntentSearchByPriceMax     Intent = "search_by_price_max"
	IntentSearchByPriceMin     Intent = "search_by_price_min"
	IntentSearchByPriceBetween Intent = "search_by_price_between"
)

const searchByPrefix = "search_by_"

// SearchBy returns the search_by_<field> intent for a facet field.
func SearchBy(field string) Intent {
	return Intent(searchByPrefix + field)
}

// SearchField returns the field of a search_by_<field> intent.
func (i Intent) SearchField() (string, bool) {
	s := string(i)
	if !strings.HasPrefix(s, searchByPrefix) {
		return "", false
	}
	field := strings.TrimPrefix(s, searchByPrefix)
	return field, field != ""
}

func (i Intent) String() string {
	return string(i)
}

// Prediction is the output of the external intent classifier.
type Prediction struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// UnknownPrediction is the sentinel returned when classification fails.
func UnknownPrediction() Prediction {
	return Prediction{Intent: IntentUnknown, Confidence: 0}
}

type ClarificationKind string

const (
	ClarifyRepeatAccount  ClarificationKind = "repeat_account"
	ClarifyTypeAccount    ClarificationKind = "type_account"
	ClarifyProvideAccount ClarificationKind = "provide_account"
)

// Clarification asks the caller to repeat or supply an account id.
// It is a regular response, not an error.
type Clarification struct {
	Intent     Intent            `json:"intent"`
	Message    string            `json:"message"`
	RetryCount int               `json:"retryCount"`
	Kind       ClarificationKind `json:"kind"`
}

// Terminal reports whether the caller was redirected to typed input.
func (c Clarification) Terminal() bool {
	return c.Kind == ClarifyTypeAccount
}

type Scope string

const (
	ScopeOrders  Scope = "orders"
	ScopeCatalog Scope = "catalog"
)
