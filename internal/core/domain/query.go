package domain

// Caller identifies who issued an utterance. Privileged is set only from an
// authenticated channel, never from utterance text.
type Caller struct {
	ID         string `json:"id"`
	Privileged bool   `json:"privileged"`
	AccountID  string `json:"account_id,omitempty"`
}

// OrderQuery is a free-text request in the order history scope.
type OrderQuery struct {
	Text   string
	Caller Caller
}

// CatalogQuery is a free-text request in the product catalog scope.
// Filters holds explicit UI selections that are merged with extracted entities.
type CatalogQuery struct {
	Text    string
	Caller  Caller
	Filters map[string][]string
}

// Understanding is the pipeline output for one utterance.
type Understanding struct {
	Scope         Scope            `json:"scope"`
	Intent        Intent           `json:"intent"`
	Confidence    float64          `json:"confidence"`
	Normalized    string           `json:"normalized"`
	Entities      EntitySet        `json:"entities"`
	Filters       FilterExpression `json:"filters"`
	MainQuery     string           `json:"query"`
	Summary       string           `json:"summary,omitempty"`
	Clarification *Clarification   `json:"clarification,omitempty"`
}

// NeedsClarification reports whether the caller must supply an account id
// before any order data can be requested.
func (u Understanding) NeedsClarification() bool {
	return u.Clarification != nil
}

// MatchAllQuery is the main query used when only filters restrict results.
const MatchAllQuery = "*:*"
