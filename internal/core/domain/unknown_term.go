package domain

import "time"

// UnknownTerm is one entry of the unknown-term learning log.
type UnknownTerm struct {
	ID         string    `json:"id"`
	Term       string    `json:"term"`
	Original   string    `json:"original"`
	Source     string    `json:"source"`
	ObservedAt time.Time `json:"observed_at"`
}

// UnknownTermStat aggregates occurrences of one term.
type UnknownTermStat struct {
	Term      string    `json:"term"`
	Count     int       `json:"count"`
	Examples  []string  `json:"examples"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}
