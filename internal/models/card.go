package models

import "time"

// RuleSet selects the scheduling algorithm for a deck.
type RuleSet string

const (
	RuleSetSM2     RuleSet = "sm2"
	RuleSetLeitner RuleSet = "leitner"
)

// Valid reports whether the rule set is one of the known algorithms.
func (r RuleSet) Valid() bool {
	return r == RuleSetSM2 || r == RuleSetLeitner
}

type Deck struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	RuleSet   RuleSet   `json:"rule_set"`
	CreatedAt time.Time `json:"created_at"`
}

// Card is the immutable term/definition pair owned by a deck.
// Scheduling state lives in ReviewState, never here.
type Card struct {
	ID         int64     `json:"id"`
	DeckID     int64     `json:"deck_id"`
	Term       string    `json:"term"`
	Definition string    `json:"definition"`
	Hint       string    `json:"hint,omitempty"`
	Starred    bool      `json:"starred"`
	CreatedAt  time.Time `json:"created_at"`
}

// CardFilter narrows card listings.
type CardFilter struct {
	DeckID  int64
	Starred *bool
	Search  string
	Limit   int
	Offset  int
}
