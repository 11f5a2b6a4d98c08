package models

import "time"

// Mode is a study mode driving a session.
type Mode string

const (
	ModeFlashcards Mode = "flashcards"
	ModeLearn      Mode = "learn"
	ModeWrite      Mode = "write"
	ModeTest       Mode = "test"
	ModeMatch      Mode = "match"
)

// Valid reports whether the mode is a known study mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeFlashcards, ModeLearn, ModeWrite, ModeTest, ModeMatch:
		return true
	}
	return false
}

// Scheduled reports whether grades in this mode feed the scheduler.
// Match is a practice mode and never touches review state.
func (m Mode) Scheduled() bool {
	return m != ModeMatch
}

// SessionResult is one append-only log entry per graded card.
type SessionResult struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"session_id"`
	CardID      int64     `json:"card_id"`
	DeckID      int64     `json:"deck_id"`
	Mode        Mode      `json:"mode"`
	Grade       Grade     `json:"grade"`
	Correct     bool      `json:"correct"`
	LatencyMs   int64     `json:"latency_ms"`
	ReviewedAt  time.Time `json:"reviewed_at"`
	CardWasNew  bool      `json:"card_was_new"`
}

// SessionSummary is the aggregate exposed when a session ends.
type SessionSummary struct {
	SessionID      string        `json:"session_id"`
	DeckID         int64         `json:"deck_id"`
	Mode           Mode          `json:"mode"`
	TotalCards     int           `json:"total_cards"`
	CardsStudied   int           `json:"cards_studied"`
	CorrectCount   int           `json:"correct_count"`
	IncorrectCount int           `json:"incorrect_count"`
	Accuracy       float64       `json:"accuracy"`
	ElapsedSeconds int           `json:"elapsed_seconds"`
	GradeCounts    map[string]int `json:"grade_counts"`
	Aborted        bool          `json:"aborted"`
}
