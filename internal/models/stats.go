package models

import "time"

// DailyStat accumulates study counters for one calendar date.
// Date is formatted as 2006-01-02 in the store's local time zone.
type DailyStat struct {
	Date             string `json:"date"`
	CardsReviewed    int    `json:"cards_reviewed"`
	CorrectCount     int    `json:"correct_count"`
	IncorrectCount   int    `json:"incorrect_count"`
	NewCards         int    `json:"new_cards"`
	TimeSpentSeconds int    `json:"time_spent_seconds"`
}

// Accuracy returns the day's correct percentage, 0 when nothing was studied.
func (d DailyStat) Accuracy() float64 {
	total := d.CorrectCount + d.IncorrectCount
	if total == 0 {
		return 0
	}
	return float64(d.CorrectCount) / float64(total) * 100
}

// DeckProgress summarizes a deck's cards by lifecycle stage.
type DeckProgress struct {
	DeckID        int64      `json:"deck_id"`
	TotalCards    int        `json:"total_cards"`
	NewCards      int        `json:"new_cards"`
	LearningCards int        `json:"learning_cards"`
	ReviewCards   int        `json:"review_cards"`
	MasteredCards int        `json:"mastered_cards"`
	DueCards      int        `json:"due_cards"`
	LastStudied   *time.Time `json:"last_studied,omitempty"`
}

// AllTimeStats rolls every recorded day into one record.
type AllTimeStats struct {
	CardsReviewed    int     `json:"cards_reviewed"`
	CorrectCount     int     `json:"correct_count"`
	IncorrectCount   int     `json:"incorrect_count"`
	Accuracy         float64 `json:"accuracy"`
	TimeSpentSeconds int     `json:"time_spent_seconds"`
	DaysActive       int     `json:"days_active"`
	Streak           int     `json:"streak"`
}

// HardCard ranks a card by observed accuracy, worst first.
type HardCard struct {
	Card     Card    `json:"card"`
	Attempts int     `json:"attempts"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
}
