package models

import "time"

// Stage is the lifecycle stage of a card's review history.
type Stage string

const (
	StageNew      Stage = "new"
	StageLearning Stage = "learning"
	StageReview   Stage = "review"
	StageMastered Stage = "mastered"
)

// Grade is the learner's rated recall quality for one presentation.
type Grade int

const (
	GradeFail Grade = iota
	GradeHard
	GradeGood
	GradeEasy
)

// Valid reports whether the grade is one of the four allowed values.
func (g Grade) Valid() bool {
	return g >= GradeFail && g <= GradeEasy
}

func (g Grade) String() string {
	switch g {
	case GradeFail:
		return "fail"
	case GradeHard:
		return "hard"
	case GradeGood:
		return "good"
	case GradeEasy:
		return "easy"
	default:
		return "unknown"
	}
}

// ReviewState is the mutable per-card scheduling record. Created on the
// first review and updated only by the scheduler.
type ReviewState struct {
	CardID       int64     `json:"card_id"`
	Repetitions  int       `json:"repetitions"`
	EaseFactor   float64   `json:"ease_factor"`
	IntervalDays int       `json:"interval_days"`
	Due          time.Time `json:"due"`
	Box          int       `json:"box"`
	LastReviewed time.Time `json:"last_reviewed"`
	Stage        Stage     `json:"stage"`
}

// IsNew reports whether the card has never been graded.
func (s ReviewState) IsNew() bool {
	return s.Stage == StageNew || s.Stage == ""
}
