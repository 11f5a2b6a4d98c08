package srs

import (
	"math"
	"time"

	"github.com/flashforge/flashforge/internal/errors"
	"github.com/flashforge/flashforge/internal/models"
)

const (
	// MinEase and MaxEase clamp the SM-2 ease factor.
	MinEase = 1.3
	MaxEase = 3.0
	// DefaultEase is the ease factor assigned on first review.
	DefaultEase = 2.5
	// FailEasePenalty is subtracted from the ease factor on a failed review.
	FailEasePenalty = 0.2
)

// DefaultLeitnerIntervals is the per-box review cadence in days.
var DefaultLeitnerIntervals = []int{1, 2, 4, 7, 14}

// Config parameterizes the scheduler. Zero values fall back to defaults.
type Config struct {
	MasteryIntervalDays int   // interval beyond which a card counts as mastered
	LeitnerIntervals    []int // days per Leitner box, box 1 first
}

// Scheduler computes the next review state for a card given a grade.
// The rule set is a per-deck policy passed on every call, not scheduler state.
type Scheduler struct {
	masteryDays      int
	leitnerIntervals []int
}

// New creates a Scheduler from the given config.
func New(cfg Config) *Scheduler {
	masteryDays := cfg.MasteryIntervalDays
	if masteryDays <= 0 {
		masteryDays = 90
	}
	intervals := cfg.LeitnerIntervals
	if len(intervals) == 0 {
		intervals = DefaultLeitnerIntervals
	}
	return &Scheduler{
		masteryDays:      masteryDays,
		leitnerIntervals: intervals,
	}
}

// Boxes returns the number of Leitner boxes.
func (s *Scheduler) Boxes() int {
	return len(s.leitnerIntervals)
}

// NewState returns the review state for a card that has never been graded.
func NewState(cardID int64) models.ReviewState {
	return models.ReviewState{
		CardID:     cardID,
		EaseFactor: DefaultEase,
		Box:        1,
		Stage:      models.StageNew,
	}
}

// Validate checks the stored state for invariant violations. A violation
// means the store handed back garbage and is reported as corrupt state,
// never repaired in place.
func (s *Scheduler) Validate(state models.ReviewState) error {
	if state.IntervalDays < 0 {
		return errors.NewCorruptStateError(state.CardID, "negative interval")
	}
	if state.Box < 1 || state.Box > len(s.leitnerIntervals) {
		return errors.NewCorruptStateError(state.CardID, "leitner box out of range")
	}
	if state.Repetitions < 0 {
		return errors.NewCorruptStateError(state.CardID, "negative repetition count")
	}
	if state.EaseFactor != 0 && state.EaseFactor < MinEase {
		return errors.NewCorruptStateError(state.CardID, "ease factor below floor")
	}
	return nil
}

// Apply returns the state after grading a review at time now. The input
// state is not mutated. Ease factor, interval, due date and stage change
// together in this single call and nowhere else.
func (s *Scheduler) Apply(state models.ReviewState, rules models.RuleSet, grade models.Grade, now time.Time) (models.ReviewState, error) {
	if !grade.Valid() {
		return models.ReviewState{}, errors.NewInvalidGradeError(int(grade))
	}
	if err := s.Validate(state); err != nil {
		return models.ReviewState{}, err
	}

	switch rules {
	case models.RuleSetLeitner:
		return s.applyLeitner(state, grade, now), nil
	default:
		return s.applySM2(state, grade, now), nil
	}
}

func (s *Scheduler) applySM2(state models.ReviewState, grade models.Grade, now time.Time) models.ReviewState {
	next := state
	ease := state.EaseFactor
	if ease == 0 {
		ease = DefaultEase
	}

	if grade == models.GradeFail {
		next.Repetitions = 0
		next.IntervalDays = 1
		next.EaseFactor = clampEase(ease - FailEasePenalty)
		next.Stage = models.StageLearning
	} else {
		q := sm2Quality(grade)
		ease = clampEase(ease + (0.1 - float64(5-q)*(0.08+float64(5-q)*0.02)))

		next.Repetitions = state.Repetitions + 1
		switch next.Repetitions {
		case 1:
			next.IntervalDays = 1
		case 2:
			next.IntervalDays = 6
		default:
			next.IntervalDays = int(math.Round(float64(state.IntervalDays) * ease))
		}
		next.EaseFactor = ease
		if next.IntervalDays > s.masteryDays {
			next.Stage = models.StageMastered
		} else {
			next.Stage = models.StageReview
		}
	}

	next.LastReviewed = now
	next.Due = now.AddDate(0, 0, next.IntervalDays)
	return next
}

func (s *Scheduler) applyLeitner(state models.ReviewState, grade models.Grade, now time.Time) models.ReviewState {
	next := state

	if grade == models.GradeFail {
		next.Box = 1
		next.Repetitions = 0
		next.Stage = models.StageLearning
	} else {
		if next.Box < len(s.leitnerIntervals) {
			next.Box++
		}
		next.Repetitions = state.Repetitions + 1
		if next.Box == len(s.leitnerIntervals) {
			next.Stage = models.StageMastered
		} else {
			next.Stage = models.StageReview
		}
	}

	next.IntervalDays = s.leitnerIntervals[next.Box-1]
	next.LastReviewed = now
	next.Due = now.AddDate(0, 0, next.IntervalDays)
	return next
}

// sm2Quality maps the four-button grade onto the SM-2 0-5 quality scale.
func sm2Quality(grade models.Grade) int {
	switch grade {
	case models.GradeHard:
		return 3
	case models.GradeGood:
		return 4
	default:
		return 5
	}
}

func clampEase(ease float64) float64 {
	if ease < MinEase {
		return MinEase
	}
	if ease > MaxEase {
		return MaxEase
	}
	return ease
}
