package stats

import (
	"context"
	"sync"
	"time"

	"github.com/flashforge/flashforge/internal/errors"
	"github.com/flashforge/flashforge/internal/models"
	"github.com/flashforge/flashforge/internal/repository"
)

// DateLayout is the calendar key used for daily aggregates.
const DateLayout = "2006-01-02"

// Aggregator folds graded results into per-day counters and answers
// the statistics queries built on top of them. The underlying store
// only ever sees whole-day deltas.
type Aggregator struct {
	repo repository.StatsRepository

	// serializes read-modify-write cycles against the same date
	mu sync.Mutex
}

func NewAggregator(repo repository.StatsRepository) *Aggregator {
	return &Aggregator{repo: repo}
}

// Repo exposes the backing store for collaborators that read the raw
// daily rows, like the queue builder's new-card cap check.
func (a *Aggregator) Repo() repository.StatsRepository {
	return a.repo
}

// Record folds one graded result into the day it was reviewed on.
func (a *Aggregator) Record(ctx context.Context, result models.SessionResult) error {
	delta := models.DailyStat{
		Date:             result.ReviewedAt.Format(DateLayout),
		CardsReviewed:    1,
		TimeSpentSeconds: int((result.LatencyMs + 500) / 1000),
	}
	if result.Correct {
		delta.CorrectCount = 1
	} else {
		delta.IncorrectCount = 1
	}
	if result.CardWasNew {
		delta.NewCards = 1
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.repo.ApplyDelta(ctx, delta); err != nil {
		return errors.NewInternalError(err)
	}
	return nil
}

// Daily returns the counters for one date. A day with no activity is a
// zero-valued stat, not an error.
func (a *Aggregator) Daily(ctx context.Context, date string) (models.DailyStat, error) {
	stat, err := a.repo.GetDaily(ctx, date)
	if err != nil {
		return models.DailyStat{}, errors.NewInternalError(err)
	}
	if stat == nil {
		return models.DailyStat{Date: date}, nil
	}
	return *stat, nil
}

// Breakdown returns one stat per calendar day for the last days days
// ending at now, oldest first. Gap days come back zero-valued so a
// chart can render a contiguous axis.
func (a *Aggregator) Breakdown(ctx context.Context, now time.Time, days int) ([]models.DailyStat, error) {
	if days <= 0 {
		return nil, nil
	}
	from := now.AddDate(0, 0, -(days - 1))
	recorded, err := a.repo.Range(ctx, from.Format(DateLayout), now.Format(DateLayout))
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	byDate := make(map[string]models.DailyStat, len(recorded))
	for _, s := range recorded {
		byDate[s.Date] = s
	}

	out := make([]models.DailyStat, 0, days)
	for d := 0; d < days; d++ {
		date := from.AddDate(0, 0, d).Format(DateLayout)
		if s, ok := byDate[date]; ok {
			out = append(out, s)
		} else {
			out = append(out, models.DailyStat{Date: date})
		}
	}
	return out, nil
}

// Streak counts consecutive days with at least one review, ending
// today or yesterday. A quiet today does not break a run that is
// still alive.
func (a *Aggregator) Streak(ctx context.Context, now time.Time) (int, error) {
	today, err := a.repo.GetDaily(ctx, now.Format(DateLayout))
	if err != nil {
		return 0, errors.NewInternalError(err)
	}

	streak := 0
	day := now
	if today != nil && today.CardsReviewed > 0 {
		streak = 1
	}
	day = day.AddDate(0, 0, -1)

	for {
		stat, err := a.repo.GetDaily(ctx, day.Format(DateLayout))
		if err != nil {
			return 0, errors.NewInternalError(err)
		}
		if stat == nil || stat.CardsReviewed == 0 {
			break
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak, nil
}

// AllTime rolls every recorded day into one record, with the current
// streak filled in.
func (a *Aggregator) AllTime(ctx context.Context, now time.Time) (models.AllTimeStats, error) {
	totals, err := a.repo.AllTime(ctx)
	if err != nil {
		return models.AllTimeStats{}, errors.NewInternalError(err)
	}
	out := models.AllTimeStats{}
	if totals != nil {
		out = *totals
	}
	answered := out.CorrectCount + out.IncorrectCount
	if answered > 0 {
		out.Accuracy = float64(out.CorrectCount) / float64(answered) * 100
	}
	streak, err := a.Streak(ctx, now)
	if err != nil {
		return models.AllTimeStats{}, err
	}
	out.Streak = streak
	return out, nil
}

// HardestCards lists the deck's worst-performing cards, worst first.
func (a *Aggregator) HardestCards(ctx context.Context, deckID int64, limit int) ([]models.HardCard, error) {
	if limit <= 0 {
		limit = 10
	}
	cards, err := a.repo.HardestCards(ctx, deckID, limit)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	return cards, nil
}
