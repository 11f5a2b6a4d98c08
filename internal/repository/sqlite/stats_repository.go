package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/flashforge/flashforge/internal/logger"
	"github.com/flashforge/flashforge/internal/models"
	"github.com/flashforge/flashforge/internal/repository"
)

type statsRepository struct {
	db *sql.DB
}

// NewStatsRepository creates a new StatsRepository implementation
func NewStatsRepository(db *sql.DB) repository.StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) ApplyDelta(ctx context.Context, delta models.DailyStat) error {
	log := logger.FromContext(ctx).WithPrefix("stats_repo")
	log.Debug("applying daily delta: date=%s, reviewed=%d, new=%d", delta.Date, delta.CardsReviewed, delta.NewCards)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO daily_stats (date, cards_reviewed, correct_count, incorrect_count, new_cards, time_spent_seconds)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(date) DO UPDATE SET
    cards_reviewed = cards_reviewed + excluded.cards_reviewed,
    correct_count = correct_count + excluded.correct_count,
    incorrect_count = incorrect_count + excluded.incorrect_count,
    new_cards = new_cards + excluded.new_cards,
    time_spent_seconds = time_spent_seconds + excluded.time_spent_seconds
`, delta.Date, delta.CardsReviewed, delta.CorrectCount, delta.IncorrectCount, delta.NewCards, delta.TimeSpentSeconds)
	if err != nil {
		log.Error("failed to apply daily delta: %v", err)
	}
	return err
}

func (r *statsRepository) GetDaily(ctx context.Context, date string) (*models.DailyStat, error) {
	log := logger.FromContext(ctx).WithPrefix("stats_repo")

	var s models.DailyStat
	err := r.db.QueryRowContext(ctx, `
SELECT date, cards_reviewed, correct_count, incorrect_count, new_cards, time_spent_seconds
FROM daily_stats
WHERE date = ?
`, date).Scan(&s.Date, &s.CardsReviewed, &s.CorrectCount, &s.IncorrectCount, &s.NewCards, &s.TimeSpentSeconds)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get daily stat: %v", err)
		return nil, err
	}
	return &s, nil
}

func (r *statsRepository) Range(ctx context.Context, from, to string) ([]models.DailyStat, error) {
	log := logger.FromContext(ctx).WithPrefix("stats_repo")
	log.Debug("fetching daily stats: from=%s, to=%s", from, to)

	rows, err := r.db.QueryContext(ctx, `
SELECT date, cards_reviewed, correct_count, incorrect_count, new_cards, time_spent_seconds
FROM daily_stats
WHERE date >= ? AND date <= ?
ORDER BY date
`, from, to)
	if err != nil {
		log.Error("failed to query daily stats: %v", err)
		return nil, err
	}
	defer rows.Close()
	var stats []models.DailyStat
	for rows.Next() {
		var s models.DailyStat
		if err := rows.Scan(&s.Date, &s.CardsReviewed, &s.CorrectCount, &s.IncorrectCount, &s.NewCards, &s.TimeSpentSeconds); err != nil {
			log.Error("failed to scan daily stat row: %v", err)
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func (r *statsRepository) AllTime(ctx context.Context) (*models.AllTimeStats, error) {
	log := logger.FromContext(ctx).WithPrefix("stats_repo")

	var s models.AllTimeStats
	err := r.db.QueryRowContext(ctx, `
SELECT
    COALESCE(SUM(cards_reviewed), 0),
    COALESCE(SUM(correct_count), 0),
    COALESCE(SUM(incorrect_count), 0),
    COALESCE(SUM(time_spent_seconds), 0),
    COUNT(CASE WHEN cards_reviewed > 0 THEN 1 END)
FROM daily_stats
`).Scan(&s.CardsReviewed, &s.CorrectCount, &s.IncorrectCount, &s.TimeSpentSeconds, &s.DaysActive)
	if err != nil {
		log.Error("failed to get all-time stats: %v", err)
		return nil, err
	}
	return &s, nil
}

func (r *statsRepository) HardestCards(ctx context.Context, deckID int64, limit int) ([]models.HardCard, error) {
	log := logger.FromContext(ctx).WithPrefix("stats_repo")
	log.Debug("fetching hardest cards: deck_id=%d, limit=%d", deckID, limit)

	rows, err := r.db.QueryContext(ctx, `
SELECT c.id, c.deck_id, c.term, c.definition, c.hint, c.starred, c.created_at,
       COUNT(*) AS attempts,
       SUM(sr.correct) AS correct
FROM session_results sr
JOIN cards c ON c.id = sr.card_id
WHERE c.deck_id = ?
GROUP BY c.id
ORDER BY CAST(SUM(sr.correct) AS REAL) / COUNT(*), c.id
LIMIT ?
`, deckID, limit)
	if err != nil {
		log.Error("failed to query hardest cards: %v", err)
		return nil, err
	}
	defer rows.Close()
	var cards []models.HardCard
	for rows.Next() {
		var hc models.HardCard
		if err := rows.Scan(&hc.Card.ID, &hc.Card.DeckID, &hc.Card.Term, &hc.Card.Definition,
			&hc.Card.Hint, &hc.Card.Starred, &hc.Card.CreatedAt, &hc.Attempts, &hc.Correct); err != nil {
			log.Error("failed to scan hardest card row: %v", err)
			return nil, err
		}
		if hc.Attempts > 0 {
			hc.Accuracy = float64(hc.Correct) / float64(hc.Attempts) * 100
		}
		cards = append(cards, hc)
	}
	return cards, rows.Err()
}
