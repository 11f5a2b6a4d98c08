package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/flashforge/flashforge/internal/logger"
	"github.com/flashforge/flashforge/internal/models"
	"github.com/flashforge/flashforge/internal/repository"
)

type reviewStateStore struct {
	db *sql.DB
}

// NewReviewStateStore creates a new ReviewStateStore implementation.
// Get returns nil for a card that has never been reviewed.
func NewReviewStateStore(db *sql.DB) repository.ReviewStateStore {
	return &reviewStateStore{db: db}
}

func (r *reviewStateStore) Get(ctx context.Context, cardID int64) (*models.ReviewState, error) {
	log := logger.FromContext(ctx).WithPrefix("review_repo")

	var (
		s            models.ReviewState
		due          sql.NullTime
		lastReviewed sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, `
SELECT card_id, repetitions, ease_factor, interval_days, due, box, last_reviewed, stage
FROM review_states
WHERE card_id = ?
`, cardID).Scan(&s.CardID, &s.Repetitions, &s.EaseFactor, &s.IntervalDays, &due, &s.Box, &lastReviewed, &s.Stage)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get review state: %v", err)
		return nil, err
	}
	if due.Valid {
		s.Due = due.Time
	}
	if lastReviewed.Valid {
		s.LastReviewed = lastReviewed.Time
	}
	return &s, nil
}

func (r *reviewStateStore) Put(ctx context.Context, state models.ReviewState) error {
	log := logger.FromContext(ctx).WithPrefix("review_repo")
	log.Debug("upserting review state: card_id=%d, interval=%d, ease=%.2f, stage=%s",
		state.CardID, state.IntervalDays, state.EaseFactor, state.Stage)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO review_states (card_id, repetitions, ease_factor, interval_days, due, box, last_reviewed, stage)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(card_id) DO UPDATE SET
    repetitions = excluded.repetitions,
    ease_factor = excluded.ease_factor,
    interval_days = excluded.interval_days,
    due = excluded.due,
    box = excluded.box,
    last_reviewed = excluded.last_reviewed,
    stage = excluded.stage
`, state.CardID, state.Repetitions, state.EaseFactor, state.IntervalDays,
		nullTime(state.Due), state.Box, nullTime(state.LastReviewed), state.Stage)
	if err != nil {
		log.Error("failed to upsert review state: %v", err)
	}
	return err
}

func (r *reviewStateStore) DueBefore(ctx context.Context, deckID int64, t time.Time) ([]models.ReviewState, error) {
	log := logger.FromContext(ctx).WithPrefix("review_repo")
	log.Debug("fetching due states: deck_id=%d, before=%s", deckID, t.Format(time.RFC3339))

	rows, err := r.db.QueryContext(ctx, `
SELECT rs.card_id, rs.repetitions, rs.ease_factor, rs.interval_days, rs.due, rs.box, rs.last_reviewed, rs.stage
FROM review_states rs
JOIN cards c ON c.id = rs.card_id
WHERE c.deck_id = ? AND rs.due IS NOT NULL AND rs.due <= ?
ORDER BY rs.due, rs.ease_factor, rs.card_id
`, deckID, t)
	if err != nil {
		log.Error("failed to query due states: %v", err)
		return nil, err
	}
	defer rows.Close()
	return scanStates(rows, log)
}

func (r *reviewStateStore) ForDeck(ctx context.Context, deckID int64) ([]models.ReviewState, error) {
	log := logger.FromContext(ctx).WithPrefix("review_repo")

	rows, err := r.db.QueryContext(ctx, `
SELECT rs.card_id, rs.repetitions, rs.ease_factor, rs.interval_days, rs.due, rs.box, rs.last_reviewed, rs.stage
FROM review_states rs
JOIN cards c ON c.id = rs.card_id
WHERE c.deck_id = ?
ORDER BY rs.card_id
`, deckID)
	if err != nil {
		log.Error("failed to query deck states: %v", err)
		return nil, err
	}
	defer rows.Close()
	return scanStates(rows, log)
}

func (r *reviewStateStore) Reset(ctx context.Context, cardID int64) error {
	log := logger.FromContext(ctx).WithPrefix("review_repo")
	log.Debug("resetting review state: card_id=%d", cardID)

	_, err := r.db.ExecContext(ctx, `DELETE FROM review_states WHERE card_id = ?`, cardID)
	if err != nil {
		log.Error("failed to reset review state: %v", err)
	}
	return err
}

func scanStates(rows *sql.Rows, log *logger.Logger) ([]models.ReviewState, error) {
	var states []models.ReviewState
	for rows.Next() {
		var (
			s            models.ReviewState
			due          sql.NullTime
			lastReviewed sql.NullTime
		)
		if err := rows.Scan(&s.CardID, &s.Repetitions, &s.EaseFactor, &s.IntervalDays, &due, &s.Box, &lastReviewed, &s.Stage); err != nil {
			log.Error("failed to scan review state row: %v", err)
			return nil, err
		}
		if due.Valid {
			s.Due = due.Time
		}
		if lastReviewed.Valid {
			s.LastReviewed = lastReviewed.Time
		}
		states = append(states, s)
	}
	return states, rows.Err()
}
