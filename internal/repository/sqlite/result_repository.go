package sqlite

import (
	"context"
	"database/sql"

	"github.com/flashforge/flashforge/internal/logger"
	"github.com/flashforge/flashforge/internal/models"
	"github.com/flashforge/flashforge/internal/repository"
)

type resultRepository struct {
	db *sql.DB
}

// NewResultRepository creates a new ResultRepository implementation
func NewResultRepository(db *sql.DB) repository.ResultRepository {
	return &resultRepository{db: db}
}

func (r *resultRepository) Insert(ctx context.Context, result models.SessionResult) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("result_repo")
	log.Debug("inserting result: session=%s, card_id=%d, grade=%s", result.SessionID, result.CardID, result.Grade)

	res, err := r.db.ExecContext(ctx, `
INSERT INTO session_results (session_id, card_id, deck_id, mode, grade, correct, latency_ms, card_was_new, reviewed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, result.SessionID, result.CardID, result.DeckID, result.Mode, result.Grade,
		result.Correct, result.LatencyMs, result.CardWasNew, result.ReviewedAt)
	if err != nil {
		log.Error("failed to insert result: %v", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		log.Error("failed to get result id: %v", err)
		return 0, err
	}
	return id, nil
}

func (r *resultRepository) ListBySession(ctx context.Context, sessionID string) ([]models.SessionResult, error) {
	log := logger.FromContext(ctx).WithPrefix("result_repo")

	rows, err := r.db.QueryContext(ctx, `
SELECT id, session_id, card_id, deck_id, mode, grade, correct, latency_ms, card_was_new, reviewed_at
FROM session_results
WHERE session_id = ?
ORDER BY id
`, sessionID)
	if err != nil {
		log.Error("failed to list results: %v", err)
		return nil, err
	}
	defer rows.Close()
	var results []models.SessionResult
	for rows.Next() {
		var res models.SessionResult
		if err := rows.Scan(&res.ID, &res.SessionID, &res.CardID, &res.DeckID, &res.Mode, &res.Grade,
			&res.Correct, &res.LatencyMs, &res.CardWasNew, &res.ReviewedAt); err != nil {
			log.Error("failed to scan result row: %v", err)
			return nil, err
		}
		results = append(results, res)
	}
	log.Debug("found %d results for session %s", len(results), sessionID)
	return results, rows.Err()
}
