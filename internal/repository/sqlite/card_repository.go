package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"

	"github.com/flashforge/flashforge/internal/logger"
	"github.com/flashforge/flashforge/internal/models"
	"github.com/flashforge/flashforge/internal/repository"
)

type cardRepository struct {
	db *sql.DB
}

// NewCardRepository creates a new CardRepository implementation
func NewCardRepository(db *sql.DB) repository.CardRepository {
	return &cardRepository{db: db}
}

func (r *cardRepository) Get(ctx context.Context, id int64) (*models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")

	var c models.Card
	err := r.db.QueryRowContext(ctx, `
SELECT id, deck_id, term, definition, hint, starred, created_at
FROM cards
WHERE id = ?
`, id).Scan(&c.ID, &c.DeckID, &c.Term, &c.Definition, &c.Hint, &c.Starred, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("card not found: id=%d", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get card: %v", err)
		return nil, err
	}
	return &c, nil
}

func (r *cardRepository) List(ctx context.Context, filter models.CardFilter) ([]models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("listing cards: deck_id=%d, search=%q", filter.DeckID, filter.Search)

	query := sqlBuilder.Select(
		"id", "deck_id", "term", "definition", "hint", "starred", "created_at",
	).From("cards")

	// Dynamic WHERE clauses
	if filter.DeckID != 0 {
		query = query.Where(squirrel.Eq{"deck_id": filter.DeckID})
	}
	if filter.Starred != nil {
		query = query.Where(squirrel.Eq{"starred": *filter.Starred})
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where(squirrel.Or{
			squirrel.Like{"term": like},
			squirrel.Like{"definition": like},
		})
	}

	query = query.OrderBy("id")
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sql, args...)
	if err != nil {
		log.Error("failed to list cards: %v", err)
		return nil, err
	}
	defer rows.Close()
	var cards []models.Card
	for rows.Next() {
		var c models.Card
		if err := rows.Scan(&c.ID, &c.DeckID, &c.Term, &c.Definition, &c.Hint, &c.Starred, &c.CreatedAt); err != nil {
			log.Error("failed to scan card row: %v", err)
			return nil, err
		}
		cards = append(cards, c)
	}
	log.Debug("found %d cards", len(cards))
	return cards, rows.Err()
}

func (r *cardRepository) Insert(ctx context.Context, card models.Card) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("inserting card: deck_id=%d, term=%s", card.DeckID, card.Term)

	res, err := r.db.ExecContext(ctx, `
INSERT INTO cards (deck_id, term, definition, hint, starred)
VALUES (?, ?, ?, ?, ?)
`, card.DeckID, card.Term, card.Definition, card.Hint, card.Starred)
	if err != nil {
		log.Error("failed to insert card: %v", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		log.Error("failed to get card id: %v", err)
		return 0, err
	}
	return id, nil
}

func (r *cardRepository) InsertBatch(ctx context.Context, cards []models.Card) ([]int64, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("inserting %d cards in batch", len(cards))

	ids := make([]int64, 0, len(cards))
	err := tx(ctx, r.db, func(t *sql.Tx) error {
		stmt, err := t.PrepareContext(ctx, `
INSERT INTO cards (deck_id, term, definition, hint, starred)
VALUES (?, ?, ?, ?, ?)
`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, c := range cards {
			res, err := stmt.ExecContext(ctx, c.DeckID, c.Term, c.Definition, c.Hint, c.Starred)
			if err != nil {
				return err
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		log.Error("failed to insert card batch: %v", err)
		return nil, err
	}
	return ids, nil
}

func (r *cardRepository) SetStarred(ctx context.Context, id int64, starred bool) error {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("setting starred: id=%d, starred=%t", id, starred)

	_, err := r.db.ExecContext(ctx, `UPDATE cards SET starred = ? WHERE id = ?`, starred, id)
	if err != nil {
		log.Error("failed to set starred flag: %v", err)
	}
	return err
}

func (r *cardRepository) Delete(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("deleting card: id=%d", id)

	_, err := r.db.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id)
	if err != nil {
		log.Error("failed to delete card: %v", err)
	}
	return err
}
