package repository

import (
	"context"
	"time"

	"github.com/flashforge/flashforge/internal/models"
)

// DeckRepository handles deck data access
type DeckRepository interface {
	Get(ctx context.Context, id int64) (*models.Deck, error)
	List(ctx context.Context) ([]models.Deck, error)
	Insert(ctx context.Context, deck models.Deck) (int64, error)
	Delete(ctx context.Context, id int64) error
}

// CardRepository handles card data access
type CardRepository interface {
	Get(ctx context.Context, id int64) (*models.Card, error)
	List(ctx context.Context, filter models.CardFilter) ([]models.Card, error)
	Insert(ctx context.Context, card models.Card) (int64, error)
	InsertBatch(ctx context.Context, cards []models.Card) ([]int64, error)
	SetStarred(ctx context.Context, id int64, starred bool) error
	Delete(ctx context.Context, id int64) error
}

// ReviewStateStore persists per-card scheduling state. Get returns nil
// for a card that has never been reviewed. Implementations must provide
// read-your-writes consistency: a Put is visible to every later Get in
// the same session.
type ReviewStateStore interface {
	Get(ctx context.Context, cardID int64) (*models.ReviewState, error)
	Put(ctx context.Context, state models.ReviewState) error
	DueBefore(ctx context.Context, deckID int64, t time.Time) ([]models.ReviewState, error)
	ForDeck(ctx context.Context, deckID int64) ([]models.ReviewState, error)
	Reset(ctx context.Context, cardID int64) error
}

// ResultRepository is the append-only session result log
type ResultRepository interface {
	Insert(ctx context.Context, result models.SessionResult) (int64, error)
	ListBySession(ctx context.Context, sessionID string) ([]models.SessionResult, error)
}

// StatsRepository handles daily statistics data access
type StatsRepository interface {
	// ApplyDelta adds the delta's counters onto the row for delta.Date,
	// creating it when absent.
	ApplyDelta(ctx context.Context, delta models.DailyStat) error
	GetDaily(ctx context.Context, date string) (*models.DailyStat, error)
	Range(ctx context.Context, from, to string) ([]models.DailyStat, error)
	AllTime(ctx context.Context) (*models.AllTimeStats, error)
	HardestCards(ctx context.Context, deckID int64, limit int) ([]models.HardCard, error)
}
