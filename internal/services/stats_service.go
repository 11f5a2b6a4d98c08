package services

import (
	"context"
	"time"

	"github.com/flashforge/flashforge/internal/logger"
	"github.com/flashforge/flashforge/internal/models"
	"github.com/flashforge/flashforge/internal/stats"
)

// StatsService exposes study statistics
type StatsService interface {
	Today(ctx context.Context) (models.DailyStat, error)
	Breakdown(ctx context.Context, days int) ([]models.DailyStat, error)
	Streak(ctx context.Context) (int, error)
	AllTime(ctx context.Context) (models.AllTimeStats, error)
	HardestCards(ctx context.Context, deckID int64, limit int) ([]models.HardCard, error)
}

type statsService struct {
	agg   *stats.Aggregator
	clock func() time.Time
}

// NewStatsService creates a new StatsService
func NewStatsService(agg *stats.Aggregator) StatsService {
	return &statsService{agg: agg, clock: time.Now}
}

func (s *statsService) Today(ctx context.Context) (models.DailyStat, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting today's stats")

	return s.agg.Daily(ctx, s.clock().Format(stats.DateLayout))
}

func (s *statsService) Breakdown(ctx context.Context, days int) ([]models.DailyStat, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting stats breakdown: days=%d", days)

	if days <= 0 {
		days = 30
	}
	return s.agg.Breakdown(ctx, s.clock(), days)
}

func (s *statsService) Streak(ctx context.Context) (int, error) {
	return s.agg.Streak(ctx, s.clock())
}

func (s *statsService) AllTime(ctx context.Context) (models.AllTimeStats, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting all-time stats")

	return s.agg.AllTime(ctx, s.clock())
}

func (s *statsService) HardestCards(ctx context.Context, deckID int64, limit int) ([]models.HardCard, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting hardest cards: deck_id=%d, limit=%d", deckID, limit)

	return s.agg.HardestCards(ctx, deckID, limit)
}
