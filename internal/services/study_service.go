package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flashforge/flashforge/internal/config"
	"github.com/flashforge/flashforge/internal/errors"
	"github.com/flashforge/flashforge/internal/evaluator"
	"github.com/flashforge/flashforge/internal/logger"
	"github.com/flashforge/flashforge/internal/models"
	"github.com/flashforge/flashforge/internal/queue"
	"github.com/flashforge/flashforge/internal/repository"
	"github.com/flashforge/flashforge/internal/session"
	"github.com/flashforge/flashforge/internal/srs"
	"github.com/flashforge/flashforge/internal/stats"
)

// SessionInfo is the handle returned to callers driving a session.
type SessionInfo struct {
	ID         string        `json:"id"`
	DeckID     int64         `json:"deck_id"`
	Mode       models.Mode   `json:"mode"`
	State      session.State `json:"state"`
	TotalCards int           `json:"total_cards"`
	Remaining  int           `json:"remaining"`
}

// StudyService runs live study sessions. Sessions live in memory; the
// result log and review states are the durable record.
type StudyService interface {
	StartSession(ctx context.Context, deckID int64, mode models.Mode, opts session.Options) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	NextQuestion(ctx context.Context, sessionID string) (*evaluator.Question, error)
	SubmitResponse(ctx context.Context, sessionID string, resp evaluator.Response) (*evaluator.Outcome, *SessionInfo, error)
	SkipCard(ctx context.Context, sessionID string) (*SessionInfo, error)
	PauseSession(ctx context.Context, sessionID string) error
	ResumeSession(ctx context.Context, sessionID string) error
	AbortSession(ctx context.Context, sessionID string) (*models.SessionSummary, error)
	RestartSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	Summary(ctx context.Context, sessionID string) (*models.SessionSummary, error)
}

type studyService struct {
	decks     repository.DeckRepository
	cards     repository.CardRepository
	reviews   repository.ReviewStateStore
	results   repository.ResultRepository
	builder   *queue.Builder
	scheduler *srs.Scheduler
	evaluator *evaluator.Evaluator
	stats     *stats.Aggregator
	cfg       *config.Config
	locks     *session.CardLocks

	mu       sync.RWMutex
	sessions map[string]*session.Machine
}

// NewStudyService creates a new StudyService
func NewStudyService(
	decks repository.DeckRepository,
	cards repository.CardRepository,
	reviews repository.ReviewStateStore,
	results repository.ResultRepository,
	statsAgg *stats.Aggregator,
	cfg *config.Config,
) StudyService {
	return &studyService{
		decks:   decks,
		cards:   cards,
		reviews: reviews,
		results: results,
		builder: queue.NewBuilder(cards, reviews, statsAgg.Repo(), cfg.DailyNewCardCap, cfg.NewCardRatio),
		scheduler: srs.New(srs.Config{
			MasteryIntervalDays: cfg.MasteryIntervalDays,
		}),
		evaluator: evaluator.New(),
		stats:     statsAgg,
		cfg:       cfg,
		locks:     session.NewCardLocks(),
		sessions:  make(map[string]*session.Machine),
	}
}

func (s *studyService) StartSession(ctx context.Context, deckID int64, mode models.Mode, opts session.Options) (*SessionInfo, error) {
	log := logger.FromContext(ctx)
	log.Debug("starting session: deck_id=%d, mode=%s", deckID, mode)

	deck, err := s.decks.Get(ctx, deckID)
	if err != nil {
		log.Error("failed to get deck: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if deck == nil {
		return nil, errors.NewNotFoundError("deck", deckID)
	}

	if opts.Limit <= 0 {
		opts.Limit = s.cfg.SessionCardLimit
	}

	id := uuid.NewString()
	m, err := session.NewMachine(session.Params{
		ID:        id,
		Deck:      *deck,
		Mode:      mode,
		Options:   opts,
		Builder:   s.builder,
		Cards:     s.cards,
		Reviews:   s.reviews,
		Evaluator: s.evaluator,
		Scheduler: s.scheduler,
		Results:   s.results,
		Stats:     s.stats,
		Locks:     s.locks,
		Clock:     time.Now,
	})
	if err != nil {
		return nil, err
	}
	if err := m.Start(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[id] = m
	s.mu.Unlock()

	log.Info("session started: id=%s, deck_id=%d, mode=%s", id, deckID, mode)
	return s.info(id, m), nil
}

func (s *studyService) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	m, err := s.machine(sessionID)
	if err != nil {
		return nil, err
	}
	return s.info(sessionID, m), nil
}

func (s *studyService) NextQuestion(ctx context.Context, sessionID string) (*evaluator.Question, error) {
	m, err := s.machine(sessionID)
	if err != nil {
		return nil, err
	}
	return m.Present(ctx)
}

func (s *studyService) SubmitResponse(ctx context.Context, sessionID string, resp evaluator.Response) (*evaluator.Outcome, *SessionInfo, error) {
	m, err := s.machine(sessionID)
	if err != nil {
		return nil, nil, err
	}
	outcome, err := m.Respond(ctx, resp)
	if err != nil {
		return nil, nil, err
	}
	return outcome, s.info(sessionID, m), nil
}

func (s *studyService) SkipCard(ctx context.Context, sessionID string) (*SessionInfo, error) {
	m, err := s.machine(sessionID)
	if err != nil {
		return nil, err
	}
	if err := m.Skip(ctx); err != nil {
		return nil, err
	}
	return s.info(sessionID, m), nil
}

func (s *studyService) PauseSession(ctx context.Context, sessionID string) error {
	m, err := s.machine(sessionID)
	if err != nil {
		return err
	}
	return m.Pause()
}

func (s *studyService) ResumeSession(ctx context.Context, sessionID string) error {
	m, err := s.machine(sessionID)
	if err != nil {
		return err
	}
	return m.Resume()
}

func (s *studyService) AbortSession(ctx context.Context, sessionID string) (*models.SessionSummary, error) {
	log := logger.FromContext(ctx)

	m, err := s.machine(sessionID)
	if err != nil {
		return nil, err
	}
	if err := m.Abort(); err != nil {
		return nil, err
	}
	summary := m.Summary()
	log.Info("session aborted: id=%s, studied=%d", sessionID, summary.CardsStudied)
	return &summary, nil
}

func (s *studyService) RestartSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	log := logger.FromContext(ctx)

	m, err := s.machine(sessionID)
	if err != nil {
		return nil, err
	}
	if err := m.Restart(ctx); err != nil {
		return nil, err
	}
	log.Info("session restarted: id=%s", sessionID)
	return s.info(sessionID, m), nil
}

func (s *studyService) Summary(ctx context.Context, sessionID string) (*models.SessionSummary, error) {
	m, err := s.machine(sessionID)
	if err != nil {
		return nil, err
	}
	summary := m.Summary()
	return &summary, nil
}

func (s *studyService) machine(sessionID string) (*session.Machine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.sessions[sessionID]
	if !ok {
		return nil, errors.NewNotFoundError("session", sessionID)
	}
	return m, nil
}

func (s *studyService) info(id string, m *session.Machine) *SessionInfo {
	summary := m.Summary()
	return &SessionInfo{
		ID:         id,
		DeckID:     summary.DeckID,
		Mode:       summary.Mode,
		State:      m.State(),
		TotalCards: summary.TotalCards,
		Remaining:  m.Remaining(),
	}
}
