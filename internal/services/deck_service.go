package services

import (
	"context"
	"strings"
	"time"

	"github.com/flashforge/flashforge/internal/errors"
	"github.com/flashforge/flashforge/internal/logger"
	"github.com/flashforge/flashforge/internal/models"
	"github.com/flashforge/flashforge/internal/repository"
)

// DeckService handles deck and card management
type DeckService interface {
	CreateDeck(ctx context.Context, name string, ruleSet models.RuleSet) (*models.Deck, error)
	GetDeck(ctx context.Context, id int64) (*models.Deck, error)
	ListDecks(ctx context.Context) ([]models.Deck, error)
	DeleteDeck(ctx context.Context, id int64) error

	AddCard(ctx context.Context, card models.Card) (*models.Card, error)
	ImportCards(ctx context.Context, deckID int64, cards []models.Card) ([]int64, error)
	ListCards(ctx context.Context, filter models.CardFilter) ([]models.Card, error)
	DeleteCard(ctx context.Context, id int64) error
	ToggleStar(ctx context.Context, cardID int64) (bool, error)
	ResetCard(ctx context.Context, cardID int64) error

	Progress(ctx context.Context, deckID int64, now time.Time) (*models.DeckProgress, error)
}

type deckService struct {
	decks          repository.DeckRepository
	cards          repository.CardRepository
	reviews        repository.ReviewStateStore
	defaultRuleSet models.RuleSet
}

// NewDeckService creates a new DeckService
func NewDeckService(decks repository.DeckRepository, cards repository.CardRepository, reviews repository.ReviewStateStore, defaultRuleSet models.RuleSet) DeckService {
	return &deckService{
		decks:          decks,
		cards:          cards,
		reviews:        reviews,
		defaultRuleSet: defaultRuleSet,
	}
}

func (s *deckService) CreateDeck(ctx context.Context, name string, ruleSet models.RuleSet) (*models.Deck, error) {
	log := logger.FromContext(ctx)
	log.Debug("creating deck: name=%s, rule_set=%s", name, ruleSet)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.NewValidationError("name", "cannot be empty")
	}
	if ruleSet == "" {
		ruleSet = s.defaultRuleSet
	}
	if !ruleSet.Valid() {
		return nil, errors.NewValidationError("rule_set", "must be 'sm2' or 'leitner'")
	}

	deck := models.Deck{Name: name, RuleSet: ruleSet}
	id, err := s.decks.Insert(ctx, deck)
	if err != nil {
		log.Error("failed to insert deck: %v", err)
		return nil, errors.NewInternalError(err)
	}

	created, err := s.decks.Get(ctx, id)
	if err != nil {
		log.Error("failed to read back deck: %v", err)
		return nil, errors.NewInternalError(err)
	}
	log.Info("deck created: id=%d, name=%s", id, name)
	return created, nil
}

func (s *deckService) GetDeck(ctx context.Context, id int64) (*models.Deck, error) {
	log := logger.FromContext(ctx)

	deck, err := s.decks.Get(ctx, id)
	if err != nil {
		log.Error("failed to get deck: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if deck == nil {
		return nil, errors.NewNotFoundError("deck", id)
	}
	return deck, nil
}

func (s *deckService) ListDecks(ctx context.Context) ([]models.Deck, error) {
	log := logger.FromContext(ctx)

	decks, err := s.decks.List(ctx)
	if err != nil {
		log.Error("failed to list decks: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return decks, nil
}

func (s *deckService) DeleteDeck(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx)
	log.Debug("deleting deck: id=%d", id)

	if _, err := s.GetDeck(ctx, id); err != nil {
		return err
	}
	if err := s.decks.Delete(ctx, id); err != nil {
		log.Error("failed to delete deck: %v", err)
		return errors.NewInternalError(err)
	}
	log.Info("deck deleted: id=%d", id)
	return nil
}

func (s *deckService) AddCard(ctx context.Context, card models.Card) (*models.Card, error) {
	log := logger.FromContext(ctx)
	log.Debug("adding card: deck_id=%d, term=%s", card.DeckID, card.Term)

	if err := validateCard(card); err != nil {
		return nil, err
	}
	if _, err := s.GetDeck(ctx, card.DeckID); err != nil {
		return nil, err
	}

	id, err := s.cards.Insert(ctx, card)
	if err != nil {
		log.Error("failed to insert card: %v", err)
		return nil, errors.NewInternalError(err)
	}
	created, err := s.cards.Get(ctx, id)
	if err != nil {
		log.Error("failed to read back card: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return created, nil
}

func (s *deckService) ImportCards(ctx context.Context, deckID int64, cards []models.Card) ([]int64, error) {
	log := logger.FromContext(ctx)
	log.Debug("importing %d cards: deck_id=%d", len(cards), deckID)

	if len(cards) == 0 {
		return nil, errors.NewValidationError("cards", "cannot be empty")
	}
	if _, err := s.GetDeck(ctx, deckID); err != nil {
		return nil, err
	}
	for i := range cards {
		cards[i].DeckID = deckID
		if err := validateCard(cards[i]); err != nil {
			return nil, err
		}
	}

	ids, err := s.cards.InsertBatch(ctx, cards)
	if err != nil {
		log.Error("failed to import cards: %v", err)
		return nil, errors.NewInternalError(err)
	}
	log.Info("imported %d cards into deck %d", len(ids), deckID)
	return ids, nil
}

func (s *deckService) ListCards(ctx context.Context, filter models.CardFilter) ([]models.Card, error) {
	log := logger.FromContext(ctx)

	cards, err := s.cards.List(ctx, filter)
	if err != nil {
		log.Error("failed to list cards: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return cards, nil
}

func (s *deckService) DeleteCard(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx)
	log.Debug("deleting card: id=%d", id)

	card, err := s.cards.Get(ctx, id)
	if err != nil {
		log.Error("failed to get card: %v", err)
		return errors.NewInternalError(err)
	}
	if card == nil {
		return errors.NewNotFoundError("card", id)
	}
	if err := s.cards.Delete(ctx, id); err != nil {
		log.Error("failed to delete card: %v", err)
		return errors.NewInternalError(err)
	}
	return nil
}

func (s *deckService) ToggleStar(ctx context.Context, cardID int64) (bool, error) {
	log := logger.FromContext(ctx)

	card, err := s.cards.Get(ctx, cardID)
	if err != nil {
		log.Error("failed to get card: %v", err)
		return false, errors.NewInternalError(err)
	}
	if card == nil {
		return false, errors.NewNotFoundError("card", cardID)
	}

	starred := !card.Starred
	if err := s.cards.SetStarred(ctx, cardID, starred); err != nil {
		log.Error("failed to toggle star: %v", err)
		return false, errors.NewInternalError(err)
	}
	log.Debug("card star toggled: id=%d, starred=%t", cardID, starred)
	return starred, nil
}

func (s *deckService) ResetCard(ctx context.Context, cardID int64) error {
	log := logger.FromContext(ctx)
	log.Debug("resetting card scheduling: id=%d", cardID)

	card, err := s.cards.Get(ctx, cardID)
	if err != nil {
		log.Error("failed to get card: %v", err)
		return errors.NewInternalError(err)
	}
	if card == nil {
		return errors.NewNotFoundError("card", cardID)
	}
	if err := s.reviews.Reset(ctx, cardID); err != nil {
		log.Error("failed to reset review state: %v", err)
		return errors.NewInternalError(err)
	}
	log.Info("review state reset: card_id=%d", cardID)
	return nil
}

func (s *deckService) Progress(ctx context.Context, deckID int64, now time.Time) (*models.DeckProgress, error) {
	log := logger.FromContext(ctx)

	if _, err := s.GetDeck(ctx, deckID); err != nil {
		return nil, err
	}
	cards, err := s.cards.List(ctx, models.CardFilter{DeckID: deckID})
	if err != nil {
		log.Error("failed to list cards: %v", err)
		return nil, errors.NewInternalError(err)
	}
	states, err := s.reviews.ForDeck(ctx, deckID)
	if err != nil {
		log.Error("failed to load review states: %v", err)
		return nil, errors.NewInternalError(err)
	}

	byCard := make(map[int64]models.ReviewState, len(states))
	for _, st := range states {
		byCard[st.CardID] = st
	}

	progress := models.DeckProgress{DeckID: deckID, TotalCards: len(cards)}
	var lastStudied time.Time
	for _, c := range cards {
		st, ok := byCard[c.ID]
		if !ok || st.IsNew() {
			progress.NewCards++
			continue
		}
		switch st.Stage {
		case models.StageLearning:
			progress.LearningCards++
		case models.StageMastered:
			progress.MasteredCards++
		default:
			progress.ReviewCards++
		}
		if !st.Due.IsZero() && !st.Due.After(now) {
			progress.DueCards++
		}
		if st.LastReviewed.After(lastStudied) {
			lastStudied = st.LastReviewed
		}
	}
	if !lastStudied.IsZero() {
		progress.LastStudied = &lastStudied
	}
	return &progress, nil
}

func validateCard(card models.Card) error {
	if strings.TrimSpace(card.Term) == "" {
		return errors.NewValidationError("term", "cannot be empty")
	}
	if strings.TrimSpace(card.Definition) == "" {
		return errors.NewValidationError("definition", "cannot be empty")
	}
	return nil
}
