package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashforge/flashforge/internal/errors"
	"github.com/flashforge/flashforge/internal/models"
	"github.com/flashforge/flashforge/internal/services"
	"github.com/flashforge/flashforge/internal/testutil"
)

func newDeckService(store *testutil.MemoryStore) services.DeckService {
	return services.NewDeckService(store.Decks(), store.Cards(), store.Reviews(), models.RuleSetSM2)
}

func TestCreateDeck(t *testing.T) {
	store := testutil.NewMemoryStore()
	svc := newDeckService(store)
	ctx := context.Background()

	deck, err := svc.CreateDeck(ctx, "  spanish  ", "")
	require.NoError(t, err)
	assert.Equal(t, "spanish", deck.Name)
	assert.Equal(t, models.RuleSetSM2, deck.RuleSet, "falls back to the default rule set")

	leitner, err := svc.CreateDeck(ctx, "capitals", models.RuleSetLeitner)
	require.NoError(t, err)
	assert.Equal(t, models.RuleSetLeitner, leitner.RuleSet)
}

func TestCreateDeck_Invalid(t *testing.T) {
	store := testutil.NewMemoryStore()
	svc := newDeckService(store)
	ctx := context.Background()

	_, err := svc.CreateDeck(ctx, "   ", "")
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))

	_, err = svc.CreateDeck(ctx, "ok", "anki")
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))
}

func TestGetDeck_NotFound(t *testing.T) {
	store := testutil.NewMemoryStore()
	svc := newDeckService(store)

	_, err := svc.GetDeck(context.Background(), 42)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}

func TestAddCard_Validation(t *testing.T) {
	store := testutil.NewMemoryStore()
	svc := newDeckService(store)
	ctx := context.Background()

	deck, err := svc.CreateDeck(ctx, "spanish", "")
	require.NoError(t, err)

	_, err = svc.AddCard(ctx, models.Card{DeckID: deck.ID, Term: "", Definition: "x"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))

	_, err = svc.AddCard(ctx, models.Card{DeckID: 999, Term: "hola", Definition: "hello"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))

	card, err := svc.AddCard(ctx, models.Card{DeckID: deck.ID, Term: "hola", Definition: "hello"})
	require.NoError(t, err)
	assert.NotZero(t, card.ID)
}

func TestImportCards(t *testing.T) {
	store := testutil.NewMemoryStore()
	svc := newDeckService(store)
	ctx := context.Background()

	deck, err := svc.CreateDeck(ctx, "spanish", "")
	require.NoError(t, err)

	ids, err := svc.ImportCards(ctx, deck.ID, []models.Card{
		{Term: "hola", Definition: "hello"},
		{Term: "adios", Definition: "goodbye"},
	})
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	_, err = svc.ImportCards(ctx, deck.ID, nil)
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))
}

func TestToggleStar(t *testing.T) {
	store := testutil.NewMemoryStore()
	svc := newDeckService(store)
	ctx := context.Background()

	deck, err := svc.CreateDeck(ctx, "spanish", "")
	require.NoError(t, err)
	card, err := svc.AddCard(ctx, models.Card{DeckID: deck.ID, Term: "hola", Definition: "hello"})
	require.NoError(t, err)

	starred, err := svc.ToggleStar(ctx, card.ID)
	require.NoError(t, err)
	assert.True(t, starred)

	starred, err = svc.ToggleStar(ctx, card.ID)
	require.NoError(t, err)
	assert.False(t, starred)

	_, err = svc.ToggleStar(ctx, 999)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}

func TestResetCard(t *testing.T) {
	store := testutil.NewMemoryStore()
	svc := newDeckService(store)
	ctx := context.Background()

	deck, err := svc.CreateDeck(ctx, "spanish", "")
	require.NoError(t, err)
	card, err := svc.AddCard(ctx, models.Card{DeckID: deck.ID, Term: "hola", Definition: "hello"})
	require.NoError(t, err)

	store.SeedReview(models.ReviewState{CardID: card.ID, EaseFactor: 2.5, Box: 1, Stage: models.StageReview})
	require.NoError(t, svc.ResetCard(ctx, card.ID))

	state, err := store.Reviews().Get(ctx, card.ID)
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestProgress(t *testing.T) {
	store := testutil.NewMemoryStore()
	svc := newDeckService(store)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	deck, err := svc.CreateDeck(ctx, "spanish", "")
	require.NoError(t, err)
	ids, err := svc.ImportCards(ctx, deck.ID, []models.Card{
		{Term: "a", Definition: "1"},
		{Term: "b", Definition: "2"},
		{Term: "c", Definition: "3"},
		{Term: "d", Definition: "4"},
	})
	require.NoError(t, err)

	lastStudied := now.AddDate(0, 0, -1)
	store.SeedReview(models.ReviewState{
		CardID: ids[0], EaseFactor: 2.5, Box: 1, Stage: models.StageLearning,
		Due: now.AddDate(0, 0, -1), LastReviewed: lastStudied,
	})
	store.SeedReview(models.ReviewState{
		CardID: ids[1], EaseFactor: 2.8, Box: 1, Stage: models.StageMastered,
		Due: now.AddDate(0, 3, 0), LastReviewed: now.AddDate(0, 0, -30),
	})
	store.SeedReview(models.ReviewState{
		CardID: ids[2], EaseFactor: 2.5, Box: 1, Stage: models.StageReview,
		Due: now.AddDate(0, 0, 2), LastReviewed: now.AddDate(0, 0, -4),
	})

	progress, err := svc.Progress(ctx, deck.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 4, progress.TotalCards)
	assert.Equal(t, 1, progress.NewCards)
	assert.Equal(t, 1, progress.LearningCards)
	assert.Equal(t, 1, progress.ReviewCards)
	assert.Equal(t, 1, progress.MasteredCards)
	assert.Equal(t, 1, progress.DueCards)
	require.NotNil(t, progress.LastStudied)
	assert.True(t, progress.LastStudied.Equal(lastStudied))
}

func TestDeleteDeck_NotFound(t *testing.T) {
	store := testutil.NewMemoryStore()
	svc := newDeckService(store)

	err := svc.DeleteDeck(context.Background(), 7)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}
