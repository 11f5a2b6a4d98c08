package services_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashforge/flashforge/internal/config"
	"github.com/flashforge/flashforge/internal/errors"
	"github.com/flashforge/flashforge/internal/evaluator"
	"github.com/flashforge/flashforge/internal/models"
	"github.com/flashforge/flashforge/internal/services"
	"github.com/flashforge/flashforge/internal/session"
	"github.com/flashforge/flashforge/internal/stats"
	"github.com/flashforge/flashforge/internal/testutil"
)

func newStudyService(store *testutil.MemoryStore) services.StudyService {
	cfg := &config.Config{
		DailyNewCardCap:     50,
		MasteryIntervalDays: 90,
		NewCardRatio:        4,
	}
	return services.NewStudyService(
		store.Decks(), store.Cards(), store.Reviews(), store.ResultLog(),
		stats.NewAggregator(store.Stats()), cfg,
	)
}

func seedStudyDeck(t *testing.T, store *testutil.MemoryStore, cards int) models.Deck {
	t.Helper()
	deck := store.AddDeck(models.Deck{Name: "spanish", RuleSet: models.RuleSetSM2})
	for i := 0; i < cards; i++ {
		store.AddCard(models.Card{
			DeckID:     deck.ID,
			Term:       fmt.Sprintf("term-%d", i),
			Definition: fmt.Sprintf("definition-%d", i),
		})
	}
	return deck
}

func TestStartSession(t *testing.T) {
	store := testutil.NewMemoryStore()
	svc := newStudyService(store)
	ctx := context.Background()
	deck := seedStudyDeck(t, store, 5)

	info, err := svc.StartSession(ctx, deck.ID, models.ModeLearn, session.Options{})
	require.NoError(t, err)
	assert.NotEmpty(t, info.ID)
	assert.Equal(t, deck.ID, info.DeckID)
	assert.Equal(t, models.ModeLearn, info.Mode)
	assert.Equal(t, session.StatePresenting, info.State)
	assert.Equal(t, 5, info.TotalCards)
	assert.Equal(t, 5, info.Remaining)
}

func TestStartSession_DeckNotFound(t *testing.T) {
	store := testutil.NewMemoryStore()
	svc := newStudyService(store)

	_, err := svc.StartSession(context.Background(), 42, models.ModeLearn, session.Options{})
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}

func TestStartSession_InsufficientCardsForMatch(t *testing.T) {
	store := testutil.NewMemoryStore()
	svc := newStudyService(store)
	deck := seedStudyDeck(t, store, 3)

	_, err := svc.StartSession(context.Background(), deck.ID, models.ModeMatch, session.Options{})
	assert.True(t, errors.HasCode(err, errors.ErrCodeInsufficientCards))
}

func TestSubmitResponse_DrivesSessionToCompletion(t *testing.T) {
	store := testutil.NewMemoryStore()
	svc := newStudyService(store)
	ctx := context.Background()
	deck := seedStudyDeck(t, store, 3)

	info, err := svc.StartSession(ctx, deck.ID, models.ModeFlashcards, session.Options{})
	require.NoError(t, err)

	good := models.GradeGood
	for i := 0; i < 3; i++ {
		q, err := svc.NextQuestion(ctx, info.ID)
		require.NoError(t, err)
		assert.Equal(t, evaluator.KindSelfReport, q.Kind)

		outcome, updated, err := svc.SubmitResponse(ctx, info.ID, evaluator.Response{SelfGrade: &good})
		require.NoError(t, err)
		assert.True(t, outcome.Correct)
		info = updated
	}

	assert.Equal(t, session.StateCompleted, info.State)
	assert.Zero(t, info.Remaining)

	summary, err := svc.Summary(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.CardsStudied)
	assert.Len(t, store.Results(), 3)
}

func TestSessionLifecycle(t *testing.T) {
	store := testutil.NewMemoryStore()
	svc := newStudyService(store)
	ctx := context.Background()
	deck := seedStudyDeck(t, store, 4)

	info, err := svc.StartSession(ctx, deck.ID, models.ModeLearn, session.Options{})
	require.NoError(t, err)

	require.NoError(t, svc.PauseSession(ctx, info.ID))
	got, err := svc.GetSession(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StatePaused, got.State)

	require.NoError(t, svc.ResumeSession(ctx, info.ID))

	_, err = svc.SkipCard(ctx, info.ID)
	require.NoError(t, err)

	summary, err := svc.AbortSession(ctx, info.ID)
	require.NoError(t, err)
	assert.True(t, summary.Aborted)
}

func TestRestartSession(t *testing.T) {
	store := testutil.NewMemoryStore()
	svc := newStudyService(store)
	ctx := context.Background()
	deck := seedStudyDeck(t, store, 3)

	info, err := svc.StartSession(ctx, deck.ID, models.ModeFlashcards, session.Options{})
	require.NoError(t, err)

	good := models.GradeGood
	_, err = svc.NextQuestion(ctx, info.ID)
	require.NoError(t, err)
	_, _, err = svc.SubmitResponse(ctx, info.ID, evaluator.Response{SelfGrade: &good})
	require.NoError(t, err)

	restarted, err := svc.RestartSession(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StatePresenting, restarted.State)
	// The graded card is scheduled for tomorrow and drops out of the
	// rebuilt queue.
	assert.Equal(t, 2, restarted.Remaining)
}

func TestUnknownSession(t *testing.T) {
	store := testutil.NewMemoryStore()
	svc := newStudyService(store)
	ctx := context.Background()

	_, err := svc.NextQuestion(ctx, "missing")
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))

	err = svc.PauseSession(ctx, "missing")
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}
