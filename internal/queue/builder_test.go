package queue_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashforge/flashforge/internal/errors"
	"github.com/flashforge/flashforge/internal/models"
	"github.com/flashforge/flashforge/internal/queue"
	"github.com/flashforge/flashforge/internal/testutil"
)

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func seedDeck(store *testutil.MemoryStore, cards int) models.Deck {
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

func newBuilder(store *testutil.MemoryStore, cap int) *queue.Builder {
	return queue.NewBuilder(store.Cards(), store.Reviews(), store.Stats(), cap, 4)
}

func seedReviewed(store *testutil.MemoryStore, cardID int64, due time.Time, ease float64) {
	store.SeedReview(models.ReviewState{
		CardID:       cardID,
		Repetitions:  2,
		EaseFactor:   ease,
		IntervalDays: 6,
		Due:          due,
		Box:          1,
		LastReviewed: due.AddDate(0, 0, -6),
		Stage:        models.StageReview,
	})
}

func TestBuild_EmptyDeck(t *testing.T) {
	store := testutil.NewMemoryStore()
	deck := store.AddDeck(models.Deck{Name: "empty"})
	b := newBuilder(store, 20)

	entries, err := b.Build(context.Background(), deck.ID, models.ModeLearn, now, queue.Options{})

	require.NoError(t, err)
	assert.Empty(t, entries, "empty deck is an empty queue, not an error")
}

func TestBuild_DueOrderedEarliestFirst(t *testing.T) {
	store := testutil.NewMemoryStore()
	deck := seedDeck(store, 3)
	cards, err := store.Cards().List(context.Background(), models.CardFilter{DeckID: deck.ID})
	require.NoError(t, err)

	seedReviewed(store, cards[0].ID, now.AddDate(0, 0, -1), 2.5)
	seedReviewed(store, cards[1].ID, now.AddDate(0, 0, -3), 2.5)
	seedReviewed(store, cards[2].ID, now.AddDate(0, 0, -2), 2.5)

	b := newBuilder(store, 20)
	entries, err := b.Build(context.Background(), deck.ID, models.ModeLearn, now, queue.Options{})

	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, cards[1].ID, entries[0].CardID)
	assert.Equal(t, cards[2].ID, entries[1].CardID)
	assert.Equal(t, cards[0].ID, entries[2].CardID)
}

func TestBuild_TieBrokenByLowestEase(t *testing.T) {
	store := testutil.NewMemoryStore()
	deck := seedDeck(store, 2)
	cards, err := store.Cards().List(context.Background(), models.CardFilter{DeckID: deck.ID})
	require.NoError(t, err)

	due := now.AddDate(0, 0, -1)
	seedReviewed(store, cards[0].ID, due, 2.8)
	seedReviewed(store, cards[1].ID, due, 1.5)

	b := newBuilder(store, 20)
	entries, err := b.Build(context.Background(), deck.ID, models.ModeLearn, now, queue.Options{})

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, cards[1].ID, entries[0].CardID, "weaker card comes first")
}

func TestBuild_NotDueExcluded(t *testing.T) {
	store := testutil.NewMemoryStore()
	deck := seedDeck(store, 2)
	cards, err := store.Cards().List(context.Background(), models.CardFilter{DeckID: deck.ID})
	require.NoError(t, err)

	seedReviewed(store, cards[0].ID, now.AddDate(0, 0, -1), 2.5)
	seedReviewed(store, cards[1].ID, now.AddDate(0, 0, 5), 2.5)

	b := newBuilder(store, 20)
	entries, err := b.Build(context.Background(), deck.ID, models.ModeLearn, now, queue.Options{})

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, cards[0].ID, entries[0].CardID)
}

func TestBuild_NewCardsInterleaved(t *testing.T) {
	store := testutil.NewMemoryStore()
	deck := seedDeck(store, 10)
	cards, err := store.Cards().List(context.Background(), models.CardFilter{DeckID: deck.ID})
	require.NoError(t, err)

	// 8 due, 2 new.
	for i := 0; i < 8; i++ {
		seedReviewed(store, cards[i].ID, now.AddDate(0, 0, -8+i), 2.5)
	}

	b := newBuilder(store, 20)
	entries, err := b.Build(context.Background(), deck.ID, models.ModeLearn, now, queue.Options{})

	require.NoError(t, err)
	require.Len(t, entries, 10)
	// One new card after every four due cards.
	assert.False(t, entries[0].IsNew)
	assert.True(t, entries[4].IsNew)
	assert.True(t, entries[9].IsNew)
	for i, e := range entries {
		assert.Equal(t, i, e.OrderIndex)
	}
}

func TestBuild_DailyCapExhausted(t *testing.T) {
	store := testutil.NewMemoryStore()
	deck := seedDeck(store, 12)
	cards, err := store.Cards().List(context.Background(), models.CardFilter{DeckID: deck.ID})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		seedReviewed(store, cards[i].ID, now.AddDate(0, 0, -(i+1)), 2.5)
	}
	// Cap of 5 already used up today.
	store.SeedDaily(models.DailyStat{Date: now.Format("2006-01-02"), NewCards: 5})

	b := newBuilder(store, 5)
	entries, err := b.Build(context.Background(), deck.ID, models.ModeLearn, now, queue.Options{})

	require.NoError(t, err)
	require.Len(t, entries, 10, "only due cards remain")
	for _, e := range entries {
		assert.False(t, e.IsNew)
	}
	for i := 1; i < len(entries); i++ {
		prev, _ := store.Reviews().Get(context.Background(), entries[i-1].CardID)
		cur, _ := store.Reviews().Get(context.Background(), entries[i].CardID)
		assert.False(t, cur.Due.Before(prev.Due), "due cards ordered earliest first")
	}
}

func TestBuild_PartialCapRemaining(t *testing.T) {
	store := testutil.NewMemoryStore()
	deck := seedDeck(store, 5)
	store.SeedDaily(models.DailyStat{Date: now.Format("2006-01-02"), NewCards: 3})

	b := newBuilder(store, 5)
	entries, err := b.Build(context.Background(), deck.ID, models.ModeLearn, now, queue.Options{})

	require.NoError(t, err)
	assert.Len(t, entries, 2, "two introductions left under the cap")
}

func TestBuild_Idempotent(t *testing.T) {
	store := testutil.NewMemoryStore()
	deck := seedDeck(store, 9)
	cards, err := store.Cards().List(context.Background(), models.CardFilter{DeckID: deck.ID})
	require.NoError(t, err)
	for i := 0; i < 6; i++ {
		seedReviewed(store, cards[i].ID, now.AddDate(0, 0, -i-1), 2.0+float64(i)*0.1)
	}

	b := newBuilder(store, 20)
	first, err := b.Build(context.Background(), deck.ID, models.ModeWrite, now, queue.Options{})
	require.NoError(t, err)
	second, err := b.Build(context.Background(), deck.ID, models.ModeWrite, now, queue.Options{})
	require.NoError(t, err)

	assert.Equal(t, first, second, "rebuilding without grading yields the identical sequence")
}

func TestBuild_MatchNeedsSixCards(t *testing.T) {
	store := testutil.NewMemoryStore()
	deck := seedDeck(store, 3)

	b := newBuilder(store, 20)
	_, err := b.Build(context.Background(), deck.ID, models.ModeMatch, now, queue.Options{})

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInsufficientCards))
}

func TestBuild_TestNeedsFourCards(t *testing.T) {
	store := testutil.NewMemoryStore()
	deck := seedDeck(store, 3)

	b := newBuilder(store, 20)
	_, err := b.Build(context.Background(), deck.ID, models.ModeTest, now, queue.Options{})

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInsufficientCards))
}

func TestBuild_MatchIgnoresDueState(t *testing.T) {
	store := testutil.NewMemoryStore()
	deck := seedDeck(store, 6)
	cards, err := store.Cards().List(context.Background(), models.CardFilter{DeckID: deck.ID})
	require.NoError(t, err)
	// All scheduled far in the future; match does not care.
	for _, c := range cards {
		seedReviewed(store, c.ID, now.AddDate(0, 1, 0), 2.5)
	}

	b := newBuilder(store, 20)
	entries, err := b.Build(context.Background(), deck.ID, models.ModeMatch, now, queue.Options{})

	require.NoError(t, err)
	assert.Len(t, entries, 6)
}

func TestBuild_StarredOnly(t *testing.T) {
	store := testutil.NewMemoryStore()
	deck := store.AddDeck(models.Deck{Name: "mixed"})
	starred := store.AddCard(models.Card{DeckID: deck.ID, Term: "a", Definition: "1", Starred: true})
	store.AddCard(models.Card{DeckID: deck.ID, Term: "b", Definition: "2"})

	b := newBuilder(store, 20)
	entries, err := b.Build(context.Background(), deck.ID, models.ModeLearn, now, queue.Options{StarredOnly: true})

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, starred.ID, entries[0].CardID)
}

func TestBuild_LimitTruncates(t *testing.T) {
	store := testutil.NewMemoryStore()
	deck := seedDeck(store, 8)

	b := newBuilder(store, 20)
	entries, err := b.Build(context.Background(), deck.ID, models.ModeLearn, now, queue.Options{Limit: 3})

	require.NoError(t, err)
	assert.Len(t, entries, 3)
}
