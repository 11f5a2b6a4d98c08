package queue

import (
	"context"
	"sort"
	"time"

	"github.com/flashforge/flashforge/internal/errors"
	"github.com/flashforge/flashforge/internal/logger"
	"github.com/flashforge/flashforge/internal/models"
	"github.com/flashforge/flashforge/internal/repository"
)

// Mode minimums: Match needs six pairs for a board, Test needs enough
// deck material for distractor generation.
const (
	MatchMinCards = 6
	TestMinCards  = 4
)

// Entry is one slot in a session queue. TimesShown is bumped by the
// session machine each time the card resurfaces.
type Entry struct {
	CardID     int64
	OrderIndex int
	TimesShown int
	IsNew      bool
}

// Options narrow the selection before scheduling order is applied.
type Options struct {
	StarredOnly bool
	Limit       int
}

// Builder selects and orders the cards for a study session.
type Builder struct {
	cards   repository.CardRepository
	reviews repository.ReviewStateStore
	stats   repository.StatsRepository

	newCardCap   int
	newCardRatio int
}

// NewBuilder creates a Builder. newCardCap is the daily limit on cards
// introduced for the first time; newCardRatio interleaves one new card
// after that many due cards.
func NewBuilder(cards repository.CardRepository, reviews repository.ReviewStateStore, stats repository.StatsRepository, newCardCap, newCardRatio int) *Builder {
	if newCardRatio <= 0 {
		newCardRatio = 4
	}
	return &Builder{
		cards:        cards,
		reviews:      reviews,
		stats:        stats,
		newCardCap:   newCardCap,
		newCardRatio: newCardRatio,
	}
}

// Build returns the ordered queue for one session. The result depends
// only on stored state and now: calling Build again before any grade is
// applied yields the identical sequence. An empty deck yields an empty
// queue, not an error.
func (b *Builder) Build(ctx context.Context, deckID int64, mode models.Mode, now time.Time, opts Options) ([]Entry, error) {
	log := logger.FromContext(ctx).WithPrefix("queue")
	log.Debug("building queue: deck_id=%d, mode=%s", deckID, mode)

	filter := models.CardFilter{DeckID: deckID}
	if opts.StarredOnly {
		starred := true
		filter.Starred = &starred
	}
	cards, err := b.cards.List(ctx, filter)
	if err != nil {
		log.Error("failed to list cards: %v", err)
		return nil, errors.NewInternalError(err)
	}

	if err := checkModeMinimum(mode, len(cards)); err != nil {
		log.Warn("deck too small for mode: %v", err)
		return nil, err
	}

	// Match is a practice mode over the whole deck; due state is ignored.
	if mode == models.ModeMatch {
		return matchEntries(cards, opts.Limit), nil
	}

	due, fresh, err := b.partition(ctx, deckID, cards, now)
	if err != nil {
		return nil, err
	}

	capLeft, err := b.newCapRemaining(ctx, now)
	if err != nil {
		return nil, err
	}
	if len(fresh) > capLeft {
		log.Debug("daily new-card cap limits introductions: want=%d, cap_left=%d", len(fresh), capLeft)
		fresh = fresh[:capLeft]
	}

	ordered := interleave(due, fresh, b.newCardRatio)
	if opts.Limit > 0 && len(ordered) > opts.Limit {
		ordered = ordered[:opts.Limit]
	}

	log.Debug("queue built: due=%d, new=%d, total=%d", len(due), len(fresh), len(ordered))
	return ordered, nil
}

// partition splits the deck into due cards (ordered earliest-due first,
// weaker ease first on ties) and never-reviewed cards (oldest first).
func (b *Builder) partition(ctx context.Context, deckID int64, cards []models.Card, now time.Time) (due []Entry, fresh []Entry, err error) {
	log := logger.FromContext(ctx).WithPrefix("queue")

	states, err := b.reviews.ForDeck(ctx, deckID)
	if err != nil {
		log.Error("failed to load review states: %v", err)
		return nil, nil, errors.NewInternalError(err)
	}
	byCard := make(map[int64]models.ReviewState, len(states))
	for _, s := range states {
		byCard[s.CardID] = s
	}

	type dueCard struct {
		id   int64
		due  time.Time
		ease float64
	}
	var dueCards []dueCard
	for _, c := range cards {
		state, ok := byCard[c.ID]
		if !ok || state.IsNew() {
			fresh = append(fresh, Entry{CardID: c.ID, IsNew: true})
			continue
		}
		if !state.Due.After(now) {
			dueCards = append(dueCards, dueCard{id: c.ID, due: state.Due, ease: state.EaseFactor})
		}
	}

	sort.Slice(dueCards, func(i, j int) bool {
		if !dueCards[i].due.Equal(dueCards[j].due) {
			return dueCards[i].due.Before(dueCards[j].due)
		}
		if dueCards[i].ease != dueCards[j].ease {
			return dueCards[i].ease < dueCards[j].ease
		}
		return dueCards[i].id < dueCards[j].id
	})
	for _, d := range dueCards {
		due = append(due, Entry{CardID: d.id})
	}
	return due, fresh, nil
}

func (b *Builder) newCapRemaining(ctx context.Context, now time.Time) (int, error) {
	today := now.Format("2006-01-02")
	stat, err := b.stats.GetDaily(ctx, today)
	if err != nil {
		logger.FromContext(ctx).Error("failed to load daily stat: %v", err)
		return 0, errors.NewInternalError(err)
	}
	introduced := 0
	if stat != nil {
		introduced = stat.NewCards
	}
	left := b.newCardCap - introduced
	if left < 0 {
		left = 0
	}
	return left, nil
}

func checkModeMinimum(mode models.Mode, eligible int) error {
	switch {
	case mode == models.ModeMatch && eligible < MatchMinCards:
		return errors.NewInsufficientCardsError(string(mode), MatchMinCards, eligible)
	case mode == models.ModeTest && eligible < TestMinCards:
		return errors.NewInsufficientCardsError(string(mode), TestMinCards, eligible)
	}
	return nil
}

// interleave places due cards first and feeds one new card after every
// ratio due cards so a session is never flooded with unfamiliar material.
// Leftover new cards follow at the end.
func interleave(due, fresh []Entry, ratio int) []Entry {
	out := make([]Entry, 0, len(due)+len(fresh))
	di, fi := 0, 0
	for di < len(due) || fi < len(fresh) {
		for k := 0; k < ratio && di < len(due); k++ {
			out = append(out, due[di])
			di++
		}
		if fi < len(fresh) {
			out = append(out, fresh[fi])
			fi++
		}
	}
	for i := range out {
		out[i].OrderIndex = i
	}
	return out
}

func matchEntries(cards []models.Card, limit int) []Entry {
	ids := make([]int64, 0, len(cards))
	for _, c := range cards {
		ids = append(ids, c.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]Entry, len(ids))
	for i, id := range ids {
		out[i] = Entry{CardID: id, OrderIndex: i}
	}
	return out
}
