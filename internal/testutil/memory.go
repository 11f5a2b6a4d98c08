package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/flashforge/flashforge/internal/models"
)

// In-memory repository fakes for exercising the core packages without
// SQLite. They honor the same contracts as the sqlite implementations,
// including read-your-writes on the review store.

// MemoryStore bundles fakes that share card/deck knowledge.
type MemoryStore struct {
	mu      sync.Mutex
	decks   map[int64]models.Deck
	cards   map[int64]models.Card
	reviews map[int64]models.ReviewState
	results []models.SessionResult
	daily   map[string]models.DailyStat
	nextID  int64
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		decks:   make(map[int64]models.Deck),
		cards:   make(map[int64]models.Card),
		reviews: make(map[int64]models.ReviewState),
		daily:   make(map[string]models.DailyStat),
		nextID:  1,
	}
}

// AddDeck registers a deck and returns it with an assigned ID.
func (m *MemoryStore) AddDeck(deck models.Deck) models.Deck {
	m.mu.Lock()
	defer m.mu.Unlock()
	if deck.ID == 0 {
		deck.ID = m.nextID
		m.nextID++
	}
	m.decks[deck.ID] = deck
	return deck
}

// AddCard registers a card and returns it with an assigned ID.
func (m *MemoryStore) AddCard(card models.Card) models.Card {
	m.mu.Lock()
	defer m.mu.Unlock()
	if card.ID == 0 {
		card.ID = m.nextID
		m.nextID++
	}
	m.cards[card.ID] = card
	return card
}

// SeedReview stores a review state directly, bypassing the scheduler.
func (m *MemoryStore) SeedReview(state models.ReviewState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reviews[state.CardID] = state
}

// SeedDaily stores a daily stat row directly.
func (m *MemoryStore) SeedDaily(stat models.DailyStat) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.daily[stat.Date] = stat
}

// Results returns a copy of all recorded session results.
func (m *MemoryStore) Results() []models.SessionResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.SessionResult, len(m.results))
	copy(out, m.results)
	return out
}

// Decks returns the MemoryStore viewed as a DeckRepository.
func (m *MemoryStore) Decks() *MemoryDecks { return &MemoryDecks{store: m} }

// Cards returns the MemoryStore viewed as a CardRepository.
func (m *MemoryStore) Cards() *MemoryCards { return &MemoryCards{store: m} }

// Reviews returns the MemoryStore viewed as a ReviewStateStore.
func (m *MemoryStore) Reviews() *MemoryReviews { return &MemoryReviews{store: m} }

// ResultLog returns the MemoryStore viewed as a ResultRepository.
func (m *MemoryStore) ResultLog() *MemoryResults { return &MemoryResults{store: m} }

// Stats returns the MemoryStore viewed as a StatsRepository.
func (m *MemoryStore) Stats() *MemoryStats { return &MemoryStats{store: m} }

type MemoryDecks struct{ store *MemoryStore }

func (r *MemoryDecks) Get(_ context.Context, id int64) (*models.Deck, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if d, ok := r.store.decks[id]; ok {
		return &d, nil
	}
	return nil, nil
}

func (r *MemoryDecks) List(_ context.Context) ([]models.Deck, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]models.Deck, 0, len(r.store.decks))
	for _, d := range r.store.decks {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryDecks) Insert(_ context.Context, deck models.Deck) (int64, error) {
	return r.store.AddDeck(deck).ID, nil
}

func (r *MemoryDecks) Delete(_ context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.decks, id)
	for cid, c := range r.store.cards {
		if c.DeckID == id {
			delete(r.store.cards, cid)
			delete(r.store.reviews, cid)
		}
	}
	return nil
}

type MemoryCards struct{ store *MemoryStore }

func (r *MemoryCards) Get(_ context.Context, id int64) (*models.Card, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if c, ok := r.store.cards[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (r *MemoryCards) List(_ context.Context, filter models.CardFilter) ([]models.Card, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []models.Card
	for _, c := range r.store.cards {
		if filter.DeckID != 0 && c.DeckID != filter.DeckID {
			continue
		}
		if filter.Starred != nil && c.Starred != *filter.Starred {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(c.Term+" "+c.Definition), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *MemoryCards) Insert(_ context.Context, card models.Card) (int64, error) {
	return r.store.AddCard(card).ID, nil
}

func (r *MemoryCards) InsertBatch(ctx context.Context, cards []models.Card) ([]int64, error) {
	ids := make([]int64, 0, len(cards))
	for _, c := range cards {
		id, err := r.Insert(ctx, c)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *MemoryCards) SetStarred(_ context.Context, id int64, starred bool) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if c, ok := r.store.cards[id]; ok {
		c.Starred = starred
		r.store.cards[id] = c
	}
	return nil
}

func (r *MemoryCards) Delete(_ context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.cards, id)
	delete(r.store.reviews, id)
	return nil
}

type MemoryReviews struct{ store *MemoryStore }

func (r *MemoryReviews) Get(_ context.Context, cardID int64) (*models.ReviewState, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if s, ok := r.store.reviews[cardID]; ok {
		return &s, nil
	}
	return nil, nil
}

func (r *MemoryReviews) Put(_ context.Context, state models.ReviewState) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.reviews[state.CardID] = state
	return nil
}

func (r *MemoryReviews) DueBefore(_ context.Context, deckID int64, t time.Time) ([]models.ReviewState, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []models.ReviewState
	for _, s := range r.store.reviews {
		card, ok := r.store.cards[s.CardID]
		if !ok || card.DeckID != deckID {
			continue
		}
		if !s.IsNew() && !s.Due.After(t) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CardID < out[j].CardID })
	return out, nil
}

func (r *MemoryReviews) ForDeck(_ context.Context, deckID int64) ([]models.ReviewState, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []models.ReviewState
	for _, s := range r.store.reviews {
		card, ok := r.store.cards[s.CardID]
		if ok && card.DeckID == deckID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CardID < out[j].CardID })
	return out, nil
}

func (r *MemoryReviews) Reset(_ context.Context, cardID int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.reviews, cardID)
	return nil
}

type MemoryResults struct{ store *MemoryStore }

func (r *MemoryResults) Insert(_ context.Context, result models.SessionResult) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	result.ID = int64(len(r.store.results) + 1)
	r.store.results = append(r.store.results, result)
	return result.ID, nil
}

func (r *MemoryResults) ListBySession(_ context.Context, sessionID string) ([]models.SessionResult, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []models.SessionResult
	for _, res := range r.store.results {
		if res.SessionID == sessionID {
			out = append(out, res)
		}
	}
	return out, nil
}

type MemoryStats struct{ store *MemoryStore }

func (r *MemoryStats) ApplyDelta(_ context.Context, delta models.DailyStat) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stat := r.store.daily[delta.Date]
	stat.Date = delta.Date
	stat.CardsReviewed += delta.CardsReviewed
	stat.CorrectCount += delta.CorrectCount
	stat.IncorrectCount += delta.IncorrectCount
	stat.NewCards += delta.NewCards
	stat.TimeSpentSeconds += delta.TimeSpentSeconds
	r.store.daily[delta.Date] = stat
	return nil
}

func (r *MemoryStats) GetDaily(_ context.Context, date string) (*models.DailyStat, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if s, ok := r.store.daily[date]; ok {
		return &s, nil
	}
	return nil, nil
}

func (r *MemoryStats) Range(_ context.Context, from, to string) ([]models.DailyStat, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []models.DailyStat
	for date, s := range r.store.daily {
		if date >= from && date <= to {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (r *MemoryStats) AllTime(_ context.Context) (*models.AllTimeStats, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out models.AllTimeStats
	for _, s := range r.store.daily {
		out.CardsReviewed += s.CardsReviewed
		out.CorrectCount += s.CorrectCount
		out.IncorrectCount += s.IncorrectCount
		out.TimeSpentSeconds += s.TimeSpentSeconds
		if s.CardsReviewed > 0 {
			out.DaysActive++
		}
	}
	if total := out.CorrectCount + out.IncorrectCount; total > 0 {
		out.Accuracy = float64(out.CorrectCount) / float64(total) * 100
	}
	return &out, nil
}

func (r *MemoryStats) HardestCards(_ context.Context, deckID int64, limit int) ([]models.HardCard, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	attempts := make(map[int64]*models.HardCard)
	for _, res := range r.store.results {
		card, ok := r.store.cards[res.CardID]
		if !ok || (deckID != 0 && card.DeckID != deckID) {
			continue
		}
		hc, ok := attempts[res.CardID]
		if !ok {
			hc = &models.HardCard{Card: card}
			attempts[res.CardID] = hc
		}
		hc.Attempts++
		if res.Correct {
			hc.Correct++
		}
	}
	var out []models.HardCard
	for _, hc := range attempts {
		hc.Accuracy = float64(hc.Correct) / float64(hc.Attempts) * 100
		out = append(out, *hc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Accuracy != out[j].Accuracy {
			return out[i].Accuracy < out[j].Accuracy
		}
		return out[i].Card.ID < out[j].Card.ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
