package session

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/flashforge/flashforge/internal/errors"
	"github.com/flashforge/flashforge/internal/evaluator"
	"github.com/flashforge/flashforge/internal/logger"
	"github.com/flashforge/flashforge/internal/models"
	"github.com/flashforge/flashforge/internal/queue"
	"github.com/flashforge/flashforge/internal/repository"
	"github.com/flashforge/flashforge/internal/srs"
)

// State is the lifecycle phase of a study session.
type State string

const (
	StateInitializing     State = "initializing"
	StatePresenting       State = "presenting"
	StateAwaitingResponse State = "awaiting_response"
	StatePaused           State = "paused"
	StateCompleted        State = "completed"
	StateAborted          State = "aborted"
)

const (
	// DefaultResurfaceGap is how many positions ahead a failed card is
	// reinserted in modes that resurface misses.
	DefaultResurfaceGap = 3
	// DefaultMaxShows caps how often a single card can be shown in one
	// session, counting resurfaces.
	DefaultMaxShows = 3

	// trueFalseShare is the 1-in-N chance a test question is a
	// true/false claim instead of multiple choice.
	trueFalseShare = 3
)

// Options tune a single session.
type Options struct {
	Shuffle         bool
	DefinitionFirst bool
	StarredOnly     bool
	Limit           int
	ResurfaceGap    int
	MaxShows        int
}

// StatsRecorder folds a graded result into the daily aggregates.
type StatsRecorder interface {
	Record(ctx context.Context, result models.SessionResult) error
}

// Params wires a Machine to its collaborators. Clock and Seed exist so
// tests can drive time and randomness deterministically; both fall back
// to real time when zero.
type Params struct {
	ID      string
	Deck    models.Deck
	Mode    models.Mode
	Options Options

	Builder   *queue.Builder
	Cards     repository.CardRepository
	Reviews   repository.ReviewStateStore
	Evaluator *evaluator.Evaluator
	Scheduler *srs.Scheduler
	Results   repository.ResultRepository
	Stats     StatsRecorder
	Locks     *CardLocks

	Clock func() time.Time
	Seed  int64
}

// Machine runs one study session from queue build to summary. All
// methods are safe for concurrent use; a session is typically driven
// from one HTTP handler at a time but nothing enforces that upstream.
type Machine struct {
	mu sync.Mutex

	p   Params
	rng *rand.Rand

	state     State
	prevState State

	queue   []queue.Entry
	pos     int
	cards   map[int64]models.Card
	pool    []models.Card
	current *evaluator.Question

	startedAt   time.Time
	presentedAt time.Time
	pausedAt    time.Time
	pausedTotal time.Duration
	// paused time accumulated before the current question was shown,
	// so a pause mid-question does not inflate its latency
	pausedAtPresent time.Duration

	studied     int
	correct     int
	incorrect   int
	gradeCounts map[string]int
	aborted     bool
	endedAt     time.Time
}

// NewMachine validates params and returns a machine in the
// initializing state. Start must be called before Present.
func NewMachine(p Params) (*Machine, error) {
	if !p.Mode.Valid() {
		return nil, errors.NewValidationError("mode", "unknown study mode "+string(p.Mode))
	}
	if p.Clock == nil {
		p.Clock = time.Now
	}
	seed := p.Seed
	if seed == 0 {
		seed = p.Clock().UnixNano()
	}
	if p.Options.ResurfaceGap <= 0 {
		p.Options.ResurfaceGap = DefaultResurfaceGap
	}
	if p.Options.MaxShows <= 0 {
		p.Options.MaxShows = DefaultMaxShows
	}
	if p.Locks == nil {
		p.Locks = NewCardLocks()
	}
	return &Machine{
		p:           p,
		rng:         rand.New(rand.NewSource(seed)),
		state:       StateInitializing,
		gradeCounts: map[string]int{},
	}, nil
}

// State returns the current lifecycle phase.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start builds the queue and moves to presenting. A deck with nothing
// to study completes immediately.
func (m *Machine) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateInitializing {
		return errors.NewConflictError("session already started")
	}

	now := m.p.Clock()
	entries, err := m.p.Builder.Build(ctx, m.p.Deck.ID, m.p.Mode, now, queue.Options{
		StarredOnly: m.p.Options.StarredOnly,
		Limit:       m.p.Options.Limit,
	})
	if err != nil {
		return err
	}

	pool, err := m.p.Cards.List(ctx, models.CardFilter{DeckID: m.p.Deck.ID})
	if err != nil {
		return errors.NewInternalError(err)
	}
	m.cards = make(map[int64]models.Card, len(pool))
	for _, c := range pool {
		m.cards[c.ID] = c
	}
	m.pool = pool

	if m.p.Options.Shuffle {
		m.rng.Shuffle(len(entries), func(i, j int) {
			entries[i], entries[j] = entries[j], entries[i]
		})
		for i := range entries {
			entries[i].OrderIndex = i
		}
	}

	m.queue = entries
	m.pos = 0
	m.startedAt = now
	if len(entries) == 0 {
		m.state = StateCompleted
		m.endedAt = now
		return nil
	}
	m.state = StatePresenting
	return nil
}

// Present builds the question for the card at the head of the queue
// and moves to awaiting a response.
func (m *Machine) Present(ctx context.Context) (*evaluator.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StatePresenting {
		return nil, errors.NewConflictError("no card to present in state " + string(m.state))
	}

	entry := m.queue[m.pos]
	card, ok := m.cards[entry.CardID]
	if !ok {
		return nil, errors.NewCorruptStateError(entry.CardID, "queued card missing from deck")
	}

	q, err := m.buildQuestion(card)
	if err != nil {
		return nil, err
	}
	m.current = &q
	m.presentedAt = m.p.Clock()
	m.pausedAtPresent = m.pausedTotal
	m.state = StateAwaitingResponse
	return m.current, nil
}

func (m *Machine) buildQuestion(card models.Card) (evaluator.Question, error) {
	switch m.p.Mode {
	case models.ModeFlashcards, models.ModeLearn:
		return m.p.Evaluator.SelfReport(card, m.p.Options.DefinitionFirst), nil
	case models.ModeWrite:
		return m.p.Evaluator.Typed(card, m.p.Options.DefinitionFirst), nil
	case models.ModeTest:
		if m.rng.Intn(trueFalseShare) == 0 {
			return m.p.Evaluator.TrueFalse(card, m.pool, m.rng), nil
		}
		return m.p.Evaluator.MultipleChoice(card, m.pool, m.rng)
	case models.ModeMatch:
		return m.p.Evaluator.Match(card), nil
	}
	return evaluator.Question{}, errors.NewValidationError("mode", "unknown study mode "+string(m.p.Mode))
}

// Respond grades the pending question, persists the outcome and
// advances the queue. An invalid response leaves the machine awaiting
// the same question so the caller can retry.
func (m *Machine) Respond(ctx context.Context, resp evaluator.Response) (*evaluator.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateAwaitingResponse {
		return nil, errors.NewConflictError("no response expected in state " + string(m.state))
	}

	outcome, err := m.p.Evaluator.Evaluate(*m.current, resp)
	if err != nil {
		return nil, err
	}

	now := m.p.Clock()
	entry := m.queue[m.pos]
	latency := now.Sub(m.presentedAt) - (m.pausedTotal - m.pausedAtPresent)
	if latency < 0 {
		latency = 0
	}

	wasNew := entry.IsNew && entry.TimesShown == 0
	if m.p.Mode.Scheduled() {
		if err := m.applyGrade(ctx, entry.CardID, outcome.Grade, now); err != nil {
			return nil, err
		}
	}

	result := models.SessionResult{
		SessionID:  m.p.ID,
		CardID:     entry.CardID,
		DeckID:     m.p.Deck.ID,
		Mode:       m.p.Mode,
		Grade:      outcome.Grade,
		Correct:    outcome.Correct,
		LatencyMs:  latency.Milliseconds(),
		ReviewedAt: now,
		CardWasNew: wasNew,
	}
	if _, err := m.p.Results.Insert(ctx, result); err != nil {
		return nil, errors.NewInternalError(err)
	}
	if m.p.Stats != nil {
		if err := m.p.Stats.Record(ctx, result); err != nil {
			// Aggregates can be rebuilt from the result log, so a
			// stats failure does not fail the review.
			logger.FromContext(ctx).Warn("failed to record daily stats: %v", err)
		}
	}

	m.studied++
	m.gradeCounts[outcome.Grade.String()]++
	if outcome.Correct {
		m.correct++
	} else {
		m.incorrect++
		m.resurface(entry)
	}

	m.current = nil
	m.pos++
	if m.pos >= len(m.queue) {
		m.state = StateCompleted
		m.endedAt = now
	} else {
		m.state = StatePresenting
	}
	return &outcome, nil
}

// applyGrade runs the scheduler over the card's stored state and
// writes the successor back.
func (m *Machine) applyGrade(ctx context.Context, cardID int64, grade models.Grade, now time.Time) error {
	cl := m.p.Locks.Acquire(cardID)
	defer cl.Unlock()

	state, err := m.p.Reviews.Get(ctx, cardID)
	if err != nil {
		return errors.NewInternalError(err)
	}
	if state == nil {
		s := srs.NewState(cardID)
		state = &s
	}
	next, err := m.p.Scheduler.Apply(*state, m.p.Deck.RuleSet, grade, now)
	if err != nil {
		return err
	}
	if err := m.p.Reviews.Put(ctx, next); err != nil {
		return errors.NewInternalError(err)
	}
	return nil
}

// resurface reinserts a missed card a few positions ahead. Flashcards
// and match never resurface; a card that hit its show cap stays down.
func (m *Machine) resurface(entry queue.Entry) {
	switch m.p.Mode {
	case models.ModeLearn, models.ModeWrite, models.ModeTest:
	default:
		return
	}
	if entry.TimesShown+1 >= m.p.Options.MaxShows {
		return
	}

	entry.TimesShown++
	at := m.pos + 1 + m.p.Options.ResurfaceGap
	if at > len(m.queue) {
		at = len(m.queue)
	}
	m.queue = append(m.queue, queue.Entry{})
	copy(m.queue[at+1:], m.queue[at:])
	m.queue[at] = entry
	for i := at; i < len(m.queue); i++ {
		m.queue[i].OrderIndex = i
	}
}

// Skip moves the current card to the back of the queue without
// grading it.
func (m *Machine) Skip(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StatePresenting && m.state != StateAwaitingResponse {
		return errors.NewConflictError("nothing to skip in state " + string(m.state))
	}

	entry := m.queue[m.pos]
	m.queue = append(m.queue[:m.pos], m.queue[m.pos+1:]...)
	m.queue = append(m.queue, entry)
	for i := m.pos; i < len(m.queue); i++ {
		m.queue[i].OrderIndex = i
	}
	m.current = nil
	m.state = StatePresenting
	return nil
}

// Pause freezes the session clock. Latency for the pending question
// excludes time spent paused.
func (m *Machine) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StatePresenting && m.state != StateAwaitingResponse {
		return errors.NewConflictError("cannot pause in state " + string(m.state))
	}
	m.prevState = m.state
	m.pausedAt = m.p.Clock()
	m.state = StatePaused
	return nil
}

// Resume returns a paused session to where it left off.
func (m *Machine) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StatePaused {
		return errors.NewConflictError("cannot resume in state " + string(m.state))
	}
	m.pausedTotal += m.p.Clock().Sub(m.pausedAt)
	m.state = m.prevState
	return nil
}

// Abort ends the session early. Everything graded so far stays
// recorded.
func (m *Machine) Abort() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateCompleted, StateAborted:
		return errors.NewConflictError("session already ended")
	}
	if m.state == StatePaused {
		m.pausedTotal += m.p.Clock().Sub(m.pausedAt)
	}
	m.aborted = true
	m.state = StateAborted
	m.endedAt = m.p.Clock()
	m.current = nil
	return nil
}

// Restart throws away progress and rebuilds the queue from current
// stored state. Results already written stay in the log.
func (m *Machine) Restart(ctx context.Context) error {
	m.mu.Lock()
	m.state = StateInitializing
	m.queue = nil
	m.pos = 0
	m.current = nil
	m.studied = 0
	m.correct = 0
	m.incorrect = 0
	m.gradeCounts = map[string]int{}
	m.aborted = false
	m.pausedTotal = 0
	m.endedAt = time.Time{}
	m.mu.Unlock()

	return m.Start(ctx)
}

// Remaining returns how many cards are left, counting resurfaces.
func (m *Machine) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue) - m.pos
}

// Summary reports the session's aggregate so far. It is valid in every
// state; after completion or abort the elapsed time stops advancing.
func (m *Machine) Summary() models.SessionSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	end := m.endedAt
	if end.IsZero() {
		end = m.p.Clock()
	}
	elapsed := end.Sub(m.startedAt) - m.pausedTotal
	if m.state == StatePaused {
		elapsed = m.pausedAt.Sub(m.startedAt) - m.pausedTotal
	}
	if m.startedAt.IsZero() || elapsed < 0 {
		elapsed = 0
	}

	accuracy := 0.0
	if m.studied > 0 {
		accuracy = float64(m.correct) / float64(m.studied)
	}

	counts := make(map[string]int, len(m.gradeCounts))
	for k, v := range m.gradeCounts {
		counts[k] = v
	}

	return models.SessionSummary{
		SessionID:      m.p.ID,
		DeckID:         m.p.Deck.ID,
		Mode:           m.p.Mode,
		TotalCards:     len(m.queue),
		CardsStudied:   m.studied,
		CorrectCount:   m.correct,
		IncorrectCount: m.incorrect,
		Accuracy:       accuracy,
		ElapsedSeconds: int(elapsed / time.Second),
		GradeCounts:    counts,
		Aborted:        m.aborted,
	}
}
