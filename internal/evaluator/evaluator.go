package evaluator

import (
	"math/rand"

	"github.com/flashforge/flashforge/internal/errors"
	"github.com/flashforge/flashforge/internal/models"
)

// QuestionKind is the input shape a question expects back.
type QuestionKind string

const (
	KindSelfReport     QuestionKind = "self_report"
	KindTyped          QuestionKind = "typed"
	KindMultipleChoice QuestionKind = "multiple_choice"
	KindTrueFalse      QuestionKind = "true_false"
	KindMatch          QuestionKind = "match"
)

// TestChoicesCount is the option count for multiple-choice questions,
// one correct answer plus three distractors.
const TestChoicesCount = 4

// Question is one prepared card presentation. The correct answer stays in
// unexported fields so the struct can be serialized to the caller as-is.
type Question struct {
	Kind    QuestionKind `json:"kind"`
	CardID  int64        `json:"card_id"`
	Prompt  string       `json:"prompt"`
	Hint    string       `json:"hint,omitempty"`
	Choices []string     `json:"choices,omitempty"`
	Claim   string       `json:"claim,omitempty"`

	answers   []string
	answer    int
	claimTrue bool
}

// Response is a learner's raw answer. Exactly one field is set, matching
// the question kind.
type Response struct {
	SelfGrade  *models.Grade `json:"self_grade,omitempty"`
	Text       *string       `json:"text,omitempty"`
	Choice     *int          `json:"choice,omitempty"`
	Claim      *bool         `json:"claim,omitempty"`
	PairCardID *int64        `json:"pair_card_id,omitempty"`
}

// Outcome is the evaluator's verdict for one response.
type Outcome struct {
	Grade   models.Grade `json:"grade"`
	Correct bool         `json:"correct"`
}

// Evaluator turns raw responses into grades. Self-reported and computed
// grading share this one contract, keyed by question kind.
type Evaluator struct {
	choices int
}

// New creates an Evaluator.
func New() *Evaluator {
	return &Evaluator{choices: TestChoicesCount}
}

// SelfReport prepares a flashcard/learn presentation graded by the
// learner's own button press.
func (e *Evaluator) SelfReport(card models.Card, definitionFirst bool) Question {
	prompt, _ := promptAndAnswer(card, definitionFirst)
	return Question{
		Kind:   KindSelfReport,
		CardID: card.ID,
		Prompt: prompt,
		Hint:   card.Hint,
	}
}

// Typed prepares a write-mode presentation answered with typed text.
func (e *Evaluator) Typed(card models.Card, definitionFirst bool) Question {
	prompt, answer := promptAndAnswer(card, definitionFirst)
	return Question{
		Kind:    KindTyped,
		CardID:  card.ID,
		Prompt:  prompt,
		Hint:    card.Hint,
		answers: alternatives(answer),
	}
}

// MultipleChoice prepares a test-mode question with distractor
// definitions sampled from other cards in the deck. Near-duplicates of
// the correct answer are excluded so every option is distinguishable.
// Sampling is driven entirely by rng, so a seeded source reproduces the
// same question.
func (e *Evaluator) MultipleChoice(card models.Card, pool []models.Card, rng *rand.Rand) (Question, error) {
	candidates := make([]string, 0, len(pool))
	for _, other := range pool {
		if other.ID == card.ID || nearDuplicate(other.Definition, card.Definition) {
			continue
		}
		candidates = append(candidates, other.Definition)
	}
	if len(candidates) == 0 {
		return Question{}, errors.NewInsufficientCardsError(string(models.ModeTest), 2, 1)
	}

	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if len(candidates) > e.choices-1 {
		candidates = candidates[:e.choices-1]
	}

	choices := append([]string{card.Definition}, candidates...)
	answer := 0
	rng.Shuffle(len(choices), func(i, j int) {
		choices[i], choices[j] = choices[j], choices[i]
		switch answer {
		case i:
			answer = j
		case j:
			answer = i
		}
	})

	return Question{
		Kind:    KindMultipleChoice,
		CardID:  card.ID,
		Prompt:  card.Term,
		Choices: choices,
		answer:  answer,
	}, nil
}

// TrueFalse prepares a test-mode question pairing the card's term with
// either its own definition or a random other card's.
func (e *Evaluator) TrueFalse(card models.Card, pool []models.Card, rng *rand.Rand) Question {
	claim := card.Definition
	claimTrue := true

	others := make([]string, 0, len(pool))
	for _, other := range pool {
		if other.ID != card.ID && !nearDuplicate(other.Definition, card.Definition) {
			others = append(others, other.Definition)
		}
	}
	if len(others) > 0 && rng.Intn(2) == 0 {
		claim = others[rng.Intn(len(others))]
		claimTrue = false
	}

	return Question{
		Kind:      KindTrueFalse,
		CardID:    card.ID,
		Prompt:    card.Term,
		Claim:     claim,
		claimTrue: claimTrue,
	}
}

// Match prepares a match-mode presentation: the learner pairs this term
// with a definition from the board.
func (e *Evaluator) Match(card models.Card) Question {
	return Question{
		Kind:   KindMatch,
		CardID: card.ID,
		Prompt: card.Term,
	}
}

// Evaluate classifies a raw response against its question. A response
// whose shape does not match the question kind is rejected with
// InvalidResponse and changes nothing.
func (e *Evaluator) Evaluate(q Question, resp Response) (Outcome, error) {
	switch q.Kind {
	case KindSelfReport:
		if resp.SelfGrade == nil {
			return Outcome{}, errors.NewInvalidResponseError("self-report requires a grade")
		}
		grade := *resp.SelfGrade
		if !grade.Valid() {
			return Outcome{}, errors.NewInvalidGradeError(int(grade))
		}
		return Outcome{Grade: grade, Correct: grade != models.GradeFail}, nil

	case KindTyped:
		if resp.Text == nil {
			return Outcome{}, errors.NewInvalidResponseError("write mode requires typed text")
		}
		return e.evaluateTyped(q, *resp.Text), nil

	case KindMultipleChoice:
		if resp.Choice == nil {
			return Outcome{}, errors.NewInvalidResponseError("multiple choice requires a choice index")
		}
		if *resp.Choice < 0 || *resp.Choice >= len(q.Choices) {
			return Outcome{}, errors.NewInvalidResponseError("choice index out of range")
		}
		if *resp.Choice == q.answer {
			return Outcome{Grade: models.GradeGood, Correct: true}, nil
		}
		return Outcome{Grade: models.GradeFail, Correct: false}, nil

	case KindTrueFalse:
		if resp.Claim == nil {
			return Outcome{}, errors.NewInvalidResponseError("true/false requires a boolean answer")
		}
		if *resp.Claim == q.claimTrue {
			return Outcome{Grade: models.GradeGood, Correct: true}, nil
		}
		return Outcome{Grade: models.GradeFail, Correct: false}, nil

	case KindMatch:
		if resp.PairCardID == nil {
			return Outcome{}, errors.NewInvalidResponseError("match requires the paired card id")
		}
		// A term/definition pair is mutually correct when both sides
		// belong to the same card. Match mode never feeds the scheduler,
		// so the grade only drives the session tally.
		if *resp.PairCardID == q.CardID {
			return Outcome{Grade: models.GradeGood, Correct: true}, nil
		}
		return Outcome{Grade: models.GradeFail, Correct: false}, nil

	default:
		return Outcome{}, errors.NewInvalidResponseError("unknown question kind")
	}
}

// evaluateTyped scores the text against every accepted alternative and
// keeps the best result: exact match beats a one-edit typo, which beats
// a miss. Typo tolerance only applies to answers longer than 3 characters
// so short answers are not accidentally forgiven.
func (e *Evaluator) evaluateTyped(q Question, text string) Outcome {
	best := Outcome{Grade: models.GradeFail}
	for _, accepted := range q.answers {
		normalized := Normalize(accepted)
		switch {
		case Normalize(text) == normalized:
			return Outcome{Grade: models.GradeEasy, Correct: true}
		case len(normalized) > 3 && Distance(text, accepted) <= 1:
			best = Outcome{Grade: models.GradeGood, Correct: true}
		}
	}
	return best
}

func promptAndAnswer(card models.Card, definitionFirst bool) (prompt, answer string) {
	if definitionFirst {
		return card.Definition, card.Term
	}
	return card.Term, card.Definition
}
