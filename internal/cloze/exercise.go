// Package cloze holds the round state machine: blanks, per-blank attempts,
// locking and level progression.
package cloze

import (
	"fmt"
	"maps"
	"strings"

	"github.com/google/uuid"

	"github.com/zmuhls/cloze-reader-sub000/internal/domain"
)

// Exercise owns one player's current round. It is not safe for concurrent
// use; callers serialize submissions.
type Exercise struct {
	progress    domain.Progress
	maxAttempts int

	roundID string
	level   int
	passage domain.Passage
	blanks  []domain.Blank
	state   domain.RoundState

	attempts map[int]int
	locked   map[int]bool
	answers  map[int]string
}

// Option configures an Exercise.
type Option func(*Exercise)

// WithMaxAttempts overrides DefaultMaxAttempts.
func WithMaxAttempts(n int) Option {
	return func(e *Exercise) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// NewExercise creates an exercise resuming from progress.
func NewExercise(progress domain.Progress, opts ...Option) *Exercise {
	e := &Exercise{
		progress:    progress.Normalize(),
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.reset()
	return e
}

func (e *Exercise) reset() {
	e.roundID = ""
	e.level = 0
	e.passage = domain.Passage{}
	e.blanks = nil
	e.state = domain.StateAwaitingFirstSubmission
	e.attempts = make(map[int]int)
	e.locked = make(map[int]bool)
	e.answers = make(map[int]string)
}

// BuildRound starts a round on passage with blanks. Attempt counts and
// locks are reset.
func (e *Exercise) BuildRound(passage domain.Passage, blanks []domain.Blank) error {
	if len(blanks) == 0 {
		return fmt.Errorf("%w: round needs at least one blank", domain.ErrInvalidInput)
	}
	for i, b := range blanks {
		if b.Index != i {
			return fmt.Errorf("%w: blank %d has index %d", domain.ErrInvalidInput, i, b.Index)
		}
		if b.WordIndex < 0 || b.WordIndex >= passage.WordCount() {
			return fmt.Errorf("%w: blank %d word index %d out of range", domain.ErrInvalidInput, i, b.WordIndex)
		}
		if b.OriginalWord == "" {
			return fmt.Errorf("%w: blank %d has no answer", domain.ErrInvalidInput, i)
		}
	}

	e.reset()
	e.roundID = uuid.New().String()
	e.level = e.progress.Level
	e.passage = passage
	e.blanks = append([]domain.Blank(nil), blanks...)
	return nil
}

// Submit evaluates answers keyed by blank index. Locked blanks count as
// correct without consuming an attempt. With forceComplete the result is
// final regardless of score.
func (e *Exercise) Submit(answers map[int]string, forceComplete bool) (domain.SubmissionResult, error) {
	if len(e.blanks) == 0 {
		return domain.SubmissionResult{}, domain.ErrNoActiveRound
	}
	if e.state.IsFinal() {
		return domain.SubmissionResult{}, domain.ErrRoundFinal
	}
	for idx := range answers {
		if idx < 0 || idx >= len(e.blanks) {
			return domain.SubmissionResult{}, fmt.Errorf("%w: %d", domain.ErrUnknownBlank, idx)
		}
	}

	results := make([]domain.BlankResult, len(e.blanks))
	correct := 0
	for _, b := range e.blanks {
		answer := strings.TrimSpace(answers[b.Index])
		r := domain.BlankResult{
			BlankIndex: b.Index,
			UserAnswer: answer,
		}

		switch {
		case e.locked[b.Index]:
			r.UserAnswer = e.answers[b.Index]
			r.IsCorrect = true
			r.IsLocked = true
			correct++

		case forceComplete && answer == "" && e.attempts[b.Index] == 0:
			r.NotAttempted = true

		default:
			e.attempts[b.Index]++
			e.answers[b.Index] = answer
			if strings.EqualFold(answer, b.OriginalWord) {
				e.lock(b.Index)
				r.IsCorrect = true
				r.IsLocked = true
				correct++
			}
		}

		r.AttemptNumber = e.attempts[b.Index]
		results[b.Index] = r
	}

	total := len(e.blanks)
	required := RequiredCorrect(total)
	allCorrect := correct == total
	maxReached := e.maxAttemptsReached()

	canRetry := !allCorrect && !forceComplete && !maxReached
	isFinal := !canRetry
	passed := allCorrect || (isFinal && correct >= required)

	res := domain.SubmissionResult{
		Results:            results,
		Correct:            correct,
		Total:              total,
		Passed:             passed,
		CanRetry:           canRetry,
		IsFinal:            isFinal,
		RequiredCorrect:    required,
		MaxAttemptsReached: maxReached,
		Forced:             forceComplete,
	}

	for i := range res.Results {
		r := &res.Results[i]
		if isFinal || r.IsCorrect {
			r.CorrectAnswer = e.blanks[i].OriginalWord
		}
		if canRetry && !r.IsLocked {
			res.ClearedInputs = append(res.ClearedInputs, r.BlankIndex)
		}
	}

	switch {
	case isFinal && passed:
		e.state = domain.StateFinalPassed
		e.progress.Level++
	case isFinal:
		e.state = domain.StateFinalFailed
	default:
		e.state = domain.StateRetrying
	}
	res.LevelAfter = e.progress.Level

	return res, nil
}

// ForceComplete ends the round with answers, revealing every blank. When
// answers is nil the last submitted answers are used.
func (e *Exercise) ForceComplete(answers map[int]string) (domain.SubmissionResult, error) {
	if answers == nil {
		answers = make(map[int]string, len(e.answers))
		for idx, a := range e.answers {
			if !e.locked[idx] {
				answers[idx] = a
			}
		}
	}
	return e.Submit(answers, true)
}

// NextRound advances the round counter and clears all per-round state. The
// level is left alone.
func (e *Exercise) NextRound() domain.Progress {
	e.progress.Round++
	e.reset()
	return e.progress
}

// lock marks a blank permanently correct. Locking twice or locking a blank
// that was never attempted is a programming error.
func (e *Exercise) lock(idx int) {
	if e.locked[idx] {
		panic(fmt.Sprintf("cloze: blank %d locked twice", idx))
	}
	if e.attempts[idx] == 0 {
		panic(fmt.Sprintf("cloze: blank %d locked without an attempt", idx))
	}
	e.locked[idx] = true
}

func (e *Exercise) maxAttemptsReached() bool {
	for _, n := range e.attempts {
		if n >= e.maxAttempts {
			return true
		}
	}
	return false
}

// Progress returns the current level and round.
func (e *Exercise) Progress() domain.Progress {
	return e.progress
}

// State returns the current round state.
func (e *Exercise) State() domain.RoundState {
	return e.state
}

// RoundID identifies the current round; empty when no round is active.
func (e *Exercise) RoundID() string {
	return e.roundID
}

// RoundLevel is the level the current round was built at. A passed round
// has already raised Progress().Level past it.
func (e *Exercise) RoundLevel() int {
	return e.level
}

// Active reports whether a round has been built.
func (e *Exercise) Active() bool {
	return len(e.blanks) > 0
}

// Passage returns the current passage.
func (e *Exercise) Passage() domain.Passage {
	return e.passage
}

// Blanks returns a copy of the current blanks.
func (e *Exercise) Blanks() []domain.Blank {
	return append([]domain.Blank(nil), e.blanks...)
}

// Attempts returns a copy of the per-blank attempt counts.
func (e *Exercise) Attempts() map[int]int {
	return maps.Clone(e.attempts)
}

// Locked reports whether blank idx is locked.
func (e *Exercise) Locked(idx int) bool {
	return e.locked[idx]
}

// MaxAttempts returns the per-blank attempt ceiling.
func (e *Exercise) MaxAttempts() int {
	return e.maxAttempts
}
