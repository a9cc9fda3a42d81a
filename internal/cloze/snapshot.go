package cloze

import (
	"fmt"
	"maps"
	"slices"

	"github.com/zmuhls/cloze-reader-sub000/internal/domain"
)

// Snapshot captures the current round for persistence.
func (e *Exercise) Snapshot() domain.ActiveRound {
	locked := make([]int, 0, len(e.locked))
	for idx := range e.locked {
		locked = append(locked, idx)
	}
	slices.Sort(locked)
	return domain.ActiveRound{
		RoundID:  e.roundID,
		Level:    e.level,
		Round:    e.progress.Round,
		Text:     e.passage.Text(),
		Title:    e.passage.Title,
		Author:   e.passage.Author,
		Context:  e.passage.Context,
		Blanks:   e.Blanks(),
		State:    e.state,
		Attempts: maps.Clone(e.attempts),
		Locked:   locked,
		Answers:  maps.Clone(e.answers),
	}
}

// RestoreExercise rebuilds an exercise from progress and a saved round. The
// round must belong to progress.Round.
func RestoreExercise(progress domain.Progress, r domain.ActiveRound, opts ...Option) (*Exercise, error) {
	e := NewExercise(progress, opts...)
	if r.Round != e.progress.Round {
		return nil, fmt.Errorf("%w: saved round %d does not match progress round %d",
			domain.ErrInvalidInput, r.Round, e.progress.Round)
	}
	switch r.State {
	case domain.StateAwaitingFirstSubmission, domain.StateRetrying,
		domain.StateFinalPassed, domain.StateFinalFailed:
	default:
		return nil, fmt.Errorf("%w: unknown round state %q", domain.ErrInvalidInput, r.State)
	}

	passage := domain.NewPassage(r.Text).WithSource(r.Title, r.Author)
	passage.Context = r.Context
	if err := e.BuildRound(passage, r.Blanks); err != nil {
		return nil, err
	}
	e.roundID = r.RoundID
	e.level = r.Level
	e.state = r.State
	for idx, n := range r.Attempts {
		if idx < 0 || idx >= len(e.blanks) || n < 0 {
			return nil, fmt.Errorf("%w: attempts for blank %d", domain.ErrInvalidInput, idx)
		}
		e.attempts[idx] = n
	}
	for idx, a := range r.Answers {
		if idx < 0 || idx >= len(e.blanks) {
			return nil, fmt.Errorf("%w: answer for blank %d", domain.ErrInvalidInput, idx)
		}
		e.answers[idx] = a
	}
	for _, idx := range r.Locked {
		if idx < 0 || idx >= len(e.blanks) || e.attempts[idx] == 0 {
			return nil, fmt.Errorf("%w: lock on blank %d", domain.ErrInvalidInput, idx)
		}
		e.locked[idx] = true
	}
	return e, nil
}
