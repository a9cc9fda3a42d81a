package domain

import "errors"

// -----------------------------------------------------------------------------
// Domain Errors
// These errors describe how a round can fail. Only ErrNoRedactableWords is
// meant to reach the player; the rest are recovered inside the pipeline.
// -----------------------------------------------------------------------------

// Passage errors
var (
	// ErrPassageQualityExhausted means no window met the quality ceiling within
	// the sampling budget. The pipeline proceeds with the last candidate.
	ErrPassageQualityExhausted = errors.New("passage quality exhausted")
	ErrEmptySource             = errors.New("source text is empty")
)

// Redaction errors
var (
	// ErrSuggestionOracleFailure covers network, parse and validation failures
	// of the word-suggestion oracle. Always recovered by the local selector.
	ErrSuggestionOracleFailure = errors.New("suggestion oracle failure")

	// ErrNoRedactableWords is fatal for the round.
	ErrNoRedactableWords = errors.New("no redactable words in passage")
)

// Submission errors
var (
	ErrMaxRetriesReached = errors.New("max retries reached")
	ErrNoActiveRound     = errors.New("no active round")
	ErrRoundFinal        = errors.New("round already final")
	ErrUnknownBlank      = errors.New("unknown blank")
)

// General errors
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)
