package domain

// RoundState is where a round sits in the submission protocol.
type RoundState string

const (
	StateAwaitingFirstSubmission RoundState = "awaiting_first_submission"
	StateRetrying                RoundState = "retrying"
	StateFinalPassed             RoundState = "final_passed"
	StateFinalFailed             RoundState = "final_failed"
)

// IsFinal reports whether no further submission is accepted.
func (s RoundState) IsFinal() bool {
	return s == StateFinalPassed || s == StateFinalFailed
}

// BlankResult is the outcome for one blank within a submission.
type BlankResult struct {
	BlankIndex    int    `json:"blank_index"`
	UserAnswer    string `json:"user_answer"`
	CorrectAnswer string `json:"correct_answer,omitempty"` // empty while the blank can still be retried
	IsCorrect     bool   `json:"is_correct"`
	IsLocked      bool   `json:"is_locked"`
	AttemptNumber int    `json:"attempt_number"`
	NotAttempted  bool   `json:"not_attempted,omitempty"`
}

// SubmissionResult is derived on every submission and never stored by the
// exercise itself.
type SubmissionResult struct {
	Results            []BlankResult `json:"results"`
	Correct            int           `json:"correct"`
	Total              int           `json:"total"`
	Passed             bool          `json:"passed"`
	CanRetry           bool          `json:"can_retry"`
	IsFinal            bool          `json:"is_final"`
	RequiredCorrect    int           `json:"required_correct"`
	MaxAttemptsReached bool          `json:"max_attempts_reached"`
	Forced             bool          `json:"forced"`

	// ClearedInputs lists blank indices whose input the caller must clear
	// before the next attempt. Only set when CanRetry is true.
	ClearedInputs []int `json:"cleared_inputs,omitempty"`

	// LevelAfter is the player's level once this submission is applied.
	LevelAfter int `json:"level_after"`
}

// Err reports ErrMaxRetriesReached for a final result forced by the attempt
// ceiling. The result itself is still valid.
func (r SubmissionResult) Err() error {
	if r.IsFinal && r.MaxAttemptsReached && !r.Passed {
		return ErrMaxRetriesReached
	}
	return nil
}
