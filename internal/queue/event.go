package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/zmuhls/cloze-reader-sub000/internal/domain"
)

// RoundEvent is published once per finished round.
type RoundEvent struct {
	ID              uuid.UUID `json:"id"`
	PlayerID        string    `json:"player_id"`
	RoundID         string    `json:"round_id"`
	Level           int       `json:"level"`
	LevelAfter      int       `json:"level_after"`
	Round           int       `json:"round"`
	Passed          bool      `json:"passed"`
	Forced          bool      `json:"forced"`
	Correct         int       `json:"correct"`
	Total           int       `json:"total"`
	RequiredCorrect int       `json:"required_correct"`
	Title           string    `json:"title,omitempty"`
	Author          string    `json:"author,omitempty"`
	CompletedAt     time.Time `json:"completed_at"`
}

// NewRoundEvent builds the event for a persisted round record.
func NewRoundEvent(r domain.RoundRecord, levelAfter int) *RoundEvent {
	return &RoundEvent{
		ID:              uuid.New(),
		PlayerID:        r.PlayerID,
		RoundID:         r.ID,
		Level:           r.Level,
		LevelAfter:      levelAfter,
		Round:           r.Round,
		Passed:          r.Passed,
		Forced:          r.Forced,
		Correct:         r.Correct,
		Total:           r.Total,
		RequiredCorrect: r.RequiredCorrect,
		Title:           r.Title,
		Author:          r.Author,
		CompletedAt:     r.CompletedAt,
	}
}

// LeveledUp reports whether the round advanced the player's level.
func (e RoundEvent) LeveledUp() bool {
	return e.LevelAfter > e.Level
}
