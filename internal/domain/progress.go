package domain

import "time"

// Progress tracks difficulty level and round count for one player.
// Level only moves up, one step per final passed submission; Round moves up
// on every round transition.
type Progress struct {
	Level int `json:"level"`
	Round int `json:"round"`
}

// NewProgress returns the starting progress: level 1, round 1.
func NewProgress() Progress {
	return Progress{Level: 1, Round: 1}
}

// Normalize clamps persisted values that predate the invariants.
func (p Progress) Normalize() Progress {
	if p.Level < 1 {
		p.Level = 1
	}
	if p.Round < 1 {
		p.Round = 1
	}
	return p
}

// RoundRecord is the persisted summary of a finished round.
type RoundRecord struct {
	ID              string    `json:"id"`
	PlayerID        string    `json:"player_id"`
	Level           int       `json:"level"`
	Round           int       `json:"round"`
	Passed          bool      `json:"passed"`
	Forced          bool      `json:"forced"`
	Correct         int       `json:"correct"`
	Total           int       `json:"total"`
	RequiredCorrect int       `json:"required_correct"`
	Answers         []string  `json:"answers"`
	Title           string    `json:"title,omitempty"`
	Author          string    `json:"author,omitempty"`
	CompletedAt     time.Time `json:"completed_at"`
}

// ActiveRound is a snapshot of the round in play, persisted so a round
// survives a restart. A final round is kept too, so the next start knows to
// move past it.
type ActiveRound struct {
	RoundID  string         `json:"round_id"`
	Level    int            `json:"level"`
	Round    int            `json:"round"`
	Text     string         `json:"text"`
	Title    string         `json:"title,omitempty"`
	Author   string         `json:"author,omitempty"`
	Context  string         `json:"context,omitempty"`
	Blanks   []Blank        `json:"blanks"`
	State    RoundState     `json:"state"`
	Attempts map[int]int    `json:"attempts,omitempty"`
	Locked   []int          `json:"locked,omitempty"`
	Answers  map[int]string `json:"answers,omitempty"`
}
