package cloze

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/zmuhls/cloze-reader-sub000/internal/domain"
)

// fullHintLevel is the highest level that also gets the last letter.
const fullHintLevel = 2

// Hint describes a blank's answer without giving it away.
type Hint struct {
	BlankIndex  int    `json:"blank_index"`
	Length      int    `json:"length"`
	FirstLetter string `json:"first_letter"`
	LastLetter  string `json:"last_letter,omitempty"`
}

func (h Hint) String() string {
	if h.LastLetter != "" {
		return fmt.Sprintf("%d letters, starts with %q and ends with %q", h.Length, h.FirstLetter, h.LastLetter)
	}
	return fmt.Sprintf("%d letters, starts with %q", h.Length, h.FirstLetter)
}

// Hint returns a hint for blank idx. It never changes attempts, locks or
// round state, and is refused once the round is final.
func (e *Exercise) Hint(idx int) (Hint, error) {
	if len(e.blanks) == 0 {
		return Hint{}, domain.ErrNoActiveRound
	}
	if e.state.IsFinal() {
		return Hint{}, domain.ErrRoundFinal
	}
	if idx < 0 || idx >= len(e.blanks) {
		return Hint{}, fmt.Errorf("%w: %d", domain.ErrUnknownBlank, idx)
	}

	word := e.blanks[idx].OriginalWord
	first, _ := utf8.DecodeRuneInString(word)
	h := Hint{
		BlankIndex:  idx,
		Length:      utf8.RuneCountInString(word),
		FirstLetter: strings.ToLower(string(first)),
	}
	if e.progress.Level <= fullHintLevel && h.Length > 1 {
		last, _ := utf8.DecodeLastRuneInString(word)
		h.LastLetter = strings.ToLower(string(last))
	}
	return h, nil
}
