package cloze

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/zmuhls/cloze-reader-sub000/internal/domain"
)

// View is a read-only snapshot of the current round, safe to hand to a
// presentation layer. Answers appear only for locked blanks or once the
// round is final.
type View struct {
	RoundID     string            `json:"round_id"`
	Level       int               `json:"level"`
	Round       int               `json:"round"`
	State       domain.RoundState `json:"state"`
	Title       string            `json:"title,omitempty"`
	Author      string            `json:"author,omitempty"`
	Context     string            `json:"context,omitempty"`
	Text        string            `json:"text"`
	Blanks      []BlankView       `json:"blanks"`
	MaxAttempts int               `json:"max_attempts"`
	Required    int               `json:"required_correct"`
}

// BlankView is one blank as shown to the player.
type BlankView struct {
	Index    int    `json:"index"`
	Attempts int    `json:"attempts"`
	Locked   bool   `json:"locked"`
	Answer   string `json:"answer,omitempty"`
}

// Placeholder renders the gap for blank n.
func Placeholder(b domain.Blank) string {
	return fmt.Sprintf("[%d]____", b.Index+1)
}

// MaskedText returns the passage with every unlocked blank replaced by its
// placeholder. Punctuation attached to a blanked token is kept.
func (e *Exercise) MaskedText() string {
	if e.passage.IsZero() {
		return ""
	}

	reveal := e.state.IsFinal()
	byWord := make(map[int]domain.Blank, len(e.blanks))
	for _, b := range e.blanks {
		byWord[b.WordIndex] = b
	}

	words := e.passage.Words()
	for i, w := range words {
		b, ok := byWord[i]
		if !ok {
			continue
		}
		gap := Placeholder(b)
		if reveal || e.locked[b.Index] {
			gap = b.OriginalWord
		}
		words[i] = replaceCore(w, gap)
	}
	return strings.Join(words, " ")
}

// replaceCore swaps the letter/digit core of token for repl, keeping
// surrounding punctuation.
func replaceCore(token, repl string) string {
	isCore := func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }
	start := strings.IndexFunc(token, isCore)
	if start < 0 {
		return repl
	}
	end := strings.LastIndexFunc(token, isCore)
	_, size := utf8.DecodeRuneInString(token[end:])
	return token[:start] + repl + token[end+size:]
}

// View returns a snapshot of the current round.
func (e *Exercise) View() View {
	reveal := e.state.IsFinal()
	v := View{
		RoundID:     e.roundID,
		Level:       e.progress.Level,
		Round:       e.progress.Round,
		State:       e.state,
		Title:       e.passage.Title,
		Author:      e.passage.Author,
		Context:     e.passage.Context,
		Text:        e.MaskedText(),
		MaxAttempts: e.maxAttempts,
		Required:    RequiredCorrect(len(e.blanks)),
	}
	for _, b := range e.blanks {
		bv := BlankView{
			Index:    b.Index,
			Attempts: e.attempts[b.Index],
			Locked:   e.locked[b.Index],
		}
		if reveal || bv.Locked {
			bv.Answer = b.OriginalWord
		}
		v.Blanks = append(v.Blanks, bv)
	}
	return v
}
