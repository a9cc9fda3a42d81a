package domain

import (
	"strings"
	"unicode"
)

// Passage is the text a round is built from. It is created once per round
// and never edited; a new round gets a new Passage.
type Passage struct {
	text  string
	words []string

	Title   string
	Author  string
	Context string
}

// NewPassage tokenizes text on whitespace. Punctuation stays attached to
// each token.
func NewPassage(text string) Passage {
	return Passage{
		text:  text,
		words: strings.Fields(text),
	}
}

// WithSource returns a copy of p carrying title and author metadata.
func (p Passage) WithSource(title, author string) Passage {
	p.Title = title
	p.Author = author
	return p
}

func (p Passage) Text() string {
	return p.text
}

// Words returns a copy of the token list.
func (p Passage) Words() []string {
	out := make([]string, len(p.words))
	copy(out, p.words)
	return out
}

func (p Passage) WordCount() int {
	return len(p.words)
}

// Word returns the token at i, or "" when i is out of range.
func (p Passage) Word(i int) string {
	if i < 0 || i >= len(p.words) {
		return ""
	}
	return p.words[i]
}

func (p Passage) IsZero() bool {
	return p.text == "" && len(p.words) == 0
}

// CleanWord trims leading and trailing punctuation from a token, keeping
// inner apostrophes and hyphens ("don't", "well-known").
func CleanWord(token string) string {
	return strings.TrimFunc(token, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// LetterCore keeps only the letters of a token.
func LetterCore(token string) string {
	var b strings.Builder
	for _, r := range token {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsCapitalized reports whether the first letter of token is upper case.
func IsCapitalized(token string) bool {
	for _, r := range token {
		if unicode.IsLetter(r) {
			return unicode.IsUpper(r)
		}
	}
	return false
}
