package quality

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/zmuhls/cloze-reader-sub000/internal/domain"
)

var sentenceEnd = regexp.MustCompile(`[.!?]+["'’”)\]]*(?:\s|$)`)

// Stats holds the counts every rule reads from. It is computed once per
// candidate window.
type Stats struct {
	Text  string
	Words []string
	Lines []string // non-empty, trimmed

	Chars       int // non-space runes
	Letters     int
	Digits      int
	Punctuation int
	Brackets    int

	Sentences   int
	Capitalized int // capitalized words that do not open a sentence
	AllCaps     int // words of two or more letters, all upper case
	ShortWords  int // words of three letters or fewer
}

// NewStats computes Stats for text.
func NewStats(text string) *Stats {
	s := &Stats{
		Text:  text,
		Words: strings.Fields(text),
	}

	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			s.Lines = append(s.Lines, line)
		}
	}

	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			continue
		case unicode.IsLetter(r):
			s.Letters++
		case unicode.IsDigit(r):
			s.Digits++
		case strings.ContainsRune("()[]{}", r):
			s.Brackets++
			s.Punctuation++
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			s.Punctuation++
		}
		s.Chars++
	}

	s.Sentences = len(sentenceEnd.FindAllStringIndex(text, -1))
	if s.Sentences == 0 && len(s.Words) > 0 {
		s.Sentences = 1
	}

	for i, w := range s.Words {
		core := domain.LetterCore(w)
		n := utf8.RuneCountInString(core)
		if n > 0 && n <= 3 {
			s.ShortWords++
		}
		if n >= 2 && strings.ToUpper(core) == core {
			s.AllCaps++
			continue
		}
		if domain.IsCapitalized(w) && core != "I" && !opensSentence(s.Words, i) {
			s.Capitalized++
		}
	}

	return s
}

func opensSentence(words []string, i int) bool {
	if i == 0 {
		return true
	}
	prev := strings.TrimRight(words[i-1], "\"'’”)]")
	if prev == "" {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(prev)
	return last == '.' || last == '!' || last == '?'
}

func (s *Stats) wordRatio(n int) float64 {
	if len(s.Words) == 0 {
		return 0
	}
	return float64(n) / float64(len(s.Words))
}

func (s *Stats) charRatio(n int) float64 {
	if s.Chars == 0 {
		return 0
	}
	return float64(n) / float64(s.Chars)
}

// AvgSentenceLength is the mean number of words per sentence.
func (s *Stats) AvgSentenceLength() float64 {
	if s.Sentences == 0 {
		return 0
	}
	return float64(len(s.Words)) / float64(s.Sentences)
}
