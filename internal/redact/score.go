package redact

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/zmuhls/cloze-reader-sub000/internal/domain"
)

// Scoring weights.
const (
	lengthWeight       = 2.0
	functionPenalty    = 100.0
	capitalPenalty     = 10.0
	honorificPenalty   = 50.0
	maxJitter          = 2.0
	minCleanLength     = 3
	locateSkipPrefix   = 10
	locateRelaxedStart = 5
)

// eligible reports whether a token may be scored at all. Non-Latin letters,
// em/en dashes and tokens with fewer than three letters are out.
func eligible(token string) bool {
	if strings.ContainsAny(token, "—–") {
		return false
	}
	clean := domain.CleanWord(token)
	for _, r := range clean {
		if unicode.IsLetter(r) && !unicode.Is(unicode.Latin, r) {
			return false
		}
		if unicode.IsDigit(r) {
			return false
		}
	}
	return utf8.RuneCountInString(domain.LetterCore(clean)) >= minCleanLength
}

// isSentenceStart reports whether words[i] opens a sentence. A period that
// belongs to an honorific does not end a sentence.
func isSentenceStart(words []string, i int) bool {
	if i == 0 {
		return true
	}
	prev := strings.TrimRight(words[i-1], "\"'’”)]")
	if prev == "" {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(prev)
	if last != '.' && last != '!' && last != '?' {
		return false
	}
	return !isHonorific(prev)
}

// baseScore is the deterministic part of a token's score.
func baseScore(words []string, i int) float64 {
	token := words[i]
	clean := domain.CleanWord(token)
	score := lengthWeight * float64(utf8.RuneCountInString(clean))

	if IsFunctionWord(clean) {
		score -= functionPenalty
	}

	if domain.IsCapitalized(clean) && !isSentenceStart(words, i) {
		if i > 0 && isHonorific(words[i-1]) {
			score -= honorificPenalty
		} else {
			score -= capitalPenalty
		}
	}

	return score
}
