package suggest

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/zmuhls/cloze-reader-sub000/internal/domain"
)

const (
	// leadingTokens at the start of a passage are never suggested.
	leadingTokens = 10

	minWordLength     = 4
	maxWordLengthEasy = 12
	maxWordLengthHard = 14
	easyLevelCeiling  = 4
)

var functionCompound = regexp.MustCompile(`^(?:from|to|and)(?:the|a)$`)

// lengthBand returns the inclusive letter-count bounds for a level.
func lengthBand(level int) (int, int) {
	if level <= easyLevelCeiling {
		return minWordLength, maxWordLengthEasy
	}
	return minWordLength, maxWordLengthHard
}

// WordMap maps the lower-case letter core of each eligible passage token to
// its lower-case cleaned form ("wellknown" to "well-known"). It skips the
// first tokens of the passage and every capitalized token.
type WordMap map[string]string

// NewWordMap builds the word map for a tokenized passage. The first
// occurrence of a core wins.
func NewWordMap(words []string) WordMap {
	m := make(WordMap)
	for i, w := range words {
		if i < leadingTokens || domain.IsCapitalized(w) {
			continue
		}
		core := strings.ToLower(domain.LetterCore(w))
		if _, ok := m[core]; core == "" || ok {
			continue
		}
		m[core] = strings.ToLower(domain.CleanWord(w))
	}
	return m
}

// Contains reports whether core is in the map.
func (m WordMap) Contains(core string) bool {
	_, ok := m[core]
	return ok
}

// Rejection records why a candidate was dropped.
type Rejection struct {
	Token  string
	Reason string
}

// Validate filters candidates against the passage and level. Candidates are
// matched on their letter core; accepted words come back in the passage's
// cleaned spelling, deduplicated and capped to count.
func Validate(candidates []string, wordMap WordMap, count, level int) ([]string, []Rejection) {
	lo, hi := lengthBand(level)
	seen := make(map[string]bool)

	var (
		accepted []string
		rejected []Rejection
	)
	for _, c := range candidates {
		if len(accepted) >= count {
			break
		}

		reason := ""
		core := strings.ToLower(domain.LetterCore(c))
		n := utf8.RuneCountInString(core)

		switch {
		case !strings.ContainsFunc(c, unicode.IsLetter):
			reason = "no letters"
		case core == "":
			reason = "empty core"
		case functionCompound.MatchString(core):
			reason = "function compound"
		case !wordMap.Contains(core):
			reason = "not in passage"
		case n < lo || n > hi:
			reason = "length out of band"
		case seen[core]:
			reason = "duplicate"
		}

		if reason != "" {
			rejected = append(rejected, Rejection{Token: c, Reason: reason})
			continue
		}
		seen[core] = true
		accepted = append(accepted, wordMap[core])
	}

	return accepted, rejected
}
