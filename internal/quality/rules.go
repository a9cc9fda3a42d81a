package quality

import (
	"regexp"
	"strings"
)

// HardRule rejects a candidate outright.
type HardRule struct {
	Name   string
	Reject func(s *Stats, t Thresholds) bool
}

// Rule adds a penalty to a candidate's score. Rules are independent and
// their penalties are summed in order.
type Rule struct {
	Name    string
	Penalty func(s *Stats, t Thresholds) float64
}

var (
	provenancePattern = regexp.MustCompile(`(?i)internet archive|page scan source|digiti[sz]ed by|https?://|www\.|\w\.(?:com|org|net|edu)\b`)

	// Case-sensitive or line-anchored title-page shapes only.
	frontMatterPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bA NOVEL\b`),
		regexp.MustCompile(`\bCopyright\s*(?:©|\([cC]\)|\d{4})|\bCOPYRIGHT\b|©|(?i:\ball rights reserved\b)`),
		regexp.MustCompile(`(?i)\bproject gutenberg\b|\btranscriber'?s note\b`),
		regexp.MustCompile(`(?m)^[ \t]*(?:Produced|Printed|Published) (?:by|for|in)\b|^[ \t]*(?:PRODUCED|PRINTED|PUBLISHED) (?:BY|FOR|IN)\b`),
		regexp.MustCompile(`(?m)^[ \t]*[A-Z][A-Za-z .,']*(?::[ \t].*)?&[ \t]*(?:CO|Co)\.[ \t]*$`),
		regexp.MustCompile(`\bPUBLISHERS?\b|\bPublishing (?:Company|House)\b|\bPRESS OF\b|\bPress of [A-Z]`),
		regexp.MustCompile(`(?m)^[ \t]*First published\b|\b(?:FIRST|SECOND|THIRD) EDITION\b|\b(?:Second|Third) Edition\b`),
	}

	formattingRunPattern = regexp.MustCompile(`[-_*=]{3,}|—{2,}`)
	structuralPattern    = regexp.MustCompile(`\b(?:CONTENTS|CHAPTER|INDEX|PREFACE|APPENDIX|ILLUSTRATIONS|Volume|VOLUME|Chapter [IVXLC\d]+|BOOK [IVXLC]+)\b`)

	abbreviationPattern = regexp.MustCompile(`(?:^|\s|\()(?:n|adj|adv|v|vb|vt|vi|pl|sing|prep|conj|interj|pron|syn|obs|cf|esp|usu|fig|dial)\.(?:\s|,|;|\)|$)`)
	etymologyPattern    = regexp.MustCompile(`\[[^\]]*(?:\bL\.|\bGr\.|\bOE\b|\bME\b|\bOF\b|\bFr\.|\bGer\.|\bAS\.|\bLat\.|\bSkt\.|\bIcel\.)[^\]]*\]`)
	citationPattern     = regexp.MustCompile(`\b(?:p|pp|vol|ch|ed|ibid|op\. cit|loc\. cit)\.\s*[\dIVXLC]+`)
	linguisticsPattern  = regexp.MustCompile(`(?i)\b(?:noun|verb|adjective|adverb|pronoun|preposition|plural|singular|etymology|synonyms?|obsolete|dialect(?:al)?|archaic|conjugation|declension|participle|transitive|intransitive)\b`)
)

// DefaultHardRules returns the reject rules in evaluation order.
func DefaultHardRules() []HardRule {
	return []HardRule{
		{
			Name: "provenance",
			Reject: func(s *Stats, _ Thresholds) bool {
				return provenancePattern.MatchString(s.Text)
			},
		},
		{
			Name: "all_caps_ratio",
			Reject: func(s *Stats, t Thresholds) bool {
				return s.wordRatio(s.AllCaps) > t.MaxAllCapsRatio
			},
		},
		{
			Name: "title_page_lines",
			Reject: func(s *Stats, _ Thresholds) bool {
				return consecutiveCapsLines(s.Lines) >= 2
			},
		},
		{
			Name: "front_matter",
			Reject: func(s *Stats, _ Thresholds) bool {
				for _, p := range frontMatterPatterns {
					if p.MatchString(s.Text) {
						return true
					}
				}
				return false
			},
		},
	}
}

// DefaultRules returns the soft scoring rules in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name: "capitalized_density",
			Penalty: func(s *Stats, t Thresholds) float64 {
				return over(s.wordRatio(s.Capitalized), t.MaxCapitalizedRatio, 1.0)
			},
		},
		{
			Name: "digit_density",
			Penalty: func(s *Stats, t Thresholds) float64 {
				return over(s.charRatio(s.Digits), t.MaxDigitRatio, 1.0)
			},
		},
		{
			Name: "punctuation_density",
			Penalty: func(s *Stats, t Thresholds) float64 {
				return over(s.charRatio(s.Punctuation), t.MaxPunctuationRatio, 0.75)
			},
		},
		{
			Name: "formatting_runs",
			Penalty: func(s *Stats, _ Thresholds) float64 {
				return capped(0.5*float64(len(formattingRunPattern.FindAllStringIndex(s.Text, -1))), 2.0)
			},
		},
		{
			Name: "bracket_density",
			Penalty: func(s *Stats, t Thresholds) float64 {
				return over(s.wordRatio(s.Brackets), t.MaxBracketRatio, 1.0)
			},
		},
		{
			Name: "sentence_length",
			Penalty: func(s *Stats, t Thresholds) float64 {
				avg := s.AvgSentenceLength()
				if avg < t.MinSentenceLength || avg > t.MaxSentenceLength {
					return 1.0
				}
				return 0
			},
		},
		{
			Name: "short_words",
			Penalty: func(s *Stats, t Thresholds) float64 {
				return over(s.wordRatio(s.ShortWords), t.MaxShortWordRatio, 0.5)
			},
		},
		{
			Name: "structural_tokens",
			Penalty: func(s *Stats, _ Thresholds) float64 {
				return capped(0.75*float64(len(structuralPattern.FindAllStringIndex(s.Text, -1))), 2.5)
			},
		},
		{
			Name: "dictionary_abbreviations",
			Penalty: func(s *Stats, _ Thresholds) float64 {
				n := len(abbreviationPattern.FindAllStringIndex(s.Text, -1))
				if n < 2 {
					return 0
				}
				return capped(1.0+0.25*float64(n-2), 2.0)
			},
		},
		{
			Name: "etymology_brackets",
			Penalty: func(s *Stats, _ Thresholds) float64 {
				return capped(float64(len(etymologyPattern.FindAllStringIndex(s.Text, -1))), 2.0)
			},
		},
		{
			Name: "citations",
			Penalty: func(s *Stats, _ Thresholds) float64 {
				return capped(0.5*float64(len(citationPattern.FindAllStringIndex(s.Text, -1))), 1.5)
			},
		},
		{
			Name: "linguistics_vocabulary",
			Penalty: func(s *Stats, _ Thresholds) float64 {
				n := len(linguisticsPattern.FindAllStringIndex(s.Text, -1))
				switch {
				case n >= 6:
					return 2.0
				case n >= 3:
					return 1.0
				default:
					return 0
				}
			},
		},
	}
}

func consecutiveCapsLines(lines []string) int {
	best, run := 0, 0
	for _, line := range lines {
		if isCapsLine(line) {
			run++
			best = max(best, run)
		} else {
			run = 0
		}
	}
	return best
}

func isCapsLine(line string) bool {
	letters := 0
	for _, r := range line {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			letters++
		}
	}
	return letters >= 2 && strings.ToUpper(line) == line
}

// over returns weight when ratio exceeds limit.
func over(ratio, limit, weight float64) float64 {
	if ratio > limit {
		return weight
	}
	return 0
}

func capped(v, limit float64) float64 {
	return min(v, limit)
}
