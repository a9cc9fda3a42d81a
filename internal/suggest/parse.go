package suggest

import (
	"encoding/json"
	"regexp"
	"strings"
)

// strategy turns a raw oracle response into candidate tokens. ok is true
// only when at least one token was extracted.
type strategy struct {
	name  string
	parse func(raw string) (tokens []string, ok bool)
}

var (
	bracketSpan    = regexp.MustCompile(`\[[^\[\]]*\]`)
	quotedToken    = regexp.MustCompile(`"([^"\n]+)"`)
	reasoningStart = regexp.MustCompile(`(?i)\blet's\b|\bpick`)
	pickedToken    = regexp.MustCompile(`(?i)\bpick(?:ed|ing|s)?(?:\s+(?:the|a|an|word|words|is|as|out))*[\s:]+["'“‘]?([A-Za-z]+(?:['’-][A-Za-z]+)*)`)
)

// strategies are tried in order; the first that yields tokens wins.
var strategies = []strategy{
	{name: "strict_json", parse: parseStrictJSON},
	{name: "embedded_json", parse: parseEmbeddedJSON},
	{name: "quoted", parse: parseQuoted},
	{name: "reasoning", parse: parseReasoning},
	{name: "comma", parse: parseComma},
	{name: "single", parse: parseSingle},
}

// Parse extracts candidate tokens from raw and names the strategy that
// produced them.
func Parse(raw string) ([]string, string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, "", false
	}
	for _, s := range strategies {
		if tokens, ok := s.parse(raw); ok {
			return tokens, s.name, true
		}
	}
	return nil, "", false
}

func parseStrictJSON(raw string) ([]string, bool) {
	return decodeArray(stripCodeFence(raw))
}

func parseEmbeddedJSON(raw string) ([]string, bool) {
	span := bracketSpan.FindString(raw)
	if span == "" {
		return nil, false
	}
	return decodeArray(span)
}

func parseQuoted(raw string) ([]string, bool) {
	var tokens []string
	for _, m := range quotedToken.FindAllStringSubmatch(raw, -1) {
		if t := strings.TrimSpace(m[1]); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens, len(tokens) > 0
}

func parseReasoning(raw string) ([]string, bool) {
	if !reasoningStart.MatchString(raw) {
		return nil, false
	}
	m := pickedToken.FindStringSubmatch(raw)
	if m == nil {
		return nil, false
	}
	return []string{m[1]}, true
}

func parseComma(raw string) ([]string, bool) {
	if !strings.Contains(raw, ",") {
		return nil, false
	}
	var tokens []string
	for _, part := range strings.Split(raw, ",") {
		if t := trimToken(part); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens, len(tokens) > 0
}

func parseSingle(raw string) ([]string, bool) {
	t := trimToken(raw)
	if t == "" {
		return nil, false
	}
	return []string{t}, true
}

// decodeArray accepts a JSON array and keeps its string elements.
func decodeArray(s string) ([]string, bool) {
	var items []any
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil, false
	}
	var tokens []string
	for _, item := range items {
		if str, ok := item.(string); ok {
			if str = strings.TrimSpace(str); str != "" {
				tokens = append(tokens, str)
			}
		}
	}
	return tokens, len(tokens) > 0
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func trimToken(s string) string {
	return strings.Trim(strings.TrimSpace(s), "[]\"'“”‘’.`")
}
