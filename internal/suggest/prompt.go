package suggest

import (
	"fmt"
	"strings"

	"github.com/zmuhls/cloze-reader-sub000/internal/llm"
)

// Prompter builds oracle prompts.
type Prompter struct {
	// MaxPassageChars truncates very long passages before they are sent.
	MaxPassageChars int
}

// NewPrompter creates a prompter with the default passage limit.
func NewPrompter() *Prompter {
	return &Prompter{MaxPassageChars: 4000}
}

// SystemPrompt returns the instructions for the suggestion oracle.
func (p *Prompter) SystemPrompt(level int) string {
	lo, hi := lengthBand(level)
	return fmt.Sprintf(`You choose words to remove from a literary passage for a reading exercise.
Pick words a careful reader could restore from context: nouns, verbs, adjectives.
Never pick names, proper nouns, articles, pronouns or words from the first sentence.
Each word must be %d to %d letters long and appear in the passage exactly as written.
Answer with a JSON array of lowercase strings and nothing else.`, lo, hi)
}

// BuildPrompt constructs the user prompt for a passage.
func (p *Prompter) BuildPrompt(passage string, count, level int) string {
	var sb strings.Builder

	noun := "words"
	if count == 1 {
		noun = "word"
	}
	sb.WriteString(fmt.Sprintf("Select %d %s to remove for a level %d reader.\n\n", count, noun, level))
	sb.WriteString("Passage:\n")
	sb.WriteString(p.truncate(strings.TrimSpace(passage)))
	sb.WriteString("\n\nRespond with a JSON array, for example [\"lantern\"].")

	return sb.String()
}

// Request assembles the completion request sent to the provider.
func (p *Prompter) Request(passage string, count, level int) *llm.Request {
	req := llm.UserPrompt(p.SystemPrompt(level), p.BuildPrompt(passage, count, level))
	req.MaxTokens = 100
	req.Temperature = 0.3
	return req
}

func (p *Prompter) truncate(s string) string {
	if p.MaxPassageChars <= 0 || len(s) <= p.MaxPassageChars {
		return s
	}
	return s[:p.MaxPassageChars] + "..."
}
