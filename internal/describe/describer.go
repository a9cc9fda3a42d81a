// Package describe produces the one-line context shown above a passage.
package describe

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/zmuhls/cloze-reader-sub000/internal/llm"
)

const (
	defaultTimeout = 10 * time.Second
	maxExcerpt     = 1200
	maxContextLen  = 280
)

// Fallback is the deterministic description used when the oracle fails.
func Fallback(title, author string) string {
	return fmt.Sprintf("A passage from %s's '%s'", author, title)
}

// Describer asks an llm.Provider for a short passage context.
type Describer struct {
	provider llm.Provider
	timeout  time.Duration
	logger   *slog.Logger
}

// NewDescriber creates a describer. A nil provider always yields Fallback.
func NewDescriber(provider llm.Provider, logger *slog.Logger) *Describer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Describer{
		provider: provider,
		timeout:  defaultTimeout,
		logger:   logger,
	}
}

// DescribePassage never fails: any oracle error or unusable answer produces
// the fallback string.
func (d *Describer) DescribePassage(ctx context.Context, title, author, text string) string {
	if d.provider == nil {
		return Fallback(title, author)
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	resp, err := d.provider.Generate(ctx, d.request(title, author, text))
	if err != nil {
		d.logger.Debug("passage description failed", "error", err, "title", title)
		return Fallback(title, author)
	}

	desc := clean(resp.Content)
	if desc == "" {
		return Fallback(title, author)
	}
	return desc
}

func (d *Describer) request(title, author, text string) *llm.Request {
	excerpt := text
	if len(excerpt) > maxExcerpt {
		excerpt = excerpt[:maxExcerpt]
	}

	prompt := fmt.Sprintf(`Book: %q by %s.
Excerpt:
%s

In one sentence, tell a reader what this book is and where the excerpt sits in it. Do not quote the excerpt.`, title, author, excerpt)

	req := llm.UserPrompt("You write one-sentence literary context notes. Plain text only.", prompt)
	req.MaxTokens = 80
	req.Temperature = 0.5
	return req
}

// clean keeps the first line, strips wrapping quotes and bounds the length.
func clean(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.Trim(strings.TrimSpace(s), `"“”`)
	if len(s) > maxContextLen {
		s = strings.TrimSpace(s[:maxContextLen]) + "..."
	}
	return s
}
