// Package suggest asks an external oracle which passage words to redact and
// checks its free-form answer against the passage.
package suggest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/zmuhls/cloze-reader-sub000/internal/domain"
	"github.com/zmuhls/cloze-reader-sub000/internal/llm"
)

// DefaultTimeout bounds a single oracle call, retries included.
const DefaultTimeout = 15 * time.Second

// Kind tags the outcome of a suggestion call.
type Kind string

const (
	KindOK                Kind = "ok"
	KindOracleError       Kind = "oracle_error"
	KindParseFailure      Kind = "parse_failure"
	KindValidationFailure Kind = "validation_failure"
)

// Result is the tagged outcome of one oracle call.
type Result struct {
	Kind     Kind
	Words    []string
	Method   string // parse strategy that produced the candidates
	Reason   string
	Rejected []Rejection

	cause error
}

// Err returns nil for KindOK and an error wrapping
// domain.ErrSuggestionOracleFailure otherwise.
func (r Result) Err() error {
	if r.Kind == KindOK {
		return nil
	}
	if r.cause != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrSuggestionOracleFailure, r.Kind, r.cause)
	}
	return fmt.Errorf("%w: %s: %s", domain.ErrSuggestionOracleFailure, r.Kind, r.Reason)
}

// Evaluate parses and validates a raw oracle response. It never returns an
// OK result with zero words.
func Evaluate(raw, passage string, count, level int) Result {
	candidates, method, ok := Parse(raw)
	if !ok {
		return Result{Kind: KindParseFailure, Reason: "no tokens in response"}
	}

	words, rejected := Validate(candidates, NewWordMap(strings.Fields(passage)), count, level)
	if len(words) == 0 {
		return Result{
			Kind:     KindValidationFailure,
			Method:   method,
			Reason:   fmt.Sprintf("all %d candidates rejected", len(candidates)),
			Rejected: rejected,
		}
	}

	return Result{Kind: KindOK, Words: words, Method: method, Rejected: rejected}
}

// Adapter wraps an llm.Provider as the word suggestion oracle.
type Adapter struct {
	provider llm.Provider
	prompter *Prompter
	timeout  time.Duration
	logger   *slog.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithLogger sets the adapter's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) { a.logger = logger }
}

// NewAdapter creates an adapter over provider.
func NewAdapter(provider llm.Provider, opts ...Option) *Adapter {
	a := &Adapter{
		provider: provider,
		prompter: NewPrompter(),
		timeout:  DefaultTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Suggest calls the oracle and returns its tagged outcome.
func (a *Adapter) Suggest(ctx context.Context, passage string, count, level int) Result {
	if count <= 0 {
		return Result{Kind: KindValidationFailure, Reason: "count must be positive"}
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	resp, err := a.provider.Generate(ctx, a.prompter.Request(passage, count, level))
	if err != nil {
		return Result{Kind: KindOracleError, Reason: err.Error(), cause: err}
	}

	result := Evaluate(resp.Content, passage, count, level)
	a.logger.Debug("word suggestion",
		"provider", a.provider.Name(),
		"kind", result.Kind,
		"method", result.Method,
		"words", result.Words,
		"rejected", len(result.Rejected),
		"duration", time.Since(start))

	return result
}

// SelectSignificantWords returns validated lower-case words to redact. Any
// failure wraps domain.ErrSuggestionOracleFailure; an empty success is never
// returned.
func (a *Adapter) SelectSignificantWords(ctx context.Context, passage string, count, level int) ([]string, error) {
	result := a.Suggest(ctx, passage, count, level)
	if err := result.Err(); err != nil {
		return nil, err
	}
	return result.Words, nil
}

// Oracle is implemented by Adapter and by test fakes.
type Oracle interface {
	SelectSignificantWords(ctx context.Context, passage string, count, level int) ([]string, error)
}

var _ Oracle = (*Adapter)(nil)
