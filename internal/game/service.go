// Package game runs cloze rounds for one player: it builds rounds from
// source texts, forwards submissions to the exercise and records finished
// rounds.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/zmuhls/cloze-reader-sub000/internal/cloze"
	"github.com/zmuhls/cloze-reader-sub000/internal/domain"
	"github.com/zmuhls/cloze-reader-sub000/internal/progress"
	"github.com/zmuhls/cloze-reader-sub000/internal/quality"
	"github.com/zmuhls/cloze-reader-sub000/internal/queue"
	"github.com/zmuhls/cloze-reader-sub000/internal/redact"
	"github.com/zmuhls/cloze-reader-sub000/internal/source"
	"github.com/zmuhls/cloze-reader-sub000/internal/suggest"
)

// DefaultPlayerID is used when Config.PlayerID is empty.
const DefaultPlayerID = "default"

// Describer produces the context line shown above a passage.
type Describer interface {
	DescribePassage(ctx context.Context, title, author, text string) string
}

// EventPublisher receives one event per finished round.
type EventPublisher interface {
	PublishRound(ctx context.Context, event *queue.RoundEvent) error
}

// Config holds per-service settings.
type Config struct {
	PlayerID    string
	MaxAttempts int
}

// Service serializes every operation on the player's exercise, so it can be
// shared by concurrent callers such as MCP tool handlers.
type Service struct {
	mu sync.Mutex

	cfg      Config
	fetcher  source.Fetcher
	store    progress.Store
	filter   *quality.Filter
	selector *redact.Selector
	logger   *slog.Logger
	now      func() time.Time

	// Optional collaborators.
	oracle    suggest.Oracle
	describer Describer
	events    EventPublisher

	exercise *cloze.Exercise
}

// NewService creates a service. filter and selector may be nil to use
// their defaults.
func NewService(cfg Config, fetcher source.Fetcher, store progress.Store, filter *quality.Filter, selector *redact.Selector) *Service {
	if cfg.PlayerID == "" {
		cfg.PlayerID = DefaultPlayerID
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = cloze.DefaultMaxAttempts
	}
	if filter == nil {
		filter = quality.NewFilter(quality.DefaultConfig())
	}
	if selector == nil {
		selector = redact.NewSelector()
	}
	return &Service{
		cfg:      cfg,
		fetcher:  fetcher,
		store:    store,
		filter:   filter,
		selector: selector,
		logger:   slog.Default(),
		now:      time.Now,
	}
}

// SetOracle sets the word suggestion oracle. Without one every round uses
// local selection.
func (s *Service) SetOracle(o suggest.Oracle) {
	s.oracle = o
}

// SetDescriber sets the passage contextualization oracle.
func (s *Service) SetDescriber(d Describer) {
	s.describer = d
}

// SetEventPublisher enables round-completed events.
func (s *Service) SetEventPublisher(p EventPublisher) {
	s.events = p
}

// SetLogger replaces the default logger.
func (s *Service) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

// load restores the player's progress and saved round on first use. A saved
// round that cannot be restored is dropped.
func (s *Service) load(ctx context.Context) error {
	if s.exercise != nil {
		return nil
	}
	p, err := progress.LoadOrNew(ctx, s.store, s.cfg.PlayerID)
	if err != nil {
		return fmt.Errorf("load progress: %w", err)
	}
	opt := cloze.WithMaxAttempts(s.cfg.MaxAttempts)

	saved, err := s.store.LoadActiveRound(ctx, s.cfg.PlayerID)
	switch {
	case errors.Is(err, progress.ErrNotFound):
	case err != nil:
		s.logger.Warn("failed to load saved round", "player_id", s.cfg.PlayerID, "error", err)
	default:
		e, err := cloze.RestoreExercise(p, saved, opt)
		if err == nil {
			s.exercise = e
			s.logger.Debug("round restored", "round_id", e.RoundID(), "state", e.State())
			return nil
		}
		s.logger.Warn("discarding saved round", "round_id", saved.RoundID, "error", err)
	}

	s.exercise = cloze.NewExercise(p, opt)
	return nil
}

// Start returns the round in progress, or builds a new one. A finished
// round is advanced past first.
func (s *Service) Start(ctx context.Context) (cloze.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(ctx); err != nil {
		return cloze.View{}, err
	}
	if s.exercise.Active() && !s.exercise.State().IsFinal() {
		return s.exercise.View(), nil
	}
	if s.exercise.Active() {
		s.advance(ctx)
	}

	round, err := s.BuildRound(ctx, s.exercise.Progress().Level)
	if err != nil {
		return cloze.View{}, err
	}
	if err := s.exercise.BuildRound(round.Passage, round.Blanks); err != nil {
		return cloze.View{}, err
	}
	s.saveActive(ctx)
	return s.exercise.View(), nil
}

// Submit grades answers keyed by blank index. A final result is recorded
// before it is returned.
func (s *Service) Submit(ctx context.Context, answers map[int]string) (domain.SubmissionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(ctx); err != nil {
		return domain.SubmissionResult{}, err
	}
	res, err := s.exercise.Submit(answers, false)
	if err != nil {
		return res, err
	}
	if res.IsFinal {
		s.record(ctx, res)
	}
	s.saveActive(ctx)
	return res, nil
}

// GiveUp force-completes the round. nil answers reuse the last submitted
// answers.
func (s *Service) GiveUp(ctx context.Context, answers map[int]string) (domain.SubmissionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(ctx); err != nil {
		return domain.SubmissionResult{}, err
	}
	res, err := s.exercise.ForceComplete(answers)
	if err != nil {
		return res, err
	}
	s.record(ctx, res)
	s.saveActive(ctx)
	return res, nil
}

// Hint returns a hint for blank idx without touching round state.
func (s *Service) Hint(idx int) (cloze.Hint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.exercise == nil {
		return cloze.Hint{}, domain.ErrNoActiveRound
	}
	return s.exercise.Hint(idx)
}

// View returns the current round.
func (s *Service) View() (cloze.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.exercise == nil || !s.exercise.Active() {
		return cloze.View{}, domain.ErrNoActiveRound
	}
	return s.exercise.View(), nil
}

// NextRound moves to the next round number and persists progress. An
// unfinished round is abandoned without a record.
func (s *Service) NextRound(ctx context.Context) (domain.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(ctx); err != nil {
		return domain.Progress{}, err
	}
	return s.advance(ctx), nil
}

// Progress returns the player's level and round.
func (s *Service) Progress(ctx context.Context) (domain.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(ctx); err != nil {
		return domain.Progress{}, err
	}
	return s.exercise.Progress(), nil
}

// Stats summarizes the player's round history. limit bounds how many
// recent rounds are returned alongside the summary; the summary always
// covers every round.
func (s *Service) Stats(ctx context.Context, limit int) (progress.Summary, []domain.RoundRecord, error) {
	records, err := s.store.ListRounds(ctx, s.cfg.PlayerID, 0)
	if err != nil {
		return progress.Summary{}, nil, fmt.Errorf("list rounds: %w", err)
	}
	summary := progress.Summarize(records)
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return summary, records, nil
}

func (s *Service) advance(ctx context.Context) domain.Progress {
	p := s.exercise.NextRound()
	if err := s.store.SaveProgress(ctx, s.cfg.PlayerID, p); err != nil {
		s.logger.Error("failed to save progress", "player_id", s.cfg.PlayerID, "error", err)
	}
	if err := s.store.DeleteActiveRound(ctx, s.cfg.PlayerID); err != nil {
		s.logger.Error("failed to clear saved round", "player_id", s.cfg.PlayerID, "error", err)
	}
	return p
}

// saveActive persists the round in play, final or not, so a restart resumes
// it or moves past it.
func (s *Service) saveActive(ctx context.Context) {
	if !s.exercise.Active() {
		return
	}
	if err := s.store.SaveActiveRound(ctx, s.cfg.PlayerID, s.exercise.Snapshot()); err != nil {
		s.logger.Error("failed to save active round", "round_id", s.exercise.RoundID(), "error", err)
	}
}

// record persists a final result. Storage and publish failures are logged;
// the round outcome stands regardless.
func (s *Service) record(ctx context.Context, res domain.SubmissionResult) {
	passage := s.exercise.Passage()
	answers := make([]string, len(res.Results))
	for i, r := range res.Results {
		answers[i] = r.UserAnswer
	}

	rec := domain.RoundRecord{
		ID:              s.exercise.RoundID(),
		PlayerID:        s.cfg.PlayerID,
		Level:           s.exercise.RoundLevel(),
		Round:           s.exercise.Progress().Round,
		Passed:          res.Passed,
		Forced:          res.Forced,
		Correct:         res.Correct,
		Total:           res.Total,
		RequiredCorrect: res.RequiredCorrect,
		Answers:         answers,
		Title:           passage.Title,
		Author:          passage.Author,
		CompletedAt:     s.now(),
	}

	if err := s.store.SaveRound(ctx, rec); err != nil {
		s.logger.Error("failed to save round", "round_id", rec.ID, "error", err)
	}
	if err := s.store.SaveProgress(ctx, s.cfg.PlayerID, s.exercise.Progress()); err != nil {
		s.logger.Error("failed to save progress", "player_id", s.cfg.PlayerID, "error", err)
	}
	if s.events != nil {
		if err := s.events.PublishRound(ctx, queue.NewRoundEvent(rec, res.LevelAfter)); err != nil {
			s.logger.Warn("failed to publish round event", "round_id", rec.ID, "error", err)
		}
	}

	attrs := []any{
		"round_id", rec.ID,
		"passed", rec.Passed,
		"forced", rec.Forced,
		"correct", rec.Correct,
		"total", rec.Total,
		"level_after", res.LevelAfter,
	}
	if err := res.Err(); err != nil {
		attrs = append(attrs, "reason", err)
	}
	s.logger.Info("round finished", attrs...)
}
