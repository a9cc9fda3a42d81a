// Package mcp exposes cloze rounds as MCP tools so an assistant can run a
// reading session for the player.
package mcp

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	mcp "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/server"

	"github.com/zmuhls/cloze-reader-sub000/internal/cloze"
	"github.com/zmuhls/cloze-reader-sub000/internal/domain"
	"github.com/zmuhls/cloze-reader-sub000/internal/game"
	"github.com/zmuhls/cloze-reader-sub000/internal/progress"
)

// Server wraps the MCP server around a game service.
type Server struct {
	mcpServer *server.Server
	game      *game.Service
}

// Config contains configuration for the MCP server
type Config struct {
	Game    *game.Service
	Version string
}

// NewServer creates a new MCP server for cloze rounds.
func NewServer(cfg Config) *Server {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	s := &Server{game: cfg.Game}

	s.mcpServer = server.New(server.Info{
		Name:    "cloze",
		Version: version,
	}, server.WithInstructions(`
Cloze is a reading game. Each round shows a passage from a public-domain book
with some words replaced by numbered gaps like [1]____.

Available tools:
- cloze_start: Show the current round, or start a new one
- cloze_submit: Submit answers, one per gap in order
- cloze_hint: Get the length and first letter of one gap
- cloze_give_up: End the round and reveal every answer
- cloze_status: Show level, round and per-gap attempts
- cloze_stats: Summarize past rounds

Correct answers lock in. Each gap allows a limited number of attempts.
Passing a round raises the level; higher levels have longer passages and
more gaps.
`))

	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.mcpServer.Tool("cloze_start").
		Description("Show the round in progress, or start a new round from a fresh passage.").
		Handler(s.handleStart)

	s.mcpServer.Tool("cloze_submit").
		Description("Submit answers for the current round, one per gap in order.").
		Handler(s.handleSubmit)

	s.mcpServer.Tool("cloze_hint").
		Description("Get a hint for one gap. Does not use up an attempt.").
		Handler(s.handleHint)

	s.mcpServer.Tool("cloze_give_up").
		Description("End the current round and reveal all answers.").
		Handler(s.handleGiveUp)

	s.mcpServer.Tool("cloze_status").
		Description("Get the player's level, round and the state of each gap.").
		Handler(s.handleStatus)

	s.mcpServer.Tool("cloze_stats").
		Description("Summarize the player's finished rounds.").
		Handler(s.handleStats)
}

// Input/Output types for tools

type StartInput struct{}

type RoundOutput struct {
	RoundID         string `json:"round_id"`
	Level           int    `json:"level"`
	Round           int    `json:"round"`
	Title           string `json:"title,omitempty"`
	Author          string `json:"author,omitempty"`
	Context         string `json:"context,omitempty"`
	Text            string `json:"text"`
	Gaps            int    `json:"gaps"`
	RequiredCorrect int    `json:"required_correct"`
	MaxAttempts     int    `json:"max_attempts"`
}

type SubmitInput struct {
	Answers []string `json:"answers" jsonschema:"description=One answer per gap in gap order; use an empty string to skip a gap"`
}

type GapResult struct {
	Gap       int    `json:"gap"`
	Answer    string `json:"answer"`
	Correct   bool   `json:"correct"`
	Attempts  int    `json:"attempts"`
	Solution  string `json:"solution,omitempty"`
	Attempted bool   `json:"attempted"`
}

type SubmitOutput struct {
	Correct         int         `json:"correct"`
	Total           int         `json:"total"`
	Passed          bool        `json:"passed"`
	CanRetry        bool        `json:"can_retry"`
	Final           bool        `json:"final"`
	RequiredCorrect int         `json:"required_correct"`
	Level           int         `json:"level"`
	Gaps            []GapResult `json:"gaps"`
	Message         string      `json:"message"`
}

type HintInput struct {
	Gap int `json:"gap" jsonschema:"description=Gap number as shown in the passage, starting at 1"`
}

type HintOutput struct {
	Gap  int    `json:"gap"`
	Hint string `json:"hint"`
}

type GiveUpInput struct {
	Answers []string `json:"answers,omitempty" jsonschema:"description=Final answers; omit to reuse the last submission"`
}

type StatusInput struct{}

type StatusOutput struct {
	Level    int               `json:"level"`
	Round    int               `json:"round"`
	RoundID  string            `json:"round_id,omitempty"`
	State    string            `json:"state,omitempty"`
	Gaps     []cloze.BlankView `json:"gaps,omitempty"`
	HasRound bool              `json:"has_round"`
}

type StatsInput struct {
	Recent int `json:"recent,omitempty" jsonschema:"description=How many recent rounds to list (default 5)"`
}

type StatsOutput struct {
	Summary progress.Summary     `json:"summary"`
	Recent  []domain.RoundRecord `json:"recent"`
}

// Tool handlers

func (s *Server) handleStart(ctx context.Context, _ StartInput) (RoundOutput, error) {
	view, err := s.game.Start(ctx)
	if err != nil {
		return RoundOutput{}, fmt.Errorf("failed to start round: %w", err)
	}
	return roundOutput(view), nil
}

func (s *Server) handleSubmit(ctx context.Context, input SubmitInput) (SubmitOutput, error) {
	res, err := s.game.Submit(ctx, answerMap(input.Answers))
	if err != nil {
		return SubmitOutput{}, fmt.Errorf("submit failed: %w", err)
	}
	return submitOutput(res), nil
}

func (s *Server) handleHint(ctx context.Context, input HintInput) (HintOutput, error) {
	h, err := s.game.Hint(input.Gap - 1)
	if err != nil {
		return HintOutput{}, fmt.Errorf("hint failed: %w", err)
	}
	return HintOutput{Gap: input.Gap, Hint: h.String()}, nil
}

func (s *Server) handleGiveUp(ctx context.Context, input GiveUpInput) (SubmitOutput, error) {
	var answers map[int]string
	if input.Answers != nil {
		answers = answerMap(input.Answers)
	}
	res, err := s.game.GiveUp(ctx, answers)
	if err != nil {
		return SubmitOutput{}, fmt.Errorf("give up failed: %w", err)
	}
	return submitOutput(res), nil
}

func (s *Server) handleStatus(ctx context.Context, _ StatusInput) (StatusOutput, error) {
	p, err := s.game.Progress(ctx)
	if err != nil {
		return StatusOutput{}, fmt.Errorf("status failed: %w", err)
	}
	out := StatusOutput{Level: p.Level, Round: p.Round}

	view, err := s.game.View()
	if err != nil {
		// no round yet
		return out, nil
	}
	out.HasRound = true
	out.RoundID = view.RoundID
	out.State = string(view.State)
	out.Gaps = view.Blanks
	return out, nil
}

func (s *Server) handleStats(ctx context.Context, input StatsInput) (StatsOutput, error) {
	recent := input.Recent
	if recent <= 0 {
		recent = 5
	}
	summary, records, err := s.game.Stats(ctx, recent)
	if err != nil {
		return StatsOutput{}, fmt.Errorf("stats failed: %w", err)
	}
	if records == nil {
		records = []domain.RoundRecord{}
	}
	return StatsOutput{Summary: summary, Recent: records}, nil
}

func answerMap(answers []string) map[int]string {
	m := make(map[int]string, len(answers))
	for i, a := range answers {
		m[i] = a
	}
	return m
}

func roundOutput(v cloze.View) RoundOutput {
	return RoundOutput{
		RoundID:         v.RoundID,
		Level:           v.Level,
		Round:           v.Round,
		Title:           v.Title,
		Author:          v.Author,
		Context:         v.Context,
		Text:            v.Text,
		Gaps:            len(v.Blanks),
		RequiredCorrect: v.Required,
		MaxAttempts:     v.MaxAttempts,
	}
}

func submitOutput(res domain.SubmissionResult) SubmitOutput {
	out := SubmitOutput{
		Correct:         res.Correct,
		Total:           res.Total,
		Passed:          res.Passed,
		CanRetry:        res.CanRetry,
		Final:           res.IsFinal,
		RequiredCorrect: res.RequiredCorrect,
		Level:           res.LevelAfter,
		Message:         submitMessage(res),
	}
	for _, r := range res.Results {
		out.Gaps = append(out.Gaps, GapResult{
			Gap:       r.BlankIndex + 1,
			Answer:    r.UserAnswer,
			Correct:   r.IsCorrect,
			Attempts:  r.AttemptNumber,
			Solution:  r.CorrectAnswer,
			Attempted: !r.NotAttempted,
		})
	}
	return out
}

func submitMessage(res domain.SubmissionResult) string {
	score := fmt.Sprintf("%d of %d correct.", res.Correct, res.Total)
	switch {
	case res.CanRetry:
		gaps := make([]string, len(res.ClearedInputs))
		for i, idx := range res.ClearedInputs {
			gaps[i] = strconv.Itoa(idx + 1)
		}
		return fmt.Sprintf("%s Try again on gap %s.", score, strings.Join(gaps, ", "))
	case res.Passed:
		return fmt.Sprintf("%s Passed! Now at level %d.", score, res.LevelAfter)
	case res.MaxAttemptsReached:
		return fmt.Sprintf("%s Out of attempts; %d needed to pass.", score, res.RequiredCorrect)
	default:
		return fmt.Sprintf("%s Round over; %d needed to pass.", score, res.RequiredCorrect)
	}
}

// ServeStdio starts the MCP server on stdio
func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

// ServeHTTP starts the MCP server on HTTP (alternative transport)
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr)
}

// GetMCPServer returns the underlying MCP server (for testing)
func (s *Server) GetMCPServer() *server.Server {
	return s.mcpServer
}
