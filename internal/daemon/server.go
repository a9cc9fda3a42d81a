// Package daemon serves cloze rounds over a small JSON HTTP API for browser
// and script clients.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/zmuhls/cloze-reader-sub000/internal/domain"
	"github.com/zmuhls/cloze-reader-sub000/internal/game"
	"github.com/zmuhls/cloze-reader-sub000/internal/progress"
)

const (
	defaultRecent = 5
	maxBodyBytes  = 64 << 10
)

// Server is the cloze HTTP API.
type Server struct {
	game    *game.Service
	version string
	router  *http.ServeMux
	server  *http.Server
}

// ServerConfig holds configuration for creating a new server
type ServerConfig struct {
	Game    *game.Service
	Addr    string
	Version string
}

// NewServer creates the server and its routes. Call Start to listen.
func NewServer(cfg ServerConfig) *Server {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	s := &Server{
		game:    cfg.Game,
		version: version,
		router:  http.NewServeMux(),
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		// building a round may wait on the book source and the oracle
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /v1/health", s.handleHealth)

	s.router.HandleFunc("GET /v1/round", s.handleGetRound)
	s.router.HandleFunc("POST /v1/round", s.handleStartRound)
	s.router.HandleFunc("POST /v1/round/submit", s.handleSubmit)
	s.router.HandleFunc("POST /v1/round/hint", s.handleHint)
	s.router.HandleFunc("POST /v1/round/give-up", s.handleGiveUp)
	s.router.HandleFunc("POST /v1/round/next", s.handleNext)

	s.router.HandleFunc("GET /v1/progress", s.handleProgress)
	s.router.HandleFunc("GET /v1/stats", s.handleStats)
}

// Handler returns the routed handler wrapped in middleware.
func (s *Server) Handler() http.Handler {
	return requestIDMiddleware(recoveryMiddleware(loggingMiddleware(s.router)))
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	slog.Info("starting cloze api", "addr", s.server.Addr, "version", s.version)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down cloze api")
	return s.server.Shutdown(ctx)
}

// Request and response bodies

// AnswersRequest maps 1-based gap numbers to answers. Gaps left out count
// as blank.
type AnswersRequest struct {
	Answers map[int]string `json:"answers"`
}

// HintRequest names a 1-based gap.
type HintRequest struct {
	Gap int `json:"gap"`
}

// HintResponse is a hint for one gap.
type HintResponse struct {
	Gap         int    `json:"gap"`
	Length      int    `json:"length"`
	FirstLetter string `json:"first_letter"`
	LastLetter  string `json:"last_letter,omitempty"`
	Text        string `json:"text"`
}

// StatsResponse is the history summary plus recent rounds.
type StatsResponse struct {
	Summary progress.Summary     `json:"summary"`
	Recent  []domain.RoundRecord `json:"recent"`
}

type errorBody struct {
	Error   string `json:"error"`
	Status  int    `json:"status"`
	Details string `json:"details,omitempty"`
}

// Handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"version":   s.version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleGetRound(w http.ResponseWriter, r *http.Request) {
	view, err := s.game.View()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleStartRound(w http.ResponseWriter, r *http.Request) {
	view, err := s.game.Start(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req AnswersRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.game.Submit(r.Context(), zeroBased(req.Answers))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	var req HintRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	h, err := s.game.Hint(req.Gap - 1)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, HintResponse{
		Gap:         req.Gap,
		Length:      h.Length,
		FirstLetter: h.FirstLetter,
		LastLetter:  h.LastLetter,
		Text:        h.String(),
	})
}

// handleGiveUp accepts an empty body, in which case the last submitted
// answers are reused.
func (s *Server) handleGiveUp(w http.ResponseWriter, r *http.Request) {
	// An empty body, chunked or not, means no answers.
	var answers map[int]string
	var req AnswersRequest
	switch err := decodeBody(w, r, &req); {
	case errors.Is(err, io.EOF):
	case err != nil:
		s.writeError(w, r, err)
		return
	case req.Answers != nil:
		answers = zeroBased(req.Answers)
	}
	res, err := s.game.GiveUp(r.Context(), answers)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	p, err := s.game.NextRound(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	p, err := s.game.Progress(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	recent := defaultRecent
	if v := r.URL.Query().Get("recent"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, r, fmt.Errorf("%w: recent must be a non-negative number", domain.ErrInvalidInput))
			return
		}
		recent = n
	}

	summary, records, err := s.game.Stats(r.Context(), recent)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if records == nil {
		records = []domain.RoundRecord{}
	}
	writeJSON(w, http.StatusOK, StatsResponse{Summary: summary, Recent: records})
}

// Helper methods

func zeroBased(answers map[int]string) map[int]string {
	m := make(map[int]string, len(answers))
	for gap, a := range answers {
		m[gap-1] = a
	}
	return m
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	return nil
}

// statusFor maps game errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNoActiveRound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRoundFinal):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnknownBlank), errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoRedactableWords), errors.Is(err, domain.ErrEmptySource):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := errorBody{Error: http.StatusText(status), Status: status, Details: err.Error()}
	if status >= 500 {
		slog.Error("request failed", "request_id", RequestID(r.Context()), "error", err)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
