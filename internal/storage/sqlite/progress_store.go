package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zmuhls/cloze-reader-sub000/internal/domain"
	"github.com/zmuhls/cloze-reader-sub000/internal/progress"
)

// ProgressStore implements progress.Store backed by SQLite.
type ProgressStore struct {
	db *DB
}

// NewProgressStore creates a new SQLite-backed progress store.
func NewProgressStore(db *DB) *ProgressStore {
	return &ProgressStore{db: db}
}

func (s *ProgressStore) LoadProgress(ctx context.Context, playerID string) (domain.Progress, error) {
	var p domain.Progress
	err := s.db.QueryRowContext(ctx,
		"SELECT level, round FROM progress WHERE player_id = ?", playerID,
	).Scan(&p.Level, &p.Round)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Progress{}, progress.ErrNotFound
		}
		return domain.Progress{}, fmt.Errorf("load progress: %w", err)
	}
	return p, nil
}

func (s *ProgressStore) SaveProgress(ctx context.Context, playerID string, p domain.Progress) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO progress (player_id, level, round, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(player_id) DO UPDATE SET
			level=excluded.level, round=excluded.round, updated_at=excluded.updated_at`,
		playerID, p.Level, p.Round, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}

func (s *ProgressStore) SaveRound(ctx context.Context, r domain.RoundRecord) error {
	if r.ID == "" {
		return fmt.Errorf("%w: round record without id", domain.ErrInvalidInput)
	}
	answers, err := progress.EncodeAnswers(r.Answers)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rounds (id, player_id, level, round, passed, forced,
			correct, total, required_correct, answers, title, author, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		r.ID, r.PlayerID, r.Level, r.Round, r.Passed, r.Forced,
		r.Correct, r.Total, r.RequiredCorrect, answers, r.Title, r.Author,
		r.CompletedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert round: %w", err)
	}
	return nil
}

func (s *ProgressStore) ListRounds(ctx context.Context, playerID string, limit int) ([]domain.RoundRecord, error) {
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, player_id, level, round, passed, forced, correct, total,
			required_correct, answers, title, author, completed_at
		FROM rounds WHERE player_id = ?
		ORDER BY completed_at DESC
		LIMIT ?`, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}
	defer rows.Close()

	var records []domain.RoundRecord
	for rows.Next() {
		var r domain.RoundRecord
		var answers []byte
		if err := rows.Scan(
			&r.ID, &r.PlayerID, &r.Level, &r.Round, &r.Passed, &r.Forced,
			&r.Correct, &r.Total, &r.RequiredCorrect, &answers,
			&r.Title, &r.Author, &r.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		if r.Answers, err = progress.DecodeAnswers(answers); err != nil {
			return nil, fmt.Errorf("round %s: %w", r.ID, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *ProgressStore) LoadActiveRound(ctx context.Context, playerID string) (domain.ActiveRound, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM active_rounds WHERE player_id = ?", playerID,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ActiveRound{}, progress.ErrNotFound
		}
		return domain.ActiveRound{}, fmt.Errorf("load active round: %w", err)
	}
	return progress.DecodeActiveRound(data)
}

func (s *ProgressStore) SaveActiveRound(ctx context.Context, playerID string, r domain.ActiveRound) error {
	data, err := progress.EncodeActiveRound(r)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO active_rounds (player_id, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(player_id) DO UPDATE SET
			data=excluded.data, updated_at=excluded.updated_at`,
		playerID, data, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert active round: %w", err)
	}
	return nil
}

func (s *ProgressStore) DeleteActiveRound(ctx context.Context, playerID string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM active_rounds WHERE player_id = ?", playerID); err != nil {
		return fmt.Errorf("delete active round: %w", err)
	}
	return nil
}
