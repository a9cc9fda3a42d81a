// Package postgres is the shared-server backend for player progress, for
// deployments where several cloze processes report to one database.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/zmuhls/cloze-reader-sub000/internal/domain"
	"github.com/zmuhls/cloze-reader-sub000/internal/progress"
)

//go:embed schema.sql
var schema string

// ProgressStore implements progress.Store using PostgreSQL.
type ProgressStore struct {
	db *sql.DB
}

// Open connects to dsn through the pgx database/sql driver and verifies
// the connection.
func Open(ctx context.Context, dsn string) (*ProgressStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &ProgressStore{db: db}, nil
}

// NewProgressStore wraps an existing connection pool.
func NewProgressStore(db *sql.DB) *ProgressStore {
	return &ProgressStore{db: db}
}

// Migrate creates the tables if they do not exist.
func (s *ProgressStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *ProgressStore) Close() error {
	return s.db.Close()
}

func (s *ProgressStore) LoadProgress(ctx context.Context, playerID string) (domain.Progress, error) {
	var p domain.Progress
	err := s.db.QueryRowContext(ctx,
		`SELECT level, round FROM progress WHERE player_id = $1`, playerID,
	).Scan(&p.Level, &p.Round)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Progress{}, progress.ErrNotFound
		}
		return domain.Progress{}, err
	}
	return p, nil
}

func (s *ProgressStore) SaveProgress(ctx context.Context, playerID string, p domain.Progress) error {
	query := `
		INSERT INTO progress (player_id, level, round, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (player_id) DO UPDATE SET
			level = EXCLUDED.level, round = EXCLUDED.round, updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query, playerID, p.Level, p.Round)
	return err
}

func (s *ProgressStore) SaveRound(ctx context.Context, r domain.RoundRecord) error {
	if r.ID == "" {
		return fmt.Errorf("%w: round record without id", domain.ErrInvalidInput)
	}
	answers, err := progress.EncodeAnswers(r.Answers)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO rounds (id, player_id, level, round, passed, forced,
			correct, total, required_correct, answers, title, author, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING
	`
	_, err = s.db.ExecContext(ctx, query,
		r.ID, r.PlayerID, r.Level, r.Round, r.Passed, r.Forced,
		r.Correct, r.Total, r.RequiredCorrect, answers, r.Title, r.Author,
		r.CompletedAt,
	)
	return err
}

func (s *ProgressStore) ListRounds(ctx context.Context, playerID string, limit int) ([]domain.RoundRecord, error) {
	// LIMIT NULL returns every row
	var lim sql.NullInt64
	if limit > 0 {
		lim = sql.NullInt64{Int64: int64(limit), Valid: true}
	}

	query := `
		SELECT id, player_id, level, round, passed, forced, correct, total,
			required_correct, answers, title, author, completed_at
		FROM rounds WHERE player_id = $1
		ORDER BY completed_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, playerID, lim)
	if err != nil {
		return nil, err
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
			return nil, err
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
		`SELECT data FROM active_rounds WHERE player_id = $1`, playerID,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ActiveRound{}, progress.ErrNotFound
		}
		return domain.ActiveRound{}, err
	}
	return progress.DecodeActiveRound(data)
}

func (s *ProgressStore) SaveActiveRound(ctx context.Context, playerID string, r domain.ActiveRound) error {
	data, err := progress.EncodeActiveRound(r)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO active_rounds (player_id, data, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (player_id) DO UPDATE SET
			data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`
	_, err = s.db.ExecContext(ctx, query, playerID, data)
	return err
}

func (s *ProgressStore) DeleteActiveRound(ctx context.Context, playerID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM active_rounds WHERE player_id = $1`, playerID)
	return err
}

var _ progress.Store = (*ProgressStore)(nil)
