// Package progress persists a player's level, round counter and round
// history.
package progress

import (
	"context"
	"errors"

	"github.com/zmuhls/cloze-reader-sub000/internal/domain"
)

// ErrNotFound is returned when a player has no stored progress.
var ErrNotFound = errors.New("progress not found")

// Store persists progress, the round in play and finished rounds. Implementations live in
// this package (file) and under internal/storage (sqlite, postgres).
type Store interface {
	// LoadProgress returns ErrNotFound for an unknown player.
	LoadProgress(ctx context.Context, playerID string) (domain.Progress, error)

	SaveProgress(ctx context.Context, playerID string, p domain.Progress) error

	SaveRound(ctx context.Context, r domain.RoundRecord) error

	// ListRounds returns the newest rounds first. limit <= 0 means all.
	ListRounds(ctx context.Context, playerID string, limit int) ([]domain.RoundRecord, error)

	// LoadActiveRound returns ErrNotFound when no round is saved.
	LoadActiveRound(ctx context.Context, playerID string) (domain.ActiveRound, error)

	SaveActiveRound(ctx context.Context, playerID string, r domain.ActiveRound) error

	// DeleteActiveRound is a no-op when no round is saved.
	DeleteActiveRound(ctx context.Context, playerID string) error
}

// LoadOrNew returns stored progress, or the starting progress for a new
// player.
func LoadOrNew(ctx context.Context, s Store, playerID string) (domain.Progress, error) {
	p, err := s.LoadProgress(ctx, playerID)
	if errors.Is(err, ErrNotFound) {
		return domain.NewProgress(), nil
	}
	if err != nil {
		return domain.Progress{}, err
	}
	return p.Normalize(), nil
}
