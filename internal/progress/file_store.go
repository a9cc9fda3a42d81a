package progress

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/zmuhls/cloze-reader-sub000/internal/domain"
	"github.com/zmuhls/cloze-reader-sub000/internal/storage/local"
)

const (
	collectionPlayers = "players"
	collectionActive  = "active_rounds"
	subdirRounds      = "rounds"
)

// FileStore keeps progress as JSON files under a base directory.
type FileStore struct {
	store *local.Store
}

// NewFileStore creates a file-backed store rooted at basePath.
func NewFileStore(basePath string) (*FileStore, error) {
	store, err := local.NewStore(basePath)
	if err != nil {
		return nil, fmt.Errorf("create local store: %w", err)
	}
	return &FileStore{store: store}, nil
}

func (s *FileStore) LoadProgress(ctx context.Context, playerID string) (domain.Progress, error) {
	var p domain.Progress
	if err := s.store.Load(collectionPlayers, playerID, &p); err != nil {
		if errors.Is(err, local.ErrNotFound) {
			return domain.Progress{}, ErrNotFound
		}
		return domain.Progress{}, err
	}
	return p, nil
}

func (s *FileStore) SaveProgress(ctx context.Context, playerID string, p domain.Progress) error {
	return s.store.Save(collectionPlayers, playerID, p)
}

func (s *FileStore) SaveRound(ctx context.Context, r domain.RoundRecord) error {
	if r.ID == "" {
		return fmt.Errorf("%w: round record without id", domain.ErrInvalidInput)
	}
	return s.store.SaveDir(collectionPlayers, r.PlayerID, subdirRounds, r.ID, r)
}

func (s *FileStore) ListRounds(ctx context.Context, playerID string, limit int) ([]domain.RoundRecord, error) {
	names, err := s.store.ListDir(collectionPlayers, playerID, subdirRounds)
	if err != nil {
		return nil, err
	}

	records := make([]domain.RoundRecord, 0, len(names))
	for _, name := range names {
		var r domain.RoundRecord
		if err := s.store.LoadDir(collectionPlayers, playerID, subdirRounds, name, &r); err != nil {
			return nil, fmt.Errorf("load round %s: %w", name, err)
		}
		records = append(records, r)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CompletedAt.After(records[j].CompletedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (s *FileStore) LoadActiveRound(ctx context.Context, playerID string) (domain.ActiveRound, error) {
	var r domain.ActiveRound
	if err := s.store.Load(collectionActive, playerID, &r); err != nil {
		if errors.Is(err, local.ErrNotFound) {
			return domain.ActiveRound{}, ErrNotFound
		}
		return domain.ActiveRound{}, err
	}
	return r, nil
}

func (s *FileStore) SaveActiveRound(ctx context.Context, playerID string, r domain.ActiveRound) error {
	return s.store.Save(collectionActive, playerID, r)
}

func (s *FileStore) DeleteActiveRound(ctx context.Context, playerID string) error {
	if err := s.store.Delete(collectionActive, playerID); err != nil && !errors.Is(err, local.ErrNotFound) {
		return err
	}
	return nil
}

var _ Store = (*FileStore)(nil)
