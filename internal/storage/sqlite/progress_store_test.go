package sqlite

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/zmuhls/cloze-reader-sub000/internal/domain"
	"github.com/zmuhls/cloze-reader-sub000/internal/progress"
)

func TestProgressStore_LoadMissing(t *testing.T) {
	store := NewProgressStore(openTestDB(t))

	_, err := store.LoadProgress(context.Background(), "nobody")
	if !errors.Is(err, progress.ErrNotFound) {
		t.Errorf("LoadProgress() error = %v; want ErrNotFound", err)
	}

	p, err := progress.LoadOrNew(context.Background(), store, "nobody")
	if err != nil {
		t.Fatalf("LoadOrNew() error = %v", err)
	}
	if p != domain.NewProgress() {
		t.Errorf("LoadOrNew() = %+v; want %+v", p, domain.NewProgress())
	}
}

func TestProgressStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := NewProgressStore(openTestDB(t))

	if err := store.SaveProgress(ctx, "p1", domain.Progress{Level: 2, Round: 4}); err != nil {
		t.Fatalf("SaveProgress() error = %v", err)
	}
	if err := store.SaveProgress(ctx, "p1", domain.Progress{Level: 3, Round: 5}); err != nil {
		t.Fatalf("SaveProgress() update error = %v", err)
	}

	got, err := store.LoadProgress(ctx, "p1")
	if err != nil {
		t.Fatalf("LoadProgress() error = %v", err)
	}
	if got.Level != 3 || got.Round != 5 {
		t.Errorf("LoadProgress() = %+v; want level 3 round 5", got)
	}
}

func TestProgressStore_Rounds(t *testing.T) {
	ctx := context.Background()
	store := NewProgressStore(openTestDB(t))
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	records := []domain.RoundRecord{
		{ID: "r1", PlayerID: "p1", Level: 1, Round: 1, Passed: true, Correct: 1, Total: 1, RequiredCorrect: 1, Answers: []string{"river"}, Title: "Walden", Author: "Thoreau", CompletedAt: base},
		{ID: "r2", PlayerID: "p1", Level: 2, Round: 2, Forced: true, Correct: 0, Total: 1, RequiredCorrect: 1, CompletedAt: base.Add(time.Hour)},
		{ID: "r3", PlayerID: "p1", Level: 2, Round: 3, Passed: true, Correct: 1, Total: 1, RequiredCorrect: 1, Answers: []string{"lantern"}, CompletedAt: base.Add(2 * time.Hour)},
		{ID: "o1", PlayerID: "p2", Level: 1, Round: 1, CompletedAt: base},
	}
	for _, r := range records {
		if err := store.SaveRound(ctx, r); err != nil {
			t.Fatalf("SaveRound(%s) error = %v", r.ID, err)
		}
	}

	// re-saving the same round is a no-op
	if err := store.SaveRound(ctx, records[0]); err != nil {
		t.Fatalf("SaveRound() duplicate error = %v", err)
	}

	all, err := store.ListRounds(ctx, "p1", 0)
	if err != nil {
		t.Fatalf("ListRounds() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListRounds() len = %d; want 3", len(all))
	}
	wantOrder := []string{"r3", "r2", "r1"}
	for i, id := range wantOrder {
		if all[i].ID != id {
			t.Errorf("ListRounds()[%d].ID = %q; want %q", i, all[i].ID, id)
		}
	}

	oldest := all[2]
	if !oldest.Passed || oldest.Forced {
		t.Errorf("r1 passed/forced = %v/%v; want true/false", oldest.Passed, oldest.Forced)
	}
	if len(oldest.Answers) != 1 || oldest.Answers[0] != "river" {
		t.Errorf("r1 answers = %v; want [river]", oldest.Answers)
	}
	if oldest.Title != "Walden" || oldest.Author != "Thoreau" {
		t.Errorf("r1 title/author = %q/%q", oldest.Title, oldest.Author)
	}
	if !oldest.CompletedAt.Equal(base) {
		t.Errorf("r1 completed_at = %v; want %v", oldest.CompletedAt, base)
	}
	if all[1].Answers != nil {
		t.Errorf("r2 answers = %v; want nil", all[1].Answers)
	}

	limited, err := store.ListRounds(ctx, "p1", 2)
	if err != nil {
		t.Fatalf("ListRounds(limit) error = %v", err)
	}
	if len(limited) != 2 || limited[0].ID != "r3" {
		t.Errorf("ListRounds(limit 2) = %d records, first %q", len(limited), limited[0].ID)
	}
}

func TestProgressStore_SaveRoundWithoutID(t *testing.T) {
	store := NewProgressStore(openTestDB(t))
	err := store.SaveRound(context.Background(), domain.RoundRecord{PlayerID: "p1"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("SaveRound() error = %v; want ErrInvalidInput", err)
	}
}

func TestProgressStore_ActiveRound(t *testing.T) {
	store := NewProgressStore(openTestDB(t))
	ctx := context.Background()

	if _, err := store.LoadActiveRound(ctx, "p1"); !errors.Is(err, progress.ErrNotFound) {
		t.Fatalf("LoadActiveRound() error = %v; want ErrNotFound", err)
	}

	want := domain.ActiveRound{
		RoundID:  "r-1",
		Level:    6,
		Round:    3,
		Text:     "The mill stood by the quiet river.",
		Blanks:   []domain.Blank{{Index: 0, WordIndex: 1, OriginalWord: "mill"}, {Index: 1, WordIndex: 5, OriginalWord: "quiet"}},
		State:    domain.StateRetrying,
		Attempts: map[int]int{0: 1, 1: 1},
		Locked:   []int{0},
		Answers:  map[int]string{0: "mill", 1: "loud"},
	}
	if err := store.SaveActiveRound(ctx, "p1", want); err != nil {
		t.Fatalf("SaveActiveRound() error = %v", err)
	}
	want.Attempts[1] = 2
	if err := store.SaveActiveRound(ctx, "p1", want); err != nil {
		t.Fatalf("SaveActiveRound() update error = %v", err)
	}

	got, err := store.LoadActiveRound(ctx, "p1")
	if err != nil {
		t.Fatalf("LoadActiveRound() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadActiveRound() = %+v; want %+v", got, want)
	}

	if err := store.DeleteActiveRound(ctx, "p1"); err != nil {
		t.Fatalf("DeleteActiveRound() error = %v", err)
	}
	if _, err := store.LoadActiveRound(ctx, "p1"); !errors.Is(err, progress.ErrNotFound) {
		t.Errorf("LoadActiveRound() after delete error = %v; want ErrNotFound", err)
	}
}
