package game

import (
	"context"
	"fmt"
	"sort"

	"github.com/zmuhls/cloze-reader-sub000/internal/cloze"
	"github.com/zmuhls/cloze-reader-sub000/internal/describe"
	"github.com/zmuhls/cloze-reader-sub000/internal/domain"
)

// Round is a freshly built passage with its blanks, before it is handed to
// the exercise.
type Round struct {
	Passage domain.Passage
	Blanks  []domain.Blank

	// Exhausted is true when no sampled window met the quality ceiling.
	Exhausted bool

	// OracleUsed is false when the local selector chose every blank.
	OracleUsed bool
}

// BuildRound fetches a source text and turns it into a round for level:
// quality window, context line, oracle suggestions located in the passage,
// topped up or replaced by the local selector.
func (s *Service) BuildRound(ctx context.Context, level int) (Round, error) {
	book, err := s.fetcher.FetchSourceText(ctx)
	if err != nil {
		return Round{}, fmt.Errorf("fetch source text: %w", err)
	}

	sel := s.filter.Select(book.Text, level)
	if sel.Text == "" {
		return Round{}, fmt.Errorf("%w: %s", domain.ErrEmptySource, book.Origin)
	}

	passage := domain.NewPassage(sel.Text).WithSource(book.Title, book.Author)
	if s.describer != nil {
		passage.Context = s.describer.DescribePassage(ctx, book.Title, book.Author, sel.Text)
	} else {
		passage.Context = describe.Fallback(book.Title, book.Author)
	}

	count := cloze.BlanksForLevel(level)
	indices, oracleUsed := s.chooseIndices(ctx, passage, count, level)
	if len(indices) == 0 {
		return Round{}, fmt.Errorf("%w: %q", domain.ErrNoRedactableWords, book.Title)
	}

	blanks, err := domain.NewBlanks(passage, indices)
	if err != nil {
		return Round{}, err
	}

	s.logger.Info("built round",
		"title", book.Title,
		"level", level,
		"blanks", len(blanks),
		"oracle", oracleUsed,
		"quality_score", sel.Assessment.Score,
		"sample_attempts", sel.Attempts,
	)

	return Round{
		Passage:    passage,
		Blanks:     blanks,
		Exhausted:  sel.Exhausted,
		OracleUsed: oracleUsed,
	}, nil
}

// chooseIndices asks the oracle first. Oracle failures are logged and
// recovered by the local selector; a short oracle answer is topped up.
func (s *Service) chooseIndices(ctx context.Context, passage domain.Passage, count, level int) ([]int, bool) {
	words := passage.Words()
	if s.oracle == nil {
		return s.selector.ChooseIndices(words, count), false
	}

	suggested, err := s.oracle.SelectSignificantWords(ctx, passage.Text(), count, level)
	if err != nil {
		s.logger.Info("word oracle failed, using local selection", "error", err)
		return s.selector.ChooseIndices(words, count), false
	}

	located := s.selector.Locate(words, suggested)
	if len(located) > count {
		located = located[:count]
	}
	fromOracle := len(located) > 0
	if missing := count - len(located); missing > 0 {
		extra := s.selector.ChooseIndicesExcluding(words, missing, located)
		located = append(located, extra...)
		sort.Ints(located)
	}
	return located, fromOracle
}
