package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/zmuhls/cloze-reader-sub000/internal/cloze"
	"github.com/zmuhls/cloze-reader-sub000/internal/domain"
)

// cmdPassage prints one quality-filtered passage with its score.
func cmdPassage(args []string) error {
	level, err := parseLevel(args)
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := setup(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	book, err := a.fetcher.FetchSourceText(ctx)
	if err != nil {
		return fmt.Errorf("fetch source text: %w", err)
	}
	sel := a.filter.Select(book.Text, level)

	fmt.Printf("%s by %s\n", book.Title, book.Author)
	fmt.Printf("Score: %.2f after %d attempt(s)", sel.Assessment.Score, sel.Attempts)
	if sel.Exhausted {
		fmt.Print(" (no window met the ceiling)")
	}
	fmt.Println()
	fmt.Println()
	fmt.Println(sel.Text)
	return nil
}

// cmdRedact builds a round without starting it and prints the gaps with
// their answers. Progress is not touched.
func cmdRedact(args []string) error {
	level, err := parseLevel(args)
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := setup(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	round, err := a.game.BuildRound(ctx, level)
	if err != nil {
		return err
	}

	ex := cloze.NewExercise(domain.Progress{Level: level, Round: 1})
	if err := ex.BuildRound(round.Passage, round.Blanks); err != nil {
		return err
	}

	source := "local selection"
	if round.OracleUsed {
		source = "oracle"
	}
	fmt.Printf("%s by %s (level %d, blanks from %s)\n", round.Passage.Title, round.Passage.Author, level, source)
	if round.Passage.Context != "" {
		fmt.Println(round.Passage.Context)
	}
	fmt.Println()
	fmt.Println(ex.MaskedText())
	fmt.Println()
	for _, b := range round.Blanks {
		fmt.Printf("  [%d] %s\n", b.Index+1, b.OriginalWord)
	}
	return nil
}

// parseLevel reads an optional level argument, defaulting to 1.
func parseLevel(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	level, err := strconv.Atoi(args[0])
	if err != nil || level < 1 {
		return 0, fmt.Errorf("invalid level %q: must be a positive number", args[0])
	}
	return level, nil
}
