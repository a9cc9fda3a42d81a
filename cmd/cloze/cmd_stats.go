package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/zmuhls/cloze-reader-sub000/internal/domain"
	"github.com/zmuhls/cloze-reader-sub000/internal/progress"
)

const defaultRecentRounds = 5

// cmdStats prints the player's round summary and most recent rounds.
func cmdStats(args []string) error {
	limit := defaultRecentRounds
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return fmt.Errorf("invalid count %q", args[0])
		}
		limit = n
	}

	ctx := context.Background()
	a, err := setup(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	prog, err := a.game.Progress(ctx)
	if err != nil {
		return fmt.Errorf("load progress: %w", err)
	}
	summary, recent, err := a.game.Stats(ctx, limit)
	if err != nil {
		return err
	}

	fmt.Printf("Player %s: level %d, round %d\n\n", a.cfg.Game.PlayerID, prog.Level, prog.Round)
	printStats(os.Stdout, summary, recent)
	return nil
}

func printStats(w io.Writer, s progress.Summary, recent []domain.RoundRecord) {
	if s.Rounds == 0 {
		fmt.Fprintln(w, "No rounds played yet. Run 'cloze play' to start.")
		return
	}

	fmt.Fprintln(w, "Overview")
	fmt.Fprintln(w, "========")
	fmt.Fprintf(w, "Rounds:          %d (%d passed, %d given up)\n", s.Rounds, s.Passed, s.Forced)
	fmt.Fprintf(w, "Words:           %d of %d (%.0f%%)\n", s.BlanksRight, s.BlanksTotal, s.Accuracy*100)
	fmt.Fprintf(w, "Current streak:  %d\n", s.CurrentStreak)
	fmt.Fprintf(w, "Best streak:     %d\n", s.BestStreak)

	if len(recent) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Recent Rounds")
	fmt.Fprintln(w, "=============")
	for _, r := range recent {
		status := "failed"
		switch {
		case r.Passed:
			status = "passed"
		case r.Forced:
			status = "gave up"
		}
		title := r.Title
		if title == "" {
			title = "untitled"
		}
		fmt.Fprintf(w, "  %s  L%-2d %d/%d %-7s %s\n",
			r.CompletedAt.Local().Format("2006-01-02 15:04"), r.Level, r.Correct, r.Total, status, title)
	}
}
