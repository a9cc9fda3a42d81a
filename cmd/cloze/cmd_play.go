package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/zmuhls/cloze-reader-sub000/internal/cloze"
	"github.com/zmuhls/cloze-reader-sub000/internal/domain"
)

// roundGame is the part of game.Service the terminal loop drives.
type roundGame interface {
	Start(ctx context.Context) (cloze.View, error)
	View() (cloze.View, error)
	Submit(ctx context.Context, answers map[int]string) (domain.SubmissionResult, error)
	GiveUp(ctx context.Context, answers map[int]string) (domain.SubmissionResult, error)
	Hint(idx int) (cloze.Hint, error)
}

// cmdPlay runs rounds in the terminal until the player quits.
func cmdPlay() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	p := newPlayer(a.game, os.Stdin, os.Stdout)
	return p.run(ctx)
}

const playHelp = `Type one word per gap and press Enter.
  :hint     show the length and first letter of this gap
  :give-up  end the round and reveal every answer
  :quit     stop playing (the round resumes next time)`

type player struct {
	game roundGame
	in   *bufio.Scanner
	out  io.Writer
}

func newPlayer(g roundGame, in io.Reader, out io.Writer) *player {
	return &player{game: g, in: bufio.NewScanner(in), out: out}
}

func (p *player) run(ctx context.Context) error {
	fmt.Fprintln(p.out, playHelp)

	for {
		view, err := p.game.Start(ctx)
		if err != nil {
			return fmt.Errorf("start round: %w", err)
		}
		printRound(p.out, view)

		quit, err := p.playRound(ctx, view)
		if err != nil || quit {
			return err
		}

		line, ok := p.prompt("Press Enter for the next round, or :quit> ")
		if !ok || line == ":quit" {
			return nil
		}
	}
}

// playRound collects answers until the round is final. It reports quit when
// the player stops or input ends.
func (p *player) playRound(ctx context.Context, view cloze.View) (bool, error) {
	for {
		answers := make(map[int]string)

		for _, b := range view.Blanks {
			if b.Locked {
				continue
			}
			answer, cmd, ok := p.askBlank(b.Index)
			if !ok || cmd == ":quit" {
				return true, nil
			}
			if cmd == ":give-up" {
				if len(answers) == 0 {
					answers = nil
				}
				res, err := p.game.GiveUp(ctx, answers)
				if err != nil {
					return false, fmt.Errorf("give up: %w", err)
				}
				printResult(p.out, res)
				return false, nil
			}
			answers[b.Index] = answer
		}

		res, err := p.game.Submit(ctx, answers)
		if err != nil {
			return false, fmt.Errorf("submit: %w", err)
		}
		printResult(p.out, res)
		if res.IsFinal {
			return false, nil
		}

		view, err = p.game.View()
		if err != nil {
			return false, err
		}
		fmt.Fprintln(p.out)
		fmt.Fprintln(p.out, view.Text)
	}
}

// askBlank prompts for one gap, answering :hint in place. It returns either
// an answer or a command.
func (p *player) askBlank(idx int) (answer, cmd string, ok bool) {
	for {
		line, ok := p.prompt(fmt.Sprintf("[%d]> ", idx+1))
		if !ok {
			return "", "", false
		}
		switch line {
		case ":hint":
			hint, err := p.game.Hint(idx)
			if err != nil {
				fmt.Fprintf(p.out, "No hint: %v\n", err)
				continue
			}
			fmt.Fprintf(p.out, "Hint: %s\n", hint)
		case ":help":
			fmt.Fprintln(p.out, playHelp)
		case ":quit", ":give-up":
			return "", line, true
		default:
			return line, "", true
		}
	}
}

func (p *player) prompt(label string) (string, bool) {
	fmt.Fprint(p.out, label)
	if !p.in.Scan() {
		fmt.Fprintln(p.out)
		return "", false
	}
	return strings.TrimSpace(p.in.Text()), true
}

func printRound(w io.Writer, v cloze.View) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Level %d, round %d: %d gaps, %d needed to pass\n", v.Level, v.Round, len(v.Blanks), v.Required)
	if v.Context != "" {
		fmt.Fprintln(w, v.Context)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, v.Text)
	fmt.Fprintln(w)
}

func printResult(w io.Writer, res domain.SubmissionResult) {
	for _, r := range res.Results {
		mark := "✗"
		if r.IsCorrect {
			mark = "✓"
		}
		line := fmt.Sprintf("  %s [%d] %s", mark, r.BlankIndex+1, r.UserAnswer)
		if r.NotAttempted {
			line = fmt.Sprintf("  %s [%d] (no answer)", mark, r.BlankIndex+1)
		}
		if r.CorrectAnswer != "" && !r.IsCorrect {
			line += fmt.Sprintf(" (answer: %s)", r.CorrectAnswer)
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w, resultSummary(res))
}

func resultSummary(res domain.SubmissionResult) string {
	score := fmt.Sprintf("%d of %d correct.", res.Correct, res.Total)
	switch {
	case res.Passed:
		return fmt.Sprintf("%s Passed! Now at level %d.", score, res.LevelAfter)
	case res.Forced:
		return fmt.Sprintf("%s Round over; %d needed to pass.", score, res.RequiredCorrect)
	case res.MaxAttemptsReached:
		return fmt.Sprintf("%s Out of attempts; %d needed to pass.", score, res.RequiredCorrect)
	case res.IsFinal:
		return fmt.Sprintf("%s %d needed to pass.", score, res.RequiredCorrect)
	default:
		return fmt.Sprintf("%s Try the open gaps again.", score)
	}
}
