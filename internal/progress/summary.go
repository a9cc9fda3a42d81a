package progress

import "github.com/zmuhls/cloze-reader-sub000/internal/domain"

// Summary aggregates a player's round history.
type Summary struct {
	Rounds        int     `json:"rounds"`
	Passed        int     `json:"passed"`
	Forced        int     `json:"forced"`
	BlanksTotal   int     `json:"blanks_total"`
	BlanksRight   int     `json:"blanks_right"`
	Accuracy      float64 `json:"accuracy"`
	CurrentStreak int     `json:"current_streak"`
	BestStreak    int     `json:"best_streak"`
}

// Summarize folds records, newest first as returned by ListRounds.
func Summarize(records []domain.RoundRecord) Summary {
	var s Summary

	// Walk oldest to newest so streaks accumulate in play order.
	streak := 0
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		s.Rounds++
		s.BlanksTotal += r.Total
		s.BlanksRight += r.Correct
		if r.Forced {
			s.Forced++
		}
		if r.Passed {
			s.Passed++
			streak++
			s.BestStreak = max(s.BestStreak, streak)
		} else {
			streak = 0
		}
	}
	s.CurrentStreak = streak

	if s.BlanksTotal > 0 {
		s.Accuracy = float64(s.BlanksRight) / float64(s.BlanksTotal)
	}
	return s
}
