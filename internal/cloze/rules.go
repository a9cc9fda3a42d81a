package cloze

// DefaultMaxAttempts is the per-blank attempt ceiling.
const DefaultMaxAttempts = 5

// RequiredCorrect returns how many blanks must be correct for a final
// submission to pass. Two blanks need both; from three on one miss is
// allowed.
func RequiredCorrect(total int) int {
	switch {
	case total <= 0:
		return 0
	case total <= 2:
		return total
	default:
		return total - 1
	}
}

// BlanksForLevel returns the number of blanks a round at level gets.
func BlanksForLevel(level int) int {
	switch {
	case level <= 5:
		return 1
	case level <= 10:
		return 2
	default:
		return 3
	}
}
