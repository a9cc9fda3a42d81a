package quality

// Thresholds are the ratio limits rules compare against. Higher levels get
// stricter limits.
type Thresholds struct {
	MaxAllCapsRatio     float64
	MaxCapitalizedRatio float64
	MaxDigitRatio       float64
	MaxPunctuationRatio float64
	MaxBracketRatio     float64
	MaxShortWordRatio   float64
	MinSentenceLength   float64
	MaxSentenceLength   float64
}

// strictLevel is the first level that uses the tighter thresholds.
const strictLevel = 5

// ThresholdsForLevel returns the limits for a difficulty level.
func ThresholdsForLevel(level int) Thresholds {
	t := Thresholds{
		MaxAllCapsRatio:     0.12,
		MaxCapitalizedRatio: 0.20,
		MaxDigitRatio:       0.02,
		MaxPunctuationRatio: 0.10,
		MaxBracketRatio:     0.03,
		MaxShortWordRatio:   0.65,
		MinSentenceLength:   8,
		MaxSentenceLength:   40,
	}
	if level >= strictLevel {
		t.MaxAllCapsRatio = 0.08
		t.MaxCapitalizedRatio = 0.15
		t.MaxDigitRatio = 0.01
		t.MaxPunctuationRatio = 0.08
		t.MaxBracketRatio = 0.02
	}
	return t
}
