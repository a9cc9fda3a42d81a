// Package quality selects a narrative passage out of a raw source text and
// rejects windows that look like front matter, reference material or
// formatting noise.
package quality

import (
	"log/slog"
	"math/rand/v2"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/zmuhls/cloze-reader-sub000/internal/domain"
)

// Config holds the sampling parameters.
type Config struct {
	// MaxAttempts is the number of windows sampled before giving up
	// (default: 8)
	MaxAttempts int

	// ScoreCeiling is the highest accepted penalty sum (default: 2.5)
	ScoreCeiling float64

	// MinLength is the shortest acceptable passage in characters
	// (default: 400)
	MinLength int

	// WindowStart and WindowEnd bound the sampled region as fractions of the
	// source text (default: 0.3 and 0.8)
	WindowStart float64
	WindowEnd   float64
}

// DefaultConfig returns the standard sampling parameters.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  8,
		ScoreCeiling: 2.5,
		MinLength:    400,
		WindowStart:  0.3,
		WindowEnd:    0.8,
	}
}

// Assessment is the outcome of scoring one candidate.
type Assessment struct {
	Score     float64
	Rejected  string // name of the hard rule that fired, if any
	Penalties map[string]float64
}

// Accepted reports whether the candidate passes under ceiling.
func (a Assessment) Accepted(ceiling float64) bool {
	return a.Rejected == "" && a.Score <= ceiling
}

// Selection is the passage chosen from a source text.
type Selection struct {
	Text       string
	Assessment Assessment
	Attempts   int
	Exhausted  bool // no window met the ceiling; Text is the last candidate
}

// Filter samples and scores passage windows.
type Filter struct {
	cfg       Config
	hardRules []HardRule
	rules     []Rule
	rng       *rand.Rand
	logger    *slog.Logger
}

// Option configures a Filter.
type Option func(*Filter)

// WithRand makes window sampling reproducible.
func WithRand(rng *rand.Rand) Option {
	return func(f *Filter) { f.rng = rng }
}

// WithLogger sets the filter's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Filter) { f.logger = logger }
}

// WithRules replaces the soft scoring rules.
func WithRules(rules []Rule) Option {
	return func(f *Filter) { f.rules = rules }
}

// NewFilter creates a filter with the default rule tables.
func NewFilter(cfg Config, opts ...Option) *Filter {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.ScoreCeiling <= 0 {
		cfg.ScoreCeiling = def.ScoreCeiling
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = def.MinLength
	}
	if cfg.WindowEnd <= cfg.WindowStart || cfg.WindowEnd > 1 {
		cfg.WindowStart, cfg.WindowEnd = def.WindowStart, def.WindowEnd
	}

	f := &Filter{
		cfg:       cfg,
		hardRules: DefaultHardRules(),
		rules:     DefaultRules(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Assess scores text at the given level. Hard rules short-circuit: the
// first one that fires is reported and soft rules are skipped.
func (f *Filter) Assess(text string, level int) Assessment {
	t := ThresholdsForLevel(level)
	s := NewStats(text)

	for _, hr := range f.hardRules {
		if hr.Reject(s, t) {
			return Assessment{Rejected: hr.Name}
		}
	}

	a := Assessment{Penalties: make(map[string]float64)}
	for _, r := range f.rules {
		if p := r.Penalty(s, t); p > 0 {
			a.Penalties[r.Name] = p
			a.Score += p
		}
	}
	return a
}

// SelectPassage returns the passage text chosen from fullText.
func (f *Filter) SelectPassage(fullText string, level int) string {
	return f.Select(fullText, level).Text
}

// Select samples up to MaxAttempts windows from the middle of fullText and
// returns the first one that passes. When none does, the last candidate is
// returned with Exhausted set: a low-quality round beats no round.
func (f *Filter) Select(fullText string, level int) Selection {
	source := []rune(strings.TrimSpace(fullText))
	if len(source) == 0 {
		return Selection{Exhausted: true}
	}

	windowLen := windowLength(level)

	var last Selection
	for attempt := 1; attempt <= f.cfg.MaxAttempts; attempt++ {
		window, atStart := f.sampleWindow(source, windowLen)
		candidate := TrimToSentences(window, atStart)
		a := f.Assess(candidate, level)

		last = Selection{
			Text:       candidate,
			Assessment: a,
			Attempts:   attempt,
		}

		if a.Accepted(f.cfg.ScoreCeiling) {
			return f.ensureLength(last, fullText)
		}

		f.logger.Debug("passage window rejected",
			"attempt", attempt,
			"rejected_by", a.Rejected,
			"score", a.Score)
	}

	last.Exhausted = true
	f.logger.Warn("no passage window met the quality ceiling",
		"error", domain.ErrPassageQualityExhausted,
		"attempts", last.Attempts,
		"score", last.Assessment.Score,
		"rejected_by", last.Assessment.Rejected)

	return f.ensureLength(last, fullText)
}

// ensureLength retries once with the simple sentence heuristic when the
// chosen text is too short.
func (f *Filter) ensureLength(sel Selection, fullText string) Selection {
	sel.Text = normalizeSpace(sel.Text)
	if utf8.RuneCountInString(sel.Text) >= f.cfg.MinLength {
		return sel
	}

	simple := normalizeSpace(SimpleSentenceWindow(fullText, f.cfg.MinLength))
	if utf8.RuneCountInString(simple) > utf8.RuneCountInString(sel.Text) {
		f.logger.Debug("passage too short, using simple sentence window",
			"length", utf8.RuneCountInString(sel.Text),
			"min_length", f.cfg.MinLength)
		sel.Text = simple
	}
	return sel
}

// sampleWindow picks windowLen runes starting inside the configured middle
// region. It reports whether the window begins at the start of the source.
func (f *Filter) sampleWindow(source []rune, windowLen int) (string, bool) {
	n := len(source)
	maxStart := n - windowLen
	if maxStart <= 0 {
		return string(source), true
	}

	lo := min(int(f.cfg.WindowStart*float64(n)), maxStart)
	hi := min(int(f.cfg.WindowEnd*float64(n))-windowLen, maxStart)
	if hi < lo {
		hi = lo
	}

	start := lo + f.randIntN(hi-lo+1)
	return string(source[start : start+windowLen]), start == 0
}

func (f *Filter) randIntN(n int) int {
	if f.rng != nil {
		return f.rng.IntN(n)
	}
	return rand.IntN(n)
}

// windowLength grows with level so later rounds read longer passages.
func windowLength(level int) int {
	switch {
	case level <= 2:
		return 1000
	case level <= 4:
		return 1200
	default:
		return 1500
	}
}

var (
	sentenceOpening = regexp.MustCompile(`[.!?]["'’”)\]]*\s+(["'“‘(]?[A-Z])`)
	spaceRun        = regexp.MustCompile(`\s+`)
)

// TrimToSentences cuts window to whole sentences: it starts at the first
// capital letter following terminal punctuation (unless the window already
// begins the source) and drops an incomplete trailing sentence.
func TrimToSentences(window string, atStart bool) string {
	text := window
	if !atStart {
		if m := sentenceOpening.FindStringSubmatchIndex(text); m != nil {
			text = text[m[2]:]
		}
	}

	ends := sentenceEnd.FindAllStringIndex(text, -1)
	if len(ends) > 0 {
		text = text[:ends[len(ends)-1][1]]
	}

	return strings.TrimSpace(text)
}

// SimpleSentenceWindow splits text into sentences and joins them starting
// from the middle of the text until minLength is reached.
func SimpleSentenceWindow(text string, minLength int) string {
	text = strings.TrimSpace(text)
	ends := sentenceEnd.FindAllStringIndex(text, -1)
	if len(ends) == 0 {
		return text
	}

	var sentences []string
	prev := 0
	for _, e := range ends {
		if s := strings.TrimSpace(text[prev:e[1]]); s != "" {
			sentences = append(sentences, s)
		}
		prev = e[1]
	}
	if len(sentences) == 0 {
		return text
	}

	// Walk back from the middle far enough that the tail can reach minLength.
	start := len(sentences) / 2
	for start > 0 && joinedLength(sentences[start:]) < minLength {
		start--
	}

	var b strings.Builder
	for _, s := range sentences[start:] {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s)
		if utf8.RuneCountInString(b.String()) >= minLength {
			break
		}
	}
	return b.String()
}

func joinedLength(sentences []string) int {
	n := 0
	for _, s := range sentences {
		n += utf8.RuneCountInString(s) + 1
	}
	return n
}

func normalizeSpace(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}
