// Package redact picks which words of a passage become blanks.
//
// The same Selector serves two callers: the deterministic fallback that
// scores every token and picks the best spread of candidates, and the
// locator that maps words suggested by an external oracle back onto token
// positions.
package redact

import (
	"log/slog"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/zmuhls/cloze-reader-sub000/internal/domain"
)

// Selector chooses token indices to redact. It is not safe for concurrent
// use when built with a seeded source.
type Selector struct {
	rng    *rand.Rand
	logger *slog.Logger
}

// Option configures a Selector.
type Option func(*Selector)

// WithRand makes selection reproducible.
func WithRand(rng *rand.Rand) Option {
	return func(s *Selector) { s.rng = rng }
}

// WithLogger sets the logger used for selection diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Selector) { s.logger = logger }
}

// NewSelector creates a selector. Without WithRand it draws from the
// process-wide random source.
func NewSelector(opts ...Option) *Selector {
	s := &Selector{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type candidate struct {
	index int
	score float64
}

// Score returns the jittered score of words[i] and whether the token is
// eligible at all.
func (s *Selector) Score(words []string, i int) (float64, bool) {
	if i < 0 || i >= len(words) || !eligible(words[i]) {
		return 0, false
	}
	return baseScore(words, i) + s.randFloat()*maxJitter, true
}

// ChooseIndices picks up to count token indices to redact. The result is
// sorted ascending, unique, and never longer than min(count, eligible).
func (s *Selector) ChooseIndices(words []string, count int) []int {
	return s.ChooseIndicesExcluding(words, count, nil)
}

// ChooseIndicesExcluding is ChooseIndices that treats the excluded indices as
// already taken: they are never returned and count for adjacency.
func (s *Selector) ChooseIndicesExcluding(words []string, count int, exclude []int) []int {
	if count <= 0 || len(words) == 0 {
		return []int{}
	}

	taken := make(map[int]bool, len(exclude))
	for _, i := range exclude {
		taken[i] = true
	}

	// Function words only enter the pool when there are not enough other
	// candidates to fill the request.
	var preferred, fallback []candidate
	for i := range words {
		if taken[i] {
			continue
		}
		score, ok := s.Score(words, i)
		if !ok {
			continue
		}
		c := candidate{index: i, score: score}
		if IsFunctionWord(domain.CleanWord(words[i])) {
			fallback = append(fallback, c)
		} else {
			preferred = append(preferred, c)
		}
	}

	byScore := func(cs []candidate) {
		sort.SliceStable(cs, func(a, b int) bool {
			return cs[a].score > cs[b].score
		})
	}
	byScore(preferred)
	byScore(fallback)

	poolSize := min(3*count, len(preferred))
	pool := make([]candidate, poolSize, poolSize+len(fallback))
	copy(pool, preferred[:poolSize])
	if missing := count - len(pool); missing > 0 {
		pool = append(pool, fallback[:min(missing, len(fallback))]...)
	}

	var accepted []int
	var deferred []int

	for len(accepted) < count && len(pool) > 0 {
		j := s.randIntN(len(pool))
		c := pool[j]
		pool = append(pool[:j], pool[j+1:]...)

		if adjacent(c.index, accepted, taken) {
			deferred = append(deferred, c.index)
			continue
		}
		accepted = append(accepted, c.index)
	}

	// The pool is exhausted; take adjacent candidates rather than stall.
	for len(accepted) < count && len(deferred) > 0 {
		accepted = append(accepted, deferred[0])
		deferred = deferred[1:]
	}

	sort.Ints(accepted)

	s.logger.Debug("chose redaction indices",
		"requested", count,
		"eligible", len(preferred)+len(fallback),
		"chosen", len(accepted))

	return accepted
}

// Locate finds a token position for each suggested word. For suggested word
// i of n it searches, in order: the i-th of n equal sections of the passage
// skipping the first ten tokens and capitalized tokens; the whole passage
// with the same exclusions; the passage from token five on; and finally a
// substring match. The first hit wins and no position is used twice. Words
// that cannot be placed are dropped. The result is sorted ascending.
func (s *Selector) Locate(words []string, suggested []string) []int {
	used := make(map[int]bool, len(suggested))
	var found []int

	n := len(suggested)
	for i, sw := range suggested {
		target := strings.ToLower(domain.CleanWord(sw))
		if target == "" {
			continue
		}

		start := i * len(words) / n
		end := (i + 1) * len(words) / n

		idx := findExact(words, target, start, end, locateSkipPrefix, true, used)
		if idx < 0 {
			idx = findExact(words, target, 0, len(words), locateSkipPrefix, true, used)
		}
		if idx < 0 {
			idx = findExact(words, target, 0, len(words), locateRelaxedStart, false, used)
		}
		if idx < 0 {
			idx = findContains(words, target, used)
		}
		if idx < 0 {
			s.logger.Debug("suggested word not found in passage", "word", sw)
			continue
		}

		used[idx] = true
		found = append(found, idx)
	}

	sort.Ints(found)
	return found
}

func findExact(words []string, target string, start, end, skip int, skipCapitalized bool, used map[int]bool) int {
	start = max(start, skip)
	end = min(end, len(words))
	for j := start; j < end; j++ {
		if used[j] {
			continue
		}
		clean := domain.CleanWord(words[j])
		if skipCapitalized && domain.IsCapitalized(clean) {
			continue
		}
		if strings.ToLower(clean) == target {
			return j
		}
	}
	return -1
}

func findContains(words []string, target string, used map[int]bool) int {
	for j, w := range words {
		if used[j] {
			continue
		}
		if strings.Contains(strings.ToLower(w), target) {
			return j
		}
	}
	return -1
}

func adjacent(index int, accepted []int, taken map[int]bool) bool {
	if taken[index-1] || taken[index+1] {
		return true
	}
	for _, a := range accepted {
		if a == index-1 || a == index+1 {
			return true
		}
	}
	return false
}

func (s *Selector) randIntN(n int) int {
	if s.rng != nil {
		return s.rng.IntN(n)
	}
	return rand.IntN(n)
}

func (s *Selector) randFloat() float64 {
	if s.rng != nil {
		return s.rng.Float64()
	}
	return rand.Float64()
}
