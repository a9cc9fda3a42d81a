package domain

import "fmt"

// Blank is one redacted word position with its known answer.
type Blank struct {
	Index        int    `json:"index"`
	WordIndex    int    `json:"word_index"`
	OriginalWord string `json:"original_word"`
}

// NewBlanks builds blanks for the given word indices of p, numbered in the
// order given. Indices are expected sorted and unique.
func NewBlanks(p Passage, wordIndices []int) ([]Blank, error) {
	blanks := make([]Blank, 0, len(wordIndices))
	seen := make(map[int]bool, len(wordIndices))
	for i, wi := range wordIndices {
		if wi < 0 || wi >= p.WordCount() {
			return nil, fmt.Errorf("%w: word index %d out of range", ErrInvalidInput, wi)
		}
		if seen[wi] {
			return nil, fmt.Errorf("%w: duplicate word index %d", ErrInvalidInput, wi)
		}
		seen[wi] = true

		word := CleanWord(p.Word(wi))
		if word == "" {
			return nil, fmt.Errorf("%w: word index %d has no letters", ErrInvalidInput, wi)
		}
		blanks = append(blanks, Blank{
			Index:        i,
			WordIndex:    wi,
			OriginalWord: word,
		})
	}
	return blanks, nil
}
