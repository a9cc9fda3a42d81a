package source

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zmuhls/cloze-reader-sub000/internal/domain"
)

// DirFetcher picks a random .txt file from a directory.
type DirFetcher struct {
	dir string
	rng *rand.Rand
}

// NewDirFetcher creates a fetcher over dir. A nil rng uses the global source.
func NewDirFetcher(dir string, rng *rand.Rand) *DirFetcher {
	return &DirFetcher{dir: dir, rng: rng}
}

// FetchSourceText reads one random book from the directory.
func (f *DirFetcher) FetchSourceText(ctx context.Context) (Book, error) {
	if err := ctx.Err(); err != nil {
		return Book{}, err
	}

	paths, err := f.list()
	if err != nil {
		return Book{}, err
	}
	if len(paths) == 0 {
		return Book{}, fmt.Errorf("%w: no .txt files in %s", domain.ErrEmptySource, f.dir)
	}

	path := paths[f.intN(len(paths))]
	data, err := os.ReadFile(path)
	if err != nil {
		return Book{}, fmt.Errorf("read %s: %w", path, err)
	}

	book := ParseGutenberg(string(data))
	if book.Text == "" {
		return Book{}, fmt.Errorf("%w: %s", domain.ErrEmptySource, path)
	}
	if book.Title == "" {
		book.Title = titleFromFilename(path)
	}
	if book.Author == "" {
		book.Author = "Unknown"
	}
	book.Origin = path
	return book, nil
}

func (f *DirFetcher) list() ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("read source dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
			continue
		}
		paths = append(paths, filepath.Join(f.dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func (f *DirFetcher) intN(n int) int {
	if f.rng != nil {
		return f.rng.IntN(n)
	}
	return rand.IntN(n)
}

// titleFromFilename turns "pride_and-prejudice.txt" into "pride and prejudice".
func titleFromFilename(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.Join(strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	}), " ")
}
