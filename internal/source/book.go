// Package source supplies raw book text for passage selection.
package source

import (
	"bufio"
	"context"
	"regexp"
	"strings"
)

// Book is a raw source text with whatever metadata could be recovered.
type Book struct {
	Title  string
	Author string
	Text   string
	Origin string // file path or URL
}

// Fetcher returns one book per call. Errors propagate to the caller.
type Fetcher interface {
	FetchSourceText(ctx context.Context) (Book, error)
}

var (
	startMarker = regexp.MustCompile(`(?i)^\s*\*{3}\s*START OF (?:THE|THIS) PROJECT GUTENBERG.*$`)
	endMarker   = regexp.MustCompile(`(?i)^\s*\*{3}\s*END OF (?:THE|THIS) PROJECT GUTENBERG.*$`)
	metaLine    = regexp.MustCompile(`^(Title|Author):\s*(.+?)\s*$`)
)

// ParseGutenberg pulls Title and Author from a Project Gutenberg header and
// keeps only the text between the START and END markers. Text without
// markers is returned unchanged.
func ParseGutenberg(raw string) Book {
	var (
		b       Book
		body    strings.Builder
		inBody  bool
		started bool
	)

	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case !started && startMarker.MatchString(line):
			started, inBody = true, true
			continue
		case inBody && endMarker.MatchString(line):
			inBody = false
			continue
		}

		if !started {
			if m := metaLine.FindStringSubmatch(line); m != nil {
				switch m[1] {
				case "Title":
					if b.Title == "" {
						b.Title = m[2]
					}
				case "Author":
					if b.Author == "" {
						b.Author = m[2]
					}
				}
			}
			continue
		}

		if inBody {
			body.WriteString(line)
			body.WriteByte('\n')
		}
	}

	if !started {
		b.Text = strings.TrimSpace(raw)
		return b
	}
	b.Text = strings.TrimSpace(body.String())
	return b
}
