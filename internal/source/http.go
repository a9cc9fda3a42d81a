package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"golang.org/x/net/html"

	"github.com/zmuhls/cloze-reader-sub000/internal/domain"
)

// maxBodyBytes caps a downloaded book.
const maxBodyBytes = 8 << 20

// Link is one remote book.
type Link struct {
	URL    string `yaml:"url"`
	Title  string `yaml:"title"`
	Author string `yaml:"author"`
}

// HTTPConfig configures an HTTPFetcher.
type HTTPConfig struct {
	Links []Link

	// RetryAttempts is the total number of tries per download (default: 3)
	RetryAttempts int

	// RetryBaseDelay is the first backoff delay (default: 1s)
	RetryBaseDelay time.Duration

	Client *http.Client
	Rand   *rand.Rand
}

// HTTPFetcher downloads a random book from a list of URLs. HTML pages are
// reduced to their text.
type HTTPFetcher struct {
	links   []Link
	client  *http.Client
	retrier retry.Retry[string]
	rng     *rand.Rand
}

type statusError struct {
	url  string
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("fetch %s: status %d", e.url, e.code)
}

// NewHTTPFetcher creates a fetcher with fortify retry around each download.
func NewHTTPFetcher(cfg HTTPConfig) *HTTPFetcher {
	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = 3
	}
	base := cfg.RetryBaseDelay
	if base <= 0 {
		base = time.Second
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return &HTTPFetcher{
		links:  cfg.Links,
		client: client,
		rng:    cfg.Rand,
		retrier: retry.New[string](retry.Config{
			MaxAttempts:   attempts,
			InitialDelay:  base,
			MaxDelay:      base * 8,
			Multiplier:    2.0,
			BackoffPolicy: retry.BackoffExponential,
			Jitter:        true,
			IsRetryable:   isRetryableFetch,
		}),
	}
}

// FetchSourceText downloads one random link.
func (f *HTTPFetcher) FetchSourceText(ctx context.Context) (Book, error) {
	if len(f.links) == 0 {
		return Book{}, fmt.Errorf("%w: no source URLs configured", domain.ErrEmptySource)
	}

	link := f.links[f.intN(len(f.links))]
	raw, err := f.retrier.Do(ctx, func(ctx context.Context) (string, error) {
		return f.download(ctx, link.URL)
	})
	if err != nil {
		return Book{}, err
	}

	book := ParseGutenberg(raw)
	if book.Text == "" {
		return Book{}, fmt.Errorf("%w: %s", domain.ErrEmptySource, link.URL)
	}
	if link.Title != "" {
		book.Title = link.Title
	}
	if link.Author != "" {
		book.Author = link.Author
	}
	if book.Title == "" {
		book.Title = "Untitled"
	}
	if book.Author == "" {
		book.Author = "Unknown"
	}
	book.Origin = link.URL
	return book, nil
}

func (f *HTTPFetcher) download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &statusError{url: url, code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", url, err)
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "html") {
		return StripHTML(string(body)), nil
	}
	return string(body), nil
}

func (f *HTTPFetcher) intN(n int) int {
	if f.rng != nil {
		return f.rng.IntN(n)
	}
	return rand.IntN(n)
}

func isRetryableFetch(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// blockElements end a line when stripped.
var blockElements = map[string]bool{
	"p": true, "br": true, "div": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "li": true, "pre": true, "blockquote": true, "tr": true,
}

// StripHTML returns the visible text of an HTML document, one line per
// block element. Script and style contents are dropped.
func StripHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var buf strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style" || n.Data == "head") {
			return
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extractText(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			buf.WriteByte('\n')
		}
	}
	extractText(doc)

	lines := strings.Split(buf.String(), "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
