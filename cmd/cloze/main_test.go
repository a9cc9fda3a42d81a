package main

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zmuhls/cloze-reader-sub000/internal/cloze"
	"github.com/zmuhls/cloze-reader-sub000/internal/config"
	"github.com/zmuhls/cloze-reader-sub000/internal/domain"
	"github.com/zmuhls/cloze-reader-sub000/internal/progress"
	"github.com/zmuhls/cloze-reader-sub000/internal/queue"
	"github.com/zmuhls/cloze-reader-sub000/internal/source"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v; want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		args    []string
		want    int
		wantErr bool
	}{
		{nil, 1, false},
		{[]string{"4"}, 4, false},
		{[]string{"0"}, 0, true},
		{[]string{"-2"}, 0, true},
		{[]string{"four"}, 0, true},
	}
	for _, tt := range tests {
		got, err := parseLevel(tt.args)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLevel(%v) error = %v; wantErr %v", tt.args, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseLevel(%v) = %d; want %d", tt.args, got, tt.want)
		}
	}
}

func TestStoreLocation(t *testing.T) {
	dir := "/home/reader/.cloze"
	tests := []struct {
		name    string
		cfg     config.StorageConfig
		want    string
		wantErr bool
	}{
		{"local default", config.StorageConfig{Driver: config.DriverLocal}, filepath.Join(dir, "data"), false},
		{"empty driver", config.StorageConfig{}, filepath.Join(dir, "data"), false},
		{"local path", config.StorageConfig{Driver: config.DriverLocal, Path: "/srv/cloze"}, "/srv/cloze", false},
		{"sqlite default", config.StorageConfig{Driver: config.DriverSQLite}, filepath.Join(dir, "data", "cloze.db"), false},
		{"sqlite path", config.StorageConfig{Driver: config.DriverSQLite, Path: "/tmp/c.db"}, "/tmp/c.db", false},
		{"postgres dsn", config.StorageConfig{Driver: config.DriverPostgres, DSN: "postgres://db/cloze"}, "postgres://db/cloze", false},
		{"postgres without dsn", config.StorageConfig{Driver: config.DriverPostgres}, "", true},
		{"unknown driver", config.StorageConfig{Driver: "mongo"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := storeLocation(tt.cfg, dir)
			if (err != nil) != tt.wantErr {
				t.Fatalf("storeLocation() error = %v; wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("storeLocation() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestOpenStore_Local(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, closeFn, err := openStore(ctx, config.StorageConfig{Driver: config.DriverLocal}, dir)
	if err != nil {
		t.Fatalf("openStore() error = %v", err)
	}
	if closeFn != nil {
		t.Error("file store should not need closing")
	}
	if _, ok := store.(*progress.FileStore); !ok {
		t.Errorf("store = %T; want *progress.FileStore", store)
	}

	want := domain.Progress{Level: 3, Round: 9}
	if err := store.SaveProgress(ctx, "p1", want); err != nil {
		t.Fatalf("SaveProgress() error = %v", err)
	}
	got, err := store.LoadProgress(ctx, "p1")
	if err != nil {
		t.Fatalf("LoadProgress() error = %v", err)
	}
	if got != want {
		t.Errorf("LoadProgress() = %+v; want %+v", got, want)
	}
}

func TestOpenStore_SQLite(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, closeFn, err := openStore(ctx, config.StorageConfig{Driver: config.DriverSQLite}, dir)
	if err != nil {
		t.Fatalf("openStore() error = %v", err)
	}
	defer closeFn()

	if _, err := store.LoadProgress(ctx, "nobody"); err == nil {
		t.Error("LoadProgress() on empty database should fail")
	}
}

func TestNewFetcher(t *testing.T) {
	dir := t.TempDir()

	if _, ok := newFetcher(config.SourceConfig{Dir: "/books"}, dir).(*source.DirFetcher); !ok {
		t.Error("configured dir should give a DirFetcher")
	}
	links := []source.Link{{URL: "https://example.com/book.txt"}}
	if _, ok := newFetcher(config.SourceConfig{URLs: links}, dir).(*source.HTTPFetcher); !ok {
		t.Error("configured urls should give an HTTPFetcher")
	}
	if _, ok := newFetcher(config.SourceConfig{}, dir).(*source.DirFetcher); !ok {
		t.Error("empty source config should fall back to the books dir")
	}
}

func TestBuildRegistry(t *testing.T) {
	cfg := config.DefaultLocalConfig()
	cfg.LLM.Providers["ollama"].Enabled = true

	// openrouter has no key, so only ollama registers.
	registry := buildRegistry(cfg)
	names := registry.List()
	if len(names) != 1 || names[0] != "ollama" {
		t.Errorf("registered = %v; want [ollama]", names)
	}

	cfg.LLM.Providers["openrouter"].APIKey = "sk-test"
	names = buildRegistry(cfg).List()
	if len(names) != 2 {
		t.Errorf("registered = %v; want ollama and openrouter", names)
	}
}

func TestOracleProvider(t *testing.T) {
	cfg := config.DefaultLocalConfig()
	if p := oracleProvider(cfg); p != nil {
		t.Errorf("oracleProvider() without keys = %v; want nil", p.Name())
	}

	cfg.LLM.Providers["openrouter"].APIKey = "sk-test"
	p := oracleProvider(cfg)
	if p == nil {
		t.Fatal("oracleProvider() = nil; want openrouter")
	}
	if p.Name() != "openrouter" {
		t.Errorf("Name() = %q; want %q", p.Name(), "openrouter")
	}

	cfg.LLM.DefaultProvider = "none"
	if p := oracleProvider(cfg); p != nil {
		t.Error("oracleProvider() with provider none should be nil")
	}
}

func TestResultSummary(t *testing.T) {
	tests := []struct {
		name string
		res  domain.SubmissionResult
		want string
	}{
		{"passed", domain.SubmissionResult{Correct: 2, Total: 2, Passed: true, IsFinal: true, LevelAfter: 3}, "2 of 2 correct. Passed! Now at level 3."},
		{"retry", domain.SubmissionResult{Correct: 1, Total: 3, CanRetry: true}, "1 of 3 correct. Try the open gaps again."},
		{"forced", domain.SubmissionResult{Correct: 0, Total: 1, Forced: true, IsFinal: true, RequiredCorrect: 1}, "0 of 1 correct. Round over; 1 needed to pass."},
		{"out of attempts", domain.SubmissionResult{Correct: 1, Total: 3, IsFinal: true, MaxAttemptsReached: true, RequiredCorrect: 2}, "1 of 3 correct. Out of attempts; 2 needed to pass."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resultSummary(tt.res); got != tt.want {
				t.Errorf("resultSummary() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestPrintStats(t *testing.T) {
	var buf bytes.Buffer
	printStats(&buf, progress.Summary{}, nil)
	if !strings.Contains(buf.String(), "No rounds played yet") {
		t.Errorf("empty stats output = %q", buf.String())
	}

	buf.Reset()
	records := []domain.RoundRecord{
		{Level: 2, Correct: 1, Total: 1, Passed: true, Title: "Emma", CompletedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		{Level: 1, Correct: 0, Total: 1, Forced: true, CompletedAt: time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)},
	}
	printStats(&buf, progress.Summarize(records), records)
	out := buf.String()
	for _, want := range []string{"Rounds:          2 (1 passed, 1 given up)", "Words:           1 of 2 (50%)", "Emma", "untitled", "gave up"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintEvent(t *testing.T) {
	var buf bytes.Buffer
	handler := printEvent(&buf)

	if err := handler(context.Background(), queue.RoundEvent{PlayerID: "p1", Level: 2, Passed: true}); err != nil {
		t.Fatalf("handler() error = %v", err)
	}
	out := buf.String()
	if !strings.HasSuffix(out, "\n") || strings.Count(out, "\n") != 1 {
		t.Errorf("output = %q; want one JSON line", out)
	}
	if !strings.Contains(out, `"p1"`) {
		t.Errorf("output = %q; want player id", out)
	}
}

// fakeGame scripts a two-blank round that passes on the first full
// submission.
type fakeGame struct {
	view      cloze.View
	submitted []map[int]string
	gaveUp    bool
	giveUpArg map[int]string
}

func newFakeGame() *fakeGame {
	return &fakeGame{view: cloze.View{
		Level: 1, Round: 1, Required: 1, MaxAttempts: 5,
		Text:   "The [1]____ sat on the [2]____.",
		Blanks: []cloze.BlankView{{Index: 0}, {Index: 1}},
	}}
}

func (g *fakeGame) Start(ctx context.Context) (cloze.View, error) { return g.view, nil }
func (g *fakeGame) View() (cloze.View, error)                     { return g.view, nil }

func (g *fakeGame) Submit(ctx context.Context, answers map[int]string) (domain.SubmissionResult, error) {
	g.submitted = append(g.submitted, answers)
	return domain.SubmissionResult{Correct: 2, Total: 2, Passed: true, IsFinal: true, LevelAfter: 2}, nil
}

func (g *fakeGame) GiveUp(ctx context.Context, answers map[int]string) (domain.SubmissionResult, error) {
	g.gaveUp = true
	g.giveUpArg = answers
	return domain.SubmissionResult{Total: 2, Forced: true, IsFinal: true, RequiredCorrect: 1, LevelAfter: 1}, nil
}

func (g *fakeGame) Hint(idx int) (cloze.Hint, error) {
	return cloze.Hint{BlankIndex: idx, Length: 3, FirstLetter: "c"}, nil
}

func TestPlayer_PassRound(t *testing.T) {
	g := newFakeGame()
	var out bytes.Buffer
	p := newPlayer(g, strings.NewReader(":hint\ncat\nmat\n:quit\n"), &out)

	if err := p.run(context.Background()); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	if len(g.submitted) != 1 {
		t.Fatalf("submissions = %d; want 1", len(g.submitted))
	}
	if got := g.submitted[0]; got[0] != "cat" || got[1] != "mat" {
		t.Errorf("submitted = %v; want map[0:cat 1:mat]", got)
	}
	text := out.String()
	if !strings.Contains(text, `Hint: 3 letters, starts with "c"`) {
		t.Errorf("output missing hint:\n%s", text)
	}
	if !strings.Contains(text, "Passed! Now at level 2.") {
		t.Errorf("output missing result:\n%s", text)
	}
}

func TestPlayer_GiveUp(t *testing.T) {
	g := newFakeGame()
	var out bytes.Buffer
	p := newPlayer(g, strings.NewReader(":give-up\n"), &out)

	if err := p.run(context.Background()); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !g.gaveUp {
		t.Fatal("GiveUp was not called")
	}
	if g.giveUpArg != nil {
		t.Errorf("GiveUp answers = %v; want nil to reuse the last submission", g.giveUpArg)
	}
	if len(g.submitted) != 0 {
		t.Errorf("submissions = %d; want 0", len(g.submitted))
	}
	if !strings.Contains(out.String(), "Round over; 1 needed to pass.") {
		t.Errorf("output missing result:\n%s", out.String())
	}
}

func TestPlayer_QuitMidRound(t *testing.T) {
	g := newFakeGame()
	var out bytes.Buffer
	p := newPlayer(g, strings.NewReader("cat\n:quit\n"), &out)

	if err := p.run(context.Background()); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if len(g.submitted) != 0 || g.gaveUp {
		t.Error("quitting mid-round should neither submit nor give up")
	}
}
