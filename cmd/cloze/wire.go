package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/zmuhls/cloze-reader-sub000/internal/config"
	"github.com/zmuhls/cloze-reader-sub000/internal/describe"
	"github.com/zmuhls/cloze-reader-sub000/internal/game"
	"github.com/zmuhls/cloze-reader-sub000/internal/llm"
	"github.com/zmuhls/cloze-reader-sub000/internal/progress"
	"github.com/zmuhls/cloze-reader-sub000/internal/quality"
	"github.com/zmuhls/cloze-reader-sub000/internal/queue"
	"github.com/zmuhls/cloze-reader-sub000/internal/source"
	"github.com/zmuhls/cloze-reader-sub000/internal/storage/postgres"
	"github.com/zmuhls/cloze-reader-sub000/internal/storage/sqlite"
	"github.com/zmuhls/cloze-reader-sub000/internal/suggest"
)

var errNoDSN = errors.New("storage.dsn (or DATABASE_URL) is required for the postgres driver")

// app holds everything a command needs, plus what must be closed on exit.
type app struct {
	cfg     *config.LocalConfig
	dir     string
	fetcher source.Fetcher
	filter  *quality.Filter
	game    *game.Service
	closers []func() error
}

// setup loads configuration, starts logging and wires the game service.
func setup(ctx context.Context, console bool) (*app, error) {
	dir, err := config.EnsureClozeDir()
	if err != nil {
		return nil, fmt.Errorf("create cloze dir: %w", err)
	}

	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &app{cfg: cfg, dir: dir}

	logFile, err := setupLogging(dir, parseLogLevel(cfg.LogLevel), console)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, logFile.Close)

	store, closeStore, err := openStore(ctx, cfg.Storage, dir)
	if err != nil {
		a.Close()
		return nil, err
	}
	if closeStore != nil {
		a.closers = append(a.closers, closeStore)
	}

	a.filter = quality.NewFilter(quality.Config{
		MaxAttempts:  cfg.Game.SampleAttempts,
		ScoreCeiling: cfg.Game.QualityCeiling,
		MinLength:    cfg.Game.MinPassageLength,
	})
	a.fetcher = newFetcher(cfg.Source, dir)

	svc := game.NewService(game.Config{
		PlayerID:    cfg.Game.PlayerID,
		MaxAttempts: cfg.Game.MaxAttempts,
	}, a.fetcher, store, a.filter, nil)

	if provider := oracleProvider(cfg); provider != nil {
		timeout := time.Duration(cfg.Game.OracleTimeoutSeconds) * time.Second
		svc.SetOracle(suggest.NewAdapter(provider, suggest.WithTimeout(timeout)))
		svc.SetDescriber(describe.NewDescriber(provider, slog.Default()))
		slog.Info("word oracle enabled", "provider", provider.Name())
	}

	if cfg.Queue.Enabled {
		conn, err := queue.NewConnection(cfg.Queue.URL)
		if err != nil {
			slog.Warn("round events disabled", "error", err)
		} else {
			a.closers = append(a.closers, conn.Close)
			svc.SetEventPublisher(queue.NewProducer(conn))
		}
	}

	a.game = svc
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}

// buildRegistry registers every enabled provider that has the credentials
// it needs. Ollama runs locally and needs none.
func buildRegistry(cfg *config.LocalConfig) *llm.Registry {
	registry := llm.NewRegistry()

	for name, providerCfg := range cfg.LLM.Providers {
		if providerCfg == nil || !providerCfg.Enabled || (providerCfg.APIKey == "" && name != "ollama") {
			continue
		}

		switch name {
		case "openrouter", "openai":
			registry.Register(name, llm.NewOpenAIProvider(llm.OpenAIConfig{
				Name:    name,
				APIKey:  providerCfg.APIKey,
				BaseURL: providerCfg.URL,
				Model:   providerCfg.Model,
				Title:   "Cloze Reader",
			}))
		case "ollama":
			registry.Register(name, llm.NewOllamaProvider(llm.OllamaConfig{
				BaseURL: providerCfg.URL,
				Model:   providerCfg.Model,
			}))
		default:
			slog.Warn("unknown llm provider", "name", name)
		}
	}

	if name := cfg.LLM.DefaultProvider; name != "" {
		if err := registry.SetDefault(name); err != nil {
			slog.Debug("default provider unavailable", "name", name, "error", err)
		}
	}
	return registry
}

// oracleProvider returns the resilient default provider, or nil when the
// oracle is switched off or nothing is registered.
func oracleProvider(cfg *config.LocalConfig) llm.Provider {
	if cfg.LLM.DefaultProvider == "none" {
		return nil
	}
	provider, err := buildRegistry(cfg).Default()
	if err != nil {
		slog.Info("no llm provider configured, using local word selection")
		return nil
	}

	rc := llm.DefaultResilientConfig()
	rc.RetryAttempts = cfg.Game.OracleRetries
	return llm.NewResilientProvider(provider, rc)
}

// newFetcher prefers a configured directory, then configured URLs, then
// ~/.cloze/books.
func newFetcher(cfg config.SourceConfig, clozeDir string) source.Fetcher {
	if cfg.Dir != "" {
		return source.NewDirFetcher(cfg.Dir, nil)
	}
	if len(cfg.URLs) > 0 {
		return source.NewHTTPFetcher(source.HTTPConfig{Links: cfg.URLs})
	}
	return source.NewDirFetcher(filepath.Join(clozeDir, "books"), nil)
}

// storeLocation resolves where the configured driver keeps its data.
func storeLocation(cfg config.StorageConfig, clozeDir string) (string, error) {
	switch cfg.Driver {
	case config.DriverLocal, "":
		if cfg.Path != "" {
			return cfg.Path, nil
		}
		return filepath.Join(clozeDir, "data"), nil
	case config.DriverSQLite:
		if cfg.Path != "" {
			return cfg.Path, nil
		}
		return filepath.Join(clozeDir, "data", "cloze.db"), nil
	case config.DriverPostgres:
		if cfg.DSN == "" {
			return "", errNoDSN
		}
		return cfg.DSN, nil
	default:
		return "", fmt.Errorf("unknown storage driver: %q", cfg.Driver)
	}
}

// openStore opens and migrates the configured progress store. The returned
// closer is nil for the file store.
func openStore(ctx context.Context, cfg config.StorageConfig, clozeDir string) (progress.Store, func() error, error) {
	location, err := storeLocation(cfg, clozeDir)
	if err != nil {
		return nil, nil, err
	}

	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(location)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		return sqlite.NewProgressStore(db), db.Close, nil
	case config.DriverPostgres:
		store, err := postgres.Open(ctx, location)
		if err != nil {
			return nil, nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return store, store.Close, nil
	default:
		if err := os.MkdirAll(location, 0755); err != nil {
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
		store, err := progress.NewFileStore(location)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	}
}
