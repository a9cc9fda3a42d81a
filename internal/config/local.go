package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/zmuhls/cloze-reader-sub000/internal/source"
)

// Storage drivers.
const (
	DriverLocal    = "local"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// LocalConfig holds everything the cloze CLI reads from config.yaml.
type LocalConfig struct {
	LogLevel string        `yaml:"log_level"`
	LLM      LLMConfig     `yaml:"llm"`
	Game     GameConfig    `yaml:"game"`
	Storage  StorageConfig `yaml:"storage"`
	Queue    QueueConfig   `yaml:"queue"`
	Source   SourceConfig  `yaml:"source"`
	MCP      MCPConfig     `yaml:"mcp"`
	Server   ServerConfig  `yaml:"server"`
}

// LLMConfig holds LLM provider settings
type LLMConfig struct {
	DefaultProvider string                     `yaml:"default_provider"`
	Providers       map[string]*ProviderConfig `yaml:"providers"`
}

// ProviderConfig holds settings for a single LLM provider
type ProviderConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	URL     string `yaml:"url,omitempty"`
	APIKey  string `yaml:"-"` // Loaded from secrets.yaml
}

// GameConfig tunes rounds and the word oracle.
type GameConfig struct {
	PlayerID             string  `yaml:"player_id"`
	MaxAttempts          int     `yaml:"max_attempts"`
	OracleTimeoutSeconds int     `yaml:"oracle_timeout_seconds"`
	OracleRetries        int     `yaml:"oracle_retries"`
	QualityCeiling       float64 `yaml:"quality_ceiling"`
	SampleAttempts       int     `yaml:"sample_attempts"`
	MinPassageLength     int     `yaml:"min_passage_length"`
}

// StorageConfig selects where progress is kept. Path is the directory for
// the local driver and the database file for sqlite; DSN is for postgres.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path,omitempty"`
	DSN    string `yaml:"dsn,omitempty"`
}

// QueueConfig enables round-completed events on RabbitMQ.
type QueueConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url,omitempty"`
}

// SourceConfig lists where books come from. A directory wins over URLs.
type SourceConfig struct {
	Dir  string        `yaml:"dir,omitempty"`
	URLs []source.Link `yaml:"urls,omitempty"`
}

// MCPConfig holds MCP transport settings.
type MCPConfig struct {
	HTTPAddr string `yaml:"http_addr,omitempty"`
}

// ServerConfig holds the HTTP API listen address.
type ServerConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

// Addr returns bind:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}

// SecretsConfig holds API keys loaded from secrets.yaml
type SecretsConfig struct {
	Providers map[string]struct {
		APIKey string `yaml:"api_key"`
	} `yaml:"providers"`
}

// ClozeDir returns the path to ~/.cloze
func ClozeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".cloze"), nil
}

// EnsureClozeDir creates ~/.cloze and subdirectories if they don't exist
func EnsureClozeDir() (string, error) {
	dir, err := ClozeDir()
	if err != nil {
		return "", err
	}
	for _, subdir := range []string{"", "logs", "data", "books"} {
		path := filepath.Join(dir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", fmt.Errorf("create dir %s: %w", path, err)
		}
	}
	return dir, nil
}

// DefaultLocalConfig returns defaults for local play: file storage, books
// from ~/.cloze/books, OpenRouter with Ollama as an alternative.
func DefaultLocalConfig() *LocalConfig {
	return &LocalConfig{
		LogLevel: "info",
		LLM: LLMConfig{
			DefaultProvider: "openrouter",
			Providers: map[string]*ProviderConfig{
				"openrouter": {
					Enabled: true,
					Model:   "google/gemma-3-27b-it",
					URL:     "https://openrouter.ai/api",
				},
				"ollama": {
					Enabled: false,
					Model:   "gemma3",
					URL:     "http://localhost:11434",
				},
			},
		},
		Game: GameConfig{
			PlayerID:             "default",
			MaxAttempts:          5,
			OracleTimeoutSeconds: 15,
			OracleRetries:        3,
			QualityCeiling:       2.5,
			SampleAttempts:       8,
			MinPassageLength:     400,
		},
		Storage: StorageConfig{Driver: DriverLocal},
		Server:  ServerConfig{Bind: "127.0.0.1", Port: 7433},
	}
}

// Validate reports settings that cannot work together.
func (c *LocalConfig) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case DriverLocal, DriverSQLite:
	case DriverPostgres:
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}
	if c.Queue.Enabled && c.Queue.URL == "" {
		errs = append(errs, errors.New("queue.url is required when the queue is enabled"))
	}
	if c.Game.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("game.max_attempts must be at least 1, got %d", c.Game.MaxAttempts))
	}
	if c.Game.QualityCeiling <= 0 {
		errs = append(errs, fmt.Errorf("game.quality_ceiling must be positive, got %g", c.Game.QualityCeiling))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if p := c.LLM.DefaultProvider; p != "" && p != "none" {
		if _, ok := c.LLM.Providers[p]; !ok {
			errs = append(errs, fmt.Errorf("default provider %q is not configured", p))
		}
	}
	return errors.Join(errs...)
}

// LoadLocalConfig loads ~/.cloze/config.yaml and secrets.yaml over the
// defaults, then applies environment overrides.
func LoadLocalConfig() (*LocalConfig, error) {
	dir, err := ClozeDir()
	if err != nil {
		return nil, err
	}
	cfg, err := loadFrom(dir)
	if err != nil {
		return nil, err
	}
	ApplyEnv(cfg)
	return cfg, nil
}

func loadFrom(dir string) (*LocalConfig, error) {
	cfg := DefaultLocalConfig()

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := loadSecrets(dir, cfg); err != nil {
		return nil, fmt.Errorf("load secrets: %w", err)
	}
	return cfg, nil
}

// loadSecrets loads API keys from secrets.yaml
func loadSecrets(dir string, cfg *LocalConfig) error {
	data, err := os.ReadFile(filepath.Join(dir, "secrets.yaml"))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read secrets: %w", err)
	}

	var secrets SecretsConfig
	if err := yaml.Unmarshal(data, &secrets); err != nil {
		return fmt.Errorf("parse secrets: %w", err)
	}
	for name, secret := range secrets.Providers {
		if provider, ok := cfg.LLM.Providers[name]; ok {
			provider.APIKey = secret.APIKey
		}
	}
	return nil
}

// SaveLocalConfig saves configuration to ~/.cloze/config.yaml
func SaveLocalConfig(cfg *LocalConfig) error {
	dir, err := EnsureClozeDir()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// SaveSecrets saves API keys to ~/.cloze/secrets.yaml, readable by the
// owner only.
func SaveSecrets(secrets map[string]string) error {
	dir, err := EnsureClozeDir()
	if err != nil {
		return err
	}

	secretsCfg := SecretsConfig{
		Providers: make(map[string]struct {
			APIKey string `yaml:"api_key"`
		}),
	}
	for name, key := range secrets {
		secretsCfg.Providers[name] = struct {
			APIKey string `yaml:"api_key"`
		}{APIKey: key}
	}

	data, err := yaml.Marshal(secretsCfg)
	if err != nil {
		return fmt.Errorf("marshal secrets: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "secrets.yaml"), data, 0600); err != nil {
		return fmt.Errorf("write secrets: %w", err)
	}
	return nil
}
