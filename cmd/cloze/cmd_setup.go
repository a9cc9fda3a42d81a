package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zmuhls/cloze-reader-sub000/internal/config"
)

// cmdInit initializes cloze for first-time use
func cmdInit() error {
	fmt.Println("Cloze - First-Time Setup")
	fmt.Println("========================")
	fmt.Println()

	fmt.Print("Creating ~/.cloze directory structure... ")
	clozeDir, err := config.EnsureClozeDir()
	if err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	fmt.Println("✓")

	configPath := filepath.Join(clozeDir, "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Print("Creating default configuration... ")
		if err := config.SaveLocalConfig(config.DefaultLocalConfig()); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Println("✓")
	} else {
		fmt.Println("Configuration already exists ✓")
	}

	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Println()
	if p := cfg.LLM.Providers["openrouter"]; p != nil && p.APIKey != "" {
		fmt.Println("OpenRouter API key: already configured ✓")
	} else {
		fmt.Print("Enter OpenRouter API key (or press Enter to use local word selection): ")
		key, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if key = strings.TrimSpace(key); key != "" {
			if err := config.SaveSecrets(map[string]string{"openrouter": key}); err != nil {
				return fmt.Errorf("save secrets: %w", err)
			}
			fmt.Println("OpenRouter API key saved ✓")
		}
	}

	booksDir := filepath.Join(clozeDir, "books")
	fmt.Println()
	fmt.Println("Setup complete. Drop plain-text books (.txt) into")
	fmt.Printf("  %s\n", booksDir)
	fmt.Println("or list URLs under source.urls in config.yaml, then run 'cloze play'.")
	return nil
}

// cmdConfig shows the effective configuration without secrets.
func cmdConfig() error {
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Println("Cloze Configuration")
	fmt.Println()
	fmt.Printf("log_level: %s\n", cfg.LogLevel)

	fmt.Println("\nLLM:")
	fmt.Printf("  default_provider: %s\n", cfg.LLM.DefaultProvider)
	names := make([]string, 0, len(cfg.LLM.Providers))
	for name := range cfg.LLM.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		provider := cfg.LLM.Providers[name]
		keyStatus := "✗"
		if provider.APIKey != "" || name == "ollama" {
			keyStatus = "✓"
		}
		fmt.Printf("  %s: enabled=%t model=%s key=%s\n", name, provider.Enabled, provider.Model, keyStatus)
	}

	fmt.Println("\nGame:")
	fmt.Printf("  player: %s\n", cfg.Game.PlayerID)
	fmt.Printf("  max_attempts: %d\n", cfg.Game.MaxAttempts)
	fmt.Printf("  oracle: timeout=%ds retries=%d\n", cfg.Game.OracleTimeoutSeconds, cfg.Game.OracleRetries)
	fmt.Printf("  passages: ceiling=%.1f samples=%d min_length=%d\n",
		cfg.Game.QualityCeiling, cfg.Game.SampleAttempts, cfg.Game.MinPassageLength)

	fmt.Println("\nStorage:")
	fmt.Printf("  driver: %s\n", cfg.Storage.Driver)
	if cfg.Storage.Path != "" {
		fmt.Printf("  path: %s\n", cfg.Storage.Path)
	}
	if cfg.Storage.DSN != "" {
		fmt.Println("  dsn: (set)")
	}

	fmt.Println("\nSource:")
	switch {
	case cfg.Source.Dir != "":
		fmt.Printf("  dir: %s\n", cfg.Source.Dir)
	case len(cfg.Source.URLs) > 0:
		fmt.Printf("  urls: %d configured\n", len(cfg.Source.URLs))
	default:
		fmt.Println("  dir: ~/.cloze/books")
	}

	fmt.Println("\nQueue:")
	fmt.Printf("  enabled: %t\n", cfg.Queue.Enabled)

	fmt.Println("\nServer:")
	fmt.Printf("  addr: %s\n", cfg.Server.Addr())

	if cfg.MCP.HTTPAddr != "" {
		fmt.Println("\nMCP:")
		fmt.Printf("  http_addr: %s\n", cfg.MCP.HTTPAddr)
	}

	clozeDir, _ := config.ClozeDir()
	fmt.Printf("\nConfig file: %s\n", filepath.Join(clozeDir, "config.yaml"))
	return nil
}
