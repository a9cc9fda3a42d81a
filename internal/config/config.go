// Package config loads cloze settings from ~/.cloze and the environment.
package config

import (
	"os"
	"strconv"
)

// ApplyEnv overrides cfg from CLOZE_* variables and the usual provider
// keys. Unset or unparsable variables leave the current value.
func ApplyEnv(cfg *LocalConfig) {
	cfg.LogLevel = getEnv("CLOZE_LOG_LEVEL", cfg.LogLevel)
	cfg.LLM.DefaultProvider = getEnv("CLOZE_LLM_PROVIDER", cfg.LLM.DefaultProvider)

	if p, ok := cfg.LLM.Providers["openrouter"]; ok {
		p.APIKey = getEnv("OPENROUTER_API_KEY", p.APIKey)
		p.Model = getEnv("OPENROUTER_MODEL", p.Model)
	}
	if p, ok := cfg.LLM.Providers["ollama"]; ok {
		p.URL = getEnv("OLLAMA_URL", p.URL)
	}

	cfg.Game.PlayerID = getEnv("CLOZE_PLAYER", cfg.Game.PlayerID)
	cfg.Game.MaxAttempts = getEnvInt("CLOZE_MAX_ATTEMPTS", cfg.Game.MaxAttempts)
	cfg.Game.QualityCeiling = getEnvFloat("CLOZE_QUALITY_CEILING", cfg.Game.QualityCeiling)

	cfg.Storage.Driver = getEnv("CLOZE_STORAGE_DRIVER", cfg.Storage.Driver)
	cfg.Storage.Path = getEnv("CLOZE_STORAGE_PATH", cfg.Storage.Path)
	cfg.Storage.DSN = getEnv("DATABASE_URL", cfg.Storage.DSN)

	cfg.Queue.URL = getEnv("RABBITMQ_URL", cfg.Queue.URL)
	cfg.Queue.Enabled = getEnvBool("CLOZE_QUEUE_ENABLED", cfg.Queue.Enabled)

	cfg.Source.Dir = getEnv("CLOZE_BOOKS_DIR", cfg.Source.Dir)
	cfg.MCP.HTTPAddr = getEnv("CLOZE_MCP_ADDR", cfg.MCP.HTTPAddr)
	cfg.Server.Port = getEnvInt("CLOZE_SERVER_PORT", cfg.Server.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
