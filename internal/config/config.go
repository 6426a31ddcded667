package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultSystemPrompt is the fixed system instruction used when
// APP_SYSTEM_PROMPT is not set.
const DefaultSystemPrompt = `You are Aria, a helpful personal assistant.
Use retrieved memory when relevant. Be concise and accurate.
If you don't know, say so clearly.`

// Config contains all runtime settings for the assistant service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	SystemPrompt string

	BrainMode      string
	OpenAIAPIKey   string
	OpenAIBaseURL  string
	ChatModels     []string
	EmbeddingModel string

	GenerateTimeout time.Duration
	MemoryTimeout   time.Duration

	DatabaseURL        string
	MemoryEmbeddingDim int
	MemoryTopK         int

	HistoryRetention int
	HistoryWindow    int
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:           envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:   envOrDefault("APP_METRICS_NAMESPACE", "aria"),
		AllowAnyOrigin:     false,
		SystemPrompt:       envOrDefault("APP_SYSTEM_PROMPT", DefaultSystemPrompt),
		BrainMode:          envOrDefault("BRAIN_MODE", "auto"),
		OpenAIAPIKey:       trimmedEnv("OPENAI_API_KEY"),
		OpenAIBaseURL:      trimmedEnv("OPENAI_BASE_URL"),
		ChatModels:         splitList(envOrDefault("CHAT_MODELS", "gpt-4o,gpt-4o-mini,gpt-3.5-turbo")),
		EmbeddingModel:     envOrDefault("EMBEDDING_MODEL", "text-embedding-3-small"),
		DatabaseURL:        trimmedEnv("DATABASE_URL"),
		MemoryEmbeddingDim: 1536,
		MemoryTopK:         5,
		HistoryRetention:   50,
		HistoryWindow:      6,
		ShutdownTimeout:    15 * time.Second,
		GenerateTimeout:    60 * time.Second,
		MemoryTimeout:      10 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.GenerateTimeout, err = durationFromEnv("APP_GENERATE_TIMEOUT", cfg.GenerateTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.MemoryTimeout, err = durationFromEnv("APP_MEMORY_TIMEOUT", cfg.MemoryTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.MemoryEmbeddingDim, err = intFromEnv("MEMORY_EMBEDDING_DIM", cfg.MemoryEmbeddingDim)
	if err != nil {
		return Config{}, err
	}
	cfg.MemoryTopK, err = intFromEnv("MEMORY_TOP_K", cfg.MemoryTopK)
	if err != nil {
		return Config{}, err
	}
	cfg.HistoryRetention, err = intFromEnv("HISTORY_RETENTION", cfg.HistoryRetention)
	if err != nil {
		return Config{}, err
	}
	cfg.HistoryWindow, err = intFromEnv("HISTORY_WINDOW", cfg.HistoryWindow)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	switch strings.ToLower(strings.TrimSpace(cfg.BrainMode)) {
	case "auto", "openai", "mock":
	default:
		return Config{}, fmt.Errorf("invalid BRAIN_MODE: %q (expected auto|openai|mock)", cfg.BrainMode)
	}
	if len(cfg.ChatModels) == 0 {
		return Config{}, fmt.Errorf("CHAT_MODELS must list at least one model")
	}
	if cfg.MemoryEmbeddingDim <= 0 {
		return Config{}, fmt.Errorf("MEMORY_EMBEDDING_DIM must be positive")
	}
	if cfg.MemoryTopK <= 0 {
		return Config{}, fmt.Errorf("MEMORY_TOP_K must be positive")
	}
	if cfg.HistoryRetention <= 0 {
		return Config{}, fmt.Errorf("HISTORY_RETENTION must be positive")
	}
	if cfg.HistoryWindow <= 0 {
		return Config{}, fmt.Errorf("HISTORY_WINDOW must be positive")
	}
	if cfg.GenerateTimeout <= 0 {
		return Config{}, fmt.Errorf("APP_GENERATE_TIMEOUT must be positive")
	}
	if cfg.MemoryTimeout <= 0 {
		return Config{}, fmt.Errorf("APP_MEMORY_TIMEOUT must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(trimmedEnv(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
