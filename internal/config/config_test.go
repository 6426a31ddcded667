package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8080")
	}
	if cfg.BrainMode != "auto" {
		t.Fatalf("BrainMode = %q, want %q", cfg.BrainMode, "auto")
	}
	if cfg.HistoryRetention != 50 {
		t.Fatalf("HistoryRetention = %d, want 50", cfg.HistoryRetention)
	}
	if cfg.HistoryWindow != 6 {
		t.Fatalf("HistoryWindow = %d, want 6", cfg.HistoryWindow)
	}
	if cfg.MemoryTopK != 5 {
		t.Fatalf("MemoryTopK = %d, want 5", cfg.MemoryTopK)
	}
	if len(cfg.ChatModels) != 3 || cfg.ChatModels[0] != "gpt-4o" {
		t.Fatalf("ChatModels = %v, want gpt-4o first of three", cfg.ChatModels)
	}
	if cfg.SystemPrompt != DefaultSystemPrompt {
		t.Fatalf("SystemPrompt = %q, want default", cfg.SystemPrompt)
	}
}

func TestLoadParsesChatModelList(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("CHAT_MODELS", " llama-3.1-70b , llama-3.1-8b ,, mistral-7b ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []string{"llama-3.1-70b", "llama-3.1-8b", "mistral-7b"}
	if len(cfg.ChatModels) != len(want) {
		t.Fatalf("ChatModels = %v, want %v", cfg.ChatModels, want)
	}
	for i := range want {
		if cfg.ChatModels[i] != want[i] {
			t.Fatalf("ChatModels[%d] = %q, want %q", i, cfg.ChatModels[i], want[i])
		}
	}
}

func TestLoadRejectsEmptyChatModelList(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("CHAT_MODELS", " , ,")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for empty CHAT_MODELS")
	}
}

func TestLoadRejectsInvalidBrainMode(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("BRAIN_MODE", "quantum")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid BRAIN_MODE")
	}
}

func TestLoadParsesTimeouts(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_GENERATE_TIMEOUT", "30s")
	t.Setenv("APP_MEMORY_TIMEOUT", "2s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.GenerateTimeout != 30*time.Second {
		t.Fatalf("GenerateTimeout = %v, want 30s", cfg.GenerateTimeout)
	}
	if cfg.MemoryTimeout != 2*time.Second {
		t.Fatalf("MemoryTimeout = %v, want 2s", cfg.MemoryTimeout)
	}
}

func TestLoadRejectsMalformedDuration(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_SHUTDOWN_TIMEOUT", "fifteen")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for malformed APP_SHUTDOWN_TIMEOUT")
	}
}

func TestLoadRejectsNonPositiveRetention(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("HISTORY_RETENTION", "0")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for HISTORY_RETENTION=0")
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"APP_SYSTEM_PROMPT",
		"APP_GENERATE_TIMEOUT",
		"APP_MEMORY_TIMEOUT",
		"BRAIN_MODE",
		"OPENAI_API_KEY",
		"OPENAI_BASE_URL",
		"CHAT_MODELS",
		"EMBEDDING_MODEL",
		"DATABASE_URL",
		"MEMORY_EMBEDDING_DIM",
		"MEMORY_TOP_K",
		"HISTORY_RETENTION",
		"HISTORY_WINDOW",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
