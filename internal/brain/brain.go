// Package brain produces assistant replies from role-tagged prompts,
// hiding which concrete model served a given turn.
package brain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged entry of a generation prompt.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Backend invokes a single named model.
type Backend interface {
	Invoke(ctx context.Context, model string, messages []Message) (string, error)
}

// ErrModelUnavailable marks a failure caused by an unknown or unsupported
// model id. The dispatcher moves to the next model only on this class of
// failure; anything else stops the fallback chain.
var ErrModelUnavailable = errors.New("model unavailable")

func IsModelUnavailable(err error) bool {
	return errors.Is(err, ErrModelUnavailable)
}

// Config controls backend construction.
type Config struct {
	Mode    string
	APIKey  string
	BaseURL string
}

// NewBackend builds the configured backend and reports the resolved mode.
func NewBackend(cfg Config) (Backend, string, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = "auto"
	}

	switch mode {
	case "auto":
		if strings.TrimSpace(cfg.APIKey) != "" {
			return NewOpenAIBackend(cfg.APIKey, cfg.BaseURL), "openai", nil
		}
		return NewMockBackend(), "mock", nil
	case "openai":
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, "", errors.New("an API key is required for openai mode")
		}
		return NewOpenAIBackend(cfg.APIKey, cfg.BaseURL), "openai", nil
	case "mock":
		return NewMockBackend(), "mock", nil
	default:
		return nil, "", fmt.Errorf("unsupported brain mode %q", cfg.Mode)
	}
}
