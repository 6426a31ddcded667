package brain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrNoModels = errors.New("no models configured")

// Dispatcher tries an ordered model priority list and returns the first
// usable reply. Model identity stays internal: callers see prompt in,
// text out or failure.
type Dispatcher struct {
	backend Backend
	models  []string
	timeout time.Duration
}

// NewDispatcher builds a dispatcher over an explicit ordered model list,
// highest quality/cost first. A non-positive timeout disables the
// per-attempt bound.
func NewDispatcher(backend Backend, models []string, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		backend: backend,
		models:  append([]string(nil), models...),
		timeout: timeout,
	}
}

func (d *Dispatcher) Generate(ctx context.Context, messages []Message) (string, error) {
	if len(d.models) == 0 {
		return "", ErrNoModels
	}

	var lastErr error
	for _, model := range d.models {
		text, err := d.invokeOne(ctx, model, messages)
		if err == nil {
			if strings.TrimSpace(text) != "" {
				return text, nil
			}
			lastErr = fmt.Errorf("model %s returned no text", model)
			continue
		}
		if IsModelUnavailable(err) {
			lastErr = fmt.Errorf("model %s: %w", model, err)
			continue
		}
		// Anything other than an availability miss is a real failure.
		// Falling through to a cheaper model would mask it.
		return "", fmt.Errorf("model %s: %w", model, err)
	}

	if lastErr == nil {
		lastErr = errors.New("all models exhausted")
	}
	return "", fmt.Errorf("generation failed: %w", lastErr)
}

func (d *Dispatcher) invokeOne(ctx context.Context, model string, messages []Message) (string, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	return d.backend.Invoke(ctx, model, messages)
}
