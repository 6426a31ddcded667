package memory

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/antoniostano/aria/internal/observability"
)

// Store wraps an embedder and a vector index into the two operations the
// agent needs. Both are best-effort: neither can fail a conversational
// turn. Failures are logged and counted instead of propagated.
type Store struct {
	embedder Embedder
	index    Index
	topK     int
	timeout  time.Duration
	metrics  *observability.Metrics
}

func NewStore(embedder Embedder, index Index, topK int, timeout time.Duration, metrics *observability.Metrics) *Store {
	if topK <= 0 {
		topK = 5
	}
	return &Store{
		embedder: embedder,
		index:    index,
		topK:     topK,
		timeout:  timeout,
		metrics:  metrics,
	}
}

// Retrieve returns a newline-joined context block of the nearest stored
// exchanges, or "" when memory is unconfigured, empty, or failing.
func (s *Store) Retrieve(ctx context.Context, query string) string {
	if s == nil || s.embedder == nil || s.index == nil {
		return ""
	}
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.degrade("embed", err)
		return ""
	}
	if len(vec) == 0 {
		return ""
	}

	matches, err := s.index.Search(ctx, vec, s.topK)
	if err != nil {
		s.degrade("search", err)
		return ""
	}

	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		text := m.Content
		if text == "" {
			text = m.Metadata["content"]
		}
		if text == "" {
			text = m.Metadata["text"]
		}
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n")
}

// RecordExchange stores one user/assistant exchange as a single document
// under a fresh identifier. Failures never reach the caller.
func (s *Store) RecordExchange(ctx context.Context, userText, assistantText string) {
	if s == nil || s.embedder == nil || s.index == nil {
		return
	}
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	doc := fmt.Sprintf("User: %s\nAssistant: %s", userText, assistantText)
	vec, err := s.embedder.Embed(ctx, doc)
	if err != nil {
		s.degrade("embed", err)
		return
	}
	if len(vec) == 0 {
		return
	}

	if err := s.index.Upsert(ctx, Record{
		ID:      uuid.NewString(),
		Vector:  vec,
		Content: doc,
	}); err != nil {
		s.degrade("upsert", err)
	}
}

func (s *Store) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// degrade keeps the never-fails contract while leaving a trail operators
// can alert on.
func (s *Store) degrade(op string, err error) {
	log.Printf("memory degraded (%s): %v", op, err)
	if s.metrics != nil {
		s.metrics.MemoryErrors.WithLabelValues(op).Inc()
	}
}
