package memory

import (
	"context"
	"strings"
)

// NewIndex creates a pgvector-backed index when configured, otherwise in-memory.
func NewIndex(ctx context.Context, databaseURL string, dim int) (Index, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return NewInMemoryIndex(), nil
	}
	return NewPgvectorIndex(ctx, databaseURL, dim)
}

// NewEmbedder picks the OpenAI embedder when an API key is present,
// otherwise the deterministic mock.
func NewEmbedder(apiKey, baseURL, model string, dim int) Embedder {
	if strings.TrimSpace(apiKey) != "" {
		return NewOpenAIEmbedder(apiKey, baseURL, model, dim)
	}
	return NewMockEmbedder(dim)
}
