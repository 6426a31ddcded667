// Package memory provides best-effort long-term semantic memory:
// embedding-backed retrieval and recording of past exchanges. Memory is
// global across sessions and append-only.
package memory

import "context"

// Embedder turns text into a vector. A (nil, nil) return means the
// capability produced no vector for this input.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Match is one nearest-neighbor result with its stored metadata.
type Match struct {
	Content  string
	Metadata map[string]string
}

// Record is one unit of long-term memory. Never mutated once written.
type Record struct {
	ID      string
	Vector  []float32
	Content string
}

// Index is the vector search substrate.
type Index interface {
	Search(ctx context.Context, vector []float32, k int) ([]Match, error)
	Upsert(ctx context.Context, rec Record) error
	Close() error
}
