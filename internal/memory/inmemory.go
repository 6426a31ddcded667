package memory

import (
	"context"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"sync"
)

// InMemoryIndex is a brute-force cosine-similarity index for local/dev use.
type InMemoryIndex struct {
	mu      sync.RWMutex
	records []Record
}

func NewInMemoryIndex() *InMemoryIndex {
	return &InMemoryIndex{}
}

func (ix *InMemoryIndex) Search(_ context.Context, vector []float32, k int) ([]Match, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	type scored struct {
		rec   Record
		score float64
	}
	ranked := make([]scored, 0, len(ix.records))
	for _, r := range ix.records {
		ranked = append(ranked, scored{rec: r, score: cosine(vector, r.Vector)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if k > len(ranked) {
		k = len(ranked)
	}
	matches := make([]Match, 0, k)
	for _, s := range ranked[:k] {
		matches = append(matches, Match{
			Content:  s.rec.Content,
			Metadata: map[string]string{"id": s.rec.ID, "content": s.rec.Content},
		})
	}
	return matches, nil
}

func (ix *InMemoryIndex) Upsert(_ context.Context, rec Record) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for i, r := range ix.records {
		if r.ID == rec.ID {
			ix.records[i] = rec
			return nil
		}
	}
	ix.records = append(ix.records, rec)
	return nil
}

func (ix *InMemoryIndex) Close() error { return nil }

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// MockEmbedder hashes tokens into a fixed-size bag-of-words vector.
// Deterministic, so similar texts land near each other. Pairs with
// InMemoryIndex when no real embedding backend is configured.
type MockEmbedder struct {
	dim int
}

func NewMockEmbedder(dim int) *MockEmbedder {
	if dim <= 0 {
		dim = 256
	}
	return &MockEmbedder{dim: dim}
}

func (e *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		return nil, nil
	}
	vec := make([]float32, e.dim)
	for _, tok := range tokens {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vec[int(h.Sum32()%uint32(e.dim))]++
	}
	return vec, nil
}
