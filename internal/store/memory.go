package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/orionbase/orion/internal/models"
)

// MemoryStore is a brute-force cosine similarity store. It backs tests and
// small single-process deployments where SurrealDB is not worth running.
type MemoryStore struct {
	embedder Embedder

	mu          sync.RWMutex
	collections map[string]*memCollection
}

type memCollection struct {
	// order preserves insertion order of chunk IDs for deterministic
	// iteration; entries are replaced in place on re-ingestion.
	order   []string
	entries map[string]memEntry
}

type memEntry struct {
	chunk  models.Chunk
	vector []float32
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(embedder Embedder) *MemoryStore {
	return &MemoryStore{
		embedder:    embedder,
		collections: make(map[string]*memCollection),
	}
}

func (s *MemoryStore) EnsureCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; !ok {
		s.collections[name] = &memCollection{entries: make(map[string]memEntry)}
	}
	return nil
}

func (s *MemoryStore) RequireCollection(_ context.Context, name string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.collections[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// AddDocuments embeds and stores the batch. All embeddings are generated
// before any entry is written, so a failed batch leaves the store untouched.
func (s *MemoryStore) AddDocuments(ctx context.Context, collection string, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: embed batch: %v", ErrStorage, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[collection]
	if !ok {
		coll = &memCollection{entries: make(map[string]memEntry)}
		s.collections[collection] = coll
	}

	for i, c := range chunks {
		if _, exists := coll.entries[c.ID]; !exists {
			coll.order = append(coll.order, c.ID)
		}
		coll.entries[c.ID] = memEntry{chunk: c, vector: vectors[i]}
	}
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, collection, queryText string, k int, filters *Filters) ([]models.Match, error) {
	s.mu.RLock()
	coll, ok := s.collections[collection]
	s.mu.RUnlock()
	if !ok {
		return []models.Match{}, nil
	}

	queryVec, err := s.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", ErrQuery, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]models.Match, 0, len(coll.order))
	for _, id := range coll.order {
		entry := coll.entries[id]
		if filters != nil && filters.Source != "" && entry.chunk.Metadata.Source != filters.Source {
			continue
		}
		matches = append(matches, models.Match{
			Chunk: entry.chunk,
			Score: cosineSimilarity(queryVec, entry.vector),
		})
	}

	// Stable sort keeps insertion order among equal scores deterministic.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func (s *MemoryStore) CountChunks(_ context.Context, collection string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	coll, ok := s.collections[collection]
	if !ok {
		return 0, nil
	}
	return len(coll.order), nil
}

func (s *MemoryStore) PruneSource(_ context.Context, collection, source string, fromIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.collections[collection]
	if !ok {
		return nil
	}

	kept := coll.order[:0]
	for _, id := range coll.order {
		entry := coll.entries[id]
		if entry.chunk.Metadata.Source == source && entry.chunk.Metadata.Index >= fromIndex {
			delete(coll.entries, id)
			continue
		}
		kept = append(kept, id)
	}
	coll.order = kept
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
