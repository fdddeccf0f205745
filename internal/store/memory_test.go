package store

import (
	"context"
	"errors"
	"testing"

	"github.com/orionbase/orion/internal/models"
)

// stubEmbedder returns fixed vectors per text so similarity rankings in
// tests are fully controlled.
type stubEmbedder struct {
	vectors map[string][]float32
	fail    bool
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if s.fail {
		return nil, errors.New("embedder unavailable")
	}
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 1, 1}, nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func testChunk(source string, index int, text string) models.Chunk {
	return models.Chunk{
		ID:   models.ChunkID(source, index),
		Text: text,
		Metadata: models.ChunkMetadata{
			Source: source,
			Index:  index,
		},
	}
}

func TestMemoryStore_QueryRanking(t *testing.T) {
	ctx := context.Background()
	emb := &stubEmbedder{vectors: map[string][]float32{
		"about cats":  {1, 0, 0},
		"about dogs":  {0, 1, 0},
		"about birds": {0, 0, 1},
		"cats":        {0.9, 0.1, 0},
	}}
	st := NewMemoryStore(emb)

	chunks := []models.Chunk{
		testChunk("pets.md", 0, "about cats"),
		testChunk("pets.md", 1, "about dogs"),
		testChunk("pets.md", 2, "about birds"),
	}
	if err := st.AddDocuments(ctx, "pets", chunks); err != nil {
		t.Fatalf("AddDocuments() error = %v", err)
	}

	matches, err := st.Query(ctx, "pets", "cats", 2, nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].Chunk.Text != "about cats" {
		t.Errorf("top match = %q, want 'about cats'", matches[0].Chunk.Text)
	}
	if matches[0].Score <= matches[1].Score {
		t.Errorf("scores not descending: %v then %v", matches[0].Score, matches[1].Score)
	}
}

func TestMemoryStore_QueryKLargerThanStored(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore(&stubEmbedder{})

	if err := st.AddDocuments(ctx, "c", []models.Chunk{
		testChunk("a.md", 0, "one"),
		testChunk("a.md", 1, "two"),
	}); err != nil {
		t.Fatalf("AddDocuments() error = %v", err)
	}

	matches, err := st.Query(ctx, "c", "anything", 50, nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("got %d matches, want all 2 stored chunks", len(matches))
	}
}

func TestMemoryStore_QueryMissingCollection(t *testing.T) {
	st := NewMemoryStore(&stubEmbedder{})

	matches, err := st.Query(context.Background(), "nope", "query", 5, nil)
	if err != nil {
		t.Fatalf("Query() on missing collection should not error, got %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("got %d matches, want 0", len(matches))
	}
}

func TestMemoryStore_SourceFilter(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore(&stubEmbedder{})

	if err := st.AddDocuments(ctx, "c", []models.Chunk{
		testChunk("a.md", 0, "from a"),
		testChunk("b.md", 0, "from b"),
	}); err != nil {
		t.Fatalf("AddDocuments() error = %v", err)
	}

	matches, err := st.Query(ctx, "c", "query", 10, &Filters{Source: "b.md"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(matches) != 1 || matches[0].Chunk.Metadata.Source != "b.md" {
		t.Errorf("source filter failed: %+v", matches)
	}
}

func TestMemoryStore_IdempotentAdds(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore(&stubEmbedder{})

	batch := []models.Chunk{testChunk("a.md", 0, "text")}
	for i := 0; i < 3; i++ {
		if err := st.AddDocuments(ctx, "c", batch); err != nil {
			t.Fatalf("AddDocuments() error = %v", err)
		}
	}

	count, err := st.CountChunks(ctx, "c")
	if err != nil {
		t.Fatalf("CountChunks() error = %v", err)
	}
	if count != 1 {
		t.Errorf("repeated adds of the same chunk produced %d entries, want 1", count)
	}
}

func TestMemoryStore_FailedBatchLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	emb := &stubEmbedder{}
	st := NewMemoryStore(emb)

	emb.fail = true
	err := st.AddDocuments(ctx, "c", []models.Chunk{testChunk("a.md", 0, "text")})
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("AddDocuments() error = %v, want ErrStorage", err)
	}

	count, _ := st.CountChunks(ctx, "c")
	if count != 0 {
		t.Errorf("failed batch stored %d chunks, want 0", count)
	}
}

func TestMemoryStore_PruneSource(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore(&stubEmbedder{})

	if err := st.AddDocuments(ctx, "c", []models.Chunk{
		testChunk("a.md", 0, "keep"),
		testChunk("a.md", 1, "keep"),
		testChunk("a.md", 2, "stale"),
		testChunk("b.md", 5, "other source"),
	}); err != nil {
		t.Fatalf("AddDocuments() error = %v", err)
	}

	if err := st.PruneSource(ctx, "c", "a.md", 2); err != nil {
		t.Fatalf("PruneSource() error = %v", err)
	}

	count, _ := st.CountChunks(ctx, "c")
	if count != 3 {
		t.Errorf("got %d chunks after prune, want 3", count)
	}

	matches, err := st.Query(ctx, "c", "q", 10, &Filters{Source: "a.md"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	for _, m := range matches {
		if m.Chunk.Metadata.Index >= 2 {
			t.Errorf("chunk at index %d should have been pruned", m.Chunk.Metadata.Index)
		}
	}
}

func TestMemoryStore_RequireCollection(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore(&stubEmbedder{})

	if err := st.RequireCollection(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("RequireCollection() error = %v, want ErrNotFound", err)
	}

	if err := st.EnsureCollection(ctx, "present"); err != nil {
		t.Fatalf("EnsureCollection() error = %v", err)
	}
	if err := st.RequireCollection(ctx, "present"); err != nil {
		t.Errorf("RequireCollection() after ensure error = %v", err)
	}
}
