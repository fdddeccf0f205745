package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/orionbase/orion/internal/db"
	"github.com/orionbase/orion/internal/models"
)

// SurrealStore persists chunks in SurrealDB behind an HNSW cosine index.
type SurrealStore struct {
	client   *db.Client
	embedder Embedder
	logger   *slog.Logger
}

var _ Store = (*SurrealStore)(nil)

// NewSurrealStore creates a store backed by the given SurrealDB client.
func NewSurrealStore(client *db.Client, embedder Embedder, logger *slog.Logger) *SurrealStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SurrealStore{client: client, embedder: embedder, logger: logger}
}

// EnsureCollection registers the collection record if missing.
func (s *SurrealStore) EnsureCollection(ctx context.Context, name string) error {
	if err := s.client.EnsureCollection(ctx, name); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

// RequireCollection returns ErrNotFound when the collection is missing.
func (s *SurrealStore) RequireCollection(ctx context.Context, name string) error {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrQuery, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// AddDocuments embeds the batch and writes it in one transaction.
func (s *SurrealStore) AddDocuments(ctx context.Context, collection string, chunks []models.Chunk) error {
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

	records := make([]db.ChunkRecord, len(chunks))
	for i, c := range chunks {
		headerPath := c.Metadata.HeaderPath
		if headerPath == nil {
			headerPath = []string{}
		}
		records[i] = db.ChunkRecord{
			ChunkID:    c.ID,
			Collection: collection,
			Source:     c.Metadata.Source,
			Text:       c.Text,
			HeaderPath: headerPath,
			Position:   c.Metadata.Index,
			WordCount:  c.Metadata.WordCount,
			Embedding:  vectors[i],
		}
	}

	if err := s.client.UpsertChunks(ctx, records); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}

// Query embeds the query text and runs nearest-neighbor search. Matches are
// returned best first; score is cosine similarity (1 - distance).
func (s *SurrealStore) Query(ctx context.Context, collection, queryText string, k int, filters *Filters) ([]models.Match, error) {
	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	if !exists {
		s.logger.Debug("query against unknown collection", "collection", collection)
		return []models.Match{}, nil
	}

	embedding, err := s.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", ErrQuery, err)
	}

	var source *string
	if filters != nil && filters.Source != "" {
		source = &filters.Source
	}

	rows, err := s.client.SearchChunks(ctx, collection, embedding, k, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}

	matches := make([]models.Match, len(rows))
	for i, row := range rows {
		matches[i] = models.Match{
			Chunk: models.Chunk{
				ID:   row.ChunkID,
				Text: row.Text,
				Metadata: models.ChunkMetadata{
					Source:     row.Source,
					HeaderPath: row.HeaderPath,
					Index:      row.Position,
					WordCount:  row.WordCount,
				},
			},
			Score: 1 - row.Distance,
		}
	}
	return matches, nil
}

// CountChunks reports the chunk count for a collection.
func (s *SurrealStore) CountChunks(ctx context.Context, collection string) (int, error) {
	n, err := s.client.CountChunks(ctx, collection)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	return n, nil
}

// PruneSource removes stale tail chunks after re-ingestion.
func (s *SurrealStore) PruneSource(ctx context.Context, collection, source string, fromIndex int) error {
	if err := s.client.DeleteSourceChunksFrom(ctx, collection, source, fromIndex); err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}
