package db

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"
)

// ChunkRecord is the stored form of one chunk.
type ChunkRecord struct {
	ChunkID    string    `json:"chunk_id"`
	Collection string    `json:"collection"`
	Source     string    `json:"source"`
	Text       string    `json:"text"`
	HeaderPath []string  `json:"header_path"`
	Position   int       `json:"position"`
	WordCount  int       `json:"word_count"`
	Embedding  []float32 `json:"embedding"`
}

// ChunkMatch is one ranked result of a vector search.
type ChunkMatch struct {
	ChunkID    string   `json:"chunk_id"`
	Collection string   `json:"collection"`
	Source     string   `json:"source"`
	Text       string   `json:"text"`
	HeaderPath []string `json:"header_path"`
	Position   int      `json:"position"`
	WordCount  int      `json:"word_count"`
	Distance   float64  `json:"distance"`
}

// CollectionInfo summarizes one collection.
type CollectionInfo struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// EnsureCollection registers a collection record. Idempotent: the record ID
// is derived from the name, so concurrent calls converge on one record and
// created_at keeps its first value.
func (c *Client) EnsureCollection(ctx context.Context, name string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPSERT type::record("collection", $name) SET name = $name
	`, map[string]any{"name": name})
	if err != nil {
		return fmt.Errorf("ensure collection: %w", wrapQueryError(err))
	}
	return nil
}

// CollectionExists reports whether the named collection has been registered.
func (c *Client) CollectionExists(ctx context.Context, name string) (bool, error) {
	results, err := surrealdb.Query[[]CollectionInfo](ctx, c.db, `
		SELECT name, created_at FROM type::record("collection", $name)
	`, map[string]any{"name": name})
	if err != nil {
		return false, fmt.Errorf("collection exists: %w", wrapQueryError(err))
	}
	return results != nil && len(*results) > 0 && len((*results)[0].Result) > 0, nil
}

// ListCollections returns all registered collections.
func (c *Client) ListCollections(ctx context.Context) ([]CollectionInfo, error) {
	results, err := surrealdb.Query[[]CollectionInfo](ctx, c.db, `
		SELECT name, created_at FROM collection ORDER BY name
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 {
		return []CollectionInfo{}, nil
	}
	return (*results)[0].Result, nil
}

// UpsertChunks writes a batch of chunks inside one transaction: the batch
// either commits as a whole or fails as a whole. Record IDs are derived
// from (collection, chunk_id), so re-ingestion overwrites in place.
func (c *Client) UpsertChunks(ctx context.Context, records []ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}

	_, err := surrealdb.Query[any](ctx, c.db, `
		BEGIN TRANSACTION;
		FOR $c IN $chunks {
			UPSERT type::record("chunk", string::concat($c.collection, "/", $c.chunk_id)) CONTENT {
				chunk_id: $c.chunk_id,
				collection: $c.collection,
				source: $c.source,
				text: $c.text,
				header_path: $c.header_path,
				position: $c.position,
				word_count: $c.word_count,
				embedding: $c.embedding,
				created_at: time::now()
			};
		};
		COMMIT TRANSACTION;
	`, map[string]any{"chunks": records})
	if err != nil {
		return fmt.Errorf("upsert chunks: %w", wrapQueryError(err))
	}
	return nil
}

// SearchChunks performs HNSW nearest-neighbor search over a collection,
// returning up to k matches ordered by ascending cosine distance. A non-nil
// source restricts matches to that source.
func (c *Client) SearchChunks(
	ctx context.Context,
	collection string,
	embedding []float32,
	k int,
	source *string,
) ([]ChunkMatch, error) {
	sourceClause := ""
	if source != nil {
		sourceClause = "AND source = $source"
	}

	// HNSW with ef=40 for better recall.
	sql := fmt.Sprintf(`
		SELECT chunk_id, collection, source, text, header_path, position, word_count,
		       vector::distance::knn() AS distance
		FROM chunk
		WHERE collection = $collection AND embedding <|%d,40|> $emb %s
		ORDER BY distance ASC
	`, k, sourceClause)

	vars := map[string]any{
		"collection": collection,
		"emb":        embedding,
	}
	if source != nil {
		vars["source"] = *source
	}

	results, err := surrealdb.Query[[]ChunkMatch](ctx, c.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []ChunkMatch{}, nil
	}
	return (*results)[0].Result, nil
}

// CountChunks returns the number of chunks stored in a collection.
func (c *Client) CountChunks(ctx context.Context, collection string) (int, error) {
	results, err := surrealdb.Query[[]struct {
		Count int `json:"count"`
	}](ctx, c.db, `
		SELECT count() AS count FROM chunk WHERE collection = $collection GROUP ALL
	`, map[string]any{"collection": collection})
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return 0, nil
	}
	return (*results)[0].Result[0].Count, nil
}

// DeleteSourceChunksFrom removes chunks of a source at or beyond the given
// position. Used after re-ingestion when the new content produced fewer
// chunks than the previous run.
func (c *Client) DeleteSourceChunksFrom(ctx context.Context, collection, source string, position int) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		DELETE chunk WHERE collection = $collection AND source = $source AND position >= $position
	`, map[string]any{
		"collection": collection,
		"source":     source,
		"position":   position,
	})
	if err != nil {
		return fmt.Errorf("delete source chunks: %w", wrapQueryError(err))
	}
	return nil
}
