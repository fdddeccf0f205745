// Package store defines the vector store adapter: named collections of
// embedded chunks with cosine-similarity retrieval.
package store

import (
	"context"
	"errors"

	"github.com/orionbase/orion/internal/models"
)

// Sentinel errors for store operations. Use errors.Is() in calling code.
var (
	// ErrStorage indicates embedding or index failure while adding chunks.
	ErrStorage = errors.New("storage failed")

	// ErrQuery indicates embedding or index failure while querying.
	ErrQuery = errors.New("query failed")

	// ErrNotFound indicates a collection whose existence was required.
	ErrNotFound = errors.New("collection not found")
)

// Filters restrict query matches by metadata equality.
type Filters struct {
	// Source, when non-empty, limits matches to one source identifier.
	Source string
}

// Embedder generates embedding vectors for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Store is the adapter over an embedding and similarity-search engine.
type Store interface {
	// EnsureCollection creates the named collection if missing. Idempotent
	// and safe to call concurrently for the same name.
	EnsureCollection(ctx context.Context, name string) error

	// RequireCollection returns ErrNotFound when the collection is missing.
	RequireCollection(ctx context.Context, name string) error

	// AddDocuments embeds and stores a batch of chunks. The batch succeeds
	// or fails as a whole; chunk IDs make repeated application idempotent.
	AddDocuments(ctx context.Context, collection string, chunks []models.Chunk) error

	// Query returns up to k matches ordered by descending similarity.
	// An unknown collection yields an empty result, not an error.
	Query(ctx context.Context, collection, queryText string, k int, filters *Filters) ([]models.Match, error)

	// CountChunks reports the number of chunks stored in a collection.
	CountChunks(ctx context.Context, collection string) (int, error)

	// PruneSource removes a source's chunks at or beyond the given index,
	// clearing stale tails left by a shorter re-ingestion.
	PruneSource(ctx context.Context, collection, source string, fromIndex int) error
}
