// Package models defines data structures shared across the Orion ingestion
// and retrieval pipeline.
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Chunk is one bounded unit of stored content: the unit of embedding,
// storage, and retrieval.
type Chunk struct {
	// ID is deterministic, derived from (source, index). Re-ingesting the
	// same source yields the same identifiers, so upserts overwrite instead
	// of duplicating.
	ID string `json:"id"`

	// Text is the chunk content, bounded by the chunker's max size.
	Text string `json:"text"`

	Metadata ChunkMetadata `json:"metadata"`
}

// ChunkMetadata holds descriptive attributes derived per chunk.
type ChunkMetadata struct {
	// Source identifies the ingested URL, file path, or text submission.
	Source string `json:"source"`

	// HeaderPath is the stack of enclosing section titles, outermost first.
	// Empty for content that precedes the first heading.
	HeaderPath []string `json:"header_path,omitempty"`

	// Index is the chunk's position in document order.
	Index int `json:"index"`

	// WordCount is computed from the chunk's final text.
	WordCount int `json:"word_count"`
}

// Match pairs a retrieved chunk with its similarity score. Matches are
// ephemeral, produced per query and never persisted.
type Match struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// ChunkID derives the deterministic chunk identifier for a source and
// document-order index.
func ChunkID(source string, index int) string {
	sum := sha256.Sum256([]byte(source))
	return fmt.Sprintf("%s-%04d", hex.EncodeToString(sum[:6]), index)
}

// HeaderPathString joins a header path for display and citation prefixes.
func HeaderPathString(path []string) string {
	return strings.Join(path, " > ")
}
