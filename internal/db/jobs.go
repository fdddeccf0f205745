package db

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"
)

// JobRecord is the persisted form of one ingestion job. Record IDs are
// derived from the task ID, so repeated writes overwrite in place.
type JobRecord struct {
	TaskID          string    `json:"task_id"`
	Source          string    `json:"source"`
	Collection      string    `json:"collection"`
	Status          string    `json:"status"`
	Progress        float64   `json:"progress"`
	ChunksProcessed int       `json:"chunks_processed"`
	TotalChunks     int       `json:"total_chunks"`
	TotalChars      int       `json:"total_chars"`
	ErrorMessage    string    `json:"error_message"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// UpsertJob writes the full job record, replacing any previous state for
// the same task ID.
func (c *Client) UpsertJob(ctx context.Context, rec JobRecord) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPSERT type::record("job", $rec.task_id) CONTENT {
			task_id: $rec.task_id,
			source: $rec.source,
			collection: $rec.collection,
			status: $rec.status,
			progress: $rec.progress,
			chunks_processed: $rec.chunks_processed,
			total_chunks: $rec.total_chunks,
			total_chars: $rec.total_chars,
			error_message: $rec.error_message,
			created_at: $rec.created_at,
			updated_at: $rec.updated_at
		}
	`, map[string]any{"rec": rec})
	if err != nil {
		return fmt.Errorf("upsert job: %w", wrapQueryError(err))
	}
	return nil
}

// GetJob returns the persisted record for a task ID, or nil when the task
// is unknown.
func (c *Client) GetJob(ctx context.Context, taskID string) (*JobRecord, error) {
	results, err := surrealdb.Query[[]JobRecord](ctx, c.db, `
		SELECT task_id, source, collection, status, progress, chunks_processed,
			total_chunks, total_chars, error_message, created_at, updated_at
		FROM type::record("job", $task_id)
	`, map[string]any{"task_id": taskID})
	if err != nil {
		return nil, fmt.Errorf("get job: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	rec := (*results)[0].Result[0]
	return &rec, nil
}

// ListJobs returns up to limit persisted jobs, newest first.
func (c *Client) ListJobs(ctx context.Context, limit int) ([]JobRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	results, err := surrealdb.Query[[]JobRecord](ctx, c.db, `
		SELECT task_id, source, collection, status, progress, chunks_processed,
			total_chunks, total_chars, error_message, created_at, updated_at
		FROM job ORDER BY created_at DESC, task_id ASC LIMIT $limit
	`, map[string]any{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 {
		return []JobRecord{}, nil
	}
	return (*results)[0].Result, nil
}
