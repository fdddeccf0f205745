package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/orionbase/orion/internal/loader"
	"github.com/orionbase/orion/internal/metrics"
	"github.com/orionbase/orion/internal/models"
	"github.com/orionbase/orion/internal/parser"
	"github.com/orionbase/orion/internal/store"
)

// Progress milestones for the ingestion pipeline. Fetching and parsing
// account for the first quarter; the remainder tracks chunk storage.
const (
	progressFetched = 25.0
	progressStored  = 100.0
)

// Fetcher loads raw text for a source reference.
type Fetcher interface {
	Fetch(ctx context.Context, src loader.Source) (string, error)
}

// Options tunes the orchestrator.
type Options struct {
	MaxChunkSize int
	BatchSize    int
}

func (o Options) withDefaults() Options {
	if o.MaxChunkSize <= 0 {
		o.MaxChunkSize = parser.DefaultMaxChunkSize
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 64
	}
	return o
}

// Orchestrator accepts ingestion requests, runs them asynchronously and
// exposes job status for polling.
type Orchestrator struct {
	store   store.Store
	jobs    *JobStore
	fetcher Fetcher
	exec    Executor
	opts    Options
	metrics *metrics.Collector
	logger  *slog.Logger
}

// NewOrchestrator wires the ingestion pipeline together. A nil jobs store
// gets a memory-only one.
func NewOrchestrator(st store.Store, fetcher Fetcher, exec Executor, opts Options, jobs *JobStore, collector *metrics.Collector, logger *slog.Logger) *Orchestrator {
	if collector == nil {
		collector = metrics.NewCollector()
	}
	if jobs == nil {
		jobs = NewJobStore(nil, logger)
	}
	return &Orchestrator{
		store:   st,
		jobs:    jobs,
		fetcher: fetcher,
		exec:    exec,
		opts:    opts.withDefaults(),
		metrics: collector,
		logger:  logger,
	}
}

// Jobs exposes the underlying job store.
func (o *Orchestrator) Jobs() *JobStore {
	return o.jobs
}

// Metrics exposes the runtime statistics collector.
func (o *Orchestrator) Metrics() *metrics.Collector {
	return o.metrics
}

// Submit registers an ingestion job for the source and schedules it.
// If a live job already exists for the same (source, collection) pair,
// its task ID is returned instead of starting a duplicate.
func (o *Orchestrator) Submit(ctx context.Context, src loader.Source, collection string) (string, error) {
	if collection == "" {
		return "", fmt.Errorf("collection name is required")
	}

	job, created := o.jobs.GetOrCreate(src.Ref, collection)
	if !created {
		o.logger.Info("ingestion already in flight",
			"task_id", job.TaskID,
			"source", src.Ref,
			"collection", collection)
		return job.TaskID, nil
	}

	o.logger.Info("ingestion queued",
		"task_id", job.TaskID,
		"source", src.Ref,
		"collection", collection)
	o.jobs.persist(ctx, job)

	if err := o.exec.Execute(func() {
		// Detached from the request context: the job outlives the
		// submitting call.
		o.run(context.Background(), job, src)
	}); err != nil {
		job.fail(fmt.Sprintf("failed to schedule ingestion: %v", err))
		o.jobs.persist(ctx, job)
		o.jobs.release(job)
		return "", fmt.Errorf("schedule ingestion: %w", err)
	}

	return job.TaskID, nil
}

// Status returns a snapshot of the job with the given task ID. Jobs
// submitted by earlier processes are served from their persisted records.
func (o *Orchestrator) Status(ctx context.Context, taskID string) (Job, error) {
	job, err := o.jobs.Get(ctx, taskID)
	if err != nil {
		return Job{}, err
	}
	return job.Snapshot(), nil
}

// List returns snapshots of all known jobs, newest first.
func (o *Orchestrator) List(ctx context.Context) ([]Job, error) {
	return o.jobs.List(ctx)
}

// run drives a single ingestion job from queued to a terminal state.
func (o *Orchestrator) run(ctx context.Context, job *Job, src loader.Source) {
	jobStart := time.Now()
	defer func() {
		o.metrics.RecordTiming(metrics.OpIngestJob, time.Since(jobStart))
		o.jobs.release(job)
	}()

	job.markProcessing()
	o.jobs.persist(ctx, job)

	fetchStart := time.Now()
	text, err := o.fetcher.Fetch(ctx, src)
	o.metrics.RecordTiming(metrics.OpFetch, time.Since(fetchStart))
	if err != nil {
		o.failJob(ctx, job, fmt.Errorf("fetch source: %w", err))
		return
	}
	job.updateProgress(progressFetched, 0)

	chunkStart := time.Now()
	chunks, err := parser.Chunk(text, src.Ref, o.opts.MaxChunkSize)
	o.metrics.RecordTiming(metrics.OpChunk, time.Since(chunkStart))
	if err != nil {
		o.failJob(ctx, job, fmt.Errorf("chunk source: %w", err))
		return
	}
	if len(chunks) == 0 {
		o.failJob(ctx, job, fmt.Errorf("source contains no indexable text"))
		return
	}

	if err := o.store.EnsureCollection(ctx, job.Collection); err != nil {
		o.failJob(ctx, job, fmt.Errorf("ensure collection: %w", err))
		return
	}

	stored := 0
	for start := 0; start < len(chunks); start += o.opts.BatchSize {
		end := min(start+o.opts.BatchSize, len(chunks))
		batch := chunks[start:end]

		addStart := time.Now()
		err := o.store.AddDocuments(ctx, job.Collection, batch)
		o.metrics.RecordTiming(metrics.OpStoreAdd, time.Since(addStart))
		if err != nil {
			o.failJob(ctx, job, fmt.Errorf("store chunks: %w", err))
			return
		}

		stored = end
		progress := progressFetched + (progressStored-progressFetched)*float64(stored)/float64(len(chunks))
		job.updateProgress(progress, stored)
		o.jobs.persist(ctx, job)
	}

	// A shorter re-ingestion of the same source must not leave stale
	// chunks from a previous, longer run behind.
	if err := o.store.PruneSource(ctx, job.Collection, src.Ref, len(chunks)); err != nil {
		o.logger.Warn("failed to prune stale chunks",
			"task_id", job.TaskID,
			"source", src.Ref,
			"error", err)
	}

	job.complete(&JobResult{
		TotalChunks: len(chunks),
		TotalChars:  totalChars(chunks),
	})
	o.jobs.persist(ctx, job)

	o.logger.Info("ingestion completed",
		"task_id", job.TaskID,
		"source", src.Ref,
		"collection", job.Collection,
		"chunks", len(chunks),
		"duration", time.Since(jobStart))
}

func (o *Orchestrator) failJob(ctx context.Context, job *Job, err error) {
	job.fail(err.Error())
	o.jobs.persist(ctx, job)
	o.logger.Error("ingestion failed",
		"task_id", job.TaskID,
		"source", job.Source,
		"collection", job.Collection,
		"error", err)
}

func totalChars(chunks []models.Chunk) int {
	total := 0
	for _, c := range chunks {
		total += len(c.Text)
	}
	return total
}
