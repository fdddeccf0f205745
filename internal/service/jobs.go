// Package service implements the ingestion orchestrator, job tracking
// and retrieval operations on top of the store layer.
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/orionbase/orion/internal/db"
)

// JobStatus is the lifecycle state of an ingestion job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status is a final state.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// JobResult summarizes a completed ingestion.
type JobResult struct {
	TotalChunks int
	TotalChars  int
}

// Job tracks the progress of a single asynchronous ingestion.
type Job struct {
	mu sync.RWMutex

	TaskID          string
	Source          string
	Collection      string
	Status          JobStatus
	Progress        float64
	ChunksProcessed int
	Result          *JobResult
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Snapshot returns a copy of the job state safe for concurrent readers.
func (j *Job) Snapshot() Job {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return Job{
		TaskID:          j.TaskID,
		Source:          j.Source,
		Collection:      j.Collection,
		Status:          j.Status,
		Progress:        j.Progress,
		ChunksProcessed: j.ChunksProcessed,
		Result:          j.Result,
		ErrorMessage:    j.ErrorMessage,
		CreatedAt:       j.CreatedAt,
		UpdatedAt:       j.UpdatedAt,
	}
}

// markProcessing moves the job from queued into processing.
func (j *Job) markProcessing() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = StatusProcessing
	j.UpdatedAt = time.Now()
}

// updateProgress advances the progress percentage and processed-chunk
// counter. Both values only ever move forward.
func (j *Job) updateProgress(progress float64, chunksProcessed int) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if progress > j.Progress {
		j.Progress = progress
	}
	if chunksProcessed > j.ChunksProcessed {
		j.ChunksProcessed = chunksProcessed
	}
	j.UpdatedAt = time.Now()
}

// complete marks the job as successfully finished.
func (j *Job) complete(result *JobResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = StatusCompleted
	j.Progress = 100
	j.Result = result
	j.UpdatedAt = time.Now()
}

// fail marks the job as failed with a human-readable message.
func (j *Job) fail(msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = StatusFailed
	j.ErrorMessage = msg
	j.UpdatedAt = time.Now()
}

// ErrJobNotFound is returned when a task ID does not match any job.
var ErrJobNotFound = fmt.Errorf("job not found")

// jobFingerprint identifies a (source, collection) pair. The NUL byte
// separator cannot appear in either component.
func jobFingerprint(source, collection string) string {
	return source + "\x00" + collection
}

// JobPersister stores job records durably so status queries survive the
// submitting process. *db.Client implements it.
type JobPersister interface {
	UpsertJob(ctx context.Context, rec db.JobRecord) error
	GetJob(ctx context.Context, taskID string) (*db.JobRecord, error)
	ListJobs(ctx context.Context, limit int) ([]db.JobRecord, error)
}

const listJobsLimit = 100

// JobStore tracks jobs in memory, writes every state change through to an
// optional persister, and enforces that at most one live (queued or
// processing) job exists per (source, collection) pair.
type JobStore struct {
	mu     sync.RWMutex
	jobs   map[string]*Job
	active map[string]string // fingerprint -> task ID of the live job

	persister JobPersister
	logger    *slog.Logger
}

// NewJobStore creates a job store. A nil persister keeps jobs in memory
// only, which is what unit tests use.
func NewJobStore(persister JobPersister, logger *slog.Logger) *JobStore {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &JobStore{
		jobs:      make(map[string]*Job),
		active:    make(map[string]string),
		persister: persister,
		logger:    logger,
	}
}

// GetOrCreate returns the live job for the (source, collection) pair if
// one exists, or atomically registers a new queued job. The second
// return value reports whether a new job was created. A reservation held
// by a job that already reached a terminal state does not deduplicate.
func (s *JobStore) GetOrCreate(source, collection string) (*Job, bool) {
	fp := jobFingerprint(source, collection)

	s.mu.Lock()
	defer s.mu.Unlock()

	if taskID, ok := s.active[fp]; ok {
		if job, ok := s.jobs[taskID]; ok && !job.Snapshot().Status.Terminal() {
			return job, false
		}
		// The reserved job finished but has not released yet.
		delete(s.active, fp)
	}

	now := time.Now()
	job := &Job{
		TaskID:     uuid.NewString(),
		Source:     source,
		Collection: collection,
		Status:     StatusQueued,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.jobs[job.TaskID] = job
	s.active[fp] = job.TaskID

	return job, true
}

// release drops the fingerprint reservation once a job reaches a
// terminal state, allowing the pair to be re-ingested.
func (s *JobStore) release(job *Job) {
	fp := jobFingerprint(job.Source, job.Collection)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active[fp] == job.TaskID {
		delete(s.active, fp)
	}
}

// persist writes the job's current state through to the persister.
// Persistence failures are logged, never fatal: the in-memory state keeps
// the running pipeline correct.
func (s *JobStore) persist(ctx context.Context, job *Job) {
	if s.persister == nil {
		return
	}
	snap := job.Snapshot()
	if err := s.persister.UpsertJob(ctx, jobToRecord(snap)); err != nil {
		s.logger.Warn("failed to persist job state",
			"task_id", snap.TaskID,
			"status", snap.Status,
			"error", err)
	}
}

// Get returns the job with the given task ID, falling back to the
// persisted record for jobs submitted by an earlier process.
func (s *JobStore) Get(ctx context.Context, taskID string) (*Job, error) {
	s.mu.RLock()
	job, ok := s.jobs[taskID]
	s.mu.RUnlock()
	if ok {
		return job, nil
	}

	if s.persister != nil {
		rec, err := s.persister.GetJob(ctx, taskID)
		if err != nil {
			return nil, fmt.Errorf("load job %s: %w", taskID, err)
		}
		if rec != nil {
			job := jobFromRecord(*rec)
			return &job, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrJobNotFound, taskID)
}

// List returns snapshots of all known jobs, newest first. Persisted jobs
// from earlier processes are included; for task IDs tracked in this
// process the in-memory state wins, since it is always at least as fresh.
func (s *JobStore) List(ctx context.Context) ([]Job, error) {
	s.mu.RLock()
	out := make([]Job, 0, len(s.jobs))
	seen := make(map[string]bool, len(s.jobs))
	for _, j := range s.jobs {
		snap := j.Snapshot()
		out = append(out, snap)
		seen[snap.TaskID] = true
	}
	s.mu.RUnlock()

	if s.persister != nil {
		records, err := s.persister.ListJobs(ctx, listJobsLimit)
		if err != nil {
			return nil, fmt.Errorf("load jobs: %w", err)
		}
		for _, rec := range records {
			if !seen[rec.TaskID] {
				out = append(out, jobFromRecord(rec))
			}
		}
	}

	sort.Slice(out, func(i, k int) bool {
		if out[i].CreatedAt.Equal(out[k].CreatedAt) {
			return strings.Compare(out[i].TaskID, out[k].TaskID) < 0
		}
		return out[i].CreatedAt.After(out[k].CreatedAt)
	})
	return out, nil
}

func jobToRecord(snap Job) db.JobRecord {
	rec := db.JobRecord{
		TaskID:          snap.TaskID,
		Source:          snap.Source,
		Collection:      snap.Collection,
		Status:          string(snap.Status),
		Progress:        snap.Progress,
		ChunksProcessed: snap.ChunksProcessed,
		ErrorMessage:    snap.ErrorMessage,
		CreatedAt:       snap.CreatedAt,
		UpdatedAt:       snap.UpdatedAt,
	}
	if snap.Result != nil {
		rec.TotalChunks = snap.Result.TotalChunks
		rec.TotalChars = snap.Result.TotalChars
	}
	return rec
}

func jobFromRecord(rec db.JobRecord) Job {
	job := Job{
		TaskID:          rec.TaskID,
		Source:          rec.Source,
		Collection:      rec.Collection,
		Status:          JobStatus(rec.Status),
		Progress:        rec.Progress,
		ChunksProcessed: rec.ChunksProcessed,
		ErrorMessage:    rec.ErrorMessage,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
	}
	if job.Status == StatusCompleted {
		job.Result = &JobResult{
			TotalChunks: rec.TotalChunks,
			TotalChars:  rec.TotalChars,
		}
	}
	return job
}
