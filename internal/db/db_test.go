// Integration tests for SurrealDB operations. They require Docker and
// start a disposable SurrealDB container via testcontainers.
package db

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testDB *Client
var testContainer testcontainers.Container

// TestMain sets up and tears down the SurrealDB container for all tests.
func TestMain(m *testing.M) {
	// Disable ryuk (cleanup container) as it can cause issues in some environments
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()

	var err error
	testContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v3.0.0-beta.1",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--log", "info", "--user", "root", "--pass", "root"},
			WaitingFor:   wait.ForLog("Started web server").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start SurrealDB container: %v", err)
	}

	host, err := testContainer.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	// Workaround: testcontainers may return "null" as host in some environments
	if host == "" || host == "null" {
		host = "localhost"
	}
	mappedPort, err := testContainer.MappedPort(ctx, "8000")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	url := fmt.Sprintf("ws://%s:%s/rpc", host, mappedPort.Port())
	// Point the external client tests at the same container.
	os.Setenv("SURREALDB_URL", url)

	testDB, err = NewClient(ctx, Config{
		URL:       url,
		Namespace: "test",
		Database:  "test",
		Username:  "root",
		Password:  "root",
		AuthLevel: "root",
	}, nil)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	// Initialize schema with test embedding dimension (384)
	if err := testDB.InitSchema(ctx, 384); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	code := m.Run()

	_ = testDB.Close(ctx)
	_ = testContainer.Terminate(ctx)

	os.Exit(code)
}

// axisEmbedding returns a 384-dim vector pointing along one axis, so
// cosine distances between test vectors are predictable.
func axisEmbedding(axis int) []float32 {
	embedding := make([]float32, 384)
	embedding[axis%384] = 1.0
	return embedding
}

// blendEmbedding returns a vector between two axes, closer to the first.
func blendEmbedding(primary, secondary int) []float32 {
	embedding := make([]float32, 384)
	embedding[primary%384] = 0.9
	embedding[secondary%384] = 0.1
	return embedding
}

func testRecord(collection, source string, position, axis int) ChunkRecord {
	return ChunkRecord{
		ChunkID:    fmt.Sprintf("%s-%04d", source, position),
		Collection: collection,
		Source:     source,
		Text:       fmt.Sprintf("chunk %d of %s", position, source),
		HeaderPath: []string{"Section"},
		Position:   position,
		WordCount:  4,
		Embedding:  axisEmbedding(axis),
	}
}

func TestEnsureCollection_Idempotent(t *testing.T) {
	ctx := context.Background()
	defer func() { _ = testDB.WipeData(ctx) }()

	for i := 0; i < 3; i++ {
		if err := testDB.EnsureCollection(ctx, "docs"); err != nil {
			t.Fatalf("EnsureCollection attempt %d failed: %v", i, err)
		}
	}

	collections, err := testDB.ListCollections(ctx)
	if err != nil {
		t.Fatalf("ListCollections failed: %v", err)
	}
	if len(collections) != 1 {
		t.Errorf("Expected 1 collection, got %d", len(collections))
	}
	if collections[0].Name != "docs" {
		t.Errorf("Expected collection 'docs', got %q", collections[0].Name)
	}

	exists, err := testDB.CollectionExists(ctx, "docs")
	if err != nil {
		t.Fatalf("CollectionExists failed: %v", err)
	}
	if !exists {
		t.Error("Expected collection 'docs' to exist")
	}

	exists, err = testDB.CollectionExists(ctx, "missing")
	if err != nil {
		t.Fatalf("CollectionExists failed: %v", err)
	}
	if exists {
		t.Error("Expected collection 'missing' to not exist")
	}
}

func TestUpsertChunks_Idempotent(t *testing.T) {
	ctx := context.Background()
	defer func() { _ = testDB.WipeData(ctx) }()

	records := []ChunkRecord{
		testRecord("docs", "a.md", 0, 0),
		testRecord("docs", "a.md", 1, 1),
	}

	// Applying the same batch twice must not duplicate rows.
	for i := 0; i < 2; i++ {
		if err := testDB.UpsertChunks(ctx, records); err != nil {
			t.Fatalf("UpsertChunks attempt %d failed: %v", i, err)
		}
	}

	count, err := testDB.CountChunks(ctx, "docs")
	if err != nil {
		t.Fatalf("CountChunks failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 chunks after repeated upsert, got %d", count)
	}
}

func TestUpsertChunks_OverwritesByID(t *testing.T) {
	ctx := context.Background()
	defer func() { _ = testDB.WipeData(ctx) }()

	original := testRecord("docs", "a.md", 0, 0)
	if err := testDB.UpsertChunks(ctx, []ChunkRecord{original}); err != nil {
		t.Fatalf("UpsertChunks failed: %v", err)
	}

	updated := original
	updated.Text = "rewritten content"
	if err := testDB.UpsertChunks(ctx, []ChunkRecord{updated}); err != nil {
		t.Fatalf("UpsertChunks failed: %v", err)
	}

	matches, err := testDB.SearchChunks(ctx, "docs", axisEmbedding(0), 5, nil)
	if err != nil {
		t.Fatalf("SearchChunks failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(matches))
	}
	if matches[0].Text != "rewritten content" {
		t.Errorf("Expected overwritten text, got %q", matches[0].Text)
	}
}

func TestSearchChunks_Ranking(t *testing.T) {
	ctx := context.Background()
	defer func() { _ = testDB.WipeData(ctx) }()

	records := []ChunkRecord{
		testRecord("docs", "a.md", 0, 0),
		testRecord("docs", "a.md", 1, 1),
		testRecord("docs", "a.md", 2, 2),
	}
	if err := testDB.UpsertChunks(ctx, records); err != nil {
		t.Fatalf("UpsertChunks failed: %v", err)
	}

	matches, err := testDB.SearchChunks(ctx, "docs", blendEmbedding(1, 0), 2, nil)
	if err != nil {
		t.Fatalf("SearchChunks failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(matches))
	}
	if matches[0].Position != 1 {
		t.Errorf("Expected closest chunk at position 1 first, got %d", matches[0].Position)
	}
	if matches[0].Distance > matches[1].Distance {
		t.Errorf("Expected ascending distances, got %v then %v",
			matches[0].Distance, matches[1].Distance)
	}
}

func TestSearchChunks_CollectionIsolation(t *testing.T) {
	ctx := context.Background()
	defer func() { _ = testDB.WipeData(ctx) }()

	if err := testDB.UpsertChunks(ctx, []ChunkRecord{
		testRecord("alpha", "a.md", 0, 0),
		testRecord("beta", "b.md", 0, 0),
	}); err != nil {
		t.Fatalf("UpsertChunks failed: %v", err)
	}

	matches, err := testDB.SearchChunks(ctx, "alpha", axisEmbedding(0), 10, nil)
	if err != nil {
		t.Fatalf("SearchChunks failed: %v", err)
	}
	for _, m := range matches {
		if m.Collection != "alpha" {
			t.Errorf("Match from collection %q leaked into 'alpha' search", m.Collection)
		}
	}
	if len(matches) != 1 {
		t.Errorf("Expected 1 match in 'alpha', got %d", len(matches))
	}
}

func TestSearchChunks_SourceFilter(t *testing.T) {
	ctx := context.Background()
	defer func() { _ = testDB.WipeData(ctx) }()

	if err := testDB.UpsertChunks(ctx, []ChunkRecord{
		testRecord("docs", "a.md", 0, 0),
		testRecord("docs", "b.md", 0, 1),
	}); err != nil {
		t.Fatalf("UpsertChunks failed: %v", err)
	}

	source := "b.md"
	matches, err := testDB.SearchChunks(ctx, "docs", axisEmbedding(0), 10, &source)
	if err != nil {
		t.Fatalf("SearchChunks failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(matches))
	}
	if matches[0].Source != "b.md" {
		t.Errorf("Expected source 'b.md', got %q", matches[0].Source)
	}
}

func TestDeleteSourceChunksFrom(t *testing.T) {
	ctx := context.Background()
	defer func() { _ = testDB.WipeData(ctx) }()

	if err := testDB.UpsertChunks(ctx, []ChunkRecord{
		testRecord("docs", "a.md", 0, 0),
		testRecord("docs", "a.md", 1, 1),
		testRecord("docs", "a.md", 2, 2),
		testRecord("docs", "b.md", 2, 3),
	}); err != nil {
		t.Fatalf("UpsertChunks failed: %v", err)
	}

	if err := testDB.DeleteSourceChunksFrom(ctx, "docs", "a.md", 1); err != nil {
		t.Fatalf("DeleteSourceChunksFrom failed: %v", err)
	}

	count, err := testDB.CountChunks(ctx, "docs")
	if err != nil {
		t.Fatalf("CountChunks failed: %v", err)
	}
	// a.md keeps position 0; b.md is untouched.
	if count != 2 {
		t.Errorf("Expected 2 chunks after delete, got %d", count)
	}
}

func testJobRecord(taskID, source string, createdAt time.Time) JobRecord {
	return JobRecord{
		TaskID:     taskID,
		Source:     source,
		Collection: "docs",
		Status:     "queued",
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
}

func TestUpsertJob_OverwritesByTaskID(t *testing.T) {
	ctx := context.Background()
	defer func() { _ = testDB.WipeData(ctx) }()

	now := time.Now().UTC().Truncate(time.Millisecond)
	rec := testJobRecord("task-1", "a.md", now)
	if err := testDB.UpsertJob(ctx, rec); err != nil {
		t.Fatalf("UpsertJob failed: %v", err)
	}

	// A later transition replaces the record in place.
	rec.Status = "completed"
	rec.Progress = 100
	rec.TotalChunks = 7
	rec.TotalChars = 420
	rec.UpdatedAt = now.Add(time.Second)
	if err := testDB.UpsertJob(ctx, rec); err != nil {
		t.Fatalf("UpsertJob failed: %v", err)
	}

	got, err := testDB.GetJob(ctx, "task-1")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected a job record, got nil")
	}
	if got.Status != "completed" || got.Progress != 100 {
		t.Errorf("Expected completed/100, got %s/%v", got.Status, got.Progress)
	}
	if got.TotalChunks != 7 || got.TotalChars != 420 {
		t.Errorf("Expected 7 chunks / 420 chars, got %d/%d", got.TotalChunks, got.TotalChars)
	}
	if got.Source != "a.md" || got.Collection != "docs" {
		t.Errorf("Expected a.md/docs, got %s/%s", got.Source, got.Collection)
	}

	jobs, err := testDB.ListJobs(ctx, 10)
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(jobs) != 1 {
		t.Errorf("Expected 1 job after repeated upsert, got %d", len(jobs))
	}
}

func TestGetJob_Unknown(t *testing.T) {
	ctx := context.Background()

	got, err := testDB.GetJob(ctx, "no-such-task")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for unknown task, got %+v", got)
	}
}

func TestListJobs_NewestFirst(t *testing.T) {
	ctx := context.Background()
	defer func() { _ = testDB.WipeData(ctx) }()

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i := 0; i < 3; i++ {
		rec := testJobRecord(fmt.Sprintf("task-%d", i), fmt.Sprintf("%d.md", i),
			base.Add(time.Duration(i)*time.Second))
		if err := testDB.UpsertJob(ctx, rec); err != nil {
			t.Fatalf("UpsertJob failed: %v", err)
		}
	}

	jobs, err := testDB.ListJobs(ctx, 2)
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("Expected limit of 2 jobs, got %d", len(jobs))
	}
	if jobs[0].TaskID != "task-2" || jobs[1].TaskID != "task-1" {
		t.Errorf("Expected newest first (task-2, task-1), got (%s, %s)",
			jobs[0].TaskID, jobs[1].TaskID)
	}
}

func TestCountChunks_EmptyCollection(t *testing.T) {
	ctx := context.Background()

	count, err := testDB.CountChunks(ctx, "nothing-here")
	if err != nil {
		t.Fatalf("CountChunks failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 chunks, got %d", count)
	}
}
