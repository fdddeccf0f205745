package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/orionbase/orion/internal/loader"
	"github.com/orionbase/orion/internal/metrics"
	"github.com/orionbase/orion/internal/service"
	"github.com/spf13/cobra"
)

var (
	ingestCollection string
	ingestText       string
	ingestWatch      bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [source...]",
	Short: "Ingest documents into a collection",
	Long: `Ingest one or more documents into a named collection as background jobs.

Each source is a URL or a file path (.md, .txt, .docx, .pdf); raw text can be
passed via --text instead. Content is chunked along its heading
structure, embedded, and stored for semantic retrieval.

Submitting a source that is already being ingested into the same
collection returns the existing job instead of starting a duplicate.

Examples:
  orion ingest https://example.com/handbook --collection docs
  orion ingest ./notes/design.md ./notes/ops.md -c notes
  orion ingest --text "Postgres uses MVCC." -c facts
  orion ingest ./report.docx -c reports --watch=false`,
	Args: cobra.ArbitraryArgs,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestCollection, "collection", "c", "", "target collection (required)")
	ingestCmd.Flags().StringVarP(&ingestText, "text", "t", "", "ingest raw text instead of a URL or file")
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", true, "show live progress until the jobs finish")
	_ = ingestCmd.MarkFlagRequired("collection")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	sources, err := resolveSources(args)
	if err != nil {
		return err
	}

	orch, err := getOrchestrator()
	if err != nil {
		return fmt.Errorf("init pipeline: %w", err)
	}

	ctx := context.Background()
	taskIDs := make([]string, 0, len(sources))
	for _, src := range sources {
		taskID, err := orch.Submit(ctx, src, ingestCollection)
		if err != nil {
			return fmt.Errorf("submit %q: %w", src.Ref, err)
		}
		fmt.Printf("Job %s queued for %q into collection %q\n", taskID, src.Ref, ingestCollection)
		taskIDs = append(taskIDs, taskID)
	}

	if ingestWatch {
		for _, taskID := range taskIDs {
			// The progress view already shows a failure; keep watching the
			// rest so in-flight jobs are not abandoned by an early exit.
			_ = runJobProgress(orch, taskID)
		}
	}

	// Jobs run on in-process workers, so exiting before they finish
	// would abandon them.
	var failed int
	for _, taskID := range taskIDs {
		job := waitForJob(ctx, orch, taskID)
		if job.Status == service.StatusFailed {
			failed++
			if !ingestWatch {
				fmt.Fprintf(os.Stderr, "Job %s failed: %s\n", taskID, job.ErrorMessage)
			}
		} else if !ingestWatch && job.Result != nil {
			fmt.Printf("Job %s completed: %d chunks, %d characters\n",
				taskID, job.Result.TotalChunks, job.Result.TotalChars)
		}
	}

	if verbose {
		printPipelineStats(orch)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d jobs failed", failed, len(taskIDs))
	}
	return nil
}

// waitForJob blocks until the job reaches a terminal state.
func waitForJob(ctx context.Context, orch *service.Orchestrator, taskID string) service.Job {
	for {
		job, err := orch.Status(ctx, taskID)
		if err != nil || job.Status.Terminal() {
			return job
		}
		time.Sleep(200 * time.Millisecond)
	}
}

func printPipelineStats(orch *service.Orchestrator) {
	snap := orch.Metrics().Snapshot()
	fmt.Println("\nPipeline timings:")
	printOpStats("fetch", snap.Fetch)
	printOpStats("chunk", snap.Chunk)
	printOpStats("store", snap.StoreAdd)
	printOpStats("job", snap.IngestJob)
}

func printOpStats(name string, op *metrics.OperationSnapshot) {
	if op == nil {
		return
	}
	fmt.Printf("  %-6s %d calls, avg %.0fms, max %dms\n", name, op.Count, op.AvgTimeMs, op.MaxTimeMs)
}

// resolveSources turns the CLI arguments into loader sources. Raw text
// gets a generated reference so repeated snippets stay distinguishable.
func resolveSources(args []string) ([]loader.Source, error) {
	if ingestText != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("--text cannot be combined with source arguments")
		}
		return []loader.Source{{
			Ref:    "text:" + uuid.NewString(),
			Kind:   loader.KindInline,
			Inline: ingestText,
		}}, nil
	}

	if len(args) == 0 {
		return nil, fmt.Errorf("a source argument or --text is required")
	}

	sources := make([]loader.Source, 0, len(args))
	for _, ref := range args {
		kind := loader.Detect(ref)
		if kind != loader.KindWeb {
			if _, err := os.Stat(ref); err != nil {
				return nil, fmt.Errorf("invalid source path: %w", err)
			}
		}
		sources = append(sources, loader.Source{Ref: ref, Kind: kind})
	}
	return sources, nil
}
