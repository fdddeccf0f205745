package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/orionbase/orion/internal/service"
	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List ingestion jobs",
	Long: `List ingestion jobs, newest first.

Job state is persisted to SurrealDB on every transition, so jobs
submitted by earlier invocations are listed alongside the current
process's jobs.`,
	Args: cobra.NoArgs,
	RunE: runJobsList,
}

var statusCmd = &cobra.Command{
	Use:   "status <task-id>",
	Short: "Show the status of one ingestion job",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobStatus,
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(statusCmd)
}

func runJobsList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	orch, err := getOrchestrator()
	if err != nil {
		return fmt.Errorf("init pipeline: %w", err)
	}

	jobs, err := orch.List(ctx)
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}
	if len(jobs) == 0 {
		fmt.Println("No jobs found")
		return nil
	}

	fmt.Printf("%-36s %-12s %-9s %-8s %s\n", "TASK", "STATUS", "PROGRESS", "CHUNKS", "SOURCE")
	fmt.Println("--------------------------------------------------------------------------------")

	for _, job := range jobs {
		fmt.Printf("%-36s %-12s %7.1f%% %-8d %s\n",
			job.TaskID, job.Status, job.Progress, job.ChunksProcessed, job.Source)
	}

	return nil
}

func runJobStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	orch, err := getOrchestrator()
	if err != nil {
		return fmt.Errorf("init pipeline: %w", err)
	}

	job, err := orch.Status(ctx, args[0])
	if err != nil {
		return fmt.Errorf("get job: %w", err)
	}

	fmt.Printf("Job: %s\n", job.TaskID)
	fmt.Printf("  Source: %s\n", job.Source)
	fmt.Printf("  Collection: %s\n", job.Collection)
	fmt.Printf("  Status: %s\n", job.Status)
	fmt.Printf("  Progress: %.1f%%\n", job.Progress)
	fmt.Printf("  Chunks processed: %d\n", job.ChunksProcessed)
	fmt.Printf("  Created: %s\n", job.CreatedAt.Format(time.RFC3339))
	fmt.Printf("  Updated: %s\n", job.UpdatedAt.Format(time.RFC3339))

	if job.Status == service.StatusFailed && job.ErrorMessage != "" {
		fmt.Printf("  Error: %s\n", job.ErrorMessage)
	}

	if job.Result != nil {
		fmt.Println("\nResult:")
		fmt.Printf("  Total chunks: %d\n", job.Result.TotalChunks)
		fmt.Printf("  Total characters: %d\n", job.Result.TotalChars)
	}

	return nil
}
