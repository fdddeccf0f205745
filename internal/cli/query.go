package cli

import (
	"context"
	"fmt"

	"github.com/orionbase/orion/internal/service"
	"github.com/orionbase/orion/internal/store"
	"github.com/spf13/cobra"
)

var (
	queryCollection string
	querySource     string
	queryK          int
	queryRaw        bool
	queryStats      bool
)

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Retrieve the most relevant chunks for a question",
	Long: `Query a collection by semantic similarity.

By default the matches are assembled into a single context block with
per-chunk citations, ready to paste into an LLM prompt. Use --raw to
list the individual matches with their similarity scores instead.

Examples:
  orion query "how does token refresh work" -c docs
  orion query "deployment checklist" -c docs -k 10
  orion query "error handling" -c docs --source ./notes/design.md
  orion query "indexing" -c docs --raw`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryCollection, "collection", "c", "", "collection to search (required)")
	queryCmd.Flags().StringVar(&querySource, "source", "", "restrict matches to a single source")
	queryCmd.Flags().IntVarP(&queryK, "top", "k", 0, "number of matches to return")
	queryCmd.Flags().BoolVar(&queryRaw, "raw", false, "print individual matches instead of a context block")
	queryCmd.Flags().BoolVar(&queryStats, "stats", false, "print query timing after the results")
	_ = queryCmd.MarkFlagRequired("collection")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	svc, err := getQueryService()
	if err != nil {
		return fmt.Errorf("init services: %w", err)
	}

	var filters *store.Filters
	if querySource != "" {
		filters = &store.Filters{Source: querySource}
	}

	if !queryRaw {
		block, err := svc.Context(ctx, queryCollection, args[0], queryK, filters)
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		fmt.Println(block)
		printQueryStats()
		return nil
	}

	matches, err := svc.Search(ctx, queryCollection, args[0], queryK, filters)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}

	if len(matches) == 0 {
		fmt.Println(service.NoContextMessage)
		printQueryStats()
		return nil
	}

	fmt.Printf("Found %d matches:\n\n", len(matches))
	for i, m := range matches {
		fmt.Printf("%d. [%.3f] %s", i+1, m.Score, m.Chunk.Metadata.Source)
		if len(m.Chunk.Metadata.HeaderPath) > 0 {
			fmt.Printf(" > %s", m.Chunk.Metadata.HeaderPath[len(m.Chunk.Metadata.HeaderPath)-1])
		}
		fmt.Println()
		text := m.Chunk.Text
		if !verbose && len(text) > 200 {
			text = text[:200] + "..."
		}
		fmt.Printf("   %s\n\n", text)
	}

	printQueryStats()
	return nil
}

func printQueryStats() {
	if !queryStats {
		return
	}
	if snap := collector.Snapshot().StoreQuery; snap != nil {
		fmt.Printf("\nQuery time: %dms (embedding + search)\n", snap.TotalTimeMs)
	}
}
