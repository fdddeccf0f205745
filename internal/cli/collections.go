package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List collections and their chunk counts",
	Args:  cobra.NoArgs,
	RunE:  runCollections,
}

func init() {
	rootCmd.AddCommand(collectionsCmd)
}

func runCollections(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	collections, err := dbClient.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}

	if len(collections) == 0 {
		fmt.Println("No collections found")
		return nil
	}

	fmt.Printf("%-30s %-10s %s\n", "NAME", "CHUNKS", "CREATED")
	fmt.Println("------------------------------------------------------")

	for _, col := range collections {
		count, err := dbClient.CountChunks(ctx, col.Name)
		if err != nil {
			return fmt.Errorf("count chunks in %q: %w", col.Name, err)
		}
		fmt.Printf("%-30s %-10d %s\n", col.Name, count, col.CreatedAt.Format("2006-01-02 15:04"))
	}

	return nil
}
