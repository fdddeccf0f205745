// Package cli provides the command-line interface for orion.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/orionbase/orion/internal/config"
	"github.com/orionbase/orion/internal/db"
	"github.com/orionbase/orion/internal/llm"
	"github.com/orionbase/orion/internal/loader"
	"github.com/orionbase/orion/internal/metrics"
	"github.com/orionbase/orion/internal/service"
	"github.com/orionbase/orion/internal/store"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config and db client
	cfg      config.Config
	dbClient *db.Client
	logger   *slog.Logger
	closeLog func() error

	// Lazy-initialized embedding client and pipeline
	embedder     *llm.Embedder
	orchestrator *service.Orchestrator

	collector = metrics.NewCollector()
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "orion",
	Short: "Document ingestion and retrieval pipeline",
	Long: `Orion ingests documents (URLs, Markdown, plain text, Word and PDF files)
into named collections, chunks them along their heading structure,
embeds each chunk and stores it in SurrealDB for semantic retrieval.

Ingestion runs as background jobs that can be polled for progress;
queries return the most similar chunks assembled into a context block
ready to hand to an LLM.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip DB connection for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		// Load config
		cfg = config.Load()

		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}
		logger, closeLog = config.SetupLogger(cfg.LogFile, level)

		// Connect to database
		ctx := context.Background()
		dbCfg := db.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}

		var err error
		dbClient, err = db.NewClient(ctx, dbCfg, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}

		// Initialize schema
		if err := dbClient.InitSchema(ctx, cfg.EmbedDimension); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		// Close database connection
		if dbClient != nil {
			if err := dbClient.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
		if closeLog != nil {
			_ = closeLog()
		}
	},
}

// getStore creates the vector store with a lazily initialized embedder.
func getStore() (store.Store, error) {
	if embedder == nil {
		var err error
		embedder, err = llm.NewEmbedder(cfg)
		if err != nil {
			return nil, fmt.Errorf("init embedder: %w", err)
		}
	}
	return store.NewSurrealStore(dbClient, embedder, logger), nil
}

// getOrchestrator builds the ingestion pipeline. One orchestrator per
// process: job state lives in memory, so all commands must share it.
func getOrchestrator() (*service.Orchestrator, error) {
	if orchestrator != nil {
		return orchestrator, nil
	}

	st, err := getStore()
	if err != nil {
		return nil, err
	}

	exec, err := service.NewPoolExecutor(cfg.IngestWorkers)
	if err != nil {
		return nil, fmt.Errorf("init worker pool: %w", err)
	}

	opts := service.Options{
		MaxChunkSize: cfg.MaxChunkSize,
		BatchSize:    cfg.BatchSize,
	}
	jobs := service.NewJobStore(dbClient, logger)
	orchestrator = service.NewOrchestrator(st, loader.New(cfg.MaxSourceMB<<20), exec, opts, jobs, collector, logger)
	return orchestrator, nil
}

// getQueryService builds the retrieval side.
func getQueryService() (*service.QueryService, error) {
	st, err := getStore()
	if err != nil {
		return nil, err
	}
	return service.NewQueryService(st, cfg.DefaultQueryK, collector, logger), nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
