package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/orionbase/orion/internal/metrics"
	"github.com/orionbase/orion/internal/models"
	"github.com/orionbase/orion/internal/store"
)

// QueryService runs similarity searches and assembles context blocks.
type QueryService struct {
	store    store.Store
	defaultK int
	metrics  *metrics.Collector
	logger   *slog.Logger
}

// NewQueryService creates a query service. defaultK is used when a
// caller passes k <= 0.
func NewQueryService(st store.Store, defaultK int, collector *metrics.Collector, logger *slog.Logger) *QueryService {
	if defaultK <= 0 {
		defaultK = 5
	}
	if collector == nil {
		collector = metrics.NewCollector()
	}
	return &QueryService{
		store:    st,
		defaultK: defaultK,
		metrics:  collector,
		logger:   logger,
	}
}

// Search returns the k most similar chunks for the query text, ranked
// by descending similarity. A missing collection yields no matches
// rather than an error.
func (s *QueryService) Search(ctx context.Context, collection, query string, k int, filters *store.Filters) ([]models.Match, error) {
	if collection == "" {
		return nil, fmt.Errorf("collection name is required")
	}
	if query == "" {
		return nil, fmt.Errorf("query text is required")
	}
	if k <= 0 {
		k = s.defaultK
	}

	start := time.Now()
	matches, err := s.store.Query(ctx, collection, query, k, filters)
	s.metrics.RecordTiming(metrics.OpStoreQuery, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("query collection %q: %w", collection, err)
	}

	s.logger.Debug("query executed",
		"collection", collection,
		"k", k,
		"matches", len(matches),
		"duration", time.Since(start))

	return matches, nil
}

// Context runs a search and formats the matches into a single
// prompt-ready context block.
func (s *QueryService) Context(ctx context.Context, collection, query string, k int, filters *store.Filters) (string, error) {
	matches, err := s.Search(ctx, collection, query, k, filters)
	if err != nil {
		return "", err
	}
	return FormatContext(matches), nil
}
