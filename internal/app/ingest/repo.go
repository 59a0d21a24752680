// Package ingest runs the generation ingestion pipeline: load reference data
// once, then fetch, reconcile and write every region in turn.
//
// The interfaces below are the consumer-side view of the adapters the
// pipeline depends on.
package ingest

import (
	"context"
	"time"

	"github.com/heartmarshall/electricity-lca-backend/internal/domain"
	"github.com/heartmarshall/electricity-lca-backend/internal/provider"
	"github.com/heartmarshall/electricity-lca-backend/internal/refcache"
)

// ReferenceLoader reads the reference tables.
type ReferenceLoader = refcache.Loader

// SeriesFetcher retrieves generation series for one region and window.
type SeriesFetcher interface {
	Fetch(ctx context.Context, regionCode string, start, end time.Time) provider.SeriesResult
}

// GenerationWriter replaces the stored rows covered by a series.
type GenerationWriter interface {
	Write(ctx context.Context, series domain.Series, regionID, generationTypeID int) (domain.WriteOutcome, error)
}
