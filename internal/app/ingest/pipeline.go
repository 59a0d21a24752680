package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"golang.org/x/time/rate"

	"github.com/heartmarshall/electricity-lca-backend/internal/domain"
	"github.com/heartmarshall/electricity-lca-backend/internal/provider"
	"github.com/heartmarshall/electricity-lca-backend/internal/reconcile"
	"github.com/heartmarshall/electricity-lca-backend/internal/refcache"
)

// Config holds the parameters of one run.
type Config struct {
	Start time.Time
	End   time.Time
	// MinInterval is the minimum spacing between two region fetches.
	// Zero disables pacing.
	MinInterval time.Duration
	// GenerationTypes restricts the external keys that are written.
	// Empty means all mapped keys.
	GenerationTypes []string
	// Regions overrides the reference region list, in the given order.
	Regions []string
}

// Pipeline processes regions sequentially. A Pipeline is meant for a single
// Run.
type Pipeline struct {
	log     *slog.Logger
	loader  ReferenceLoader
	fetcher SeriesFetcher
	writer  GenerationWriter
	cfg     Config
}

// NewPipeline creates a new Pipeline.
func NewPipeline(log *slog.Logger, loader ReferenceLoader, fetcher SeriesFetcher, writer GenerationWriter, cfg Config) *Pipeline {
	return &Pipeline{
		log:     log.With("component", "ingest"),
		loader:  loader,
		fetcher: fetcher,
		writer:  writer,
		cfg:     cfg,
	}
}

// Run loads the reference data and processes every region. Failures of
// a single region are recorded in the Summary and never stop the run. The
// returned error is non-nil when the run could not start or was cancelled;
// the Summary then covers the regions handled so far.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	began := time.Now()

	if !p.cfg.End.After(p.cfg.Start) {
		return Summary{}, domain.NewValidationError("end", "must be after start")
	}

	cache, err := refcache.Load(ctx, p.loader, p.log, nil)
	if err != nil {
		return Summary{}, fmt.Errorf("load reference data: %w", err)
	}

	rec := reconcile.New(cache, p.cfg.GenerationTypes)
	codes := p.regionCodes(cache)

	var limiter *rate.Limiter
	if p.cfg.MinInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(p.cfg.MinInterval), 1)
	}

	p.log.InfoContext(ctx, "pipeline started",
		slog.Time("start", p.cfg.Start),
		slog.Time("end", p.cfg.End),
		slog.Int("regions", len(codes)),
		slog.Duration("min_interval", p.cfg.MinInterval),
		slog.Any("generation_types", p.cfg.GenerationTypes),
	)

	sum := Summary{RegionsTotal: len(codes)}
	stored := make(map[string]bool)
	unmapped := make(map[string]bool)

	var runErr error
	for i, code := range codes {
		// Cancellation is honoured between regions only.
		if err := ctx.Err(); err != nil {
			runErr = err
		} else if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				runErr = err
			}
		}
		if runErr != nil {
			sum.Cancelled = true
			p.log.WarnContext(ctx, "pipeline cancelled",
				slog.String("error", runErr.Error()),
				slog.Int("regions_remaining", len(codes)-i),
			)
			break
		}

		res := p.runRegion(ctx, rec, code)
		sum.Regions = append(sum.Regions, res)

		switch {
		case res.failed():
			sum.RegionsFailed++
		case res.Outcome == OutcomeProcessed:
			sum.RegionsProcessed++
		default:
			sum.RegionsSkipped++
		}
		sum.TypesStored += len(res.Stored)
		sum.RowsInserted += res.RowsInserted
		for _, k := range res.Stored {
			stored[k] = true
		}
		for _, k := range res.Unmapped {
			unmapped[k] = true
		}
	}

	sum.Unmapped = slices.Sorted(maps.Keys(unmapped))
	sum.RequestedButUnstored = rec.Missing(stored)
	sum.Duration = time.Since(began)

	if len(sum.RequestedButUnstored) > 0 {
		p.log.WarnContext(ctx, "requested generation types were not stored",
			slog.Any("requested_but_unstored", sum.RequestedButUnstored),
		)
	}

	p.log.InfoContext(ctx, "pipeline completed",
		slog.Int("regions_total", sum.RegionsTotal),
		slog.Int("regions_processed", sum.RegionsProcessed),
		slog.Int("regions_skipped", sum.RegionsSkipped),
		slog.Int("regions_failed", sum.RegionsFailed),
		slog.Int("types_stored", sum.TypesStored),
		slog.Int64("rows_inserted", sum.RowsInserted),
		slog.Any("unmapped", sum.Unmapped),
		slog.Bool("cancelled", sum.Cancelled),
		slog.Duration("duration", sum.Duration),
	)

	if runErr != nil {
		return sum, fmt.Errorf("pipeline cancelled: %w", runErr)
	}
	return sum, nil
}

func (p *Pipeline) regionCodes(cache refcache.Cache) []string {
	if len(p.cfg.Regions) > 0 {
		return slices.Clone(p.cfg.Regions)
	}
	regions := cache.Regions()
	codes := make([]string, len(regions))
	for i, r := range regions {
		codes[i] = r.Code
	}
	return codes
}

// runRegion fetches, reconciles and writes one region.
func (p *Pipeline) runRegion(ctx context.Context, rec *reconcile.Reconciler, code string) RegionResult {
	began := time.Now()
	log := p.log.With(slog.String("region", code))
	res := RegionResult{Code: code}

	log.InfoContext(ctx, "processing region")

	fetched := p.fetcher.Fetch(ctx, code, p.cfg.Start, p.cfg.End)
	switch fetched.Kind {
	case provider.SeriesNoData:
		res.Outcome = OutcomeNoData
		res.Duration = time.Since(began)
		log.WarnContext(ctx, "no data for region", slog.Duration("duration", res.Duration))
		return res
	case provider.SeriesTransportError:
		res.Outcome = OutcomeTransportError
		res.Err = fetched.Err
		res.Duration = time.Since(began)
		log.WarnContext(ctx, "fetch failed, region skipped",
			slog.String("error", errString(fetched.Err)),
			slog.Duration("duration", res.Duration),
		)
		return res
	}

	regionID, err := rec.ResolveRegion(code)
	if err != nil {
		res.Outcome = OutcomeUnknownRegion
		res.Err = err
		res.Duration = time.Since(began)
		log.ErrorContext(ctx, "region missing from reference data", slog.String("error", err.Error()))
		return res
	}
	res.RegionID = regionID

	// A started write always runs to completion.
	writeCtx := context.WithoutCancel(ctx)

	for _, key := range slices.Sorted(maps.Keys(fetched.Series)) {
		decision, typeID := rec.Classify(key)
		switch decision {
		case reconcile.DecisionFiltered:
			res.Filtered = append(res.Filtered, key)
			log.DebugContext(ctx, "generation type filtered out", slog.String("generation_type", key))
			continue
		case reconcile.DecisionUnmapped:
			res.Unmapped = append(res.Unmapped, key)
			log.WarnContext(ctx, "generation type not mapped, skipped",
				slog.String("generation_type", key),
				slog.String("error", domain.ErrUnmappableGenerationType.Error()),
			)
			continue
		}

		out, err := p.writer.Write(writeCtx, fetched.Series[key], regionID, typeID)
		switch {
		case err != nil:
			res.Failed = append(res.Failed, key)
			res.Err = errors.Join(res.Err, err)
			log.ErrorContext(ctx, "write failed",
				slog.String("generation_type", key),
				slog.String("error", err.Error()),
			)
		case !out.Stored():
			res.Rejected = append(res.Rejected, key)
			log.WarnContext(ctx, "series rejected",
				slog.String("generation_type", key),
				slog.String("error", out.Rejected.Error()),
			)
		default:
			res.Stored = append(res.Stored, key)
			res.RowsDeleted += out.Deleted
			res.RowsInserted += out.Inserted
			log.DebugContext(ctx, "series stored",
				slog.String("generation_type", key),
				slog.Int("generation_type_id", typeID),
				slog.Int64("deleted", out.Deleted),
				slog.Int64("inserted", out.Inserted),
			)
		}
	}

	res.Outcome = OutcomeProcessed
	res.Duration = time.Since(began)

	if missing := rec.Missing(setOf(res.Stored)); len(missing) > 0 {
		log.WarnContext(ctx, "requested generation types not stored for region", slog.Any("missing", missing))
	}

	log.InfoContext(ctx, "region completed",
		slog.Int("stored", len(res.Stored)),
		slog.Int("filtered", len(res.Filtered)),
		slog.Int("unmapped", len(res.Unmapped)),
		slog.Int("rejected", len(res.Rejected)),
		slog.Int("failed", len(res.Failed)),
		slog.Int64("rows_inserted", res.RowsInserted),
		slog.Duration("duration", res.Duration),
	)
	return res
}

func setOf(keys []string) map[string]bool {
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
