// Package generation stores generation time series in the
// "ElectricityGeneration" table. Writes replace the covered time range
// for one region and generation type, so re-running an ingestion converges
// to the same rows.
package generation

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	postgres "github.com/heartmarshall/electricity-lca-backend/internal/adapter/postgres"
	"github.com/heartmarshall/electricity-lca-backend/internal/domain"
)

const table = "ElectricityGeneration"

var (
	colRegion = postgres.Ident("RegionId")
	colType   = postgres.Ident("GenerationTypeId")
	colTime   = postgres.Ident("DateStamp")
	colValue  = postgres.Ident("AggregatedGeneration")
)

// copyColumns is the column order used by CopyFrom.
var copyColumns = []string{"RegionId", "DateStamp", "GenerationTypeId", "AggregatedGeneration"}

// Repo provides generation persistence backed by PostgreSQL.
type Repo struct {
	db  postgres.DB
	txm *postgres.TxManager
}

// New creates a new generation repository.
func New(db postgres.DB, txm *postgres.TxManager) *Repo {
	return &Repo{db: db, txm: txm}
}

// ---------------------------------------------------------------------------
// Write
// ---------------------------------------------------------------------------

// Write validates series and replaces the stored rows of (regionID,
// generationTypeID) between the earliest and latest point, inclusive.
// A series that fails validation is reported in WriteOutcome.Rejected with a
// nil error and no rows touched. The delete and the insert share one
// transaction.
func (r *Repo) Write(ctx context.Context, series domain.Series, regionID, generationTypeID int) (domain.WriteOutcome, error) {
	if err := series.Validate(); err != nil {
		return domain.WriteOutcome{Rejected: err}, nil
	}

	start, end := series.Bounds()
	key := fmt.Sprintf("region %d type %d", regionID, generationTypeID)

	var out domain.WriteOutcome
	err := r.txm.RunInTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, r.db)

		deleted, err := r.deleteRange(ctx, q, regionID, generationTypeID, start, end)
		if err != nil {
			return err
		}

		inserted, err := q.CopyFrom(ctx, pgx.Identifier{table}, copyColumns,
			pgx.CopyFromSlice(len(series), func(i int) ([]any, error) {
				p := series[i]
				return []any{regionID, p.Time.UTC(), generationTypeID, p.Value}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copy rows: %w", err)
		}

		out = domain.WriteOutcome{Deleted: deleted, Inserted: inserted}
		return nil
	})
	if err != nil {
		return domain.WriteOutcome{}, postgres.MapError(err, "generation", key)
	}

	return out, nil
}

func (r *Repo) deleteRange(ctx context.Context, q postgres.Querier, regionID, generationTypeID int, start, end time.Time) (int64, error) {
	sql, args, err := postgres.Builder().
		Delete(postgres.Ident(table)).
		Where(sq.Eq{colRegion: regionID}).
		Where(sq.Eq{colType: generationTypeID}).
		Where(colTime+" BETWEEN ? AND ?", start.UTC(), end.UTC()).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("delete range: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ---------------------------------------------------------------------------
// Read helpers
// ---------------------------------------------------------------------------

func rangeQuery(b sq.SelectBuilder, regionID, generationTypeID int, start, end time.Time) sq.SelectBuilder {
	return b.From(postgres.Ident(table)).
		Where(sq.Eq{colRegion: regionID}).
		Where(sq.Eq{colType: generationTypeID}).
		Where(colTime+" BETWEEN ? AND ?", start.UTC(), end.UTC())
}

// CountRange counts stored rows of (regionID, generationTypeID) with a
// timestamp in [start, end].
func (r *Repo) CountRange(ctx context.Context, regionID, generationTypeID int, start, end time.Time) (int64, error) {
	sql, args, err := rangeQuery(postgres.Builder().Select("COUNT(*)"), regionID, generationTypeID, start, end).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var n int64
	if err := postgres.QuerierFromCtx(ctx, r.db).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, postgres.MapError(err, "generation", fmt.Sprintf("region %d type %d", regionID, generationTypeID))
	}
	return n, nil
}

// ListRange returns stored rows of (regionID, generationTypeID) in [start, end]
// ordered by time.
func (r *Repo) ListRange(ctx context.Context, regionID, generationTypeID int, start, end time.Time) ([]domain.Observation, error) {
	sql, args, err := rangeQuery(postgres.Builder().Select(colRegion, colType, colTime, colValue), regionID, generationTypeID, start, end).
		OrderBy(colTime).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, r.db).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list generation: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Observation, error) {
		var o domain.Observation
		if err := row.Scan(&o.RegionID, &o.GenerationTypeID, &o.Time, &o.Value); err != nil {
			return o, err
		}
		o.Time = o.Time.UTC()
		return o, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan generation: %w", err)
	}
	return out, nil
}

// EarliestDate returns the first stored timestamp of a region, identified by
// its code. ok is false when the region has no rows.
func (r *Repo) EarliestDate(ctx context.Context, regionCode string) (earliest time.Time, ok bool, err error) {
	sql, args, err := postgres.Builder().
		Select(`MIN(g.` + colTime + `)`).
		From(postgres.Ident(table) + ` g`).
		Join(postgres.Ident("Regions") + ` r ON r.` + postgres.Ident("Id") + ` = g.` + colRegion).
		Where(sq.Eq{`r.` + postgres.Ident("Code"): regionCode}).
		ToSql()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("build earliest date: %w", err)
	}

	var ts *time.Time
	if err := postgres.QuerierFromCtx(ctx, r.db).QueryRow(ctx, sql, args...).Scan(&ts); err != nil {
		return time.Time{}, false, postgres.MapError(err, "region", regionCode)
	}
	if ts == nil {
		return time.Time{}, false, nil
	}
	return ts.UTC(), true, nil
}
