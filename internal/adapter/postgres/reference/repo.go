// Package reference loads the read-only reference tables (regions,
// generation types and the external-name mapping) from PostgreSQL.
package reference

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	postgres "github.com/heartmarshall/electricity-lca-backend/internal/adapter/postgres"
	"github.com/heartmarshall/electricity-lca-backend/internal/domain"
)

const (
	tableRegions  = "Regions"
	tableTypes    = "ElectricityGenerationTypes"
	tableMappings = "ElectricityGenerationTypesMapping"
)

// Repo reads reference data. It satisfies refcache.Loader.
type Repo struct {
	db     postgres.DB
	source string
}

// New creates a reference repository. A non-empty source restricts mappings
// to that "DataSourceName".
func New(db postgres.DB, source string) *Repo {
	return &Repo{db: db, source: source}
}

// Regions returns all regions ordered by id.
func (r *Repo) Regions(ctx context.Context) ([]domain.Region, error) {
	query := postgres.Builder().
		Select(postgres.Idents("Id", "Code", "Type", "Description")...).
		From(postgres.Ident(tableRegions)).
		OrderBy(postgres.Ident("Id"))

	return collect(ctx, r.db, query, "regions", func(row pgx.CollectableRow) (domain.Region, error) {
		var reg domain.Region
		err := row.Scan(&reg.ID, &reg.Code, &reg.Kind, &reg.Description)
		return reg, err
	})
}

// GenerationTypes returns all generation types ordered by id, including the
// reserved unknown type.
func (r *Repo) GenerationTypes(ctx context.Context) ([]domain.GenerationType, error) {
	query := postgres.Builder().
		Select(postgres.Idents("Id", "Name")...).
		From(postgres.Ident(tableTypes)).
		OrderBy(postgres.Ident("Id"))

	return collect(ctx, r.db, query, "generation types", func(row pgx.CollectableRow) (domain.GenerationType, error) {
		var gt domain.GenerationType
		err := row.Scan(&gt.ID, &gt.Name)
		return gt, err
	})
}

// GenerationTypeMappings returns the external-name mappings ordered by id.
func (r *Repo) GenerationTypeMappings(ctx context.Context) ([]domain.GenerationTypeMapping, error) {
	query := postgres.Builder().
		Select(postgres.Idents("Id", "ExternalName", "ElectricityGenerationTypeId", "DataSourceName", "Comment")...).
		From(postgres.Ident(tableMappings)).
		OrderBy(postgres.Ident("Id"))
	if r.source != "" {
		query = query.Where(sq.Eq{postgres.Ident("DataSourceName"): r.source})
	}

	return collect(ctx, r.db, query, "generation type mappings", func(row pgx.CollectableRow) (domain.GenerationTypeMapping, error) {
		var (
			m       domain.GenerationTypeMapping
			source  *string
			comment *string
		)
		if err := row.Scan(&m.ID, &m.ExternalName, &m.GenerationTypeID, &source, &comment); err != nil {
			return m, err
		}
		if source != nil {
			m.Source = *source
		}
		if comment != nil {
			m.Comment = *comment
		}
		return m, nil
	})
}

func collect[T any](ctx context.Context, db postgres.DB, query sq.SelectBuilder, what string, fn pgx.RowToFunc[T]) ([]T, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", what, err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, db).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", what, err)
	}

	out, err := pgx.CollectRows(rows, fn)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", what, err)
	}
	return out, nil
}
