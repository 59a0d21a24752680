// Package bulk implements the upsert.Engine storage boundary for PostgreSQL.
package bulk

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	postgres "github.com/heartmarshall/electricity-lca-backend/internal/adapter/postgres"
	"github.com/heartmarshall/electricity-lca-backend/internal/upsert"
)

// Engine runs upserts against PostgreSQL tables in the current schema.
type Engine struct {
	db postgres.DB
}

var _ upsert.Engine = (*Engine)(nil)

// New creates an Engine.
func New(db postgres.DB) *Engine {
	return &Engine{db: db}
}

func columnType(k upsert.Kind) string {
	switch k {
	case upsert.KindInt:
		return "bigint"
	case upsert.KindFloat:
		return "double precision"
	case upsert.KindBool:
		return "boolean"
	case upsert.KindTime:
		return "timestamptz"
	default:
		return "text"
	}
}

// TableExists reports whether table exists in the current schema.
func (e *Engine) TableExists(ctx context.Context, table string) (bool, error) {
	sql, args, err := postgres.Builder().
		Select("1").
		From("information_schema.tables").
		Where("table_schema = current_schema()").
		Where(sq.Eq{"table_name": table}).
		Prefix("SELECT EXISTS (").
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var exists bool
	if err := postgres.QuerierFromCtx(ctx, e.db).QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// CreateTable creates table with one column per frame column, typed from the
// frame's values.
func (e *Engine) CreateTable(ctx context.Context, table string, f upsert.Frame) error {
	_, err := postgres.QuerierFromCtx(ctx, e.db).Exec(ctx, createTableSQL(table, f))
	return err
}

func createTableSQL(table string, f upsert.Frame) string {
	kinds := f.Kinds()
	cols := f.AllColumns()
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = postgres.Ident(c) + " " + columnType(kinds[i])
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", postgres.Ident(table), strings.Join(defs, ", "))
}

// Load copies the frame's rows into table.
func (e *Engine) Load(ctx context.Context, table string, f upsert.Frame) (int64, error) {
	if len(f.Rows) == 0 {
		return 0, nil
	}
	return postgres.QuerierFromCtx(ctx, e.db).CopyFrom(ctx, pgx.Identifier{table}, f.AllColumns(), pgx.CopyFromRows(f.Rows))
}

// AddUniqueConstraint adds a named UNIQUE constraint over columns. An
// existing constraint of that name yields upsert.ErrConstraintExists.
func (e *Engine) AddUniqueConstraint(ctx context.Context, table, name string, columns []string) error {
	sql := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s)",
		postgres.Ident(table), postgres.Ident(name), strings.Join(postgres.Idents(columns...), ", "))

	_, err := postgres.QuerierFromCtx(ctx, e.db).Exec(ctx, sql)
	if postgres.HasCode(err, postgres.CodeDuplicateTable, postgres.CodeDuplicateObject) {
		return fmt.Errorf("%s: %w", name, upsert.ErrConstraintExists)
	}
	return err
}

// InsertFromStaging merges staging into target with ON CONFLICT on the
// frame's index columns.
func (e *Engine) InsertFromStaging(ctx context.Context, target, staging string, f upsert.Frame) (int64, error) {
	tag, err := postgres.QuerierFromCtx(ctx, e.db).Exec(ctx, upsert.MergeSQL(postgres.Ident, target, staging, f, false))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DropTable drops table if it exists.
func (e *Engine) DropTable(ctx context.Context, table string) error {
	_, err := postgres.QuerierFromCtx(ctx, e.db).Exec(ctx, "DROP TABLE IF EXISTS "+postgres.Ident(table))
	return err
}
