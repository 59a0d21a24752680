// Package sqlite implements the upsert.Engine storage boundary for SQLite
// files through modernc.org/sqlite.
//
// SQLite has no timestamp type; times are stored as RFC 3339 text. Booleans
// are stored as integers.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/heartmarshall/electricity-lca-backend/internal/upsert"
)

// maxVariables bounds the bound parameters of one INSERT statement.
const maxVariables = 900

// Engine runs upserts against one SQLite database.
type Engine struct {
	db *sql.DB
}

var _ upsert.Engine = (*Engine)(nil)

// Open opens (creating if needed) the database file at path.
func Open(ctx context.Context, path string) (*Engine, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A single connection keeps staging tables visible to every statement.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	return &Engine{db: db}, nil
}

// New wraps an already opened database.
func New(db *sql.DB) *Engine {
	return &Engine{db: db}
}

// DB returns the underlying handle.
func (e *Engine) DB() *sql.DB { return e.db }

// Close closes the database.
func (e *Engine) Close() error { return e.db.Close() }

func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func columnType(k upsert.Kind) string {
	switch k {
	case upsert.KindInt, upsert.KindBool:
		return "INTEGER"
	case upsert.KindFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}

func (e *Engine) TableExists(ctx context.Context, table string) (bool, error) {
	query, args, err := sq.Select("COUNT(*)").
		From("sqlite_master").
		Where(sq.Eq{"type": "table", "name": table}).
		ToSql()
	if err != nil {
		return false, err
	}

	var n int
	if err := e.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (e *Engine) CreateTable(ctx context.Context, table string, f upsert.Frame) error {
	kinds := f.Kinds()
	cols := f.AllColumns()
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = quote(c) + " " + columnType(kinds[i])
	}

	_, err := e.db.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", quote(table), strings.Join(defs, ", ")))
	return err
}

// Load inserts the rows in multi-row batches inside one transaction.
func (e *Engine) Load(ctx context.Context, table string, f upsert.Frame) (int64, error) {
	if len(f.Rows) == 0 {
		return 0, nil
	}

	cols := f.AllColumns()
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quote(c)
	}
	batch := max(1, maxVariables/len(cols))

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var total int64
	for start := 0; start < len(f.Rows); start += batch {
		end := min(start+batch, len(f.Rows))

		ins := sq.Insert(quote(table)).Columns(quoted...)
		for _, row := range f.Rows[start:end] {
			ins = ins.Values(toStorage(row)...)
		}
		query, args, err := ins.ToSql()
		if err != nil {
			return 0, err
		}

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("insert rows %d-%d: %w", start, end-1, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return total, nil
}

func toStorage(row []any) []any {
	out := make([]any, len(row))
	for i, v := range row {
		if t, ok := v.(time.Time); ok {
			out[i] = t.UTC().Format(time.RFC3339Nano)
			continue
		}
		out[i] = v
	}
	return out
}

// AddUniqueConstraint creates a unique index named name. SQLite cannot add
// constraints to an existing table; a unique index is what ON CONFLICT
// requires.
func (e *Engine) AddUniqueConstraint(ctx context.Context, table, name string, columns []string) error {
	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = quote(c)
	}

	_, err := e.db.ExecContext(ctx, fmt.Sprintf("CREATE UNIQUE INDEX %s ON %s (%s)", quote(name), quote(table), strings.Join(cols, ", ")))
	if err != nil && strings.Contains(err.Error(), "already exists") {
		return errors.Join(upsert.ErrConstraintExists, err)
	}
	return err
}

func (e *Engine) InsertFromStaging(ctx context.Context, target, staging string, f upsert.Frame) (int64, error) {
	res, err := e.db.ExecContext(ctx, upsert.MergeSQL(quote, target, staging, f, true))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (e *Engine) DropTable(ctx context.Context, table string) error {
	_, err := e.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quote(table))
	return err
}
