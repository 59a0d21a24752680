// Package upsert merges a Frame of rows into a storage table keyed by a set
// of index columns. Rows whose index matches an existing row overwrite its
// payload columns; the others are added. The storage side is an Engine.
package upsert

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/electricity-lca-backend/internal/domain"
)

// ErrConstraintExists is returned by Engine.AddUniqueConstraint when the
// constraint is already present.
var ErrConstraintExists = errors.New("constraint already exists")

// Engine is the storage boundary of Upsert.
type Engine interface {
	TableExists(ctx context.Context, table string) (bool, error)
	CreateTable(ctx context.Context, table string, f Frame) error
	// Load appends the rows of f to table and returns the row count.
	Load(ctx context.Context, table string, f Frame) (int64, error)
	AddUniqueConstraint(ctx context.Context, table, name string, columns []string) error
	// InsertFromStaging merges staging into target on the frame's index and
	// returns the affected row count.
	InsertFromStaging(ctx context.Context, target, staging string, f Frame) (int64, error)
	DropTable(ctx context.Context, table string) error
}

// Result describes one Upsert call.
type Result struct {
	Table string
	// Created is true when the table did not exist and was created from the frame.
	Created bool
	// Rows is the number of rows loaded or merged.
	Rows    int64
	Staging string
}

// ConstraintName is the name of the unique constraint Upsert maintains on table.
func ConstraintName(table string) string {
	return table + "_unique_constraint_for_upsert"
}

// StagingName returns a fresh staging table name.
func StagingName() string {
	return "temp_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Upsert writes f into table. An absent table is created and loaded. An
// existing one receives the rows through a staging table and an
// insert-or-update on the index columns; the staging table is dropped on
// every path once created.
func Upsert(ctx context.Context, eng Engine, f Frame, table string) (res Result, err error) {
	if strings.TrimSpace(table) == "" {
		return Result{}, domain.NewValidationError("table", "required")
	}
	if err := f.Validate(); err != nil {
		return Result{}, err
	}
	f = f.Normalize()
	res.Table = table

	exists, err := eng.TableExists(ctx, table)
	if err != nil {
		return res, fmt.Errorf("check table %s: %w", table, err)
	}

	if !exists {
		if err := eng.CreateTable(ctx, table, f); err != nil {
			return res, fmt.Errorf("create table %s: %w", table, err)
		}
		n, err := eng.Load(ctx, table, f)
		if err != nil {
			return res, fmt.Errorf("load table %s: %w", table, err)
		}
		res.Created, res.Rows = true, n
		return res, nil
	}

	res.Staging = StagingName()
	if err := eng.CreateTable(ctx, res.Staging, f); err != nil {
		return res, fmt.Errorf("create staging table: %w", err)
	}
	defer func() {
		if dropErr := eng.DropTable(context.WithoutCancel(ctx), res.Staging); dropErr != nil {
			err = errors.Join(err, fmt.Errorf("drop staging table %s: %w", res.Staging, dropErr))
		}
	}()

	if _, err := eng.Load(ctx, res.Staging, f); err != nil {
		return res, fmt.Errorf("load staging table: %w", err)
	}

	if err := eng.AddUniqueConstraint(ctx, table, ConstraintName(table), f.Index); err != nil && !errors.Is(err, ErrConstraintExists) {
		return res, fmt.Errorf("%w: %s: %w", domain.ErrConstraintCreation, ConstraintName(table), err)
	}

	n, err := eng.InsertFromStaging(ctx, table, res.Staging, f)
	if err != nil {
		return res, fmt.Errorf("merge into %s: %w", table, err)
	}
	res.Rows = n
	return res, nil
}

// MergeSQL renders the insert-from-staging statement shared by the engines.
// quote quotes one identifier. whereTrue adds the "WHERE true" SQLite needs
// to parse ON CONFLICT after a SELECT.
func MergeSQL(quote func(string) string, target, staging string, f Frame, whereTrue bool) string {
	cols := make([]string, 0, len(f.Index)+len(f.Columns))
	for _, c := range f.AllColumns() {
		cols = append(cols, quote(c))
	}
	list := strings.Join(cols, ", ")

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) SELECT %s FROM %s", quote(target), list, list, quote(staging))
	if whereTrue {
		b.WriteString(" WHERE true")
	}

	idx := make([]string, len(f.Index))
	for i, c := range f.Index {
		idx[i] = quote(c)
	}
	fmt.Fprintf(&b, " ON CONFLICT (%s) ", strings.Join(idx, ", "))

	if len(f.Columns) == 0 {
		b.WriteString("DO NOTHING")
		return b.String()
	}

	set := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		set[i] = quote(c) + " = EXCLUDED." + quote(c)
	}
	b.WriteString("DO UPDATE SET " + strings.Join(set, ", "))
	return b.String()
}
