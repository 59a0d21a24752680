package postgres

import (
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

// Builder returns a squirrel statement builder with $n placeholders.
func Builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// Ident quotes a single identifier. The legacy tables use quoted PascalCase
// names, which Postgres would otherwise fold to lower case.
func Ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// Idents quotes each name.
func Idents(names ...string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = Ident(n)
	}
	return out
}
