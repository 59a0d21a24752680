package upsert

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/heartmarshall/electricity-lca-backend/internal/domain"
)

// Frame is a tabular batch of rows. Each row holds the index values followed
// by the payload values, in the order of Index and Columns.
type Frame struct {
	Index   []string
	Columns []string
	Rows    [][]any
}

// AllColumns returns the index columns followed by the payload columns.
func (f Frame) AllColumns() []string {
	out := make([]string, 0, len(f.Index)+len(f.Columns))
	out = append(out, f.Index...)
	return append(out, f.Columns...)
}

// Validate checks that the frame can be upserted: at least one index column,
// unique non-empty column names, rows of the right width and no repeated
// index key after normalization.
func (f Frame) Validate() error {
	var errs []domain.FieldError

	if len(f.Index) == 0 {
		errs = append(errs, domain.FieldError{Field: "index", Message: "at least one index column is required"})
	}

	seen := make(map[string]bool)
	for _, c := range f.AllColumns() {
		switch {
		case strings.TrimSpace(c) == "":
			errs = append(errs, domain.FieldError{Field: "columns", Message: "column name must not be empty"})
		case seen[c]:
			errs = append(errs, domain.FieldError{Field: "columns", Message: fmt.Sprintf("duplicate column %q", c)})
		}
		seen[c] = true
	}

	// Keys are compared as they will be stored.
	norm := f.Normalize()
	width := len(f.Index) + len(f.Columns)
	keys := make(map[string]int, len(f.Rows))
	for i, row := range norm.Rows {
		if len(row) != width {
			errs = append(errs, domain.FieldError{
				Field:   "rows",
				Message: fmt.Sprintf("row %d has %d cells, want %d", i, len(row), width),
			})
			continue
		}
		key := indexKey(row[:len(f.Index)])
		if first, dup := keys[key]; dup {
			errs = append(errs, domain.FieldError{
				Field:   "rows",
				Message: fmt.Sprintf("row %d repeats the index key of row %d", i, first),
			})
			continue
		}
		keys[key] = i
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

func indexKey(values []any) string {
	var b strings.Builder
	for _, v := range values {
		fmt.Fprintf(&b, "%T:%v\x1f", v, v)
	}
	return b.String()
}

// Kind is the storage type of a column.
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindFloat
	KindBool
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	default:
		return "text"
	}
}

func kindOf(v any) (Kind, bool) {
	switch v.(type) {
	case nil:
		return KindText, false
	case int, int32, int64:
		return KindInt, true
	case float32, float64:
		return KindFloat, true
	case bool:
		return KindBool, true
	case time.Time:
		return KindTime, true
	default:
		return KindText, true
	}
}

// Kinds infers one Kind per column from the non-nil values. Integer columns
// with any float value become float; any other mix becomes text. A column
// with only nil values is text.
func (f Frame) Kinds() []Kind {
	width := len(f.Index) + len(f.Columns)
	kinds := make([]Kind, width)
	known := make([]bool, width)

	for _, row := range f.Rows {
		for i := 0; i < width && i < len(row); i++ {
			k, ok := kindOf(row[i])
			if !ok {
				continue
			}
			switch {
			case !known[i]:
				kinds[i], known[i] = k, true
			case kinds[i] == k:
			case (kinds[i] == KindInt && k == KindFloat) || (kinds[i] == KindFloat && k == KindInt):
				kinds[i] = KindFloat
			default:
				kinds[i] = KindText
			}
		}
	}
	return kinds
}

// Normalize returns a copy of the frame whose values match Kinds: integers
// in float columns become float64 and values in text columns become strings.
func (f Frame) Normalize() Frame {
	kinds := f.Kinds()
	out := Frame{Index: f.Index, Columns: f.Columns, Rows: make([][]any, len(f.Rows))}

	for r, row := range f.Rows {
		norm := make([]any, len(row))
		for i, v := range row {
			norm[i] = v
			if v == nil || i >= len(kinds) {
				continue
			}
			switch kinds[i] {
			case KindFloat:
				norm[i] = toFloat(v)
			case KindInt:
				norm[i] = toInt(v)
			case KindText:
				norm[i] = toText(v)
			}
		}
		out.Rows[r] = norm
	}
	return out
}

func toFloat(v any) any {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case float32:
		return float64(x)
	}
	return v
}

func toInt(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int32:
		return int64(x)
	}
	return v
}

func toText(v any) any {
	switch x := v.(type) {
	case string:
		return x
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	}
	return fmt.Sprint(v)
}
