package upsert

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// ReadCSV reads a frame from CSV. The header row names the columns; index
// lists the header names that form the key, the remaining columns become the
// payload in header order. Cells are typed as int64, float64, bool or RFC
// 3339 time when they parse as such and kept as strings otherwise. NaN and
// infinities stay strings. Empty
// cells are nil.
func ReadCSV(r io.Reader, index []string) (Frame, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Frame{}, fmt.Errorf("read csv header: empty input")
		}
		return Frame{}, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	pos := make([]int, 0, len(header))
	for _, name := range index {
		i := slices.Index(header, name)
		if i < 0 {
			return Frame{}, fmt.Errorf("index column %q not in csv header", name)
		}
		pos = append(pos, i)
	}

	f := Frame{Index: slices.Clone(index)}
	for i, name := range header {
		if !slices.Contains(pos, i) {
			f.Columns = append(f.Columns, name)
			pos = append(pos, i)
		}
	}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Frame{}, fmt.Errorf("read csv line %d: %w", line, err)
		}

		row := make([]any, len(pos))
		for i, p := range pos {
			row[i] = parseCell(rec[p])
		}
		f.Rows = append(f.Rows, row)
	}

	return f, nil
}

func parseCell(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if x, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(x) && !math.IsInf(x, 0) {
		return x
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC()
	}
	return s
}
