package domain

import (
	"math"
	"slices"
	"strconv"
	"time"
)

// Point is a single generation value (MW) for the interval starting at Time.
type Point struct {
	Time  time.Time
	Value float64
}

// Series is a generation time series for one region and generation type.
type Series []Point

// Observation is a stored generation row.
type Observation struct {
	RegionID         int
	GenerationTypeID int
	Time             time.Time
	Value            float64
}

// WriteOutcome is the result of writing one series.
// Rejected is non-nil when the series failed validation; nothing was touched.
type WriteOutcome struct {
	Deleted  int64
	Inserted int64
	Rejected error
}

// Stored reports whether the write went through.
func (o WriteOutcome) Stored() bool { return o.Rejected == nil }

// Validate checks the preconditions for writing the series: at least one
// point, real timestamps, finite values and no repeated instants.
func (s Series) Validate() error {
	if len(s) == 0 {
		return &SeriesError{Reason: "series is empty"}
	}

	seen := make(map[int64]struct{}, len(s))
	for i, p := range s {
		if p.Time.IsZero() {
			return &SeriesError{Reason: "point " + strconv.Itoa(i) + " has no timestamp"}
		}
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			return &SeriesError{Reason: "point " + strconv.Itoa(i) + " has a non-numeric value"}
		}
		key := p.Time.UnixNano()
		if _, dup := seen[key]; dup {
			return &SeriesError{Reason: "duplicate timestamp " + p.Time.UTC().Format(time.RFC3339)}
		}
		seen[key] = struct{}{}
	}

	return nil
}

// Bounds returns the earliest and latest timestamps. Both are zero for an
// empty series.
func (s Series) Bounds() (start, end time.Time) {
	for i, p := range s {
		if i == 0 || p.Time.Before(start) {
			start = p.Time
		}
		if i == 0 || p.Time.After(end) {
			end = p.Time
		}
	}
	return start, end
}

// Sorted returns a copy ordered by time.
func (s Series) Sorted() Series {
	out := slices.Clone(s)
	slices.SortStableFunc(out, func(a, b Point) int {
		return a.Time.Compare(b.Time)
	})
	return out
}
