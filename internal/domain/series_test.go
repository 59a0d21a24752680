package domain

import (
	"errors"
	"math"
	"testing"
	"time"
)

func ts(hour int) time.Time {
	return time.Date(2024, 1, 1, hour, 0, 0, 0, time.UTC)
}

func TestSeries_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		series  Series
		wantErr bool
	}{
		{"valid", Series{{ts(0), 100}, {ts(1), 110}}, false},
		{"single point", Series{{ts(0), 0}}, false},
		{"empty", Series{}, true},
		{"nil", nil, true},
		{"zero timestamp", Series{{time.Time{}, 1}}, true},
		{"NaN value", Series{{ts(0), math.NaN()}}, true},
		{"infinite value", Series{{ts(0), math.Inf(1)}}, true},
		{"duplicate timestamp", Series{{ts(0), 1}, {ts(0), 2}}, true},
		{
			"duplicate instant in other zone",
			Series{{ts(1), 1}, {ts(1).In(time.FixedZone("CET", 3600)), 2}},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.series.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidSeries) {
				t.Errorf("Validate() error %v does not wrap ErrInvalidSeries", err)
			}
		})
	}
}

func TestSeries_Bounds(t *testing.T) {
	t.Parallel()

	s := Series{{ts(3), 1}, {ts(1), 2}, {ts(5), 3}, {ts(2), 4}}
	start, end := s.Bounds()

	if !start.Equal(ts(1)) {
		t.Errorf("start = %v, want %v", start, ts(1))
	}
	if !end.Equal(ts(5)) {
		t.Errorf("end = %v, want %v", end, ts(5))
	}

	start, end = Series(nil).Bounds()
	if !start.IsZero() || !end.IsZero() {
		t.Errorf("empty series bounds = (%v, %v), want zero", start, end)
	}
}

func TestSeries_Sorted(t *testing.T) {
	t.Parallel()

	s := Series{{ts(2), 2}, {ts(0), 0}, {ts(1), 1}}
	sorted := s.Sorted()

	for i, p := range sorted {
		if p.Value != float64(i) {
			t.Errorf("sorted[%d].Value = %v, want %d", i, p.Value, i)
		}
	}
	if s[0].Value != 2 {
		t.Error("Sorted must not reorder the receiver")
	}
}

func TestWriteOutcome_Stored(t *testing.T) {
	t.Parallel()

	if !(WriteOutcome{Inserted: 2}).Stored() {
		t.Error("outcome without rejection should be stored")
	}
	if (WriteOutcome{Rejected: &SeriesError{Reason: "x"}}).Stored() {
		t.Error("rejected outcome should not be stored")
	}
}
