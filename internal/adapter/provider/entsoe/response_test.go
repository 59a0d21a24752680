package entsoe

import (
	"testing"
	"time"

	"github.com/heartmarshall/electricity-lca-backend/internal/domain"
)

func TestParseResolution(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 3, 30, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"PT15M", base.Add(15 * time.Minute), false},
		{"PT30M", base.Add(30 * time.Minute), false},
		{"PT60M", base.Add(time.Hour), false},
		{"PT1H", base.Add(time.Hour), false},
		{"P1D", base.AddDate(0, 0, 1), false},
		{"P7D", base.AddDate(0, 0, 7), false},
		{"PT0M", time.Time{}, true},
		{"PT15S", time.Time{}, true},
		{"P1Y", time.Time{}, true},
		{"", time.Time{}, true},
	}

	for _, tt := range tests {
		res, err := parseResolution(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseResolution(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && !res.step(base, 1).Equal(tt.want) {
			t.Errorf("parseResolution(%q).step = %v, want %v", tt.in, res.step(base, 1), tt.want)
		}
	}
}

func TestParseTime(t *testing.T) {
	t.Parallel()

	want := time.Date(2023, 12, 1, 23, 0, 0, 0, time.UTC)
	for _, in := range []string{"2023-12-01T23:00Z", "2023-12-01T23:00:00Z", "2023-12-02T00:00+01:00"} {
		got, err := parseTime(in)
		if err != nil {
			t.Errorf("parseTime(%q): %v", in, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("parseTime(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := parseTime("yesterday"); err == nil {
		t.Error("expected error for invalid timestamp")
	}
}

func TestExpandPeriod_A03FillsOmittedPositions(t *testing.T) {
	t.Parallel()

	p := apiPeriod{
		Start:      "2024-01-01T00:00Z",
		End:        "2024-01-01T01:00Z",
		Resolution: "PT15M",
		Points: []apiPoint{
			{Position: 1, Quantity: "10"},
			{Position: 3, Quantity: "30"},
		},
	}

	got, err := expandPeriod(p, "A03")
	if err != nil {
		t.Fatalf("expandPeriod: %v", err)
	}

	want := []float64{10, 10, 30, 30}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d: %v", len(got), len(want), got)
	}
	for i, v := range want {
		if got[i].Value != v {
			t.Errorf("point %d = %v, want %v", i, got[i].Value, v)
		}
		wantTime := time.Date(2024, 1, 1, 0, 15*i, 0, 0, time.UTC)
		if !got[i].Time.Equal(wantTime) {
			t.Errorf("point %d time = %v, want %v", i, got[i].Time, wantTime)
		}
	}
}

func TestExpandPeriod_A01KeepsGaps(t *testing.T) {
	t.Parallel()

	p := apiPeriod{
		Start:      "2024-01-01T00:00Z",
		End:        "2024-01-01T01:00Z",
		Resolution: "PT15M",
		Points: []apiPoint{
			{Position: 4, Quantity: "40"},
			{Position: 1, Quantity: "10"},
		},
	}

	got, err := expandPeriod(p, "A01")
	if err != nil {
		t.Fatalf("expandPeriod: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2: %v", len(got), got)
	}
	if got[0].Value != 10 || got[1].Value != 40 {
		t.Errorf("values = %v, want sorted [10 40]", got)
	}
}

func TestExpandPeriod_InvalidPosition(t *testing.T) {
	t.Parallel()

	p := apiPeriod{Start: "2024-01-01T00:00Z", Resolution: "PT60M", Points: []apiPoint{{Position: 0, Quantity: "1"}}}
	if _, err := expandPeriod(p, "A01"); err == nil {
		t.Fatal("expected error for position 0")
	}
}

func TestFinalize_DedupesAndTrims(t *testing.T) {
	t.Parallel()

	h := func(n int) time.Time { return time.Date(2024, 1, 1, n, 0, 0, 0, time.UTC) }
	acc := map[string]domain.Series{
		"Nuclear": {{Time: h(2), Value: 2}, {Time: h(0), Value: 0}, {Time: h(1), Value: 1}, {Time: h(1), Value: 11}, {Time: h(5), Value: 5}},
		"Solar":   {{Time: h(9), Value: 9}},
	}

	out := finalize(acc, h(0), h(3))

	nuclear := out["Nuclear"]
	if len(nuclear) != 3 {
		t.Fatalf("Nuclear = %v, want 3 points", nuclear)
	}
	if nuclear[1].Value != 11 {
		t.Errorf("duplicate instant should keep the later value, got %v", nuclear[1].Value)
	}
	if _, ok := out["Solar"]; ok {
		t.Error("series with no points inside the window should be dropped")
	}
}

func TestAreaCode(t *testing.T) {
	t.Parallel()

	if eic, ok := AreaCode("NL"); !ok || eic != "10YNL----------L" {
		t.Errorf("AreaCode(NL) = %q, %v", eic, ok)
	}
	if eic, ok := AreaCode("10YBE----------2"); !ok || eic != "10YBE----------2" {
		t.Errorf("AreaCode(EIC) = %q, %v", eic, ok)
	}
	if _, ok := AreaCode("ATLANTIS"); ok {
		t.Error("AreaCode(ATLANTIS) should not resolve")
	}
}

func TestPSRTypeName(t *testing.T) {
	t.Parallel()

	if got := PSRTypeName("B04"); got != "Fossil Gas" {
		t.Errorf("PSRTypeName(B04) = %q", got)
	}
	if got := PSRTypeName("Z99"); got != "Z99" {
		t.Errorf("PSRTypeName(Z99) = %q, want raw code", got)
	}
}
