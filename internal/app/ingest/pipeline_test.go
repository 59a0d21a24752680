package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/heartmarshall/electricity-lca-backend/internal/domain"
	"github.com/heartmarshall/electricity-lca-backend/internal/provider"
)

var (
	testStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	testEnd   = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockLoader serves fixed reference data.
type mockLoader struct {
	regions  []domain.Region
	types    []domain.GenerationType
	mappings []domain.GenerationTypeMapping
	err      error
}

func (m *mockLoader) Regions(context.Context) ([]domain.Region, error) {
	return m.regions, m.err
}

func (m *mockLoader) GenerationTypes(context.Context) ([]domain.GenerationType, error) {
	return m.types, nil
}

func (m *mockLoader) GenerationTypeMappings(context.Context) ([]domain.GenerationTypeMapping, error) {
	return m.mappings, nil
}

func newLoader(codes ...string) *mockLoader {
	l := &mockLoader{
		types: []domain.GenerationType{
			{ID: 0, Name: "Unknown / not specified"},
			{ID: 1, Name: "Natural gas"},
			{ID: 2, Name: "Nuclear"},
			{ID: 3, Name: "Solar"},
		},
		mappings: []domain.GenerationTypeMapping{
			{ID: 1, ExternalName: "Fossil Gas", GenerationTypeID: 1, Source: domain.DefaultMappingSource},
			{ID: 2, ExternalName: "Nuclear", GenerationTypeID: 2, Source: domain.DefaultMappingSource},
			{ID: 3, ExternalName: "Solar", GenerationTypeID: 3, Source: domain.DefaultMappingSource},
		},
	}
	for i, c := range codes {
		l.regions = append(l.regions, domain.Region{ID: 10 + i, Code: c, Kind: domain.RegionKindBiddingZone})
	}
	return l
}

// mockFetcher returns a canned result per region code.
type mockFetcher struct {
	mu      sync.Mutex
	results map[string]provider.SeriesResult
	calls   []string
	times   []time.Time
	onFetch func(code string)
}

func (m *mockFetcher) Fetch(_ context.Context, code string, _, _ time.Time) provider.SeriesResult {
	m.mu.Lock()
	m.calls = append(m.calls, code)
	m.times = append(m.times, time.Now())
	m.mu.Unlock()
	if m.onFetch != nil {
		m.onFetch(code)
	}
	res, ok := m.results[code]
	if !ok {
		return provider.NoData()
	}
	return res
}

type writeCall struct {
	regionID int
	typeID   int
	points   int
	ctxErr   error
}

// mockWriter records writes and injects failures per generation type id.
type mockWriter struct {
	mu     sync.Mutex
	calls  []writeCall
	errs   map[int]error
	reject map[int]bool
}

func (m *mockWriter) Write(ctx context.Context, s domain.Series, regionID, typeID int) (domain.WriteOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, writeCall{regionID: regionID, typeID: typeID, points: len(s), ctxErr: ctx.Err()})
	if err := m.errs[typeID]; err != nil {
		return domain.WriteOutcome{}, err
	}
	if m.reject[typeID] {
		return domain.WriteOutcome{Rejected: &domain.SeriesError{Reason: "series is empty"}}, nil
	}
	return domain.WriteOutcome{Deleted: 1, Inserted: int64(len(s))}, nil
}

func series(n int) domain.Series {
	s := make(domain.Series, n)
	for i := range s {
		s[i] = domain.Point{Time: testStart.Add(time.Duration(i) * time.Hour), Value: float64(i)}
	}
	return s
}

func ok(keys ...string) provider.SeriesResult {
	m := make(map[string]domain.Series, len(keys))
	for _, k := range keys {
		m[k] = series(3)
	}
	return provider.OK(m)
}

func run(t *testing.T, ctx context.Context, l *mockLoader, f *mockFetcher, w *mockWriter, cfg Config) (Summary, error) {
	t.Helper()
	if cfg.Start.IsZero() {
		cfg.Start, cfg.End = testStart, testEnd
	}
	return NewPipeline(newTestLogger(), l, f, w, cfg).Run(ctx)
}

func TestRun_StoresMappedSeries(t *testing.T) {
	t.Parallel()

	f := &mockFetcher{results: map[string]provider.SeriesResult{
		"NL": ok("Fossil Gas", "Solar"),
		"BE": ok("Nuclear"),
	}}
	w := &mockWriter{}

	sum, err := run(t, context.Background(), newLoader("NL", "BE"), f, w, Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !slices.Equal(f.calls, []string{"NL", "BE"}) {
		t.Errorf("fetch order = %v, want reference order", f.calls)
	}
	if len(w.calls) != 3 {
		t.Fatalf("expected 3 writes, got %d", len(w.calls))
	}
	// Keys inside a region are written in sorted order.
	if w.calls[0].typeID != 1 || w.calls[1].typeID != 3 || w.calls[0].regionID != 10 {
		t.Errorf("unexpected NL writes: %+v", w.calls[:2])
	}
	if w.calls[2].regionID != 11 || w.calls[2].typeID != 2 {
		t.Errorf("unexpected BE write: %+v", w.calls[2])
	}

	if sum.RegionsTotal != 2 || sum.RegionsProcessed != 2 || sum.RegionsFailed != 0 {
		t.Errorf("unexpected summary: %+v", sum)
	}
	if sum.TypesStored != 3 || sum.RowsInserted != 9 {
		t.Errorf("TypesStored=%d RowsInserted=%d, want 3 and 9", sum.TypesStored, sum.RowsInserted)
	}
	if sum.HasErrors() {
		t.Error("expected no errors")
	}
	if sum.Cancelled {
		t.Error("run should not be cancelled")
	}
}

func TestRun_NoDataAndTransportErrorSkipRegion(t *testing.T) {
	t.Parallel()

	f := &mockFetcher{results: map[string]provider.SeriesResult{
		"NL": provider.NoData(),
		"BE": provider.TransportFailure("BE", errors.New("503 service unavailable")),
		"DE": ok("Solar"),
	}}
	w := &mockWriter{}

	sum, err := run(t, context.Background(), newLoader("NL", "BE", "DE"), f, w, Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.calls) != 3 {
		t.Fatalf("every region should be fetched, got %v", f.calls)
	}
	if len(w.calls) != 1 || w.calls[0].regionID != 12 {
		t.Fatalf("only DE should be written, got %+v", w.calls)
	}
	if sum.RegionsSkipped != 2 || sum.RegionsProcessed != 1 {
		t.Errorf("unexpected summary: %+v", sum)
	}
	if sum.HasErrors() {
		t.Error("no-data and transport skips are not errors")
	}

	if sum.Regions[0].Outcome != OutcomeNoData {
		t.Errorf("NL outcome = %s", sum.Regions[0].Outcome)
	}
	be := sum.Regions[1]
	if be.Outcome != OutcomeTransportError || !errors.Is(be.Err, domain.ErrExternalTransport) {
		t.Errorf("BE = %s, %v", be.Outcome, be.Err)
	}
}

func TestRun_UnknownRegionIsFailure(t *testing.T) {
	t.Parallel()

	f := &mockFetcher{results: map[string]provider.SeriesResult{
		"XX": ok("Solar"),
		"NL": ok("Solar"),
	}}
	w := &mockWriter{}

	sum, err := run(t, context.Background(), newLoader("NL"), f, w, Config{Regions: []string{"XX", "NL"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sum.RegionsFailed != 1 || sum.RegionsProcessed != 1 {
		t.Errorf("unexpected summary: %+v", sum)
	}
	xx := sum.Regions[0]
	if xx.Outcome != OutcomeUnknownRegion || !errors.Is(xx.Err, domain.ErrUnknownRegion) {
		t.Errorf("XX = %s, %v", xx.Outcome, xx.Err)
	}
	if len(w.calls) != 1 || w.calls[0].regionID != 10 {
		t.Errorf("only NL should be written, got %+v", w.calls)
	}
	if !sum.HasErrors() {
		t.Error("unknown region should count as an error")
	}
}

func TestRun_RegionsOverrideOrder(t *testing.T) {
	t.Parallel()

	f := &mockFetcher{}
	_, err := run(t, context.Background(), newLoader("NL", "BE", "DE"), f, &mockWriter{}, Config{Regions: []string{"DE", "NL"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(f.calls, []string{"DE", "NL"}) {
		t.Errorf("fetch order = %v, want [DE NL]", f.calls)
	}
}

func TestRun_FilterAndUnmapped(t *testing.T) {
	t.Parallel()

	f := &mockFetcher{results: map[string]provider.SeriesResult{
		"NL": ok("Fossil Gas", "Hydro Run-of-river and poundage", "Solar"),
	}}
	w := &mockWriter{}

	sum, err := run(t, context.Background(), newLoader("NL"), f, w, Config{
		GenerationTypes: []string{"Fossil Gas", "Hydro Run-of-river and poundage", "Wind Offshore"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	nl := sum.Regions[0]
	if !slices.Equal(nl.Stored, []string{"Fossil Gas"}) {
		t.Errorf("Stored = %v", nl.Stored)
	}
	if !slices.Equal(nl.Filtered, []string{"Solar"}) {
		t.Errorf("Filtered = %v", nl.Filtered)
	}
	if !slices.Equal(nl.Unmapped, []string{"Hydro Run-of-river and poundage"}) {
		t.Errorf("Unmapped = %v", nl.Unmapped)
	}
	if !slices.Equal(sum.Unmapped, []string{"Hydro Run-of-river and poundage"}) {
		t.Errorf("summary Unmapped = %v", sum.Unmapped)
	}
	want := []string{"Hydro Run-of-river and poundage", "Wind Offshore"}
	if !slices.Equal(sum.RequestedButUnstored, want) {
		t.Errorf("RequestedButUnstored = %v, want %v", sum.RequestedButUnstored, want)
	}
	if len(w.calls) != 1 {
		t.Errorf("expected 1 write, got %d", len(w.calls))
	}
	if sum.HasErrors() {
		t.Error("unmapped keys are not errors")
	}
}

func TestRun_NoFilterReportsNothingMissing(t *testing.T) {
	t.Parallel()

	f := &mockFetcher{results: map[string]provider.SeriesResult{"NL": ok("Solar")}}
	sum, err := run(t, context.Background(), newLoader("NL"), f, &mockWriter{}, Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.RequestedButUnstored != nil {
		t.Errorf("RequestedButUnstored = %v, want nil", sum.RequestedButUnstored)
	}
}

func TestRun_RejectedAndFailedWrites(t *testing.T) {
	t.Parallel()

	f := &mockFetcher{results: map[string]provider.SeriesResult{
		"NL": ok("Fossil Gas", "Nuclear", "Solar"),
		"BE": ok("Solar"),
	}}
	dbErr := errors.New("connection reset")
	w := &mockWriter{
		errs:   map[int]error{2: dbErr},
		reject: map[int]bool{1: true},
	}

	sum, err := run(t, context.Background(), newLoader("NL", "BE"), f, w, Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A storage failure marks the key and the region continues.
	if len(w.calls) != 4 {
		t.Fatalf("expected 4 writes, got %d", len(w.calls))
	}

	nl := sum.Regions[0]
	if !slices.Equal(nl.Rejected, []string{"Fossil Gas"}) {
		t.Errorf("Rejected = %v", nl.Rejected)
	}
	if !slices.Equal(nl.Failed, []string{"Nuclear"}) {
		t.Errorf("Failed = %v", nl.Failed)
	}
	if !slices.Equal(nl.Stored, []string{"Solar"}) {
		t.Errorf("Stored = %v", nl.Stored)
	}
	if !errors.Is(nl.Err, dbErr) {
		t.Errorf("region error = %v, want %v", nl.Err, dbErr)
	}
	if nl.Outcome != OutcomeProcessed {
		t.Errorf("NL outcome = %s", nl.Outcome)
	}

	if sum.RegionsFailed != 1 || sum.RegionsProcessed != 1 {
		t.Errorf("unexpected summary: %+v", sum)
	}
	if sum.TypesStored != 2 {
		t.Errorf("TypesStored = %d, want 2", sum.TypesStored)
	}
}

func TestRun_CancelStopsAtRegionBoundary(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := &mockFetcher{
		results: map[string]provider.SeriesResult{
			"NL": ok("Fossil Gas", "Solar"),
			"BE": ok("Solar"),
		},
		onFetch: func(code string) {
			if code == "NL" {
				cancel()
			}
		},
	}
	w := &mockWriter{}

	sum, err := run(t, ctx, newLoader("NL", "BE", "DE"), f, w, Config{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if !sum.Cancelled {
		t.Error("summary should be marked cancelled")
	}
	if !slices.Equal(f.calls, []string{"NL"}) {
		t.Errorf("fetch calls = %v, want [NL]", f.calls)
	}
	// The region in flight finishes its writes with a live context.
	if len(w.calls) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(w.calls))
	}
	for _, c := range w.calls {
		if c.ctxErr != nil {
			t.Errorf("write saw cancelled context: %v", c.ctxErr)
		}
	}
	if len(sum.Regions) != 1 || sum.RegionsTotal != 3 {
		t.Errorf("unexpected summary: %+v", sum)
	}
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &mockFetcher{}
	sum, err := run(t, ctx, newLoader("NL"), f, &mockWriter{}, Config{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(f.calls) != 0 || !sum.Cancelled {
		t.Errorf("calls=%v cancelled=%v", f.calls, sum.Cancelled)
	}
}

func TestRun_PacesFetches(t *testing.T) {
	t.Parallel()

	const interval = 40 * time.Millisecond
	f := &mockFetcher{}

	_, err := run(t, context.Background(), newLoader("NL", "BE", "DE"), f, &mockWriter{}, Config{MinInterval: interval})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.times) != 3 {
		t.Fatalf("expected 3 fetches, got %d", len(f.times))
	}
	// Allow a little slack for timer granularity.
	for i := 1; i < len(f.times); i++ {
		if gap := f.times[i].Sub(f.times[i-1]); gap < interval-5*time.Millisecond {
			t.Errorf("gap %d = %v, want >= %v", i, gap, interval)
		}
	}
}

func TestRun_ReferenceLoadFailure(t *testing.T) {
	t.Parallel()

	l := newLoader("NL")
	l.err = errors.New("relation \"Regions\" does not exist")
	f := &mockFetcher{}

	_, err := run(t, context.Background(), l, f, &mockWriter{}, Config{})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(f.calls) != 0 {
		t.Errorf("no region should be fetched, got %v", f.calls)
	}
}

func TestRun_InvalidWindow(t *testing.T) {
	t.Parallel()

	_, err := run(t, context.Background(), newLoader("NL"), &mockFetcher{}, &mockWriter{}, Config{Start: testEnd, End: testStart})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestOutcome_String(t *testing.T) {
	t.Parallel()

	tests := map[Outcome]string{
		OutcomeProcessed:      "processed",
		OutcomeNoData:         "no_data",
		OutcomeTransportError: "transport_error",
		OutcomeUnknownRegion:  "unknown_region",
	}
	for o, want := range tests {
		if got := o.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", o, got, want)
		}
	}
}
