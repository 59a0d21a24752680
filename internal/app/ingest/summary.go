package ingest

import (
	"time"
)

// Outcome is what happened to one region.
type Outcome int

const (
	// OutcomeProcessed means the series were reconciled and written. Individual
	// keys may still have been rejected or failed; see RegionResult.
	OutcomeProcessed Outcome = iota
	OutcomeNoData
	OutcomeTransportError
	OutcomeUnknownRegion
)

func (o Outcome) String() string {
	switch o {
	case OutcomeProcessed:
		return "processed"
	case OutcomeNoData:
		return "no_data"
	case OutcomeTransportError:
		return "transport_error"
	case OutcomeUnknownRegion:
		return "unknown_region"
	default:
		return "unknown"
	}
}

// RegionResult holds the outcome of a single region.
type RegionResult struct {
	Code     string
	RegionID int
	Outcome  Outcome

	// External generation type keys by what happened to them.
	Stored   []string
	Filtered []string
	Unmapped []string
	Rejected []string
	Failed   []string

	RowsDeleted  int64
	RowsInserted int64
	Duration     time.Duration
	Err          error
}

// failed reports whether the region counts as a failure: an unknown region
// or at least one failed write.
func (r RegionResult) failed() bool {
	return r.Outcome == OutcomeUnknownRegion || len(r.Failed) > 0
}

// Summary aggregates a pipeline run.
type Summary struct {
	RegionsTotal     int
	RegionsProcessed int
	RegionsSkipped   int
	RegionsFailed    int
	TypesStored      int
	RowsInserted     int64

	// Unmapped lists the distinct external keys without a mapping.
	Unmapped []string
	// RequestedButUnstored lists filter keys that no region stored.
	RequestedButUnstored []string

	Cancelled bool
	Regions   []RegionResult
	Duration  time.Duration
}

// HasErrors reports whether any region failed. No-data and transport
// skips are outcomes, not errors.
func (s Summary) HasErrors() bool {
	return s.RegionsFailed > 0
}
