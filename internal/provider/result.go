package provider

import (
	"github.com/heartmarshall/electricity-lca-backend/internal/domain"
)

// SeriesKind classifies the outcome of a fetch.
type SeriesKind int

const (
	// SeriesOK carries one series per external generation type key.
	SeriesOK SeriesKind = iota
	// SeriesNoData means the provider has nothing for the region and window.
	SeriesNoData
	// SeriesTransportError means the provider could not be queried.
	SeriesTransportError
)

func (k SeriesKind) String() string {
	switch k {
	case SeriesOK:
		return "ok"
	case SeriesNoData:
		return "no_data"
	case SeriesTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// SeriesResult is the value returned by a series fetcher. No-data and
// transport failures are outcomes, not errors.
type SeriesResult struct {
	Kind   SeriesKind
	Series map[string]domain.Series
	// Err holds the failure detail for SeriesTransportError.
	Err error
}

// OK wraps fetched series. An empty map is reported as NoData.
func OK(series map[string]domain.Series) SeriesResult {
	if len(series) == 0 {
		return NoData()
	}
	return SeriesResult{Kind: SeriesOK, Series: series}
}

// NoData reports an empty window.
func NoData() SeriesResult {
	return SeriesResult{Kind: SeriesNoData}
}

// TransportFailure reports a failure talking to the provider.
func TransportFailure(region string, err error) SeriesResult {
	return SeriesResult{Kind: SeriesTransportError, Err: &domain.TransportError{Region: region, Err: err}}
}
