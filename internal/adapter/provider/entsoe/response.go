package entsoe

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/heartmarshall/electricity-lca-backend/internal/domain"
)

const noMatchingDataText = "No matching data found"

// glMarketDocument is the generation/load document returned for A75 queries.
type glMarketDocument struct {
	TimeSeries []apiTimeSeries `xml:"TimeSeries"`
}

// apiTimeSeries is one production type curve. Generation series carry
// inBiddingZone_Domain; consumption series carry outBiddingZone_Domain.
type apiTimeSeries struct {
	InDomain  string      `xml:"inBiddingZone_Domain.mRID"`
	OutDomain string      `xml:"outBiddingZone_Domain.mRID"`
	CurveType string      `xml:"curveType"`
	PSRType   string      `xml:"MktPSRType>psrType"`
	Periods   []apiPeriod `xml:"Period"`
}

type apiPeriod struct {
	Start      string     `xml:"timeInterval>start"`
	End        string     `xml:"timeInterval>end"`
	Resolution string     `xml:"resolution"`
	Points     []apiPoint `xml:"Point"`
}

type apiPoint struct {
	Position int    `xml:"position"`
	Quantity string `xml:"quantity"`
}

// acknowledgementDocument is returned instead of data for empty windows
// and for rejected requests.
type acknowledgementDocument struct {
	Reasons []apiReason `xml:"Reason"`
}

type apiReason struct {
	Code string `xml:"code"`
	Text string `xml:"text"`
}

func (a acknowledgementDocument) text() string {
	parts := make([]string, 0, len(a.Reasons))
	for _, r := range a.Reasons {
		parts = append(parts, strings.TrimSpace(r.Code+" "+r.Text))
	}
	return strings.Join(parts, "; ")
}

func (a acknowledgementDocument) noMatchingData() bool {
	for _, r := range a.Reasons {
		if strings.Contains(r.Text, noMatchingDataText) {
			return true
		}
	}
	return false
}

// decodeDocument inspects the root element and decodes either a market
// document or an acknowledgement. Exactly one of the results is non-nil on
// success.
func decodeDocument(body []byte) (*glMarketDocument, *acknowledgementDocument, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, nil, fmt.Errorf("decode xml: empty document")
			}
			return nil, nil, fmt.Errorf("decode xml: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch start.Name.Local {
		case "GL_MarketDocument":
			var doc glMarketDocument
			if err := dec.DecodeElement(&doc, &start); err != nil {
				return nil, nil, fmt.Errorf("decode market document: %w", err)
			}
			return &doc, nil, nil
		case "Acknowledgement_MarketDocument":
			var ack acknowledgementDocument
			if err := dec.DecodeElement(&ack, &start); err != nil {
				return nil, nil, fmt.Errorf("decode acknowledgement: %w", err)
			}
			return nil, &ack, nil
		default:
			return nil, nil, fmt.Errorf("decode xml: unexpected root element %q", start.Name.Local)
		}
	}
}

// appendSeries adds the generation points of doc to acc, keyed by
// production type name. Consumption series are skipped.
func appendSeries(acc map[string]domain.Series, doc *glMarketDocument) error {
	for i, ts := range doc.TimeSeries {
		if ts.InDomain == "" {
			continue
		}

		key := PSRTypeName(ts.PSRType)
		for _, period := range ts.Periods {
			points, err := expandPeriod(period, ts.CurveType)
			if err != nil {
				return fmt.Errorf("time series %d (%s): %w", i+1, key, err)
			}
			acc[key] = append(acc[key], points...)
		}
	}
	return nil
}

// expandPeriod turns positions into timestamps. Curve type A03 omits
// positions whose value repeats the previous one; those are filled in up to
// the end of the period.
func expandPeriod(p apiPeriod, curveType string) (domain.Series, error) {
	start, err := parseTime(p.Start)
	if err != nil {
		return nil, fmt.Errorf("period start: %w", err)
	}
	res, err := parseResolution(p.Resolution)
	if err != nil {
		return nil, err
	}

	values := make(map[int]float64, len(p.Points))
	maxPos := 0
	for _, pt := range p.Points {
		v, err := strconv.ParseFloat(strings.TrimSpace(pt.Quantity), 64)
		if err != nil {
			return nil, fmt.Errorf("position %d: quantity %q: %w", pt.Position, pt.Quantity, err)
		}
		if pt.Position < 1 {
			return nil, fmt.Errorf("position %d out of range", pt.Position)
		}
		values[pt.Position] = v
		maxPos = max(maxPos, pt.Position)
	}

	if curveType != "A03" {
		out := make(domain.Series, 0, len(values))
		for pos, v := range values {
			out = append(out, domain.Point{Time: res.step(start, pos-1), Value: v})
		}
		return out.Sorted(), nil
	}

	last := maxPos
	if p.End != "" {
		end, err := parseTime(p.End)
		if err != nil {
			return nil, fmt.Errorf("period end: %w", err)
		}
		for n := maxPos; res.step(start, n).Before(end); n++ {
			last = n + 1
		}
	}

	out := make(domain.Series, 0, last)
	var (
		current float64
		seen    bool
	)
	for pos := 1; pos <= last; pos++ {
		if v, ok := values[pos]; ok {
			current, seen = v, true
		}
		if !seen {
			continue
		}
		out = append(out, domain.Point{Time: res.step(start, pos-1), Value: current})
	}
	return out, nil
}

// finalize sorts each series, keeps the last value for repeated instants
// and trims points outside [start, end).
func finalize(acc map[string]domain.Series, start, end time.Time) map[string]domain.Series {
	out := make(map[string]domain.Series, len(acc))
	for key, s := range acc {
		sorted := s.Sorted()
		kept := make(domain.Series, 0, len(sorted))
		for _, p := range sorted {
			if p.Time.Before(start) || !p.Time.Before(end) {
				continue
			}
			if n := len(kept); n > 0 && kept[n-1].Time.Equal(p.Time) {
				kept[n-1] = p
				continue
			}
			kept = append(kept, p)
		}
		if len(kept) > 0 {
			out[key] = kept
		}
	}
	return out
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02T15:04Z07:00", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// resolution is an ISO 8601 duration restricted to what the API emits.
type resolution struct {
	days  int
	fixed time.Duration
}

func (r resolution) step(t time.Time, n int) time.Time {
	if r.days > 0 {
		return t.AddDate(0, 0, r.days*n)
	}
	return t.Add(time.Duration(n) * r.fixed)
}

func parseResolution(s string) (resolution, error) {
	s = strings.TrimSpace(s)
	bad := fmt.Errorf("unsupported resolution %q", s)

	switch {
	case strings.HasPrefix(s, "PT") && len(s) > 3:
		n, err := strconv.Atoi(s[2 : len(s)-1])
		if err != nil || n <= 0 {
			return resolution{}, bad
		}
		switch s[len(s)-1] {
		case 'M':
			return resolution{fixed: time.Duration(n) * time.Minute}, nil
		case 'H':
			return resolution{fixed: time.Duration(n) * time.Hour}, nil
		}
	case strings.HasPrefix(s, "P") && strings.HasSuffix(s, "D") && len(s) > 2:
		n, err := strconv.Atoi(s[1 : len(s)-1])
		if err != nil || n <= 0 {
			return resolution{}, bad
		}
		return resolution{days: n}, nil
	}

	return resolution{}, bad
}
