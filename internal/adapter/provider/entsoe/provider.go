// Package entsoe fetches actual generation per production type from the
// ENTSO-E transparency platform REST API.
package entsoe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/heartmarshall/electricity-lca-backend/internal/config"
	"github.com/heartmarshall/electricity-lca-backend/internal/domain"
	"github.com/heartmarshall/electricity-lca-backend/internal/provider"
)

const (
	defaultBaseURL = "https://web-api.tp.entsoe.eu/api"

	documentTypeActualGeneration = "A75"
	processTypeRealised          = "A16"

	periodLayout = "200601021504"
	maxBodyBytes = 64 << 20
)

// ErrUnknownArea is returned for region codes with no EIC.
var ErrUnknownArea = errors.New("no area code for region")

// Provider queries the ENTSO-E API.
type Provider struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        *slog.Logger
}

// NewProvider creates a Provider from EntsoeConfig.
func NewProvider(cfg config.EntsoeConfig, logger *slog.Logger) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Provider{
		baseURL:    baseURL,
		token:      cfg.SecurityToken,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.With("adapter", "entsoe"),
	}
}

// NewProviderWithURL creates a Provider with a custom base URL (for testing).
func NewProviderWithURL(baseURL, token string, logger *slog.Logger) *Provider {
	return &Provider{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        logger.With("adapter", "entsoe"),
	}
}

// Fetch returns the generation series of one region for [start, end),
// keyed by production type name. No retries are attempted.
func (p *Provider) Fetch(ctx context.Context, regionCode string, start, end time.Time) provider.SeriesResult {
	eic, ok := AreaCode(regionCode)
	if !ok {
		return provider.TransportFailure(regionCode, fmt.Errorf("%w %q", ErrUnknownArea, regionCode))
	}
	if !end.After(start) {
		return provider.NoData()
	}

	acc := make(map[string]domain.Series)
	for _, w := range splitWindow(start, end) {
		doc, err := p.fetchWindow(ctx, regionCode, eic, w.start, w.end)
		if err != nil {
			return provider.TransportFailure(regionCode, err)
		}
		if doc == nil {
			continue
		}
		if err := appendSeries(acc, doc); err != nil {
			return provider.TransportFailure(regionCode, fmt.Errorf("parse response: %w", err))
		}
	}

	return provider.OK(finalize(acc, start.UTC(), end.UTC()))
}

// fetchWindow performs a single request. A nil document with a nil error
// means the API reported no matching data.
func (p *Provider) fetchWindow(ctx context.Context, regionCode, eic string, start, end time.Time) (*glMarketDocument, error) {
	q := url.Values{}
	q.Set("documentType", documentTypeActualGeneration)
	q.Set("processType", processTypeRealised)
	q.Set("in_Domain", eic)
	q.Set("periodStart", start.UTC().Format(periodLayout))
	q.Set("periodEnd", end.UTC().Format(periodLayout))

	p.log.DebugContext(ctx, "entsoe request", slog.String("region", regionCode), slog.String("query", q.Encode()))

	q.Set("securityToken", p.token)
	reqURL := p.baseURL + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	began := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", redact(err, p.token))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	p.log.DebugContext(ctx, "entsoe response",
		slog.String("region", regionCode),
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(body)),
		slog.Duration("duration", time.Since(began)),
	)

	doc, ack, decodeErr := decodeDocument(body)

	if ack != nil {
		if ack.noMatchingData() {
			return nil, nil
		}
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, ack.text())
	}

	if resp.StatusCode != http.StatusOK {
		if strings.Contains(string(body), noMatchingDataText) {
			return nil, nil
		}
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if decodeErr != nil {
		return nil, decodeErr
	}
	if len(doc.TimeSeries) == 0 {
		return nil, nil
	}
	return doc, nil
}

type window struct {
	start, end time.Time
}

// splitWindow cuts [start, end) into consecutive pieces of at most one year,
// which is the longest period the API accepts per request.
func splitWindow(start, end time.Time) []window {
	var out []window
	for cur := start; cur.Before(end); {
		next := cur.AddDate(1, 0, 0)
		if next.After(end) {
			next = end
		}
		out = append(out, window{start: cur, end: next})
		cur = next
	}
	return out
}

// redact strips the security token from transport errors, which embed the
// URL. The original error stays reachable through errors.Is / errors.As.
func redact(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), token, "REDACTED"), err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }

func (e *redactedError) Unwrap() error { return e.err }
