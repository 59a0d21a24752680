package ingest_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/electricity-lca-backend/internal/adapter/postgres"
	"github.com/heartmarshall/electricity-lca-backend/internal/adapter/postgres/generation"
	"github.com/heartmarshall/electricity-lca-backend/internal/adapter/postgres/reference"
	"github.com/heartmarshall/electricity-lca-backend/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/electricity-lca-backend/internal/adapter/provider/entsoe"
	"github.com/heartmarshall/electricity-lca-backend/internal/app/ingest"
)

const nlGenerationDoc = `<?xml version="1.0" encoding="UTF-8"?>
<GL_MarketDocument xmlns="urn:iec62325.351:tc57wg16:451-6:generationloaddocument:3:0">
  <TimeSeries>
    <inBiddingZone_Domain.mRID codingScheme="A01">10YNL----------L</inBiddingZone_Domain.mRID>
    <curveType>A01</curveType>
    <MktPSRType><psrType>B04</psrType></MktPSRType>
    <Period>
      <timeInterval><start>2024-01-01T00:00Z</start><end>2024-01-01T02:00Z</end></timeInterval>
      <resolution>PT60M</resolution>
      <Point><position>1</position><quantity>100</quantity></Point>
      <Point><position>2</position><quantity>110</quantity></Point>
    </Period>
  </TimeSeries>
  <TimeSeries>
    <inBiddingZone_Domain.mRID codingScheme="A01">10YNL----------L</inBiddingZone_Domain.mRID>
    <curveType>A01</curveType>
    <MktPSRType><psrType>B16</psrType></MktPSRType>
    <Period>
      <timeInterval><start>2024-01-01T00:00Z</start><end>2024-01-01T01:00Z</end></timeInterval>
      <resolution>PT60M</resolution>
      <Point><position>1</position><quantity>3</quantity></Point>
    </Period>
  </TimeSeries>
</GL_MarketDocument>`

func TestPipeline_EndToEnd(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "text/xml")
		_, _ = io.WriteString(w, nlGenerationDoc)
	}))
	defer srv.Close()

	region := testhelper.SeedRegion(t, pool, "NL")
	gas := testhelper.SeedGenerationType(t, pool, "Natural gas")
	testhelper.SeedMapping(t, pool, "Fossil Gas", gas.ID)

	writer := generation.New(pool, postgres.NewTxManager(pool))
	cfg := ingest.Config{
		Start:           time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:             time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		GenerationTypes: []string{"Fossil Gas"},
		Regions:         []string{"NL"},
	}

	newPipeline := func() *ingest.Pipeline {
		return ingest.NewPipeline(logger,
			reference.New(pool, ""),
			entsoe.NewProviderWithURL(srv.URL, "test-token", logger),
			writer, cfg)
	}

	// Running twice must leave the same rows behind.
	for range 2 {
		sum, err := newPipeline().Run(ctx)
		require.NoError(t, err)
		assert.False(t, sum.HasErrors())
		assert.Equal(t, 1, sum.RegionsProcessed)
		assert.Equal(t, 1, sum.TypesStored)
		assert.Equal(t, int64(2), sum.RowsInserted)
		assert.Empty(t, sum.RequestedButUnstored)
		assert.Equal(t, []string{"Solar"}, sum.Regions[0].Filtered)
	}
	assert.Equal(t, int32(2), requests.Load())

	rows, err := writer.ListRange(ctx, region.ID, gas.ID, cfg.Start, cfg.End)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 100.0, rows[0].Value)
	assert.Equal(t, 110.0, rows[1].Value)
	assert.True(t, rows[1].Time.Equal(time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)))
}
