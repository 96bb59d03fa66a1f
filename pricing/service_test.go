package pricing

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, handler http.HandlerFunc) (*Service, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	s := New(filepath.Join(t.TempDir(), "pricing.json"), nil)
	s.sourceURL = srv.URL
	return s, srv
}

func TestColdCostCalculation(t *testing.T) {
	s, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"gpt-4o":{"input_cost_per_token":0.0000025,"output_cost_per_token":0.00001}}`)
	})

	catalog, err := s.GetLatestPricing(context.Background(), false)
	require.NoError(t, err)

	cost, ok := s.CalculateCost(catalog, "gpt-4o", 1000, 500)
	require.True(t, ok)
	assert.InDelta(t, 0.0025, cost.InputCost, 1e-12)
	assert.InDelta(t, 0.005, cost.OutputCost, 1e-12)
	assert.InDelta(t, 0.0075, cost.TotalCost, 1e-12)
	assert.False(t, cost.TieredApplied)
}

func TestTieredCalculation(t *testing.T) {
	s, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"gemini-1.5-pro":{"input_cost_per_token":0.0000035,"output_cost_per_token":0.0000105,"input_cost_per_token_above_200k_tokens":0.000007,"output_cost_per_token_above_200k_tokens":0.000021}}`)
	})

	catalog, err := s.GetLatestPricing(context.Background(), false)
	require.NoError(t, err)

	cost, ok := s.CalculateCost(catalog, "gemini-1.5-pro", 250_000, 10_000)
	require.True(t, ok)
	assert.InDelta(t, 1.05, cost.InputCost, 1e-9)
	assert.InDelta(t, 0.105, cost.OutputCost, 1e-9)
	assert.InDelta(t, 1.155, cost.TotalCost, 1e-9)
	assert.True(t, cost.TieredApplied)
}

func TestTieredExactlyAtThresholdUsesBaseRateOnly(t *testing.T) {
	cost, tiered := tieredCost(200_000, 0.000001, 0.000005)
	assert.False(t, tiered)
	assert.InDelta(t, 0.2, cost, 1e-9)
}

func TestIngestFiltersNonChatModels(t *testing.T) {
	body := []byte(`{
		"gpt-4o": {"input_cost_per_token": 0.0000025, "output_cost_per_token": 0.00001},
		"dall-e-3": {"input_cost_per_image": 0.04},
		"whisper-1": {"input_cost_per_token": 0.0001, "output_cost_per_token": 0.0001},
		"text-embedding-3-small": {"input_cost_per_token": 0.00000002}
	}`)
	catalog, err := ingest(body)
	require.NoError(t, err)
	_, hasGPT := catalog["gpt-4o"]
	_, hasDalle := catalog["dall-e-3"]
	_, hasWhisper := catalog["whisper-1"]
	_, hasEmbedding := catalog["text-embedding-3-small"]
	assert.True(t, hasGPT)
	assert.False(t, hasDalle)
	assert.False(t, hasWhisper)
	assert.False(t, hasEmbedding)
}

func TestIngestCoercesStringNumerics(t *testing.T) {
	body := []byte(`{"gpt-4o":{"input_cost_per_token":"0.0000025","output_cost_per_token":"0.00001"}}`)
	catalog, err := ingest(body)
	require.NoError(t, err)
	assert.InDelta(t, 0.0000025, catalog["gpt-4o"].InputCostPerToken, 1e-12)
}

func TestStaleFallbackOnFetchFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.json")
	s := New(path, nil)
	disk := newDiskCache(path)
	stale := Catalog{"gpt-4o": {InputCostPerToken: 0.0000025, OutputCostPerToken: 0.00001}}
	require.NoError(t, disk.write(stale, "http://old", time.Now().Add(-2*time.Hour)))

	s.sourceURL = "http://127.0.0.1:0/unreachable"
	catalog, err := s.GetLatestPricing(context.Background(), false)
	require.NoError(t, err)
	assert.Contains(t, catalog, "gpt-4o")
}

func TestUnknownModelReturnsNotOK(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "pricing.json"), nil)
	_, ok := s.CalculateCost(Catalog{}, "made-up-model", 1, 1)
	assert.False(t, ok)
}

func TestFormatCost(t *testing.T) {
	assert.Equal(t, "$0.007500", FormatCost(0.0075))
	assert.Equal(t, "$0.1550", FormatCost(0.155))
	assert.Equal(t, "$1.16", FormatCost(1.155))
}

func TestSaveAndReloadCacheByteIdenticalData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.json")
	disk := newDiskCache(path)
	catalog := Catalog{"gpt-4o": {InputCostPerToken: 0.0000025, OutputCostPerToken: 0.00001}}
	now := time.Now()
	require.NoError(t, disk.write(catalog, "http://src", now))

	cf, ok, err := disk.read()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, catalog, cf.Data)
}
