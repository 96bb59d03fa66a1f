package tracker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/blackjuly/ultra-mcp/internal/database"
	"github.com/blackjuly/ultra-mcp/llm"
	"github.com/blackjuly/ultra-mcp/pricing"
)

func newTestDB(t *testing.T) *database.PoolManager {
	db, err := database.Open(":memory:", database.DefaultPoolConfig(), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db.DB(), &Record{}))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestStartPersistsPendingRecord(t *testing.T) {
	db := newTestDB(t)
	tr := New(db, nil, zap.NewNop())

	id, err := tr.Start(context.Background(), StartInput{Provider: "openai", Model: "gpt-4o", RequestPayload: "hi"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	var rec Record
	require.NoError(t, db.DB().First(&rec, "id = ?", id).Error)
	assert.Equal(t, StatusPending, rec.Status)
	assert.Nil(t, rec.TotalTokens)
}

func TestCompleteResolvesCostFromPricing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"gpt-4o": {"input_cost_per_token": 0.0000025, "output_cost_per_token": 0.00001}}`))
	}))
	defer srv.Close()

	db := newTestDB(t)
	pricingSvc := pricing.New(t.TempDir()+"/cache.json", zap.NewNop(), pricing.WithSourceURL(srv.URL))

	tr := New(db, pricingSvc, zap.NewNop())
	id, err := tr.Start(context.Background(), StartInput{Provider: "openai", Model: "gpt-4o"})
	require.NoError(t, err)

	err = tr.Complete(context.Background(), id, CompleteInput{
		ResponseText: "hello back",
		Usage:        &llm.ChatUsage{PromptTokens: 1000, CompletionTokens: 500, TotalTokens: 1500},
		FinishReason: "stop",
		EndTime:      time.Now(),
	})
	require.NoError(t, err)

	var rec Record
	require.NoError(t, db.DB().First(&rec, "id = ?", id).Error)
	assert.Equal(t, StatusSuccess, rec.Status)
	require.NotNil(t, rec.CostUSD)
	assert.Greater(t, *rec.CostUSD, 0.0)
	require.NotNil(t, rec.DurationMs)
}

func TestCompletePricingFailureStillSucceedsWithZeroCost(t *testing.T) {
	db := newTestDB(t)
	pricingSvc := pricing.New(t.TempDir()+"/cache.json", zap.NewNop(), pricing.WithSourceURL("http://127.0.0.1:0/unreachable"))

	tr := New(db, pricingSvc, zap.NewNop())
	id, err := tr.Start(context.Background(), StartInput{Provider: "openai", Model: "gpt-4o"})
	require.NoError(t, err)

	err = tr.Complete(context.Background(), id, CompleteInput{
		Usage:   &llm.ChatUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		EndTime: time.Now(),
	})
	require.NoError(t, err)

	var rec Record
	require.NoError(t, db.DB().First(&rec, "id = ?", id).Error)
	assert.Equal(t, StatusSuccess, rec.Status)
	require.NotNil(t, rec.CostUSD)
	assert.Equal(t, 0.0, *rec.CostUSD)
}

func TestFailLeavesTokenAndCostFieldsNull(t *testing.T) {
	db := newTestDB(t)
	tr := New(db, nil, zap.NewNop())

	id, err := tr.Start(context.Background(), StartInput{Provider: "openai", Model: "gpt-4o"})
	require.NoError(t, err)

	err = tr.Fail(context.Background(), id, FailInput{ErrorMessage: "boom", EndTime: time.Now()})
	require.NoError(t, err)

	var rec Record
	require.NoError(t, db.DB().First(&rec, "id = ?", id).Error)
	assert.Equal(t, StatusError, rec.Status)
	assert.Equal(t, "boom", rec.ErrorMessage)
	assert.Nil(t, rec.TotalTokens)
	assert.Nil(t, rec.CostUSD)
}

func TestCancelRecordsFixedMessage(t *testing.T) {
	db := newTestDB(t)
	tr := New(db, nil, zap.NewNop())

	id, err := tr.Start(context.Background(), StartInput{Provider: "openai", Model: "gpt-4o"})
	require.NoError(t, err)

	require.NoError(t, tr.Cancel(context.Background(), id, time.Now()))

	var rec Record
	require.NoError(t, db.DB().First(&rec, "id = ?", id).Error)
	assert.Equal(t, StatusError, rec.Status)
	assert.Equal(t, "canceled", rec.ErrorMessage)
}
