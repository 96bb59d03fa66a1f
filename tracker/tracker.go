package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/blackjuly/ultra-mcp/internal/database"
	"github.com/blackjuly/ultra-mcp/llm"
	"github.com/blackjuly/ultra-mcp/pricing"
)

// Tracker implements spec.md §4.2's start/complete/fail contract. It
// owns no HTTP logic and resolves cost through the Pricing Service only
// at completion, never speculatively. Neither the Registry nor any
// adapter calls it; a caller opens and closes each record itself.
type Tracker struct {
	db      *database.PoolManager
	pricing *pricing.Service
	logger  *zap.Logger
}

// New builds a Tracker. pricingSvc may be nil in tests that only
// exercise start/fail and never touch cost resolution.
func New(db *database.PoolManager, pricingSvc *pricing.Service, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{db: db, pricing: pricingSvc, logger: logger}
}

// StartInput is what the caller knows before the upstream call begins.
type StartInput struct {
	Provider       string
	Model          string
	ToolName       string
	RequestPayload string // sanitized: prompt text only, never API keys
}

// CompleteInput is what the caller knows once the upstream call
// finishes successfully.
type CompleteInput struct {
	ResponseText string
	Usage        *llm.ChatUsage
	FinishReason string
	EndTime      time.Time
}

// FailInput is what the caller knows once the upstream call fails.
type FailInput struct {
	ErrorMessage string
	EndTime      time.Time
}

// Start persists a pending record and returns its id.
func (t *Tracker) Start(ctx context.Context, in StartInput) (string, error) {
	id := uuid.NewString()
	rec := Record{
		ID:             id,
		StartedAt:      time.Now(),
		Provider:       in.Provider,
		Model:          in.Model,
		ToolName:       in.ToolName,
		RequestPayload: in.RequestPayload,
		Status:         StatusPending,
	}
	err := t.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		return tx.Create(&rec).Error
	})
	if err != nil {
		return "", fmt.Errorf("tracker: start: %w", err)
	}
	return id, nil
}

// Complete marks requestID successful. If usage is present it resolves
// cost via the Pricing Service; per spec.md §4.2, a pricing lookup
// failure never fails the completion — the record completes with
// costUSD=0 instead.
func (t *Tracker) Complete(ctx context.Context, requestID string, in CompleteInput) error {
	return t.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		var rec Record
		if err := tx.First(&rec, "id = ?", requestID).Error; err != nil {
			return fmt.Errorf("tracker: complete: record %s: %w", requestID, err)
		}

		duration := in.EndTime.Sub(rec.StartedAt).Milliseconds()
		rec.Status = StatusSuccess
		rec.ResponsePayload = in.ResponseText
		rec.FinishReason = in.FinishReason
		rec.DurationMs = &duration

		if in.Usage != nil {
			input := in.Usage.PromptTokens
			output := in.Usage.CompletionTokens
			total := in.Usage.TotalTokens
			rec.InputTokens = &input
			rec.OutputTokens = &output
			rec.TotalTokens = &total

			cost := t.resolveCost(ctx, rec.Model, input, output)
			rec.CostUSD = &cost
		}

		return tx.Save(&rec).Error
	})
}

// Fail marks requestID as errored. Token/cost fields are left null.
func (t *Tracker) Fail(ctx context.Context, requestID string, in FailInput) error {
	return t.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		var rec Record
		if err := tx.First(&rec, "id = ?", requestID).Error; err != nil {
			return fmt.Errorf("tracker: fail: record %s: %w", requestID, err)
		}

		duration := in.EndTime.Sub(rec.StartedAt).Milliseconds()
		rec.Status = StatusError
		rec.ErrorMessage = in.ErrorMessage
		rec.DurationMs = &duration

		return tx.Save(&rec).Error
	})
}

// Cancel marks requestID as errored with the fixed "canceled" message
// spec.md §5 requires for caller-initiated cancellation.
func (t *Tracker) Cancel(ctx context.Context, requestID string, endTime time.Time) error {
	return t.Fail(ctx, requestID, FailInput{ErrorMessage: "canceled", EndTime: endTime})
}

func (t *Tracker) resolveCost(ctx context.Context, model string, inputTokens, outputTokens int) float64 {
	if t.pricing == nil {
		return 0
	}
	catalog, err := t.pricing.GetLatestPricing(ctx, false)
	if err != nil {
		t.logger.Warn("tracker: pricing lookup failed, recording zero cost",
			zap.String("model", model), zap.Error(err))
		return 0
	}
	cost, ok := t.pricing.CalculateCost(catalog, model, inputTokens, outputTokens)
	if !ok {
		t.logger.Warn("tracker: no pricing entry, recording zero cost", zap.String("model", model))
		return 0
	}
	return cost.TotalCost
}
