// Package tracker implements the Request Tracker: a write-once-append
// log of every provider call, persisted through internal/database and
// priced through the Pricing Service. Grounded on the teacher's
// gorm-modeled tables (llm/types.go's LLMProviderAPIKey usage counters
// are the closest teacher analogue of per-call accounting) and on
// internal/database's transaction helpers for the actual writes; the
// record shape itself follows spec.md §3 directly since the teacher has
// no single table matching it.
package tracker

import "time"

// Status is the record's lifecycle state.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Record is the gorm model backing the request log table. Primary key
// is an explicit UUID string (google/uuid), not gorm's auto-increment
// default, so IDs are stable before the first write commits.
type Record struct {
	ID              string  `gorm:"primaryKey;size:36" json:"id"`
	StartedAt       time.Time `gorm:"not null;index" json:"startedAt"`
	Provider        string  `gorm:"size:50;not null;index" json:"provider"`
	Model           string  `gorm:"size:100;not null" json:"model"`
	ToolName        string  `gorm:"size:100" json:"toolName,omitempty"`
	RequestPayload  string  `gorm:"type:text" json:"requestPayload"`
	Status          Status  `gorm:"size:20;not null;index" json:"status"`
	InputTokens     *int    `json:"inputTokens,omitempty"`
	OutputTokens    *int    `json:"outputTokens,omitempty"`
	TotalTokens     *int    `json:"totalTokens,omitempty"`
	CostUSD         *float64 `json:"costUSD,omitempty"`
	DurationMs      *int64  `json:"durationMs,omitempty"`
	FinishReason    string  `gorm:"size:50" json:"finishReason,omitempty"`
	ResponsePayload string  `gorm:"type:text" json:"responsePayload,omitempty"`
	ErrorMessage    string  `gorm:"type:text" json:"errorMessage,omitempty"`
}

// TableName overrides gorm's pluralized default, matching the
// teacher's own TableName overrides (e.g. "sc_llm_models").
func (Record) TableName() string { return "request_records" }
