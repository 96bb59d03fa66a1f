// Package llm defines the unified provider contract every adapter
// implements, and the Registry that routes a request to the right one.
package llm

import (
	"context"
	"time"

	"github.com/blackjuly/ultra-mcp/llm/llmtypes"
)

// Re-export the shared types so adapter packages only need to import llm.
type (
	Message         = llmtypes.Message
	Role            = llmtypes.Role
	Error           = llmtypes.Error
	ErrorCode       = llmtypes.ErrorCode
	ReasoningEffort = llmtypes.ReasoningEffort
)

const (
	RoleSystem    = llmtypes.RoleSystem
	RoleUser      = llmtypes.RoleUser
	RoleAssistant = llmtypes.RoleAssistant
	RoleTool      = llmtypes.RoleTool

	ReasoningLow    = llmtypes.ReasoningLow
	ReasoningMedium = llmtypes.ReasoningMedium
	ReasoningHigh   = llmtypes.ReasoningHigh
)

const (
	ErrInvalidRequest       = llmtypes.ErrInvalidRequest
	ErrConfigurationMissing = llmtypes.ErrConfigurationMissing
	ErrAuthentication       = llmtypes.ErrAuthentication
	ErrUnauthorized         = llmtypes.ErrUnauthorized
	ErrForbidden            = llmtypes.ErrForbidden
	ErrRateLimited          = llmtypes.ErrRateLimited
	ErrQuotaExceeded        = llmtypes.ErrQuotaExceeded
	ErrModelNotFound        = llmtypes.ErrModelNotFound
	ErrModelOverloaded      = llmtypes.ErrModelOverloaded
	ErrContextTooLong       = llmtypes.ErrContextTooLong
	ErrUpstreamError        = llmtypes.ErrUpstreamError
	ErrUpstreamTimeout      = llmtypes.ErrUpstreamTimeout
	ErrTransportError       = llmtypes.ErrTransportError
	ErrParseError           = llmtypes.ErrParseError
	ErrPricingUnavailable   = llmtypes.ErrPricingUnavailable
	ErrCancelled            = llmtypes.ErrCancelled
	ErrDatabaseError        = llmtypes.ErrDatabaseError
	ErrInternalError        = llmtypes.ErrInternalError
)

// Provider is the uniform adapter contract every upstream implements.
type Provider interface {
	// Completion sends a synchronous chat request.
	Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Stream sends a streaming chat request, yielding chunks on the
	// returned channel until the upstream closes or ctx is cancelled.
	Stream(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error)

	// Name returns the provider's unique identifier (e.g. "openai").
	Name() string

	// IsConfigured reports whether required credentials are present.
	IsConfigured() bool

	// ListModels returns the static enumerated model set for this
	// adapter. It is never a remote call.
	ListModels() []Model

	// DefaultModel returns the provider's preferred model when neither
	// the request nor configuration names one.
	DefaultModel() string
}

// ChatRequest is the uniform internal request shape passed to every
// adapter's Completion/Stream.
type ChatRequest struct {
	Provider          string
	Model             string
	Prompt            string
	SystemPrompt      string
	Messages          []Message
	Temperature       float32
	MaxOutputTokens   int
	ReasoningEffort   ReasoningEffort
	UseSearchGrounding *bool
	ToolName          string
}

// ChatResponse is the uniform internal response shape.
type ChatResponse struct {
	ID           string
	Provider     string
	Model        string
	Text         string
	FinishReason string
	Usage        ChatUsage
	CreatedAt    time.Time
}

// ChatUsage mirrors upstream token accounting.
type ChatUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// StreamChunk is one decoded delta from a streaming response.
type StreamChunk struct {
	Provider     string
	Model        string
	ContentDelta string
	FinishReason string
	Usage        *ChatUsage
	Err          *Error
}

// Model describes one model exposed by an adapter's static catalog.
type Model struct {
	ID      string
	OwnedBy string
}

// HealthStatus is the result of a lightweight adapter reachability check.
type HealthStatus struct {
	Healthy bool
	Latency time.Duration
}

// IsRetryable reports whether err is a retryable gateway error.
func IsRetryable(err error) bool { return llmtypes.IsRetryable(err) }
