// Package providers holds the OpenAI-compatible wire types and the HTTP
// helpers shared by every adapter package (error mapping, SSE parsing,
// request/response conversion).
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/blackjuly/ultra-mcp/llm/llmtypes"
)

// MapHTTPError maps an upstream HTTP status code to the gateway's
// structured error type, with a retryable flag per status class.
func MapHTTPError(status int, msg, provider string) *llmtypes.Error {
	switch status {
	case http.StatusUnauthorized:
		return &llmtypes.Error{Code: llmtypes.ErrUnauthorized, Message: msg, HTTPStatus: status, Provider: provider}
	case http.StatusForbidden:
		return &llmtypes.Error{Code: llmtypes.ErrForbidden, Message: msg, HTTPStatus: status, Provider: provider}
	case http.StatusTooManyRequests:
		return &llmtypes.Error{Code: llmtypes.ErrRateLimited, Message: msg, HTTPStatus: status, Retryable: true, Provider: provider}
	case http.StatusBadRequest:
		lower := strings.ToLower(msg)
		if strings.Contains(lower, "quota") || strings.Contains(lower, "credit") || strings.Contains(lower, "limit") {
			return &llmtypes.Error{Code: llmtypes.ErrQuotaExceeded, Message: msg, HTTPStatus: status, Provider: provider}
		}
		return &llmtypes.Error{Code: llmtypes.ErrInvalidRequest, Message: msg, HTTPStatus: status, Provider: provider}
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return &llmtypes.Error{Code: llmtypes.ErrUpstreamError, Message: msg, HTTPStatus: status, Retryable: true, Provider: provider}
	case 529: // overloaded, mirrored by several upstream providers
		return &llmtypes.Error{Code: llmtypes.ErrModelOverloaded, Message: msg, HTTPStatus: status, Retryable: true, Provider: provider}
	default:
		return &llmtypes.Error{Code: llmtypes.ErrUpstreamError, Message: msg, HTTPStatus: status, Retryable: status >= 500, Provider: provider}
	}
}

// ReadErrorMessage reads body and tries to extract an OpenAI-shaped error
// message, falling back to the raw body text.
func ReadErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(body)
	if err != nil {
		return "failed to read error response"
	}

	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
		if errResp.Error.Type != "" {
			return fmt.Sprintf("%s (type: %s)", errResp.Error.Message, errResp.Error.Type)
		}
		return errResp.Error.Message
	}
	return string(data)
}

// TransportError wraps a network/DNS/TLS failure as a gateway error.
func TransportError(err error, provider string) *llmtypes.Error {
	return &llmtypes.Error{
		Code:       llmtypes.ErrTransportError,
		Message:    err.Error(),
		HTTPStatus: http.StatusBadGateway,
		Retryable:  true,
		Provider:   provider,
		Cause:      err,
	}
}

// ChooseModel resolves the model to use for a request: the request's
// model wins, then the configured default, then the hardcoded fallback.
func ChooseModel(reqModel, defaultModel, fallback string) string {
	if reqModel != "" {
		return reqModel
	}
	if defaultModel != "" {
		return defaultModel
	}
	return fallback
}

// RateLimiter paces outbound requests to a single upstream so a burst of
// concurrent tool calls doesn't immediately trip that provider's own
// rate limit. It is a wrapping policy layer around the wire adapter
// (spec.md §4.1: retries and backoff belong above the adapter, not
// inside it), not part of the wire format itself.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter builds a limiter admitting rps requests per second with
// bursts up to burst. A non-positive rps disables pacing entirely, so
// Wait becomes a no-op, as it is on a nil *RateLimiter. Callers choose
// their own defaults before calling it (openaicompat.New turns a zero
// RequestsPerSecond into 5 req/s).
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if rps <= 0 {
		return &RateLimiter{}
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks until the limiter admits the next request, or returns ctx's
// error if it is canceled first.
func (l *RateLimiter) Wait(ctx context.Context) error {
	if l == nil || l.limiter == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}
