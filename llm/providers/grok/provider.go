// Package grok implements the xAI Grok chat adapter. Grok speaks the
// OpenAI chat-completions wire format, so this is a thin wrapper around
// openaicompat that only overrides naming and endpoint. Unlike openai, it
// does not clamp temperature for any model: spec.md requires reproducing
// the OpenAI quirk exactly as-is, which means NOT generalizing it to
// other providers that merely share the wire format.
package grok

import (
	"go.uber.org/zap"

	"github.com/blackjuly/ultra-mcp/llm"
	"github.com/blackjuly/ultra-mcp/llm/providers/openaicompat"
)

// Config holds Grok-specific credentials.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Provider implements the Grok adapter on top of the shared
// chat-completions base.
type Provider struct {
	*openaicompat.Provider
}

var staticModels = []llm.Model{
	{ID: "grok-4", OwnedBy: "xai"},
	{ID: "grok-3", OwnedBy: "xai"},
	{ID: "grok-3-mini", OwnedBy: "xai"},
}

// New creates a new Grok provider.
func New(cfg Config, logger *zap.Logger) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.x.ai"
	}
	return &Provider{
		Provider: openaicompat.New(openaicompat.Config{
			ProviderName:  "grok",
			APIKey:        cfg.APIKey,
			BaseURL:       baseURL,
			DefaultModel:  cfg.Model,
			FallbackModel: "grok-3-mini",
			StaticModels:  staticModels,
		}, logger),
	}
}
