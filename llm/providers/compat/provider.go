// Package compat implements a generic user-configured OpenAI-compatible
// provider, for self-hosted or third-party gateways such as Ollama or
// OpenRouter that speak the chat-completions wire format but aren't one
// of the named upstreams.
package compat

import (
	"go.uber.org/zap"

	"github.com/blackjuly/ultra-mcp/llm/providers/openaicompat"
)

// Config holds a user-supplied OpenAI-compatible endpoint.
type Config struct {
	// Name identifies this instance (e.g. "ollama", "openrouter") for
	// logging and routing; it need not match any upstream brand.
	Name string

	APIKey  string
	BaseURL string
	Model   string

	// RequireAPIKey is false for endpoints like local Ollama that accept
	// requests without real credentials; a placeholder key is still
	// sent as Bearer auth for wire-format compatibility.
	RequireAPIKey bool
}

// Provider implements a generic OpenAI-compatible adapter.
type Provider struct {
	*openaicompat.Provider
	requireAPIKey bool
}

// New creates a new generic OpenAI-compatible provider.
func New(cfg Config, logger *zap.Logger) *Provider {
	apiKey := cfg.APIKey
	if apiKey == "" && !cfg.RequireAPIKey {
		apiKey = "placeholder"
	}
	name := cfg.Name
	if name == "" {
		name = "openai-compatible"
	}
	return &Provider{
		Provider: openaicompat.New(openaicompat.Config{
			ProviderName: name,
			APIKey:       apiKey,
			BaseURL:      cfg.BaseURL,
			DefaultModel: cfg.Model,
		}, logger),
		requireAPIKey: cfg.RequireAPIKey,
	}
}

// IsConfigured requires an explicit base URL in every case (there is no
// default endpoint for a user-supplied OpenAI-compatible provider), and
// additionally requires a real API key when RequireAPIKey was set at
// construction (e.g. OpenRouter, unlike local Ollama's placeholder
// credential).
func (p *Provider) IsConfigured() bool {
	if p.Cfg.BaseURL == "" {
		return false
	}
	if p.requireAPIKey && (p.Cfg.APIKey == "" || p.Cfg.APIKey == "placeholder") {
		return false
	}
	return true
}
