// Package openai implements the OpenAI chat adapter.
package openai

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/blackjuly/ultra-mcp/llm"
	"github.com/blackjuly/ultra-mcp/llm/providers"
	"github.com/blackjuly/ultra-mcp/llm/providers/openaicompat"
)

// reasoningModelPrefixes lists model-name prefixes that are hard upstream
// requirements to run at temperature=1.0 regardless of the caller's
// request (spec.md §4.1).
var reasoningModelPrefixes = []string{"o1", "o3", "gpt-5"}

// effortPrefixes are the reasoning models that also get the
// reasoning-effort knob (defaulting to medium). Other reasoning models
// (gpt-5) get the temperature clamp, and any requested effort is dropped.
var effortPrefixes = []string{"o1", "o3"}

func isReasoningModel(model string) bool {
	for _, p := range reasoningModelPrefixes {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

func wantsReasoningEffort(model string) bool {
	for _, p := range effortPrefixes {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

// Config holds OpenAI-specific credentials.
type Config struct {
	APIKey       string
	BaseURL      string
	Organization string
	Model        string
}

// Provider implements the OpenAI adapter on top of the shared
// chat-completions base.
type Provider struct {
	*openaicompat.Provider
}

var staticModels = []llm.Model{
	{ID: "gpt-5", OwnedBy: "openai"},
	{ID: "gpt-4o", OwnedBy: "openai"},
	{ID: "gpt-4o-mini", OwnedBy: "openai"},
	{ID: "gpt-4-turbo", OwnedBy: "openai"},
	{ID: "o3-mini", OwnedBy: "openai"},
	{ID: "o1", OwnedBy: "openai"},
}

// New creates a new OpenAI provider.
func New(cfg Config, logger *zap.Logger) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}

	p := &Provider{
		Provider: openaicompat.New(openaicompat.Config{
			ProviderName:  "openai",
			APIKey:        cfg.APIKey,
			BaseURL:       baseURL,
			DefaultModel:  cfg.Model,
			FallbackModel: "gpt-4o-mini",
			StaticModels:  staticModels,
			RequestHook:   ReasoningModelRequestHook,
		}, logger),
	}

	org := cfg.Organization
	p.SetBuildHeaders(func(req *http.Request, apiKey string) {
		req.Header.Set("Authorization", "Bearer "+apiKey)
		if org != "" {
			req.Header.Set("OpenAI-Organization", org)
		}
		req.Header.Set("Content-Type", "application/json")
	})

	return p
}

// ReasoningModelRequestHook forces temperature=1.0 for o1/o3/gpt-5 models
// (an upstream hard requirement) and forwards reasoning_effort, defaulting
// to "medium", for o1/o3 models. Azure shares this since it fronts the
// same model family.
func ReasoningModelRequestHook(req *llm.ChatRequest, body *providers.OpenAICompatRequest) {
	if !isReasoningModel(body.Model) {
		return
	}
	body.Temperature = 1.0
	if wantsReasoningEffort(body.Model) {
		if body.ReasoningEffort == "" {
			body.ReasoningEffort = string(llm.ReasoningMedium)
		}
	} else {
		body.ReasoningEffort = ""
	}
}
