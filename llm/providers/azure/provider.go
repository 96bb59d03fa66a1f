// Package azure implements the Azure OpenAI chat adapter. It is the same
// upstream model family as openai, so it shares that package's
// reasoning-model temperature clamp, but addresses a resource/deployment
// rather than a flat base URL and authenticates with api-key rather than
// Bearer.
package azure

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/blackjuly/ultra-mcp/llm"
	"github.com/blackjuly/ultra-mcp/llm/providers/openai"
	"github.com/blackjuly/ultra-mcp/llm/providers/openaicompat"
)

const defaultAPIVersion = "2024-08-01-preview"

// Config holds Azure OpenAI credentials. Either BaseURL or ResourceName
// must be set; BaseURL takes precedence when both are present.
type Config struct {
	APIKey         string
	BaseURL        string
	ResourceName   string
	DeploymentName string
	APIVersion     string
}

// Provider implements the Azure OpenAI adapter on top of the shared
// chat-completions base.
type Provider struct {
	*openaicompat.Provider
}

var staticModels = []llm.Model{
	{ID: "gpt-4o", OwnedBy: "azure-openai"},
	{ID: "gpt-4o-mini", OwnedBy: "azure-openai"},
	{ID: "o3-mini", OwnedBy: "azure-openai"},
}

// New creates a new Azure OpenAI provider. The deployment name doubles as
// the model identifier on Azure's wire format, so DefaultModel resolves
// to it.
func New(cfg Config, logger *zap.Logger) *Provider {
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}

	baseURL := cfg.BaseURL
	if baseURL == "" && cfg.ResourceName != "" {
		baseURL = fmt.Sprintf("https://%s.openai.azure.com", cfg.ResourceName)
	}

	endpointPath := ""
	if cfg.DeploymentName != "" {
		endpointPath = fmt.Sprintf("/openai/deployments/%s/chat/completions?api-version=%s", cfg.DeploymentName, apiVersion)
	}

	p := &Provider{
		Provider: openaicompat.New(openaicompat.Config{
			ProviderName:  "azure",
			APIKey:        cfg.APIKey,
			BaseURL:       baseURL,
			DefaultModel:  cfg.DeploymentName,
			FallbackModel: cfg.DeploymentName,
			EndpointPath:  endpointPath,
			StaticModels:  staticModels,
			RequestHook:   openai.ReasoningModelRequestHook,
		}, logger),
	}

	p.SetBuildHeaders(func(req *http.Request, apiKey string) {
		req.Header.Set("api-key", apiKey)
		req.Header.Set("Content-Type", "application/json")
	})

	return p
}
