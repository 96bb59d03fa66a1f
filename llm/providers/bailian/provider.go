// Package bailian implements the Alibaba DashScope/Bailian chat adapter
// via its OpenAI-compatible-mode endpoint. Bailian hosts several model
// families (qwen, qwen3-coder, deepseek-r1) behind the same endpoint; the
// subtype only changes the default model and catalog, not the wire
// format.
package bailian

import (
	"go.uber.org/zap"

	"github.com/blackjuly/ultra-mcp/llm"
	"github.com/blackjuly/ultra-mcp/llm/providers/openaicompat"
)

// Subtype selects which Bailian-hosted model family this instance
// defaults to.
type Subtype string

const (
	SubtypeBailian    Subtype = "bailian"
	SubtypeQwen3Coder Subtype = "qwen3-coder"
	SubtypeDeepSeekR1 Subtype = "deepseek-r1"
)

// Config holds Bailian-specific credentials.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Subtype Subtype
}

// Provider implements the Bailian adapter on top of the shared
// chat-completions base.
type Provider struct {
	*openaicompat.Provider
}

var modelsBySubtype = map[Subtype][]llm.Model{
	SubtypeBailian: {
		{ID: "qwen-plus", OwnedBy: "bailian"},
		{ID: "qwen-turbo", OwnedBy: "bailian"},
		{ID: "qwen-max", OwnedBy: "bailian"},
	},
	SubtypeQwen3Coder: {
		{ID: "qwen3-coder-plus", OwnedBy: "bailian"},
	},
	SubtypeDeepSeekR1: {
		{ID: "deepseek-r1", OwnedBy: "bailian"},
	},
}

var fallbackBySubtype = map[Subtype]string{
	SubtypeBailian:    "qwen-plus",
	SubtypeQwen3Coder: "qwen3-coder-plus",
	SubtypeDeepSeekR1: "deepseek-r1",
}

// New creates a new Bailian provider. Subtype defaults to SubtypeBailian
// when empty.
func New(cfg Config, logger *zap.Logger) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://dashscope.aliyuncs.com/compatible-mode"
	}
	subtype := cfg.Subtype
	if subtype == "" {
		subtype = SubtypeBailian
	}

	return &Provider{
		Provider: openaicompat.New(openaicompat.Config{
			ProviderName:  "bailian",
			APIKey:        cfg.APIKey,
			BaseURL:       baseURL,
			DefaultModel:  cfg.Model,
			FallbackModel: fallbackBySubtype[subtype],
			EndpointPath:  "/v1/chat/completions",
			StaticModels:  modelsBySubtype[subtype],
		}, logger),
	}
}
