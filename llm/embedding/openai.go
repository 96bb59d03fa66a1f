package embedding

import "context"

// OpenAIConfig configures the OpenAI embedding provider.
type OpenAIConfig struct {
	APIKey string
	// BaseURL defaults to https://api.openai.com.
	BaseURL string
	// Model defaults to text-embedding-3-small per spec.md §4.5.
	Model string
}

// OpenAIProvider implements Provider against OpenAI's /v1/embeddings
// endpoint. Grounded on the teacher's OpenAIProvider.
type OpenAIProvider struct {
	*base
}

// NewOpenAIProvider builds an OpenAI embedding provider.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	return &OpenAIProvider{base: newBase(baseConfig{
		Name:     "openai-embedding",
		BaseURL:  cfg.BaseURL,
		APIKey:   cfg.APIKey,
		Model:    cfg.Model,
		MaxBatch: 2048,
	})}
}

func (p *OpenAIProvider) authHeaders() map[string]string {
	return map[string]string{"Authorization": "Bearer " + p.apiKey}
}

// EmbedMany sends the whole batch in one request; OpenAI's endpoint
// natively accepts an array input.
func (p *OpenAIProvider) EmbedMany(ctx context.Context, texts []string) ([][]float64, error) {
	wire, err := p.doRequest(ctx, "/v1/embeddings", openAIWireRequest{
		Input: texts,
		Model: p.model,
	}, p.authHeaders())
	if err != nil {
		return nil, err
	}
	return toVectors(wire), nil
}

// EmbedOne embeds a single string.
func (p *OpenAIProvider) EmbedOne(ctx context.Context, text string) ([]float64, error) {
	vecs, err := p.EmbedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}
