package embedding

import "context"

// BailianConfig configures the Bailian/DashScope embedding provider.
type BailianConfig struct {
	APIKey string
	// BaseURL defaults to DashScope's OpenAI-compatible mode.
	BaseURL string
	// Model defaults to text-embedding-v1 per spec.md §4.5.
	Model string
}

// BailianProvider implements Provider against DashScope's
// OpenAI-compatible /v1/embeddings endpoint. Native batch, same wire
// shape as OpenAI, so it reuses base the same way the chat adapter
// embeds openaicompat.Provider.
type BailianProvider struct {
	*base
}

// NewBailianProvider builds a Bailian embedding provider.
func NewBailianProvider(cfg BailianConfig) *BailianProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://dashscope.aliyuncs.com/compatible-mode"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-v1"
	}
	return &BailianProvider{base: newBase(baseConfig{
		Name:     "bailian-embedding",
		BaseURL:  cfg.BaseURL,
		APIKey:   cfg.APIKey,
		Model:    cfg.Model,
		MaxBatch: 25,
	})}
}

func (p *BailianProvider) authHeaders() map[string]string {
	return map[string]string{"Authorization": "Bearer " + p.apiKey}
}

// EmbedMany sends the whole batch in one request.
func (p *BailianProvider) EmbedMany(ctx context.Context, texts []string) ([][]float64, error) {
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
func (p *BailianProvider) EmbedOne(ctx context.Context, text string) ([]float64, error) {
	vecs, err := p.EmbedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}
