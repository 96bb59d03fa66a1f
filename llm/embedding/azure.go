package embedding

import (
	"context"
	"fmt"
)

const azureEmbedAPIVersion = "2024-08-01-preview"

// AzureConfig configures the Azure OpenAI embedding provider.
type AzureConfig struct {
	APIKey string
	// BaseURL, when set, is used verbatim instead of deriving one from
	// ResourceName (mirrors the chat adapter's resolution rule).
	BaseURL        string
	ResourceName   string
	DeploymentName string
	APIVersion     string
	// Model defaults to text-embedding-3-small per spec.md §4.5.
	Model string
}

// AzureProvider implements Provider against Azure OpenAI's embeddings
// endpoint. Azure's embeddings endpoint cannot accept a batch input —
// spec.md §4.5 requires EmbedMany to iterate sequentially and
// concatenate results, unlike every other provider here.
type AzureProvider struct {
	*base
	endpoint string
}

// NewAzureProvider builds an Azure embedding provider, deriving the
// deployment endpoint from ResourceName the same way the chat adapter
// does when BaseURL isn't given explicitly.
func NewAzureProvider(cfg AzureConfig) *AzureProvider {
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = azureEmbedAPIVersion
	}

	resolvedBase := cfg.BaseURL
	if resolvedBase == "" && cfg.ResourceName != "" {
		resolvedBase = fmt.Sprintf("https://%s.openai.azure.com", cfg.ResourceName)
	}

	deployment := cfg.DeploymentName
	if deployment == "" {
		deployment = cfg.Model
	}
	endpoint := fmt.Sprintf("/openai/deployments/%s/embeddings?api-version=%s", deployment, apiVersion)

	return &AzureProvider{
		base: newBase(baseConfig{
			Name:    "azure-embedding",
			BaseURL: resolvedBase,
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			// Azure cannot batch, so its max batch size is 1 from the
			// caller's perspective even though the wire field exists.
			MaxBatch: 1,
		}),
		endpoint: endpoint,
	}
}

func (p *AzureProvider) authHeaders() map[string]string {
	return map[string]string{"api-key": p.apiKey}
}

// EmbedOne embeds a single string.
func (p *AzureProvider) EmbedOne(ctx context.Context, text string) ([]float64, error) {
	wire, err := p.doRequest(ctx, p.endpoint, openAIWireRequest{
		Input: text,
		Model: p.model,
	}, p.authHeaders())
	if err != nil {
		return nil, err
	}
	vecs := toVectors(wire)
	if len(vecs) == 0 {
		return nil, fmt.Errorf("azure embedding: no embeddings returned")
	}
	return vecs[0], nil
}

// EmbedMany reproduces the Azure quirk spec.md §4.5 calls out
// explicitly: the endpoint rejects a batch input, so this iterates one
// request per text and concatenates the results in order.
func (p *AzureProvider) EmbedMany(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		vec, err := p.EmbedOne(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("azure embedding batch item %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}
