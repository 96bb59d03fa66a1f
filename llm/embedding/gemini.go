package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/blackjuly/ultra-mcp/internal/tlsutil"
	"github.com/blackjuly/ultra-mcp/llm/providers"
)

// GeminiConfig configures the Gemini embedding provider.
type GeminiConfig struct {
	APIKey string
	// BaseURL defaults to the Gemini v1beta generative endpoint.
	BaseURL string
	// Model defaults to text-embedding-004 per spec.md §4.5.
	Model string
}

// GeminiProvider implements Provider against Gemini's embedContent /
// batchEmbedContents endpoints. Gemini's embedding wire format is not
// OpenAI-shaped (separate content/parts envelope, x-goog-api-key auth),
// so this adapter does not embed base like OpenAI/Azure/Bailian do —
// grounded on the teacher's GeminiProvider in llm/embedding/gemini.go.
type GeminiProvider struct {
	cfg    GeminiConfig
	client *http.Client
}

// NewGeminiProvider builds a Gemini embedding provider.
func NewGeminiProvider(cfg GeminiConfig) *GeminiProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-004"
	}
	return &GeminiProvider{
		cfg:    cfg,
		client: tlsutil.SecureHTTPClient(30 * time.Second),
	}
}

func (p *GeminiProvider) Name() string      { return "gemini-embedding" }
func (p *GeminiProvider) Model() string     { return p.cfg.Model }
func (p *GeminiProvider) Dimensions() int   { return 768 }
func (p *GeminiProvider) MaxBatchSize() int { return 100 }

type geminiEmbedContent struct {
	Parts []geminiEmbedPart `json:"parts"`
}

type geminiEmbedPart struct {
	Text string `json:"text"`
}

type geminiEmbedRequest struct {
	Model   string             `json:"model"`
	Content geminiEmbedContent `json:"content"`
}

type geminiBatchEmbedRequest struct {
	Requests []geminiEmbedRequest `json:"requests"`
}

type geminiContentEmbedding struct {
	Values []float64 `json:"values"`
}

type geminiEmbedResponse struct {
	Embedding geminiContentEmbedding `json:"embedding"`
}

type geminiBatchEmbedResponse struct {
	Embeddings []geminiContentEmbedding `json:"embeddings"`
}

// EmbedOne embeds a single string against the non-batch endpoint.
func (p *GeminiProvider) EmbedOne(ctx context.Context, text string) ([]float64, error) {
	model := p.cfg.Model
	body := geminiEmbedRequest{
		Model:   fmt.Sprintf("models/%s", model),
		Content: geminiEmbedContent{Parts: []geminiEmbedPart{{Text: text}}},
	}
	endpoint := fmt.Sprintf("%s/models/%s:embedContent", strings.TrimRight(p.cfg.BaseURL, "/"), model)

	respBody, err := p.doRequest(ctx, endpoint, body)
	if err != nil {
		return nil, err
	}
	var resp geminiEmbedResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decode gemini embedding response: %w", err)
	}
	return resp.Embedding.Values, nil
}

// EmbedMany uses Gemini's native batchEmbedContents endpoint — unlike
// Azure, Gemini batches natively so no sequential workaround is needed.
func (p *GeminiProvider) EmbedMany(ctx context.Context, texts []string) ([][]float64, error) {
	model := p.cfg.Model
	requests := make([]geminiEmbedRequest, len(texts))
	for i, text := range texts {
		requests[i] = geminiEmbedRequest{
			Model:   fmt.Sprintf("models/%s", model),
			Content: geminiEmbedContent{Parts: []geminiEmbedPart{{Text: text}}},
		}
	}
	endpoint := fmt.Sprintf("%s/models/%s:batchEmbedContents", strings.TrimRight(p.cfg.BaseURL, "/"), model)

	respBody, err := p.doRequest(ctx, endpoint, geminiBatchEmbedRequest{Requests: requests})
	if err != nil {
		return nil, err
	}
	var resp geminiBatchEmbedResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decode gemini batch embedding response: %w", err)
	}
	out := make([][]float64, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		out[i] = e.Values
	}
	return out, nil
}

// doRequest performs Gemini's x-goog-api-key-authenticated POST and
// maps non-2xx responses the same way the chat adapter does.
func (p *GeminiProvider) doRequest(ctx context.Context, endpoint string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal gemini embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build gemini embedding request: %w", err)
	}
	req.Header.Set("x-goog-api-key", p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, providers.TransportError(err, p.Name())
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gemini embedding response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, providers.MapHTTPError(resp.StatusCode, string(respBody), p.Name())
	}
	return respBody, nil
}
