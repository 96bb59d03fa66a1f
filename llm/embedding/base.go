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

// base holds the common plumbing every OpenAI-wire embedding adapter
// needs (OpenAI, Azure, Bailian): an HTTP client, endpoint, and the
// shared request/response shapes of the embeddings endpoint. Grounded
// on the teacher's BaseProvider, generalized to also carry the Azure
// batch-endpoint flag since that's the one behavior that differs
// per-adapter here.
type base struct {
	name       string
	client     *http.Client
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	maxBatch   int
}

type baseConfig struct {
	Name       string
	BaseURL    string
	APIKey     string
	Model      string
	Dimensions int
	MaxBatch   int
	Timeout    time.Duration
}

func newBase(cfg baseConfig) *base {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	maxBatch := cfg.MaxBatch
	if maxBatch == 0 {
		maxBatch = 100
	}
	return &base{
		name:       cfg.Name,
		client:     tlsutil.SecureHTTPClient(timeout),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		maxBatch:   maxBatch,
	}
}

func (b *base) Name() string      { return b.name }
func (b *base) Model() string     { return b.model }
func (b *base) Dimensions() int   { return b.dimensions }
func (b *base) MaxBatchSize() int { return b.maxBatch }

type openAIWireRequest struct {
	Input      any    `json:"input"`
	Model      string `json:"model"`
	Dimensions int    `json:"dimensions,omitempty"`
}

type openAIWireResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

// doRequest posts body to baseURL+path with the given headers and
// decodes an OpenAI-wire embeddings response. Shared by OpenAI, Azure,
// and Bailian, which all speak this exact wire format for embeddings.
func (b *base) doRequest(ctx context.Context, path string, body any, headers map[string]string) (*openAIWireResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, providers.TransportError(err, b.name)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embedding response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, providers.MapHTTPError(resp.StatusCode, providers.ReadErrorMessage(bytes.NewReader(respBody)), b.name)
	}

	var wire openAIWireResponse
	if err := json.Unmarshal(respBody, &wire); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}
	return &wire, nil
}

func toVectors(wire *openAIWireResponse) [][]float64 {
	out := make([][]float64, len(wire.Data))
	for _, d := range wire.Data {
		out[d.Index] = d.Embedding
	}
	return out
}
