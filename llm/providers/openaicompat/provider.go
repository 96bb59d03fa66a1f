// Package openaicompat is the shared chat-completions adapter embedded by
// every OpenAI-wire-format provider (OpenAI itself, Azure OpenAI,
// Bailian/DashScope-compatible, and user-supplied OpenAI-compatible
// endpoints such as Ollama and OpenRouter). Providers embed Provider and
// override only what differs: base URL, default model, and headers.
package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/blackjuly/ultra-mcp/internal/tlsutil"
	"github.com/blackjuly/ultra-mcp/llm"
	"github.com/blackjuly/ultra-mcp/llm/providers"
)

// Config holds construction parameters for an OpenAI-compatible provider.
type Config struct {
	ProviderName string
	APIKey       string
	BaseURL      string
	DefaultModel string
	// FallbackModel is used when both the request and DefaultModel are
	// empty.
	FallbackModel string
	Timeout       time.Duration

	// EndpointPath is the chat-completions endpoint. Defaults to
	// "/v1/chat/completions".
	EndpointPath string

	// BuildHeaders sets request headers. If nil, a default
	// "Authorization: Bearer <apiKey>" header is used.
	BuildHeaders func(req *http.Request, apiKey string)

	// RequestHook lets an embedding provider mutate the wire request
	// before it is sent (e.g. the OpenAI adapter's reasoning-model
	// temperature clamp).
	RequestHook func(req *llm.ChatRequest, body *providers.OpenAICompatRequest)

	// StaticModels is the fixed catalog returned by ListModels.
	StaticModels []llm.Model

	// RequestsPerSecond and Burst pace outbound calls to this upstream.
	// Zero takes the package default (5 req/s, burst 5); a negative
	// RequestsPerSecond disables pacing outright.
	RequestsPerSecond float64
	Burst             int
}

// Provider is the base implementation embedded by every OpenAI-wire-format
// adapter.
type Provider struct {
	Cfg     Config
	Client  *http.Client
	Logger  *zap.Logger
	Limiter *providers.RateLimiter
}

// New creates a new OpenAI-compatible provider.
func New(cfg Config, logger *zap.Logger) *Provider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/v1/chat/completions"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	rps := cfg.RequestsPerSecond
	burst := cfg.Burst
	if rps == 0 {
		rps = 5
		burst = 5
	}
	return &Provider{
		Cfg:     cfg,
		Client:  tlsutil.SecureHTTPClient(timeout),
		Logger:  logger,
		Limiter: providers.NewRateLimiter(rps, burst),
	}
}

func (p *Provider) Name() string { return p.Cfg.ProviderName }

func (p *Provider) IsConfigured() bool {
	return strings.TrimSpace(p.Cfg.APIKey) != "" || strings.TrimSpace(p.Cfg.BaseURL) != ""
}

func (p *Provider) ListModels() []llm.Model { return p.Cfg.StaticModels }

func (p *Provider) DefaultModel() string {
	if p.Cfg.DefaultModel != "" {
		return p.Cfg.DefaultModel
	}
	return p.Cfg.FallbackModel
}

// SetBuildHeaders overrides the header builder (used by subtypes that
// need provider-specific auth, e.g. OpenAI's Organization header).
func (p *Provider) SetBuildHeaders(fn func(req *http.Request, apiKey string)) {
	p.Cfg.BuildHeaders = fn
}

func (p *Provider) buildHeaders(req *http.Request, apiKey string) {
	if p.Cfg.BuildHeaders != nil {
		p.Cfg.BuildHeaders(req, apiKey)
		return
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")
}

func (p *Provider) endpoint(path string) string {
	return fmt.Sprintf("%s%s", strings.TrimRight(p.Cfg.BaseURL, "/"), path)
}

func (p *Provider) buildRequestBody(req *llm.ChatRequest) providers.OpenAICompatRequest {
	model := providers.ChooseModel(req.Model, p.Cfg.DefaultModel, p.Cfg.FallbackModel)
	body := providers.OpenAICompatRequest{
		Model:       model,
		Messages:    providers.ConvertMessagesToOpenAI(req.SystemPrompt, req.Messages),
		MaxTokens:   req.MaxOutputTokens,
		Temperature: req.Temperature,
	}
	if req.ReasoningEffort != "" {
		body.ReasoningEffort = string(req.ReasoningEffort)
	}
	if p.Cfg.RequestHook != nil {
		p.Cfg.RequestHook(req, &body)
	}
	return body
}

// Completion performs a non-streaming chat completion.
func (p *Provider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	body := p.buildRequestBody(req)

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(p.Cfg.EndpointPath), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	p.buildHeaders(httpReq, p.Cfg.APIKey)

	if err := p.Limiter.Wait(ctx); err != nil {
		return nil, providers.TransportError(err, p.Name())
	}
	resp, err := p.Client.Do(httpReq)
	if err != nil {
		return nil, providers.TransportError(err, p.Name())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg := providers.ReadErrorMessage(resp.Body)
		return nil, providers.MapHTTPError(resp.StatusCode, msg, p.Name())
	}

	var oaResp providers.OpenAICompatResponse
	if err := json.NewDecoder(resp.Body).Decode(&oaResp); err != nil {
		return nil, providers.TransportError(err, p.Name())
	}

	text, finishReason, usage := providers.ToLLMChatResponse(oaResp)
	result := &llm.ChatResponse{
		ID:           oaResp.ID,
		Provider:     p.Name(),
		Model:        oaResp.Model,
		Text:         text,
		FinishReason: finishReason,
		Usage: llm.ChatUsage{
			PromptTokens:     usage.PromptTokens,
			CompletionTokens: usage.CompletionTokens,
			TotalTokens:      usage.TotalTokens,
		},
	}
	if oaResp.Created != 0 {
		result.CreatedAt = time.Unix(oaResp.Created, 0)
	} else {
		result.CreatedAt = time.Now()
	}
	return result, nil
}

// Stream performs a streaming chat completion via SSE.
func (p *Provider) Stream(ctx context.Context, req *llm.ChatRequest) (<-chan llm.StreamChunk, error) {
	body := p.buildRequestBody(req)
	body.Stream = true

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint(p.Cfg.EndpointPath), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	p.buildHeaders(httpReq, p.Cfg.APIKey)

	if err := p.Limiter.Wait(ctx); err != nil {
		return nil, providers.TransportError(err, p.Name())
	}
	resp, err := p.Client.Do(httpReq)
	if err != nil {
		return nil, providers.TransportError(err, p.Name())
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		msg := providers.ReadErrorMessage(resp.Body)
		return nil, providers.MapHTTPError(resp.StatusCode, msg, p.Name())
	}

	ch := make(chan llm.StreamChunk)
	providerName := p.Name()
	go func() {
		defer close(ch)
		providers.StreamSSE(ctx, resp.Body, providerName, func(d providers.StreamDelta) {
			chunk := llm.StreamChunk{
				Provider:     providerName,
				Model:        d.Model,
				ContentDelta: d.ContentDelta,
				FinishReason: d.FinishReason,
				Err:          d.Err,
			}
			if d.Usage != nil {
				chunk.Usage = &llm.ChatUsage{
					PromptTokens:     d.Usage.PromptTokens,
					CompletionTokens: d.Usage.CompletionTokens,
					TotalTokens:      d.Usage.TotalTokens,
				}
			}
			select {
			case <-ctx.Done():
			case ch <- chunk:
			}
		})
	}()
	return ch, nil
}
