// Package gemini implements the Google Gemini chat adapter. Unlike the
// OpenAI-family adapters, Gemini speaks its own wire format (contents /
// parts / generationConfig) and authenticates with x-goog-api-key rather
// than Bearer, so it does not embed openaicompat.
package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/blackjuly/ultra-mcp/internal/tlsutil"
	"github.com/blackjuly/ultra-mcp/llm"
	"github.com/blackjuly/ultra-mcp/llm/providers"
)

// defaultTier is the model used for the default search-grounding-on
// Pro tier when neither the request nor Config names one.
const defaultTier = "gemini-1.5-pro"

// Config holds Gemini-specific credentials.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Provider implements the Gemini adapter.
type Provider struct {
	cfg     Config
	client  *http.Client
	logger  *zap.Logger
	limiter *providers.RateLimiter
}

var staticModels = []llm.Model{
	{ID: "gemini-1.5-pro", OwnedBy: "google"},
	{ID: "gemini-1.5-flash", OwnedBy: "google"},
	{ID: "gemini-1.0-pro", OwnedBy: "google"},
}

// New creates a new Gemini provider. The returned client routes through
// HTTPS_PROXY/HTTP_PROXY when set, since Gemini is frequently accessed
// from behind a corporate egress proxy.
func New(cfg Config, logger *zap.Logger) *Provider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		cfg:     cfg,
		client:  tlsutil.SecureHTTPClient(timeout),
		logger:  logger,
		limiter: providers.NewRateLimiter(5, 5),
	}
}

func (p *Provider) Name() string { return "gemini" }

func (p *Provider) IsConfigured() bool { return strings.TrimSpace(p.cfg.APIKey) != "" }

func (p *Provider) ListModels() []llm.Model { return staticModels }

func (p *Provider) DefaultModel() string {
	if p.cfg.Model != "" {
		return p.cfg.Model
	}
	return defaultTier
}

func (p *Provider) buildHeaders(req *http.Request) {
	req.Header.Set("x-goog-api-key", p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     float32 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiTool struct {
	GoogleSearch struct{} `json:"googleSearch"`
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	Tools             []geminiTool            `json:"tools,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
	Index        int           `json:"index"`
}

type geminiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type geminiResponse struct {
	Candidates    []geminiCandidate    `json:"candidates"`
	UsageMetadata *geminiUsageMetadata `json:"usageMetadata,omitempty"`
	ResponseID    string               `json:"responseId,omitempty"`
}

type geminiErrorResp struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// useSearchGrounding resolves whether to attach Gemini's googleSearch
// tool: the default Pro tier has it on unless the caller explicitly
// turns it off.
func useSearchGrounding(req *llm.ChatRequest, model string) bool {
	if req.UseSearchGrounding != nil {
		return *req.UseSearchGrounding
	}
	return model == defaultTier
}

func convertToGeminiContents(systemPrompt string, msgs []llm.Message) (*geminiContent, []geminiContent) {
	var systemInstruction *geminiContent
	if systemPrompt != "" {
		systemInstruction = &geminiContent{Parts: []geminiPart{{Text: systemPrompt}}}
	}

	contents := make([]geminiContent, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == llm.RoleSystem {
			systemInstruction = &geminiContent{Parts: []geminiPart{{Text: m.Content}}}
			continue
		}
		role := string(m.Role)
		if role == string(llm.RoleAssistant) {
			role = "model"
		}
		if m.Content == "" {
			continue
		}
		contents = append(contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: m.Content}},
		})
	}
	return systemInstruction, contents
}

func (p *Provider) buildRequest(req *llm.ChatRequest, model string) geminiRequest {
	systemInstruction, contents := convertToGeminiContents(req.SystemPrompt, req.Messages)
	if req.Prompt != "" && len(req.Messages) == 0 {
		contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}})
	}

	body := geminiRequest{
		Contents:          contents,
		SystemInstruction: systemInstruction,
	}
	if req.Temperature > 0 || req.MaxOutputTokens > 0 {
		body.GenerationConfig = &geminiGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxOutputTokens,
		}
	}
	if useSearchGrounding(req, model) {
		body.Tools = []geminiTool{{}}
	}
	return body
}

// Completion performs a non-streaming generateContent call.
func (p *Provider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	model := providers.ChooseModel(req.Model, p.cfg.Model, defaultTier)
	body := p.buildRequest(req, model)

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", strings.TrimRight(p.cfg.BaseURL, "/"), model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	p.buildHeaders(httpReq)

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, providers.TransportError(err, p.Name())
	}
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, providers.TransportError(err, p.Name())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, mapGeminiError(resp.StatusCode, readGeminiErrMsg(resp.Body), p.Name())
	}

	var gr geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, providers.TransportError(err, p.Name())
	}
	return toChatResponse(gr, p.Name(), model), nil
}

// Stream performs a streamGenerateContent call. Gemini's streaming
// response is a sequence of complete JSON objects, one per line, rather
// than SSE "data:" framing, so this does not reuse providers.StreamSSE.
func (p *Provider) Stream(ctx context.Context, req *llm.ChatRequest) (<-chan llm.StreamChunk, error) {
	model := providers.ChooseModel(req.Model, p.cfg.Model, defaultTier)
	body := p.buildRequest(req, model)

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent", strings.TrimRight(p.cfg.BaseURL, "/"), model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	p.buildHeaders(httpReq)

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, providers.TransportError(err, p.Name())
	}
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, providers.TransportError(err, p.Name())
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, mapGeminiError(resp.StatusCode, readGeminiErrMsg(resp.Body), p.Name())
	}

	ch := make(chan llm.StreamChunk)
	providerName := p.Name()
	go func() {
		defer resp.Body.Close()
		defer close(ch)
		reader := bufio.NewReader(resp.Body)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if err != io.EOF {
					select {
					case <-ctx.Done():
					case ch <- llm.StreamChunk{Err: providers.TransportError(err, providerName)}:
					}
				}
				return
			}
			line = strings.TrimSpace(line)
			line = strings.TrimPrefix(line, "[")
			line = strings.TrimSuffix(line, ",")
			line = strings.TrimSuffix(line, "]")
			if line == "" {
				continue
			}

			var gr geminiResponse
			if err := json.Unmarshal([]byte(line), &gr); err != nil {
				continue
			}
			for _, candidate := range gr.Candidates {
				delta := ""
				for _, part := range candidate.Content.Parts {
					delta += part.Text
				}
				chunk := llm.StreamChunk{
					Provider:     providerName,
					Model:        model,
					ContentDelta: delta,
					FinishReason: candidate.FinishReason,
				}
				if gr.UsageMetadata != nil {
					chunk.Usage = &llm.ChatUsage{
						PromptTokens:     gr.UsageMetadata.PromptTokenCount,
						CompletionTokens: gr.UsageMetadata.CandidatesTokenCount,
						TotalTokens:      gr.UsageMetadata.TotalTokenCount,
					}
				}
				select {
				case <-ctx.Done():
					return
				case ch <- chunk:
				}
			}
		}
	}()
	return ch, nil
}

func toChatResponse(gr geminiResponse, provider, model string) *llm.ChatResponse {
	var text, finishReason string
	if len(gr.Candidates) > 0 {
		finishReason = gr.Candidates[0].FinishReason
		for _, part := range gr.Candidates[0].Content.Parts {
			text += part.Text
		}
	}
	resp := &llm.ChatResponse{
		ID:           gr.ResponseID,
		Provider:     provider,
		Model:        model,
		Text:         text,
		FinishReason: finishReason,
		CreatedAt:    time.Now(),
	}
	if gr.UsageMetadata != nil {
		resp.Usage = llm.ChatUsage{
			PromptTokens:     gr.UsageMetadata.PromptTokenCount,
			CompletionTokens: gr.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      gr.UsageMetadata.TotalTokenCount,
		}
	}
	return resp
}

func readGeminiErrMsg(body io.Reader) string {
	data, _ := io.ReadAll(body)
	var errResp geminiErrorResp
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
		return fmt.Sprintf("%s (status: %s)", errResp.Error.Message, errResp.Error.Status)
	}
	return string(data)
}

func mapGeminiError(status int, msg, provider string) *llm.Error {
	return providers.MapHTTPError(status, msg, provider)
}
