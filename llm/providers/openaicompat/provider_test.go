package openaicompat

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackjuly/ultra-mcp/llm"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) (*Provider, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p := New(Config{
		ProviderName:  "testprov",
		APIKey:        "sk-test",
		BaseURL:       srv.URL,
		DefaultModel:  "test-model",
		FallbackModel: "fallback-model",
	}, nil)
	return p, srv
}

func TestCompletionSuccess(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"id":"resp1","model":"test-model","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Hello"}}],"usage":{"prompt_tokens":5,"completion_tokens":1,"total_tokens":6}}`)
	})

	resp, err := p.Completion(context.Background(), &llm.ChatRequest{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "Hello", resp.Text)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 6, resp.Usage.TotalTokens)
}

func TestCompletionUpstreamError(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limited","type":"rate_limit"}}`)
	})

	_, err := p.Completion(context.Background(), &llm.ChatRequest{Prompt: "hi"})
	require.Error(t, err)
	gwErr, ok := err.(*llm.Error)
	require.True(t, ok)
	assert.Equal(t, llm.ErrRateLimited, gwErr.Code)
	assert.True(t, gwErr.Retryable)
}

func TestStreamingSuccess(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":\"He\"}}]}\n\n")
		flusher.Flush()
		fmt.Fprint(w, "data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":\"llo\"},\"finish_reason\":\"stop\"}]}\n\n")
		flusher.Flush()
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	})

	ch, err := p.Stream(context.Background(), &llm.ChatRequest{Prompt: "hi"})
	require.NoError(t, err)

	var text string
	for chunk := range ch {
		require.Nil(t, chunk.Err)
		text += chunk.ContentDelta
	}
	assert.Equal(t, "Hello", text)
}

func TestStreamingIncludeUsageFinalChunk(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":\"Hi\"},\"finish_reason\":\"stop\"}]}\n\n")
		flusher.Flush()
		fmt.Fprint(w, "data: {\"choices\":[],\"usage\":{\"prompt_tokens\":3,\"completion_tokens\":1,\"total_tokens\":4}}\n\n")
		flusher.Flush()
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	})

	ch, err := p.Stream(context.Background(), &llm.ChatRequest{Prompt: "hi"})
	require.NoError(t, err)

	var text string
	var usage *llm.ChatUsage
	for chunk := range ch {
		require.Nil(t, chunk.Err)
		text += chunk.ContentDelta
		if chunk.Usage != nil {
			usage = chunk.Usage
		}
	}
	assert.Equal(t, "Hi", text)
	require.NotNil(t, usage)
	assert.Equal(t, 4, usage.TotalTokens)
}

func TestChooseModelPriority(t *testing.T) {
	p := New(Config{ProviderName: "x", DefaultModel: "default-m", FallbackModel: "fallback-m"}, nil)
	assert.Equal(t, "default-m", p.DefaultModel())
}
