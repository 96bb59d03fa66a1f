package gemini

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

func TestCompletionUsesGoogAuthHeader(t *testing.T) {
	var gotKey, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-goog-api-key")
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"hi there"}]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":3,"candidatesTokenCount":2,"totalTokenCount":5}}`)
	}))
	defer srv.Close()

	p := New(Config{APIKey: "gk", BaseURL: srv.URL, Model: "gemini-1.5-flash"}, nil)
	resp, err := p.Completion(context.Background(), &llm.ChatRequest{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "gk", gotKey)
	assert.Equal(t, "/v1beta/models/gemini-1.5-flash:generateContent", gotPath)
	assert.Equal(t, "hi there", resp.Text)
	assert.Equal(t, 5, resp.Usage.TotalTokens)
}

func TestDefaultTierEnablesSearchGrounding(t *testing.T) {
	p := New(Config{APIKey: "gk"}, nil)
	req := &llm.ChatRequest{Prompt: "hi"}
	body := p.buildRequest(req, p.DefaultModel())
	require.Len(t, body.Tools, 1)
}

func TestExplicitOptOutDisablesSearchGrounding(t *testing.T) {
	p := New(Config{APIKey: "gk"}, nil)
	off := false
	req := &llm.ChatRequest{Prompt: "hi", UseSearchGrounding: &off}
	body := p.buildRequest(req, p.DefaultModel())
	assert.Empty(t, body.Tools)
}

func TestNonDefaultModelHasNoGroundingByDefault(t *testing.T) {
	p := New(Config{APIKey: "gk", Model: "gemini-1.5-flash"}, nil)
	req := &llm.ChatRequest{Prompt: "hi"}
	body := p.buildRequest(req, p.DefaultModel())
	assert.Empty(t, body.Tools)
}

func TestUpstreamErrorMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"code":429,"message":"rate limit","status":"RESOURCE_EXHAUSTED"}}`)
	}))
	defer srv.Close()

	p := New(Config{APIKey: "gk", BaseURL: srv.URL}, nil)
	_, err := p.Completion(context.Background(), &llm.ChatRequest{Prompt: "hi"})
	require.Error(t, err)
	gwErr, ok := err.(*llm.Error)
	require.True(t, ok)
	assert.Equal(t, llm.ErrRateLimited, gwErr.Code)
}
