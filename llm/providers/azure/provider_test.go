package azure

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

func TestNewBuildsDeploymentEndpoint(t *testing.T) {
	var gotPath, gotAPIKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		gotAPIKey = r.Header.Get("api-key")
		fmt.Fprint(w, `{"id":"r1","model":"gpt-4o","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"hi"}}],"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`)
	}))
	defer srv.Close()

	p := New(Config{APIKey: "azkey", BaseURL: srv.URL, DeploymentName: "my-gpt4o"}, nil)
	resp, err := p.Completion(context.Background(), &llm.ChatRequest{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "/openai/deployments/my-gpt4o/chat/completions?api-version=2024-08-01-preview", gotPath)
	assert.Equal(t, "azkey", gotAPIKey)
	assert.Equal(t, "hi", resp.Text)
}

func TestNewResolvesBaseURLFromResourceName(t *testing.T) {
	p := New(Config{ResourceName: "myresource", DeploymentName: "d1"}, nil)
	assert.Equal(t, "https://myresource.openai.azure.com", p.Cfg.BaseURL)
	assert.Equal(t, "d1", p.DefaultModel())
}
