package bailian

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

func TestNewUsesCompatibleModeEndpoint(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"id":"r1","model":"qwen-plus","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"hi"}}],"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`)
	}))
	defer srv.Close()

	p := New(Config{APIKey: "dk", BaseURL: srv.URL}, nil)
	_, err := p.Completion(context.Background(), &llm.ChatRequest{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "/v1/chat/completions", gotPath)
}

func TestSubtypeSelectsDefaultModel(t *testing.T) {
	p := New(Config{APIKey: "dk", Subtype: SubtypeDeepSeekR1}, nil)
	assert.Equal(t, "deepseek-r1", p.DefaultModel())
	models := p.ListModels()
	require.Len(t, models, 1)
	assert.Equal(t, "deepseek-r1", models[0].ID)
}
