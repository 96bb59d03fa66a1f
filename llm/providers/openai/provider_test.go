package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackjuly/ultra-mcp/llm"
	"github.com/blackjuly/ultra-mcp/llm/providers"
)

func TestIsReasoningModel(t *testing.T) {
	assert.True(t, isReasoningModel("o1-preview"))
	assert.True(t, isReasoningModel("o3-mini"))
	assert.True(t, isReasoningModel("gpt-5"))
	assert.False(t, isReasoningModel("gpt-4o"))
}

func TestReasoningModelRequestHookClampsTemperature(t *testing.T) {
	body := &providers.OpenAICompatRequest{Model: "o3-mini", Temperature: 0.2}
	ReasoningModelRequestHook(&llm.ChatRequest{}, body)
	assert.Equal(t, float32(1.0), body.Temperature)
	assert.Equal(t, "medium", body.ReasoningEffort)
}

func TestReasoningModelRequestHookGPT5NoEffort(t *testing.T) {
	body := &providers.OpenAICompatRequest{Model: "gpt-5", Temperature: 0.2, ReasoningEffort: "high"}
	ReasoningModelRequestHook(&llm.ChatRequest{}, body)
	assert.Equal(t, float32(1.0), body.Temperature)
	assert.Equal(t, "", body.ReasoningEffort)
}

func TestReasoningModelRequestHookIgnoresOtherModels(t *testing.T) {
	body := &providers.OpenAICompatRequest{Model: "gpt-4o", Temperature: 0.2}
	ReasoningModelRequestHook(&llm.ChatRequest{}, body)
	assert.Equal(t, float32(0.2), body.Temperature)
}

func TestCompletionSendsOrganizationHeader(t *testing.T) {
	var gotAuth, gotOrg string
	var gotBody providers.OpenAICompatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotOrg = r.Header.Get("OpenAI-Organization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		fmt.Fprint(w, `{"id":"r1","model":"o3-mini","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"hi"}}],"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`)
	}))
	defer srv.Close()

	p := New(Config{APIKey: "sk-x", BaseURL: srv.URL, Organization: "org-1", Model: "o3-mini"}, nil)

	resp, err := p.Completion(context.Background(), &llm.ChatRequest{Prompt: "hi", Temperature: 0.3})
	require.NoError(t, err)
	assert.Equal(t, "Bearer sk-x", gotAuth)
	assert.Equal(t, "org-1", gotOrg)
	assert.Equal(t, float32(1.0), gotBody.Temperature)
	assert.Equal(t, "medium", gotBody.ReasoningEffort)
	assert.Equal(t, "hi", resp.Text)
}
