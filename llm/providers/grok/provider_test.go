package grok

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
)

func TestCompletionDoesNotClampTemperature(t *testing.T) {
	var gotTemp float64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Temperature float64 `json:"temperature"`
		}
		_ = decodeJSON(r, &body)
		gotTemp = body.Temperature
		fmt.Fprint(w, `{"id":"r1","model":"grok-3","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"hi"}}],"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`)
	}))
	defer srv.Close()

	p := New(Config{APIKey: "xk", BaseURL: srv.URL, Model: "grok-3"}, nil)
	_, err := p.Completion(context.Background(), &llm.ChatRequest{Prompt: "hi", Temperature: 0.3})
	require.NoError(t, err)
	assert.Equal(t, 0.3, gotTemp)
}

func TestDefaultModelFallback(t *testing.T) {
	p := New(Config{APIKey: "xk"}, nil)
	assert.Equal(t, "grok-3-mini", p.DefaultModel())
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
