package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name      string
	configured bool
	model     string
}

func (f *fakeProvider) Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	return &ChatResponse{Text: "from " + f.name, Model: req.Model}, nil
}
func (f *fakeProvider) Stream(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error) {
	ch := make(chan StreamChunk, 1)
	ch <- StreamChunk{Provider: f.name, ContentDelta: "x"}
	close(ch)
	return ch, nil
}
func (f *fakeProvider) Name() string          { return f.name }
func (f *fakeProvider) IsConfigured() bool    { return f.configured }
func (f *fakeProvider) ListModels() []Model   { return []Model{{ID: f.model}} }
func (f *fakeProvider) DefaultModel() string  { return f.model }

func TestResolveExplicitProvider(t *testing.T) {
	r := NewRegistry(&fakeProvider{name: "openai", configured: true, model: "gpt-4o"})
	resp, err := r.Generate(context.Background(), &ChatRequest{Provider: "openai", Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "from openai", resp.Text)
}

func TestResolveFallsBackToPriorityOrder(t *testing.T) {
	r := NewRegistry(
		&fakeProvider{name: "grok", configured: true, model: "grok-3"},
		&fakeProvider{name: "openai", configured: false, model: "gpt-4o"},
	)
	resp, err := r.Generate(context.Background(), &ChatRequest{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "from grok", resp.Text)
}

func TestResolveAzureBeatsOpenAIInPriority(t *testing.T) {
	r := NewRegistry(
		&fakeProvider{name: "openai", configured: true, model: "gpt-4o"},
		&fakeProvider{name: "azure", configured: true, model: "d1"},
	)
	resp, err := r.Generate(context.Background(), &ChatRequest{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "from azure", resp.Text)
}

func TestResolveNoProviderConfigured(t *testing.T) {
	r := NewRegistry(&fakeProvider{name: "openai", configured: false})
	_, err := r.Generate(context.Background(), &ChatRequest{Prompt: "hi"})
	require.Error(t, err)
	gwErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ErrConfigurationMissing, gwErr.Code)
}

func TestResolveUnknownProviderName(t *testing.T) {
	r := NewRegistry(&fakeProvider{name: "openai", configured: true})
	_, err := r.Generate(context.Background(), &ChatRequest{Provider: "nope", Prompt: "hi"})
	require.Error(t, err)
}

func TestDefaultModelAppliedWhenRequestOmitsIt(t *testing.T) {
	r := NewRegistry(&fakeProvider{name: "openai", configured: true, model: "gpt-4o"})
	resp, err := r.Generate(context.Background(), &ChatRequest{Provider: "openai", Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", resp.Model)
}
