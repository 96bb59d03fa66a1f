package compat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOllamaStyleConfiguredWithoutRealKey(t *testing.T) {
	p := New(Config{Name: "ollama", BaseURL: "http://localhost:11434", RequireAPIKey: false}, nil)
	assert.True(t, p.IsConfigured())
}

func TestOpenRouterStyleRequiresRealKey(t *testing.T) {
	p := New(Config{Name: "openrouter", BaseURL: "https://openrouter.ai/api", RequireAPIKey: true}, nil)
	assert.False(t, p.IsConfigured())

	p2 := New(Config{Name: "openrouter", BaseURL: "https://openrouter.ai/api", APIKey: "sk-real", RequireAPIKey: true}, nil)
	assert.True(t, p2.IsConfigured())
}
