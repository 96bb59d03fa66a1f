package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAPIKeyPersistsAndLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s := NewAt(path)

	require.NoError(t, s.SetAPIKey("openai", "sk-abc"))
	cfg, err := s.GetConfig()
	require.NoError(t, err)
	assert.Equal(t, "sk-abc", cfg.Providers["openai"].APIKey)
}

func TestMissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")
	s := NewAt(path)
	cfg, err := s.GetConfig()
	require.NoError(t, err)
	assert.Empty(t, cfg.Providers)
}

func TestEnvOverlayDoesNotOverrideFileValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s := NewAt(path)
	require.NoError(t, s.SetAPIKey("openai", "from-file"))

	t.Setenv("OPENAI_API_KEY", "from-env")
	cfg, err := s.GetConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Providers["openai"].APIKey)
}

func TestEnvOverlayFillsWhenFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s := NewAt(path)

	t.Setenv("GOOGLE_API_KEY", "from-env")
	cfg, err := s.GetConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Providers["google"].APIKey)
}

func TestAzureLegacyEndpointAliasOverlaysBaseURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s := NewAt(path)

	t.Setenv("AZURE_ENDPOINT", "https://legacy.example.com")
	cfg, err := s.GetConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://legacy.example.com", cfg.Providers["azure"].BaseURL)
}

func TestSetBaseURLRejectsInvalidURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s := NewAt(path)
	err := s.SetBaseURL("openai", "::not a url::")
	assert.Error(t, err)
}

func TestResetRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s := NewAt(path)
	require.NoError(t, s.SetAPIKey("openai", "sk-abc"))
	require.NoError(t, s.Reset())

	cfg, err := s.GetConfig()
	require.NoError(t, err)
	assert.Empty(t, cfg.Providers)
}

func TestSetVectorConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s := NewAt(path)
	require.NoError(t, s.SetVectorConfig("openai", "text-embedding-3-small"))

	cfg, err := s.GetConfig()
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Vector.Provider)
	assert.Equal(t, "text-embedding-3-small", cfg.Vector.Model)
}

func TestUnknownProviderRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	s := NewAt(path)
	err := s.SetAPIKey("not-a-provider", "x")
	assert.Error(t, err)
}
