// Package config implements the Configuration Store: per-provider
// credentials persisted as JSON under the platform-standard config
// directory, overlaid with a fixed set of environment variables on
// read. Unlike the teacher's config/loader.go, which reflects over
// struct tags to overlay an arbitrarily-prefixed environment namespace,
// this store's environment variables are a small fixed list
// (OPENAI_API_KEY, GOOGLE_API_KEY, …) named directly in spec, so a
// reflection-driven generic loader would be solving a problem this spec
// doesn't have; overlay is a short explicit function instead.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/blackjuly/ultra-mcp/internal/platformdir"
)

// ProviderCredential mirrors spec.md §3's tuple: per-provider API key,
// base URL, preferred model, and an extras bag for Azure's resource
// name / OpenAI-compatible subtype / exposed-model list.
type ProviderCredential struct {
	APIKey         string   `json:"apiKey,omitempty"`
	BaseURL        string   `json:"baseURL,omitempty"`
	PreferredModel string   `json:"preferredModel,omitempty"`
	AzureResource  string   `json:"azureResourceName,omitempty"`
	Subtype        string   `json:"subtype,omitempty"`
	Models         []string `json:"models,omitempty"`
}

// VectorConfig holds the optional embedding/vector-store settings the
// CLI's setVectorConfig operation manages.
type VectorConfig struct {
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// Config is the full persisted document.
type Config struct {
	Providers map[string]ProviderCredential `json:"providers"`
	Vector    VectorConfig                  `json:"vector"`
}

func newDefaultConfig() *Config {
	return &Config{Providers: make(map[string]ProviderCredential)}
}

// knownProviders is the fixed schema: any section missing from the file
// is treated as defaulted, and any key outside this set is rejected by
// validate.
var knownProviders = map[string]bool{
	"openai": true, "azure": true, "google": true,
	"grok": true, "bailian": true, "qwen3-coder": true,
	"deepseek-r1": true, "openai-compatible": true,
}

// Store persists and overlays provider credentials. One Store instance
// is created at startup and lives for the process lifetime per
// spec.md §9 ("process-wide singletons... explicit dependencies passed
// at construction").
type Store struct {
	mu   sync.RWMutex
	path string
}

// New creates a Store rooted at the platform config directory's
// "config.json". Call GetConfig to read it; a missing file reads as the
// default document.
func New() (*Store, error) {
	path, err := platformdir.Path("config.json")
	if err != nil {
		return nil, err
	}
	return &Store{path: path}, nil
}

// NewAt creates a Store at an explicit path, for tests.
func NewAt(path string) *Store {
	return &Store{path: path}
}

// GetConfigPath returns the on-disk location of the config file.
func (s *Store) GetConfigPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

// GetConfig loads the persisted document (defaulting missing sections)
// and overlays the fixed environment variables, with the file winning
// over the environment whenever both set a field — the inverse of the
// teacher's own env-wins server-config priority, per spec.md §4.6.
func (s *Store) GetConfig() (*Config, error) {
	s.mu.RLock()
	path := s.path
	s.mu.RUnlock()

	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}
	overlayEnv(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return newDefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := newDefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderCredential)
	}
	return cfg, nil
}

// envVar is one environment variable and the provider/field it overlays
// when the file left that field empty.
type envVar struct {
	provider string
	field    string // "apiKey" | "baseURL"
	name     string
}

var envOverlay = []envVar{
	{"openai", "apiKey", "OPENAI_API_KEY"},
	{"openai", "baseURL", "OPENAI_BASE_URL"},
	{"google", "apiKey", "GOOGLE_API_KEY"},
	{"google", "baseURL", "GOOGLE_BASE_URL"},
	{"azure", "apiKey", "AZURE_API_KEY"},
	{"azure", "baseURL", "AZURE_BASE_URL"},
	{"azure", "baseURL", "AZURE_ENDPOINT"}, // legacy alias, same field
	{"grok", "apiKey", "XAI_API_KEY"},
	{"grok", "baseURL", "XAI_BASE_URL"},
	{"bailian", "apiKey", "DASHSCOPE_API_KEY"},
	{"qwen3-coder", "apiKey", "QWEN3_CODER_API_KEY"},
	{"deepseek-r1", "apiKey", "DEEPSEEK_R1_API_KEY"},
}

func overlayEnv(cfg *Config) {
	for _, e := range envOverlay {
		val := os.Getenv(e.name)
		if val == "" {
			continue
		}
		cred := cfg.Providers[e.provider]
		switch e.field {
		case "apiKey":
			if cred.APIKey == "" {
				cred.APIKey = val
			}
		case "baseURL":
			if cred.BaseURL == "" {
				cred.BaseURL = val
			}
		}
		cfg.Providers[e.provider] = cred
	}
}

func validate(cfg *Config) error {
	for name, cred := range cfg.Providers {
		if !knownProviders[name] {
			return fmt.Errorf("unknown provider section %q", name)
		}
		if cred.BaseURL != "" {
			if _, err := url.ParseRequestURI(cred.BaseURL); err != nil {
				return fmt.Errorf("provider %q has invalid baseURL: %w", name, err)
			}
		}
	}
	return nil
}

func (s *Store) save(cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(s.path, data, 0o600)
}

// SetAPIKey sets or clears (when value is "") the named provider's API
// key and persists the document.
func (s *Store) SetAPIKey(provider, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutate(provider, func(c *ProviderCredential) { c.APIKey = value })
}

// SetBaseURL sets or clears the named provider's base URL.
func (s *Store) SetBaseURL(provider, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value != "" {
		if _, err := url.ParseRequestURI(value); err != nil {
			return fmt.Errorf("invalid baseURL: %w", err)
		}
	}
	return s.mutate(provider, func(c *ProviderCredential) { c.BaseURL = value })
}

// SetAzureResourceName sets or clears Azure's resource-name extra.
func (s *Store) SetAzureResourceName(value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutate("azure", func(c *ProviderCredential) { c.AzureResource = value })
}

// SetVectorConfig sets the embedding provider/model pair.
func (s *Store) SetVectorConfig(provider, model string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, err := loadFile(s.path)
	if err != nil {
		return err
	}
	cfg.Vector = VectorConfig{Provider: provider, Model: model}
	return s.save(cfg)
}

func (s *Store) mutate(provider string, fn func(c *ProviderCredential)) error {
	if !knownProviders[provider] {
		return fmt.Errorf("unknown provider %q", provider)
	}
	cfg, err := loadFile(s.path)
	if err != nil {
		return err
	}
	cred := cfg.Providers[provider]
	fn(&cred)
	cfg.Providers[provider] = cred
	return s.save(cfg)
}

// Reset deletes the persisted config file, restoring defaults.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove config: %w", err)
	}
	return nil
}
