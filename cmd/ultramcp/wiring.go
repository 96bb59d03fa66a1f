package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/blackjuly/ultra-mcp/config"
	"github.com/blackjuly/ultra-mcp/internal/database"
	"github.com/blackjuly/ultra-mcp/internal/platformdir"
	"github.com/blackjuly/ultra-mcp/llm"
	"github.com/blackjuly/ultra-mcp/llm/providers/azure"
	"github.com/blackjuly/ultra-mcp/llm/providers/bailian"
	"github.com/blackjuly/ultra-mcp/llm/providers/compat"
	"github.com/blackjuly/ultra-mcp/llm/providers/gemini"
	"github.com/blackjuly/ultra-mcp/llm/providers/grok"
	"github.com/blackjuly/ultra-mcp/llm/providers/openai"
	"github.com/blackjuly/ultra-mcp/pricing"
	"github.com/blackjuly/ultra-mcp/tracker"
)

// buildRegistry constructs every adapter named in spec.md §6's
// environment-variable list from the stored/overlaid configuration and
// wires them into a Registry in priority order (spec.md §6:
// azure, openai, google, grok, bailian, openai-compatible).
func buildRegistry(cfg *config.Config, logger *zap.Logger) *llm.Registry {
	providers := make([]llm.Provider, 0, 6)

	if cred, ok := cfg.Providers["azure"]; ok {
		providers = append(providers, azure.New(azure.Config{
			APIKey:         cred.APIKey,
			BaseURL:        cred.BaseURL,
			ResourceName:   cred.AzureResource,
			DeploymentName: cred.PreferredModel,
		}, logger))
	} else {
		providers = append(providers, azure.New(azure.Config{}, logger))
	}

	if cred, ok := cfg.Providers["openai"]; ok {
		providers = append(providers, openai.New(openai.Config{
			APIKey:  cred.APIKey,
			BaseURL: cred.BaseURL,
			Model:   cred.PreferredModel,
		}, logger))
	} else {
		providers = append(providers, openai.New(openai.Config{}, logger))
	}

	if cred, ok := cfg.Providers["google"]; ok {
		providers = append(providers, gemini.New(gemini.Config{
			APIKey:  cred.APIKey,
			BaseURL: cred.BaseURL,
			Model:   cred.PreferredModel,
		}, logger))
	} else {
		providers = append(providers, gemini.New(gemini.Config{}, logger))
	}

	if cred, ok := cfg.Providers["grok"]; ok {
		providers = append(providers, grok.New(grok.Config{
			APIKey:  cred.APIKey,
			BaseURL: cred.BaseURL,
		}, logger))
	} else {
		providers = append(providers, grok.New(grok.Config{}, logger))
	}

	providers = append(providers, buildBailian(cfg, logger)...)

	if cred, ok := cfg.Providers["openai-compatible"]; ok {
		providers = append(providers, compat.New(compat.Config{
			Name:          "openai-compatible",
			APIKey:        cred.APIKey,
			BaseURL:       cred.BaseURL,
			Model:         cred.PreferredModel,
			RequireAPIKey: cred.Subtype != "ollama",
		}, logger))
	} else {
		providers = append(providers, compat.New(compat.Config{Name: "openai-compatible"}, logger))
	}

	return llm.NewRegistry(providers...)
}

// buildBailian wires the single "bailian" config section to the
// DashScope-compatible adapter, selecting a Subtype from its stored
// subtype field (spec.md §4.1: bailian, qwen3-coder, deepseek-r1 share
// one endpoint).
func buildBailian(cfg *config.Config, logger *zap.Logger) []llm.Provider {
	cred, ok := cfg.Providers["bailian"]
	if !ok {
		return []llm.Provider{bailian.New(bailian.Config{}, logger)}
	}
	return []llm.Provider{bailian.New(bailian.Config{
		APIKey:  cred.APIKey,
		BaseURL: cred.BaseURL,
		Model:   cred.PreferredModel,
		Subtype: bailian.Subtype(cred.Subtype),
	}, logger)}
}

// loadConfig opens the Configuration Store at the platform config path
// and returns the file-and-environment-overlaid document.
func loadConfig() (*config.Config, *config.Store, error) {
	store, err := config.New()
	if err != nil {
		return nil, nil, fmt.Errorf("open config store: %w", err)
	}
	cfg, err := store.GetConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, store, nil
}

// openTracker opens the embedded database at the platform config path
// and wires a Tracker backed by a pricing Service pointed at the
// on-disk pricing cache.
func openTracker(logger *zap.Logger) (*tracker.Tracker, *database.PoolManager, error) {
	dbPath, err := platformdir.Path("ultra-mcp.db")
	if err != nil {
		return nil, nil, err
	}
	pool, err := database.Open(dbPath, database.DefaultPoolConfig(), logger)
	if err != nil {
		return nil, nil, err
	}
	if err := database.AutoMigrate(pool.DB(), &tracker.Record{}); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	pricingSvc, err := openPricingService(logger)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return tracker.New(pool, pricingSvc, logger), pool, nil
}

func openPricingService(logger *zap.Logger) (*pricing.Service, error) {
	cachePath, err := platformdir.Path("litellm-pricing-cache.json")
	if err != nil {
		return nil, err
	}
	return pricing.New(cachePath, logger), nil
}
