package llm

import (
	"context"
	"fmt"
)

// priorityOrder is the deterministic fallback order used when a caller
// does not name a provider. "google" in spec terms is this registry's
// "gemini" adapter; the two names are used interchangeably in the
// gateway's external vocabulary (env vars say GOOGLE_*, tool schemas say
// "gemini") but there is exactly one adapter instance behind both.
var priorityOrder = []string{"azure", "openai", "gemini", "grok", "bailian", "openai-compatible"}

// Registry holds every constructed adapter and dispatches a request to
// the right one: either the caller-named provider, or the first
// configured provider in priorityOrder.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry builds a Registry from a set of adapters. Adapters that
// fail IsConfigured() are still registered (ListModels/Name still work)
// but are skipped by provider-omitted selection.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

// Provider returns the named adapter, or nil if it was never registered.
func (r *Registry) Provider(name string) Provider {
	return r.providers[name]
}

// configuredProviders returns registered adapters in priority order,
// filtered to those reporting IsConfigured() true.
func (r *Registry) configuredProviders() []Provider {
	out := make([]Provider, 0, len(priorityOrder))
	for _, name := range priorityOrder {
		if p, ok := r.providers[name]; ok && p.IsConfigured() {
			out = append(out, p)
		}
	}
	return out
}

// resolve picks the adapter for a request: the named provider if set,
// else the first configured provider in priority order.
func (r *Registry) resolve(providerName string) (Provider, error) {
	if providerName != "" {
		p, ok := r.providers[providerName]
		if !ok {
			return nil, &Error{Code: ErrConfigurationMissing, Message: fmt.Sprintf("unknown provider %q", providerName)}
		}
		if !p.IsConfigured() {
			return nil, &Error{Code: ErrConfigurationMissing, Message: fmt.Sprintf("provider %q is not configured", providerName), Provider: providerName}
		}
		return p, nil
	}
	configured := r.configuredProviders()
	if len(configured) == 0 {
		return nil, &Error{Code: ErrConfigurationMissing, Message: "no provider is configured"}
	}
	return configured[0], nil
}

// Generate dispatches a synchronous chat completion to the resolved
// provider.
func (r *Registry) Generate(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	p, err := r.resolve(req.Provider)
	if err != nil {
		return nil, err
	}
	if req.Model == "" {
		req.Model = p.DefaultModel()
	}
	resp, err := p.Completion(ctx, req)
	if err != nil {
		return nil, err
	}
	resp.Provider = p.Name()
	return resp, nil
}

// StreamGenerate dispatches a streaming chat completion to the resolved
// provider.
func (r *Registry) StreamGenerate(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error) {
	p, err := r.resolve(req.Provider)
	if err != nil {
		return nil, err
	}
	if req.Model == "" {
		req.Model = p.DefaultModel()
	}
	return p.Stream(ctx, req)
}
