package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/blackjuly/ultra-mcp/internal/tlsutil"
	"github.com/blackjuly/ultra-mcp/llm/llmtypes"
)

const (
	memoryTTL        = 5 * time.Minute
	tieredThreshold   = 200_000
	defaultSourceURL = "https://raw.githubusercontent.com/BerriAI/litellm/main/model_prices_and_context_window.json"
)

var skipSubstrings = []string{
	"dall-e", "whisper", "tts", "embedding", "moderation",
	"flux", "stable-diffusion", "sample_spec",
}

// Service is the process-wide pricing singleton: a small struct behind
// a reader-writer discipline (spec.md §9) — readers take an atomically
// swapped snapshot, the writer installs a new one after a successful
// fetch or disk read.
type Service struct {
	mu         sync.RWMutex
	snapshot   *Catalog
	fetchedAt  time.Time
	sourceURL  string
	disk       *diskCache
	httpClient *http.Client
	logger     *zap.Logger
}

// Option customizes a Service at construction.
type Option func(*Service)

// WithSourceURL overrides the remote catalog URL, for pointing at a
// self-hosted LiteLLM mirror (or a test server) instead of upstream.
func WithSourceURL(url string) Option {
	return func(s *Service) { s.sourceURL = url }
}

// New creates a Service backed by a disk cache file at cachePath.
func New(cachePath string, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		sourceURL:  defaultSourceURL,
		disk:       newDiskCache(cachePath),
		httpClient: tlsutil.SecureHTTPClient(15 * time.Second),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetLatestPricing implements spec.md §4.3's getLatestPricing
// algorithm: memory cache (5 min) → fresh disk cache → remote fetch →
// stale disk cache fallback → ErrPricingUnavailable.
func (s *Service) GetLatestPricing(ctx context.Context, forceRefresh bool) (Catalog, error) {
	if !forceRefresh {
		if catalog, ok := s.memorySnapshot(); ok {
			return catalog, nil
		}
	}

	diskCF, hasDisk, err := s.disk.read()
	if err != nil {
		s.logger.Warn("pricing disk cache unreadable", zap.Error(err))
	}

	now := time.Now()
	if !forceRefresh && hasDisk && fresh(diskCF, now) {
		s.installSnapshot(diskCF.Data, now)
		return diskCF.Data, nil
	}

	catalog, fetchErr := s.fetchRemote(ctx)
	if fetchErr == nil {
		if err := s.disk.write(catalog, s.sourceURL, now); err != nil {
			s.logger.Warn("failed to persist pricing cache", zap.Error(err))
		}
		s.installSnapshot(catalog, now)
		return catalog, nil
	}

	if hasDisk {
		s.logger.Warn("pricing remote fetch failed, serving stale disk cache", zap.Error(fetchErr))
		s.installSnapshot(diskCF.Data, now)
		return diskCF.Data, nil
	}

	return nil, llmtypes.NewError(llmtypes.ErrPricingUnavailable, "pricing unavailable").WithCause(fetchErr)
}

func (s *Service) memorySnapshot() (Catalog, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil, false
	}
	if time.Since(s.fetchedAt) >= memoryTTL {
		return nil, false
	}
	return *s.snapshot, true
}

func (s *Service) installSnapshot(catalog Catalog, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := catalog
	s.snapshot = &c
	s.fetchedAt = at
}

func (s *Service) fetchRemote(ctx context.Context) (Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.sourceURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pricing fetch: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return ingest(body)
}

// rawEntry tolerates numeric fields arriving as either JSON numbers or
// strings, per spec.md §4.3's coercion rule.
type rawEntry struct {
	InputCostPerToken           json.RawMessage `json:"input_cost_per_token"`
	OutputCostPerToken          json.RawMessage `json:"output_cost_per_token"`
	InputCostPerTokenAbove200k  json.RawMessage `json:"input_cost_per_token_above_200k_tokens"`
	OutputCostPerTokenAbove200k json.RawMessage `json:"output_cost_per_token_above_200k_tokens"`
	MaxInputTokens              json.RawMessage `json:"max_input_tokens"`
	MaxOutputTokens             json.RawMessage `json:"max_output_tokens"`
	InputCostPerImage           json.RawMessage `json:"input_cost_per_image"`
	OutputCostPerImage          json.RawMessage `json:"output_cost_per_image"`
}

func coerceFloat(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f
		}
	}
	return 0
}

func coerceInt(raw json.RawMessage) int {
	return int(coerceFloat(raw))
}

// ingest applies the filter rules from spec.md §4.3 to a raw LiteLLM
// document: skip known non-chat model families, coerce string numerics,
// and keep only entries with full base pricing or explicit image
// pricing.
func ingest(body []byte) (Catalog, error) {
	var raw map[string]rawEntry
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse pricing document: %w", err)
	}

	catalog := make(Catalog, len(raw))
	for name, r := range raw {
		lower := strings.ToLower(name)
		skip := false
		for _, s := range skipSubstrings {
			if strings.Contains(lower, s) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}

		entry := Entry{
			InputCostPerToken:          coerceFloat(r.InputCostPerToken),
			OutputCostPerToken:         coerceFloat(r.OutputCostPerToken),
			InputCostPerTokenAbove200k: coerceFloat(r.InputCostPerTokenAbove200k),
			OutputCostPerTokenAbove200k: coerceFloat(r.OutputCostPerTokenAbove200k),
			MaxInputTokens:             coerceInt(r.MaxInputTokens),
			MaxOutputTokens:            coerceInt(r.MaxOutputTokens),
			InputCostPerImage:          coerceFloat(r.InputCostPerImage),
			OutputCostPerImage:         coerceFloat(r.OutputCostPerImage),
		}
		if !entry.hasBaseTokenCost() && !entry.hasImageCost() {
			continue
		}
		catalog[name] = entry
	}
	return catalog, nil
}

// CalculateCost resolves (model, inputTokens, outputTokens) against the
// current catalog. Returns (Cost{}, false) when the model is unknown —
// callers resolve this to a zero-cost, still-successful completion per
// spec.md §7's PricingUnavailable policy.
func (s *Service) CalculateCost(catalog Catalog, model string, inputTokens, outputTokens int) (Cost, bool) {
	entry, ok := lookup(catalog, model)
	if !ok {
		return Cost{}, false
	}

	inputCost, inputTiered := tieredCost(inputTokens, entry.InputCostPerToken, entry.InputCostPerTokenAbove200k)
	outputCost, outputTiered := tieredCost(outputTokens, entry.OutputCostPerToken, entry.OutputCostPerTokenAbove200k)

	return Cost{
		InputCost:     inputCost,
		OutputCost:    outputCost,
		TotalCost:     inputCost + outputCost,
		TieredApplied: inputTiered || outputTiered,
	}, true
}

// tieredCost applies spec.md §4.3's tiered-pricing rule: flat rate up to
// 200,000 tokens; above that, the excess is billed at aboveRate if one
// is configured for this entry. Exactly at the threshold, only the base
// rate applies (strict ">").
func tieredCost(tokens int, baseRate, aboveRate float64) (cost float64, tiered bool) {
	if tokens <= tieredThreshold || aboveRate <= 0 {
		return float64(tokens) * baseRate, false
	}
	base := float64(tieredThreshold) * baseRate
	above := float64(tokens-tieredThreshold) * aboveRate
	return base + above, true
}

// FormatCost applies spec.md §4.3's decimal-precision rule: < 0.01 → 6
// decimals, < 1 → 4 decimals, else 2 decimals, prefixed with "$".
func FormatCost(cost float64) string {
	switch {
	case cost < 0.01:
		return fmt.Sprintf("$%.6f", cost)
	case cost < 1:
		return fmt.Sprintf("$%.4f", cost)
	default:
		return fmt.Sprintf("$%.2f", cost)
	}
}
