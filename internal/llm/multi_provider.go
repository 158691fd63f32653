package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"decision-service/internal/gemini"
	"decision-service/internal/groq"
	"decision-service/internal/openrouter"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ProviderType represents the type of LLM provider
type ProviderType string

const (
	ProviderGemini     ProviderType = "gemini"
	ProviderGroq       ProviderType = "groq"
	ProviderOpenRouter ProviderType = "openrouter"
)

// ErrAllProvidersFailed is returned when every configured provider failed for one request.
var ErrAllProvidersFailed = errors.New("all providers failed")

// ProviderConfig holds configuration for a single provider instance
type ProviderConfig struct {
	Type        ProviderType  `yaml:"type"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	ModelName   string        `yaml:"model_name"`
	MaxRetries  int           `yaml:"max_retries"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
	Timeout     time.Duration `yaml:"timeout"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	// Rate limiting per provider
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

// Provider is a black-box text generator
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Close() error
	GetModelInfo() map[string]interface{}
}

// RateLimitedProvider wraps a provider with rate limiting
type RateLimitedProvider struct {
	provider Provider
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// NewRateLimitedProvider wraps a provider with a token bucket refilled at
// requestsPerMinute and starting full.
func NewRateLimitedProvider(provider Provider, requestsPerMinute int, logger *zap.Logger) *RateLimitedProvider {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 8
	}
	return &RateLimitedProvider{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), requestsPerMinute),
		logger:   logger,
	}
}

func (p *RateLimitedProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait cancelled: %w", err)
	}
	return p.provider.Generate(ctx, prompt)
}

func (p *RateLimitedProvider) Close() error {
	return p.provider.Close()
}

func (p *RateLimitedProvider) GetModelInfo() map[string]interface{} {
	return p.provider.GetModelInfo()
}

// MultiProviderClient manages multiple LLM providers with fallback
type MultiProviderClient struct {
	providers    []*RateLimitedProvider
	currentIndex int
	mu           sync.RWMutex
	logger       *zap.Logger
	failureCount map[int]int
	maxFailures  int
}

// MultiProviderConfig holds configuration for multiple providers
type MultiProviderConfig struct {
	Providers   []ProviderConfig
	MaxFailures int // Max consecutive failures before switching provider
}

// NewMultiProviderClient creates a new multi-provider client
func NewMultiProviderClient(cfg MultiProviderConfig, logger *zap.Logger) (*MultiProviderClient, error) {
	if len(cfg.Providers) == 0 {
		return nil, fmt.Errorf("at least one provider is required")
	}

	providers := make([]Provider, 0, len(cfg.Providers))
	limits := make([]int, 0, len(cfg.Providers))

	for i, providerCfg := range cfg.Providers {
		provider, err := newProvider(providerCfg, logger)
		if err != nil {
			logger.Error("Failed to create provider",
				zap.String("type", string(providerCfg.Type)),
				zap.Int("index", i),
				zap.Error(err))
			continue
		}

		providers = append(providers, provider)
		limits = append(limits, providerCfg.RequestsPerMinute)

		logger.Info("Provider initialized",
			zap.String("type", string(providerCfg.Type)),
			zap.String("model", providerCfg.ModelName),
			zap.Int("rate_limit", providerCfg.RequestsPerMinute),
			zap.Int("index", i))
	}

	if len(providers) == 0 {
		return nil, fmt.Errorf("no providers could be initialized")
	}

	return NewMultiProviderClientFrom(providers, limits, cfg.MaxFailures, logger), nil
}

// NewMultiProviderClientFrom builds a client over already constructed
// providers. limits[i] is the requests-per-minute budget of providers[i].
func NewMultiProviderClientFrom(providers []Provider, limits []int, maxFailures int, logger *zap.Logger) *MultiProviderClient {
	if maxFailures <= 0 {
		maxFailures = 3
	}
	wrapped := make([]*RateLimitedProvider, len(providers))
	for i, p := range providers {
		limit := 0
		if i < len(limits) {
			limit = limits[i]
		}
		wrapped[i] = NewRateLimitedProvider(p, limit, logger)
	}
	return &MultiProviderClient{
		providers:    wrapped,
		logger:       logger,
		failureCount: make(map[int]int),
		maxFailures:  maxFailures,
	}
}

func newProvider(cfg ProviderConfig, logger *zap.Logger) (Provider, error) {
	switch cfg.Type {
	case ProviderGemini:
		return gemini.NewClient(gemini.Config{
			APIKey:      cfg.APIKey,
			ModelName:   cfg.ModelName,
			MaxRetries:  cfg.MaxRetries,
			RetryDelay:  cfg.RetryDelay,
			Temperature: float32(cfg.Temperature),
			MaxTokens:   int32(cfg.MaxTokens),
		}, logger)
	case ProviderGroq:
		return groq.NewClient(groq.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			ModelName:   cfg.ModelName,
			MaxRetries:  cfg.MaxRetries,
			RetryDelay:  cfg.RetryDelay,
			Timeout:     cfg.Timeout,
			Temperature: float32(cfg.Temperature),
			MaxTokens:   cfg.MaxTokens,
		}, logger)
	case ProviderOpenRouter:
		return openrouter.NewClient(openrouter.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			ModelName:   cfg.ModelName,
			MaxRetries:  cfg.MaxRetries,
			RetryDelay:  cfg.RetryDelay,
			Timeout:     cfg.Timeout,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown provider type %q", cfg.Type)
	}
}

// getCurrentProvider returns the current provider and its index
func (c *MultiProviderClient) getCurrentProvider() (*RateLimitedProvider, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.providers[c.currentIndex], c.currentIndex
}

// switchToNextProvider switches to the next available provider
func (c *MultiProviderClient) switchToNextProvider() {
	c.mu.Lock()
	defer c.mu.Unlock()

	oldIndex := c.currentIndex
	c.currentIndex = (c.currentIndex + 1) % len(c.providers)

	c.logger.Info("Switching provider",
		zap.Int("from_index", oldIndex),
		zap.Int("to_index", c.currentIndex),
		zap.Int("total_providers", len(c.providers)))
}

// recordFailure records a failure and reports whether the provider hit maxFailures
func (c *MultiProviderClient) recordFailure(providerIndex int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.failureCount[providerIndex]++

	if c.failureCount[providerIndex] >= c.maxFailures {
		c.logger.Warn("Provider reached max failures",
			zap.Int("provider_index", providerIndex),
			zap.Int("failures", c.failureCount[providerIndex]))
		c.failureCount[providerIndex] = 0
		return true
	}

	return false
}

func (c *MultiProviderClient) resetFailureCount(providerIndex int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failureCount[providerIndex] = 0
}

// Generate makes up to one attempt per configured provider. A failing provider
// is retried until it reaches maxFailures in a row; a rate limit error moves
// to the next provider at once.
func (c *MultiProviderClient) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempts := 0; attempts < len(c.providers); attempts++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		provider, providerIndex := c.getCurrentProvider()

		c.logger.Debug("Attempting generation",
			zap.Int("provider_index", providerIndex),
			zap.Int("attempt", attempts+1))

		text, err := provider.Generate(ctx, prompt)
		if err == nil {
			c.resetFailureCount(providerIndex)
			return text, nil
		}
		lastErr = err

		c.logger.Error("Provider failed",
			zap.Int("provider_index", providerIndex),
			zap.Error(err))

		// Switch after maxFailures in a row or immediately on a rate limit error
		shouldSwitch := c.recordFailure(providerIndex)
		if shouldSwitch || isRateLimitError(err) {
			c.switchToNextProvider()
		}
	}

	return "", fmt.Errorf("%w: %v", ErrAllProvidersFailed, lastErr)
}

// isRateLimitError checks if error is a rate limit error
func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "rate limit")
}

// Close closes all providers
func (c *MultiProviderClient) Close() error {
	var lastErr error
	for i, provider := range c.providers {
		if err := provider.Close(); err != nil {
			c.logger.Error("Failed to close provider",
				zap.Int("index", i),
				zap.Error(err))
			lastErr = err
		}
	}
	return lastErr
}

// GetModelInfo returns information about the current provider
func (c *MultiProviderClient) GetModelInfo() map[string]interface{} {
	provider, index := c.getCurrentProvider()
	info := provider.GetModelInfo()

	c.mu.RLock()
	defer c.mu.RUnlock()
	info["provider_index"] = index
	info["total_providers"] = len(c.providers)
	info["failure_count"] = c.failureCount[index]
	return info
}
