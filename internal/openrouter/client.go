package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"decision-service/internal/prompt"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://openrouter.ai/api/v1"

// Client represents an OpenRouter API client.
type Client struct {
	apiKey      string
	baseURL     string
	modelName   string
	httpClient  *http.Client
	logger      *zap.Logger
	maxRetries  int
	retryDelay  time.Duration
	temperature float64
	maxTokens   int
}

// Config holds configuration for OpenRouter client.
type Config struct {
	APIKey      string
	BaseURL     string
	ModelName   string // e.g., "meta-llama/llama-3.3-70b-instruct:free"
	MaxRetries  int
	RetryDelay  time.Duration
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

// openRouterRequest represents the request structure for OpenRouter API.
type openRouterRequest struct {
	Model       string              `json:"model"`
	Messages    []openRouterMessage `json:"messages"`
	Temperature float64             `json:"temperature,omitempty"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
}

type openRouterMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// openRouterResponse represents the response structure from OpenRouter API.
type openRouterResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error,omitempty"`
}

// NewClient creates a new OpenRouter client.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	if cfg.ModelName == "" {
		cfg.ModelName = "meta-llama/llama-3.3-70b-instruct:free"
	}

	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}

	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	if cfg.Temperature == 0 {
		cfg.Temperature = 0.3
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 300
	}

	client := &Client{
		apiKey:      cfg.APIKey,
		baseURL:     cfg.BaseURL,
		modelName:   cfg.ModelName,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		logger:      logger,
		maxRetries:  cfg.MaxRetries,
		retryDelay:  cfg.RetryDelay,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}

	logger.Info("OpenRouter client initialized",
		zap.String("model", cfg.ModelName),
		zap.Int("max_retries", cfg.MaxRetries))

	return client, nil
}

// Generate sends the prompt to OpenRouter and returns the completion text.
func (c *Client) Generate(ctx context.Context, userPrompt string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		text, err := c.generateOnce(ctx, userPrompt, attempt)
		if err == nil {
			return text, nil
		}

		lastErr = err
		c.logger.Warn("OpenRouter API attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", c.maxRetries),
			zap.Error(err))

		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		if attempt < c.maxRetries {
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}

	return "", fmt.Errorf("failed after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *Client) generateOnce(ctx context.Context, userPrompt string, attempt int) (string, error) {
	reqBody := openRouterRequest{
		Model: c.modelName,
		Messages: []openRouterMessage{
			{Role: "system", Content: prompt.SystemInstruction},
			{Role: "user", Content: userPrompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HTTP-Referer", "https://orica.example.com")
	req.Header.Set("X-Title", "Orica")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openrouter API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("OpenRouter API error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
			zap.Int("attempt", attempt))
		return "", fmt.Errorf("openrouter API returned status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp openRouterResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if apiResp.Error != nil {
		return "", fmt.Errorf("openrouter API error: %s", apiResp.Error.Message)
	}

	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in openrouter response")
	}

	c.logger.Debug("Generated text with OpenRouter",
		zap.String("finish_reason", apiResp.Choices[0].FinishReason),
		zap.Int("attempt", attempt))

	return prompt.StripCodeFence(apiResp.Choices[0].Message.Content), nil
}

// Close closes the client and releases resources.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// GetModelInfo returns information about the model being used.
func (c *Client) GetModelInfo() map[string]interface{} {
	return map[string]interface{}{
		"provider": "openrouter",
		"model":    c.modelName,
		"base_url": c.baseURL,
	}
}
