package groq

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

const defaultBaseURL = "https://api.groq.com/openai/v1"

// Client wraps the Groq API client
type Client struct {
	apiKey      string
	baseURL     string
	modelName   string
	httpClient  *http.Client
	logger      *zap.Logger
	maxRetries  int
	retryDelay  time.Duration
	temperature float32
	maxTokens   int
}

// Config for Groq client
type Config struct {
	APIKey      string
	BaseURL     string
	ModelName   string // Default: "llama-3.3-70b-versatile"
	MaxRetries  int
	RetryDelay  time.Duration
	Timeout     time.Duration
	Temperature float32
	MaxTokens   int
}

// groqRequest represents the request to Groq API
type groqRequest struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float32       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// groqResponse represents the response from Groq API
type groqResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// NewClient creates a new Groq client
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("groq API key is required")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	if cfg.ModelName == "" {
		cfg.ModelName = "llama-3.3-70b-versatile"
	}

	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
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

	logger.Info("Groq client initialized",
		zap.String("model", cfg.ModelName),
		zap.Int("max_retries", cfg.MaxRetries))

	return &Client{
		apiKey:      cfg.APIKey,
		baseURL:     cfg.BaseURL,
		modelName:   cfg.ModelName,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		logger:      logger,
		maxRetries:  cfg.MaxRetries,
		retryDelay:  cfg.RetryDelay,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Close closes the Groq client
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// Generate returns the model's completion for the prompt
func (c *Client) Generate(ctx context.Context, userPrompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("Retrying Groq request",
				zap.Int("attempt", attempt+1),
				zap.Int("max_retries", c.maxRetries))
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		text, err := c.generateOnce(ctx, userPrompt)
		if err != nil {
			lastErr = err
			c.logger.Error("Groq API error", zap.Error(err), zap.Int("attempt", attempt+1))
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			continue
		}

		c.logger.Debug("Generated text with Groq",
			zap.Int("length", len(text)),
			zap.Int("attempt", attempt+1))
		return text, nil
	}

	return "", fmt.Errorf("failed after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *Client) generateOnce(ctx context.Context, userPrompt string) (string, error) {
	reqBody := groqRequest{
		Model: c.modelName,
		Messages: []groqMessage{
			{Role: "system", Content: prompt.SystemInstruction},
			{Role: "user", Content: userPrompt},
		},
		Stream:      false,
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
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("groq API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("groq API returned status %d: %s", resp.StatusCode, string(body))
	}

	var groqResp groqResponse
	if err := json.Unmarshal(body, &groqResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(groqResp.Choices) == 0 {
		return "", fmt.Errorf("empty response from groq")
	}

	return prompt.StripCodeFence(groqResp.Choices[0].Message.Content), nil
}

// GetModelInfo returns model information
func (c *Client) GetModelInfo() map[string]interface{} {
	return map[string]interface{}{
		"provider":    "groq",
		"model":       c.modelName,
		"max_retries": c.maxRetries,
		"retry_delay": c.retryDelay.String(),
	}
}
