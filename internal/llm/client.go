package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// ErrExhausted is returned after every attempt against the generation
// endpoint has failed. Callers map it to a gateway error instead of
// re-running anything themselves.
var ErrExhausted = errors.New("generation attempts exhausted")

const (
	maxAttempts    = 6
	defaultTimeout = 75 * time.Second
)

// Message is a single role/content entry sent to the chat completions
// endpoint. Role is "system" or "user".
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Config holds the connection settings for the remote generation endpoint.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	// RetryBaseDelay is the first backoff interval; each retry doubles it.
	// Production uses 1s, tests shrink it.
	RetryBaseDelay time.Duration
	// Timeout bounds a single attempt. A timed-out attempt counts toward
	// the retry budget like any other failure.
	Timeout time.Duration
}

// Client calls an OpenAI-compatible chat completions endpoint with bounded
// retries and exponential backoff.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a generation client with the given configuration.
func NewClient(cfg Config) *Client {
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// NewClientFromEnv creates a generation client from LLM_* environment
// variables.
func NewClientFromEnv() *Client {
	base := time.Second
	if raw := os.Getenv("LLM_RETRY_BASE_DELAY"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			base = parsed
		}
	}
	return NewClient(Config{
		BaseURL:        getEnv("LLM_BASE_URL", "https://api.openai.com"),
		APIKey:         os.Getenv("LLM_API_KEY"),
		Model:          getEnv("LLM_MODEL", "gpt-4o-mini"),
		RetryBaseDelay: base,
	})
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends the messages to the generation endpoint and returns the
// first non-empty completion. Transport failures, non-success statuses,
// timeouts and empty completions are retried up to 6 attempts with
// exponential backoff (base * 2^(attempt-1)); there is no sleep after the
// final attempt.
func (c *Client) Complete(ctx context.Context, messages []Message, maxTokens int, temperature float64) (string, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.RetryBaseDelay
	bo.RandomizationFactor = 0
	bo.Multiplier = 2
	bo.MaxInterval = c.cfg.RetryBaseDelay * 32
	bo.MaxElapsedTime = 0

	attempt := 0
	var content string
	operation := func() error {
		attempt++
		text, err := c.complete(ctx, messages, maxTokens, temperature)
		if err != nil {
			logrus.Warnf("Generation attempt %d/%d failed: %v", attempt, maxAttempts, err)
			return err
		}
		content = text
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, maxAttempts-1), ctx))
	if err != nil {
		return "", fmt.Errorf("%w after %d attempts: %v", ErrExhausted, attempt, err)
	}
	return content, nil
}

func (c *Client) complete(ctx context.Context, messages []Message, maxTokens int, temperature float64) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.cfg.BaseURL + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("endpoint returned status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("endpoint error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", errors.New("empty completion")
	}
	return parsed.Choices[0].Message.Content, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// getEnv gets environment variable with fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
