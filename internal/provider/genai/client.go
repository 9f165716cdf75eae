package genai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	googleai "google.golang.org/genai"
)

// Config holds the configuration for the Gemini backend
type Config struct {
	// BaseURL overrides the SDK endpoint, empty keeps generativelanguage.googleapis.com
	BaseURL      string
	APIKey       string
	Model        string
	Timeout      time.Duration
	RetryCount   int
	RetryBackoff time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		Model:        "gemini-2.0-flash",
		Timeout:      60 * time.Second,
		RetryCount:   2,
		RetryBackoff: time.Second,
	}
}

// Generator is the slice of the SDK models service the client needs.
// *googleai.Models satisfies it.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*googleai.Content, config *googleai.GenerateContentConfig) (*googleai.GenerateContentResponse, error)
}

// Client wraps the SDK with retries and response checks
type Client struct {
	generator Generator
	config    Config
}

// NewClient builds an SDK client for the Gemini API
func NewClient(ctx context.Context, config Config) (*Client, error) {
	config = withDefaults(config)
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	timeout := config.Timeout
	sdk, err := googleai.NewClient(ctx, &googleai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: googleai.BackendGeminiAPI,
		HTTPOptions: googleai.HTTPOptions{
			BaseURL: config.BaseURL,
			Timeout: &timeout,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return NewClientWithGenerator(sdk.Models, config), nil
}

// NewClientWithGenerator creates a client over any Generator (useful for testing)
func NewClientWithGenerator(generator Generator, config Config) *Client {
	return &Client{
		generator: generator,
		config:    withDefaults(config),
	}
}

func withDefaults(config Config) Config {
	defaults := DefaultConfig()
	if config.Model == "" {
		config.Model = defaults.Model
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = defaults.RetryBackoff
	}
	return config
}

// GenerateContent sends one user turn and returns the first usable candidate
func (c *Client) GenerateContent(ctx context.Context, parts []*googleai.Part, genConfig *googleai.GenerateContentConfig) (*googleai.Candidate, error) {
	contents := []*googleai.Content{googleai.NewContentFromParts(parts, googleai.RoleUser)}

	resp, err := c.generateWithRetry(ctx, contents, genConfig)
	if err != nil {
		return nil, err
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("%w: %s", ErrContentBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrEmptyCandidates
	}
	return resp.Candidates[0], nil
}

// maxBackoff is the maximum backoff duration for retries
const maxBackoff = 30 * time.Second

// calculateBackoff doubles base per attempt: base, 2*base, 4*base... up to maxBackoff
func calculateBackoff(base time.Duration, attempt int) time.Duration {
	if attempt <= 1 {
		return base
	}
	backoff := base
	for i := 1; i < attempt && i < 6; i++ {
		backoff *= 2
	}
	if backoff > maxBackoff {
		return maxBackoff
	}
	return backoff
}

// generateWithRetry retries 429 and 5xx answers; the SDK itself does not retry generateContent
func (c *Client) generateWithRetry(ctx context.Context, contents []*googleai.Content, genConfig *googleai.GenerateContentConfig) (*googleai.GenerateContentResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.RetryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(calculateBackoff(c.config.RetryBackoff, attempt)):
			}
		}

		resp, err := c.generator.GenerateContent(ctx, c.config.Model, contents, genConfig)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		// Don't retry on context errors
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		// 4xx (except 429) will not get better by retrying
		if !isRetryable(err) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

func isRetryable(err error) bool {
	code, ok := statusCode(err)
	if !ok {
		return true
	}
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// statusCode extracts the HTTP status of an SDK APIError
func statusCode(err error) (int, bool) {
	var apiErr googleai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *googleai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	return 0, false
}
