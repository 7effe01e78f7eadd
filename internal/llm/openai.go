package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"researchpub/internal/logger"
	"researchpub/internal/retry"

	"github.com/rs/zerolog"
)

// DefaultPerplexityURL is the base URL used when none is configured.
const DefaultPerplexityURL = "https://api.perplexity.ai"

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint,
// Perplexity by default.
type OpenAIClient struct {
	settings   Settings
	endpoint   string
	httpClient *http.Client
	limiter    *RateLimiter
	log        zerolog.Logger
}

var _ Generator = (*OpenAIClient)(nil)

// NewOpenAIClient builds a client; the API key is required.
func NewOpenAIClient(settings Settings, limiter *RateLimiter) (*OpenAIClient, error) {
	if settings.APIKey == "" {
		return nil, fmt.Errorf("%w: set PERPLEXITY_API_KEY or llm.api_key", ErrMissingAPIKey)
	}
	base := strings.TrimRight(settings.BaseURL, "/")
	if base == "" {
		base = DefaultPerplexityURL
	}
	timeout := settings.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	c := &OpenAIClient{
		settings:   settings,
		endpoint:   base + "/chat/completions",
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		log:        logger.Component("llm.openai"),
	}
	c.log.Info().Str("model", settings.Model).Str("endpoint", c.endpoint).Msg("Initialized chat completions client")
	return c, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int32         `json:"max_tokens,omitempty"`
	TopP        float32       `json:"top_p,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate sends one chat completion, retrying transient failures with
// exponential backoff.
func (c *OpenAIClient) Generate(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error) {
	temp, maxTokens := c.settings.resolve(opts)

	messages := make([]chatMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userPrompt})

	body, err := json.Marshal(chatRequest{
		Model:       c.settings.Model,
		Messages:    messages,
		Temperature: temp,
		MaxTokens:   maxTokens,
		TopP:        c.settings.TopP,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	policy := c.settings.Retry
	policy.OnRetry = func(attempt int, wait time.Duration, err error) {
		c.log.Warn().Err(err).Int("attempt", attempt+1).Dur("backoff", wait).Msg("LLM request failed, retrying")
	}

	var text string
	err = retry.Do(ctx, policy, func(int) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return retry.Permanent(err)
		}
		var callErr error
		text, callErr = c.do(ctx, body)
		return retry.Classify(callErr)
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return text, nil
}

func (c *OpenAIClient) do(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("new request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.settings.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send chat request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", &retry.StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(payload))}
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", retry.Permanent(fmt.Errorf("decode chat response: %w", err))
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", retry.Permanent(ErrEmptyResponse)
	}
	return parsed.Choices[0].Message.Content, nil
}
