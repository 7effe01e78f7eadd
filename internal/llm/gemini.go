package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"researchpub/internal/logger"
	"researchpub/internal/retry"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// GeminiClient generates text with Google Gemini.
type GeminiClient struct {
	settings Settings
	gClient  *genai.Client
	limiter  *RateLimiter
	log      zerolog.Logger
}

var _ Generator = (*GeminiClient)(nil)

// NewGeminiClient creates a Gemini client; the API key is required.
func NewGeminiClient(ctx context.Context, settings Settings, limiter *RateLimiter) (*GeminiClient, error) {
	if settings.APIKey == "" {
		return nil, fmt.Errorf("%w: set GEMINI_API_KEY or llm.api_key", ErrMissingAPIKey)
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  settings.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if settings.BaseURL != "" {
		clientConfig.HTTPOptions.BaseURL = strings.TrimRight(settings.BaseURL, "/")
	}
	gClient, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &GeminiClient{
		settings: settings,
		gClient:  gClient,
		limiter:  limiter,
		log:      logger.Component("llm.gemini"),
	}
	c.log.Info().Str("model", settings.Model).Msg("Initialized Gemini client")
	return c, nil
}

// Generate runs one GenerateContent call with retry and rate limiting.
func (c *GeminiClient) Generate(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error) {
	temp, maxTokens := c.settings.resolve(opts)

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: userPrompt}},
		Role:  "user",
	}}

	genConfig := &genai.GenerateContentConfig{
		Temperature: &temp,
	}
	if maxTokens > 0 {
		genConfig.MaxOutputTokens = maxTokens
	}
	if c.settings.TopP > 0 {
		topP := c.settings.TopP
		genConfig.TopP = &topP
	}
	if systemPrompt != "" {
		genConfig.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}}
	}

	policy := c.settings.Retry
	policy.OnRetry = func(attempt int, wait time.Duration, err error) {
		c.log.Warn().Err(err).Int("attempt", attempt+1).Dur("backoff", wait).Msg("Gemini request failed, retrying")
	}

	var text string
	err := retry.Do(ctx, policy, func(int) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return retry.Permanent(err)
		}

		callCtx := ctx
		if c.settings.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, c.settings.Timeout)
			defer cancel()
		}

		resp, err := c.gClient.Models.GenerateContent(callCtx, c.settings.Model, contents, genConfig)
		if err != nil {
			return retry.Classify(classifyGeminiError(err))
		}
		text = resp.Text()
		if text == "" {
			return retry.Permanent(ErrEmptyResponse)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return text, nil
}

// classifyGeminiError maps an API error onto a retry.StatusError so that only
// 429 and 5xx responses are retried.
func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &retry.StatusError{Code: apiErr.Code, Body: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &retry.StatusError{Code: apiErrPtr.Code, Body: apiErrPtr.Message}
	}
	return err
}
