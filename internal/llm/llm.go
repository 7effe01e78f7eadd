// Package llm provides the text-generation clients used by the analyzer.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"researchpub/internal/config"
	"researchpub/internal/retry"
)

// ErrEmptyResponse is returned when a provider answers with no text.
var ErrEmptyResponse = errors.New("empty response from model")

// ErrMissingAPIKey is returned when a provider is selected without credentials.
var ErrMissingAPIKey = errors.New("llm API key is not configured")

// Options override the client defaults for a single call. A nil Temperature
// or a zero MaxTokens keeps the client default.
type Options struct {
	Temperature *float32
	MaxTokens   int32
}

// Temp returns a per-call temperature override. Temp(0) asks for greedy sampling.
func Temp(v float32) *float32 {
	return &v
}

// Generator produces text from a system and a user prompt.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error) {
	return f(ctx, systemPrompt, userPrompt, opts)
}

// Settings are the provider-independent client settings.
type Settings struct {
	Model       string
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	Temperature float32
	MaxTokens   int32
	TopP        float32
	Retry       retry.Policy
}

// SettingsFromConfig maps the llm config section onto client settings.
func SettingsFromConfig(cfg config.LLM) Settings {
	return Settings{
		Model:       cfg.Model,
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Timeout:     cfg.APITimeout,
		Temperature: cfg.GenerationParams.Temperature,
		MaxTokens:   cfg.GenerationParams.MaxTokens,
		TopP:        cfg.GenerationParams.TopP,
		Retry:       retry.DefaultPolicy(cfg.MaxRetries),
	}
}

func (s Settings) resolve(opts Options) (float32, int32) {
	temp, maxTokens := s.Temperature, s.MaxTokens
	if opts.Temperature != nil {
		temp = *opts.Temperature
	}
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}
	return temp, maxTokens
}

// New builds the configured provider client, wrapped with the response cache
// when cache is non-nil and caching is enabled.
func New(ctx context.Context, cfg config.LLM, cache Cache) (Generator, error) {
	settings := SettingsFromConfig(cfg)
	limiter := NewRateLimiter(cfg.RateLimiting.RequestsPerMinute)

	var (
		gen Generator
		err error
	)
	switch strings.ToLower(cfg.Provider) {
	case "gemini":
		gen, err = NewGeminiClient(ctx, settings, limiter)
	case "perplexity", "openai", "":
		gen, err = NewOpenAIClient(settings, limiter)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cache != nil && cfg.Cache.Enabled {
		gen = NewCachedGenerator(gen, cache, cfg.Model)
	}
	return gen, nil
}
