package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"researchpub/internal/logger"

	"github.com/rs/zerolog"
)

// Cache stores generated responses keyed by a content hash.
type Cache interface {
	GetLLMResponse(ctx context.Context, key string) (string, bool, error)
	PutLLMResponse(ctx context.Context, key, model, response string) error
}

// CachedGenerator serves repeated prompts from a Cache. Cache failures are
// logged and never fail a generation.
type CachedGenerator struct {
	next  Generator
	cache Cache
	model string
	log   zerolog.Logger
}

var _ Generator = (*CachedGenerator)(nil)

// NewCachedGenerator wraps next with cache lookups.
func NewCachedGenerator(next Generator, cache Cache, model string) *CachedGenerator {
	return &CachedGenerator{
		next:  next,
		cache: cache,
		model: model,
		log:   logger.Component("llm.cache"),
	}
}

// CacheKey hashes everything that influences a response.
func CacheKey(model, systemPrompt, userPrompt string, opts Options) string {
	temp := "default"
	if opts.Temperature != nil {
		temp = strconv.FormatFloat(float64(*opts.Temperature), 'g', -1, 32)
	}
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s\x00%d", model, systemPrompt, userPrompt, temp, opts.MaxTokens)
	return hex.EncodeToString(h.Sum(nil))
}

// Generate returns a cached response when present, otherwise delegates and stores the result.
func (c *CachedGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error) {
	key := CacheKey(c.model, systemPrompt, userPrompt, opts)

	cached, ok, err := c.cache.GetLLMResponse(ctx, key)
	if err != nil {
		c.log.Warn().Err(err).Msg("Cache lookup failed")
	} else if ok {
		c.log.Debug().Str("key", key[:12]).Msg("Cache hit")
		return cached, nil
	}

	text, err := c.next.Generate(ctx, systemPrompt, userPrompt, opts)
	if err != nil {
		return "", err
	}

	if err := c.cache.PutLLMResponse(ctx, key, c.model, text); err != nil {
		c.log.Warn().Err(err).Msg("Cache write failed")
	}
	return text, nil
}
