package genai

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"nextvideo/internal/apperr"
	"nextvideo/internal/metrics"
)

// Chain tries its generators in order and returns the first answer. There is
// no retry beyond moving to the next generator.
type Chain struct {
	gens []Generator
	log  zerolog.Logger
}

// NewChain keeps the non-nil generators in the order given.
func NewChain(log zerolog.Logger, gens ...Generator) *Chain {
	c := &Chain{log: log}
	for _, g := range gens {
		if g != nil {
			c.gens = append(c.gens, g)
		}
	}
	return c
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) Len() int { return len(c.gens) }

func (c *Chain) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for i, g := range c.gens {
		if err := ctx.Err(); err != nil {
			return "", apperr.Unavailable("generate", err)
		}
		text, err := g.Generate(ctx, prompt)
		if err == nil {
			metrics.GenerationCalls.WithLabelValues(g.Name(), "ok").Inc()
			return text, nil
		}
		metrics.GenerationCalls.WithLabelValues(g.Name(), "error").Inc()
		lastErr = err
		if i < len(c.gens)-1 {
			c.log.Warn().Err(err).Str("provider", g.Name()).Str("next", c.gens[i+1].Name()).Msg("genai: provider failed, falling back")
		} else {
			c.log.Error().Err(err).Str("provider", g.Name()).Msg("genai: provider failed")
		}
	}
	if lastErr != nil {
		return "", &apperr.Error{
			Kind:    apperr.KindUnavailable,
			Stage:   "generate",
			Message: apperr.ErrNoGenerator.Error(),
			Err:     fmt.Errorf("%w: %w", apperr.ErrNoGenerator, lastErr),
		}
	}
	return "", &apperr.Error{
		Kind:    apperr.KindUnavailable,
		Stage:   "generate",
		Message: apperr.ErrNoGenerator.Error(),
		Err:     apperr.ErrNoGenerator,
	}
}
