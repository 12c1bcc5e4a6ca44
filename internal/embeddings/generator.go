package embeddings

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/threadline-ai/recall/internal/metrics"
	"github.com/threadline-ai/recall/internal/model"
)

// GeneratorConfig bounds the per-facet retry policy and call timeout.
type GeneratorConfig struct {
	MaxAttempts    int           // total attempts per facet, >= 1
	InitialBackoff time.Duration // first retry delay
	MaxBackoff     time.Duration // backoff ceiling
	CallTimeout    time.Duration // per-attempt timeout
}

func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		MaxAttempts:    3,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		CallTimeout:    30 * time.Second,
	}
}

// Generator produces all seven named vectors for a record. The seven facet
// embeddings are issued concurrently and joined with fail-if-any-fails
// semantics: either a complete vector set is returned or nothing is.
type Generator struct {
	provider Provider
	cfg      GeneratorConfig
	log      zerolog.Logger
}

func NewGenerator(p Provider, cfg GeneratorConfig, log zerolog.Logger) *Generator {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 30 * time.Second
	}
	return &Generator{provider: p, cfg: cfg, log: log.With().Str("component", "embedding_generator").Logger()}
}

// Generate returns the complete named-vector set for rec, or
// model.ErrEmbeddingGeneration once any facet exhausts its retries. Partial
// results are discarded, never returned.
func (g *Generator) Generate(ctx context.Context, rec *model.MemoryRecord, sig Signals) (model.NamedVectors, error) {
	texts := facetTexts(rec, sig)
	names := model.VectorNames()

	results := make([][]float32, len(names))
	eg, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		eg.Go(func() error {
			vec, err := g.embedWithRetry(gctx, texts[name])
			if err != nil {
				return fmt.Errorf("%w: facet %q: %v", model.ErrEmbeddingGeneration, name, err)
			}
			results[i] = vec
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		g.log.Warn().Err(err).Str("recordId", rec.ID).Msg("embedding fan-out failed; discarding partial vectors")
		return nil, err
	}

	out := make(model.NamedVectors, len(names))
	for i, name := range names {
		out[name] = results[i]
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrEmbeddingGeneration, err)
	}
	return out, nil
}

// embedWithRetry runs one facet embedding with exponential backoff bounded
// by the attempt ceiling.
func (g *Generator) embedWithRetry(ctx context.Context, text string) ([]float32, error) {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = g.cfg.InitialBackoff
	expo.MaxInterval = g.cfg.MaxBackoff

	attempt := 0
	op := func() ([]float32, error) {
		attempt++
		if attempt > 1 {
			metrics.EmbeddingRetries.Inc()
		}
		callCtx, cancel := context.WithTimeout(ctx, g.cfg.CallTimeout)
		defer cancel()
		return g.provider.Embed(callCtx, text)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(g.cfg.MaxAttempts-1)), ctx)
	return backoff.RetryWithData(op, policy)
}
