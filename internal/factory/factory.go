// Package factory builds the engine's components from configuration.
package factory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/threadline-ai/recall/internal/config"
	"github.com/threadline-ai/recall/internal/embeddings"
	"github.com/threadline-ai/recall/internal/embeddings/ollama"
	"github.com/threadline-ai/recall/internal/emotion"
	"github.com/threadline-ai/recall/internal/lifecycle"
	"github.com/threadline-ai/recall/internal/retrieval"
	"github.com/threadline-ai/recall/internal/service"
	"github.com/threadline-ai/recall/internal/temporal"
	"github.com/threadline-ai/recall/internal/vectorstore"
)

// NewVectorStore bootstraps the schema and returns the store adapter.
func NewVectorStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (vectorstore.Store, error) {
	if err := vectorstore.Bootstrap(ctx, cfg.VectorStoreURL); err != nil {
		return nil, err
	}
	return vectorstore.NewWeaviateStore(cfg.VectorStoreURL, log)
}

// NewEmbeddingProvider selects the embedding backend. Only ollama is
// supported today; the switch keeps the seam where new providers land.
func NewEmbeddingProvider(cfg *config.Config) (embeddings.Provider, error) {
	switch strings.ToLower(cfg.EmbedProvider) {
	case "ollama", "":
		return ollama.New(cfg.OllamaURL, cfg.EmbedModel), nil
	default:
		return nil, fmt.Errorf("unsupported embed provider %q", cfg.EmbedProvider)
	}
}

// NewGenerator wires the provider into the seven-facet generator with the
// configured retry policy.
func NewGenerator(cfg *config.Config, provider embeddings.Provider, log zerolog.Logger) *embeddings.Generator {
	gcfg := embeddings.DefaultGeneratorConfig()
	gcfg.MaxAttempts = cfg.EmbedMaxAttempts
	gcfg.CallTimeout = time.Duration(cfg.EmbedTimeoutSeconds) * time.Second
	return embeddings.NewGenerator(provider, gcfg, log)
}

// NewResolver builds the emotion resolver over the HTTP classifier.
func NewResolver(cfg *config.Config, log zerolog.Logger) *emotion.Resolver {
	classifier := emotion.NewHTTPClassifier(cfg.ClassifierURL)
	return emotion.NewResolver(classifier, cfg.DefaultEmotionIntensity, log)
}

// NewJournal opens the sweep journal, or returns nil when disabled.
func NewJournal(cfg *config.Config) (*lifecycle.Journal, error) {
	if cfg.SweepJournalPath == "" {
		return nil, nil
	}
	return lifecycle.OpenJournal(cfg.SweepJournalPath)
}

// SweepTenants parses the configured comma-separated tenant list.
func SweepTenants(cfg *config.Config) []string {
	var out []string
	for _, t := range strings.Split(cfg.SweepTenants, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// NewMemoryService assembles the full service graph over an existing store
// and provider.
func NewMemoryService(
	cfg *config.Config,
	store vectorstore.Store,
	provider embeddings.Provider,
	journal *lifecycle.Journal,
	log zerolog.Logger,
) *service.MemoryService {
	gen := NewGenerator(cfg, provider, log)
	res := NewResolver(cfg, log)
	planner := temporal.NewPlanner(cfg.SessionWindow(), cfg.DayWindow())
	retr := retrieval.NewOrchestrator(store, planner, provider, res, log)
	sweeper := lifecycle.NewSweeper(store, journal, log, cfg.SweepPageSize)
	return service.NewMemoryService(store, gen, res, retr, sweeper, journal, log)
}
