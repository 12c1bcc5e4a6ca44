// Package retrieval decides what memory to load for a turn, merging the
// temporal and semantic strategies.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/threadline-ai/recall/internal/embeddings"
	"github.com/threadline-ai/recall/internal/emotion"
	"github.com/threadline-ai/recall/internal/lifecycle"
	"github.com/threadline-ai/recall/internal/metrics"
	"github.com/threadline-ai/recall/internal/model"
	"github.com/threadline-ai/recall/internal/temporal"
	"github.com/threadline-ai/recall/internal/vectorstore"
)

const defaultLimit = 10

// Orchestrator is the read-side entry point. Every returned record passes
// through the emotion resolver so stale or contaminated stored labels never
// reach the caller.
type Orchestrator struct {
	store    vectorstore.Store
	planner  *temporal.Planner
	embedder embeddings.Provider
	resolver *emotion.Resolver
	log      zerolog.Logger

	now func() time.Time
}

func NewOrchestrator(store vectorstore.Store, planner *temporal.Planner, embedder embeddings.Provider, resolver *emotion.Resolver, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		store:    store,
		planner:  planner,
		embedder: embedder,
		resolver: resolver,
		log:      log,
		now:      time.Now,
	}
}

// WithClock overrides the orchestrator clock; tests only.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// RetrieveContext answers "what memory should I load for this turn".
//
// Temporal queries scroll chronologically and never touch similarity search.
// Everything else embeds the query once and ranks by content-vector
// nearness. A store outage degrades reads to an empty set rather than
// failing the turn.
func (o *Orchestrator) RetrieveContext(ctx context.Context, tenant, user, query string, limit int) ([]model.ScoredRecord, error) {
	if tenant == "" || user == "" {
		return nil, fmt.Errorf("%w: retrieval without tenant/user identity", model.ErrIsolationViolation)
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	plan := o.planner.Plan(query, limit)
	if plan.Temporal {
		metrics.RetrievalRequests.WithLabelValues("temporal").Inc()
		return o.temporalPath(ctx, tenant, user, plan)
	}
	metrics.RetrievalRequests.WithLabelValues("semantic").Inc()
	return o.semanticPath(ctx, tenant, user, query, limit)
}

func (o *Orchestrator) temporalPath(ctx context.Context, tenant, user string, plan temporal.Plan) ([]model.ScoredRecord, error) {
	after := o.now().Add(-plan.Window)
	f := vectorstore.Filters{Tenant: tenant, User: user, After: &after}

	recs, err := o.store.ReadByFilter(ctx, f, plan.Direction, plan.Limit)
	if err != nil {
		return o.degradeOrFail(err, tenant, user)
	}

	out := make([]model.ScoredRecord, 0, len(recs))
	seen := make(map[string]bool, len(recs))
	for _, rec := range recs {
		if seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true
		rank := len(out) + 1
		out = append(out, model.ScoredRecord{
			Record:       rec,
			TemporalRank: &rank,
			Emotion:      o.resolver.ResolveStored(&rec),
		})
	}
	return out, nil
}

func (o *Orchestrator) semanticPath(ctx context.Context, tenant, user, query string, limit int) ([]model.ScoredRecord, error) {
	vec, err := o.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: query embedding: %v", model.ErrEmbeddingGeneration, err)
	}

	f := vectorstore.Filters{Tenant: tenant, User: user}
	hits, err := o.store.SimilaritySearch(ctx, f, model.VectorContent, vec, limit)
	if err != nil {
		return o.degradeOrFail(err, tenant, user)
	}

	// Score ties are broken by significance, then intensity, then recency.
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return lifecycle.MoreSignificant(&hits[i].Record, &hits[j].Record)
	})

	out := make([]model.ScoredRecord, 0, len(hits))
	seen := make(map[string]bool, len(hits))
	for _, hit := range hits {
		if seen[hit.Record.ID] {
			continue
		}
		seen[hit.Record.ID] = true
		score := hit.Score
		out = append(out, model.ScoredRecord{
			Record:          hit.Record,
			SimilarityScore: &score,
			Emotion:         o.resolver.ResolveStored(&hit.Record),
		})
	}
	return out, nil
}

// GetRecentHistory returns the user's records inside the window, oldest
// first. includeExpired widens the read to expired records for rank audits;
// default history excludes them.
func (o *Orchestrator) GetRecentHistory(ctx context.Context, tenant, user string, window time.Duration, limit int, includeExpired bool) ([]model.MemoryRecord, error) {
	if tenant == "" || user == "" {
		return nil, fmt.Errorf("%w: history without tenant/user identity", model.ErrIsolationViolation)
	}
	if window <= 0 {
		window = 24 * time.Hour
	}
	if limit <= 0 {
		limit = 100
	}

	after := o.now().Add(-window)
	f := vectorstore.Filters{Tenant: tenant, User: user, After: &after, IncludeExpired: includeExpired}
	recs, err := o.store.ReadByFilter(ctx, f, vectorstore.OrderAsc, limit)
	if err != nil {
		if _, derr := o.degradeOrFail(err, tenant, user); derr != nil {
			return nil, derr
		}
		return []model.MemoryRecord{}, nil
	}
	return recs, nil
}

// degradeOrFail converts a store outage into an empty result set. Memory is
// an enhancement to the conversation, not a hard dependency of it.
func (o *Orchestrator) degradeOrFail(err error, tenant, user string) ([]model.ScoredRecord, error) {
	if errors.Is(err, model.ErrStoreUnavailable) {
		o.log.Warn().Err(err).
			Str("tenant", tenant).
			Str("user", user).
			Msg("vector store unavailable, degrading to empty memory set")
		return []model.ScoredRecord{}, nil
	}
	return nil, err
}
