// Package service composes the engine's subsystems behind the operations the
// transport layer exposes.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/threadline-ai/recall/internal/embeddings"
	"github.com/threadline-ai/recall/internal/emotion"
	"github.com/threadline-ai/recall/internal/lifecycle"
	"github.com/threadline-ai/recall/internal/metrics"
	"github.com/threadline-ai/recall/internal/model"
	"github.com/threadline-ai/recall/internal/retrieval"
	"github.com/threadline-ai/recall/internal/vectorstore"
)

// StoreTurnRequest is one conversational turn to remember.
type StoreTurnRequest struct {
	TenantID   string
	UserID     string
	Content    string
	Role       model.Role
	Timestamp  time.Time // zero means "now"
	MemoryType string
	Metadata   map[string]interface{}
}

// StoreTurnResult reports the write outcome.
type StoreTurnResult struct {
	RecordID  string               `json:"recordId"`
	Duplicate bool                 `json:"duplicate"`
	Tier      model.Tier           `json:"tier"`
	Emotion   model.EmotionContext `json:"emotion"`
}

// MemoryService is the top-level facade over the write path, the read path
// and the on-demand sweep.
type MemoryService struct {
	store     vectorstore.Store
	generator *embeddings.Generator
	resolver  *emotion.Resolver
	retriever *retrieval.Orchestrator
	sweeper   *lifecycle.Sweeper
	journal   *lifecycle.Journal // nil when journaling is off
	log       zerolog.Logger

	now func() time.Time
}

func NewMemoryService(
	store vectorstore.Store,
	generator *embeddings.Generator,
	resolver *emotion.Resolver,
	retriever *retrieval.Orchestrator,
	sweeper *lifecycle.Sweeper,
	journal *lifecycle.Journal,
	log zerolog.Logger,
) *MemoryService {
	return &MemoryService{
		store:     store,
		generator: generator,
		resolver:  resolver,
		retriever: retriever,
		sweeper:   sweeper,
		journal:   journal,
		log:       log,
		now:       time.Now,
	}
}

// WithClock overrides the service clock; tests only.
func (s *MemoryService) WithClock(now func() time.Time) *MemoryService {
	s.now = now
	return s
}

// StoreTurn runs the full write path: resolve emotion, score significance,
// generate all seven facet vectors, persist. A record is stored with all
// seven vectors or not at all.
func (s *MemoryService) StoreTurn(ctx context.Context, req StoreTurnRequest) (StoreTurnResult, error) {
	if err := validateStoreTurn(req); err != nil {
		return StoreTurnResult{}, err
	}

	ts := req.Timestamp
	if ts.IsZero() {
		ts = s.now()
	}

	emo := s.resolver.Resolve(ctx, req.Content, req.Metadata)
	sig := lifecycle.SignificanceScore(req.Role, req.Content, emo.Intensity)

	memType := req.MemoryType
	if memType == "" {
		memType = "conversation"
	}

	rec := &model.MemoryRecord{
		TenantID:           req.TenantID,
		UserID:             req.UserID,
		Content:            req.Content,
		Role:               req.Role,
		Timestamp:          ts,
		MemoryType:         memType,
		EmotionalContext:   emo.Label,
		EmotionalIntensity: emo.Intensity,
		SignificanceScore:  sig,
		Tier:               model.TierWorking,
		Metadata:           req.Metadata,
	}

	vectors, err := s.generator.Generate(ctx, rec, embeddings.Signals{Emotion: emo})
	if err != nil {
		metrics.StoreWrites.WithLabelValues("error").Inc()
		return StoreTurnResult{}, err
	}
	rec.Vectors = vectors

	id, duplicate, err := s.store.Write(ctx, rec)
	if err != nil {
		metrics.StoreWrites.WithLabelValues("error").Inc()
		return StoreTurnResult{}, err
	}

	outcome := "stored"
	if duplicate {
		outcome = "duplicate"
	}
	metrics.StoreWrites.WithLabelValues(outcome).Inc()

	s.log.Debug().
		Str("tenant", req.TenantID).
		Str("user", req.UserID).
		Str("record_id", id).
		Bool("duplicate", duplicate).
		Str("emotion", emo.Label).
		Float64("significance", sig).
		Msg("turn stored")

	return StoreTurnResult{RecordID: id, Duplicate: duplicate, Tier: rec.Tier, Emotion: emo}, nil
}

// RetrieveContext delegates to the retrieval orchestrator.
func (s *MemoryService) RetrieveContext(ctx context.Context, tenant, user, query string, limit int) ([]model.ScoredRecord, error) {
	return s.retriever.RetrieveContext(ctx, tenant, user, query, limit)
}

// GetRecentHistory delegates to the retrieval orchestrator. includeExpired
// is the rank-audit escape hatch; normal history leaves it false.
func (s *MemoryService) GetRecentHistory(ctx context.Context, tenant, user string, window time.Duration, limit int, includeExpired bool) ([]model.MemoryRecord, error) {
	return s.retriever.GetRecentHistory(ctx, tenant, user, window, limit, includeExpired)
}

// RunTierSweep executes one on-demand sweep for the tenant.
func (s *MemoryService) RunTierSweep(ctx context.Context, tenant string) (model.SweepResult, error) {
	return s.sweeper.SweepOnce(ctx, tenant)
}

// RecentSweeps returns the journaled sweep history for a tenant, newest
// first. Returns ErrNotFound when journaling is disabled.
func (s *MemoryService) RecentSweeps(ctx context.Context, tenant string, limit int) ([]model.SweepResult, error) {
	if s.journal == nil {
		return nil, fmt.Errorf("%w: sweep journal disabled", model.ErrNotFound)
	}
	return s.journal.Recent(ctx, tenant, limit)
}

func validateStoreTurn(req StoreTurnRequest) error {
	if req.TenantID == "" || req.UserID == "" {
		return fmt.Errorf("%w: store turn without tenant/user identity", model.ErrIsolationViolation)
	}
	if strings.TrimSpace(req.Content) == "" {
		return fmt.Errorf("%w: empty content", model.ErrValidation)
	}
	if !req.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", model.ErrValidation, req.Role)
	}
	return nil
}
