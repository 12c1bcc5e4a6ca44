package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/threadline-ai/recall/internal/metrics"
	"github.com/threadline-ai/recall/internal/model"
	"github.com/threadline-ai/recall/internal/vectorstore"
)

// Sweeper applies the tier rules across a tenant's sweepable records.
type Sweeper struct {
	store    vectorstore.Store
	journal  *Journal // nil disables journaling
	log      zerolog.Logger
	pageSize int

	// now is swappable for deterministic tests.
	now func() time.Time
}

func NewSweeper(store vectorstore.Store, journal *Journal, log zerolog.Logger, pageSize int) *Sweeper {
	if pageSize <= 0 {
		pageSize = 200
	}
	return &Sweeper{
		store:    store,
		journal:  journal,
		log:      log,
		pageSize: pageSize,
		now:      time.Now,
	}
}

// WithClock overrides the sweep clock; tests only.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// SweepOnce runs a single sweep for one tenant. The evaluation instant is
// pinned at sweep start so every record in the pass sees the same "now";
// re-running immediately recomputes identical tiers and applies nothing.
func (s *Sweeper) SweepOnce(ctx context.Context, tenant string) (model.SweepResult, error) {
	if tenant == "" {
		return model.SweepResult{}, fmt.Errorf("%w: sweep without tenant", model.ErrIsolationViolation)
	}

	now := s.now()
	res := model.SweepResult{TenantID: tenant, StartedAt: now}

	err := s.store.SweepScan(ctx, tenant, s.pageSize, func(page []model.MemoryRecord) error {
		for i := range page {
			rec := &page[i]
			res.Scanned++

			out := Evaluate(rec, now)
			if !out.Changed(rec) {
				continue
			}

			upd := vectorstore.LifecycleUpdate{
				Tier:               out.Tier,
				LowPriority:        out.LowPriority,
				EmotionalContext:   rec.EmotionalContext,
				EmotionalIntensity: rec.EmotionalIntensity,
				SignificanceScore:  rec.SignificanceScore,
			}
			if err := s.store.UpdateLifecycleFields(ctx, tenant, rec.UserID, rec.ID, upd); err != nil {
				s.log.Error().Stack().Err(err).
					Str("tenant", tenant).
					Str("record_id", rec.ID).
					Msg("tier update failed, skipping record")
				continue
			}
			s.count(&res, rec, out, tenant)
		}
		return nil
	})
	if err != nil {
		return res, err
	}

	res.FinishedAt = s.now()
	res.Elapsed = res.FinishedAt.Sub(res.StartedAt)
	metrics.SweepScanned.WithLabelValues(tenant).Add(float64(res.Scanned))

	if s.journal != nil {
		if jerr := s.journal.Record(ctx, res); jerr != nil {
			s.log.Warn().Err(jerr).Str("tenant", tenant).Msg("sweep journal write failed")
		}
	}

	s.log.Info().
		Str("tenant", tenant).
		Int("scanned", res.Scanned).
		Int("promoted", res.Promoted).
		Int("archived", res.Archived).
		Int("expired", res.Expired).
		Int("demoted", res.Demoted).
		Dur("elapsed", res.Elapsed).
		Msg("tier sweep complete")
	return res, nil
}

func (s *Sweeper) count(res *model.SweepResult, rec *model.MemoryRecord, out Outcome, tenant string) {
	if out.Tier != rec.Tier {
		switch out.Tier {
		case model.TierCore:
			res.Promoted++
			metrics.SweepTransitions.WithLabelValues(tenant, "promoted").Inc()
		case model.TierArchived:
			res.Archived++
			metrics.SweepTransitions.WithLabelValues(tenant, "archived").Inc()
		case model.TierExpired:
			res.Expired++
			metrics.SweepTransitions.WithLabelValues(tenant, "expired").Inc()
		}
	}
	if out.LowPriority && !rec.LowPriority {
		res.Demoted++
		metrics.SweepTransitions.WithLabelValues(tenant, "demoted").Inc()
	}
}

// Run sweeps every tenant on the interval until the context is cancelled.
// A sweep failure for one tenant is logged and does not stop the loop.
func (s *Sweeper) Run(ctx context.Context, tenants []string, interval time.Duration) {
	sweepAll := func() {
		for _, tenant := range tenants {
			if ctx.Err() != nil {
				return
			}
			if _, err := s.SweepOnce(ctx, tenant); err != nil {
				s.log.Error().Stack().Err(err).Str("tenant", tenant).Msg("tier sweep failed")
			}
		}
	}

	sweepAll()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepAll()
		}
	}
}
