package vectorstore

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/threadline-ai/recall/internal/health"
)

// StoreHealthChecker monitors the vector store adapter.
type StoreHealthChecker struct {
	store        Store
	healthy      atomic.Int32
	log          zerolog.Logger
	probeTimeout time.Duration
}

func NewStoreHealthChecker(s Store, log zerolog.Logger, probeTimeout time.Duration) *StoreHealthChecker {
	hc := &StoreHealthChecker{store: s, log: log, probeTimeout: probeTimeout}
	hc.healthy.Store(0)
	return hc
}

func (c *StoreHealthChecker) Name() string    { return "vectorstore" }
func (c *StoreHealthChecker) IsHealthy() bool { return c.healthy.Load() == 1 }

func (c *StoreHealthChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	run := func() {
		to := c.probeTimeout
		if to <= 0 {
			to = 2 * time.Second
		}
		checkCtx, cancel := context.WithTimeout(ctx, to)
		defer cancel()
		p, ok := any(c.store).(health.HealthPinger)
		if !ok {
			// No specialized probe; assume healthy (in-process fakes).
			c.healthy.Store(1)
			return
		}
		if err := p.HealthPing(checkCtx); err != nil {
			c.healthy.Store(0)
			c.log.Error().Stack().Str("checker", c.Name()).Err(err).Msg("vector store health check failed")
			return
		}
		c.healthy.Store(1)
	}

	run()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}
