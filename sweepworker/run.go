// Package sweepworker hosts the standalone tier sweep worker entrypoint.
package sweepworker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/threadline-ai/recall/internal/config"
	"github.com/threadline-ai/recall/internal/factory"
	"github.com/threadline-ai/recall/internal/lifecycle"
	"github.com/threadline-ai/recall/internal/logger"
)

// Run starts the sweep worker and blocks until shutdown or error.
func Run() error {
	log := logger.New("sweep-worker")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("config")
		return err
	}

	tenants := factory.SweepTenants(cfg)
	if len(tenants) == 0 {
		return fmt.Errorf("no tenants configured: set RECALL_SWEEP_TENANTS to a comma-separated list")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := factory.NewVectorStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("vector store")
		return err
	}

	journal, err := factory.NewJournal(cfg)
	if err != nil {
		log.Error().Stack().Err(err).Msg("sweep journal")
		return err
	}
	if journal != nil {
		defer func() { _ = journal.Close() }()
	}

	log.Info().
		Strs("tenants", tenants).
		Dur("interval", cfg.SweepInterval()).
		Int("page_size", cfg.SweepPageSize).
		Msg("Sweep worker starting")

	sweeper := lifecycle.NewSweeper(store, journal, log, cfg.SweepPageSize)
	sweeper.Run(ctx, tenants, cfg.SweepInterval())
	return nil
}
