// Package recallservice hosts the HTTP memory service entrypoint.
package recallservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/threadline-ai/recall/internal/api"
	"github.com/threadline-ai/recall/internal/config"
	"github.com/threadline-ai/recall/internal/embeddings"
	"github.com/threadline-ai/recall/internal/factory"
	"github.com/threadline-ai/recall/internal/health"
	"github.com/threadline-ai/recall/internal/lifecycle"
	"github.com/threadline-ai/recall/internal/logger"
	"github.com/threadline-ai/recall/internal/vectorstore"
)

// Run starts the recall service HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("recall-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	log.Info().
		Int("http_port", cfg.HTTPPort).
		Str("vector_store_url", cfg.VectorStoreURL).
		Str("embed_provider", cfg.EmbedProvider).
		Str("embed_model", cfg.EmbedModel).
		Str("classifier_url", cfg.ClassifierURL).
		Msg("Recall service starting")

	ctx, stop := newServerContext()
	defer stop()

	store, provider, journal, err := initDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}
	if journal != nil {
		defer func() { _ = journal.Close() }()
	}

	svc := factory.NewMemoryService(cfg, store, provider, journal, log)

	svcHealth := startHealthCheckers(ctx, cfg, log, store, provider)
	router := api.NewRouter(svc, svcHealth, log)

	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// initDependencies constructs required components and enforces fail-fast on missing deps.
func initDependencies(ctx context.Context, cfg *config.Config, log zerolog.Logger) (vectorstore.Store, embeddings.Provider, *lifecycle.Journal, error) {
	store, err := factory.NewVectorStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Vector store adapter unavailable")
		return nil, nil, nil, err
	}

	provider, err := factory.NewEmbeddingProvider(cfg)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Embedding provider unavailable")
		return nil, nil, nil, err
	}

	journal, err := factory.NewJournal(cfg)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Sweep journal unavailable")
		return nil, nil, nil, err
	}
	return store, provider, journal, nil
}

// startHealthCheckers starts component checkers and the service-level aggregator.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, store vectorstore.Store, provider embeddings.Provider) *health.ServiceHealthChecker {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	storeChecker := vectorstore.NewStoreHealthChecker(store, log, probeTimeout)
	go storeChecker.Start(ctx, interval)

	embChecker := embeddings.NewProviderHealthChecker(provider, log, probeTimeout)
	go embChecker.Start(ctx, interval)

	svcHealth := health.NewServiceHealthChecker(log, storeChecker, embChecker)
	go svcHealth.Start(ctx, interval)
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// calculateStartupHealthTimeout returns the startup health timeout in seconds,
// calculated as interval*2 with a minimum of 60 seconds.
func calculateStartupHealthTimeout(healthIntervalSeconds int) int {
	timeout := healthIntervalSeconds * 2
	if timeout < 60 {
		return 60
	}
	return timeout
}

// waitUntilHealthy blocks until service health is healthy or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.ServiceHealthChecker) error {
	// Checkers start unhealthy and need a first probe cycle.
	timeoutSeconds := calculateStartupHealthTimeout(cfg.HealthIntervalSeconds)
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %d seconds", timeoutSeconds)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
