package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/davrodpin/scoundrel/internal/config"
	"github.com/davrodpin/scoundrel/internal/game"
	"github.com/davrodpin/scoundrel/internal/handler/health"
	"github.com/davrodpin/scoundrel/internal/integrity"
	"github.com/davrodpin/scoundrel/internal/server"
)

func runServe(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- Store ---
	be, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer be.close()

	// --- Game ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if cfg.ChecksumKey == "" {
		logger.Warn("CHECKSUM_KEY is empty; state checksums are unkeyed")
	}
	manager := game.NewManager(be.store, integrity.New([]byte(cfg.ChecksumKey)), game.Config{
		SessionTimeout: cfg.SessionTimeout,
		StoreTimeout:   cfg.StoreTimeout,
		Security: game.SecurityConfig{
			MaxActions: cfg.RateLimitMax,
			Window:     cfg.RateLimitWindow,
			MaxDrift:   cfg.MaxTimestampDrift,
		},
	}, logger, game.NewMetrics(reg))

	api := server.NewAPI(manager, server.NewTokens([]byte(cfg.TokenSecret), cfg.TokenTTL, nil), server.NewBroker(), logger)

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, api.Mount, func(r chi.Router) {
		r.Mount("/healthz", health.NewHandler(logger, be.checks).Routes())
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr, "store", cfg.StoreDriver)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		return manager.RunSweeper(gctx, cfg.SweepInterval)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}
