package main

import (
	"os"

	"finanzas/internal/cli"
	applog "finanzas/internal/log"
	"finanzas/internal/metrics"
	"finanzas/internal/services"
	"finanzas/internal/worker"

	"golang.org/x/sync/errgroup"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	logger.Info("Starting autoclose-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext()
	defer stop()

	be := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()
	if be.Publisher == nil {
		logger.Info("AMQP disabled - settlements will not reach the sheets mirror")
	}

	m := metrics.New()
	settler := services.NewSettler(be.Store, be.Publisher, m)
	loop := worker.NewAutoCloseLoop(services.NewAutoCloseProcessor(settler, cfg.ClosingDay), cfg.AutoCloseInterval)

	logger.Info("Auto-close processor configured",
		"interval", cfg.AutoCloseInterval,
		"closing_day", cfg.ClosingDay,
		"backend", cfg.DataBackend)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loop.Run(gctx) })
	if cfg.MetricsAddr != "" {
		cli.ServeMetrics(gctx, g, logger, cfg.MetricsAddr, m.Handler())
	}

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
