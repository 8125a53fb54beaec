package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"finanzas/internal/cli"
	apphttp "finanzas/internal/http"
	applog "finanzas/internal/log"
	"finanzas/internal/metrics"
	"finanzas/internal/services"
	"finanzas/internal/worker"

	"golang.org/x/sync/errgroup"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext()
	defer stop()

	be := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	m := metrics.New()
	ledgerSvc := services.NewLedgerService(be.Store, be.Publisher, m)
	projector := services.NewProjector(be.Store, m)
	settler := services.NewSettler(be.Store, be.Publisher, m)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               net.JoinHostPort("", cfg.Port),
		ClosingDay:         cfg.ClosingDay,
		Horizon:            cfg.ProjectionHorizon,
		PersonAName:        cfg.PersonAName,
		PersonBName:        cfg.PersonBName,
		Backend:            cfg.DataBackend,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, ledgerSvc, projector, settler, m, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting finanzas server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"closing_day", cfg.ClosingDay,
			"events", be.Publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.AutoCloseEnabled {
		loop := worker.NewAutoCloseLoop(services.NewAutoCloseProcessor(settler, cfg.ClosingDay), cfg.AutoCloseInterval)
		g.Go(func() error { return loop.Run(gctx) })
		logger.Info("Auto-close enabled", "interval", cfg.AutoCloseInterval)
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
