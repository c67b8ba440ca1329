package main

import (
	"context"
	"net/http"
	"time"

	"kakeibo/internal/cli"
	"kakeibo/internal/log"
	"kakeibo/internal/metrics"
	"kakeibo/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentWorker)
	logger.Info("Starting recurring-worker")

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	m := metrics.New()
	events, closeEvents := cli.ConnectPublisher(logger, cfg, m)
	defer closeEvents()

	cats := cfg.Categories()
	processor := services.NewRecurringProcessor(repo, services.NewSplitGenerator(cats), cats, events)

	ctx, stop := cli.ShutdownContext()
	defer stop()

	metricsSrv := &http.Server{Addr: ":" + cfg.MetricsPort, Handler: m.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("Metrics listener stopped", log.FieldError, err)
		}
	}()

	logger.Info("Recurring processor configured",
		"interval", cfg.RecurringInterval,
		"sqlite_db", cfg.SQLiteDBPath)

	sweep := func() {
		count, err := processor.ProcessDue(ctx)
		m.RecurringSweep(err)
		if err != nil {
			logger.Error("Recurring sweep failed", log.FieldError, err)
			return
		}
		logger.Info("Recurring sweep complete",
			"transactions_created", count,
			"next_check", time.Now().Add(cfg.RecurringInterval).Format(time.TimeOnly))
	}

	sweep()

	ticker := time.NewTicker(cfg.RecurringInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown signal received")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			_ = metricsSrv.Shutdown(shutdownCtx)
			cancel()
			logger.Info("Recurring worker stopped")
			return
		case <-ticker.C:
			sweep()
		}
	}
}
