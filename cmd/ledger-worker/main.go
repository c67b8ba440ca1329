package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"kakeibo/internal/amqp"
	"kakeibo/internal/cli"
	"kakeibo/internal/log"
	"kakeibo/internal/metrics"
	"kakeibo/internal/services"
	"kakeibo/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentWorker)
	logger.Info("Starting ledger-worker",
		"ledger_backend", cfg.LedgerBackend,
		"queue", cfg.AMQPQueue)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, stop := cli.ShutdownContext()
	defer stop()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP broker", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	mirror, err := cli.OpenLedgerMirror(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open ledger mirror", log.FieldError, err)
		os.Exit(1)
	}

	m := metrics.New()
	cats := cfg.Categories()
	alerts := services.NewAlertProcessor(repo, services.NewBudgetService(repo, cats), cfg.Currency)
	lw := worker.NewLedgerWorker(mirror, alerts, repo, m)

	if cfg.ReconcileOnStart {
		now := time.Now().UTC()
		res, err := lw.Reconcile(ctx, now.Year(), int(now.Month()))
		if err != nil {
			logger.Warn("Startup reconcile failed", log.FieldError, err)
		} else {
			logger.Info("Startup reconcile complete",
				"appended", res.Appended,
				"removed", res.Removed)
		}
	}

	metricsSrv := &http.Server{Addr: ":" + cfg.MetricsPort, Handler: m.Handler(), ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return metricsSrv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		err := client.Consume(gctx, lw.HandleEvent)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	logger.Info("Consuming transaction events", "metrics_port", cfg.MetricsPort)
	if err := g.Wait(); err != nil {
		logger.Error("Ledger worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Ledger worker stopped")
}
