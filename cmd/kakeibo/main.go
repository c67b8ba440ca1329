package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"kakeibo/internal/auth"
	"kakeibo/internal/cli"
	apphttp "kakeibo/internal/http"
	"kakeibo/internal/log"
	"kakeibo/internal/metrics"
	"kakeibo/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentApp)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	m := metrics.New()
	events, closeEvents := cli.ConnectPublisher(logger, cfg, m)
	defer closeEvents()

	cats := cfg.Categories()
	tokens := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	splits := services.NewSplitGenerator(cats)
	budgets := services.NewBudgetService(repo, cats)

	srv := apphttp.NewServer(apphttp.ServerConfig{
		Addr:            ":" + cfg.Port,
		RateLimitPerMin: cfg.RateLimitPerMin,
		Currency:        cfg.Currency,
		Logger:          logger,
	}, repo, tokens, apphttp.Services{
		Accounts:     services.NewAccountService(auth.NewPasswordAuthenticator(repo), tokens, repo),
		Couples:      services.NewCoupleService(repo, cfg.InviteCodeTTL),
		Transactions: services.NewTransactionService(repo, splits, cats, events),
		Settlement:   services.NewSettlementService(repo),
		Recurring:    services.NewRecurringProcessor(repo, splits, cats, events),
		Budgets:      budgets,
		Assets:       services.NewAssetService(repo),
		Dashboard:    services.NewDashboardService(repo, budgets),
		Analytics:    services.NewAnalyticsService(repo, budgets),
	}, m)

	ctx, stop := cli.ShutdownContext()
	defer stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	}()

	logger.Info("Starting kakeibo server", "port", cfg.Port, "currency", cfg.Currency)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	<-done
	logger.Info("Server stopped gracefully")
}
