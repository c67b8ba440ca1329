package cli

import (
	"context"
	"fmt"

	"kakeibo/internal/amqp"
	"kakeibo/internal/config"
	"kakeibo/internal/log"
	"kakeibo/internal/metrics"
	"kakeibo/internal/services"
	"kakeibo/internal/sheets"
	"kakeibo/internal/sheets/google"
	"kakeibo/internal/sheets/memory"
)

// ConnectPublisher opens the AMQP client used to publish transaction
// events. When the broker is unreachable it returns a nil publisher and
// the caller runs without events. The returned close func is never nil.
func ConnectPublisher(logger *log.Logger, cfg *config.Config, m *metrics.Metrics) (services.EventPublisher, func()) {
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		return nil, func() {}
	}
	logger.Info("AMQP publisher ready", "exchange", cfg.AMQPExchange)
	return m.WrapPublisher(client), func() { _ = client.Close() }
}

// OpenLedgerMirror builds the ledger mirror selected by LEDGER_BACKEND.
func OpenLedgerMirror(ctx context.Context, cfg *config.Config) (sheets.LedgerMirror, error) {
	switch cfg.LedgerBackend {
	case config.LedgerSheets:
		client, err := google.New(ctx, google.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
			CredentialsFile: cfg.GoogleCredentialsFile,
		})
		if err != nil {
			return nil, fmt.Errorf("google sheets mirror: %w", err)
		}
		return client, nil
	case config.LedgerMemory, "":
		return memory.New(), nil
	}
	return nil, fmt.Errorf("unknown ledger backend %q", cfg.LedgerBackend)
}
