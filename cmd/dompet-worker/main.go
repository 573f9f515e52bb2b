package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"dompet/internal/amqp"
	"dompet/internal/backend"
	"dompet/internal/cli"
	"dompet/internal/config"
	"dompet/internal/ledger"
	"dompet/internal/log"
	"dompet/internal/sheets"
	gsheet "dompet/internal/sheets/google"
	"dompet/internal/sheets/memory"
	"dompet/internal/worker"
)

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}
	logger := cli.SetupLogger(config.Load())
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required by the worker")
		os.Exit(1)
	}

	logger.Info("Starting dompet-worker")
	if err := run(cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	g, gctx := errgroup.WithContext(context.Background())
	parent, cancel := context.WithCancel(gctx)

	ctx, done := cli.GracefulShutdown(parent, logger, 15*time.Second, nil)
	defer func() {
		cancel()
		<-done
	}()

	mirror, err := newMirror(ctx, cfg, logger)
	if err != nil {
		return err
	}

	// A memory ledger lives inside the server process, so the worker can
	// only resync against a shared database.
	var reader ledger.Reader
	if cfg.DataBackend != string(backend.MemoryBackend) {
		bcfg, err := backend.FromAppConfig(cfg)
		if err != nil {
			return err
		}
		// events are consumed here, not published
		bcfg.AMQPURL = ""
		res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
		if err != nil {
			return err
		}
		defer closeLogged(logger, "backend", res.Close)
		reader = res.Store
	}

	client, err := amqp.NewClient(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		return fmt.Errorf("initialize AMQP client: %w", err)
	}
	defer closeLogged(logger, "amqp", client.Close)

	syncWorker := worker.NewSyncWorker(mirror, reader, logger)

	if reader != nil {
		logger.Info("Performing startup resync")
		if err := syncWorker.Resync(ctx); err != nil {
			logger.Error("Startup resync failed", log.FieldError, err)
		}
		if cfg.ResyncInterval > 0 {
			g.Go(func() error {
				syncWorker.RunPeriodicResync(ctx, cfg.ResyncInterval)
				return nil
			})
		}
	} else {
		logger.Info("Skipping resync, ledger is not shared", "backend", cfg.DataBackend)
	}

	g.Go(func() error {
		return client.ConsumeTransactionEvents(ctx, syncWorker.HandleEvent)
	})

	return g.Wait()
}

func closeLogged(logger *log.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.Error("Cleanup error", log.FieldError, err, "resource", what)
	}
}

func newMirror(ctx context.Context, cfg *config.Config, logger *log.Logger) (sheets.Mirror, error) {
	if !cfg.MirrorEnabled() {
		logger.Warn("Google Sheets disabled, mirroring into memory - no GOOGLE_SPREADSHEET_ID provided")
		return memory.New(), nil
	}
	client, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
		Logger:          logger,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize Google Sheets client: %w", err)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client, nil
}
