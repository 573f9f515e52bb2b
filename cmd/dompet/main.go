package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"dompet/internal/assistant"
	"dompet/internal/backend"
	"dompet/internal/cache"
	"dompet/internal/cli"
	"dompet/internal/config"
	"dompet/internal/core"
	apphttp "dompet/internal/http"
	"dompet/internal/log"
	"dompet/internal/services"
)

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}
	logger := cli.SetupLogger(config.Load())
	cfg := cli.LoadAndValidateConfig(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
}

func run(cfg *config.Config, logger *log.Logger) error {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), bcfg)
	if err != nil {
		return err
	}

	txCache, err := cache.NewStore[[]core.Transaction](cfg.CacheMaxItems, cfg.CacheTTL)
	if err != nil {
		_ = res.Close()
		return err
	}
	caches := cache.NewManager()
	caches.Register(txCache)

	dashboards := services.NewDashboardService(res.Store, logger,
		services.WithLocation(cfg.Location()),
		services.WithCache(txCache),
		services.WithInvalidation(caches))
	transactions := services.NewTransactionService(res.Store, res.Publisher, caches, logger)

	var bot assistant.Assistant = assistant.Rules{Now: dashboards.Now}
	if cfg.AssistantEnabled() {
		bot = assistant.Fallback{
			Primary:   assistant.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, dashboards.Now),
			Secondary: bot,
			Logger:    logger.WithComponent(log.ComponentAssistant),
		}
		logger.Info("OpenAI assistant enabled", "model", cfg.OpenAIModel)
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Transactions:    transactions,
		Dashboards:      dashboards,
		Assistant:       bot,
		Ready:           res.Ready,
		Logger:          logger,
		WritesPerMinute: cfg.RateLimitWritesPerMinute,
	})

	g, gctx := errgroup.WithContext(context.Background())
	_, done := cli.GracefulShutdown(gctx, logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		txCache.Close()
		if err := res.Close(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	g.Go(func() error {
		logger.Info("Starting dompet server",
			log.FieldOperation, log.OpStartup,
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"timezone", cfg.Timezone,
			"events", res.Publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	err = g.Wait()
	<-done
	return err
}
