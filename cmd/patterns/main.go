package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ledgerly/pattern-engine-go/internal/config"
	"github.com/ledgerly/pattern-engine-go/internal/domain"
	"github.com/ledgerly/pattern-engine-go/internal/handler"
	"github.com/ledgerly/pattern-engine-go/internal/infra/cache"
	"github.com/ledgerly/pattern-engine-go/internal/infra/memstore"
	"github.com/ledgerly/pattern-engine-go/internal/infra/observability"
	"github.com/ledgerly/pattern-engine-go/internal/infra/resilience"
	"github.com/ledgerly/pattern-engine-go/internal/infra/storeapi"
	"github.com/ledgerly/pattern-engine-go/internal/port"
	"github.com/ledgerly/pattern-engine-go/internal/service"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Int("recurring_lookback_days", cfg.RecurringLookbackDays),
		zap.Int("recurring_min_occurrences", cfg.RecurringMinOccurrences),
		zap.Int("transfer_lookback_days", cfg.TransferLookbackDays),
		zap.Int("sweep_concurrency", cfg.SweepConcurrency),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "pattern-engine")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	reportCache := cache.New[*domain.DetectionReport](cfg.CacheTTL)

	// --- Store ---
	var store port.TransactionStore
	if cfg.StoreURL != "" {
		logger.Info("using HTTP transaction store",
			zap.String("store_url", cfg.StoreURL),
		)
		httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
		cb := resilience.NewCircuitBreaker("transaction-store")
		store = storeapi.NewClient(
			httpClient,
			cfg.StoreURL,
			cfg.StoreAPIKey,
			cfg.StoreServiceKey,
			cb,
			resilience.Config{
				MaxRetries:     cfg.MaxRetries,
				InitialBackoff: cfg.InitialBackoff,
			},
			logger,
		)
	} else {
		logger.Warn("STORE_URL not configured, using in-memory store (dev mode)")
		store = memstore.New()
	}

	// --- Service ---
	svc := service.NewDetectionService(store, reportCache, metrics, logger, service.Options{
		RecurringLookbackDays:   cfg.RecurringLookbackDays,
		RecurringMinOccurrences: cfg.RecurringMinOccurrences,
		TransferLookbackDays:    cfg.TransferLookbackDays,
		TransferTolerance:       decimal.NewFromFloat(cfg.TransferTolerance),
		TransferMaxDayGap:       cfg.TransferMaxDayGap,
		SweepConcurrency:        cfg.SweepConcurrency,
	})

	// --- Router ---
	router := handler.NewRouter(svc, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
