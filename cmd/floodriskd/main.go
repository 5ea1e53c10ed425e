package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/flood-risk-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/flood-risk-service/internal/adapter/kafka"
	"github.com/couchcryptid/flood-risk-service/internal/adapter/nws"
	"github.com/couchcryptid/flood-risk-service/internal/adapter/openmeteo"
	"github.com/couchcryptid/flood-risk-service/internal/adapter/postgres"
	"github.com/couchcryptid/flood-risk-service/internal/adapter/usgs"
	"github.com/couchcryptid/flood-risk-service/internal/config"
	"github.com/couchcryptid/flood-risk-service/internal/forecast"
	"github.com/couchcryptid/flood-risk-service/internal/history"
	"github.com/couchcryptid/flood-risk-service/internal/ingest"
	"github.com/couchcryptid/flood-risk-service/internal/observability"
	"github.com/couchcryptid/flood-risk-service/internal/risk"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	store, err := postgres.Open(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}

	// Forecast sources: NWS first, Open-Meteo as fallback, results cached.
	nwsClient := nws.NewClient(cfg.NWSBaseURL, cfg.SourceTimeout, logger)
	meteoClient := openmeteo.NewClient(cfg.OpenMeteoBaseURL, cfg.SourceTimeout, logger)
	chain := forecast.NewChain(logger, metrics, nwsClient, meteoClient)
	forecasts := forecast.NewCached(chain, cfg.ForecastCacheSize, cfg.ForecastCacheTTL, metrics)

	gaugeSource := usgs.NewClient(cfg.USGSBaseURL, cfg.SourceTimeout, logger)
	publisher := kafkaadapter.NewPublisher(cfg, logger)

	orchestrator := ingest.New(
		ingest.Config{
			RefreshInterval:   cfg.RefreshInterval,
			Cooldown:          cfg.CycleCooldown,
			BatchSize:         cfg.GaugeBatchSize,
			SoilSaturationPct: cfg.SoilSaturationDefault,
		},
		store,
		store,
		gaugeSource,
		forecasts,
		risk.NewCalculator(),
		publisher,
		logger,
		metrics,
	)

	recurrence := history.NewService(store, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, orchestrator, store, store, recurrence, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	orchestrator.Start(ctx)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	orchestrator.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Error("kafka publisher close error", "error", err)
	}

	logger.Info("shutdown complete")
}
