package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/indicacoes-heatmap/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/indicacoes-heatmap/internal/adapter/kafka"
	"github.com/couchcryptid/indicacoes-heatmap/internal/adapter/mapbox"
	"github.com/couchcryptid/indicacoes-heatmap/internal/adapter/source"
	"github.com/couchcryptid/indicacoes-heatmap/internal/config"
	"github.com/couchcryptid/indicacoes-heatmap/internal/domain"
	"github.com/couchcryptid/indicacoes-heatmap/internal/observability"
	"github.com/couchcryptid/indicacoes-heatmap/internal/pipeline"
	"github.com/joho/godotenv"
)

func main() {
	// A .env file is optional; real environment variables take precedence.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheTTL, metrics)
		logger.Info("mapbox geocoding enabled", "cache_ttl", cfg.MapboxCacheTTL, "timeout", cfg.MapboxTimeout, "region", cfg.GeocodeRegion)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	// The exporter stays a nil interface when disabled so Export reports it.
	var exporter pipeline.Exporter
	var writer *kafkaadapter.Writer
	if cfg.KafkaExportEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		exporter = writer
		logger.Info("kafka export enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaExportTopic)
	}

	loader := source.NewLoader(cfg.MeasurementsPath, cfg.CoordinatesPath, logger)
	p := pipeline.New(loader, geocoder, exporter, logger, metrics,
		pipeline.WithTopCities(cfg.TopCities),
		pipeline.WithReloadOnRender(cfg.ReloadOnRender),
		pipeline.WithGeocodeRegion(cfg.GeocodeRegion),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Missing source files halt startup; anything else is left for /api/reload.
	if _, err := p.Load(ctx); err != nil {
		if errors.Is(err, domain.ErrMissingSource) {
			logger.Error("source files not found", "error", err)
			os.Exit(1)
		}
		logger.Error("initial dataset load failed", "error", err)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, cfg.CORSAllowedOrigins, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
