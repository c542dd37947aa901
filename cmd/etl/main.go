// Command etl runs the weather measurement extraction service: it fetches
// the station message table from SOURCE_URL on a refresh interval, extracts
// measurements with the configured patterns, and serves the augmented table
// and per-station means over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	httpadapter "github.com/couchcryptid/weather-measurements-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/weather-measurements-etl/internal/adapter/kafka"
	"github.com/couchcryptid/weather-measurements-etl/internal/adapter/source"
	"github.com/couchcryptid/weather-measurements-etl/internal/config"
	"github.com/couchcryptid/weather-measurements-etl/internal/domain"
	"github.com/couchcryptid/weather-measurements-etl/internal/observability"
	"github.com/couchcryptid/weather-measurements-etl/internal/pipeline"
)

func main() {
	// Local development convenience; absence of a .env file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	patterns, err := domain.CompilePatterns(cfg.Patterns)
	if err != nil {
		logger.Error("failed to compile patterns", "error", err)
		os.Exit(1)
	}

	var extractor domain.MessageExtractor = domain.NewPatternExtractor(patterns, logger)
	if cfg.ExtractCacheSize > 0 {
		extractor = pipeline.NewCachedExtractor(extractor, cfg.ExtractCacheSize, metrics)
		logger.Info("extraction cache enabled", "size", cfg.ExtractCacheSize)
	}

	loader := source.NewClient(cfg.SourceTimeout, logger)

	// Publisher is feature-flagged via KAFKA_ENABLED.
	var publisher pipeline.RowPublisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaSinkTopic, "batch_size", cfg.BatchSize)
	} else {
		logger.Info("kafka publishing disabled")
	}

	p := pipeline.New(loader, extractor, publisher, logger, metrics, cfg.SourceURL, cfg.RefreshInterval)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start the refresh loop.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("processor error", "error", err)
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
