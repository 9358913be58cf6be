package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cropsense/crop-analysis/internal/adapter/baseline"
	"github.com/cropsense/crop-analysis/internal/adapter/httpapi"
	kafkaadapter "github.com/cropsense/crop-analysis/internal/adapter/kafka"
	"github.com/cropsense/crop-analysis/internal/config"
	"github.com/cropsense/crop-analysis/internal/domain"
	"github.com/cropsense/crop-analysis/internal/observability"
	"github.com/cropsense/crop-analysis/internal/pipeline"
	"github.com/cropsense/crop-analysis/internal/report"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Baseline archive is feature-flagged via BASELINE_ENABLED / BASELINE_URL.
	var baselines domain.BaselineProvider
	if cfg.BaselineEnabled {
		client := baseline.NewClient(cfg.BaselineURL, cfg.BaselineTimeout, logger)
		baselines = baseline.NewCachedProvider(client, cfg.BaselineCacheSize, metrics)
		logger.Info("baseline archive enabled", "url", cfg.BaselineURL, "cache_size", cfg.BaselineCacheSize)
	} else {
		logger.Info("baseline archive disabled, using inline history only")
	}

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	analyzer := pipeline.NewFieldAnalyzer(
		cfg.Detector,
		domain.DefaultHealthCuts(),
		cfg.Alerts,
		cfg.MaxCloudFraction,
		baselines,
		logger,
		metrics,
	)

	var loader pipeline.BatchLoader = writer
	if cfg.ReportDir != "" {
		dirWriter, err := report.NewDirWriter(cfg.ReportDir, logger)
		if err != nil {
			logger.Error("failed to create report dir", "error", err)
			os.Exit(1)
		}
		loader = pipeline.MultiLoader{writer, dirWriter}
		logger.Info("report rendering enabled", "dir", cfg.ReportDir)
	}

	p := pipeline.New(reader, analyzer, loader, logger, metrics, cfg.BatchSize)

	srv := httpapi.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start analysis pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
