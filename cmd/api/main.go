package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/hazemap/hazemap-api/internal/adapter/http"
	kafkaadapter "github.com/hazemap/hazemap-api/internal/adapter/kafka"
	mongoadapter "github.com/hazemap/hazemap-api/internal/adapter/mongo"
	"github.com/hazemap/hazemap-api/internal/config"
	"github.com/hazemap/hazemap-api/internal/observability"
	"github.com/hazemap/hazemap-api/internal/report"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect the document store. On failure the server still comes up in
	// degraded mode: API routes answer 500 and /readyz stays not-ready, which
	// beats crash-looping while the store recovers.
	var svc httpadapter.ReportService
	var store *mongoadapter.Store
	var publisher *kafkaadapter.Publisher

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	store, err = mongoadapter.Connect(connectCtx, cfg, logger)
	cancel()
	if err != nil {
		metrics.StoreUp.Set(0)
		logger.Error("store unavailable, serving in degraded mode", "error", err)
	} else {
		metrics.StoreUp.Set(1)

		var pub report.Publisher
		if cfg.KafkaEnabled {
			publisher = kafkaadapter.NewPublisher(cfg, logger)
			pub = publisher
			metrics.PublisherEnabled.Set(1)
			logger.Info("ingest publishing enabled", "topic", cfg.KafkaIngestTopic)
		} else {
			logger.Info("ingest publishing disabled")
		}

		svc = report.New(store, pub, logger, metrics, cfg.DeleteBatchSize)
	}

	srv := httpadapter.NewServer(cfg, svc, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}
	if store != nil {
		if err := store.Close(shutdownCtx); err != nil {
			logger.Error("store close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
