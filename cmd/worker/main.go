package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/catalog-nlq/internal/bootstrap"
	"github.com/kirillkom/catalog-nlq/internal/config"
	"github.com/kirillkom/catalog-nlq/internal/core/domain"
)

const service = "nlq-worker"

func main() {
	if err := run(); err != nil {
		log.Fatalf("worker error: %v", err)
	}
}

func run() error {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := bootstrap.NewWorker(ctx, cfg)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer w.Close()
	logger := w.Logger

	mux := http.NewServeMux()
	mux.Handle("/metrics", w.Metrics.Handler())
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("worker_metrics_listening", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSUnknownTermsSubject)
	return w.Queue.SubscribeUnknownTerms(ctx, func(handlerCtx context.Context, batch []domain.UnknownTerm) error {
		persistCtx, cancel := context.WithTimeout(handlerCtx, 30*time.Second)
		defer cancel()

		now := time.Now()
		for _, t := range batch {
			w.Metrics.ObserveQueueLag(service, now.Sub(t.ObservedAt))
		}
		w.Metrics.StartBatch()
		stored, err := w.Collector.Collect(persistCtx, batch)
		w.Metrics.FinishBatch(service, stored, time.Since(now), err)
		return err
	})
}
