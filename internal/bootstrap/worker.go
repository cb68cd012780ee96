package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/kirillkom/catalog-nlq/internal/config"
	"github.com/kirillkom/catalog-nlq/internal/core/usecase"
	"github.com/kirillkom/catalog-nlq/internal/infrastructure/queue/nats"
	"github.com/kirillkom/catalog-nlq/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/catalog-nlq/internal/infrastructure/resilience"
	"github.com/kirillkom/catalog-nlq/internal/observability/metrics"
)

const workerService = "nlq-worker"

type Worker struct {
	Config    config.Config
	Logger    *slog.Logger
	Metrics   *metrics.WorkerMetrics
	Queue     *nats.Queue
	Collector *usecase.UnknownTermCollector

	closers []func()
}

// NewWorker wires the unknown-term collector: NATS in, Postgres out.
func NewWorker(ctx context.Context, cfg config.Config) (*Worker, error) {
	if cfg.NATSURL == "" {
		return nil, fmt.Errorf("NATS_URL is required for the worker")
	}
	logger := NewLogger(cfg, workerService)
	w := &Worker{Config: cfg, Logger: logger, Metrics: metrics.NewWorkerMetrics(workerService)}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	w.closers = append(w.closers, func() { _ = db.Close() })

	repo := postgres.NewUnknownTermRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		w.Close()
		return nil, fmt.Errorf("ensure unknown-term schema: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSUnknownTermsSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.BackgroundConfig(), resilience.WithLogger(logger)),
		Logger:             logger,
		ClientName:         workerService,
	})
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("init unknown-term queue: %w", err)
	}
	w.closers = append(w.closers, queue.Close)
	w.Queue = queue
	w.Collector = usecase.NewUnknownTermCollector(repo, logger)
	return w, nil
}

func (w *Worker) Close() {
	for i := len(w.closers) - 1; i >= 0; i-- {
		w.closers[i]()
	}
	w.closers = nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
