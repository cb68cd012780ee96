package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/kirillkom/catalog-nlq/internal/config"
	"github.com/kirillkom/catalog-nlq/internal/core/nlu"
	"github.com/kirillkom/catalog-nlq/internal/core/ports"
	"github.com/kirillkom/catalog-nlq/internal/core/usecase"
	"github.com/kirillkom/catalog-nlq/internal/infrastructure/classifier/keyword"
	"github.com/kirillkom/catalog-nlq/internal/infrastructure/classifier/ollama"
	"github.com/kirillkom/catalog-nlq/internal/infrastructure/facets/solr"
	"github.com/kirillkom/catalog-nlq/internal/infrastructure/facets/static"
	"github.com/kirillkom/catalog-nlq/internal/infrastructure/queue/nats"
	"github.com/kirillkom/catalog-nlq/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/catalog-nlq/internal/infrastructure/resilience"
	"github.com/kirillkom/catalog-nlq/internal/infrastructure/sessions/memory"
	"github.com/kirillkom/catalog-nlq/internal/infrastructure/sessions/redisstore"
	"github.com/kirillkom/catalog-nlq/internal/infrastructure/unknownterms"
	"github.com/kirillkom/catalog-nlq/internal/infrastructure/vocabulary"
	"github.com/kirillkom/catalog-nlq/internal/observability/logging"
	"github.com/kirillkom/catalog-nlq/internal/observability/metrics"
)

const apiService = "nlq-api"

type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.HTTPServerMetrics

	Vocabulary   *vocabulary.Merged
	UnknownTerms *unknownterms.Log
	UnderstandUC *usecase.UnderstandUseCase
	VocabularyUC *usecase.VocabularyUseCase

	closers []func()
}

// NewLogger builds the process logger and installs it as the slog default.
func NewLogger(cfg config.Config, service string) *slog.Logger {
	logger := logging.New(os.Stdout, service, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	return logger
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger := NewLogger(cfg, apiService)
	m := metrics.NewHTTPServerMetrics(apiService)
	app := &App{Config: cfg, Logger: logger, Metrics: m}

	observer := resilience.WithStateObserver(func(operation, _, to string) {
		m.RecordBreakerTransition(apiService, operation, to)
	})
	interactive := resilience.NewExecutor(resilience.InteractiveConfig(), resilience.WithLogger(logger), observer)
	background := resilience.NewExecutor(resilience.DefaultConfig(), resilience.WithLogger(logger), observer)

	var db *sql.DB
	openDB := func() (*sql.DB, error) {
		if db != nil {
			return db, nil
		}
		conn, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db = conn
		app.closers = append(app.closers, func() { _ = conn.Close() })
		return db, nil
	}

	source, err := newFacetSource(ctx, cfg, background, openDB)
	if err != nil {
		app.Close()
		return nil, err
	}

	rules := nlu.DefaultRuleSet()
	if cfg.RulesPath != "" {
		rules, err = nlu.LoadRuleSet(cfg.RulesPath)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("load rules: %w", err)
		}
	}

	caches := make([]*vocabulary.Cache, 0, len(cfg.FacetCollections))
	for _, collection := range cfg.FacetCollections {
		caches = append(caches, vocabulary.NewCache(collection, source, vocabulary.Options{
			TTL:           cfg.VocabTTL,
			RetryInterval: cfg.VocabRetry,
			Logger:        logger,
			Observer: func(collection string, ok bool, size int) {
				m.RecordVocabularyRefresh(apiService, collection, ok, size)
			},
		}))
	}
	app.Vocabulary = vocabulary.NewMerged(rules.KnownTerms, caches...)

	classifier := newClassifier(cfg, logger, interactive, m)

	store, err := newRetryStore(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		app.closers = append(app.closers, func() { _ = closer.Close() })
	}

	termOpts := unknownterms.Options{
		Buffer: cfg.UnknownTermsBuffer,
		Source: "api",
		Logger: logger,
		OnRecord: func(n int) {
			m.RecordUnknownTerms(apiService, "recorded", n)
		},
		OnDrop: func(n int) {
			m.RecordUnknownTerms(apiService, "dropped", n)
		},
	}
	var termReader ports.UnknownTermReader
	if cfg.NATSURL != "" {
		queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSUnknownTermsSubject, nats.Options{
			ResilienceExecutor: background,
			Logger:             logger,
			ClientName:         apiService,
		})
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("init unknown-term queue: %w", err)
		}
		app.closers = append(app.closers, queue.Close)
		termOpts.Publisher = queue

		conn, err := openDB()
		if err != nil {
			app.Close()
			return nil, err
		}
		termReader = postgres.NewUnknownTermRepository(conn)
	}
	app.UnknownTerms = unknownterms.New(termOpts)
	// Registered last so the log drains before the queue closes.
	app.closers = append(app.closers, app.UnknownTerms.Close)
	if termReader == nil {
		termReader = app.UnknownTerms
	}

	normalizer := nlu.NewNormalizer(rules, nlu.WithUnknownTermSink(app.UnknownTerms), nlu.WithLogger(logger))
	clarifier := usecase.NewClarifier(store, cfg.AccountRetryMax, logger)
	app.UnderstandUC = usecase.NewUnderstandUseCase(
		normalizer,
		nlu.NewMatcher(rules),
		nlu.NewAccountExtractor(rules),
		classifier,
		app.Vocabulary,
		usecase.NewResolver(clarifier, logger),
		usecase.NewCompiler(cfg.OrderFacetFields...),
		logger,
	)
	app.VocabularyUC = usecase.NewVocabularyUseCase(app.Vocabulary, termReader)

	logger.Info("pipeline_ready",
		"facet_source", cfg.FacetSource,
		"collections", cfg.FacetCollections,
		"classifier", cfg.Classifier,
		"retry_store", cfg.RetryStore,
		"unknown_terms_queue", cfg.NATSURL != "",
	)
	return app, nil
}

func newFacetSource(ctx context.Context, cfg config.Config, exec *resilience.Executor, openDB func() (*sql.DB, error)) (ports.FacetSource, error) {
	switch cfg.FacetSource {
	case "solr":
		return solr.New(solr.Config{
			BaseURL:            cfg.SolrURL,
			User:               cfg.SolrUser,
			Password:           cfg.SolrPass,
			InsecureSkipVerify: cfg.SolrInsecure,
		}, exec), nil
	case "file":
		return static.NewFile(cfg.FacetFile), nil
	case "postgres":
		db, err := openDB()
		if err != nil {
			return nil, err
		}
		repo := postgres.NewFacetRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure facet schema: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown facet source %q", cfg.FacetSource)
	}
}

func newClassifier(cfg config.Config, logger *slog.Logger, exec *resilience.Executor, m *metrics.HTTPServerMetrics) ports.IntentClassifier {
	if cfg.Classifier != "ollama" {
		return keyword.NewDefault()
	}
	client := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel,
		ollama.WithExecutor(exec),
		ollama.WithHTTPClient(newHTTPClient(cfg.ClassifierTimeout)),
	)
	return ollama.NewClassifier(client, cfg.IntentLabels,
		ollama.WithLogger(logger),
		ollama.WithFailureObserver(func(reason string) {
			m.RecordClassifierFailure(apiService, reason)
		}),
	)
}

func newRetryStore(ctx context.Context, cfg config.Config) (ports.RetryStore, error) {
	switch cfg.RetryStore {
	case "redis":
		store, err := redisstore.Open(ctx, redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			IdleTTL:  cfg.RetryIdleTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("init redis retry store: %w", err)
		}
		return store, nil
	case "memory", "":
		return memory.NewRetryStore(cfg.RetryIdleTTL, cfg.RetryMaxEntries), nil
	default:
		return nil, fmt.Errorf("unknown retry store %q", cfg.RetryStore)
	}
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// Warmup loads every collection once so the first request does not pay
// for the facet fetch.
func (a *App) Warmup(ctx context.Context, timeout time.Duration) {
	warmCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	vocab := a.Vocabulary.RefreshAll(warmCtx)
	a.Logger.Info("vocabulary_warmup_done", "fields", len(vocab))
}
