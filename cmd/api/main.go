package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/kirillkom/catalog-nlq/internal/adapters/http"
	"github.com/kirillkom/catalog-nlq/internal/bootstrap"
	"github.com/kirillkom/catalog-nlq/internal/config"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()
	logger := app.Logger

	app.Warmup(ctx, 15*time.Second)

	router := httpadapter.NewRouter(app.UnderstandUC, app.VocabularyUC, httpadapter.Options{
		ServiceName:          "nlq-api",
		TrustPrivilegeHeader: cfg.TrustPrivilegeHeader,
		RateLimitRPS:         cfg.APIRateLimitRPS,
		RateLimitBurst:       cfg.APIRateLimitBurst,
		MaxInFlight:          256,
		InFlightWait:         250 * time.Millisecond,
		Metrics:              app.Metrics,
	}).Handler()
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_failed", "error", err)
	}
}
