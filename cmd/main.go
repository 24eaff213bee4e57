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

	"github.com/fjod/shopeasy/internal/cart"
	"github.com/fjod/shopeasy/internal/catalog"
	"github.com/fjod/shopeasy/internal/checkout"
	"github.com/fjod/shopeasy/internal/config"
	h "github.com/fjod/shopeasy/internal/http"
	"github.com/fjod/shopeasy/internal/storage"
	"github.com/fjod/shopeasy/pkg/logger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

type closablePublisher interface {
	checkout.Publisher
	Close() error
}

func main() {
	cfg := config.Load()

	l, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer l.Sync()
	zap.ReplaceGlobals(l)

	// Incoming traceparent headers become the request span, so log lines
	// carry the caller's trace id.
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	ctx := context.Background()

	// Cart storage
	cartStorage, closeStorage, err := storage.Open(ctx, cfg, l)
	if err != nil {
		l.Fatal("failed to open cart storage", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
	}
	sessions := cart.NewSessions(cartStorage, l, cart.WithWriteTimeout(cfg.Storage.WriteTimeout))
	evictCtx, stopEviction := context.WithCancel(ctx)
	go sessions.RunEviction(evictCtx, cfg.Storage.SessionIdleTTL)

	// Product catalog
	repo, err := catalog.NewRepository(cfg.Catalog.DBPath)
	if err != nil {
		l.Fatal("failed to open catalog", zap.String("path", cfg.Catalog.DBPath), zap.Error(err))
	}
	defer repo.Close()
	if err := repo.RunMigrations(); err != nil {
		l.Fatal("failed to migrate catalog", zap.Error(err))
	}

	// Checkout events
	var publisher closablePublisher = nopCloser{checkout.NewLogPublisher(l)}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = checkout.NewKafkaPublisher(cfg.Kafka.Topic, cfg.Kafka.Brokers...)
		l.Info("publishing checkouts to kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic))
	}

	checkoutService := checkout.NewService(publisher, l)

	router := h.NewRouter(
		h.RouterConfig{
			RequestTimeout:     cfg.Server.RequestTimeout,
			MaxRequestBodySize: cfg.Server.MaxRequestBodySize,
		},
		h.NewCartHandler(sessions, repo, cfg.Server.RequestTimeout, l),
		h.NewCheckoutHandler(sessions, checkoutService, l),
		h.NewProductHandler(repo, l),
		l,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "shopeasy"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		l.Info("shopeasy cart service starting", zap.String("port", cfg.Server.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error("server forced to shutdown", zap.Error(err))
	}

	// Pending cart snapshots must reach storage before the backend goes away.
	stopEviction()
	sessions.Close()
	if err := closeStorage(shutdownCtx); err != nil {
		l.Warn("failed to close cart storage", zap.Error(err))
	}
	if err := publisher.Close(); err != nil {
		l.Warn("failed to close publisher", zap.Error(err))
	}

	l.Info("server exited")
}

type nopCloser struct {
	checkout.Publisher
}

func (nopCloser) Close() error { return nil }
