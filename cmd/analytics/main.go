// Command analytics runs the standalone stats service.
//
// It consumes search and evaluation events published by `vsm serve`,
// aggregates them in memory (search counts per type and method, latency
// percentiles, cache hit rate, zero-result queries, most returned documents,
// evaluation history) and serves them at GET /api/v1/stats. With PostgreSQL
// enabled it snapshots the aggregate periodically.
//
// Usage:
//
//	go run ./cmd/analytics [-config configs/vsm.yaml]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/store"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Setup(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	if !cfg.Kafka.Enabled {
		slog.Error("analytics service needs kafka.enabled")
		os.Exit(1)
	}
	slog.Info("starting analytics service", "port", cfg.Analytics.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	aggregator := analytics.NewAggregator()
	checker := health.NewChecker()

	var st *store.Store
	if cfg.Postgres.Enabled {
		db, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			slog.Warn("postgres unavailable, snapshots disabled", "error", err)
		} else {
			defer db.Close()
			st = store.New(db)
			if err := st.EnsureSchema(ctx); err != nil {
				slog.Error("schema setup failed", "error", err)
				os.Exit(1)
			}
			st.StartPeriodicSave(ctx, aggregator, cfg.Analytics.SnapshotInterval)
			checker.Register("postgres", health.Ping(db.Ping, true))
		}
	}

	var wg sync.WaitGroup
	for _, topic := range []string{cfg.Kafka.Topics.SearchEvents, cfg.Kafka.Topics.EvaluationRuns} {
		consumer := kafka.NewConsumer(cfg.Kafka, topic, aggregator.Handle)
		wg.Go(func() {
			if err := consumer.Start(ctx); err != nil {
				slog.Error("consumer stopped", "topic", topic, "error", err)
			}
		})
	}
	slog.Info("analytics consumers started",
		"search_topic", cfg.Kafka.Topics.SearchEvents,
		"evaluation_topic", cfg.Kafka.Topics.EvaluationRuns,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/stats", analytics.NewHandler(aggregator).Stats)
	mux.HandleFunc("GET /api/v1/stats/snapshot", func(w http.ResponseWriter, r *http.Request) {
		writeSnapshot(w, r, st)
	})
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Analytics.Port),
		Handler:      middleware.Chain(mux, middleware.RequestID, middleware.Timeout(cfg.Server.RequestTimeout)),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("analytics service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	<-shutdownDone
	wg.Wait()
	slog.Info("analytics service stopped")
}

// writeSnapshot serves the last persisted aggregate, which survives restarts
// of this service.
func writeSnapshot(w http.ResponseWriter, r *http.Request, st *store.Store) {
	w.Header().Set("Content-Type", "application/json")
	if st == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "snapshots are disabled"})
		return
	}
	snap, err := st.LatestSnapshot(r.Context())
	if err != nil {
		status := apperrors.HTTPStatusCode(err)
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	if snap == nil {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "no snapshot yet"})
		return
	}
	_ = json.NewEncoder(w).Encode(snap)
}
