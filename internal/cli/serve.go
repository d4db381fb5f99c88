package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/analyzer"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/internal/store"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/redis"
)

func newServeCommand(a *app) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the search and evaluation HTTP API",
		Long: `Load the collection and serve it over HTTP. Redis result caching, PostgreSQL
evaluation history and Kafka event publishing are enabled from the
configuration; a backend that cannot be reached is disabled with a warning.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port > 0 {
				a.cfg.Server.Port = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, a.cfg)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides server.port)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	slog.Info("starting search service", "port", cfg.Server.Port)
	params, err := retrievalParams(cfg.Retrieval)
	if err != nil {
		return err
	}
	fbCfg, err := feedbackConfig(cfg.Retrieval)
	if err != nil {
		return err
	}
	m := metrics.New(prometheus.DefaultRegisterer)
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownMetrics(shutdownCtx)
		}()
	}

	paths := evaluation.Paths{
		Documents:     cfg.Corpus.DocumentsDir,
		DocumentsGlob: cfg.Corpus.DocumentsGlob,
		Queries:       cfg.Corpus.QueriesDir,
		Judgments:     cfg.Corpus.JudgmentsFile,
	}
	a := analyzer.NewEnglish()
	coll, problems, err := evaluation.LoadCollection(paths, a, cfg.Retrieval.Workers)
	for _, p := range problems {
		slog.Warn("document skipped", "error", p)
	}
	if err != nil {
		return fmt.Errorf("loading collection: %w", err)
	}

	checker := health.NewChecker()
	opts := searcher.Options{
		Defaults: params,
		Feedback: fbCfg,
		Corpus:   paths,
		Workers:  cfg.Retrieval.Workers,
		Metrics:  m,
	}

	if cfg.Redis.Enabled {
		redisClient, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			opts.Cache = cache.New(redisClient, cfg.Redis.CacheTTL)
			checker.Register("redis", health.Ping(redisClient.Ping, true))
			slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	if cfg.Postgres.Enabled {
		db, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			slog.Warn("postgres unavailable, evaluation history disabled", "error", err)
		} else {
			defer db.Close()
			st := store.New(db)
			if err := st.EnsureSchema(ctx); err != nil {
				slog.Warn("evaluation schema setup failed, history disabled", "error", err)
			} else {
				opts.Runs = st
				checker.Register("postgres", health.Ping(db.Ping, true))
			}
		}
	}

	aggregator := analytics.NewAggregator()
	trackers := analytics.Multi{aggregator}
	if cfg.Kafka.Enabled {
		searchProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents)
		evalProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.EvaluationRuns)
		defer searchProducer.Close()
		defer evalProducer.Close()
		onDrop := func() { m.EventsDroppedTotal.Inc() }
		searchCollector := analytics.NewCollector(searchProducer, analytics.CollectorOptions{OnDrop: onDrop})
		evalCollector := analytics.NewCollector(evalProducer, analytics.CollectorOptions{BatchSize: 1, OnDrop: onDrop})
		searchCollector.Start(ctx)
		evalCollector.Start(ctx)
		// Collectors flush before the producers close.
		defer searchCollector.Close()
		defer evalCollector.Close()
		trackers = append(trackers, analytics.Route{Search: searchCollector, Evaluation: evalCollector})
		slog.Info("event publishing enabled",
			"search_topic", cfg.Kafka.Topics.SearchEvents,
			"evaluation_topic", cfg.Kafka.Topics.EvaluationRuns,
		)
	}
	opts.Tracker = trackers

	svc := searcher.New(coll, opts)
	checker.Register("collection", func(ctx context.Context) health.ComponentHealth {
		c := svc.Collection()
		if c.Len() == 0 {
			return health.ComponentHealth{Status: health.StatusDown, Message: "no documents"}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d documents", c.Len())}
	})

	if cfg.Server.WatchCorpus {
		w := searcher.NewWatcher(svc, paths, a, cfg.Retrieval.Workers)
		go func() {
			if err := w.Run(ctx); err != nil {
				slog.Error("corpus watcher stopped", "error", err)
			}
		}()
	}

	mux := http.NewServeMux()
	handler.New(svc, cfg.Server.MaxResults).Register(mux)
	mux.HandleFunc("GET /api/v1/stats", analytics.NewHandler(aggregator).Stats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	mws := []func(http.Handler) http.Handler{middleware.RequestID, middleware.Metrics(m)}
	if len(cfg.Server.CORSOrigins) > 0 {
		cors := middleware.DefaultCORSConfig()
		cors.AllowOrigins = cfg.Server.CORSOrigins
		mws = append(mws, middleware.CORS(cors))
	}
	if cfg.Server.RateLimitRPS > 0 {
		limiter := middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, 10*time.Minute)
		go sweepClients(ctx, limiter)
		mws = append(mws, middleware.RateLimit(limiter))
	}
	mws = append(mws, middleware.Timeout(cfg.Server.RequestTimeout))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      middleware.Chain(mux, mws...),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// In-flight handlers still track events, so the deferred collector
	// closes must wait for Shutdown to drain them.
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

	slog.Info("search service listening", "addr", server.Addr, "documents", coll.Len())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}
	<-shutdownDone
	slog.Info("search service stopped")
	return nil
}

func sweepClients(ctx context.Context, l *middleware.RateLimiter) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := l.Sweep(now); n > 0 {
				slog.Debug("rate limiter swept idle clients", "removed", n)
			}
		}
	}
}
