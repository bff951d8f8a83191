package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"attest/internal/audit"
	"attest/internal/compliance"
	"attest/internal/platform/config"
	"attest/internal/platform/httpserver"
	"attest/internal/platform/logger"
	"attest/internal/platform/middleware"
	platformredis "attest/internal/platform/redis"
	"attest/internal/record/handler"
	"attest/internal/record/merge"
	recordmetrics "attest/internal/record/metrics"
	"attest/internal/record/models"
	"attest/internal/record/service"
	"attest/internal/record/store"
	"attest/pkg/domain"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	records, officers, cleanup, err := buildStores(ctx, cfg)
	if err != nil {
		log.Error("failed to initialize stores", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect redis", "error", err)
		os.Exit(1)
	}

	metrics := recordmetrics.New()
	publisher := audit.NewPublisher(log)

	auditCtx, stopAudit := context.WithCancel(ctx)
	defer stopAudit()
	go runAuditWorker(auditCtx, cfg, log, publisher)

	opts := []service.Option{
		service.WithMetrics(metrics),
		service.WithAuditPublisher(publisher),
		service.WithEngine(merge.NewEngine(merge.WithLockPolicy(lockPolicy(cfg)))),
		service.WithEvaluator(compliance.NewEvaluator(compliance.WithPolicy(compliancePolicy(cfg)))),
	}
	if redisClient != nil {
		opts = append(opts, service.WithSummaryCache(
			service.NewSummaryCache(redisClient.Client, cfg.SummaryCacheTTL)))
	}
	svc := service.New(records, officers, log, opts...)

	router := chi.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.Logger(log))
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", promhttp.Handler())
	handler.New(svc, log).Register(router)

	srv := httpserver.New(cfg.Addr, router,
		httpserver.WithReadTimeout(cfg.HTTPReadTimeout),
		httpserver.WithWriteTimeout(cfg.HTTPWriteTimeout))
	log.Info("starting attest", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

// buildStores selects PostgreSQL when DATABASE_URL is set, in-memory
// otherwise.
func buildStores(ctx context.Context, cfg config.Config) (store.RecordStore, store.OfficerStore, func(), error) {
	if cfg.DatabaseURL == "" {
		return store.NewInMemoryRecordStore(), store.NewInMemoryOfficerStore(), func() {}, nil
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := store.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	return store.NewPostgresRecordStore(pool), store.NewPostgresOfficerStore(pool), pool.Close, nil
}

// runAuditWorker picks the best available sink: Kafka when brokers are
// configured, the postgres outbox when only a database is, memory otherwise.
func runAuditWorker(ctx context.Context, cfg config.Config, log *slog.Logger, publisher *audit.Publisher) {
	var sink audit.Sink
	switch {
	case len(cfg.KafkaBrokers) > 0:
		kafkaSink, err := audit.NewKafkaSink(ctx, cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("failed to connect kafka audit sink", "error", err)
			sink = audit.NewInMemorySink()
		} else {
			defer kafkaSink.Close()
			sink = kafkaSink
		}
	case cfg.DatabaseURL != "":
		pgSink, err := audit.OpenPostgresSink(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to open postgres audit sink", "error", err)
			sink = audit.NewInMemorySink()
		} else {
			defer pgSink.Close()
			sink = pgSink
		}
	default:
		sink = audit.NewInMemorySink()
	}
	_ = publisher.Run(ctx, sink)
}

func lockPolicy(cfg config.Config) models.LockPolicy {
	policy := models.DefaultLockPolicy()
	if cfg.LockAllRoles {
		for role := range policy {
			policy[role] = true
		}
	}
	return policy
}

func compliancePolicy(cfg config.Config) compliance.Policy {
	policy := compliance.DefaultPolicy()
	for role, fields := range cfg.RequiredFieldOverrides {
		parsed, err := domain.ParseRole(role)
		if err != nil {
			continue
		}
		var required []models.Field
		for _, f := range fields {
			required = append(required, models.Field(f))
		}
		policy[parsed] = required
	}
	return policy
}
