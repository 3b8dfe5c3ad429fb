package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sentinelle/internal/audit"
	"sentinelle/internal/decision"
	"sentinelle/internal/decision/handler"
	"sentinelle/internal/decision/metrics"
	"sentinelle/internal/jwttoken"
	"sentinelle/internal/platform/config"
	"sentinelle/internal/platform/httpserver"
	"sentinelle/internal/platform/logger"
	"sentinelle/internal/platform/postgres"
	platformredis "sentinelle/internal/platform/redis"
	"sentinelle/internal/report"
	"sentinelle/internal/scoring"
	httptransport "sentinelle/internal/transport/http"
	authmw "sentinelle/pkg/platform/middleware/auth"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Environment)

	warnings, err := cfg.Validate()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	for _, warning := range warnings {
		log.Warn("configuration warning", "warning", warning)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Decision store: PostgreSQL when configured, otherwise in-memory.
	var store decision.Store = decision.NewInMemoryStore()
	db, err := openDatabase(ctx, cfg, log)
	if err != nil {
		log.Error("postgres unavailable", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
		store = decision.NewPostgres(db)
	}

	rdb, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis unavailable", "error", err)
		os.Exit(1)
	}
	if rdb != nil {
		defer rdb.Close()
		log.Info("decision read cache enabled", "ttl", cfg.Redis.CacheTTL)
	}
	store = decision.NewCachedStore(store, rdb, cfg.Redis.CacheTTL, log)

	auditor, auditCleanup, err := buildAuditPublisher(cfg, log)
	if err != nil {
		log.Error("audit sink unavailable", "error", err)
		os.Exit(1)
	}
	defer auditCleanup()

	reporter := report.NewClient(cfg.Agent.Enabled, cfg.Agent.BaseURL, cfg.Agent.Timeout)
	if reporter != nil {
		log.Info("narrative agent enabled", "base_url", cfg.Agent.BaseURL)
	}

	svc, err := decision.NewService(
		scoring.NewScorecard(),
		scoring.NewAnomalyScorer(),
		cfg.Thresholds,
		store,
		auditor,
		reporter,
		metrics.New(),
		log,
		cfg.ClientIDSalt,
	)
	if err != nil {
		log.Error("service construction failed", "error", err)
		os.Exit(1)
	}

	var validator authmw.TokenValidator
	if cfg.JWTSigningKey != "" {
		jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "sentinelle", "reviewers")
		validator = jwttoken.NewJWTServiceAdapter(jwtService)
		log.Info("reviewer authentication enabled")
	} else {
		log.Warn("reviewer authentication disabled, review endpoint accepts body reviewer_id")
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:          log,
		DecisionHandler: handler.New(svc, log),
		TokenValidator:  validator,
		DB:              db,
		Redis:           rdb,
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting sentinelle", "addr", cfg.Addr, "environment", cfg.Environment)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	log.Info("sentinelle stopped")
}

func openDatabase(ctx context.Context, cfg config.Config, log *slog.Logger) (*sql.DB, error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory decision store")
		return nil, nil
	}
	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	log.Info("postgres decision store enabled")
	return db, nil
}

// buildAuditPublisher selects the audit sink: Kafka when brokers are
// configured, otherwise the in-process store. The returned cleanup drains the
// async buffer and releases the sink.
func buildAuditPublisher(cfg config.Config, log *slog.Logger) (*audit.Publisher, func(), error) {
	var sink audit.Store = audit.NewInMemoryStore()
	cleanup := func() {}

	if len(cfg.Audit.KafkaBrokers) > 0 {
		kafkaStore, err := audit.NewKafkaStore(cfg.Audit.KafkaBrokers, cfg.Audit.KafkaTopic)
		if err != nil {
			return nil, nil, err
		}
		sink = kafkaStore
		cleanup = kafkaStore.Close
		log.Info("kafka audit sink enabled",
			"brokers", cfg.Audit.KafkaBrokers,
			"topic", cfg.Audit.KafkaTopic,
		)
	}

	publisher := audit.NewPublisher(sink, audit.WithAsyncBuffer(cfg.Audit.AsyncBuffer))
	sinkCleanup := cleanup
	return publisher, func() {
		publisher.Close()
		sinkCleanup()
	}, nil
}
