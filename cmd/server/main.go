// The server binary exposes the engine's HTTP surface: job submission,
// result polling, health, and metrics. Proofing itself happens in the worker
// binary.
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

	_ "github.com/lib/pq"

	"idproof/internal/platform/config"
	"idproof/internal/platform/httpserver"
	"idproof/internal/platform/logger"
	"idproof/internal/platform/queue/kafka"
	platformredis "idproof/internal/platform/redis"
	"idproof/internal/proofing/async"
	"idproof/internal/proofing/handler"
	"idproof/internal/proofing/metrics"
	"idproof/internal/proofing/session"
	"idproof/internal/proofing/store"
	httptransport "idproof/internal/transport/http"
	audit "idproof/pkg/platform/audit"
	"idproof/pkg/platform/audit/publisher"
	auditmem "idproof/pkg/platform/audit/store/memory"
	auditpg "idproof/pkg/platform/audit/store/postgres"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(slog.LevelInfo)

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}

	var (
		results  handler.Results
		sessions session.Store
	)
	checks := map[string]httptransport.HealthCheck{}
	if redisClient != nil {
		results = store.NewRedisStore(redisClient.Client, cfg.Proofing.ResultTTL)
		sessions = session.NewRedisStore(redisClient.Client, cfg.Proofing.ResultTTL)
		checks["redis"] = redisClient.Health
		defer redisClient.Close()
	} else {
		// No REDIS_URL means a single-process smoke-test deployment; the
		// worker runs in its own process and will not see these stores.
		log.Warn("redis not configured, using in-memory stores")
		results = store.NewInMemoryStore()
		sessions = session.NewInMemoryStore()
	}

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		log.Error("kafka producer failed", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	auditPub, closeAudit := buildAudit(cfg, log)
	defer closeAudit()

	m := metrics.New()
	submitter := async.NewSubmitter(producer, sessions, cfg.Kafka.JobTopic, m, auditPub, log)

	router := httptransport.NewRouter(log, handler.New(results, submitter, log), checks)
	srv := httpserver.New(cfg.HTTP.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("server listening", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

// buildAudit wires the audit trail: postgres-backed when a database is
// configured, in-memory otherwise.
func buildAudit(cfg *config.Config, log *slog.Logger) (*publisher.Publisher, func()) {
	var auditStore audit.Store = auditmem.NewInMemoryStore()
	closeDB := func() {}

	if cfg.Postgres.URL != "" {
		db, err := sql.Open("postgres", cfg.Postgres.URL)
		if err != nil {
			log.Warn("audit database unavailable, using in-memory store", "error", err)
		} else {
			auditStore = auditpg.New(db)
			closeDB = func() { _ = db.Close() }
		}
	}

	pub := publisher.NewPublisher(auditStore, publisher.WithAsyncBuffer(256))
	return pub, func() {
		pub.Close()
		closeDB()
	}
}
