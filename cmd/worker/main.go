// The worker binary consumes proofing jobs from the queue and drives the
// agent. Vendor configuration is validated before the consumer joins the
// group: a deployment that cannot cover every stage must not start.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"idproof/internal/platform/config"
	"idproof/internal/platform/logger"
	"idproof/internal/platform/queue/kafka"
	platformredis "idproof/internal/platform/redis"
	"idproof/internal/proofing/agent"
	"idproof/internal/proofing/async"
	"idproof/internal/proofing/duplicates"
	dupstore "idproof/internal/proofing/duplicates/store"
	"idproof/internal/proofing/metrics"
	"idproof/internal/proofing/resolve"
	"idproof/internal/proofing/schedule"
	"idproof/internal/proofing/session"
	"idproof/internal/proofing/store"
	"idproof/internal/proofing/vendors"
	"idproof/internal/proofing/vendors/aamva"
	"idproof/internal/proofing/vendors/lexisnexis"
	"idproof/internal/proofing/vendors/mock"
	audit "idproof/pkg/platform/audit"
	"idproof/pkg/platform/audit/publisher"
	auditmem "idproof/pkg/platform/audit/store/memory"
	auditpg "idproof/pkg/platform/audit/store/postgres"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(slog.LevelInfo)

	registry, err := buildRegistry(cfg)
	if err != nil {
		log.Error("vendor registry construction failed", "error", err)
		os.Exit(1)
	}
	if err := registry.ValidateVendors(); err != nil {
		log.Error("vendor validation failed", "error", err)
		os.Exit(1)
	}

	scheduler, err := schedule.New(schedule.DefaultWindows())
	if err != nil {
		log.Error("maintenance schedule invalid", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	var (
		results  store.ResultStore
		sessions session.Store
	)
	if redisClient != nil {
		results = store.NewRedisStore(redisClient.Client, cfg.Proofing.ResultTTL)
		sessions = session.NewRedisStore(redisClient.Client, cfg.Proofing.ResultTTL)
		defer redisClient.Close()
	} else {
		log.Warn("redis not configured, results will not survive this process")
		results = store.NewInMemoryStore()
		sessions = session.NewInMemoryStore()
	}

	auditPub, closeAudit := buildAudit(cfg, log)
	defer closeAudit()

	m := metrics.New()
	ssnCheck, closeProfiles := buildSsnCheck(ctx, cfg, m, auditPub, log)
	defer closeProfiles()

	proofingAgent := agent.New(registry, results, scheduler, resolve.DefaultChain(), m, log, cfg.Proofing.VendorTimeout)
	runner := async.NewRunner(proofingAgent, results, sessions, ssnCheck, m, auditPub, log)

	consumer, err := kafka.NewConsumer(cfg.Kafka, log)
	if err != nil {
		log.Error("kafka consumer failed", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	go serveMetrics(cfg.HTTP.Addr, log)

	log.Info("worker consuming",
		"topic", cfg.Kafka.JobTopic,
		"group", cfg.Kafka.ConsumerGroup,
	)
	if err := consumer.Run(ctx, runner.Handle); err != nil && ctx.Err() == nil {
		log.Error("consumer stopped", "error", err)
		os.Exit(1)
	}
	log.Info("worker stopped")
}

// buildRegistry assembles the available vendor implementations. Real vendors
// are constructed only when their credentials are present; the ordered vendor
// list then decides which implementation serves each stage.
func buildRegistry(cfg *config.Config) (*vendors.Registry, error) {
	httpClient := &http.Client{Timeout: cfg.Proofing.VendorTimeout}

	var available []vendors.Vendor
	if cfg.Vendors.LexisNexis.BaseURL != "" {
		creds := lexisnexis.Credentials{
			BaseURL:   cfg.Vendors.LexisNexis.BaseURL,
			AccountID: cfg.Vendors.LexisNexis.AccountID,
			Username:  cfg.Vendors.LexisNexis.Username,
			Password:  cfg.Vendors.LexisNexis.Password,
			Mode:      cfg.Vendors.LexisNexis.Mode,
		}
		available = append(available,
			lexisnexis.NewResolution(creds, httpClient),
			lexisnexis.NewAddress(creds, httpClient),
			lexisnexis.NewPhoneFinder(creds, httpClient),
		)
	}
	if cfg.Vendors.AAMVA.BaseURL != "" {
		available = append(available, aamva.New(aamva.Credentials{
			BaseURL:  cfg.Vendors.AAMVA.BaseURL,
			ClientID: cfg.Vendors.AAMVA.ClientID,
			Secret:   cfg.Vendors.AAMVA.Secret,
		}, httpClient))
	}

	return vendors.NewRegistry(cfg.Proofing.VendorList, available, mock.All(), cfg.Proofing.MockFallback)
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

// buildSsnCheck wires duplicate-SSN detection when fingerprint keys are
// configured. Without keys the signal is disabled entirely.
func buildSsnCheck(ctx context.Context, cfg *config.Config, m *metrics.Metrics, auditPub *publisher.Publisher, log *slog.Logger) (async.SsnChecker, func()) {
	noop := func() {}
	if len(cfg.Proofing.SsnFingerprintKeys) == 0 {
		log.Warn("no ssn fingerprint keys configured, duplicate detection disabled")
		return nil, noop
	}
	keys, err := duplicates.NewKeyRing(cfg.Proofing.SsnFingerprintKeys)
	if err != nil {
		log.Error("invalid ssn fingerprint key ring", "error", err)
		os.Exit(1)
	}

	var profiles dupstore.ProfileStore = dupstore.NewInMemoryStore()
	closeDB := noop
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.New(ctx, cfg.Postgres.URL)
		if err != nil {
			log.Warn("profile database unavailable, using in-memory store", "error", err)
		} else {
			profiles = dupstore.NewPostgresStore(pool)
			closeDB = pool.Close
		}
	}

	finder := duplicates.NewFinder(profiles, keys, cfg.Proofing.FacialMatchIssuers, m, auditPub, log)
	return finder, closeDB
}

// serveMetrics exposes the worker's own metrics and liveness endpoint.
func serveMetrics(addr string, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("metrics listener failed", "error", err)
	}
}
