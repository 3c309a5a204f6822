package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/jackc/pgx/v5/stdlib"

	"recert/internal/audit"
	"recert/internal/jwttoken"
	"recert/internal/platform/config"
	"recert/internal/platform/httpserver"
	"recert/internal/platform/logger"
	platformredis "recert/internal/platform/redis"
	"recert/internal/review/directory"
	"recert/internal/review/entitlement"
	"recert/internal/review/handler"
	reviewmetrics "recert/internal/review/metrics"
	"recert/internal/review/notify"
	"recert/internal/review/service"
	"recert/internal/review/store/campaign"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal service
// packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Store: Postgres when configured, in-memory otherwise.
	var store service.Store = campaign.NewInMemory()
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			log.Error("open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("database unreachable", "error", err)
			os.Exit(1)
		}
		store = campaign.NewPostgres(db)
		log.Info("using postgres store")
	} else {
		log.Warn("DATABASE_URL not set; using in-memory store")
	}

	// Audit trail: Kafka sink when brokers are configured; otherwise an
	// in-memory store drained by a background worker.
	var auditPublisher service.AuditPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher, err := audit.NewKafkaPublisher(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("connect kafka audit sink", "error", err)
			os.Exit(1)
		}
		defer kafkaPublisher.Close()
		auditPublisher = kafkaPublisher
		log.Info("audit events flowing to kafka", "topic", cfg.Kafka.Topic)
	} else {
		asyncPublisher, worker := audit.NewAsync(audit.NewMemoryStore(), 256)
		go func() {
			if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error("audit worker stopped", "error", err)
			}
		}()
		auditPublisher = asyncPublisher
	}

	// Reviewer directory, with a Redis lookaside cache when configured.
	var dir directory.Directory = directory.NewInMemory()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		dir = directory.NewCached(dir, redisClient.Client, cfg.Redis.CacheTTL, log)
		log.Info("reviewer directory cache enabled")
	}

	// Entitlement snapshot source: grant export file when configured.
	source := entitlement.NewStatic()
	if cfg.EntitlementFile != "" {
		loaded, err := entitlement.LoadFile(cfg.EntitlementFile)
		if err != nil {
			log.Error("load entitlement file", "error", err)
			os.Exit(1)
		}
		source = loaded
	} else {
		log.Warn("ENTITLEMENT_FILE not set; campaigns cannot be seeded")
	}

	metrics := reviewmetrics.New()

	svc := service.New(store, source,
		service.WithLogger(log),
		service.WithMetrics(metrics),
		service.WithAuditPublisher(auditPublisher),
	)

	// Notification channel: webhook when configured; the dispatcher falls
	// back to composed messages when it is absent or failing.
	var channel notify.Channel
	if cfg.Notify.WebhookURL != "" {
		channel = notify.NewWebhookChannel(cfg.Notify.WebhookURL, cfg.Notify.Timeout)
	}
	dispatcher := notify.NewDispatcher(svc, dir, channel,
		notify.WithLogger(log),
		notify.WithMetrics(metrics),
		notify.WithAuditPublisher(auditPublisher),
		notify.WithTimeout(cfg.Notify.Timeout),
	)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "recert", "recert-api")

	router := chi.NewRouter()
	handler.New(svc, dispatcher, log, jwtService).Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting recert", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
