package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"clearport/internal/identity"
	identitystore "clearport/internal/identity/store"
	memberstore "clearport/internal/member/store"
	"clearport/internal/notification"
	"clearport/internal/platform/config"
	"clearport/internal/platform/httpserver"
	"clearport/internal/platform/kafka"
	"clearport/internal/platform/logger"
	platformmetrics "clearport/internal/platform/metrics"
	platformredis "clearport/internal/platform/redis"
	"clearport/internal/review"
	reviewhandler "clearport/internal/review/handler"
	reviewmetrics "clearport/internal/review/metrics"
	"clearport/pkg/platform/audit"
	auditmemory "clearport/pkg/platform/audit/store/memory"
	auditpostgres "clearport/pkg/platform/audit/store/postgres"
	auditworker "clearport/pkg/platform/audit/worker"
	"clearport/pkg/platform/middleware/principal"
	"clearport/pkg/platform/middleware/requestid"
	"clearport/pkg/platform/middleware/requesttime"
)

const reconcileInterval = 5 * time.Minute

// main wires storage, the identity resolver, the review pipeline, and the
// background workers. Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		db         *sql.DB
		members    review.ApplicationRepository
		mismatches review.MismatchRepository
		users      identity.UserStore
		auditStore audit.Store
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("database unreachable", "error", err)
			os.Exit(1)
		}

		pgMembers := memberstore.NewPostgres(db)
		members = pgMembers
		mismatches = pgMembers
		users = identitystore.NewPostgres(db)
		auditStore = auditpostgres.New(db)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		memMembers := memberstore.NewMemory()
		members = memMembers
		mismatches = memMembers
		memUsers := identitystore.NewMemory()
		users = memUsers
		auditStore = auditmemory.New()

		if cfg.SeedDev {
			if err := seedDev(ctx, log, memUsers, memMembers, cfg); err != nil {
				log.Error("dev seed failed", "error", err)
				os.Exit(1)
			}
		}
	}

	rdb, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	var roleCache identity.RoleCache
	if rdb != nil {
		defer rdb.Close()
		roleCache = identity.NewRedisRoleCache(rdb.Client)
	}
	resolver := identity.NewResolver(users, roleCache, []byte(cfg.JWTSigningKey))

	producer, err := kafka.NewProducer(ctx, cfg.Kafka)
	if err != nil {
		log.Error("failed to connect to kafka", "error", err)
		os.Exit(1)
	}
	if producer != nil {
		defer producer.Close()
	}

	var sender notification.Sender
	if cfg.SMTP.Host != "" {
		sender = notification.NewCircuitSender(notification.NewSMTPSender(cfg.SMTP), log)
	} else {
		log.Warn("SMTP_HOST not set, decision emails are logged only")
		sender = notification.NewLogSender(log)
	}

	auditor := audit.NewPublisher(auditStore, log)
	m := reviewmetrics.New()
	service := review.New(members, auditor,
		review.WithLogger(log),
		review.WithMetrics(m),
		review.WithSender(sender),
	)
	reconciler := review.NewReconciler(mismatches, auditor, log, m)

	httpMetrics := platformmetrics.New()

	router := chi.NewRouter()
	router.Use(requestid.Middleware)
	router.Use(httpMetrics.Middleware)
	router.Use(requesttime.Middleware)
	router.Use(principal.Middleware(resolver, log))
	reviewhandler.New(service, log).Register(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", healthz(db, rdb))

	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting clearport", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		if err := reconciler.Start(ctx, reconcileInterval); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	if producer != nil {
		pgStore, ok := auditStore.(*auditpostgres.Store)
		if !ok {
			log.Error("kafka audit publishing requires the postgres audit store")
			os.Exit(1)
		}
		worker := auditworker.New(pgStore, producer, log)
		g.Go(func() error {
			if err := worker.Run(ctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func healthz(db *sql.DB, rdb *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				http.Error(w, "database unreachable", http.StatusServiceUnavailable)
				return
			}
		}
		if rdb != nil {
			if err := rdb.Health(r.Context()); err != nil {
				http.Error(w, "redis unreachable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}
}
