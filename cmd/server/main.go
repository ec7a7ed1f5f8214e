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

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"kycgate/internal/account"
	"kycgate/internal/audit"
	jwttoken "kycgate/internal/jwt_token"
	"kycgate/internal/onboarding"
	"kycgate/internal/otp"
	"kycgate/internal/platform/config"
	"kycgate/internal/platform/httpserver"
	"kycgate/internal/platform/logger"
	platformredis "kycgate/internal/platform/redis"
	"kycgate/internal/review"
	httptransport "kycgate/internal/transport/http"
	"kycgate/internal/verification"
	vmetrics "kycgate/internal/verification/metrics"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := vmetrics.New()

	// Stores: postgres when configured, in-memory otherwise.
	var (
		verificationStore verification.Store
		accountStore      account.Store
		auditStore        audit.Store
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("failed to ping postgres", "error", err)
			os.Exit(1)
		}

		vs := verification.NewPostgresStore(db)
		as := account.NewPostgresStore(db)
		aus := audit.NewPostgresStore(db)
		for _, ensure := range []func(context.Context) error{vs.EnsureSchema, as.EnsureSchema, aus.EnsureSchema} {
			if err := ensure(ctx); err != nil {
				log.Error("failed to ensure schema", "error", err)
				os.Exit(1)
			}
		}
		verificationStore, accountStore, auditStore = vs, as, aus
	} else {
		log.Warn("POSTGRES_DSN not set, using in-memory stores")
		verificationStore = verification.NewMemoryStore()
		accountStore = account.NewMemoryStore()
		auditStore = audit.NewMemoryStore()
	}

	// Optional record cache for the status-poll read path.
	if cfg.RedisURL != "" {
		redisClient, err := platformredis.New(cfg.RedisURL)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		verificationStore = verification.NewCachedStore(verificationStore, redisClient.Client, cfg.CacheTTL, metrics)
	}

	// Audit pipeline: publisher inbox drained by a worker, optional Kafka sink.
	publisher := audit.NewPublisher(256, log)
	var sink audit.Sink
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("failed to create kafka sink", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sink = kafkaSink
	}
	auditWorker := audit.NewWorker(auditStore, sink, publisher.Inbox(), log)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "kycgate")
	otpStore := otp.NewStore(cfg.OTPTTL)

	accountService := account.NewService(accountStore, verificationStore, otpStore,
		account.LogNotifier{Log: log}, jwtService, publisher, cfg.AccessTokenTTL)
	if err := account.SeedAdmin(ctx, accountStore, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Error("failed to seed admin account", "error", err)
		os.Exit(1)
	}

	onboardingService := onboarding.NewService(verificationStore, publisher, metrics)
	reviewService := review.NewService(verificationStore, identityAdapter{accounts: accountService}, publisher, metrics)

	router := httptransport.NewRouter(log,
		account.NewHandler(accountService, log, jwtService),
		onboarding.NewHandler(onboardingService, log, jwtService),
		review.NewHandler(reviewService, log, jwtService),
	)
	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting kycgate", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		err := auditWorker.Run(groupCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	group.Go(func() error {
		err := otpStore.Run(groupCtx, time.Minute)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}
