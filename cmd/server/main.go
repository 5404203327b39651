package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpapi "github.com/market-hub/market-hub/internal/api/http"
	"github.com/market-hub/market-hub/internal/application/audit"
	appDispute "github.com/market-hub/market-hub/internal/application/dispute"
	appIdem "github.com/market-hub/market-hub/internal/application/idempotency"
	appListing "github.com/market-hub/market-hub/internal/application/listing"
	"github.com/market-hub/market-hub/internal/application/maintenance"
	appPolicy "github.com/market-hub/market-hub/internal/application/policy"
	appRequest "github.com/market-hub/market-hub/internal/application/request"
	"github.com/market-hub/market-hub/internal/application/transition"
	appUser "github.com/market-hub/market-hub/internal/application/user"
	"github.com/market-hub/market-hub/internal/config"
	"github.com/market-hub/market-hub/internal/domain/dispute"
	domainIdem "github.com/market-hub/market-hub/internal/domain/idempotency"
	"github.com/market-hub/market-hub/internal/domain/listing"
	"github.com/market-hub/market-hub/internal/domain/request"
	"github.com/market-hub/market-hub/internal/infrastructure/keystore"
	"github.com/market-hub/market-hub/internal/infrastructure/metrics"
	"github.com/market-hub/market-hub/internal/infrastructure/postgres"
	redisstore "github.com/market-hub/market-hub/internal/infrastructure/redis"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		log.Fatalf("db error: %v", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool, cfg.MigrationsDir); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	// repositories
	listingRepo := postgres.NewListingRepository(pool)
	requestRepo := postgres.NewRequestRepository(pool)
	disputeRepo := postgres.NewDisputeRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)
	watchRepo := postgres.NewWatchRuleRepository(pool)
	countersRepo := postgres.NewCountersRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	runner := postgres.NewRunner(pool)

	var idemStore domainIdem.Store
	if cfg.RedisAddr != "" {
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis error: %v", err)
		}
		idemStore = redisstore.NewIdempotencyStore(client)
	} else {
		idemStore = postgres.NewIdempotencyRepository(pool)
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	// services
	keys, err := keystore.NewFromEnv()
	if err != nil {
		log.Fatalf("keystore error: %v", err)
	}
	auditSvc := audit.NewService(auditRepo, logger, keys.SigningKey())

	listingCoord := transition.NewCoordinator(transition.Config{
		EntityType: "listing",
		Definition: listing.Machine,
		StateFor:   listing.StateFor,
		StatusFor:  listing.StatusFor,
		Authorize:  listing.Authorize,
	}, listingRepo, runner, auditSvc, m, logger)
	requestCoord := transition.NewCoordinator(transition.Config{
		EntityType: "request",
		Definition: request.Machine,
		StateFor:   request.StateFor,
		StatusFor:  request.StatusFor,
		Authorize:  request.Authorize,
	}, requestRepo, runner, auditSvc, m, logger)
	disputeCoord := transition.NewCoordinator(transition.Config{
		EntityType: "dispute",
		Definition: dispute.Machine,
		StateFor:   dispute.StateFor,
		StatusFor:  dispute.StatusFor,
		Authorize:  dispute.Authorize,
	}, disputeRepo, runner, auditSvc, m, logger)

	policyCfg := appPolicy.Config{Trust: cfg.Trust, Restriction: cfg.Restriction, Fraud: cfg.Fraud}
	policySvc := appPolicy.NewService(countersRepo, watchRepo, auditSvc, policyCfg, m, logger)
	listingSvc := appListing.NewService(listingRepo, listingCoord, policySvc, logger)
	requestSvc := appRequest.NewService(requestRepo, listingRepo, requestCoord, runner, policySvc, logger)
	disputeSvc := appDispute.NewService(disputeRepo, requestRepo, disputeCoord, requestCoord, runner, logger)
	userSvc := appUser.NewService(userRepo, logger)
	idemSvc := appIdem.NewService(idemStore, m, logger)
	idemSvc.SetTTL(cfg.IdempotencyTTL)

	sweeper := maintenance.NewSweeper(requestRepo, requestCoord, idemSvc, m, logger)

	// API server
	apiServer := httpapi.NewServer(listingSvc, requestSvc, disputeSvc, policySvc, userSvc, auditSvc, idemSvc, watchRepo, registry)

	httpServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      apiServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// background loops
	sweepCtx, stopSweeps := context.WithCancel(ctx)
	defer stopSweeps()
	go sweeper.Run(sweepCtx, cfg.ExpireSweepEvery, cfg.IdemSweepEvery)

	// start server
	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	stopSweeps()
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
}
