// Command server runs the case registry HTTP API.
//
// main wires configuration, stores, the fee engine, and the module
// services, then hands the assembled handlers to the router. Business
// logic lives in the internal service packages.
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

	_ "github.com/jackc/pgx/v5/stdlib"

	"locregistry/internal/authority"
	"locregistry/internal/chaintime"
	collectionhandler "locregistry/internal/collection/handler"
	collectionmetrics "locregistry/internal/collection/metrics"
	collectionservice "locregistry/internal/collection/service"
	collectionstore "locregistry/internal/collection/store"
	delegationhandler "locregistry/internal/delegation/handler"
	delegationservice "locregistry/internal/delegation/service"
	delegationstore "locregistry/internal/delegation/store"
	"locregistry/internal/fees"
	httpapi "locregistry/internal/http"
	jwttoken "locregistry/internal/jwt_token"
	"locregistry/internal/ledger"
	loccache "locregistry/internal/loc/cache"
	lochandler "locregistry/internal/loc/handler"
	locmetrics "locregistry/internal/loc/metrics"
	locports "locregistry/internal/loc/ports"
	locservice "locregistry/internal/loc/service"
	locstore "locregistry/internal/loc/store"
	"locregistry/internal/platform/config"
	"locregistry/internal/platform/httpserver"
	"locregistry/internal/platform/logger"
	platformmetrics "locregistry/internal/platform/metrics"
	platformredis "locregistry/internal/platform/redis"
	"locregistry/pkg/platform/audit/publisher"
	auditmemory "locregistry/pkg/platform/audit/store/memory"
	auditworker "locregistry/pkg/platform/audit/worker"
)

func main() {
	log := logger.New()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("configuration failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Case storage: Postgres when configured, in-memory otherwise. The
	// schema is applied by migrations, not at startup.
	var locs locports.LocStore
	if cfg.Postgres.URL != "" {
		db, err := sql.Open("pgx", cfg.Postgres.URL)
		if err != nil {
			log.Error("open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("ping postgres", "error", err)
			os.Exit(1)
		}
		locs = locstore.NewPostgres(db)
		log.Info("case store ready", "backend", "postgres")
	} else {
		locs = locstore.NewInMemory()
		log.Info("case store ready", "backend", "memory")
	}

	delegation := delegationstore.NewInMemory()
	collections := collectionstore.NewInMemory()
	directory := authority.New(cfg.LegalOfficers...)
	if len(cfg.LegalOfficers) == 0 {
		log.Warn("no legal officers configured, case creation will be refused")
	}

	// Audit sink: Kafka when brokers are configured, otherwise an
	// in-process worker draining into the memory store.
	var auditPublisher locports.AuditPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := publisher.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic, log)
		if err != nil {
			log.Error("connect kafka", "error", err)
			os.Exit(1)
		}
		defer kafka.Close()
		auditPublisher = kafka
		log.Info("audit sink ready", "backend", "kafka", "topic", cfg.Kafka.AuditTopic)
	} else {
		channel, inbox := publisher.NewChannel(256)
		worker := auditworker.NewWorker(auditmemory.New(), inbox)
		go func() {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("audit worker stopped", "error", err)
			}
		}()
		auditPublisher = channel
		log.Info("audit sink ready", "backend", "memory")
	}

	bank := ledger.New()
	distributor, err := fees.NewDistributor(bank, cfg.Fees.CommunityTreasury, cfg.Fees.LegalOfficersPool)
	if err != nil {
		log.Error("build fee distributor", "error", err)
		os.Exit(1)
	}
	feeEngine, err := fees.NewEngine(bank, distributor, cfg.Fees.Schedule, fees.WithLogger(log))
	if err != nil {
		log.Error("build fee engine", "error", err)
		os.Exit(1)
	}

	chain, err := chaintime.New(cfg.Chain.Genesis, cfg.Chain.BlockDuration)
	if err != nil {
		log.Error("build chain time", "error", err)
		os.Exit(1)
	}

	locSvc, err := locservice.New(locs, directory, feeEngine, delegation, delegation,
		locservice.WithLogger(log),
		locservice.WithAuditPublisher(auditPublisher),
		locservice.WithMetrics(locmetrics.New()),
	)
	if err != nil {
		log.Error("build case service", "error", err)
		os.Exit(1)
	}

	delegationSvc, err := delegationservice.New(delegation, locs, directory,
		delegationservice.WithLogger(log),
		delegationservice.WithAuditPublisher(auditPublisher),
	)
	if err != nil {
		log.Error("build delegation service", "error", err)
		os.Exit(1)
	}

	collectionSvc, err := collectionservice.New(collections, locs, feeEngine, chain, delegation, delegation.Contributors(),
		collectionservice.WithLogger(log),
		collectionservice.WithAuditPublisher(auditPublisher),
		collectionservice.WithMetrics(collectionmetrics.New()),
	)
	if err != nil {
		log.Error("build collection service", "error", err)
		os.Exit(1)
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.Info("verification cache ready")
	}
	cachedLocs := loccache.New(locSvc, redisClient, loccache.DefaultTTL, log)

	tokens := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience)

	router := httpapi.NewRouter(httpapi.Options{
		Logger:    log,
		Validator: tokens,
		Metrics:   platformmetrics.New(),
		Handlers: []httpapi.Registrar{
			lochandler.New(cachedLocs, log),
			collectionhandler.New(collectionSvc, log),
			delegationhandler.New(delegationSvc, log),
		},
	})

	srv := httpserver.New(cfg.Server.Addr, router)

	go func() {
		log.Info("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
