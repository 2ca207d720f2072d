package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"contacts/internal/contacts/auth"
	"contacts/internal/contacts/service"
	"contacts/internal/contacts/store"
	"contacts/internal/platform/config"
	"contacts/internal/platform/database"
	"contacts/internal/platform/health"
	"contacts/internal/platform/logger"
	"contacts/internal/platform/metrics"
	platformredis "contacts/internal/platform/redis"
	httptransport "contacts/internal/transport/http"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal/contacts packages.
func main() {
	log := logger.New()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log.Info("starting contacts service",
		"addr", cfg.Addr,
		"version", cfg.Version,
	)

	verifier, err := auth.NewVerifier(cfg.PublicKey)
	if err != nil {
		log.Error("failed to load verification key", "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	healthHandler := health.New(cfg.Version, cfg.Environment)

	// A storage connectivity failure at startup is fatal rather than
	// degrading to a partial-service mode.
	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.AccountsDBURI
	pool, err := database.New(dbCfg)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}

	var contactStore service.ContactStore
	if pool != nil {
		defer pool.Close()
		healthHandler.RegisterCheck("db", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Health(ctx)
		})
		pg := store.NewPostgres(pool.DB())
		contactStore = pg

		redisClient, err := platformredis.New(cfg.RedisURL)
		if err != nil {
			log.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		if redisClient != nil {
			defer redisClient.Close()
			healthHandler.RegisterCheck("redis", func() error {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				return redisClient.Health(ctx)
			})
			contactStore = store.NewCached(pg, redisClient, log, m)
			log.Info("contact list cache enabled")
		}
	} else {
		log.Warn("no ACCOUNTS_DB_URI configured, using in-memory contact store")
		contactStore = store.NewMemory()
	}

	svc := service.New(contactStore, cfg.LocalRoutingNum,
		service.WithLogger(log),
		service.WithMetrics(m),
	)

	handler := httptransport.NewContactsHandler(svc, verifier, log, m)
	router := httptransport.NewRouter(handler, healthHandler, log, m)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown on SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	log.Info("stopping contacts service")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
