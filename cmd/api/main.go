package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tradecrm/crm-backend/internal/api"
	"github.com/tradecrm/crm-backend/internal/auth"
	"github.com/tradecrm/crm-backend/internal/config"
	"github.com/tradecrm/crm-backend/internal/db"
	"github.com/tradecrm/crm-backend/internal/logger"
	"github.com/tradecrm/crm-backend/internal/metrics"
	"github.com/tradecrm/crm-backend/internal/middleware"
	"github.com/tradecrm/crm-backend/internal/repository/postgres"
	"github.com/tradecrm/crm-backend/internal/services"
	"github.com/tradecrm/crm-backend/internal/session"
	"github.com/tradecrm/crm-backend/internal/worker"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if os.Getenv("APP_MIGRATE") == "true" {
		if err := db.RunMigrations(ctx, pool); err != nil {
			log.Error("migrations", "err", err)
			os.Exit(1)
		}
	}

	redisClient, err := session.Dial(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis connect", "err", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	repos := postgres.NewRepositories(pool)
	wp := worker.NewPool(4)
	defer wp.Stop()

	sink := services.NewDispatcher(cfg.AMQPURL, log, wp)
	tm := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTTL, cfg.RefreshTTL)
	sessions := session.NewStore(redisClient, cfg.RefreshTTL)

	deps := api.Deps{
		Cfg:        cfg,
		Auth:       middleware.NewAuthMiddleware(tm),
		AuthSvc:    services.NewAuthService(repos.Users, repos.AuditLogs, tm, sessions, sink, log),
		Users:      services.NewUserService(repos.Users, sink, log),
		Companies:  services.NewCompanyService(repos.Companies, repos.AuditLogs, sink, log),
		Contacts:   services.NewContactService(repos.Contacts, repos.AuditLogs, sink, log),
		Deals:      services.NewDealService(repos.Deals, repos.AuditLogs, sink, log),
		Activities: services.NewActivityService(repos.Activities, repos.AuditLogs, log),
		Orders:     services.NewOrderService(repos.Orders, repos.AuditLogs, sink, log),
		Shipments:  services.NewShipmentService(repos.Shipments, repos.Orders, repos.AuditLogs, sink, log),
	}

	metrics.Init()
	r := api.NewRouter(deps)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
