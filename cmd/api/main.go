package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pokercount/backend/internal/api"
	"github.com/pokercount/backend/internal/auth"
	"github.com/pokercount/backend/internal/config"
	"github.com/pokercount/backend/internal/db"
	"github.com/pokercount/backend/internal/logger"
	"github.com/pokercount/backend/internal/metrics"
	"github.com/pokercount/backend/internal/middleware"
	"github.com/pokercount/backend/internal/repository/postgres"
	"github.com/pokercount/backend/internal/services"
	"github.com/pokercount/backend/internal/worker"
)

func main() {
	cfg := config.Load()

	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if os.Getenv("APP_MIGRATE") != "false" {
		if err := db.RunMigrations(ctx, pool); err != nil {
			slog.Error("migrations failed", "err", err)
			os.Exit(1)
		}
	}

	metrics.Init()

	repos := postgres.NewRepositories(pool)
	wp := worker.NewPool(4)
	defer wp.Stop()

	tm := auth.NewTokenManager(cfg.JWTIssuer, cfg.JWTAccessSecret, cfg.JWTRefreshSecret, 15*time.Minute, 7*24*time.Hour)

	userSvc := services.NewUserService(repos.Users, tm)
	groupSvc := services.NewGroupService(repos.Groups, repos.Players, repos.Sessions, repos.AuditLogs, wp)
	settlementSvc := services.NewSettlementService(repos.Groups, repos.Players, repos.Settlements, repos.AuditLogs, wp)
	sessionSvc := services.NewSessionService(repos.Groups, repos.Players, repos.Sessions, settlementSvc, repos.AuditLogs, wp)

	router := api.NewRouter(api.RouterDeps{
		Cfg:           cfg,
		AuthMW:        middleware.NewAuthMiddleware(tm, cfg.Env),
		UserSvc:       userSvc,
		GroupSvc:      groupSvc,
		SessionSvc:    sessionSvc,
		SettlementSvc: settlementSvc,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("http server listening", "port", cfg.HTTPPort, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", "err", err)
	}
}
