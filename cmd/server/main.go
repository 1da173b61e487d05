// Command rk-server starts the refkeeper HTTP server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/d1sturb/refkeeper/internal/config"
	"github.com/d1sturb/refkeeper/internal/initdata"
	"github.com/d1sturb/refkeeper/internal/limiter"
	"github.com/d1sturb/refkeeper/internal/migrate"
	"github.com/d1sturb/refkeeper/internal/repository"
	"github.com/d1sturb/refkeeper/internal/repository/memory"
	"github.com/d1sturb/refkeeper/internal/repository/postgres"
	"github.com/d1sturb/refkeeper/internal/server/httpapi"
	"github.com/d1sturb/refkeeper/internal/service"
	"github.com/d1sturb/refkeeper/internal/session"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main parses configuration, runs migrations when Postgres is configured,
// and starts the HTTP server.
func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		principals repository.PrincipalRepository
		referrals  repository.ReferralRepository
		lim        limiter.Limiter
	)
	if cfg.DSN != "" {
		if err := migrate.Up(ctx, cfg.DSN); err != nil {
			logger.Fatal("migrate up", zap.Error(err))
		}
		db, err := postgres.New(ctx, cfg.DSN)
		if err != nil {
			logger.Fatal("postgres.New", zap.Error(err))
		}
		defer db.Close()

		principals = postgres.NewPrincipalRepo(db)
		referrals = postgres.NewReferralRepo(db)
		lim = limiter.NewPGWithQuerier(db.Pool, cfg.LimiterWindow, cfg.LimiterMaxFails, cfg.LimiterBlockFor)
	} else {
		logger.Warn("no DATABASE_DSN, running on in-memory stores")
		store := memory.NewStore()
		principals = store
		referrals = store
		lim = limiter.NewMemory(cfg.LimiterWindow, cfg.LimiterMaxFails, cfg.LimiterBlockFor)
	}

	issuer, err := session.NewIssuer([]byte(cfg.BotToken), cfg.SessionTTL)
	if err != nil {
		logger.Fatal("session issuer", zap.Error(err))
	}

	// Services
	authSvc := service.NewAuthService(
		initdata.NewVerifier([]byte(cfg.BotToken), cfg.AuthMaxAge),
		principals, issuer, lim, cfg.StoreTimeout,
	)
	refSvc := service.NewReferralService(referrals, cfg.BotUsername, cfg.WebAppShortName, cfg.StoreTimeout)

	srv := httpapi.NewServer(logger, cfg.Addr, httpapi.NewAPIHandler(authSvc, refSvc))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	// Wait for stop
	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
