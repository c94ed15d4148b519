package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/garuda/remoteauth/internal/app/migrate"
	httpx "github.com/garuda/remoteauth/internal/http"
	"github.com/garuda/remoteauth/internal/repository/postgres"
	"github.com/garuda/remoteauth/internal/service/auth"
	"github.com/garuda/remoteauth/internal/service/google"
	"github.com/garuda/remoteauth/internal/service/phone"
	"github.com/garuda/remoteauth/pkg/config"
	"github.com/garuda/remoteauth/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg := config.LoadAPIConfig()
	log := logger.New("api", slog.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	runner, err := migrate.New(pool, cfg.DatabaseURL, cfg.MigrationsDir, log)
	if err != nil {
		log.Error("failed to configure migrations", "error", err)
		os.Exit(1)
	}
	defer runner.Close()
	if err := runner.Ping(ctx); err != nil {
		log.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	if err := runner.Ensure(ctx); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	repo := postgres.New(pool)

	authSvc := auth.New(repo, repo, log, cfg)

	verifier := google.NewVerifier(cfg.GoogleJWKSURL, cfg.GoogleClientIDs(), cfg.GoogleJWKSCacheTTL, cfg.GoogleJWKSTimeout, log)
	googleSvc := google.New(repo, authSvc, verifier, log, cfg)

	var sender phone.Sender
	if strings.TrimSpace(cfg.SMSGatewayURL) != "" {
		sender = phone.NewGatewaySender(cfg.SMSGatewayURL, cfg.SMSGatewayToken, cfg.SMSGatewayTimeout)
	} else {
		log.Warn("sms gateway not configured, verification codes are logged instead of delivered")
		sender = phone.LogSender{Logger: log}
	}
	phoneSvc := phone.New(repo, sender, log, cfg)

	var limiter httpx.RateLimiter
	if addr := strings.TrimSpace(cfg.RateLimitRedisAddr); addr != "" {
		redisLimiter, err := httpx.NewRedisRateLimiter(addr, cfg.RateLimitRedisPass, cfg.RateLimitRedisDB, log)
		if err != nil {
			log.Warn("redis rate limiter unavailable", "error", err)
		} else {
			limiter = redisLimiter
		}
	}
	if limiter == nil {
		limiter = httpx.NewMemoryRateLimiter()
	}

	router := httpx.NewRouter(log, authSvc, googleSvc, phoneSvc, limiter, pool.Ping)
	defer router.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
