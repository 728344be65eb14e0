package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"attendtrack/internal/api"
	"attendtrack/internal/attendance"
	"attendtrack/internal/auth"
	"attendtrack/internal/config"
	"attendtrack/internal/httpmiddleware"
	"attendtrack/internal/logger"
	"attendtrack/internal/metrics"
	"attendtrack/internal/store"
	"attendtrack/internal/users"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, zl); err != nil {
		zl.Fatal("http server failed", zap.Error(err))
	}
}

func runHTTP(cfg config.App, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg, zl)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			zl.Warn("store close failed", zap.Error(err))
		}
	}()
	zl.Info("store ready", zap.String("backend", st.Backend))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	ready := []api.ReadinessCheck{{Name: "store", Check: st.Ping}}
	var (
		revoker auth.Revoker
		limiter httpmiddleware.Limiter
	)
	if cfg.RedisAddr != "" {
		rdb := store.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
		defer func() { _ = rdb.Close() }()
		if !rdb.Healthy(ctx) {
			zl.Warn("redis not reachable; revocation and rate limiting fail open", zap.String("addr", cfg.RedisAddr))
		}
		revoker = auth.NewRedisRevoker(rdb.Client)
		limiter = httpmiddleware.NewRedisWindow(rdb.Client, "ratelimit:auth:", cfg.RateLimitPerMin)
		ready = append(ready, api.ReadinessCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Client.Ping(ctx).Err()
		}})
	} else {
		zl.Info("redis not configured; using in-memory rate limiter and no token revocation")
		limiter = httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
	}

	tokens := auth.NewManager(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.AccessTTL)
	att := attendance.NewService(st.Attendance, st.Users, attendance.WithObserver(m))
	us := users.NewService(st.Users, att, tokens, zl.Named("users"))
	authn := auth.NewAuthenticator(tokens, us, revoker, zl.Named("auth"))

	if err := us.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword, cfg.AdminEmail); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	h := api.NewHandler(att, us, authn, zl.Named("api"), ready...)
	r := api.NewRouter(h, authn, api.RouterConfig{
		Log:            zl.Named("http"),
		Metrics:        m,
		Gatherer:       reg,
		AuthLimiter:    limiter,
		AllowedOrigins: cfg.AllowedOrigins,
		Production:     cfg.Production(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("starting server", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	zl.Info("shutting down server")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Warn("server forced shutdown", zap.Error(err))
	}
	zl.Info("server exited")
	return nil
}
