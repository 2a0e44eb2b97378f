package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/barber-marketplace/internal/audit"
	"github.com/BruksfildServices01/barber-marketplace/internal/config"
	dbpkg "github.com/BruksfildServices01/barber-marketplace/internal/db"
	"github.com/BruksfildServices01/barber-marketplace/internal/infra/lock"
	"github.com/BruksfildServices01/barber-marketplace/internal/logger"
	"github.com/BruksfildServices01/barber-marketplace/internal/metrics"
	"github.com/BruksfildServices01/barber-marketplace/internal/payment"
	"github.com/BruksfildServices01/barber-marketplace/internal/routes"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Path, cfg.Log.Level, cfg.IsProduction())
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	db, err := dbpkg.NewDB(cfg, log)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	locker := newLocker(cfg, log)

	pool, err := db.DB()
	if err != nil {
		return fmt.Errorf("sql pool: %w", err)
	}

	auditDispatcher := audit.NewDispatcher(audit.New(db), log)

	if cfg.Stripe.SecretKey == "" {
		log.Warn("STRIPE_SECRET_KEY is empty, payment calls will fail")
	}
	gateway := payment.NewStripeGateway(payment.StripeConfig{
		SecretKey:       cfg.Stripe.SecretKey,
		WebhookSecret:   cfg.Stripe.WebhookSecret,
		DefaultCurrency: cfg.Stripe.Currency,
	}, nil)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	routes.RegisterRoutes(r, routes.Deps{
		DB:       db,
		Config:   cfg,
		Log:      log,
		Locker:   locker,
		Gateway:  gateway,
		Audit:    auditDispatcher,
		Metrics:  m,
		Gatherer: reg,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server running", zap.String("addr", cfg.Addr()), zap.String("env", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var serveErr error
	select {
	case err := <-errCh:
		serveErr = fmt.Errorf("server failed: %w", err)
	case <-quit:
		log.Info("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	shutdown(ctx, log, srv, auditDispatcher, pool)

	if serveErr != nil {
		return serveErr
	}
	log.Info("server stopped")
	return nil
}

// shutdown stops intake first, then drains audit events while the pool is
// still open, then closes the pool.
func shutdown(
	ctx context.Context,
	log *zap.Logger,
	srv *http.Server,
	dispatcher *audit.Dispatcher,
	pool io.Closer,
) {
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	dispatcher.Close()
	if err := pool.Close(); err != nil {
		log.Warn("close sql pool", zap.Error(err))
	}
}

// newLocker uses redis when reachable and falls back to an in-process lock,
// which only serializes bookings within this one instance.
func newLocker(cfg *config.Config, log *zap.Logger) lock.Locker {
	if cfg.Redis.URL == "" {
		log.Info("REDIS_URL not set, using in-process booking lock")
		return lock.NewKeyedMutex()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := lock.Connect(ctx, cfg.Redis.URL)
	if err != nil {
		log.Warn("redis unavailable, using in-process booking lock", zap.Error(err))
		return lock.NewKeyedMutex()
	}

	log.Info("using redis booking lock")
	return lock.NewRedisLocker(client, cfg.Booking.LockTTL, log)
}
