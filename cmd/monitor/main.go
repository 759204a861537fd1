// Package main is the entry point of the attendance monitor.
//
// The monitor periodically signs in to the academic portal, fetches the
// per-course attendance counters, diffs them against the last persisted
// snapshot and pushes a Telegram message for every change. One process,
// one job, one chat.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rollcall-hub/attendance-monitor/config"
	"github.com/rollcall-hub/attendance-monitor/internal/infrastructure/external/portal"
	"github.com/rollcall-hub/attendance-monitor/internal/infrastructure/external/telegram"
	"github.com/rollcall-hub/attendance-monitor/internal/infrastructure/persistence/postgres"
	"github.com/rollcall-hub/attendance-monitor/internal/infrastructure/persistence/redis"
	"github.com/rollcall-hub/attendance-monitor/internal/infrastructure/scheduler"
	"github.com/rollcall-hub/attendance-monitor/internal/infrastructure/scheduler/jobs"
	"github.com/rollcall-hub/attendance-monitor/internal/infrastructure/service"
	"github.com/rollcall-hub/attendance-monitor/pkg/metrics"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting attendance monitor",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"check_interval", cfg.Scheduler.CheckInterval.String(),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbCfg := postgres.DefaultConfig(cfg.Database.URL)
	dbCfg.MaxConns = cfg.Database.MaxConns
	dbCfg.MinConns = cfg.Database.MinConns
	dbCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	dbCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	dbConn, err := postgres.NewConnection(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	log.Info("running database migrations...")
	if err := postgres.NewMigrator(dbConn).Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database schema is up to date")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. SNAPSHOT STORE (postgres, optionally behind Redis)
	// ─────────────────────────────────────────────────────────────────────────
	snapshotRepo := postgres.NewSnapshotRepository(dbConn)
	runRepo := postgres.NewRunRepository(dbConn)

	var snapshotStore jobs.SnapshotStore = snapshotRepo
	if cfg.Redis.Enabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		cache, err := redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, snapshot caching disabled", "error", err)
		} else {
			defer cache.Close()
			snapshotStore = redis.NewCachedSnapshotStore(snapshotRepo, cache, cfg.Redis.SnapshotTTL, log)
			log.Info("Redis snapshot cache enabled", "ttl", cfg.Redis.SnapshotTTL.String())
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. METRICS (optional Prometheus endpoint)
	// ─────────────────────────────────────────────────────────────────────────
	var metricsManager *metrics.Manager
	var metricsServer *http.Server
	if cfg.Observability.MetricsEnabled {
		metricsManager = metrics.NewManager()

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(metricsManager.Registry(), promhttp.HandlerOpts{}))
		metricsServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Observability.MetricsPort),
			Handler: mux,
		}

		go func() {
			log.Info("metrics endpoint listening", "addr", metricsServer.Addr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", "error", err)
			}
		}()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. EXTERNAL CLIENTS
	// ─────────────────────────────────────────────────────────────────────────
	portalCfg := portal.DefaultClientConfig(cfg.Portal.BaseURL)
	portalCfg.Timeout = cfg.Portal.RequestTimeout
	portalCfg.Logger = log
	portalCfg.RateLimiterConfig.RequestsPerSecond = cfg.Portal.RequestsPerSecond
	portalCfg.RateLimiterConfig.BurstSize = cfg.Portal.RateLimitBurst
	portalCfg.RetryConfig.MaxAttempts = cfg.Portal.MaxRetries
	portalCfg.RetryConfig.InitialDelay = cfg.Portal.RetryBaseDelay
	portalCfg.RetryConfig.MaxDelay = cfg.Portal.RetryMaxDelay
	portalCfg.CircuitBreakerConfig.FailureThreshold = cfg.Portal.CircuitBreakerThreshold
	portalCfg.CircuitBreakerConfig.Timeout = cfg.Portal.CircuitBreakerTimeout
	portalClient := portal.NewClient(portalCfg)

	telegramCfg := telegram.DefaultClientConfig(cfg.Telegram.Token)
	telegramCfg.Timeout = cfg.Telegram.RequestTimeout
	telegramCfg.RetryAttempts = cfg.Telegram.RetryAttempts
	telegramCfg.Logger = log
	telegramClient := telegram.NewClient(telegramCfg)

	notifier := service.NewNotificationService(telegramClient, cfg.Telegram.ChatID, log, metricsManager)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. JOB WIRING
	// ─────────────────────────────────────────────────────────────────────────
	checkJob := jobs.NewCheckAttendanceJob(
		portalClient,
		snapshotStore,
		notifier,
		runRepo,
		log,
		metricsManager,
		jobs.CheckAttendanceConfig{
			PortalEmail:    cfg.Portal.Email,
			PortalPassword: cfg.Portal.Password,
		},
	)

	// Scheduler disabled means one immediate check and exit; useful for
	// running under an external scheduler such as cron or a systemd timer.
	if !cfg.Scheduler.Enabled {
		log.Info("scheduler disabled, running a single check")
		err := checkJob.Run(ctx)
		shutdownMetricsServer(metricsServer, cfg.App.ShutdownTimeout, log)
		return err
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	schedCfg := scheduler.DefaultConfig()
	schedCfg.Logger = log
	schedCfg.JobTimeout = cfg.Scheduler.JobTimeout

	sched := scheduler.New(schedCfg)
	if err := sched.Register(checkJob, scheduler.NewIntervalSchedule(cfg.Scheduler.CheckInterval)); err != nil {
		return fmt.Errorf("failed to register job: %w", err)
	}
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	// First check right away; the schedule covers the ones after.
	if _, err := sched.RunNow(ctx, checkJob.Name()); err != nil {
		log.Error("initial attendance check failed", "error", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("attendance monitor is running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	log.Info("received shutdown signal", "signal", sig.String())

	if err := sched.Stop(); err != nil {
		log.Error("scheduler stop failed", "error", err)
	}
	shutdownMetricsServer(metricsServer, cfg.App.ShutdownTimeout, log)

	log.Info("shutdown completed")
	return nil
}

// setupLogger builds the process-wide structured logger.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Observability.LogLevel)}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Observability.LogFormat, "text") || cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func shutdownMetricsServer(server *http.Server, timeout time.Duration, log *slog.Logger) {
	if server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("metrics server shutdown failed", "error", err)
	}
}
