// cmd/ack-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/AdeptTechSolutions/Auto-GRC/internal/ackserver"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/common/config"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/common/database"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/common/logger"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/common/observability"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/linkcodec"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/notifier"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/scheduler"
	"github.com/AdeptTechSolutions/Auto-GRC/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func buildCodec(cfg *config.Config) linkcodec.Codec {
	base := linkcodec.NewCodec()
	if cfg.Link.SigningKey != "" {
		return linkcodec.NewSigningCodec(base, []byte(cfg.Link.SigningKey))
	}
	return base
}

func buildTransport(ctx context.Context, cfg *config.Config) (notifier.Transport, error) {
	switch cfg.Mail.Provider {
	case "ses":
		return notifier.NewSESTransport(ctx, cfg.Mail)
	default:
		return notifier.NewSMTPTransport(cfg.Mail), nil
	}
}

// loadConfig honors an explicit CONFIG_FILE path, falling back to the
// standard search locations.
func loadConfig() (*config.Config, error) {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting acknowledgement server...",
		zap.String("version", cfg.App.Version),
		zap.String("listenAddr", cfg.Server.ListenAddr),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry (optional, reminder throttle only) ---
	var redisClient *database.RedisClient
	if cfg.Database.Redis.Address != "" {
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redisClient.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redisClient.Close()
		zapLog.Info("Redis connected successfully")
	} else {
		zapLog.Info("Redis not configured, reminder throttling disabled")
	}

	st := store.New(pg.GetDB(), log)
	codec := buildCodec(cfg)

	transport, err := buildTransport(ctx, cfg)
	if err != nil {
		zapLog.Fatal("mail transport init failed", zap.Error(err))
	}

	mailer := notifier.New(transport, codec, cfg.Server.BaseURL, cfg.Mail.MaxConcurrent, log, obs)

	// --- Reminder scheduler ---
	if cfg.Reminder.Enabled {
		var throttle scheduler.Throttle
		if redisClient != nil {
			throttle = redisClient
		}
		reminders := scheduler.New(
			st, mailer, throttle,
			config.GetDuration(cfg.Reminder.ThrottleWindow),
			cfg.Reminder.Subject, cfg.Reminder.Body,
			log,
		)
		go reminders.Run(ctx, config.GetDuration(cfg.Reminder.Interval))
		zapLog.Info("Reminder scheduler started",
			zap.Duration("interval", config.GetDuration(cfg.Reminder.Interval)),
		)
	}

	// --- HTTP server ---
	ackSrv := ackserver.New(st, codec, log, cfg.App.Name, cfg.App.Version)
	mux := http.NewServeMux()
	mux.Handle("/", ackSrv.Handler())
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		zapLog.Info("Acknowledgement server listening", zap.String("addr", cfg.Server.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	zapLog.Info("Acknowledgement server stopped gracefully")
}
