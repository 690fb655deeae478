// Package main is the entry point for the tillbook background worker.
// It relays outbox events to redis and runs periodic maintenance.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"tillbook/internal/infrastructure/notify"
	"tillbook/internal/infrastructure/storage/postgres"
	"tillbook/internal/infrastructure/storage/postgres/auth_repo"
	"tillbook/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting tillbook worker")

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	publisher, err := notify.NewRedisPublisher(ctx, notify.RedisConfig{
		Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	})
	if err != nil {
		log.Fatalw("failed to connect to redis", "error", err)
	}
	defer publisher.Close()

	worker := &Worker{
		relay:      postgres.NewOutboxRelay(pool.Unwrap(), getEnvInt("OUTBOX_BATCH_SIZE", 100), publisher),
		txManager:  postgres.NewTxManager(pool),
		log:        log.WithComponent("worker"),
		pollEvery:  getEnvDuration("OUTBOX_POLL_INTERVAL", 500*time.Millisecond),
		sweepEvery: getEnvDuration("MAINTENANCE_INTERVAL", time.Hour),
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// Worker drains the outbox into redis and sweeps expired state.
type Worker struct {
	relay      *postgres.OutboxRelay
	txManager  *postgres.TxManager
	log        *logger.Logger
	pollEvery  time.Duration
	sweepEvery time.Duration
}

// Run polls until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollEvery)
	defer ticker.Stop()

	sweepTicker := time.NewTicker(w.sweepEvery)
	defer sweepTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drainOutbox(ctx)
		case <-sweepTicker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Worker) drainOutbox(ctx context.Context) {
	// Keep draining until the backlog is empty so a burst of writes
	// does not wait a full poll interval per batch.
	for {
		count, err := w.relay.ProcessBatch(ctx)
		if err != nil {
			w.log.Errorw("outbox batch failed", "error", err)
			return
		}
		if count > 0 {
			w.log.Debugw("relayed outbox batch", "count", count)
		}
		if count == 0 {
			return
		}
	}
}

func (w *Worker) sweep(ctx context.Context) {
	if moved, err := w.relay.MoveToDLQ(ctx); err != nil {
		w.log.Errorw("dead-letter sweep failed", "error", err)
	} else if moved > 0 {
		w.log.Warnw("moved poisoned outbox messages to DLQ", "count", moved)
	}

	idempotency := postgres.NewIdempotencyStore(w.txManager, 24*time.Hour)
	if removed, err := idempotency.CleanupExpired(ctx); err != nil {
		w.log.Errorw("idempotency cleanup failed", "error", err)
	} else if removed > 0 {
		w.log.Infow("cleaned up expired idempotency keys", "count", removed)
	}

	tokens := auth_repo.NewTokenRepo(w.txManager)
	if removed, err := tokens.CleanupExpiredTokens(ctx); err != nil {
		w.log.Errorw("refresh token cleanup failed", "error", err)
	} else if removed > 0 {
		w.log.Infow("cleaned up expired refresh tokens", "count", removed)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
