package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"cipherledger/internal/platform/config"
	"cipherledger/internal/platform/kafka"
	"cipherledger/internal/platform/logger"
	"cipherledger/internal/platform/postgres"
	auditpostgres "cipherledger/pkg/platform/audit/store/postgres"
	"cipherledger/pkg/platform/audit/worker"
)

// main materializes the audit stream into postgres for ledgers whose records
// live outside it (memory or redis stores).
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("audit worker exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	if len(cfg.Kafka.Brokers) == 0 {
		return errors.New("KAFKA_BROKERS is required")
	}
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}

	consumer, err := kafka.NewConsumer(cfg.Kafka)
	if err != nil {
		return err
	}
	defer consumer.Close()
	if err := kafka.EnsureTopic(ctx, consumer, cfg.Kafka.Topic, 3, 1); err != nil {
		return err
	}

	log.Info("materializing audit events",
		"topic", cfg.Kafka.Topic,
		"group", cfg.Kafka.ConsumerGroup,
	)
	return worker.NewWorker(consumer, auditpostgres.New(db), log).Run(ctx)
}
