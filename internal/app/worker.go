package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go-salary/internal/config"
	"go-salary/internal/events"
	"go-salary/internal/messaging/kafka"
	"go-salary/internal/messaging/kafka/producer"
	"go-salary/internal/shared/connection"

	"go.uber.org/zap"
)

// RunWorker relays outbox rows to Kafka until SIGINT/SIGTERM.
func RunWorker(cfg *config.Config) error {
	logger := zap.L().Named("app.worker")

	if cfg.Kafka.Broker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	conn, err := connectInfra(cfg, false)
	if err != nil {
		return err
	}
	defer conn.Close()

	kafkaWriter, err := connection.ConnectKafkaWithRetry(cfg.Kafka.Broker, cfg.Database.MaxRetries)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	if err := connection.EnsureTopics(cfg.Kafka.Broker, events.SalaryPaymentRecordedTopic); err != nil {
		logger.Warn("ensure topics failed, relying on auto-create", zap.Error(err))
	}

	outboxRepo := kafka.NewOutboxRepository(conn.SQL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go producer.ProcessOutboxEvents(
		ctx,
		outboxRepo,
		kafkaWriter,
		logger,
		cfg.Kafka.OutboxPollInterval,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("worker shutting down")
	cancel()

	return nil
}
