package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go-salary/internal/config"
	"go-salary/internal/events"
	"go-salary/internal/messaging/kafka/consumer"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// RunConsumer delivers the receipt email and bookkeeping export for every
// recorded payment read from Kafka.
func RunConsumer(cfg *config.Config) error {
	logger := zap.L().Named("app.consumer")

	if cfg.Kafka.Broker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	conn, err := connectInfra(cfg, true)
	if err != nil {
		return err
	}
	defer conn.Close()

	notificationService := newNotificationService(cfg, conn.Gorm, conn.Redis, logger)
	dispatcher := newDispatcher(cfg, notificationService, logger)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{cfg.Kafka.Broker},
		Topic:          events.SalaryPaymentRecordedTopic,
		GroupID:        cfg.Kafka.GroupID,
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		consumer.ConsumeSalaryPaymentRecorded(ctx, reader, dispatcher, logger)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("consumer shutting down")
	cancel()
	<-done

	return nil
}
