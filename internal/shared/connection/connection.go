package connection

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"go-salary/internal/config"
	"go-salary/internal/shared/backoff"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newRetryBackoff() *backoff.Backoff {
	return backoff.New(time.Second, 10*time.Second, 2)
}

func ConnectGORMWithRetry(cfg config.DatabaseConfig) (*gorm.DB, error) {
	log := zap.L().Named("connection.postgres")
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, cfg.SSLMode,
	)

	var db *gorm.DB
	err := backoff.Retry(context.Background(), newRetryBackoff(), cfg.MaxRetries, func(attempt int) error {
		gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			log.Warn("gorm open failed", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}

		sqlDB, err := gdb.DB()
		if err != nil {
			log.Warn("get sql.DB failed", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}

		if err := sqlDB.Ping(); err != nil {
			log.Warn("db ping failed", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}

		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(time.Hour)

		db = gdb
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("database connection failed after %d retries: %w", cfg.MaxRetries, err)
	}

	log.Info("connected to database", zap.String("host", cfg.Host), zap.String("name", cfg.Name))
	return db, nil
}

func ConnectRedisWithRetry(addr string, maxRetries int) (*redis.Client, error) {
	log := zap.L().Named("connection.redis")
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	err := backoff.Retry(context.Background(), newRetryBackoff(), maxRetries, func(attempt int) error {
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Warn("redis ping failed", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect redis: %w", err)
	}

	log.Info("connected to redis", zap.String("addr", addr))
	return rdb, nil
}

// ConnectKafkaWithRetry dials the broker until it answers, then returns a
// writer that routes by message topic.
func ConnectKafkaWithRetry(broker string, maxRetries int) (*kafkago.Writer, error) {
	log := zap.L().Named("connection.kafka")

	err := backoff.Retry(context.Background(), newRetryBackoff(), maxRetries, func(attempt int) error {
		conn, err := kafkago.Dial("tcp", broker)
		if err != nil {
			log.Warn("kafka dial failed", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		defer conn.Close()

		if _, err := conn.Controller(); err != nil {
			log.Warn("kafka controller lookup failed", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect kafka: %w", err)
	}

	log.Info("connected to kafka", zap.String("broker", broker))
	return &kafkago.Writer{
		Addr:                   kafkago.TCP(broker),
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}, nil
}

// EnsureTopics creates the given topics when missing; used by the worker at start.
func EnsureTopics(broker string, topics ...string) error {
	conn, err := kafkago.Dial("tcp", broker)
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}

	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return err
	}
	defer ctrlConn.Close()

	configs := make([]kafkago.TopicConfig, 0, len(topics))
	for _, t := range topics {
		configs = append(configs, kafkago.TopicConfig{Topic: t, NumPartitions: 3, ReplicationFactor: 1})
	}
	return ctrlConn.CreateTopics(configs...)
}
