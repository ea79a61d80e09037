package app

import (
	"database/sql"

	"go-salary/internal/config"
	"go-salary/internal/shared/connection"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Infra holds the shared connections of one process.
type Infra struct {
	Gorm  *gorm.DB
	SQL   *sql.DB
	Redis *redis.Client
}

func connectInfra(cfg *config.Config, withRedis bool) (*Infra, error) {
	gormDB, err := connection.ConnectGORMWithRetry(cfg.Database)
	if err != nil {
		return nil, err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}

	infra := &Infra{Gorm: gormDB, SQL: sqlDB}
	if withRedis {
		rdb, err := connection.ConnectRedisWithRetry(cfg.Redis.Addr, cfg.Database.MaxRetries)
		if err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
		infra.Redis = rdb
	}
	return infra, nil
}

func (i *Infra) Close() {
	if i.Redis != nil {
		if err := i.Redis.Close(); err != nil {
			zap.L().Warn("redis close failed", zap.Error(err))
		}
	}
	if err := i.SQL.Close(); err != nil {
		zap.L().Warn("database close failed", zap.Error(err))
	}
}
