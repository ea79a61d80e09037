package main

import (
	"go-salary/internal/app"
	"go-salary/internal/config"
	"go-salary/internal/shared/apperror"
	applogger "go-salary/internal/shared/logger"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := applogger.New(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	apperror.Init()

	if err := app.RunWorker(cfg); err != nil {
		logger.Fatal("run worker failed", zap.Error(err))
	}
}
