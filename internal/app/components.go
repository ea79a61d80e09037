package app

import (
	"go-salary/internal/config"
	"go-salary/internal/dispatch"
	"go-salary/internal/export"
	"go-salary/internal/notification"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newNotificationService(cfg *config.Config, db *gorm.DB, rdb *redis.Client, logger *zap.Logger) notification.Service {
	var sender notification.Sender
	if cfg.Email.SendGridAPIKey != "" {
		sender = notification.NewSendGridSender(
			cfg.Email.SendGridAPIKey,
			cfg.Email.SendGridHost,
			cfg.Email.FromAddress,
			cfg.Email.FromName,
			logger,
		)
	} else {
		logger.Warn("SENDGRID_API_KEY not set, emails are only logged")
		sender = notification.NewLogSender(logger)
	}

	return notification.NewService(
		notification.NewRepository(db),
		sender,
		rdb,
		notification.Config{
			PaymentTemplateID:  cfg.Email.PaymentTemplateID,
			ReminderTemplateID: cfg.Email.ReminderTemplateID,
			AlertRecipients:    cfg.Email.AlertRecipients,
		},
		logger,
	)
}

// newDispatcher wires the email and export channels. The export channel is
// left out entirely when no endpoint is configured.
func newDispatcher(cfg *config.Config, notifier dispatch.ReceiptNotifier, logger *zap.Logger) *dispatch.Dispatcher {
	var exporter dispatch.Exporter
	if cfg.Export.URL != "" {
		exporter = export.NewClient(cfg.Export.URL, cfg.Export.Token, cfg.Export.Timeout, logger)
	} else {
		logger.Warn("EXPORT_URL not set, bookkeeping export disabled")
	}

	return dispatch.NewDispatcher(notifier, exporter, dispatch.Config{
		MaxAttempts: cfg.SideEffects.MaxAttempts,
	}, logger)
}
