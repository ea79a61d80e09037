package dispatch

import (
	"context"
	"fmt"
	"time"

	"go-salary/internal/events"
	"go-salary/internal/shared/backoff"
	"go-salary/internal/shared/contextutil"
	"go-salary/internal/shared/metrics"

	"go.uber.org/zap"
)

const (
	ChannelEmail  = "email"
	ChannelExport = "export"
)

type ReceiptNotifier interface {
	SendPaymentReceipt(ctx context.Context, event events.SalaryPaymentRecordedEvent) error
}

type Exporter interface {
	Export(ctx context.Context, event events.SalaryPaymentRecordedEvent) error
}

type Config struct {
	MaxAttempts int
	MinDelay    time.Duration
	MaxDelay    time.Duration
}

// Dispatcher runs the receipt email and the bookkeeping export for one
// payment, retrying each with backoff. Both channels are safe to repeat.
type Dispatcher struct {
	notifier ReceiptNotifier
	exporter Exporter
	cfg      Config
	logger   *zap.Logger
}

func NewDispatcher(notifier ReceiptNotifier, exporter Exporter, cfg Config, logger ...*zap.Logger) *Dispatcher {
	l := zap.L().Named("dispatch")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("dispatch")
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.MinDelay <= 0 {
		cfg.MinDelay = 200 * time.Millisecond
	}
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = 5 * time.Second
	}
	return &Dispatcher{
		notifier: notifier,
		exporter: exporter,
		cfg:      cfg,
		logger:   l,
	}
}

// Dispatch returns one error per failed channel; nil slice means every
// configured channel delivered.
func (d *Dispatcher) Dispatch(ctx context.Context, event events.SalaryPaymentRecordedEvent) []error {
	var errs []error

	if d.notifier != nil {
		if err := d.deliver(ctx, ChannelEmail, event, d.notifier.SendPaymentReceipt); err != nil {
			errs = append(errs, fmt.Errorf("email notification: %w", err))
		}
	}
	if d.exporter != nil {
		if err := d.deliver(ctx, ChannelExport, event, d.exporter.Export); err != nil {
			errs = append(errs, fmt.Errorf("bookkeeping export: %w", err))
		}
	}

	return errs
}

func (d *Dispatcher) deliver(
	ctx context.Context,
	channel string,
	event events.SalaryPaymentRecordedEvent,
	fn func(context.Context, events.SalaryPaymentRecordedEvent) error,
) error {
	log := contextutil.GetLogger(ctx, d.logger).With(
		zap.String("channel", channel),
		zap.String("transaction_id", event.TransactionID),
		zap.String("employee_id", event.EmployeeID),
	)

	b := backoff.New(d.cfg.MinDelay, d.cfg.MaxDelay, 2)
	err := backoff.Retry(ctx, b, d.cfg.MaxAttempts, func(attempt int) error {
		if attempt > 1 {
			metrics.SideEffectRetries.WithLabelValues(channel).Inc()
			log.Debug("retrying side effect", zap.Int("attempt", attempt))
		}
		return fn(ctx, event)
	})
	if err != nil {
		metrics.SideEffectDeliveries.WithLabelValues(channel, "failed").Inc()
		log.Error("side effect failed, needs manual follow-up",
			zap.Int("max_attempts", d.cfg.MaxAttempts),
			zap.Error(err),
		)
		return err
	}

	metrics.SideEffectDeliveries.WithLabelValues(channel, "delivered").Inc()
	return nil
}
