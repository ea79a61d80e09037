package consumer

import (
	"context"
	"encoding/json"
	"time"

	"go-salary/internal/events"
	"go-salary/internal/shared/backoff"
	"go-salary/internal/shared/contextutil"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	fetchRetryMin = 250 * time.Millisecond
	fetchRetryMax = 30 * time.Second
)

// MessageReader is the part of *kafkago.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// SideEffects delivers email and export for one recorded payment.
type SideEffects interface {
	Dispatch(ctx context.Context, event events.SalaryPaymentRecordedEvent) []error
}

// ConsumeSalaryPaymentRecorded runs side effects for payments queued through
// the outbox. Failed deliveries are committed too; they are already retried
// inside the dispatcher and recorded for manual follow-up.
func ConsumeSalaryPaymentRecorded(
	ctx context.Context,
	reader MessageReader,
	dispatcher SideEffects,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.salary_payment")
	log.Info("salary payment consumer started")

	fetchBackoff := backoff.New(fetchRetryMin, fetchRetryMax, 2)
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("salary payment consumer stopped")
				return
			}
			wait := fetchBackoff.Next()
			log.Error("fetch salary payment message failed",
				zap.Int("attempt", fetchBackoff.Attempts()),
				zap.Duration("retry_in", wait),
				zap.Error(err),
			)
			if backoff.Sleep(ctx, wait) != nil {
				log.Info("salary payment consumer stopped")
				return
			}
			continue
		}
		fetchBackoff.Reset()

		var event events.SalaryPaymentRecordedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode salary payment event failed",
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if event.EventType != events.SalaryPaymentRecordedType {
			log.Warn("unexpected event type, skipping", zap.String("event_type", event.EventType))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		dctx := contextutil.WithRequestID(ctx, event.RequestID)
		errs := dispatcher.Dispatch(dctx, event)
		if ctx.Err() != nil {
			// Redelivered after restart
			log.Info("salary payment consumer stopped mid-dispatch",
				zap.String("transaction_id", event.TransactionID),
			)
			return
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit salary payment message failed", zap.Error(err))
			continue
		}

		if len(errs) > 0 {
			fields := []zap.Field{
				zap.String("transaction_id", event.TransactionID),
				zap.String("employee_id", event.EmployeeID),
				zap.String("request_id", event.RequestID),
			}
			for _, e := range errs {
				log.Error("salary payment side effect failed", append(fields, zap.Error(e))...)
			}
			continue
		}

		log.Info("salary payment side effects delivered",
			zap.String("transaction_id", event.TransactionID),
			zap.String("employee_id", event.EmployeeID),
		)
	}
}
