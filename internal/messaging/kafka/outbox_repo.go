package kafka

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go-salary/internal/events"

	"github.com/google/uuid"
)

const (
	OutboxStatusPending = "pending"
	OutboxStatusSent    = "sent"
	OutboxStatusFailed  = "failed"
	// OutboxStatusDead rows stopped retrying and need a manual replay.
	OutboxStatusDead = "dead"
)

const (
	AggregateSalaryTransaction = "salary_transaction"

	// MaxPublishAttempts bounds how often the relay retries one row.
	MaxPublishAttempts = 10
	// claimLease hides claimed rows from other relays until it runs out.
	claimLease = time.Minute
)

type OutboxEvent struct {
	ID            string
	RequestID     string
	AggregateType string
	AggregateID   string
	EventType     string
	Topic         string
	Payload       []byte
	Status        string
	RetryCount    int
	NextRetryAt   time.Time
	CreatedAt     time.Time
}

// eventTopics lists the event types the relay may publish and their topic.
var eventTopics = map[string]string{
	events.SalaryPaymentRecordedType: events.SalaryPaymentRecordedTopic,
}

//go:generate mockgen -source=outbox_repo.go -destination=mock/outbox_repo_mock.go -package=mock

type OutboxRepository interface {
	WithTx(tx *sql.Tx) OutboxRepository
	Create(ctx context.Context, event OutboxEvent) error
	ClaimPending(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, reason string) error
}

type outboxRepository struct {
	db *sql.DB
	tx *sql.Tx
}

func NewOutboxRepository(db *sql.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) WithTx(tx *sql.Tx) OutboxRepository {
	return &outboxRepository{db: r.db, tx: tx}
}

// NewSalaryPaymentOutboxEvent builds the pending row for a recorded payment,
// keyed by the salary transaction so Kafka keeps one payment's events ordered.
func NewSalaryPaymentOutboxEvent(event events.SalaryPaymentRecordedEvent) (OutboxEvent, error) {
	if event.TransactionID == "" {
		return OutboxEvent{}, errors.New("salary payment event needs a transaction id")
	}
	event.EventType = events.SalaryPaymentRecordedType
	payload, err := json.Marshal(event)
	if err != nil {
		return OutboxEvent{}, err
	}
	return OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     event.RequestID,
		AggregateType: AggregateSalaryTransaction,
		AggregateID:   event.TransactionID,
		EventType:     events.SalaryPaymentRecordedType,
		Topic:         events.SalaryPaymentRecordedTopic,
		Payload:       payload,
		Status:        OutboxStatusPending,
	}, nil
}

func (r *outboxRepository) Create(ctx context.Context, event OutboxEvent) error {
	if err := ValidateOutboxEvent(event); err != nil {
		return err
	}

	_, err := r.execer().ExecContext(ctx, `
INSERT INTO outbox_events (
	id, request_id, aggregate_type, aggregate_id, event_type, topic, payload, status
) VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8)`,
		event.ID, event.RequestID, event.AggregateType,
		event.AggregateID, event.EventType, event.Topic, event.Payload, event.Status,
	)
	return err
}

// ClaimPending leases up to limit due rows to the caller. Rows locked by a
// concurrent relay are skipped, and a claimed row becomes due again only if
// neither MarkSent nor MarkFailed lands before the lease expires.
func (r *outboxRepository) ClaimPending(ctx context.Context, limit int) ([]OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
UPDATE outbox_events o
SET next_retry_at = NOW() + $4 * INTERVAL '1 second',
	updated_at = NOW()
WHERE o.id IN (
	SELECT id FROM outbox_events
	WHERE status IN ($1, $2)
		AND (next_retry_at IS NULL OR next_retry_at <= NOW())
	ORDER BY created_at
	LIMIT $3
	FOR UPDATE SKIP LOCKED
)
RETURNING
	o.id::text,
	COALESCE(o.request_id, ''),
	o.aggregate_type,
	o.aggregate_id::text,
	o.event_type,
	o.topic,
	o.payload,
	o.status,
	o.retry_count,
	o.next_retry_at,
	o.created_at`,
		OutboxStatusPending, OutboxStatusFailed, limit, int(claimLease/time.Second),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	claimed := make([]OutboxEvent, 0, limit)
	for rows.Next() {
		var e OutboxEvent
		if err := rows.Scan(
			&e.ID,
			&e.RequestID,
			&e.AggregateType,
			&e.AggregateID,
			&e.EventType,
			&e.Topic,
			&e.Payload,
			&e.Status,
			&e.RetryCount,
			&e.NextRetryAt,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		claimed = append(claimed, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// RETURNING has no order
	sort.SliceStable(claimed, func(i, j int) bool {
		return claimed[i].CreatedAt.Before(claimed[j].CreatedAt)
	})
	return claimed, nil
}

func (r *outboxRepository) MarkSent(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE outbox_events
SET status = $2,
	processed_at = NOW(),
	error_message = NULL,
	updated_at = NOW()
WHERE id = $1`, id, OutboxStatusSent)
	return err
}

// MarkFailed schedules the next attempt with a linear delay, or parks the
// row as dead once MaxPublishAttempts is reached.
func (r *outboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE outbox_events
SET status = CASE WHEN retry_count + 1 >= $4 THEN $5 ELSE $2 END,
	retry_count = retry_count + 1,
	error_message = LEFT($3, 500),
	next_retry_at = NOW() + (LEAST(retry_count + 1, 10) * INTERVAL '15 seconds'),
	updated_at = NOW()
WHERE id = $1`, id, OutboxStatusFailed, reason, MaxPublishAttempts, OutboxStatusDead)
	return err
}

func (r *outboxRepository) execer() interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func ValidateOutboxEvent(event OutboxEvent) error {
	if _, err := uuid.Parse(event.ID); err != nil {
		return fmt.Errorf("outbox id must be a uuid: %w", err)
	}
	if _, err := uuid.Parse(event.AggregateID); err != nil {
		return fmt.Errorf("outbox aggregate id must be a uuid: %w", err)
	}
	if event.AggregateType != AggregateSalaryTransaction {
		return fmt.Errorf("unknown outbox aggregate type: %s", event.AggregateType)
	}
	topic, ok := eventTopics[event.EventType]
	if !ok {
		return fmt.Errorf("unknown outbox event type: %s", event.EventType)
	}
	if event.Topic != topic {
		return fmt.Errorf("event %s belongs on topic %s, not %q", event.EventType, topic, event.Topic)
	}
	if len(event.Payload) == 0 {
		return errors.New("outbox payload is required")
	}
	if event.Status != OutboxStatusPending {
		return fmt.Errorf("new outbox rows must be %s, got %s", OutboxStatusPending, event.Status)
	}
	return nil
}
