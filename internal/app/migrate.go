package app

import (
	"go-salary/internal/auth"
	"go-salary/internal/employee"
	"go-salary/internal/notification"
	"go-salary/internal/salary"

	"gorm.io/gorm"
)

const outboxDDL = `
CREATE TABLE IF NOT EXISTS outbox_events (
	id             UUID PRIMARY KEY,
	request_id     VARCHAR(100),
	aggregate_type VARCHAR(100) NOT NULL,
	aggregate_id   UUID NOT NULL,
	event_type     VARCHAR(100) NOT NULL,
	topic          VARCHAR(255) NOT NULL,
	payload        JSONB NOT NULL,
	status         VARCHAR(20) NOT NULL DEFAULT 'pending',
	retry_count    INT NOT NULL DEFAULT 0,
	next_retry_at  TIMESTAMPTZ,
	error_message  TEXT,
	processed_at   TIMESTAMPTZ,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_outbox_events_due ON outbox_events (created_at)
	WHERE status IN ('pending', 'failed');
`

// Migrate creates or updates every table the services read and write.
func Migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return err
	}

	if err := db.AutoMigrate(
		&employee.Employee{},
		&salary.SalaryTransaction{},
		&notification.Notification{},
		&auth.User{},
	); err != nil {
		return err
	}

	return db.Exec(outboxDDL).Error
}
