package notification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	TypePaymentReceipt  = "payment_receipt"
	TypeTodayPayment    = "today_payment"
	TypeTomorrowPayment = "tomorrow_payment"
	TypeOverduePayment  = "overdue_payment"
)

const (
	StatusSent    = "sent"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Notification is one delivery attempt, kept as an audit trail.
type Notification struct {
	ID           uuid.UUID                   `gorm:"type:uuid;primaryKey"`
	Type         string                      `gorm:"type:varchar(32);not null;index"`
	EmployeeID   *uuid.UUID                  `gorm:"type:uuid;index"`
	Recipients   datatypes.JSONSlice[string] `gorm:"type:jsonb;not null"`
	TemplateID   string                      `gorm:"type:varchar(128)"`
	EmployeeData datatypes.JSONMap           `gorm:"type:jsonb"`
	Status       string                      `gorm:"type:varchar(16);not null"`
	ErrorMessage *string                     `gorm:"type:text"`
	SentAt       *time.Time
	CreatedAt    time.Time
}

func (Notification) TableName() string {
	return "notifications"
}
