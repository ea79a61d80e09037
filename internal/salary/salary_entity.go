package salary

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusOverdue   = "overdue"
)

type SalaryTransaction struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	EmployeeID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_salary_tx_employee_date,priority:1"`
	EmployeeName      string          `gorm:"type:varchar(255);not null"`
	TransactionNumber string          `gorm:"type:varchar(100);not null"`
	TransactionAmount decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	TransactionDate   time.Time       `gorm:"type:date;not null;index:idx_salary_tx_employee_date,priority:2"`
	ReceiptRef        *string         `gorm:"type:varchar(512)"`
	ReceiptURL        *string         `gorm:"type:text"`
	Status            string          `gorm:"type:varchar(20);not null;default:'completed'"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
	UpdatedBy         string `gorm:"type:varchar(255)"`
}

func (SalaryTransaction) TableName() string {
	return "salary_transactions"
}
