package employee

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PayCycleDays is the gap between two consecutive salary payments.
const PayCycleDays = 30

// SalarySnapshot mirrors the most recent salary transaction of an employee.
type SalarySnapshot struct {
	TransactionNumber *string         `json:"transaction_number"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	TransactionDate   *time.Time      `json:"transaction_date"`
	ReceiptURL        *string         `json:"receipt_url"`
}

// EmptySnapshot is the state of an employee that has never been paid.
func EmptySnapshot() SalarySnapshot {
	return SalarySnapshot{TransactionAmount: decimal.Zero}
}

func (s SalarySnapshot) IsEmpty() bool {
	return s.TransactionDate == nil && s.TransactionNumber == nil
}

type Employee struct {
	ID             uuid.UUID                          `gorm:"type:uuid;primaryKey"`
	Name           string                             `gorm:"type:varchar(255);not null"`
	Email          string                             `gorm:"type:varchar(255);not null;uniqueIndex:uq_employee_email"`
	Designation    string                             `gorm:"type:varchar(255);not null"`
	DateOfJoining  time.Time                          `gorm:"type:date;not null"`
	GrossSalary    decimal.Decimal                    `gorm:"type:numeric(15,2);not null"`
	AccountNumber  string                             `gorm:"type:varchar(64);not null"`
	LastSalarySent datatypes.JSONType[SalarySnapshot] `gorm:"type:jsonb;not null"`
	NextSalaryDate *time.Time                         `gorm:"type:date;index"`
	Version        int64                              `gorm:"not null;default:1"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	UpdatedBy      string `gorm:"type:varchar(255)"`
}

func (Employee) TableName() string {
	return "employees"
}

func (e Employee) Snapshot() SalarySnapshot {
	return e.LastSalarySent.Data()
}

// NextSalaryDate returns the due date of the payment that follows from.
func NextSalaryDate(from time.Time) time.Time {
	return from.AddDate(0, 0, PayCycleDays)
}
