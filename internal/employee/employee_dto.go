package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type CreateEmployeeRequest struct {
	Name          string          `json:"name" binding:"required,max=255"`
	Email         string          `json:"email" binding:"required,email"`
	Designation   string          `json:"designation" binding:"required,max=255"`
	DateOfJoining string          `json:"date_of_joining" binding:"required"`
	GrossSalary   decimal.Decimal `json:"gross_salary"`
	AccountNumber string          `json:"account_number" binding:"required,max=64"`
}

type UpdateEmployeeRequest struct {
	Name          string          `json:"name" binding:"required,max=255"`
	Email         string          `json:"email" binding:"required,email"`
	Designation   string          `json:"designation" binding:"required,max=255"`
	DateOfJoining string          `json:"date_of_joining" binding:"required"`
	GrossSalary   decimal.Decimal `json:"gross_salary"`
	AccountNumber string          `json:"account_number" binding:"required,max=64"`
	// Version must match the stored row, otherwise the update is rejected.
	Version int64 `json:"version" binding:"required,min=1"`
}

type SnapshotResponse struct {
	TransactionNumber *string         `json:"transaction_number"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	TransactionDate   *string         `json:"transaction_date"`
	ReceiptURL        *string         `json:"receipt_url"`
}

type EmployeeResponse struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Email          string           `json:"email"`
	Designation    string           `json:"designation"`
	DateOfJoining  string           `json:"date_of_joining"`
	GrossSalary    decimal.Decimal  `json:"gross_salary"`
	AccountNumber  string           `json:"account_number"`
	LastSalarySent SnapshotResponse `json:"last_salary_sent"`
	NextSalaryDate *string          `json:"next_salary_date"`
	Version        int64            `json:"version"`
	UpdatedBy      string           `json:"updated_by,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

type EmployeeOptionResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Designation string `json:"designation"`
}
