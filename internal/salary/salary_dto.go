package salary

import (
	"io"
	"time"

	"go-salary/internal/employee"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// Side effect delivery states reported after a payment is recorded.
const (
	SideEffectsQueued    = "queued"
	SideEffectsDelivered = "delivered"
	SideEffectsPartial   = "partial"
	SideEffectsDisabled  = "disabled"
)

// RecordPaymentRequest is bound from a multipart form; the receipt file
// travels next to it as ReceiptUpload.
type RecordPaymentRequest struct {
	EmployeeID        string `form:"employee_id" json:"employee_id" binding:"required"`
	TransactionNumber string `form:"transaction_number" json:"transaction_number" binding:"required,max=100"`
	TransactionAmount string `form:"transaction_amount" json:"transaction_amount" binding:"required"`
	TransactionDate   string `form:"transaction_date" json:"transaction_date" binding:"required"`
	ConfirmDuplicate  bool   `form:"confirm_duplicate" json:"confirm_duplicate"`
}

type ReceiptUpload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

type TransactionResponse struct {
	ID                string          `json:"id"`
	EmployeeID        string          `json:"employee_id"`
	EmployeeName      string          `json:"employee_name"`
	TransactionNumber string          `json:"transaction_number"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	TransactionDate   string          `json:"transaction_date"`
	ReceiptURL        *string         `json:"receipt_url"`
	Status            string          `json:"status"`
	UpdatedBy         string          `json:"updated_by,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

type RecordPaymentResponse struct {
	Transaction    TransactionResponse       `json:"transaction"`
	LastSalarySent employee.SnapshotResponse `json:"last_salary_sent"`
	NextSalaryDate string                    `json:"next_salary_date"`
	SideEffects    string                    `json:"side_effects"`
	Warnings       []string                  `json:"warnings"`
}

type ReversalResponse struct {
	DeletedTransactionID string                    `json:"deleted_transaction_id"`
	EmployeeID           string                    `json:"employee_id"`
	SnapshotRecomputed   bool                      `json:"snapshot_recomputed"`
	LastSalarySent       employee.SnapshotResponse `json:"last_salary_sent"`
	NextSalaryDate       *string                   `json:"next_salary_date"`
}

// DuplicatePaymentDetails is returned with CONFIRMATION_REQUIRED so the
// operator can see which payment would be duplicated.
type DuplicatePaymentDetails struct {
	EmployeeID            string          `json:"employee_id"`
	LastTransactionNumber *string         `json:"last_transaction_number"`
	LastTransactionAmount decimal.Decimal `json:"last_transaction_amount"`
	LastTransactionDate   string          `json:"last_transaction_date"`
	NextSalaryDate        *string         `json:"next_salary_date"`
}
