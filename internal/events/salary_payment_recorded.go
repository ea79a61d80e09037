package events

import "time"

const SalaryPaymentRecordedTopic = "hr.salary.payment.recorded.v1"

const SalaryPaymentRecordedType = "salary_payment_recorded"

// SalaryPaymentRecordedEvent carries everything the receipt email and the
// bookkeeping export need, so consumers never read back from the database.
type SalaryPaymentRecordedEvent struct {
	EventType         string    `json:"event_type"`
	RequestID         string    `json:"request_id,omitempty"`
	TransactionID     string    `json:"transaction_id"`
	TransactionNumber string    `json:"transaction_number"`
	TransactionAmount string    `json:"transaction_amount"`
	TransactionDate   string    `json:"transaction_date"`
	NextSalaryDate    string    `json:"next_salary_date"`
	ReceiptURL        string    `json:"receipt_url,omitempty"`
	EmployeeID        string    `json:"employee_id"`
	EmployeeName      string    `json:"employee_name"`
	EmployeeEmail     string    `json:"employee_email"`
	Designation       string    `json:"designation,omitempty"`
	RecordedBy        string    `json:"recorded_by,omitempty"`
	OccurredAt        time.Time `json:"occurred_at"`
}
