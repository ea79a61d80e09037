package notification

import "time"

// Message is what a Sender delivers.
type Message struct {
	Type       string
	EmployeeID string
	To         []string
	TemplateID string
	Params     map[string]any
}

// ReminderItem describes one employee in a payment reminder.
type ReminderItem struct {
	EmployeeID   string
	EmployeeName string
	Designation  string
	Email        string
	DueDate      string
	Days         int
}

type NotificationResponse struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"`
	EmployeeID   *string        `json:"employee_id"`
	Recipients   []string       `json:"recipients"`
	EmployeeData map[string]any `json:"employee_data"`
	Status       string         `json:"status"`
	ErrorMessage *string        `json:"error_message,omitempty"`
	SentAt       *time.Time     `json:"sent_at"`
	CreatedAt    time.Time      `json:"created_at"`
}
