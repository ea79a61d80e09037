package alert

import (
	"time"

	"go-salary/internal/employee"

	"github.com/shopspring/decimal"
)

type AlertResponse struct {
	EmployeeID     string                    `json:"employee_id"`
	Name           string                    `json:"name"`
	Designation    string                    `json:"designation"`
	LastSalarySent employee.SnapshotResponse `json:"last_salary_sent"`
	NextSalaryDate string                    `json:"next_salary_date"`
	DaysUntilDue   *int                      `json:"days_until_due,omitempty"`
	DaysOverdue    *int                      `json:"days_overdue,omitempty"`
}

type AlertsResponse struct {
	Upcoming    []AlertResponse `json:"upcoming"`
	Overdue     []AlertResponse `json:"overdue"`
	Policy      Policy          `json:"policy"`
	GeneratedAt time.Time       `json:"generated_at"`
}

type ScheduleQuery struct {
	Month int `form:"month"`
	Year  int `form:"year"`
}

type ScheduleItem struct {
	EmployeeID     string          `json:"employee_id"`
	Name           string          `json:"name"`
	Designation    string          `json:"designation"`
	GrossSalary    decimal.Decimal `json:"gross_salary"`
	NextSalaryDate string          `json:"next_salary_date"`
	Status         string          `json:"status"`
}

type ScheduleResponse struct {
	Month int            `json:"month"`
	Year  int            `json:"year"`
	Items []ScheduleItem `json:"items"`
}
