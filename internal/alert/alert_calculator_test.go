package alert_test

import (
	"testing"
	"time"

	"go-salary/internal/alert"
	"go-salary/internal/employee"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, _ = time.ParseInLocation("2006-01-02", s, time.UTC)
	}
	return t
}

func ptr(t time.Time) *time.Time { return &t }

func joinedOn(name, d string) alert.Subject {
	return alert.Subject{EmployeeID: name, Name: name, DateOfJoining: ptr(ts(d))}
}

func TestCalculate_NoPaymentScenario(t *testing.T) {
	calc := alert.NewCalculator(alert.PolicyLastPayment)
	subjects := []alert.Subject{joinedOn("jane", "2024-01-01")}

	got := calc.Calculate(subjects, ts("2024-01-25T00:00:00Z"))
	assert.Empty(t, got.Overdue)
	if assert.Len(t, got.Upcoming, 1) {
		assert.Equal(t, 6, got.Upcoming[0].DaysUntilDue)
		assert.Equal(t, ts("2024-01-31"), got.Upcoming[0].DueDate)
	}

	got = calc.Calculate(subjects, ts("2024-01-31T10:00:00Z"))
	assert.Empty(t, got.Upcoming)
	if assert.Len(t, got.Overdue, 1) {
		assert.Equal(t, 0, got.Overdue[0].DaysOverdue)
	}
}

func TestCalculate_LastPaymentAnchor(t *testing.T) {
	calc := alert.NewCalculator(alert.PolicyLastPayment)
	s := joinedOn("budi", "2023-06-01")
	s.LastPaymentDate = ptr(ts("2024-02-01"))

	got := calc.Calculate([]alert.Subject{s}, ts("2024-02-26T00:00:00Z"))

	if assert.Len(t, got.Upcoming, 1) {
		assert.Equal(t, ts("2024-03-02"), got.Upcoming[0].DueDate)
		assert.Equal(t, 5, got.Upcoming[0].DaysUntilDue)
	}
}

func TestCalculate_GraceWindowSuppressesAlerts(t *testing.T) {
	calc := alert.NewCalculator(alert.PolicyLastPayment)
	s := joinedOn("ani", "2024-01-01")

	// exactly 23 days after the anchor is still inside the grace window
	got := calc.Calculate([]alert.Subject{s}, ts("2024-01-24T00:00:00Z"))
	assert.Empty(t, got.Upcoming)
	assert.Empty(t, got.Overdue)
}

func TestCalculate_DueExactlyNowIsUpcoming(t *testing.T) {
	calc := alert.NewCalculator(alert.PolicyLastPayment)
	got := calc.Calculate([]alert.Subject{joinedOn("citra", "2024-01-01")}, ts("2024-01-31T00:00:00Z"))

	assert.Empty(t, got.Overdue)
	if assert.Len(t, got.Upcoming, 1) {
		assert.Equal(t, 0, got.Upcoming[0].DaysUntilDue)
	}
}

func TestCalculate_PartitionAndOrdering(t *testing.T) {
	calc := alert.NewCalculator(alert.PolicyLastPayment)
	at := ts("2024-03-10T08:00:00Z")

	subjects := []alert.Subject{
		joinedOn("zed", "2024-02-05"),  // due 03-06
		joinedOn("amy", "2024-02-05"),  // due 03-06, sorts before zed
		joinedOn("bob", "2024-02-12"),  // due 03-13
		joinedOn("carl", "2024-02-17"), // inside grace window
		joinedOn("dana", "2023-12-01"), // due 2023-12-31
		{EmployeeID: "ghost", Name: "ghost"},
	}

	got := calc.Calculate(subjects, at)

	names := func(as []alert.Alert) []string {
		out := make([]string, len(as))
		for i, a := range as {
			out[i] = a.Subject.Name
		}
		return out
	}
	assert.Equal(t, []string{"dana", "amy", "zed"}, names(got.Overdue))
	assert.Equal(t, []string{"bob"}, names(got.Upcoming))

	for _, a := range got.Upcoming {
		assert.GreaterOrEqual(t, a.DaysUntilDue, 0)
		assert.False(t, a.DueDate.Before(at))
	}
	for _, a := range got.Overdue {
		assert.True(t, a.DueDate.Before(at))
	}

	// same input and same reference time give the same result
	assert.Equal(t, got, calc.Calculate(subjects, at))
}

func TestCalculate_JoiningDayPolicy(t *testing.T) {
	calc := alert.NewCalculator(alert.PolicyJoiningDay)

	t.Run("due on the joining day of the next month", func(t *testing.T) {
		got := calc.Calculate([]alert.Subject{joinedOn("eka", "2024-01-15")}, ts("2024-02-10T00:00:00Z"))
		if assert.Len(t, got.Upcoming, 1) {
			assert.Equal(t, ts("2024-02-15"), got.Upcoming[0].DueDate)
			assert.Equal(t, 5, got.Upcoming[0].DaysUntilDue)
		}
	})

	t.Run("day clamped to month length", func(t *testing.T) {
		s := joinedOn("fajar", "2023-10-31")
		s.LastPaymentDate = ptr(ts("2024-01-31"))

		got := calc.Calculate([]alert.Subject{s}, ts("2024-02-26T00:00:00Z"))
		if assert.Len(t, got.Upcoming, 1) {
			// anchor + 23 days = 02-23, next "31st" after that is 02-29 in 2024
			assert.Equal(t, ts("2024-02-29"), got.Upcoming[0].DueDate)
		}
	})
}

func TestNewCalculator_UnknownPolicyFallsBack(t *testing.T) {
	assert.Equal(t, alert.PolicyLastPayment, alert.NewCalculator("weekly").Policy())
}

func TestStatusLabel(t *testing.T) {
	at := ts("2024-03-10T15:30:00Z")
	assert.Equal(t, alert.StatusOverdue, alert.StatusLabel(ts("2024-03-09"), at))
	assert.Equal(t, alert.StatusDueToday, alert.StatusLabel(ts("2024-03-10"), at))
	assert.Equal(t, alert.StatusUpcoming, alert.StatusLabel(ts("2024-03-11"), at))
	assert.Equal(t, 1, alert.CalendarDaysUntil(ts("2024-03-11"), at))
}

func TestCalendarDaysUntil_ReadsDueDateAsCivilDay(t *testing.T) {
	newYork := time.FixedZone("EST", -5*60*60)
	jakarta := time.FixedZone("WIB", 7*60*60)

	tests := []struct {
		name string
		due  string
		at   time.Time
		want int
	}{
		{"west of utc same day", "2024-01-31", time.Date(2024, 1, 31, 9, 0, 0, 0, newYork), 0},
		{"west of utc late evening", "2024-01-31", time.Date(2024, 1, 31, 23, 30, 0, 0, newYork), 0},
		{"west of utc tomorrow", "2024-02-01", time.Date(2024, 1, 31, 20, 0, 0, 0, newYork), 1},
		{"west of utc yesterday", "2024-01-30", time.Date(2024, 1, 31, 0, 15, 0, 0, newYork), -1},
		{"east of utc early morning", "2024-03-10", time.Date(2024, 3, 10, 6, 0, 0, 0, jakarta), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, alert.CalendarDaysUntil(ts(tt.due), tt.at))
		})
	}

	assert.Equal(t, alert.StatusDueToday,
		alert.StatusLabel(ts("2024-01-31"), time.Date(2024, 1, 31, 9, 0, 0, 0, newYork)))
}

func TestSubjectFromEmployee(t *testing.T) {
	paid := ts("2024-02-01")
	number := "TRX-9"
	e := employee.Employee{
		ID:            uuid.New(),
		Name:          "Gita",
		DateOfJoining: ts("2024-01-01"),
		LastSalarySent: datatypes.NewJSONType(employee.SalarySnapshot{
			TransactionNumber: &number,
			TransactionAmount: decimal.NewFromInt(100),
			TransactionDate:   &paid,
		}),
	}

	s := alert.SubjectFromEmployee(e)

	assert.Equal(t, e.ID.String(), s.EmployeeID)
	assert.Equal(t, paid, *s.LastPaymentDate)
	assert.Equal(t, ts("2024-01-01"), *s.DateOfJoining)

	e.LastSalarySent = datatypes.NewJSONType(employee.EmptySnapshot())
	e.DateOfJoining = time.Time{}
	s = alert.SubjectFromEmployee(e)
	assert.Nil(t, s.LastPaymentDate)
	assert.Nil(t, s.DateOfJoining)
}
