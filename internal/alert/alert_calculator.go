package alert

import (
	"sort"
	"time"

	"go-salary/internal/employee"

	"github.com/jinzhu/now"
	"go.uber.org/zap"
)

// Policy decides which date a salary cycle is anchored to.
type Policy string

const (
	// PolicyLastPayment: due = last payment (or joining date) + 30 days.
	PolicyLastPayment Policy = "last_payment"
	// PolicyJoiningDay: due on the joining day-of-month that follows the grace window.
	PolicyJoiningDay Policy = "joining_day"
)

const (
	GraceDays          = 23
	UpcomingWindowDays = 7

	day = 24 * time.Hour
)

const (
	StatusOverdue  = "Overdue"
	StatusDueToday = "Due Today"
	StatusUpcoming = "Upcoming"
)

// Subject is the part of an employee record the calculator looks at.
type Subject struct {
	EmployeeID      string
	Name            string
	Designation     string
	Email           string
	DateOfJoining   *time.Time
	LastPaymentDate *time.Time
	Snapshot        employee.SalarySnapshot
}

func SubjectFromEmployee(e employee.Employee) Subject {
	s := Subject{
		EmployeeID:  e.ID.String(),
		Name:        e.Name,
		Designation: e.Designation,
		Email:       e.Email,
		Snapshot:    e.Snapshot(),
	}
	if !e.DateOfJoining.IsZero() {
		joined := e.DateOfJoining
		s.DateOfJoining = &joined
	}
	if s.Snapshot.TransactionDate != nil && !s.Snapshot.TransactionDate.IsZero() {
		paid := *s.Snapshot.TransactionDate
		s.LastPaymentDate = &paid
	}
	return s
}

type Alert struct {
	Subject      Subject
	DueDate      time.Time
	DaysUntilDue int
	DaysOverdue  int
}

type Alerts struct {
	Upcoming []Alert
	Overdue  []Alert
}

type Calculator struct {
	policy Policy
	logger *zap.Logger
}

func NewCalculator(policy Policy, logger ...*zap.Logger) *Calculator {
	l := zap.L().Named("alert.calculator")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("alert.calculator")
	}
	if policy != PolicyJoiningDay {
		policy = PolicyLastPayment
	}
	return &Calculator{policy: policy, logger: l}
}

func (c *Calculator) Policy() Policy {
	return c.policy
}

// Calculate splits subjects into upcoming and overdue buckets relative to at.
// Subjects without usable dates are skipped; the call never fails.
func (c *Calculator) Calculate(subjects []Subject, at time.Time) Alerts {
	out := Alerts{Upcoming: []Alert{}, Overdue: []Alert{}}
	horizon := at.Add(UpcomingWindowDays * day)

	for _, s := range subjects {
		anchor := s.LastPaymentDate
		if anchor == nil {
			anchor = s.DateOfJoining
		}
		if anchor == nil || anchor.IsZero() {
			c.logger.Warn("alert skipped employee without usable dates",
				zap.String("employee_id", s.EmployeeID),
			)
			continue
		}

		if at.Sub(*anchor) <= GraceDays*day {
			continue
		}

		due := c.dueDate(s, *anchor)

		switch {
		case due.Before(at):
			out.Overdue = append(out.Overdue, Alert{
				Subject:     s,
				DueDate:     due,
				DaysOverdue: int(at.Sub(due) / day),
			})
		case !due.After(horizon):
			out.Upcoming = append(out.Upcoming, Alert{
				Subject:      s,
				DueDate:      due,
				DaysUntilDue: int(due.Sub(at) / day),
			})
		}
	}

	sortAlerts(out.Upcoming)
	sortAlerts(out.Overdue)
	return out
}

func (c *Calculator) dueDate(s Subject, anchor time.Time) time.Time {
	if c.policy == PolicyJoiningDay {
		dom := anchor.Day()
		if s.DateOfJoining != nil {
			dom = s.DateOfJoining.Day()
		}
		return nextDayOfMonthAfter(anchor.AddDate(0, 0, GraceDays), dom)
	}
	return employee.NextSalaryDate(anchor)
}

// nextDayOfMonthAfter returns the first date strictly after base whose day
// is dom, clamped to the month length (31 becomes 28/29/30 where needed).
func nextDayOfMonthAfter(base time.Time, dom int) time.Time {
	y, m, _ := base.Date()
	for i := 0; i < 2; i++ {
		first := time.Date(y, m+time.Month(i), 1, 0, 0, 0, 0, base.Location())
		last := now.With(first).EndOfMonth().Day()
		d := dom
		if d > last {
			d = last
		}
		candidate := time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, base.Location())
		if candidate.After(base) {
			return candidate
		}
	}
	// unreachable: the following month always has a matching day after base
	return base
}

func sortAlerts(alerts []Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		if !alerts[i].DueDate.Equal(alerts[j].DueDate) {
			return alerts[i].DueDate.Before(alerts[j].DueDate)
		}
		return alerts[i].Subject.Name < alerts[j].Subject.Name
	})
}

// CalendarDaysUntil compares calendar days, ignoring the time of day.
// Negative means due is in the past. due is a date-only value, so its
// year/month/day are read as-is and placed in at's zone.
func CalendarDaysUntil(due, at time.Time) int {
	dueDay := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, at.Location())
	today := now.With(at).BeginningOfDay()
	return int(dueDay.Sub(today).Round(time.Hour) / day)
}

// StatusLabel is the schedule label for a due date.
func StatusLabel(due, at time.Time) string {
	switch d := CalendarDaysUntil(due, at); {
	case d < 0:
		return StatusOverdue
	case d == 0:
		return StatusDueToday
	default:
		return StatusUpcoming
	}
}
