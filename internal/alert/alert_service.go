package alert

import (
	"context"
	"time"

	alerterrors "go-salary/internal/alert/errors"
	"go-salary/internal/employee"
	"go-salary/internal/shared/metrics"

	"github.com/jinzhu/now"
	"go.uber.org/zap"
)

type Config struct {
	Policy Policy
	// Now overrides the wall clock, mainly for tests.
	Now func() time.Time
}

type Service interface {
	Evaluate(ctx context.Context) (Alerts, time.Time, error)
	GetAlerts(ctx context.Context) (AlertsResponse, error)
	GetSchedule(ctx context.Context, month, year int) (ScheduleResponse, error)
}

type service struct {
	repo       employee.Repository
	calculator *Calculator
	now        func() time.Time
	logger     *zap.Logger
}

func NewService(repo employee.Repository, cfg Config, logger ...*zap.Logger) Service {
	l := zap.L().Named("alert.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("alert.service")
	}
	clock := cfg.Now
	if clock == nil {
		clock = time.Now
	}
	return &service{
		repo:       repo,
		calculator: NewCalculator(cfg.Policy, l),
		now:        clock,
		logger:     l,
	}
}

// Evaluate runs the calculator over every employee and returns the buckets
// with the reference time that was used.
func (s *service) Evaluate(ctx context.Context) (Alerts, time.Time, error) {
	at := s.now()

	empls, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("evaluate alerts load employees failed", zap.Error(err))
		return Alerts{}, at, employee.MapRepositoryError(err)
	}

	subjects := make([]Subject, len(empls))
	for i, e := range empls {
		subjects[i] = SubjectFromEmployee(e)
	}

	alerts := s.calculator.Calculate(subjects, at)

	metrics.AlertsComputed.WithLabelValues("upcoming").Set(float64(len(alerts.Upcoming)))
	metrics.AlertsComputed.WithLabelValues("overdue").Set(float64(len(alerts.Overdue)))

	s.logger.Debug("alerts evaluated",
		zap.Int("employees", len(empls)),
		zap.Int("upcoming", len(alerts.Upcoming)),
		zap.Int("overdue", len(alerts.Overdue)),
	)
	return alerts, at, nil
}

func (s *service) GetAlerts(ctx context.Context) (AlertsResponse, error) {
	alerts, at, err := s.Evaluate(ctx)
	if err != nil {
		return AlertsResponse{}, err
	}

	resp := AlertsResponse{
		Upcoming:    make([]AlertResponse, len(alerts.Upcoming)),
		Overdue:     make([]AlertResponse, len(alerts.Overdue)),
		Policy:      s.calculator.Policy(),
		GeneratedAt: at,
	}
	for i, a := range alerts.Upcoming {
		days := a.DaysUntilDue
		resp.Upcoming[i] = mapAlert(a)
		resp.Upcoming[i].DaysUntilDue = &days
	}
	for i, a := range alerts.Overdue {
		days := a.DaysOverdue
		resp.Overdue[i] = mapAlert(a)
		resp.Overdue[i].DaysOverdue = &days
	}
	return resp, nil
}

func (s *service) GetSchedule(ctx context.Context, month, year int) (ScheduleResponse, error) {
	at := s.now()
	if month == 0 {
		month = int(at.Month())
	}
	if year == 0 {
		year = at.Year()
	}
	if month < 1 || month > 12 {
		return ScheduleResponse{}, alerterrors.ErrInvalidMonth
	}
	if year < 1000 || year > 9999 {
		return ScheduleResponse{}, alerterrors.ErrInvalidYear
	}

	from := now.With(time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)).BeginningOfMonth()
	to := from.AddDate(0, 1, 0)

	empls, err := s.repo.FindByNextSalaryDateBetween(ctx, from, to)
	if err != nil {
		s.logger.Error("schedule load employees failed",
			zap.Int("month", month),
			zap.Int("year", year),
			zap.Error(err),
		)
		return ScheduleResponse{}, employee.MapRepositoryError(err)
	}

	items := make([]ScheduleItem, 0, len(empls))
	for _, e := range empls {
		if e.NextSalaryDate == nil {
			continue
		}
		items = append(items, ScheduleItem{
			EmployeeID:     e.ID.String(),
			Name:           e.Name,
			Designation:    e.Designation,
			GrossSalary:    e.GrossSalary,
			NextSalaryDate: e.NextSalaryDate.Format("2006-01-02"),
			Status:         StatusLabel(*e.NextSalaryDate, at),
		})
	}

	return ScheduleResponse{Month: month, Year: year, Items: items}, nil
}

func mapAlert(a Alert) AlertResponse {
	return AlertResponse{
		EmployeeID:     a.Subject.EmployeeID,
		Name:           a.Subject.Name,
		Designation:    a.Subject.Designation,
		LastSalarySent: employee.MapToSnapshotResponse(a.Subject.Snapshot),
		NextSalaryDate: a.DueDate.Format("2006-01-02"),
	}
}
