package scheduler

import (
	"context"
	"errors"
	"time"

	"go-salary/internal/alert"
	"go-salary/internal/notification"
	"go-salary/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AlertEvaluator interface {
	Evaluate(ctx context.Context) (alert.Alerts, time.Time, error)
}

type ReminderSender interface {
	SendPaymentReminders(ctx context.Context, notificationType string, items []notification.ReminderItem) (int, error)
}

// DigestResult counts reminders sent per notification type.
type DigestResult map[string]int

// DigestJob mails HR about payments due today, due tomorrow and overdue.
type DigestJob struct {
	alerts    AlertEvaluator
	reminders ReminderSender
	logger    *zap.Logger
}

func NewDigestJob(alerts AlertEvaluator, reminders ReminderSender, logger ...*zap.Logger) *DigestJob {
	l := zap.L().Named("scheduler.digest")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("scheduler.digest")
	}
	return &DigestJob{alerts: alerts, reminders: reminders, logger: l}
}

// Classify groups alerts by calendar distance to their due date. Alerts due
// two or more days ahead are left out.
func Classify(alerts alert.Alerts, at time.Time) map[string][]notification.ReminderItem {
	out := map[string][]notification.ReminderItem{}

	all := make([]alert.Alert, 0, len(alerts.Upcoming)+len(alerts.Overdue))
	all = append(all, alerts.Overdue...)
	all = append(all, alerts.Upcoming...)

	for _, a := range all {
		days := alert.CalendarDaysUntil(a.DueDate, at)

		var kind string
		switch {
		case days < 0:
			kind = notification.TypeOverduePayment
			days = -days
		case days == 0:
			kind = notification.TypeTodayPayment
		case days == 1:
			kind = notification.TypeTomorrowPayment
		default:
			continue
		}

		out[kind] = append(out[kind], notification.ReminderItem{
			EmployeeID:   a.Subject.EmployeeID,
			EmployeeName: a.Subject.Name,
			Designation:  a.Subject.Designation,
			Email:        a.Subject.Email,
			DueDate:      a.DueDate.Format("2006-01-02"),
			Days:         days,
		})
	}
	return out
}

func (j *DigestJob) Run(ctx context.Context) (DigestResult, error) {
	ctx = contextutil.WithRequestID(ctx, "digest-"+uuid.NewString())
	log := j.logger.With(zap.String("request_id", contextutil.GetRequestID(ctx)))

	alerts, at, err := j.alerts.Evaluate(ctx)
	if err != nil {
		log.Error("digest evaluate alerts failed", zap.Error(err))
		return nil, err
	}

	groups := Classify(alerts, at)
	result := DigestResult{}
	var errs []error

	for _, kind := range []string{
		notification.TypeOverduePayment,
		notification.TypeTodayPayment,
		notification.TypeTomorrowPayment,
	} {
		items := groups[kind]
		if len(items) == 0 {
			continue
		}
		sent, err := j.reminders.SendPaymentReminders(ctx, kind, items)
		result[kind] = sent
		if err != nil {
			log.Warn("digest reminders partially failed", zap.String("type", kind), zap.Error(err))
			errs = append(errs, err)
		}
	}

	log.Info("digest finished",
		zap.Int(notification.TypeOverduePayment, result[notification.TypeOverduePayment]),
		zap.Int(notification.TypeTodayPayment, result[notification.TypeTodayPayment]),
		zap.Int(notification.TypeTomorrowPayment, result[notification.TypeTomorrowPayment]),
	)
	return result, errors.Join(errs...)
}
