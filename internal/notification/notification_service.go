package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-salary/internal/events"
	"go-salary/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	defaultListLimit   = 20
	maxListLimit       = 100
	defaultReminderTTL = 48 * time.Hour
)

type Config struct {
	PaymentTemplateID  string
	ReminderTemplateID string
	AlertRecipients    []string
	// ReminderTTL bounds how long a sent reminder suppresses the same one.
	ReminderTTL time.Duration
	Now         func() time.Time
}

type Service interface {
	SendPaymentReceipt(ctx context.Context, event events.SalaryPaymentRecordedEvent) error
	SendPaymentReminders(ctx context.Context, notificationType string, items []ReminderItem) (int, error)
	List(ctx context.Context, notificationType string, limit int) ([]NotificationResponse, error)
}

type service struct {
	repo   Repository
	sender Sender
	rdb    *redis.Client
	cfg    Config
	logger *zap.Logger
}

func NewService(repo Repository, sender Sender, rdb *redis.Client, cfg Config, logger ...*zap.Logger) Service {
	l := zap.L().Named("notification.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notification.service")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.ReminderTTL <= 0 {
		cfg.ReminderTTL = defaultReminderTTL
	}
	return &service{
		repo:   repo,
		sender: sender,
		rdb:    rdb,
		cfg:    cfg,
		logger: l,
	}
}

func (s *service) SendPaymentReceipt(ctx context.Context, event events.SalaryPaymentRecordedEvent) error {
	msg := Message{
		Type:       TypePaymentReceipt,
		EmployeeID: event.EmployeeID,
		To:         []string{event.EmployeeEmail},
		TemplateID: s.cfg.PaymentTemplateID,
		Params: map[string]any{
			"employee_name":      event.EmployeeName,
			"employee_email":     event.EmployeeEmail,
			"transaction_number": event.TransactionNumber,
			"transaction_amount": event.TransactionAmount,
			"transaction_date":   event.TransactionDate,
			"next_salary_date":   event.NextSalaryDate,
			"receipt_url":        event.ReceiptURL,
		},
	}
	return s.deliver(ctx, msg)
}

func (s *service) SendPaymentReminders(ctx context.Context, notificationType string, items []ReminderItem) (int, error) {
	log := contextutil.GetLogger(ctx, s.logger).With(zap.String("type", notificationType))

	if len(s.cfg.AlertRecipients) == 0 {
		log.Info("payment reminders skipped, no recipients configured", zap.Int("items", len(items)))
		return 0, nil
	}

	sent := 0
	var failures []string
	for _, item := range items {
		key := reminderKey(notificationType, item)
		if !s.claimReminder(ctx, key) {
			log.Debug("payment reminder already sent", zap.String("employee_id", item.EmployeeID))
			continue
		}

		err := s.deliver(ctx, Message{
			Type:       notificationType,
			EmployeeID: item.EmployeeID,
			To:         s.cfg.AlertRecipients,
			TemplateID: s.cfg.ReminderTemplateID,
			Params: map[string]any{
				"type":           notificationType,
				"employee_name":  item.EmployeeName,
				"employee_email": item.Email,
				"designation":    item.Designation,
				"due_date":       item.DueDate,
				"days":           item.Days,
			},
		})
		if err != nil {
			s.releaseReminder(ctx, key)
			failures = append(failures, item.EmployeeID)
			continue
		}
		sent++
	}

	if len(failures) > 0 {
		return sent, fmt.Errorf("%d of %d %s reminders failed: %s",
			len(failures), len(items), notificationType, strings.Join(failures, ","))
	}
	return sent, nil
}

func (s *service) List(ctx context.Context, notificationType string, limit int) ([]NotificationResponse, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	list, err := s.repo.List(ctx, notificationType, limit)
	if err != nil {
		s.logger.Error("list notifications failed", zap.Error(err))
		return nil, err
	}

	res := make([]NotificationResponse, len(list))
	for i, n := range list {
		res[i] = mapToResponse(n)
	}
	return res, nil
}

// deliver sends once and records the attempt, whatever its outcome.
func (s *service) deliver(ctx context.Context, msg Message) error {
	log := contextutil.GetLogger(ctx, s.logger).With(
		zap.String("type", msg.Type),
		zap.String("employee_id", msg.EmployeeID),
	)

	sendErr := s.sender.Send(ctx, msg.To, msg.TemplateID, msg.Params)

	n := &Notification{
		ID:           uuid.New(),
		Type:         msg.Type,
		Recipients:   datatypes.JSONSlice[string](msg.To),
		TemplateID:   msg.TemplateID,
		EmployeeData: datatypes.JSONMap(msg.Params),
		Status:       StatusSent,
	}
	if id, err := uuid.Parse(msg.EmployeeID); err == nil {
		n.EmployeeID = &id
	}
	if sendErr != nil {
		reason := sendErr.Error()
		n.Status = StatusFailed
		n.ErrorMessage = &reason
		log.Warn("email delivery failed", zap.Error(sendErr))
	} else {
		at := s.cfg.Now().UTC()
		n.SentAt = &at
		log.Info("email delivered", zap.Strings("to", msg.To))
	}

	if s.repo != nil {
		if err := s.repo.Create(contextutil.Detach(ctx), n); err != nil {
			log.Error("record notification failed", zap.Error(err))
		}
	}

	return sendErr
}

func reminderKey(notificationType string, item ReminderItem) string {
	return fmt.Sprintf("notifications:reminder:%s:%s:%s", notificationType, item.EmployeeID, item.DueDate)
}

// claimReminder reports whether this reminder may be sent now. Without
// redis every reminder is sent.
func (s *service) claimReminder(ctx context.Context, key string) bool {
	if s.rdb == nil {
		return true
	}
	ok, err := s.rdb.SetNX(ctx, key, s.cfg.Now().UTC().Format(time.RFC3339), s.cfg.ReminderTTL).Result()
	if err != nil {
		s.logger.Warn("reminder dedup unavailable, sending anyway", zap.String("key", key), zap.Error(err))
		return true
	}
	return ok
}

func (s *service) releaseReminder(ctx context.Context, key string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		s.logger.Warn("release reminder key failed", zap.String("key", key), zap.Error(err))
	}
}

func mapToResponse(n Notification) NotificationResponse {
	var empID *string
	if n.EmployeeID != nil {
		v := n.EmployeeID.String()
		empID = &v
	}
	return NotificationResponse{
		ID:           n.ID.String(),
		Type:         n.Type,
		EmployeeID:   empID,
		Recipients:   []string(n.Recipients),
		EmployeeData: map[string]any(n.EmployeeData),
		Status:       n.Status,
		ErrorMessage: n.ErrorMessage,
		SentAt:       n.SentAt,
		CreatedAt:    n.CreatedAt,
	}
}
