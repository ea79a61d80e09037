package notification

import (
	"context"
	"fmt"
	"net/http"

	notificationerrors "go-salary/internal/notification/errors"
	"go-salary/internal/shared/apperror"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

const sendEndpoint = "/v3/mail/send"

// Sender delivers a templated email to every address in to.
type Sender interface {
	Send(ctx context.Context, to []string, templateID string, params map[string]any) error
}

type SendGridSender struct {
	apiKey string
	host   string
	from   *mail.Email
	logger *zap.Logger
}

func NewSendGridSender(apiKey, host, fromAddress, fromName string, logger ...*zap.Logger) *SendGridSender {
	l := zap.L().Named("notification.sendgrid")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notification.sendgrid")
	}
	return &SendGridSender{
		apiKey: apiKey,
		host:   host,
		from:   mail.NewEmail(fromName, fromAddress),
		logger: l,
	}
}

func (s *SendGridSender) Send(ctx context.Context, to []string, templateID string, params map[string]any) error {
	if len(to) == 0 {
		return notificationerrors.ErrNoRecipients
	}
	if templateID == "" {
		return notificationerrors.ErrTemplateNotConfigured
	}

	m := mail.NewV3Mail()
	m.SetFrom(s.from)
	m.SetTemplateID(templateID)

	p := mail.NewPersonalization()
	for _, addr := range to {
		p.AddTos(mail.NewEmail("", addr))
	}
	for k, v := range params {
		p.SetDynamicTemplateData(k, v)
	}
	m.AddPersonalizations(p)

	req := sendgrid.GetRequest(s.apiKey, sendEndpoint, s.host)
	req.Method = rest.Post
	req.Body = mail.GetRequestBody(m)

	resp, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		s.logger.Warn("sendgrid rejected message",
			zap.Int("status", resp.StatusCode),
			zap.String("body", resp.Body),
			zap.String("template_id", templateID),
		)
		return apperror.Wrap(
			fmt.Errorf("sendgrid status %d", resp.StatusCode),
			notificationerrors.ErrDeliveryFailed.Code,
			notificationerrors.ErrDeliveryFailed.Message,
			notificationerrors.ErrDeliveryFailed.HTTPStatus,
		)
	}

	s.logger.Debug("email accepted",
		zap.Int("status", resp.StatusCode),
		zap.Int("recipients", len(to)),
		zap.String("template_id", templateID),
	)
	return nil
}

// LogSender only logs; used when no email provider is configured.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger ...*zap.Logger) *LogSender {
	l := zap.L().Named("notification.log_sender")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notification.log_sender")
	}
	return &LogSender{logger: l}
}

func (s *LogSender) Send(_ context.Context, to []string, templateID string, params map[string]any) error {
	if len(to) == 0 {
		return notificationerrors.ErrNoRecipients
	}
	s.logger.Info("email not sent, no provider configured",
		zap.Strings("to", to),
		zap.String("template_id", templateID),
		zap.Any("params", params),
	)
	return nil
}
