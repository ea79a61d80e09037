package notificationerrors

import (
	"go-salary/internal/shared/apperror"
	"net/http"
)

var (
	ErrNoRecipients = apperror.New(
		apperror.CodeInvalidInput,
		"Notification has no recipients",
		http.StatusBadRequest,
	)
	ErrTemplateNotConfigured = apperror.New(
		apperror.CodeInvalidState,
		"Email template is not configured",
		http.StatusUnprocessableEntity,
	)
	ErrDeliveryFailed = apperror.New(
		apperror.CodeServiceUnavailable,
		"Email provider rejected the message",
		http.StatusServiceUnavailable,
	)
)
