package exporterrors

import (
	"go-salary/internal/shared/apperror"
	"net/http"
)

var (
	ErrExportNotConfigured = apperror.New(
		apperror.CodeInvalidState,
		"Bookkeeping export is not configured",
		http.StatusUnprocessableEntity,
	)
	ErrExportRejected = apperror.New(
		apperror.CodeServiceUnavailable,
		"Bookkeeping export rejected the row",
		http.StatusServiceUnavailable,
	)
)
