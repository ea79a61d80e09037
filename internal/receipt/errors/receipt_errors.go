package receipterrors

import (
	"go-salary/internal/shared/apperror"
	"net/http"
)

var (
	ErrReceiptNotFound = apperror.New(
		apperror.CodeNotFound,
		"Receipt not found",
		http.StatusNotFound,
	)
	ErrInvalidReceiptRef = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid receipt reference",
		http.StatusBadRequest,
	)
	ErrInvalidReceiptToken = apperror.New(
		apperror.CodeUnauthorized,
		"Receipt link is invalid or has expired",
		http.StatusUnauthorized,
	)
	ErrReceiptUploadFailed = apperror.New(
		apperror.CodeServiceUnavailable,
		"Receipt upload failed, payment was not recorded",
		http.StatusServiceUnavailable,
	)
	ErrReceiptTooLarge = apperror.New(
		apperror.CodeInvalidInput,
		"Receipt file is too large",
		http.StatusRequestEntityTooLarge,
	)
)
