package salaryerrors

import (
	"go-salary/internal/shared/apperror"
	"net/http"
)

var (
	ErrTransactionNotFound = apperror.New(
		apperror.CodeNotFound,
		"Salary transaction not found",
		http.StatusNotFound,
	)
	ErrInvalidTransactionID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid transaction ID",
		http.StatusBadRequest,
	)
	ErrInvalidTransactionNumber = apperror.New(
		apperror.CodeValidation,
		"transaction_number is required",
		http.StatusBadRequest,
	)
	ErrInvalidAmount = apperror.New(
		apperror.CodeValidation,
		"transaction_amount must be a positive number with at most 2 decimals",
		http.StatusBadRequest,
	)
	ErrInvalidTransactionDate = apperror.New(
		apperror.CodeValidation,
		"transaction_date must use the YYYY-MM-DD format",
		http.StatusBadRequest,
	)
	ErrDuplicatePayment = apperror.New(
		apperror.CodeConfirmationRequired,
		"A salary payment was already recorded for this employee in the last 30 days",
		http.StatusConflict,
	)
)
