package employeeerrors

import (
	"go-salary/internal/shared/apperror"
	"net/http"
)

var (
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"Employee not found",
		http.StatusNotFound,
	)
	ErrEmployeeAlreadyExists = apperror.New(
		apperror.CodeConflict,
		"Employee with the same email already exists",
		http.StatusConflict,
	)
	ErrEmployeeHasTransactions = apperror.New(
		apperror.CodeConflict,
		"Employee still has salary transactions",
		http.StatusConflict,
	)
	ErrConcurrentUpdate = apperror.New(
		apperror.CodeConflict,
		"Employee was modified by another request, reload and try again",
		http.StatusConflict,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid employee ID",
		http.StatusBadRequest,
	)
	ErrInvalidDateOfJoining = apperror.New(
		apperror.CodeValidation,
		"date_of_joining must use the YYYY-MM-DD format",
		http.StatusBadRequest,
	)
	ErrInvalidGrossSalary = apperror.New(
		apperror.CodeValidation,
		"gross_salary must be a positive amount",
		http.StatusBadRequest,
	)
)
