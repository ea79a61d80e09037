package alerterrors

import (
	"go-salary/internal/shared/apperror"
	"net/http"
)

var (
	ErrInvalidMonth = apperror.New(
		apperror.CodeValidation,
		"month must be between 1 and 12",
		http.StatusBadRequest,
	)
	ErrInvalidYear = apperror.New(
		apperror.CodeValidation,
		"year must be a four digit year",
		http.StatusBadRequest,
	)
)
