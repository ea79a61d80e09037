package usererrors

import (
	"go-salary/internal/shared/apperror"
	"net/http"
)

var (
	ErrUserNotFound = apperror.New(
		apperror.CodeNotFound,
		"User not found",
		http.StatusNotFound,
	)

	ErrInvalidUserID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid user ID",
		http.StatusBadRequest,
	)

	ErrInvalidRole = apperror.New(
		apperror.CodeInvalidInput,
		"Role must be one of ADMIN, HR, FINANCE, VIEWER",
		http.StatusBadRequest,
	)

	ErrWrongPassword = apperror.New(
		apperror.CodeInvalidInput,
		"Current password is incorrect",
		http.StatusBadRequest,
	)

	ErrSelfModification = apperror.New(
		apperror.CodeInvalidState,
		"You cannot change your own role or status",
		http.StatusConflict,
	)
)
