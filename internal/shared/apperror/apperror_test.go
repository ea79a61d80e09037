package apperror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"go-salary/internal/shared/apperror"

	"github.com/stretchr/testify/assert"
)

func TestToHTTP(t *testing.T) {
	t.Run("app error keeps status and code", func(t *testing.T) {
		err := apperror.New(apperror.CodeNotFound, "Employee not found", http.StatusNotFound)

		got := apperror.ToHTTP(fmt.Errorf("lookup: %w", err))

		assert.Equal(t, http.StatusNotFound, got.Status)
		assert.Equal(t, apperror.CodeNotFound, got.Code)
		assert.Equal(t, "Employee not found", got.Message)
	})

	t.Run("details are forwarded", func(t *testing.T) {
		err := apperror.New(apperror.CodeConfirmationRequired, "confirm", http.StatusConflict).
			WithDetails(map[string]string{"transaction_number": "TX-1"})

		got := apperror.ToHTTP(err)

		assert.Equal(t, http.StatusConflict, got.Status)
		assert.Equal(t, map[string]string{"transaction_number": "TX-1"}, got.Details)
	})

	t.Run("unknown error hides internals", func(t *testing.T) {
		got := apperror.ToHTTP(errors.New("pq: connection refused"))

		assert.Equal(t, http.StatusInternalServerError, got.Status)
		assert.Equal(t, apperror.CodeInternalError, got.Code)
		assert.NotContains(t, got.Message, "pq")
	})
}

func TestAppError_IsMatchesCopies(t *testing.T) {
	base := apperror.New(apperror.CodeConflict, "stale", http.StatusConflict)
	withDetails := base.WithDetails("x")

	assert.True(t, errors.Is(withDetails, base))
	assert.Nil(t, base.Details)
}

func TestFieldErrors(t *testing.T) {
	assert.Equal(t, "Transaction Number is required", apperror.RequiredField("Transaction Number").Message)
	assert.Equal(t, "Amount is invalid", apperror.InvalidField("Amount").Message)
	assert.Equal(t, http.StatusBadRequest, apperror.InvalidField("Amount").HTTPStatus)
}
