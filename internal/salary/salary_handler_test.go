package salary_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-salary/internal/employee"
	receipterrors "go-salary/internal/receipt/errors"
	"go-salary/internal/salary"
	salaryerrors "go-salary/internal/salary/errors"
	"go-salary/internal/shared/actor"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSalaryService struct {
	RecordPaymentFn func(ctx context.Context, op actor.Operator, req salary.RecordPaymentRequest, upload *salary.ReceiptUpload) (salary.RecordPaymentResponse, error)
	ReverseFn       func(ctx context.Context, op actor.Operator, employeeID, transactionID string) (salary.ReversalResponse, error)
	GetAllFn        func(ctx context.Context) ([]salary.TransactionResponse, error)
	GetByEmployeeFn func(ctx context.Context, employeeID string) ([]salary.TransactionResponse, error)
	GetByIDFn       func(ctx context.Context, id string) (salary.TransactionResponse, error)
}

func (f *fakeSalaryService) RecordPayment(ctx context.Context, op actor.Operator, req salary.RecordPaymentRequest, upload *salary.ReceiptUpload) (salary.RecordPaymentResponse, error) {
	return f.RecordPaymentFn(ctx, op, req, upload)
}
func (f *fakeSalaryService) Reverse(ctx context.Context, op actor.Operator, employeeID, transactionID string) (salary.ReversalResponse, error) {
	return f.ReverseFn(ctx, op, employeeID, transactionID)
}
func (f *fakeSalaryService) GetAll(ctx context.Context) ([]salary.TransactionResponse, error) {
	return f.GetAllFn(ctx)
}
func (f *fakeSalaryService) GetByEmployee(ctx context.Context, employeeID string) ([]salary.TransactionResponse, error) {
	return f.GetByEmployeeFn(ctx, employeeID)
}
func (f *fakeSalaryService) GetByID(ctx context.Context, id string) (salary.TransactionResponse, error) {
	return f.GetByIDFn(ctx, id)
}

func setupRouter(h *salary.Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", "u-1")
		c.Set("email", "hr@example.com")
		c.Set("role", "HR")
		c.Next()
	})
	r.POST("/payments", h.RecordPayment)
	r.GET("/transactions", h.GetAll)
	r.DELETE("/employees/:id/transactions/:transaction_id", h.Reverse)
	return r
}

func multipartBody(t *testing.T, fields map[string]string, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("receipt", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

var validFields = map[string]string{
	"employee_id":        "5f0c3a9e-8d0f-4f43-9d6b-1f8b9d3c2a11",
	"transaction_number": "TX-1",
	"transaction_amount": "50000",
	"transaction_date":   "2024-02-01",
}

func TestSalaryHandler_RecordPayment(t *testing.T) {
	t.Run("success with receipt", func(t *testing.T) {
		svc := &fakeSalaryService{
			RecordPaymentFn: func(_ context.Context, op actor.Operator, req salary.RecordPaymentRequest, upload *salary.ReceiptUpload) (salary.RecordPaymentResponse, error) {
				assert.Equal(t, "hr@example.com", op.Email)
				assert.Equal(t, "TX-1", req.TransactionNumber)
				assert.False(t, req.ConfirmDuplicate)
				require.NotNil(t, upload)
				assert.Equal(t, "bukti.pdf", upload.Filename)
				content, _ := io.ReadAll(upload.Body)
				assert.Equal(t, "%PDF-1.4", string(content))

				number := req.TransactionNumber
				return salary.RecordPaymentResponse{
					Transaction: salary.TransactionResponse{ID: "t-1", TransactionNumber: number},
					LastSalarySent: employee.SnapshotResponse{
						TransactionNumber: &number,
						TransactionAmount: decimal.NewFromInt(50000),
					},
					NextSalaryDate: "2024-03-02",
					SideEffects:    salary.SideEffectsQueued,
					Warnings:       []string{},
				}, nil
			},
		}
		r := setupRouter(salary.NewHandler(svc, nil, 1<<20))

		body, ct := multipartBody(t, validFields, "bukti.pdf", []byte("%PDF-1.4"))
		req := httptest.NewRequest(http.MethodPost, "/payments", body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"next_salary_date":"2024-03-02"`)
		assert.Contains(t, w.Body.String(), `"side_effects":"queued"`)
	})

	t.Run("receipt is optional", func(t *testing.T) {
		svc := &fakeSalaryService{
			RecordPaymentFn: func(_ context.Context, _ actor.Operator, _ salary.RecordPaymentRequest, upload *salary.ReceiptUpload) (salary.RecordPaymentResponse, error) {
				assert.Nil(t, upload)
				return salary.RecordPaymentResponse{NextSalaryDate: "2024-03-02"}, nil
			},
		}
		r := setupRouter(salary.NewHandler(svc, nil, 1<<20))

		body, ct := multipartBody(t, validFields, "", nil)
		req := httptest.NewRequest(http.MethodPost, "/payments", body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("missing field is a validation error", func(t *testing.T) {
		svc := &fakeSalaryService{}
		r := setupRouter(salary.NewHandler(svc, nil, 1<<20))

		fields := map[string]string{"employee_id": validFields["employee_id"], "transaction_amount": "1"}
		body, ct := multipartBody(t, fields, "", nil)
		req := httptest.NewRequest(http.MethodPost, "/payments", body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
	})

	t.Run("duplicate needs confirmation", func(t *testing.T) {
		last := "TX-0"
		svc := &fakeSalaryService{
			RecordPaymentFn: func(context.Context, actor.Operator, salary.RecordPaymentRequest, *salary.ReceiptUpload) (salary.RecordPaymentResponse, error) {
				return salary.RecordPaymentResponse{}, salaryerrors.ErrDuplicatePayment.WithDetails(salary.DuplicatePaymentDetails{
					LastTransactionNumber: &last,
					LastTransactionDate:   "2024-01-20",
				})
			},
		}
		r := setupRouter(salary.NewHandler(svc, nil, 1<<20))

		body, ct := multipartBody(t, validFields, "", nil)
		req := httptest.NewRequest(http.MethodPost, "/payments", body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		var env struct {
			Ok    bool `json:"ok"`
			Error struct {
				Code    string `json:"code"`
				Details struct {
					LastTransactionNumber string `json:"last_transaction_number"`
				} `json:"details"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		assert.False(t, env.Ok)
		assert.Equal(t, "CONFIRMATION_REQUIRED", env.Error.Code)
		assert.Equal(t, "TX-0", env.Error.Details.LastTransactionNumber)
	})

	t.Run("confirm flag is forwarded", func(t *testing.T) {
		svc := &fakeSalaryService{
			RecordPaymentFn: func(_ context.Context, _ actor.Operator, req salary.RecordPaymentRequest, _ *salary.ReceiptUpload) (salary.RecordPaymentResponse, error) {
				assert.True(t, req.ConfirmDuplicate)
				return salary.RecordPaymentResponse{}, nil
			},
		}
		r := setupRouter(salary.NewHandler(svc, nil, 1<<20))

		fields := map[string]string{"confirm_duplicate": "true"}
		for k, v := range validFields {
			fields[k] = v
		}
		body, ct := multipartBody(t, fields, "", nil)
		req := httptest.NewRequest(http.MethodPost, "/payments", body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("upload failure maps to 503", func(t *testing.T) {
		svc := &fakeSalaryService{
			RecordPaymentFn: func(context.Context, actor.Operator, salary.RecordPaymentRequest, *salary.ReceiptUpload) (salary.RecordPaymentResponse, error) {
				return salary.RecordPaymentResponse{}, receipterrors.ErrReceiptUploadFailed
			},
		}
		r := setupRouter(salary.NewHandler(svc, nil, 1<<20))

		body, ct := multipartBody(t, validFields, "r.pdf", []byte("x"))
		req := httptest.NewRequest(http.MethodPost, "/payments", body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestSalaryHandler_Reverse(t *testing.T) {
	svc := &fakeSalaryService{
		ReverseFn: func(_ context.Context, op actor.Operator, employeeID, transactionID string) (salary.ReversalResponse, error) {
			assert.Equal(t, "e-1", employeeID)
			assert.Equal(t, "t-1", transactionID)
			assert.Equal(t, "hr@example.com", op.Label())
			return salary.ReversalResponse{DeletedTransactionID: transactionID, SnapshotRecomputed: true}, nil
		},
	}
	r := setupRouter(salary.NewHandler(svc, nil, 0))

	req := httptest.NewRequest(http.MethodDelete, "/employees/e-1/transactions/t-1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"snapshot_recomputed":true`)
}

func TestSalaryHandler_Reverse_NotFound(t *testing.T) {
	svc := &fakeSalaryService{
		ReverseFn: func(context.Context, actor.Operator, string, string) (salary.ReversalResponse, error) {
			return salary.ReversalResponse{}, salaryerrors.ErrTransactionNotFound
		},
	}
	r := setupRouter(salary.NewHandler(svc, nil, 0))

	req := httptest.NewRequest(http.MethodDelete, "/employees/e-1/transactions/t-9", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSalaryHandler_GetAll_Paginates(t *testing.T) {
	svc := &fakeSalaryService{
		GetAllFn: func(context.Context) ([]salary.TransactionResponse, error) {
			return []salary.TransactionResponse{{ID: "a"}, {ID: "b"}, {ID: "c"}}, nil
		},
	}
	r := setupRouter(salary.NewHandler(svc, nil, 0))

	req := httptest.NewRequest(http.MethodGet, "/transactions?page=2&page_size=2", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"c"`)
	assert.NotContains(t, w.Body.String(), `"id":"a"`)
	assert.Contains(t, w.Body.String(), `"total":3`)
}
