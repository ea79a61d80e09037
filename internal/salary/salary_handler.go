package salary

import (
	"errors"
	"net/http"
	"strconv"

	receipterrors "go-salary/internal/receipt/errors"
	"go-salary/internal/middleware"
	"go-salary/internal/shared/actor"
	"go-salary/internal/shared/apperror"
	"go-salary/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// multipartOverhead leaves room for the text fields next to the receipt.
const multipartOverhead = 1 << 20

type Handler struct {
	service         Service
	rdb             *redis.Client
	maxReceiptBytes int64
	logger          *zap.Logger
}

func NewHandler(service Service, rdb *redis.Client, maxReceiptBytes int64, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("salary.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("salary.handler")
	}
	return &Handler{
		service:         service,
		rdb:             rdb,
		maxReceiptBytes: maxReceiptBytes,
		logger:          l,
	}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("salary request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) RecordPayment(c *gin.Context) {
	defer middleware.ReleaseIdempotencyLock(c, h.rdb)

	if h.maxReceiptBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxReceiptBytes+multipartOverhead)
	}

	var req RecordPaymentRequest
	if err := c.ShouldBind(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeServiceError(c, receipterrors.ErrReceiptTooLarge)
			return
		}
		h.logger.Warn("http record payment validation failed", zap.Error(err))
		// The payment form shows one field message at a time.
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	var upload *ReceiptUpload
	fh, err := c.FormFile("receipt")
	switch {
	case err == nil:
		f, err := fh.Open()
		if err != nil {
			h.logger.Warn("http record payment open receipt failed", zap.Error(err))
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Receipt tidak dapat dibaca", nil)
			return
		}
		defer f.Close()
		upload = &ReceiptUpload{Filename: fh.Filename, Size: fh.Size, Body: f}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		h.logger.Warn("http record payment read receipt failed", zap.Error(err))
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Input tidak valid", err.Error())
		return
	}

	resp, err := h.service.RecordPayment(c.Request.Context(), actor.FromGin(c), req, upload)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	middleware.StoreIdempotentResponse(c, h.rdb, http.StatusCreated, resp)
	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) Reverse(c *gin.Context) {
	resp, err := h.service.Reverse(
		c.Request.Context(),
		actor.FromGin(c),
		c.Param("id"),
		c.Param("transaction_id"),
	)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetAll(c *gin.Context) {
	resp, err := h.service.GetAll(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	items, meta := response.Paginate(resp, page, pageSize)
	response.Success(c, http.StatusOK, items, &meta)
}

func (h *Handler) GetByEmployee(c *gin.Context) {
	resp, err := h.service.GetByEmployee(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetById(c *gin.Context) {
	resp, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}
