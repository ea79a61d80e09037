package export

import (
	"context"
	"fmt"
	"time"

	"go-salary/internal/events"
	exporterrors "go-salary/internal/export/errors"
	"go-salary/internal/shared/apperror"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const statusSuccess = "success"

// TransactionRow is the row appended to the bookkeeping sheet.
type TransactionRow struct {
	EmployeeName      string `json:"employeeName"`
	Designation       string `json:"designation"`
	TransactionNumber string `json:"transactionNumber"`
	TransactionAmount string `json:"transactionAmount"`
	TransactionDate   string `json:"transactionDate"`
	CreatedBy         string `json:"createdBy"`
	ReceiptURL        string `json:"receiptUrl"`
	CreatedAt         string `json:"created_at"`
}

type exportRequest struct {
	TransactionData TransactionRow `json:"transactionData"`
}

type exportResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Exporter appends a recorded payment to the bookkeeping sink.
type Exporter interface {
	Export(ctx context.Context, event events.SalaryPaymentRecordedEvent) error
}

type Client struct {
	http   *resty.Client
	url    string
	logger *zap.Logger
}

func NewClient(url, token string, timeout time.Duration, logger ...*zap.Logger) *Client {
	l := zap.L().Named("export.client")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("export.client")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	if token != "" {
		c.SetHeader("Authorization", token)
	}

	return &Client{http: c, url: url, logger: l}
}

// RowFromEvent maps a payment event to the sheet row, with the same
// placeholders the sheet uses for missing values.
func RowFromEvent(event events.SalaryPaymentRecordedEvent) TransactionRow {
	row := TransactionRow{
		EmployeeName:      event.EmployeeName,
		Designation:       event.Designation,
		TransactionNumber: event.TransactionNumber,
		TransactionAmount: event.TransactionAmount,
		TransactionDate:   event.TransactionDate,
		CreatedBy:         event.RecordedBy,
		ReceiptURL:        event.ReceiptURL,
		CreatedAt:         event.OccurredAt.UTC().Format(time.RFC3339),
	}
	if row.Designation == "" {
		row.Designation = "N/A"
	}
	if row.CreatedBy == "" {
		row.CreatedBy = "System"
	}
	if row.ReceiptURL == "" {
		row.ReceiptURL = "No Receipt"
	}
	return row
}

func (c *Client) Export(ctx context.Context, event events.SalaryPaymentRecordedEvent) error {
	if c.url == "" {
		return exporterrors.ErrExportNotConfigured
	}

	var out exportResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(exportRequest{TransactionData: RowFromEvent(event)}).
		SetResult(&out).
		SetError(&out).
		Post(c.url)
	if err != nil {
		return err
	}

	if resp.IsError() || out.Status != statusSuccess {
		msg := out.Message
		if msg == "" {
			msg = resp.String()
		}
		c.logger.Warn("export rejected",
			zap.Int("status", resp.StatusCode()),
			zap.String("transaction_id", event.TransactionID),
			zap.String("message", msg),
		)
		return apperror.Wrap(
			fmt.Errorf("status %d: %s", resp.StatusCode(), msg),
			exporterrors.ErrExportRejected.Code,
			exporterrors.ErrExportRejected.Message,
			exporterrors.ErrExportRejected.HTTPStatus,
		)
	}

	c.logger.Debug("export appended", zap.String("transaction_id", event.TransactionID))
	return nil
}
