package salary

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go-salary/internal/bootstrap"
	"go-salary/internal/employee"
	employeeerrors "go-salary/internal/employee/errors"
	"go-salary/internal/events"
	"go-salary/internal/messaging/kafka"
	"go-salary/internal/receipt"
	receipterrors "go-salary/internal/receipt/errors"
	salaryerrors "go-salary/internal/salary/errors"
	"go-salary/internal/shared/actor"
	"go-salary/internal/shared/apperror"
	"go-salary/internal/shared/contextutil"
	"go-salary/internal/shared/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// duplicateWindow is how recent the last payment must be for a new one to
// need explicit confirmation.
const duplicateWindow = employee.PayCycleDays * 24 * time.Hour

// SideEffects delivers the receipt email and the bookkeeping export for a
// recorded payment. Every returned error is reported to the operator as a
// warning; none of them undo the payment.
type SideEffects interface {
	Dispatch(ctx context.Context, event events.SalaryPaymentRecordedEvent) []error
}

type Options struct {
	// Store is required only when a receipt file is uploaded.
	Store receipt.Store
	// Outbox, when set, queues side effects in the payment's transaction.
	Outbox kafka.OutboxRepository
	// Dispatcher runs side effects inline when no outbox is configured.
	Dispatcher SideEffects
	// Audit receives one entry per committed payment or reversal.
	Audit             bootstrap.AuditLogger
	ReceiptURLTTL     time.Duration
	MaxReceiptBytes   int64
	SideEffectTimeout time.Duration
	Now               func() time.Time
}

type Service interface {
	RecordPayment(ctx context.Context, op actor.Operator, req RecordPaymentRequest, upload *ReceiptUpload) (RecordPaymentResponse, error)
	Reverse(ctx context.Context, op actor.Operator, employeeID, transactionID string) (ReversalResponse, error)
	GetAll(ctx context.Context) ([]TransactionResponse, error)
	GetByEmployee(ctx context.Context, employeeID string) ([]TransactionResponse, error)
	GetByID(ctx context.Context, id string) (TransactionResponse, error)
}

type service struct {
	db        *sql.DB
	repo      Repository
	employees employee.Repository
	opts      Options
	logger    *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	employees employee.Repository,
	opts Options,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("salary.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("salary.service")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ReceiptURLTTL <= 0 {
		opts.ReceiptURLTTL = 30 * 24 * time.Hour
	}
	if opts.SideEffectTimeout <= 0 {
		opts.SideEffectTimeout = 10 * time.Second
	}
	return &service{
		db:        db,
		repo:      repo,
		employees: employees,
		opts:      opts,
		logger:    l,
	}
}

type paymentInput struct {
	employeeID uuid.UUID
	number     string
	amount     decimal.Decimal
	date       time.Time
}

func validatePayment(req RecordPaymentRequest) (paymentInput, error) {
	var in paymentInput

	id, err := uuid.Parse(strings.TrimSpace(req.EmployeeID))
	if err != nil {
		return in, employeeerrors.ErrInvalidEmployeeID
	}
	in.employeeID = id

	in.number = strings.TrimSpace(req.TransactionNumber)
	if in.number == "" {
		return in, salaryerrors.ErrInvalidTransactionNumber
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(req.TransactionAmount))
	if err != nil || !amount.IsPositive() || !amount.Equal(amount.Round(2)) {
		return in, salaryerrors.ErrInvalidAmount
	}
	in.amount = amount

	date, err := time.ParseInLocation(dateLayout, strings.TrimSpace(req.TransactionDate), time.UTC)
	if err != nil {
		return in, salaryerrors.ErrInvalidTransactionDate
	}
	in.date = date

	return in, nil
}

func (s *service) RecordPayment(
	ctx context.Context,
	op actor.Operator,
	req RecordPaymentRequest,
	upload *ReceiptUpload,
) (RecordPaymentResponse, error) {
	started := s.opts.Now()
	rid := contextutil.GetRequestID(ctx)
	log := contextutil.GetLogger(ctx, s.logger).With(zap.String("employee_id", req.EmployeeID))
	log.Debug("record payment requested",
		zap.String("request_id", rid),
		zap.String("transaction_number", req.TransactionNumber),
	)

	in, err := validatePayment(req)
	if err != nil {
		log.Warn("record payment validation failed", zap.Error(err))
		metrics.PaymentsRecorded.WithLabelValues("failed").Inc()
		return RecordPaymentResponse{}, err
	}
	if upload != nil && s.opts.MaxReceiptBytes > 0 && upload.Size > s.opts.MaxReceiptBytes {
		metrics.PaymentsRecorded.WithLabelValues("failed").Inc()
		return RecordPaymentResponse{}, receipterrors.ErrReceiptTooLarge
	}

	empl, err := s.employees.FindByID(ctx, in.employeeID.String())
	if err != nil {
		log.Warn("record payment load employee failed", zap.Error(err))
		metrics.PaymentsRecorded.WithLabelValues("failed").Inc()
		return RecordPaymentResponse{}, employee.MapRepositoryError(err)
	}

	// 1. Duplicate guard
	now := s.opts.Now()
	prev := empl.Snapshot()
	if prev.TransactionDate != nil && prev.TransactionDate.After(now.Add(-duplicateWindow)) && !req.ConfirmDuplicate {
		log.Info("record payment needs confirmation",
			zap.Time("last_transaction_date", *prev.TransactionDate),
		)
		metrics.PaymentsRecorded.WithLabelValues("confirmation_required").Inc()
		return RecordPaymentResponse{}, salaryerrors.ErrDuplicatePayment.WithDetails(DuplicatePaymentDetails{
			EmployeeID:            empl.ID.String(),
			LastTransactionNumber: prev.TransactionNumber,
			LastTransactionAmount: prev.TransactionAmount,
			LastTransactionDate:   prev.TransactionDate.Format(dateLayout),
			NextSalaryDate:        formatDate(empl.NextSalaryDate),
		})
	}

	// 2. Receipt upload, before anything is persisted
	var receiptRef, receiptURL *string
	if upload != nil {
		ref, url, err := s.uploadReceipt(ctx, empl.ID.String(), upload, now)
		if err != nil {
			log.Error("record payment receipt upload failed", zap.String("step", "upload_receipt"), zap.Error(err))
			metrics.PaymentsRecorded.WithLabelValues("failed").Inc()
			return RecordPaymentResponse{}, err
		}
		receiptRef, receiptURL = &ref, &url
	}

	// 3. Next due date
	next := employee.NextSalaryDate(in.date)

	trx := &SalaryTransaction{
		ID:                uuid.New(),
		EmployeeID:        empl.ID,
		EmployeeName:      empl.Name,
		TransactionNumber: in.number,
		TransactionAmount: in.amount,
		TransactionDate:   in.date,
		ReceiptRef:        receiptRef,
		ReceiptURL:        receiptURL,
		Status:            StatusCompleted,
		UpdatedBy:         op.Label(),
	}
	snapshot := employee.SalarySnapshot{
		TransactionNumber: &trx.TransactionNumber,
		TransactionAmount: trx.TransactionAmount,
		TransactionDate:   &trx.TransactionDate,
		ReceiptURL:        receiptURL,
	}
	event := events.SalaryPaymentRecordedEvent{
		EventType:         events.SalaryPaymentRecordedType,
		RequestID:         rid,
		TransactionID:     trx.ID.String(),
		TransactionNumber: trx.TransactionNumber,
		TransactionAmount: trx.TransactionAmount.StringFixed(2),
		TransactionDate:   trx.TransactionDate.Format(dateLayout),
		NextSalaryDate:    next.Format(dateLayout),
		ReceiptURL:        deref(receiptURL),
		EmployeeID:        empl.ID.String(),
		EmployeeName:      empl.Name,
		EmployeeEmail:     empl.Email,
		Designation:       empl.Designation,
		RecordedBy:        op.Label(),
		OccurredAt:        now.UTC(),
	}

	// 4 + 5 (+ outbox) in one unit
	if step, err := s.persistPayment(ctx, trx, empl, snapshot, next, event); err != nil {
		log.Error("record payment persist failed",
			zap.String("transaction_id", trx.ID.String()),
			zap.String("step", step),
			zap.Error(err),
		)
		s.discardReceipt(ctx, receiptRef)
		metrics.PaymentsRecorded.WithLabelValues("failed").Inc()
		return RecordPaymentResponse{}, err
	}
	trx.CreatedAt = now

	// 6 + 7
	sideEffects, warnings := s.runSideEffects(ctx, event)
	for _, w := range warnings {
		log.Warn("record payment side effect failed",
			zap.String("transaction_id", trx.ID.String()),
			zap.String("warning", w),
		)
	}

	metrics.PaymentsRecorded.WithLabelValues("success").Inc()
	metrics.PaymentRecordDuration.Observe(s.opts.Now().Sub(started).Seconds())
	s.audit(ctx, bootstrap.AuditLog{
		Action:  bootstrap.AuditPaymentRecorded,
		Message: "salary payment recorded",
		Actor:   op.Label(),
		Meta: map[string]any{
			"employee_id":         empl.ID.String(),
			"transaction_id":      trx.ID.String(),
			"transaction_number":  trx.TransactionNumber,
			"transaction_amount":  event.TransactionAmount,
			"transaction_date":    event.TransactionDate,
			"confirmed_duplicate": req.ConfirmDuplicate,
			"side_effects":        sideEffects,
		},
	})

	log.Info("record payment success",
		zap.String("request_id", rid),
		zap.String("transaction_id", trx.ID.String()),
		zap.String("next_salary_date", next.Format(dateLayout)),
		zap.String("side_effects", sideEffects),
	)

	return RecordPaymentResponse{
		Transaction:    s.mapToResponse(*trx),
		LastSalarySent: employee.MapToSnapshotResponse(snapshot),
		NextSalaryDate: next.Format(dateLayout),
		SideEffects:    sideEffects,
		Warnings:       warnings,
	}, nil
}

func (s *service) uploadReceipt(ctx context.Context, employeeID string, upload *ReceiptUpload, at time.Time) (string, string, error) {
	if s.opts.Store == nil {
		return "", "", apperror.Wrap(
			errors.New("receipt store is not configured"),
			receipterrors.ErrReceiptUploadFailed.Code,
			receipterrors.ErrReceiptUploadFailed.Message,
			receipterrors.ErrReceiptUploadFailed.HTTPStatus,
		)
	}

	ref, err := s.opts.Store.Put(ctx, receipt.ObjectKey(employeeID, upload.Filename, at), upload.Body)
	if err != nil {
		return "", "", apperror.Wrap(err,
			receipterrors.ErrReceiptUploadFailed.Code,
			receipterrors.ErrReceiptUploadFailed.Message,
			receipterrors.ErrReceiptUploadFailed.HTTPStatus,
		)
	}

	url, err := s.opts.Store.URL(ref, s.opts.ReceiptURLTTL)
	if err != nil {
		s.discardReceipt(ctx, &ref)
		return "", "", apperror.Wrap(err,
			receipterrors.ErrReceiptUploadFailed.Code,
			receipterrors.ErrReceiptUploadFailed.Message,
			receipterrors.ErrReceiptUploadFailed.HTTPStatus,
		)
	}

	return ref, url, nil
}

// persistPayment inserts the transaction and moves the employee snapshot in
// a single database transaction. The returned step names what failed.
func (s *service) persistPayment(
	ctx context.Context,
	trx *SalaryTransaction,
	empl *employee.Employee,
	snapshot employee.SalarySnapshot,
	next time.Time,
	event events.SalaryPaymentRecordedEvent,
) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "begin_tx", err
	}
	defer tx.Rollback()

	if err := s.repo.WithTx(tx).Create(ctx, trx); err != nil {
		return "insert_transaction", mapRepositoryError(err)
	}

	err = s.employees.WithTx(tx).UpdateSalarySnapshot(ctx, empl.ID.String(), employee.SnapshotUpdate{
		Snapshot:        snapshot,
		NextSalaryDate:  &next,
		UpdatedBy:       trx.UpdatedBy,
		ExpectedVersion: empl.Version,
	})
	if err != nil {
		return "update_employee", employee.MapRepositoryError(err)
	}

	if s.opts.Outbox != nil {
		row, err := kafka.NewSalaryPaymentOutboxEvent(event)
		if err != nil {
			return "enqueue_side_effects", err
		}
		if err := s.opts.Outbox.WithTx(tx).Create(ctx, row); err != nil {
			return "enqueue_side_effects", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "commit", err
	}
	return "", nil
}

func (s *service) runSideEffects(ctx context.Context, event events.SalaryPaymentRecordedEvent) (string, []string) {
	warnings := []string{}

	if s.opts.Outbox != nil {
		return SideEffectsQueued, warnings
	}
	if s.opts.Dispatcher == nil {
		return SideEffectsDisabled, warnings
	}

	dctx, cancel := context.WithTimeout(contextutil.Detach(ctx), s.opts.SideEffectTimeout)
	defer cancel()

	for _, err := range s.opts.Dispatcher.Dispatch(dctx, event) {
		if err != nil {
			warnings = append(warnings, err.Error())
		}
	}

	if len(warnings) > 0 {
		return SideEffectsPartial, warnings
	}
	return SideEffectsDelivered, warnings
}

func (s *service) discardReceipt(ctx context.Context, ref *string) {
	if ref == nil || s.opts.Store == nil {
		return
	}
	if err := s.opts.Store.Delete(contextutil.Detach(ctx), *ref); err != nil {
		s.logger.Error("orphaned receipt left in storage",
			zap.String("receipt_ref", *ref),
			zap.Error(err),
		)
	}
}

func (s *service) Reverse(
	ctx context.Context,
	op actor.Operator,
	employeeID, transactionID string,
) (ReversalResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger).With(
		zap.String("employee_id", employeeID),
		zap.String("transaction_id", transactionID),
	)
	log.Debug("reverse transaction requested")

	if _, err := uuid.Parse(employeeID); err != nil {
		return ReversalResponse{}, employeeerrors.ErrInvalidEmployeeID
	}
	if _, err := uuid.Parse(transactionID); err != nil {
		return ReversalResponse{}, salaryerrors.ErrInvalidTransactionID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("reverse transaction begin tx failed", zap.Error(err))
		return ReversalResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	etx := s.employees.WithTx(tx)

	trx, err := qtx.FindByID(ctx, transactionID)
	if err != nil {
		log.Warn("reverse transaction lookup failed", zap.String("step", "load_transaction"), zap.Error(err))
		return ReversalResponse{}, mapRepositoryError(err)
	}
	if trx.EmployeeID.String() != employeeID {
		log.Warn("reverse transaction owned by another employee",
			zap.String("owner_id", trx.EmployeeID.String()),
		)
		return ReversalResponse{}, salaryerrors.ErrTransactionNotFound
	}

	if err := qtx.Delete(ctx, transactionID); err != nil {
		log.Error("reverse transaction delete failed", zap.String("step", "delete_transaction"), zap.Error(err))
		return ReversalResponse{}, mapRepositoryError(err)
	}

	empl, err := etx.FindByID(ctx, employeeID)
	if err != nil {
		log.Error("reverse transaction load employee failed", zap.String("step", "load_employee"), zap.Error(err))
		return ReversalResponse{}, employee.MapRepositoryError(err)
	}

	snapshot := empl.Snapshot()
	next := empl.NextSalaryDate
	recomputed := false

	// Snapshot only moves when the reversed transaction is the one it mirrors
	if snapshot.TransactionNumber != nil && *snapshot.TransactionNumber == trx.TransactionNumber {
		latest, err := qtx.FindLatestByEmployee(ctx, employeeID)
		if err != nil {
			log.Error("reverse transaction load latest failed", zap.String("step", "load_latest"), zap.Error(err))
			return ReversalResponse{}, mapRepositoryError(err)
		}

		var due time.Time
		if latest != nil {
			snapshot = employee.SalarySnapshot{
				TransactionNumber: &latest.TransactionNumber,
				TransactionAmount: latest.TransactionAmount,
				TransactionDate:   &latest.TransactionDate,
				ReceiptURL:        latest.ReceiptURL,
			}
			due = employee.NextSalaryDate(latest.TransactionDate)
		} else {
			snapshot = employee.EmptySnapshot()
			due = employee.NextSalaryDate(empl.DateOfJoining)
		}
		next = &due

		err = etx.UpdateSalarySnapshot(ctx, employeeID, employee.SnapshotUpdate{
			Snapshot:        snapshot,
			NextSalaryDate:  next,
			UpdatedBy:       op.Label(),
			ExpectedVersion: empl.Version,
		})
		if err != nil {
			log.Error("reverse transaction update employee failed", zap.String("step", "update_employee"), zap.Error(err))
			return ReversalResponse{}, employee.MapRepositoryError(err)
		}
		recomputed = true
	}

	if err := tx.Commit(); err != nil {
		log.Error("reverse transaction commit failed", zap.String("step", "commit"), zap.Error(err))
		return ReversalResponse{}, err
	}

	metrics.TransactionsReversed.WithLabelValues(boolLabel(recomputed)).Inc()
	s.audit(ctx, bootstrap.AuditLog{
		Action:  bootstrap.AuditTransactionReversed,
		Message: "salary transaction reversed",
		Actor:   op.Label(),
		Meta: map[string]any{
			"employee_id":         employeeID,
			"transaction_id":      transactionID,
			"transaction_number":  trx.TransactionNumber,
			"transaction_amount":  trx.TransactionAmount.StringFixed(2),
			"snapshot_recomputed": recomputed,
		},
	})
	log.Info("reverse transaction success", zap.Bool("snapshot_recomputed", recomputed))

	return ReversalResponse{
		DeletedTransactionID: transactionID,
		EmployeeID:           employeeID,
		SnapshotRecomputed:   recomputed,
		LastSalarySent:       employee.MapToSnapshotResponse(snapshot),
		NextSalaryDate:       formatDate(next),
	}, nil
}

func (s *service) GetAll(ctx context.Context) ([]TransactionResponse, error) {
	s.logger.Debug("get all transactions requested")
	trxs, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("get all transactions failed", zap.Error(err))
		return nil, mapRepositoryError(err)
	}
	return s.mapToListResponse(trxs), nil
}

func (s *service) GetByEmployee(ctx context.Context, employeeID string) ([]TransactionResponse, error) {
	s.logger.Debug("get transactions by employee requested", zap.String("employee_id", employeeID))
	if _, err := uuid.Parse(employeeID); err != nil {
		return nil, employeeerrors.ErrInvalidEmployeeID
	}

	trxs, err := s.repo.FindByEmployee(ctx, employeeID)
	if err != nil {
		s.logger.Error("get transactions by employee failed", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, mapRepositoryError(err)
	}
	return s.mapToListResponse(trxs), nil
}

func (s *service) GetByID(ctx context.Context, id string) (TransactionResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return TransactionResponse{}, salaryerrors.ErrInvalidTransactionID
	}

	trx, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.logger.Warn("get transaction by id failed", zap.String("transaction_id", id), zap.Error(err))
		return TransactionResponse{}, mapRepositoryError(err)
	}
	return s.mapToResponse(*trx), nil
}

// receiptURL signs a fresh link when the blob is known; stored links may
// have expired.
func (s *service) receiptURL(trx SalaryTransaction) *string {
	if trx.ReceiptRef == nil || s.opts.Store == nil {
		return trx.ReceiptURL
	}
	url, err := s.opts.Store.URL(*trx.ReceiptRef, s.opts.ReceiptURLTTL)
	if err != nil {
		s.logger.Warn("sign receipt url failed",
			zap.String("transaction_id", trx.ID.String()),
			zap.Error(err),
		)
		return trx.ReceiptURL
	}
	return &url
}

func (s *service) mapToResponse(trx SalaryTransaction) TransactionResponse {
	return TransactionResponse{
		ID:                trx.ID.String(),
		EmployeeID:        trx.EmployeeID.String(),
		EmployeeName:      trx.EmployeeName,
		TransactionNumber: trx.TransactionNumber,
		TransactionAmount: trx.TransactionAmount,
		TransactionDate:   trx.TransactionDate.Format(dateLayout),
		ReceiptURL:        s.receiptURL(trx),
		Status:            trx.Status,
		UpdatedBy:         trx.UpdatedBy,
		CreatedAt:         trx.CreatedAt,
	}
}

func (s *service) mapToListResponse(trxs []SalaryTransaction) []TransactionResponse {
	res := make([]TransactionResponse, len(trxs))
	for i, t := range trxs {
		res[i] = s.mapToResponse(t)
	}
	return res
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.Format(dateLayout)
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func (s *service) audit(ctx context.Context, entry bootstrap.AuditLog) {
	if s.opts.Audit != nil {
		s.opts.Audit.Log(ctx, entry)
	}
}
