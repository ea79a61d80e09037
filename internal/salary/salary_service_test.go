package salary_test

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"go-salary/internal/bootstrap"
	"go-salary/internal/employee"
	employeeerrors "go-salary/internal/employee/errors"
	employeeMock "go-salary/internal/employee/mock"
	"go-salary/internal/events"
	"go-salary/internal/messaging/kafka"
	kafkaMock "go-salary/internal/messaging/kafka/mock"
	receipterrors "go-salary/internal/receipt/errors"
	"go-salary/internal/salary"
	salaryerrors "go-salary/internal/salary/errors"
	salaryMock "go-salary/internal/salary/mock"
	"go-salary/internal/shared/actor"
	"go-salary/internal/shared/apperror"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var hrOperator = actor.Operator{ID: "u-1", Email: "hr@example.com", Name: "HR", Role: "HR"}

func date(s string) time.Time {
	t, _ := time.ParseInLocation("2006-01-02", s, time.UTC)
	return t
}

func fixedClock(s string) func() time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return func() time.Time { return t }
}

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	putErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) Put(_ context.Context, key string, r io.Reader) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = b
	return key, nil
}

func (f *fakeStore) URL(ref string, _ time.Duration) (string, error) {
	return "https://files.test/" + ref + "?token=t", nil
}

func (f *fakeStore) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[ref]
	if !ok {
		return nil, receipterrors.ErrReceiptNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (f *fakeStore) Delete(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, ref)
	f.deleted = append(f.deleted, ref)
	return nil
}

type fakeDispatcher struct {
	events []events.SalaryPaymentRecordedEvent
	errs   []error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, event events.SalaryPaymentRecordedEvent) []error {
	f.events = append(f.events, event)
	return f.errs
}

type recordingAudit struct {
	entries []bootstrap.AuditLog
}

func (a *recordingAudit) Log(_ context.Context, entry bootstrap.AuditLog) {
	a.entries = append(a.entries, entry)
}

type serviceDeps struct {
	db         *sql.DB
	sqlMock    sqlmock.Sqlmock
	repo       *salaryMock.MockRepository
	employees  *employeeMock.MockRepository
	outbox     *kafkaMock.MockOutboxRepository
	store      *fakeStore
	dispatcher *fakeDispatcher
	audit      *recordingAudit
}

func setupServiceTest(t *testing.T) *serviceDeps {
	ctrl := gomock.NewController(t)
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &serviceDeps{
		db:         db,
		sqlMock:    sqlMock,
		repo:       salaryMock.NewMockRepository(ctrl),
		employees:  employeeMock.NewMockRepository(ctrl),
		outbox:     kafkaMock.NewMockOutboxRepository(ctrl),
		store:      newFakeStore(),
		dispatcher: &fakeDispatcher{},
		audit:      &recordingAudit{},
	}
}

func (d *serviceDeps) service(now string, withOutbox bool) salary.Service {
	opts := salary.Options{
		Store:      d.store,
		Dispatcher: d.dispatcher,
		Audit:      d.audit,
		Now:        fixedClock(now),
	}
	if withOutbox {
		opts.Outbox = d.outbox
	}
	return salary.NewService(d.db, d.repo, d.employees, opts)
}

func unpaidEmployee(joined string) *employee.Employee {
	next := date(joined).AddDate(0, 0, 30)
	return &employee.Employee{
		ID:             uuid.New(),
		Name:           "Jane Doe",
		Email:          "jane@example.com",
		Designation:    "Engineer",
		DateOfJoining:  date(joined),
		GrossSalary:    decimal.NewFromInt(50000),
		LastSalarySent: datatypes.NewJSONType(employee.EmptySnapshot()),
		NextSalaryDate: &next,
		Version:        3,
	}
}

func paidEmployee(joined, number, paidOn string) *employee.Employee {
	e := unpaidEmployee(joined)
	paid := date(paidOn)
	next := paid.AddDate(0, 0, 30)
	e.LastSalarySent = datatypes.NewJSONType(employee.SalarySnapshot{
		TransactionNumber: &number,
		TransactionAmount: decimal.NewFromInt(50000),
		TransactionDate:   &paid,
	})
	e.NextSalaryDate = &next
	return e
}

func paymentRequest(empl *employee.Employee) salary.RecordPaymentRequest {
	return salary.RecordPaymentRequest{
		EmployeeID:        empl.ID.String(),
		TransactionNumber: "TX-2024-02",
		TransactionAmount: "50000",
		TransactionDate:   "2024-02-01",
	}
}

func TestSalaryService_RecordPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("success - next salary date is transaction date plus 30 days", func(t *testing.T) {
		deps := setupServiceTest(t)
		svc := deps.service("2024-02-01T10:00:00Z", false)
		empl := unpaidEmployee("2024-01-01")

		deps.employees.EXPECT().FindByID(ctx, empl.ID.String()).Return(empl, nil)
		deps.sqlMock.ExpectBegin()
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.employees.EXPECT().WithTx(gomock.Any()).Return(deps.employees)

		var inserted *salary.SalaryTransaction
		deps.repo.EXPECT().Create(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, trx *salary.SalaryTransaction) error {
				inserted = trx
				return nil
			})

		var upd employee.SnapshotUpdate
		deps.employees.EXPECT().UpdateSalarySnapshot(ctx, empl.ID.String(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, u employee.SnapshotUpdate) error {
				upd = u
				return nil
			})
		deps.sqlMock.ExpectCommit()

		resp, err := svc.RecordPayment(ctx, hrOperator, paymentRequest(empl), &salary.ReceiptUpload{
			Filename: "Bukti Transfer.PDF",
			Size:     4,
			Body:     strings.NewReader("%PDF"),
		})

		require.NoError(t, err)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())

		require.NotNil(t, inserted)
		assert.True(t, inserted.TransactionAmount.Equal(decimal.NewFromInt(50000)))
		assert.Equal(t, salary.StatusCompleted, inserted.Status)
		assert.Equal(t, "hr@example.com", inserted.UpdatedBy)
		require.NotNil(t, inserted.ReceiptRef)
		assert.True(t, strings.HasPrefix(*inserted.ReceiptRef, "receipts/"+empl.ID.String()+"/"))
		assert.True(t, strings.HasSuffix(*inserted.ReceiptRef, "_bukti-transfer.pdf"))

		assert.Equal(t, int64(3), upd.ExpectedVersion)
		assert.Equal(t, date("2024-03-02"), *upd.NextSalaryDate)
		assert.Equal(t, "TX-2024-02", *upd.Snapshot.TransactionNumber)
		assert.Equal(t, date("2024-02-01"), *upd.Snapshot.TransactionDate)
		assert.Equal(t, inserted.ReceiptURL, upd.Snapshot.ReceiptURL)

		assert.Equal(t, "2024-03-02", resp.NextSalaryDate)
		assert.Equal(t, "TX-2024-02", *resp.LastSalarySent.TransactionNumber)
		assert.Equal(t, salary.SideEffectsDelivered, resp.SideEffects)
		assert.Empty(t, resp.Warnings)

		require.Len(t, deps.audit.entries, 1)
		assert.Equal(t, bootstrap.AuditPaymentRecorded, deps.audit.entries[0].Action)
		assert.Equal(t, "hr@example.com", deps.audit.entries[0].Actor)
		assert.Equal(t, "50000.00", deps.audit.entries[0].Meta["transaction_amount"])
		assert.Equal(t, inserted.ID.String(), deps.audit.entries[0].Meta["transaction_id"])

		require.Len(t, deps.dispatcher.events, 1)
		ev := deps.dispatcher.events[0]
		assert.Equal(t, "jane@example.com", ev.EmployeeEmail)
		assert.Equal(t, "50000.00", ev.TransactionAmount)
		assert.Equal(t, "2024-03-02", ev.NextSalaryDate)
	})

	t.Run("validation errors never reach the database", func(t *testing.T) {
		cases := []struct {
			name   string
			mutate func(*salary.RecordPaymentRequest)
			want   error
		}{
			{"bad employee id", func(r *salary.RecordPaymentRequest) { r.EmployeeID = "nope" }, employeeerrors.ErrInvalidEmployeeID},
			{"blank number", func(r *salary.RecordPaymentRequest) { r.TransactionNumber = "  " }, salaryerrors.ErrInvalidTransactionNumber},
			{"not a number", func(r *salary.RecordPaymentRequest) { r.TransactionAmount = "abc" }, salaryerrors.ErrInvalidAmount},
			{"negative amount", func(r *salary.RecordPaymentRequest) { r.TransactionAmount = "-5" }, salaryerrors.ErrInvalidAmount},
			{"zero amount", func(r *salary.RecordPaymentRequest) { r.TransactionAmount = "0" }, salaryerrors.ErrInvalidAmount},
			{"three decimals", func(r *salary.RecordPaymentRequest) { r.TransactionAmount = "10.001" }, salaryerrors.ErrInvalidAmount},
			{"bad date", func(r *salary.RecordPaymentRequest) { r.TransactionDate = "01/02/2024" }, salaryerrors.ErrInvalidTransactionDate},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				deps := setupServiceTest(t)
				svc := deps.service("2024-02-01T10:00:00Z", false)

				req := paymentRequest(unpaidEmployee("2024-01-01"))
				tc.mutate(&req)

				_, err := svc.RecordPayment(ctx, hrOperator, req, nil)

				assert.ErrorIs(t, err, tc.want)
				assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
			})
		}
	})

	t.Run("recent payment requires confirmation", func(t *testing.T) {
		deps := setupServiceTest(t)
		svc := deps.service("2024-02-10T10:00:00Z", false)
		empl := paidEmployee("2023-12-01", "TX-2024-01", "2024-01-20")

		deps.employees.EXPECT().FindByID(ctx, empl.ID.String()).Return(empl, nil)

		_, err := svc.RecordPayment(ctx, hrOperator, paymentRequest(empl), nil)

		require.ErrorIs(t, err, salaryerrors.ErrDuplicatePayment)
		httpErr := apperror.ToHTTP(err)
		assert.Equal(t, apperror.CodeConfirmationRequired, httpErr.Code)
		details, ok := httpErr.Details.(salary.DuplicatePaymentDetails)
		require.True(t, ok)
		assert.Equal(t, "TX-2024-01", *details.LastTransactionNumber)
		assert.Equal(t, "2024-01-20", details.LastTransactionDate)
		assert.Empty(t, deps.store.objects)
		assert.Empty(t, deps.dispatcher.events)
	})

	t.Run("confirmed duplicate goes through", func(t *testing.T) {
		deps := setupServiceTest(t)
		svc := deps.service("2024-02-10T10:00:00Z", false)
		empl := paidEmployee("2023-12-01", "TX-2024-01", "2024-01-20")

		deps.employees.EXPECT().FindByID(ctx, empl.ID.String()).Return(empl, nil)
		deps.sqlMock.ExpectBegin()
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.employees.EXPECT().WithTx(gomock.Any()).Return(deps.employees)
		deps.repo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
		deps.employees.EXPECT().UpdateSalarySnapshot(ctx, empl.ID.String(), gomock.Any()).Return(nil)
		deps.sqlMock.ExpectCommit()

		req := paymentRequest(empl)
		req.ConfirmDuplicate = true
		_, err := svc.RecordPayment(ctx, hrOperator, req, nil)

		assert.NoError(t, err)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("payment older than 30 days is not a duplicate", func(t *testing.T) {
		deps := setupServiceTest(t)
		svc := deps.service("2024-03-05T10:00:00Z", false)
		empl := paidEmployee("2023-12-01", "TX-2024-01", "2024-02-01")

		deps.employees.EXPECT().FindByID(ctx, empl.ID.String()).Return(empl, nil)
		deps.sqlMock.ExpectBegin()
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.employees.EXPECT().WithTx(gomock.Any()).Return(deps.employees)
		deps.repo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
		deps.employees.EXPECT().UpdateSalarySnapshot(ctx, empl.ID.String(), gomock.Any()).Return(nil)
		deps.sqlMock.ExpectCommit()

		req := paymentRequest(empl)
		req.TransactionDate = "2024-03-03"
		_, err := svc.RecordPayment(ctx, hrOperator, req, nil)

		assert.NoError(t, err)
	})

	t.Run("receipt upload failure leaves nothing behind", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.store.putErr = errors.New("bucket unavailable")
		svc := deps.service("2024-02-01T10:00:00Z", false)
		empl := unpaidEmployee("2024-01-01")

		deps.employees.EXPECT().FindByID(ctx, empl.ID.String()).Return(empl, nil)
		// no Begin, Create or UpdateSalarySnapshot expected

		_, err := svc.RecordPayment(ctx, hrOperator, paymentRequest(empl), &salary.ReceiptUpload{
			Filename: "receipt.png",
			Size:     3,
			Body:     strings.NewReader("png"),
		})

		assert.ErrorIs(t, err, receipterrors.ErrReceiptUploadFailed)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
		assert.Empty(t, deps.dispatcher.events)
	})

	t.Run("oversized receipt is rejected before upload", func(t *testing.T) {
		deps := setupServiceTest(t)
		svc := salary.NewService(deps.db, deps.repo, deps.employees, salary.Options{
			Store:           deps.store,
			MaxReceiptBytes: 10,
			Now:             fixedClock("2024-02-01T10:00:00Z"),
		})
		empl := unpaidEmployee("2024-01-01")

		_, err := svc.RecordPayment(ctx, hrOperator, paymentRequest(empl), &salary.ReceiptUpload{
			Filename: "big.pdf",
			Size:     11,
			Body:     strings.NewReader("01234567890"),
		})

		assert.ErrorIs(t, err, receipterrors.ErrReceiptTooLarge)
		assert.Empty(t, deps.store.objects)
	})

	t.Run("snapshot conflict rolls back and removes the receipt", func(t *testing.T) {
		deps := setupServiceTest(t)
		svc := deps.service("2024-02-01T10:00:00Z", false)
		empl := unpaidEmployee("2024-01-01")

		deps.employees.EXPECT().FindByID(ctx, empl.ID.String()).Return(empl, nil)
		deps.sqlMock.ExpectBegin()
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.employees.EXPECT().WithTx(gomock.Any()).Return(deps.employees)
		deps.repo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
		deps.employees.EXPECT().UpdateSalarySnapshot(ctx, empl.ID.String(), gomock.Any()).
			Return(employeeerrors.ErrConcurrentUpdate)
		deps.sqlMock.ExpectRollback()

		_, err := svc.RecordPayment(ctx, hrOperator, paymentRequest(empl), &salary.ReceiptUpload{
			Filename: "receipt.pdf",
			Size:     4,
			Body:     strings.NewReader("%PDF"),
		})

		assert.ErrorIs(t, err, employeeerrors.ErrConcurrentUpdate)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
		assert.Empty(t, deps.store.objects)
		assert.Len(t, deps.store.deleted, 1)
		assert.Empty(t, deps.dispatcher.events)
	})

	t.Run("unknown employee", func(t *testing.T) {
		deps := setupServiceTest(t)
		svc := deps.service("2024-02-01T10:00:00Z", false)
		empl := unpaidEmployee("2024-01-01")

		deps.employees.EXPECT().FindByID(ctx, empl.ID.String()).Return(nil, gorm.ErrRecordNotFound)

		_, err := svc.RecordPayment(ctx, hrOperator, paymentRequest(empl), nil)

		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)
	})

	t.Run("outbox queues side effects inside the transaction", func(t *testing.T) {
		deps := setupServiceTest(t)
		svc := deps.service("2024-02-01T10:00:00Z", true)
		empl := unpaidEmployee("2024-01-01")

		deps.employees.EXPECT().FindByID(ctx, empl.ID.String()).Return(empl, nil)
		deps.sqlMock.ExpectBegin()
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.employees.EXPECT().WithTx(gomock.Any()).Return(deps.employees)
		deps.outbox.EXPECT().WithTx(gomock.Any()).Return(deps.outbox)
		deps.repo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
		deps.employees.EXPECT().UpdateSalarySnapshot(ctx, empl.ID.String(), gomock.Any()).Return(nil)
		deps.outbox.EXPECT().Create(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, ev kafka.OutboxEvent) error {
				assert.Equal(t, events.SalaryPaymentRecordedTopic, ev.Topic)
				assert.Equal(t, kafka.OutboxStatusPending, ev.Status)
				assert.Equal(t, kafka.AggregateSalaryTransaction, ev.AggregateType)
				assert.NoError(t, kafka.ValidateOutboxEvent(ev))
				assert.Contains(t, string(ev.Payload), `"transaction_number":"TX-2024-02"`)
				return nil
			})
		deps.sqlMock.ExpectCommit()

		resp, err := svc.RecordPayment(ctx, hrOperator, paymentRequest(empl), nil)

		require.NoError(t, err)
		assert.Equal(t, salary.SideEffectsQueued, resp.SideEffects)
		assert.Empty(t, deps.dispatcher.events)
	})

	t.Run("outbox failure aborts the payment", func(t *testing.T) {
		deps := setupServiceTest(t)
		svc := deps.service("2024-02-01T10:00:00Z", true)
		empl := unpaidEmployee("2024-01-01")

		deps.employees.EXPECT().FindByID(ctx, empl.ID.String()).Return(empl, nil)
		deps.sqlMock.ExpectBegin()
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.employees.EXPECT().WithTx(gomock.Any()).Return(deps.employees)
		deps.outbox.EXPECT().WithTx(gomock.Any()).Return(deps.outbox)
		deps.repo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
		deps.employees.EXPECT().UpdateSalarySnapshot(ctx, empl.ID.String(), gomock.Any()).Return(nil)
		deps.outbox.EXPECT().Create(ctx, gomock.Any()).Return(errors.New("outbox full"))
		deps.sqlMock.ExpectRollback()

		_, err := svc.RecordPayment(ctx, hrOperator, paymentRequest(empl), nil)

		assert.Error(t, err)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
		assert.Empty(t, deps.audit.entries)
	})

	t.Run("side effect failures become warnings", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.dispatcher.errs = []error{errors.New("email notification: sendgrid 500")}
		svc := deps.service("2024-02-01T10:00:00Z", false)
		empl := unpaidEmployee("2024-01-01")

		deps.employees.EXPECT().FindByID(ctx, empl.ID.String()).Return(empl, nil)
		deps.sqlMock.ExpectBegin()
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.employees.EXPECT().WithTx(gomock.Any()).Return(deps.employees)
		deps.repo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
		deps.employees.EXPECT().UpdateSalarySnapshot(ctx, empl.ID.String(), gomock.Any()).Return(nil)
		deps.sqlMock.ExpectCommit()

		resp, err := svc.RecordPayment(ctx, hrOperator, paymentRequest(empl), nil)

		require.NoError(t, err)
		assert.Equal(t, salary.SideEffectsPartial, resp.SideEffects)
		assert.Equal(t, []string{"email notification: sendgrid 500"}, resp.Warnings)
	})
}

func storedTransaction(empl *employee.Employee, number, on string) *salary.SalaryTransaction {
	return &salary.SalaryTransaction{
		ID:                uuid.New(),
		EmployeeID:        empl.ID,
		EmployeeName:      empl.Name,
		TransactionNumber: number,
		TransactionAmount: decimal.NewFromInt(50000),
		TransactionDate:   date(on),
		Status:            salary.StatusCompleted,
	}
}

func TestSalaryService_Reverse(t *testing.T) {
	ctx := context.Background()

	t.Run("reversing the only transaction resets the snapshot", func(t *testing.T) {
		deps := setupServiceTest(t)
		svc := deps.service("2024-02-05T10:00:00Z", false)
		empl := paidEmployee("2024-01-01", "TX-1", "2024-02-01")
		trx := storedTransaction(empl, "TX-1", "2024-02-01")

		deps.sqlMock.ExpectBegin()
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.employees.EXPECT().WithTx(gomock.Any()).Return(deps.employees)
		deps.repo.EXPECT().FindByID(ctx, trx.ID.String()).Return(trx, nil)
		deps.repo.EXPECT().Delete(ctx, trx.ID.String()).Return(nil)
		deps.employees.EXPECT().FindByID(ctx, empl.ID.String()).Return(empl, nil)
		deps.repo.EXPECT().FindLatestByEmployee(ctx, empl.ID.String()).Return(nil, nil)

		var upd employee.SnapshotUpdate
		deps.employees.EXPECT().UpdateSalarySnapshot(ctx, empl.ID.String(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, u employee.SnapshotUpdate) error {
				upd = u
				return nil
			})
		deps.sqlMock.ExpectCommit()

		resp, err := svc.Reverse(ctx, hrOperator, empl.ID.String(), trx.ID.String())

		require.NoError(t, err)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
		assert.True(t, resp.SnapshotRecomputed)

		assert.True(t, upd.Snapshot.IsEmpty())
		assert.True(t, upd.Snapshot.TransactionAmount.IsZero())
		assert.Nil(t, upd.Snapshot.ReceiptURL)
		assert.Equal(t, date("2024-01-31"), *upd.NextSalaryDate)
		assert.Equal(t, empl.Version, upd.ExpectedVersion)

		assert.Nil(t, resp.LastSalarySent.TransactionNumber)
		assert.Nil(t, resp.LastSalarySent.TransactionDate)
		assert.Equal(t, "2024-01-31", *resp.NextSalaryDate)

		require.Len(t, deps.audit.entries, 1)
		assert.Equal(t, bootstrap.AuditTransactionReversed, deps.audit.entries[0].Action)
		assert.Equal(t, "TX-1", deps.audit.entries[0].Meta["transaction_number"])
		assert.Equal(t, true, deps.audit.entries[0].Meta["snapshot_recomputed"])
	})

	t.Run("reversing the current payment falls back to the previous one", func(t *testing.T) {
		deps := setupServiceTest(t)
		svc := deps.service("2024-03-05T10:00:00Z", false)
		empl := paidEmployee("2024-01-01", "TX-2", "2024-03-01")
		trx := storedTransaction(empl, "TX-2", "2024-03-01")
		older := storedTransaction(empl, "TX-1", "2024-02-01")
		url := "https://files.test/receipts/old.pdf"
		older.ReceiptURL = &url

		deps.sqlMock.ExpectBegin()
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.employees.EXPECT().WithTx(gomock.Any()).Return(deps.employees)
		deps.repo.EXPECT().FindByID(ctx, trx.ID.String()).Return(trx, nil)
		deps.repo.EXPECT().Delete(ctx, trx.ID.String()).Return(nil)
		deps.employees.EXPECT().FindByID(ctx, empl.ID.String()).Return(empl, nil)
		deps.repo.EXPECT().FindLatestByEmployee(ctx, empl.ID.String()).Return(older, nil)

		var upd employee.SnapshotUpdate
		deps.employees.EXPECT().UpdateSalarySnapshot(ctx, empl.ID.String(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, u employee.SnapshotUpdate) error {
				upd = u
				return nil
			})
		deps.sqlMock.ExpectCommit()

		resp, err := svc.Reverse(ctx, hrOperator, empl.ID.String(), trx.ID.String())

		require.NoError(t, err)
		assert.Equal(t, "TX-1", *upd.Snapshot.TransactionNumber)
		assert.Equal(t, &url, upd.Snapshot.ReceiptURL)
		assert.Equal(t, date("2024-03-02"), *upd.NextSalaryDate)
		assert.Equal(t, "2024-03-02", *resp.NextSalaryDate)
	})

	t.Run("reversing an older payment leaves the employee alone", func(t *testing.T) {
		deps := setupServiceTest(t)
		svc := deps.service("2024-03-05T10:00:00Z", false)
		empl := paidEmployee("2024-01-01", "TX-2", "2024-03-01")
		trx := storedTransaction(empl, "TX-1", "2024-02-01")

		deps.sqlMock.ExpectBegin()
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.employees.EXPECT().WithTx(gomock.Any()).Return(deps.employees)
		deps.repo.EXPECT().FindByID(ctx, trx.ID.String()).Return(trx, nil)
		deps.repo.EXPECT().Delete(ctx, trx.ID.String()).Return(nil)
		deps.employees.EXPECT().FindByID(ctx, empl.ID.String()).Return(empl, nil)
		deps.sqlMock.ExpectCommit()

		resp, err := svc.Reverse(ctx, hrOperator, empl.ID.String(), trx.ID.String())

		require.NoError(t, err)
		assert.False(t, resp.SnapshotRecomputed)
		assert.Equal(t, "TX-2", *resp.LastSalarySent.TransactionNumber)
		assert.Equal(t, "2024-03-31", *resp.NextSalaryDate)
	})

	t.Run("transaction of another employee is not found", func(t *testing.T) {
		deps := setupServiceTest(t)
		svc := deps.service("2024-03-05T10:00:00Z", false)
		empl := paidEmployee("2024-01-01", "TX-2", "2024-03-01")
		other := unpaidEmployee("2024-01-01")
		trx := storedTransaction(other, "TX-2", "2024-03-01")

		deps.sqlMock.ExpectBegin()
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.employees.EXPECT().WithTx(gomock.Any()).Return(deps.employees)
		deps.repo.EXPECT().FindByID(ctx, trx.ID.String()).Return(trx, nil)
		deps.sqlMock.ExpectRollback()

		_, err := svc.Reverse(ctx, hrOperator, empl.ID.String(), trx.ID.String())

		assert.ErrorIs(t, err, salaryerrors.ErrTransactionNotFound)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("failed employee update keeps the transaction", func(t *testing.T) {
		deps := setupServiceTest(t)
		svc := deps.service("2024-02-05T10:00:00Z", false)
		empl := paidEmployee("2024-01-01", "TX-1", "2024-02-01")
		trx := storedTransaction(empl, "TX-1", "2024-02-01")

		deps.sqlMock.ExpectBegin()
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.employees.EXPECT().WithTx(gomock.Any()).Return(deps.employees)
		deps.repo.EXPECT().FindByID(ctx, trx.ID.String()).Return(trx, nil)
		deps.repo.EXPECT().Delete(ctx, trx.ID.String()).Return(nil)
		deps.employees.EXPECT().FindByID(ctx, empl.ID.String()).Return(empl, nil)
		deps.repo.EXPECT().FindLatestByEmployee(ctx, empl.ID.String()).Return(nil, nil)
		deps.employees.EXPECT().UpdateSalarySnapshot(ctx, empl.ID.String(), gomock.Any()).
			Return(employeeerrors.ErrConcurrentUpdate)
		deps.sqlMock.ExpectRollback()

		_, err := svc.Reverse(ctx, hrOperator, empl.ID.String(), trx.ID.String())

		assert.ErrorIs(t, err, employeeerrors.ErrConcurrentUpdate)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("invalid ids", func(t *testing.T) {
		deps := setupServiceTest(t)
		svc := deps.service("2024-02-05T10:00:00Z", false)

		_, err := svc.Reverse(ctx, hrOperator, "x", uuid.NewString())
		assert.ErrorIs(t, err, employeeerrors.ErrInvalidEmployeeID)

		_, err = svc.Reverse(ctx, hrOperator, uuid.NewString(), "y")
		assert.ErrorIs(t, err, salaryerrors.ErrInvalidTransactionID)
	})
}

func TestSalaryService_GetByID_SignsFreshReceiptURL(t *testing.T) {
	ctx := context.Background()
	deps := setupServiceTest(t)
	svc := deps.service("2024-02-05T10:00:00Z", false)

	empl := unpaidEmployee("2024-01-01")
	trx := storedTransaction(empl, "TX-1", "2024-02-01")
	ref := "receipts/" + empl.ID.String() + "/1_receipt.pdf"
	stale := "https://files.test/expired"
	trx.ReceiptRef, trx.ReceiptURL = &ref, &stale

	deps.repo.EXPECT().FindByID(ctx, trx.ID.String()).Return(trx, nil)

	resp, err := svc.GetByID(ctx, trx.ID.String())

	require.NoError(t, err)
	assert.Equal(t, "https://files.test/"+ref+"?token=t", *resp.ReceiptURL)
}

// In-memory stores used to check that recording and reversing a payment
// round-trips the employee snapshot.

type memTransactions struct {
	rows map[string]salary.SalaryTransaction
	seq  int
}

func (m *memTransactions) WithTx(*sql.Tx) salary.Repository { return m }

func (m *memTransactions) Create(_ context.Context, trx *salary.SalaryTransaction) error {
	m.seq++
	trx.CreatedAt = time.Unix(int64(m.seq), 0)
	m.rows[trx.ID.String()] = *trx
	return nil
}

func (m *memTransactions) FindAll(context.Context) ([]salary.SalaryTransaction, error) {
	out := make([]salary.SalaryTransaction, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].TransactionDate.Equal(out[j].TransactionDate) {
			return out[i].TransactionDate.After(out[j].TransactionDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *memTransactions) FindByEmployee(ctx context.Context, employeeID string) ([]salary.SalaryTransaction, error) {
	all, _ := m.FindAll(ctx)
	var out []salary.SalaryTransaction
	for _, r := range all {
		if r.EmployeeID.String() == employeeID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memTransactions) FindByID(_ context.Context, id string) (*salary.SalaryTransaction, error) {
	r, ok := m.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &r, nil
}

func (m *memTransactions) FindLatestByEmployee(ctx context.Context, employeeID string) (*salary.SalaryTransaction, error) {
	list, _ := m.FindByEmployee(ctx, employeeID)
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

func (m *memTransactions) Delete(_ context.Context, id string) error {
	if _, ok := m.rows[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.rows, id)
	return nil
}

type memEmployees struct {
	employee.Repository
	row employee.Employee
}

func (m *memEmployees) WithTx(*sql.Tx) employee.Repository { return m }

func (m *memEmployees) FindByID(_ context.Context, id string) (*employee.Employee, error) {
	if m.row.ID.String() != id {
		return nil, gorm.ErrRecordNotFound
	}
	cp := m.row
	return &cp, nil
}

func (m *memEmployees) UpdateSalarySnapshot(_ context.Context, id string, upd employee.SnapshotUpdate) error {
	if m.row.ID.String() != id || m.row.Version != upd.ExpectedVersion {
		return employeeerrors.ErrConcurrentUpdate
	}
	m.row.LastSalarySent = datatypes.NewJSONType(upd.Snapshot)
	m.row.NextSalaryDate = upd.NextSalaryDate
	m.row.UpdatedBy = upd.UpdatedBy
	m.row.Version++
	return nil
}

func TestSalaryService_RecordThenReverseRestoresSnapshot(t *testing.T) {
	ctx := context.Background()

	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	empl := paidEmployee("2023-12-01", "TX-1", "2024-01-01")
	before := empl.Snapshot()
	beforeNext := *empl.NextSalaryDate

	trxs := &memTransactions{rows: map[string]salary.SalaryTransaction{}}
	seed := storedTransaction(empl, "TX-1", "2024-01-01")
	require.NoError(t, trxs.Create(ctx, seed))
	emps := &memEmployees{row: *empl}

	svc := salary.NewService(db, trxs, emps, salary.Options{Now: fixedClock("2024-02-05T10:00:00Z")})

	sqlMock.ExpectBegin()
	sqlMock.ExpectCommit()
	recorded, err := svc.RecordPayment(ctx, hrOperator, salary.RecordPaymentRequest{
		EmployeeID:        empl.ID.String(),
		TransactionNumber: "TX-2",
		TransactionAmount: "50000",
		TransactionDate:   "2024-02-01",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, salary.SideEffectsDisabled, recorded.SideEffects)
	assert.Equal(t, "TX-2", *emps.row.Snapshot().TransactionNumber)

	sqlMock.ExpectBegin()
	sqlMock.ExpectCommit()
	_, err = svc.Reverse(ctx, hrOperator, empl.ID.String(), recorded.Transaction.ID)
	require.NoError(t, err)

	after := emps.row.Snapshot()
	assert.Equal(t, *before.TransactionNumber, *after.TransactionNumber)
	assert.Equal(t, *before.TransactionDate, *after.TransactionDate)
	assert.True(t, before.TransactionAmount.Equal(after.TransactionAmount))
	assert.Equal(t, beforeNext, *emps.row.NextSalaryDate)
	assert.Equal(t, empl.Version+2, emps.row.Version)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}
