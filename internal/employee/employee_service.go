package employee

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	employeeerrors "go-salary/internal/employee/errors"
	"go-salary/internal/shared/actor"
	"go-salary/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"
)

const EmployeeOptionsKey = "employees:options"

type Service interface {
	Create(ctx context.Context, op actor.Operator, req CreateEmployeeRequest) (EmployeeResponse, error)
	GetAll(ctx context.Context) ([]EmployeeResponse, error)
	GetOptions(ctx context.Context) ([]EmployeeOptionResponse, error)
	GetByID(ctx context.Context, id string) (EmployeeResponse, error)
	Update(ctx context.Context, op actor.Operator, id string, req UpdateEmployeeRequest) (EmployeeResponse, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	db     *sql.DB
	repo   Repository
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("employee.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.service")
	}
	return &service{
		db:     db,
		repo:   repo,
		rdb:    rdb,
		sf:     &singleflight.Group{},
		logger: l,
	}
}

func (s *service) Create(
	ctx context.Context,
	op actor.Operator,
	req CreateEmployeeRequest,
) (EmployeeResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("create employee requested",
		zap.String("request_id", rid),
		zap.String("email", req.Email),
	)

	joined, err := parseDate(req.DateOfJoining)
	if err != nil {
		log.Warn("create employee invalid date_of_joining",
			zap.String("date_of_joining", req.DateOfJoining),
			zap.Error(err),
		)
		return EmployeeResponse{}, employeeerrors.ErrInvalidDateOfJoining
	}
	if !req.GrossSalary.IsPositive() {
		return EmployeeResponse{}, employeeerrors.ErrInvalidGrossSalary
	}

	next := NextSalaryDate(joined)
	empl := &Employee{
		ID:             uuid.New(),
		Name:           strings.TrimSpace(req.Name),
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		Designation:    strings.TrimSpace(req.Designation),
		DateOfJoining:  joined,
		GrossSalary:    req.GrossSalary.Round(2),
		AccountNumber:  strings.TrimSpace(req.AccountNumber),
		LastSalarySent: datatypes.NewJSONType(EmptySnapshot()),
		NextSalaryDate: &next,
		Version:        1,
		UpdatedBy:      op.Label(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("create employee begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.Create(ctx, empl); err != nil {
		log.Error("create employee persist failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		log.Error("commit failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}

	s.invalidateOptions(ctx)

	log.Info("create employee success",
		zap.String("request_id", rid),
		zap.String("employee_id", empl.ID.String()),
	)

	return MapToResponse(*empl), nil
}

func (s *service) GetAll(ctx context.Context) ([]EmployeeResponse, error) {
	s.logger.Debug("get all employees requested")
	empls, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("get all employees failed", zap.Error(err))
		return nil, mapRepositoryError(err)
	}

	return mapToListResponse(empls), nil
}

func (s *service) GetOptions(ctx context.Context) ([]EmployeeOptionResponse, error) {
	// 1. Cek Redis
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, EmployeeOptionsKey).Result(); err == nil {
			var resp []EmployeeOptionResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	// 2. Singleflight untuk handle traffic tinggi saat form pembayaran dibuka
	v, err, _ := s.sf.Do(EmployeeOptionsKey, func() (interface{}, error) {
		empls, err := s.repo.FindOptions(ctx)
		if err != nil {
			return nil, mapRepositoryError(err)
		}

		resp := make([]EmployeeOptionResponse, len(empls))
		for i, e := range empls {
			resp[i] = EmployeeOptionResponse{
				ID:          e.ID.String(),
				Name:        e.Name,
				Designation: e.Designation,
			}
		}

		// 3. Simpan ke Redis (TTL 1 jam cukup karena data master)
		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				s.rdb.Set(ctx, EmployeeOptionsKey, jsonData, time.Hour)
			}
		}

		return resp, nil
	})

	if err != nil {
		return nil, err
	}

	return v.([]EmployeeOptionResponse), nil
}

func (s *service) GetByID(ctx context.Context, id string) (EmployeeResponse, error) {
	s.logger.Debug("get employee by id requested", zap.String("employee_id", id))
	if _, err := uuid.Parse(id); err != nil {
		return EmployeeResponse{}, employeeerrors.ErrInvalidEmployeeID
	}

	empl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.logger.Warn("get employee by id failed", zap.String("employee_id", id), zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	return MapToResponse(*empl), nil
}

func (s *service) Update(
	ctx context.Context,
	op actor.Operator,
	id string,
	req UpdateEmployeeRequest,
) (EmployeeResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("update employee requested", zap.String("employee_id", id))

	if _, err := uuid.Parse(id); err != nil {
		return EmployeeResponse{}, employeeerrors.ErrInvalidEmployeeID
	}
	joined, err := parseDate(req.DateOfJoining)
	if err != nil {
		log.Warn("update employee invalid date_of_joining",
			zap.String("date_of_joining", req.DateOfJoining),
			zap.Error(err),
		)
		return EmployeeResponse{}, employeeerrors.ErrInvalidDateOfJoining
	}
	if !req.GrossSalary.IsPositive() {
		return EmployeeResponse{}, employeeerrors.ErrInvalidGrossSalary
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("update employee begin tx failed", zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	empl, err := qtx.FindByID(ctx, id)
	if err != nil {
		log.Warn("update employee fetch existing failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}
	if empl.Version != req.Version {
		log.Warn("update employee stale version",
			zap.String("employee_id", id),
			zap.Int64("stored", empl.Version),
			zap.Int64("requested", req.Version),
		)
		return EmployeeResponse{}, employeeerrors.ErrConcurrentUpdate
	}

	empl.Name = strings.TrimSpace(req.Name)
	empl.Email = strings.ToLower(strings.TrimSpace(req.Email))
	empl.Designation = strings.TrimSpace(req.Designation)
	empl.GrossSalary = req.GrossSalary.Round(2)
	empl.AccountNumber = strings.TrimSpace(req.AccountNumber)
	empl.UpdatedBy = op.Label()

	// Tanggal gajian berikutnya hanya ikut join date selama belum pernah dibayar
	if !empl.DateOfJoining.Equal(joined) {
		empl.DateOfJoining = joined
		if empl.Snapshot().IsEmpty() {
			next := NextSalaryDate(joined)
			empl.NextSalaryDate = &next
		}
	}

	if err := qtx.Update(ctx, empl); err != nil {
		log.Error("update employee persist failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		log.Error("update employee commit failed", zap.Error(err))
		return EmployeeResponse{}, err
	}

	s.invalidateOptions(ctx)

	log.Info("update employee success", zap.String("employee_id", id))

	return MapToResponse(*empl), nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("delete employee requested", zap.String("employee_id", id))

	if _, err := uuid.Parse(id); err != nil {
		return employeeerrors.ErrInvalidEmployeeID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("delete employee begin tx failed", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if err := qtx.Delete(ctx, id); err != nil {
		log.Warn("delete employee failed", zap.Error(err))
		return mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		log.Error("delete employee commit failed", zap.Error(err))
		return err
	}

	s.invalidateOptions(ctx)

	log.Info("delete employee success", zap.String("employee_id", id))
	return nil
}

func (s *service) invalidateOptions(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, EmployeeOptionsKey).Err(); err != nil {
		s.logger.Error("failed to invalidate employee options cache",
			zap.Error(err),
			zap.String("key", EmployeeOptionsKey),
		)
	}
}

func parseDate(v string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, strings.TrimSpace(v), time.UTC)
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func MapToSnapshotResponse(s SalarySnapshot) SnapshotResponse {
	amount := s.TransactionAmount
	if amount.IsZero() {
		amount = decimal.Zero
	}
	return SnapshotResponse{
		TransactionNumber: s.TransactionNumber,
		TransactionAmount: amount,
		TransactionDate:   formatDate(s.TransactionDate),
		ReceiptURL:        s.ReceiptURL,
	}
}

func MapToResponse(empl Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:             empl.ID.String(),
		Name:           empl.Name,
		Email:          empl.Email,
		Designation:    empl.Designation,
		DateOfJoining:  empl.DateOfJoining.Format(dateLayout),
		GrossSalary:    empl.GrossSalary,
		AccountNumber:  empl.AccountNumber,
		LastSalarySent: MapToSnapshotResponse(empl.Snapshot()),
		NextSalaryDate: formatDate(empl.NextSalaryDate),
		Version:        empl.Version,
		UpdatedBy:      empl.UpdatedBy,
		CreatedAt:      empl.CreatedAt,
		UpdatedAt:      empl.UpdatedAt,
	}
}

func mapToListResponse(empls []Employee) []EmployeeResponse {
	res := make([]EmployeeResponse, len(empls))
	for i, e := range empls {
		res[i] = MapToResponse(e)
	}
	return res
}
