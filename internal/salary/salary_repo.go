package salary

import (
	"context"
	"database/sql"

	"go-salary/internal/shared/database"

	"gorm.io/gorm"
)

//go:generate mockgen -source=salary_repo.go -destination=mock/salary_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, trx *SalaryTransaction) error
	FindAll(ctx context.Context) ([]SalaryTransaction, error)
	FindByEmployee(ctx context.Context, employeeID string) ([]SalaryTransaction, error)
	FindByID(ctx context.Context, id string) (*SalaryTransaction, error)
	// FindLatestByEmployee returns nil without error when the employee has
	// no transactions left.
	FindLatestByEmployee(ctx context.Context, employeeID string) (*SalaryTransaction, error)
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{
		db: r.db,
		tx: tx,
	}
}

func (r *repository) conn(ctx context.Context) *gorm.DB {
	return database.Conn(ctx, r.db, r.tx)
}

func (r *repository) Create(ctx context.Context, trx *SalaryTransaction) error {
	return r.conn(ctx).Create(trx).Error
}

func (r *repository) FindAll(ctx context.Context) ([]SalaryTransaction, error) {
	var trxs []SalaryTransaction
	err := r.conn(ctx).
		Order("transaction_date DESC, created_at DESC").
		Find(&trxs).Error
	return trxs, err
}

func (r *repository) FindByEmployee(ctx context.Context, employeeID string) ([]SalaryTransaction, error) {
	var trxs []SalaryTransaction
	err := r.conn(ctx).
		Where("employee_id = ?", employeeID).
		Order("transaction_date DESC, created_at DESC").
		Find(&trxs).Error
	return trxs, err
}

func (r *repository) FindByID(ctx context.Context, id string) (*SalaryTransaction, error) {
	var trx SalaryTransaction
	err := r.conn(ctx).First(&trx, "id = ?", id).Error
	return &trx, err
}

func (r *repository) FindLatestByEmployee(ctx context.Context, employeeID string) (*SalaryTransaction, error) {
	var trxs []SalaryTransaction
	err := r.conn(ctx).
		Where("employee_id = ?", employeeID).
		Order("transaction_date DESC, created_at DESC").
		Limit(1).
		Find(&trxs).Error
	if err != nil {
		return nil, err
	}
	if len(trxs) == 0 {
		return nil, nil
	}
	return &trxs[0], nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	res := r.conn(ctx).Delete(&SalaryTransaction{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
