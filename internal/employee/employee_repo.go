package employee

import (
	"context"
	"database/sql"
	"time"

	employeeerrors "go-salary/internal/employee/errors"
	"go-salary/internal/shared/database"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SnapshotUpdate is a compare-and-swap write of the payment snapshot.
type SnapshotUpdate struct {
	Snapshot        SalarySnapshot
	NextSalaryDate  *time.Time
	UpdatedBy       string
	ExpectedVersion int64
}

//go:generate mockgen -source=employee_repo.go -destination=mock/employee_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, empl *Employee) error
	FindAll(ctx context.Context) ([]Employee, error)
	FindOptions(ctx context.Context) ([]Employee, error)
	FindByID(ctx context.Context, id string) (*Employee, error)
	FindByNextSalaryDateBetween(ctx context.Context, from, to time.Time) ([]Employee, error)
	Update(ctx context.Context, empl *Employee) error
	UpdateSalarySnapshot(ctx context.Context, id string, upd SnapshotUpdate) error
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

func (r *repository) Create(ctx context.Context, empl *Employee) error {
	return r.conn(ctx).Create(empl).Error
}

func (r *repository) FindAll(ctx context.Context) ([]Employee, error) {
	var empls []Employee
	err := r.conn(ctx).
		Order("name ASC").
		Find(&empls).Error
	return empls, err
}

func (r *repository) FindOptions(ctx context.Context) ([]Employee, error) {
	var empls []Employee
	err := r.conn(ctx).
		Select("id", "name", "designation").
		Order("name ASC").
		Find(&empls).Error
	return empls, err
}

func (r *repository) FindByID(ctx context.Context, id string) (*Employee, error) {
	var empl Employee
	err := r.conn(ctx).First(&empl, "id = ?", id).Error
	return &empl, err
}

func (r *repository) FindByNextSalaryDateBetween(ctx context.Context, from, to time.Time) ([]Employee, error) {
	var empls []Employee
	err := r.conn(ctx).
		Where("next_salary_date >= ? AND next_salary_date < ?", from, to).
		Order("next_salary_date ASC, name ASC").
		Find(&empls).Error
	return empls, err
}

// Update writes the editable profile fields. The snapshot columns are never
// touched here; they belong to the payment workflow.
func (r *repository) Update(ctx context.Context, empl *Employee) error {
	res := r.conn(ctx).
		Model(&Employee{}).
		Where("id = ? AND version = ?", empl.ID, empl.Version).
		Updates(map[string]interface{}{
			"name":             empl.Name,
			"email":            empl.Email,
			"designation":      empl.Designation,
			"date_of_joining":  empl.DateOfJoining,
			"gross_salary":     empl.GrossSalary,
			"account_number":   empl.AccountNumber,
			"next_salary_date": empl.NextSalaryDate,
			"updated_by":       empl.UpdatedBy,
			"version":          gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return employeeerrors.ErrConcurrentUpdate
	}
	empl.Version++
	return nil
}

func (r *repository) UpdateSalarySnapshot(ctx context.Context, id string, upd SnapshotUpdate) error {
	res := r.conn(ctx).
		Model(&Employee{}).
		Where("id = ? AND version = ?", id, upd.ExpectedVersion).
		Updates(map[string]interface{}{
			"last_salary_sent": datatypes.NewJSONType(upd.Snapshot),
			"next_salary_date": upd.NextSalaryDate,
			"updated_by":       upd.UpdatedBy,
			"version":          gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return employeeerrors.ErrConcurrentUpdate
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	res := r.conn(ctx).Delete(&Employee{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
