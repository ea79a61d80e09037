package salary

import (
	"errors"

	employeeerrors "go-salary/internal/employee/errors"
	salaryerrors "go-salary/internal/salary/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return salaryerrors.ErrTransactionNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503":
			return employeeerrors.ErrEmployeeNotFound
		}
	}

	return err
}
