package database

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// Conn returns a gorm session bound to ctx. When tx is set, statements run on
// that *sql.Tx so repositories can join a transaction opened by the service.
func Conn(ctx context.Context, db *gorm.DB, tx *sql.Tx) *gorm.DB {
	session := db.WithContext(ctx)
	if tx != nil {
		session.Statement.ConnPool = tx
	}
	return session
}
