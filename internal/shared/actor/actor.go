package actor

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// System is recorded as the author of writes that no operator triggered.
const System = "System"

// Operator is the authenticated user performing a write.
type Operator struct {
	ID    string
	Email string
	Name  string
	Role  string
}

// Label is the value stored in updated_by columns.
func (o Operator) Label() string {
	if e := strings.TrimSpace(o.Email); e != "" {
		return e
	}
	if n := strings.TrimSpace(o.Name); n != "" {
		return n
	}
	return System
}

// FromGin reads the operator set by the auth middleware.
func FromGin(c *gin.Context) Operator {
	return Operator{
		ID:    c.GetString("user_id"),
		Email: c.GetString("email"),
		Name:  c.GetString("name"),
		Role:  c.GetString("role"),
	}
}
