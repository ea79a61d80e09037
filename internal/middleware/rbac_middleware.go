package middleware

import (
	"go-salary/internal/domain"
	"go-salary/internal/shared/response"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RBACService adalah interface lokal.
// Apapun package yang punya method Enforce(domain.EnforceRequest) bisa masuk ke sini.
type RBACService interface {
	Enforce(req domain.EnforceRequest) (bool, error)
}

func RBACAuthorize(service RBACService, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok1 := c.Get("user_id")
		role, ok2 := c.Get("role")

		if !ok1 || !ok2 {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
			c.Abort()
			return
		}

		req := domain.EnforceRequest{
			UserID:   userID.(string),
			Role:     role.(string),
			Resource: resource,
			Action:   action,
		}

		allowed, err := service.Enforce(req)
		if err != nil {
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "authorization check failed", nil)
			c.Abort()
			return
		}

		if !allowed {
			response.Error(c, http.StatusForbidden, "FORBIDDEN",
				"You do not have permission to access this resource",
				gin.H{"required": resource + ":" + action},
			)
			c.Abort()
			return
		}
		c.Next()
	}
}
