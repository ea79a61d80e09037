package middleware

import (
	"net/http"
	"strings"

	"go-salary/internal/domain"
	"go-salary/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ExtractUserID checks the identity AuthMiddleware put on the context before
// any handler records who paid or reversed a salary. The operator must be a
// users row id and hold one of the known roles.
func ExtractUserID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		userID, exists := ctx.Get("user_id")
		if !exists {
			response.Error(ctx, http.StatusUnauthorized, "UNAUTHORIZED", "User tidak terautentikasi", nil)
			ctx.Abort()
			return
		}

		userIDStr, ok := userID.(string)
		if !ok {
			response.Error(ctx, http.StatusUnauthorized, "INVALID_USER_ID", "Format user_id tidak valid", nil)
			ctx.Abort()
			return
		}
		if _, err := uuid.Parse(userIDStr); err != nil {
			response.Error(ctx, http.StatusUnauthorized, "INVALID_USER_ID", "Format user_id tidak valid", nil)
			ctx.Abort()
			return
		}

		role := strings.ToUpper(ctx.GetString("role"))
		if !domain.IsValidRole(role) {
			response.Error(ctx, http.StatusForbidden, "FORBIDDEN", "Role operator tidak dikenal", nil)
			ctx.Abort()
			return
		}

		ctx.Set("role", role)
		ctx.Set("user_id_validated", userIDStr)
		ctx.Next()
	}
}
