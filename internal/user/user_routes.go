package user

import (
	"go-salary/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService middleware.RBACService,
	jwtSecret string,
	logger *zap.Logger,
) {
	users := r.Group("/users")
	users.Use(middleware.AuthMiddleware(jwtSecret))
	users.Use(middleware.ExtractUserID())
	users.Use(middleware.ContextLogger(logger))
	{
		users.GET("",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, "user", "read"),
			handler.GetAll,
		)

		users.GET("/:id",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, "user", "read"),
			handler.GetById,
		)

		users.PATCH("/:id/role",
			middleware.RateLimitByUser(0.5, 2),
			middleware.RBACAuthorize(rbacService, "user", "update"),
			handler.AssignRole,
		)

		users.PATCH("/:id/status",
			middleware.RateLimitByUser(0.5, 2),
			middleware.RBACAuthorize(rbacService, "user", "update"),
			handler.ToggleStatus,
		)

		// Admin reset
		users.POST("/:id/reset-password",
			middleware.RateLimitByUser(0.5, 2),
			middleware.RBACAuthorize(rbacService, "user", "update"),
			handler.ResetPassword,
		)

		// Self service, any signed-in operator
		users.PUT("/me/password",
			middleware.RateLimitByUser(0.2, 2),
			handler.ChangePassword,
		)
	}
}
