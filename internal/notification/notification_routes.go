package notification

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
	notifications := r.Group("/notifications")
	notifications.Use(middleware.AuthMiddleware(jwtSecret))
	notifications.Use(middleware.ExtractUserID())
	notifications.Use(middleware.ContextLogger(logger))
	{
		notifications.GET("",
			middleware.RateLimitByUser(2, 5),
			middleware.RBACAuthorize(rbacService, "notification", "read"),
			handler.List,
		)
	}
}
