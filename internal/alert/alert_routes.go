package alert

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
	g := r.Group("")
	g.Use(middleware.AuthMiddleware(jwtSecret))
	g.Use(middleware.ExtractUserID())
	g.Use(middleware.ContextLogger(logger))
	{
		g.GET("/alerts",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, "alert", "read"),
			handler.GetAlerts,
		)
		g.GET("/schedule",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, "schedule", "read"),
			handler.GetSchedule,
		)
	}
}
