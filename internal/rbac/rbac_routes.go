package rbac

import (
	"go-salary/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, jwtSecret string, logger *zap.Logger) {
	group := r.Group("/rbac")
	group.Use(middleware.AuthMiddleware(jwtSecret))
	group.Use(middleware.ExtractUserID())
	group.Use(middleware.ContextLogger(logger))
	{
		group.POST("/enforce", middleware.RateLimitByUser(5, 20), handler.Enforce)
		group.GET("/permissions", middleware.RateLimitByUser(2, 5), handler.Permissions)
	}
}
