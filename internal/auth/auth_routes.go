package auth

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
	auth := r.Group("/auth")
	{
		auth.POST("/login", middleware.RateLimitByIP(0.08, 5), middleware.ContextLogger(logger), handler.Login)
		auth.POST("/refresh", middleware.RateLimitByIP(0.2, 5), middleware.ContextLogger(logger), handler.RefreshToken)
		auth.POST("/logout", handler.Logout)

		auth.GET("/me",
			middleware.AuthMiddleware(jwtSecret),
			middleware.RateLimitByUser(2, 5),
			handler.Me,
		)
		auth.POST("/register",
			middleware.AuthMiddleware(jwtSecret),
			middleware.ExtractUserID(),
			middleware.ContextLogger(logger),
			middleware.RateLimitByUser(0.2, 2),
			middleware.RBACAuthorize(rbacService, "user", "create"),
			handler.Register,
		)
	}
}
