package receipt

import (
	"go-salary/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RegisterRoutes mounts the authenticated download under api and the
// token-protected public download under public.
func RegisterRoutes(
	api *gin.RouterGroup,
	public *gin.RouterGroup,
	handler *Handler,
	rbacService middleware.RBACService,
	jwtSecret string,
	logger *zap.Logger,
) {
	receipts := api.Group("/receipts")
	receipts.Use(middleware.AuthMiddleware(jwtSecret))
	receipts.Use(middleware.ExtractUserID())
	receipts.Use(middleware.ContextLogger(logger))
	receipts.GET("/*key",
		middleware.RateLimitByUser(5, 20),
		middleware.RBACAuthorize(rbacService, "receipt", "read"),
		handler.Download,
	)

	public.GET("/receipts/*key",
		middleware.RateLimitByIP(2, 10),
		handler.PublicDownload,
	)
}
