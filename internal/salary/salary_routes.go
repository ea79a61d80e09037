package salary

import (
	"go-salary/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService middleware.RBACService,
	rdb *redis.Client,
	jwtSecret string,
	logger *zap.Logger,
) {
	secured := r.Group("")
	secured.Use(middleware.AuthMiddleware(jwtSecret))
	secured.Use(middleware.ExtractUserID())
	secured.Use(middleware.ContextLogger(logger))
	{
		secured.POST("/payments",
			middleware.RateLimitByUser(0.5, 3),
			middleware.RBACAuthorize(rbacService, "payment", "create"),
			middleware.Idempotency(rdb, logger),
			handler.RecordPayment,
		)

		secured.GET("/transactions",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, "transaction", "read"),
			handler.GetAll,
		)

		secured.GET("/transactions/:id",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, "transaction", "read"),
			handler.GetById,
		)

		secured.GET("/employees/:id/transactions",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, "transaction", "read"),
			handler.GetByEmployee,
		)

		// Reversal; :id stays the employee to share the /employees/:id tree
		secured.DELETE("/employees/:id/transactions/:transaction_id",
			middleware.RateLimitByUser(0.2, 2),
			middleware.RBACAuthorize(rbacService, "transaction", "delete"),
			handler.Reverse,
		)
	}
}
