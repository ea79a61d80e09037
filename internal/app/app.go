package app

import (
	"context"
	"net/http"
	"time"

	"go-salary/internal/alert"
	"go-salary/internal/auth"
	"go-salary/internal/bootstrap"
	"go-salary/internal/config"
	"go-salary/internal/employee"
	"go-salary/internal/messaging/kafka"
	"go-salary/internal/middleware"
	"go-salary/internal/notification"
	"go-salary/internal/rbac"
	"go-salary/internal/rbac/infra"
	"go-salary/internal/receipt"
	"go-salary/internal/salary"
	"go-salary/internal/scheduler"
	"go-salary/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// BuildApp connects infrastructure, registers every module on router and
// starts the digest scheduler. The returned func releases all of it.
func BuildApp(router *gin.Engine, cfg *config.Config) (func(), error) {
	logger := zap.L()

	conn, err := connectInfra(cfg, true)
	if err != nil {
		return nil, err
	}

	if err := Migrate(conn.Gorm); err != nil {
		conn.Close()
		return nil, err
	}
	logger.Info("database migrated")

	loc, err := time.LoadLocation(cfg.Alert.Timezone)
	if err != nil {
		logger.Warn("invalid ALERT_TIMEZONE, using UTC", zap.String("tz", cfg.Alert.Timezone), zap.Error(err))
		loc = time.UTC
	}

	digest, err := registerModules(router, cfg, conn, loc, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}

	cronRunner, err := scheduler.Start(cfg.Alert.DigestCron, loc, digest, logger)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return func() {
		<-cronRunner.Stop().Done()
		conn.Close()
	}, nil
}

func registerModules(router *gin.Engine, cfg *config.Config, conn *Infra, loc *time.Location, logger *zap.Logger) (*scheduler.DigestJob, error) {
	router.Use(middleware.RequestID())

	// --- Repositories ---
	authRepo := auth.NewRepository(conn.Gorm)
	employeeRepo := employee.NewRepository(conn.Gorm)
	salaryRepo := salary.NewRepository(conn.Gorm)
	userRepo := user.NewRepository(conn.Gorm)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer(rbac.DefaultPolicies, rbac.DefaultInherits)
	if err != nil {
		return nil, err
	}
	rbacService := rbac.NewService(enforcer, logger)

	// --- Receipts ---
	signer := receipt.NewSigner(cfg.Auth.JWTSecret)
	store := receipt.NewLocalStore(cfg.Receipt.Dir, cfg.Receipt.PublicBaseURL, cfg.Receipt.URLTTL, signer, logger)

	// --- Services ---
	authService := auth.NewService(authRepo, auth.TokenConfig{
		Secret:     cfg.Auth.JWTSecret,
		AccessTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTTL: cfg.Auth.RefreshTokenTTL,
	}, logger)
	if err := authService.EnsureAdmin(context.Background(), cfg.Auth.AdminEmail, cfg.Auth.AdminName, cfg.Auth.AdminPassword); err != nil {
		return nil, err
	}

	employeeService := employee.NewService(conn.SQL, employeeRepo, conn.Redis, logger)
	// "today" for alerts, the schedule and the digest is the ALERT_TIMEZONE day
	alertService := alert.NewService(employeeRepo, alert.Config{
		Policy: alert.Policy(cfg.Alert.AnchorPolicy),
		Now:    func() time.Time { return time.Now().In(loc) },
	}, logger)
	notificationService := newNotificationService(cfg, conn.Gorm, conn.Redis, logger)

	opts := salary.Options{
		Store:             store,
		ReceiptURLTTL:     cfg.Receipt.URLTTL,
		MaxReceiptBytes:   cfg.Receipt.MaxSizeBytes,
		SideEffectTimeout: cfg.SideEffects.Timeout,
		Audit:             bootstrap.NewStdoutAuditLogger(logger),
	}
	if cfg.Kafka.Broker != "" {
		// Delivered by the worker and consumer processes.
		opts.Outbox = kafka.NewOutboxRepository(conn.SQL)
	} else {
		logger.Warn("KAFKA_BROKER not set, side effects run inline after each payment")
		opts.Dispatcher = newDispatcher(cfg, notificationService, logger)
	}
	salaryService := salary.NewService(conn.SQL, salaryRepo, employeeRepo, opts, logger)
	userService := user.NewService(userRepo, logger)

	// --- Handlers ---
	authHandler := auth.NewHandler(authService, cfg.IsProduction(), logger)
	alertHandler := alert.NewHandler(alertService, logger)
	employeeHandler := employee.NewHandler(employeeService, logger)
	notificationHandler := notification.NewHandler(notificationService, logger)
	rbacHandler := rbac.NewHandler(rbacService, logger)
	receiptHandler := receipt.NewHandler(store, signer, logger)
	salaryHandler := salary.NewHandler(salaryService, conn.Redis, cfg.Receipt.MaxSizeBytes, logger)
	userHandler := user.NewHandler(userService, logger)

	// --- Routes Registration ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		auth.RegisterRoutes(api, authHandler, rbacService, cfg.Auth.JWTSecret, logger)
		alert.RegisterRoutes(api, alertHandler, rbacService, cfg.Auth.JWTSecret, logger)
		employee.RegisterRoutes(api, employeeHandler, rbacService, cfg.Auth.JWTSecret, logger)
		notification.RegisterRoutes(api, notificationHandler, rbacService, cfg.Auth.JWTSecret, logger)
		rbac.RegisterRoutes(api, rbacHandler, cfg.Auth.JWTSecret, logger)
		salary.RegisterRoutes(api, salaryHandler, rbacService, conn.Redis, cfg.Auth.JWTSecret, logger)
		user.RegisterRoutes(api, userHandler, rbacService, cfg.Auth.JWTSecret, logger)
	}
	receipt.RegisterRoutes(api, router.Group("/public"), receiptHandler, rbacService, cfg.Auth.JWTSecret, logger)

	return scheduler.NewDigestJob(alertService, notificationService, logger), nil
}
