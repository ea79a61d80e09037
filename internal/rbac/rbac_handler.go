package rbac

import (
	"net/http"
	"strings"

	"go-salary/internal/domain"
	"go-salary/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("rbac.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.handler")
	}
	return &Handler{service: service, logger: l}
}

// Enforce checks a permission for the caller's own role.
func (h *Handler) Enforce(c *gin.Context) {
	var req domain.EnforceRequest
	req.Role = c.GetString("role")
	req.UserID = c.GetString("user_id")

	var body struct {
		Resource string `json:"resource" binding:"required"`
		Action   string `json:"action" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Input tidak valid", err.Error())
		return
	}
	req.Resource = strings.TrimSpace(body.Resource)
	req.Action = strings.TrimSpace(body.Action)

	allowed, err := h.service.Enforce(req)
	if err != nil {
		h.logger.Error("rbac enforce failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "authorization check failed", nil)
		return
	}

	response.Success(c, http.StatusOK, domain.EnforceResponse{Allowed: allowed}, nil)
}

// Permissions lists everything the caller's role may do.
func (h *Handler) Permissions(c *gin.Context) {
	perms, err := h.service.PermissionsForRole(c.GetString("role"))
	if err != nil {
		h.logger.Error("rbac list permissions failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list permissions", nil)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"role":        c.GetString("role"),
		"permissions": perms,
	}, nil)
}
