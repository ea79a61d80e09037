package receipt

import (
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"go-salary/internal/shared/apperror"
	"go-salary/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	store  Store
	signer *Signer
	logger *zap.Logger
}

func NewHandler(store Store, signer *Signer, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("receipt.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("receipt.handler")
	}
	return &Handler{store: store, signer: signer, logger: l}
}

// Download streams a receipt to an authenticated operator.
func (h *Handler) Download(c *gin.Context) {
	h.stream(c, refFromParam(c))
}

// PublicDownload serves the link embedded in payment emails; the token must
// be valid and issued for the requested receipt.
func (h *Handler) PublicDownload(c *gin.Context) {
	ref := refFromParam(c)

	signedRef, err := h.signer.Verify(c.Query("token"))
	if err != nil || signedRef != ref {
		h.logger.Warn("public receipt download rejected", zap.String("ref", ref), zap.Error(err))
		appErr := apperror.ToHTTP(ErrTokenMismatch(err))
		response.Error(c, appErr.Status, appErr.Code, appErr.Message, nil)
		return
	}

	h.stream(c, ref)
}

func (h *Handler) stream(c *gin.Context, ref string) {
	body, err := h.store.Open(c.Request.Context(), ref)
	if err != nil {
		httpErr := apperror.ToHTTP(err)
		h.logger.Warn("receipt download failed",
			zap.String("ref", ref),
			zap.Int("status", httpErr.Status),
			zap.Error(err),
		)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, nil)
		return
	}
	defer body.Close()

	contentType := mime.TypeByExtension(path.Ext(ref))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Header("Content-Disposition", `inline; filename="`+path.Base(ref)+`"`)
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, body); err != nil {
		h.logger.Warn("receipt stream interrupted", zap.String("ref", ref), zap.Error(err))
	}
}

func refFromParam(c *gin.Context) string {
	return KeyPrefix + strings.TrimPrefix(c.Param("key"), "/")
}
