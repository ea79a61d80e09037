package bootstrap

import (
	"context"
	"sort"
	"time"

	"go-salary/internal/shared/contextutil"

	"go.uber.org/zap"
)

// StdoutAuditLogger writes audit entries as structured log lines on the
// "audit" logger, tagged with the request and user carried by ctx.
type StdoutAuditLogger struct {
	logger *zap.Logger
	now    func() time.Time
}

func NewStdoutAuditLogger(logger ...*zap.Logger) *StdoutAuditLogger {
	l := zap.L().Named("audit")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("audit")
	}
	return &StdoutAuditLogger{logger: l, now: time.Now}
}

func (l *StdoutAuditLogger) Log(ctx context.Context, entry AuditLog) {
	fields := []zap.Field{
		zap.String("timestamp", l.now().UTC().Format(time.RFC3339)),
		zap.String("action", entry.Action),
		zap.String("message", entry.Message),
	}
	if entry.Actor != "" {
		fields = append(fields, zap.String("actor", entry.Actor))
	}
	if rid := contextutil.GetRequestID(ctx); rid != "" {
		fields = append(fields, zap.String("request_id", rid))
	}
	if uid := contextutil.GetUserID(ctx); uid != "" {
		fields = append(fields, zap.String("user_id", uid))
	}

	// stable field order keeps audit lines diffable
	keys := make([]string, 0, len(entry.Meta))
	for k := range entry.Meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, zap.Any(k, entry.Meta[k]))
	}

	l.logger.Info("audit event", fields...)
}
