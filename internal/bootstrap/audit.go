package bootstrap

import "context"

const (
	AuditServerShutdown      = "SERVER_SHUTDOWN"
	AuditPaymentRecorded     = "SALARY_PAYMENT_RECORDED"
	AuditTransactionReversed = "SALARY_TRANSACTION_REVERSED"
)

type AuditLog struct {
	Action  string
	Message string
	// Actor is the operator label; empty for system events.
	Actor string
	Meta  map[string]any
}

type AuditLogger interface {
	Log(ctx context.Context, entry AuditLog)
}
