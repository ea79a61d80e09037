package rbac

import (
	"go-salary/internal/domain"
	"go-salary/internal/rbac/infra"
)

// DefaultPolicies is the permission table of the salary tracker. VIEWER is
// read-only, HR manages employees and schedules, FINANCE records and
// reverses payments, ADMIN holds both and manages operator accounts.
var DefaultPolicies = []infra.Policy{
	{Role: domain.RoleViewer, Resource: "employee", Action: "read"},
	{Role: domain.RoleViewer, Resource: "transaction", Action: "read"},
	{Role: domain.RoleViewer, Resource: "alert", Action: "read"},
	{Role: domain.RoleViewer, Resource: "schedule", Action: "read"},
	{Role: domain.RoleViewer, Resource: "receipt", Action: "read"},

	{Role: domain.RoleHR, Resource: "employee", Action: "create"},
	{Role: domain.RoleHR, Resource: "employee", Action: "update"},
	{Role: domain.RoleHR, Resource: "employee", Action: "delete"},
	{Role: domain.RoleHR, Resource: "notification", Action: "read"},

	{Role: domain.RoleFinance, Resource: "payment", Action: "create"},
	{Role: domain.RoleFinance, Resource: "transaction", Action: "delete"},
	{Role: domain.RoleFinance, Resource: "notification", Action: "read"},

	{Role: domain.RoleAdmin, Resource: "user", Action: "*"},
}

var DefaultInherits = []infra.Inherit{
	{Role: domain.RoleHR, Parent: domain.RoleViewer},
	{Role: domain.RoleFinance, Parent: domain.RoleViewer},
	{Role: domain.RoleAdmin, Parent: domain.RoleHR},
	{Role: domain.RoleAdmin, Parent: domain.RoleFinance},
}
