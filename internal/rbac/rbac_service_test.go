package rbac

import (
	"testing"

	"go-salary/internal/domain"
	"go-salary/internal/rbac/infra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) Service {
	e, err := infra.NewEnforcer(DefaultPolicies, DefaultInherits)
	require.NoError(t, err)
	return NewService(e)
}

func TestRBACService_Enforce(t *testing.T) {
	service := newTestService(t)

	cases := []struct {
		role     string
		resource string
		action   string
		allowed  bool
	}{
		{domain.RoleViewer, "transaction", "read", true},
		{domain.RoleViewer, "payment", "create", false},
		{domain.RoleViewer, "employee", "update", false},
		{domain.RoleHR, "employee", "create", true},
		{domain.RoleHR, "alert", "read", true},
		{domain.RoleHR, "payment", "create", false},
		{domain.RoleFinance, "payment", "create", true},
		{domain.RoleFinance, "transaction", "delete", true},
		{domain.RoleFinance, "employee", "delete", false},
		{domain.RoleAdmin, "payment", "create", true},
		{domain.RoleAdmin, "employee", "delete", true},
		{domain.RoleAdmin, "user", "create", true},
		{"hr", "employee", "read", true},
		{"OWNER", "employee", "read", false},
	}

	for _, tc := range cases {
		t.Run(tc.role+" "+tc.resource+":"+tc.action, func(t *testing.T) {
			allowed, err := service.Enforce(domain.EnforceRequest{
				UserID:   "user-1",
				Role:     tc.role,
				Resource: tc.resource,
				Action:   tc.action,
			})
			assert.NoError(t, err)
			assert.Equal(t, tc.allowed, allowed)
		})
	}
}

func TestRBACService_PermissionsForRole(t *testing.T) {
	service := newTestService(t)

	perms, err := service.PermissionsForRole(domain.RoleFinance)
	require.NoError(t, err)
	assert.Contains(t, perms, domain.PermissionResponse{Resource: "payment", Action: "create"})
	assert.Contains(t, perms, domain.PermissionResponse{Resource: "transaction", Action: "read"})
	assert.NotContains(t, perms, domain.PermissionResponse{Resource: "employee", Action: "create"})

	none, err := service.PermissionsForRole("GUEST")
	require.NoError(t, err)
	assert.Empty(t, none)
}
