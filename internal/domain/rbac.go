package domain

// Roles an operator account can hold.
const (
	RoleAdmin   = "ADMIN"
	RoleHR      = "HR"
	RoleFinance = "FINANCE"
	RoleViewer  = "VIEWER"
)

var Roles = []string{RoleAdmin, RoleHR, RoleFinance, RoleViewer}

func IsValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

type EnforceRequest struct {
	UserID   string `json:"user_id"`
	Role     string `json:"role" binding:"required"`
	Resource string `json:"resource" binding:"required"`
	Action   string `json:"action" binding:"required"`
}

type EnforceResponse struct {
	Allowed bool `json:"allowed"`
}

type PermissionResponse struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
}
