package auth

import "github.com/sahilchouksey/coursecheckout-api/model"

// Permissions is what a caller may do, derived once from their role
type Permissions struct {
	Role               string `json:"role"`
	CanPurchase        bool   `json:"can_purchase"`
	CanViewEarnings    bool   `json:"can_view_earnings"`
	CanManageShares    bool   `json:"can_manage_shares"`
	CanViewAllPayments bool   `json:"can_view_all_payments"`
}

// PermissionsForRole maps a user role to its permissions. Unknown roles get none.
func PermissionsForRole(role string) Permissions {
	switch role {
	case model.RoleAdmin:
		return Permissions{Role: role, CanPurchase: true, CanViewEarnings: true, CanManageShares: true, CanViewAllPayments: true}
	case model.RoleTeacher:
		return Permissions{Role: role, CanPurchase: true, CanViewEarnings: true}
	case model.RoleUser:
		return Permissions{Role: role, CanPurchase: true}
	default:
		return Permissions{Role: role}
	}
}
