// internal/domain/auth/entity.go
package auth

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleStaff    Role = "staff"
	RoleManager  Role = "manager"
	RoleCustomer Role = "customer"
)

// StaffRoles are the roles allowed to act on any customer.
var StaffRoles = []Role{RoleAdmin, RoleStaff, RoleManager}

func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleAdmin, RoleStaff, RoleManager, RoleCustomer:
		return r, true
	}
	return "", false
}

// Principal is the identity a request acts as. SubjectID is set only for
// customers and names the one customer they may act on.
type Principal struct {
	Role      Role
	SubjectID string
	TokenID   string
	ExpiresAt time.Time
}

func (p Principal) IsCustomer() bool { return p.Role == RoleCustomer }

// CanActOn reports whether the principal may read or write customerID.
func (p Principal) CanActOn(customerID string) bool {
	if !p.IsCustomer() {
		return true
	}
	return p.SubjectID != "" && p.SubjectID == customerID
}

func (p Principal) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// StaffAccount is a back-office login.
type StaffAccount struct {
	Username     string
	Role         Role
	PasswordHash string
}
