package auth

import (
	"fmt"
	"strings"

	"loyalty-service/internal/domain/auth"

	"golang.org/x/crypto/bcrypt"
)

// ParseStaffAccounts reads "username:role:bcrypt-hash" entries.
func ParseStaffAccounts(entries []string) ([]auth.StaffAccount, error) {
	out := make([]auth.StaffAccount, 0, len(entries))
	for _, e := range entries {
		parts := strings.SplitN(e, ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("malformed staff account %q", e)
		}
		role, ok := auth.ParseRole(parts[1])
		if !ok || role == auth.RoleCustomer {
			return nil, fmt.Errorf("staff account %s has invalid role %q", parts[0], parts[1])
		}
		if _, err := bcrypt.Cost([]byte(parts[2])); err != nil {
			return nil, fmt.Errorf("staff account %s: %w", parts[0], err)
		}
		out = append(out, auth.StaffAccount{Username: parts[0], Role: role, PasswordHash: parts[2]})
	}
	return out, nil
}

// NewStaffAccount hashes password for a new account.
func NewStaffAccount(username string, role auth.Role, password string) (auth.StaffAccount, error) {
	if len(password) < 8 {
		return auth.StaffAccount{}, fmt.Errorf("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return auth.StaffAccount{}, fmt.Errorf("failed to hash password: %w", err)
	}
	return auth.StaffAccount{Username: username, Role: role, PasswordHash: string(hash)}, nil
}
