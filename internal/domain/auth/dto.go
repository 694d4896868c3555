// internal/domain/auth/dto.go
package auth

import "time"

type StaffLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token      string    `json:"token"`
	Role       Role      `json:"role"`
	CustomerID string    `json:"customer_id,omitempty"`
	TokenType  string    `json:"token_type"`
	ExpiresAt  time.Time `json:"expires_at"`
}
