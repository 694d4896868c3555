// internal/handlers/auth/auth_handler.go
package auth

import (
	"net/http"

	"loyalty-service/internal/domain/auth"
	"loyalty-service/internal/domain/customer"
	"loyalty-service/internal/middleware"
	"loyalty-service/internal/pkg/response"
	authUsecase "loyalty-service/internal/service/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *authUsecase.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService *authUsecase.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// CustomerLogin exchanges phone + OTP for a customer-scoped token.
func (h *AuthHandler) CustomerLogin(c *gin.Context) {
	var req customer.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	resp, err := h.authService.CustomerLogin(c.Request.Context(), &req)
	if err != nil {
		h.logger.Info("customer login failed", zap.String("ip", c.ClientIP()), zap.Error(err))
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "login successful", resp)
}

// StaffLogin authenticates a back-office account.
func (h *AuthHandler) StaffLogin(c *gin.Context) {
	var req auth.StaffLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	resp, err := h.authService.StaffLogin(c.Request.Context(), &req)
	if err != nil {
		h.logger.Warn("staff login failed",
			zap.String("username", req.Username),
			zap.String("ip", c.ClientIP()),
		)
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "login successful", resp)
}

// Logout revokes the caller's token.
func (h *AuthHandler) Logout(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	if err := h.authService.Logout(c.Request.Context(), p); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "logged out", nil)
}

// Me echoes the resolved principal.
func (h *AuthHandler) Me(c *gin.Context) {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	response.Success(c, http.StatusOK, "", gin.H{
		"role":        p.Role,
		"customer_id": p.SubjectID,
		"expires_at":  p.ExpiresAt,
	})
}
