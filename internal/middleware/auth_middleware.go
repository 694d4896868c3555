// internal/middleware/auth_middleware.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	"loyalty-service/internal/domain/auth"
	xerrors "loyalty-service/internal/pkg/errors"
	"loyalty-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Resolver turns a bearer credential into a Principal.
type Resolver interface {
	Resolve(ctx context.Context, token string) (auth.Principal, error)
}

type AuthMiddleware struct {
	resolver Resolver
}

func NewAuthMiddleware(resolver Resolver) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver}
}

// Auth resolves the caller and stores the Principal on the context.
func (m *AuthMiddleware) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Error(c, http.StatusUnauthorized, "missing authorization token", nil)
			return
		}

		p, err := m.resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			if xerrors.HTTPStatus(err) != http.StatusUnauthorized {
				_ = c.Error(err)
			}
			response.Error(c, http.StatusUnauthorized, "invalid or expired token", xerrors.New(xerrors.ErrUnauthorized, xerrors.Message(err)))
			return
		}

		c.Set(principalKey, p)
		c.Next()
	}
}

// RequireRole allows only the listed roles. MUST be used after Auth().
func (m *AuthMiddleware) RequireRole(roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			response.Error(c, http.StatusForbidden, "authentication required", nil)
			return
		}
		if !p.HasRole(roles...) {
			response.Error(c, http.StatusForbidden, "insufficient permissions", xerrors.Forbidden("insufficient permissions"))
			return
		}
		c.Next()
	}
}

// StaffOnly combines Auth and a staff, manager or admin role check.
func (m *AuthMiddleware) StaffOnly() []gin.HandlerFunc {
	return []gin.HandlerFunc{m.Auth(), m.RequireRole(auth.StaffRoles...)}
}

// ManagersOnly is for admin and manager endpoints.
func (m *AuthMiddleware) ManagersOnly() []gin.HandlerFunc {
	return []gin.HandlerFunc{m.Auth(), m.RequireRole(auth.RoleAdmin, auth.RoleManager)}
}

// extractToken reads the Bearer header, falling back to the token query
// parameter used by websocket clients.
func extractToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return c.Query("token")
}
