// internal/middleware/helpers.go
package middleware

import (
	"loyalty-service/internal/domain/auth"
	xerrors "loyalty-service/internal/pkg/errors"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// GetPrincipal returns the caller set by Auth().
func GetPrincipal(c *gin.Context) (auth.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return auth.Principal{}, false
	}
	p, ok := v.(auth.Principal)
	return p, ok
}

// EnsureSubject fails with Forbidden when a customer caller targets another
// customer. Other roles pass.
func EnsureSubject(c *gin.Context, customerID string) error {
	p, ok := GetPrincipal(c)
	if !ok {
		return xerrors.Unauthorized("authentication required")
	}
	if !p.CanActOn(customerID) {
		return xerrors.Forbidden("customers may only access their own records")
	}
	return nil
}
