// internal/middleware/seed_middleware.go
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Seeder populates cold collections.
type Seeder interface {
	Ensure(ctx context.Context) error
}

// SeedMiddleware makes sure fixtures exist before the first business request.
// A seeding failure is logged and the request still proceeds.
func SeedMiddleware(s Seeder, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.Ensure(c.Request.Context()); err != nil {
			logger.Error("seeding failed", zap.Error(err))
		}
		c.Next()
	}
}
