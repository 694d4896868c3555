// internal/pkg/session/rate_limiter.go
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	maxOTPAttempts = 5
	otpWindow      = 10 * time.Minute
)

type RateLimiter struct {
	client *redis.Client
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// CheckOTPAttempt counts one OTP try for phone and reports whether it is
// still within the window allowance.
func (r *RateLimiter) CheckOTPAttempt(ctx context.Context, phone string) (bool, int64, error) {
	key := otpKey(phone)

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to increment OTP attempt: %w", err)
	}

	// Set expiration on first attempt
	if count == 1 {
		r.client.Expire(ctx, key, otpWindow)
	}

	remaining := maxOTPAttempts - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= maxOTPAttempts, remaining, nil
}

// ResetOTPAttempts clears the counter after a successful login.
func (r *RateLimiter) ResetOTPAttempts(ctx context.Context, phone string) error {
	return r.client.Del(ctx, otpKey(phone)).Err()
}

func otpKey(phone string) string {
	return fmt.Sprintf("ratelimit:otp:%s", phone)
}
