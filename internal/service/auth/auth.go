// internal/service/auth/auth.go
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"loyalty-service/internal/domain/auth"
	"loyalty-service/internal/domain/customer"
	xerrors "loyalty-service/internal/pkg/errors"
	"loyalty-service/internal/pkg/jwt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// CustomerFinder looks a customer up by phone.
type CustomerFinder interface {
	Find(ctx context.Context, match func(customer.Customer) bool) (customer.Customer, bool, error)
}

// OTPLimiter throttles customer login attempts per phone.
type OTPLimiter interface {
	CheckOTPAttempt(ctx context.Context, phone string) (bool, int64, error)
	ResetOTPAttempts(ctx context.Context, phone string) error
}

// Revoker stores revoked token ids.
type Revoker interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

type AuthService struct {
	verifier  Verifier
	customers CustomerFinder
	jwt       *jwt.Manager
	limiter   OTPLimiter
	revoker   Revoker
	otp       string
	staff     map[string]auth.StaffAccount
	logger    *zap.Logger
}

type Options struct {
	Verifier  Verifier
	Customers CustomerFinder
	JWT       *jwt.Manager // nil issues demo customer tokens instead
	Limiter   OTPLimiter   // optional
	Revoker   Revoker      // optional
	OTP       string
	Staff     []auth.StaffAccount
	Logger    *zap.Logger
}

func NewAuthService(o Options) *AuthService {
	staff := make(map[string]auth.StaffAccount, len(o.Staff))
	for _, a := range o.Staff {
		staff[strings.ToLower(a.Username)] = a
	}
	return &AuthService{
		verifier:  o.Verifier,
		customers: o.Customers,
		jwt:       o.JWT,
		limiter:   o.Limiter,
		revoker:   o.Revoker,
		otp:       o.OTP,
		staff:     staff,
		logger:    o.Logger,
	}
}

// Resolve maps a bearer token to its Principal.
func (s *AuthService) Resolve(ctx context.Context, token string) (auth.Principal, error) {
	return s.verifier.Resolve(ctx, token)
}

// ========== Customer Login ==========

// CustomerLogin checks the one-time code for phone and issues a customer
// scoped credential.
func (s *AuthService) CustomerLogin(ctx context.Context, req *customer.LoginRequest) (*auth.LoginResponse, error) {
	phone, err := customer.NormalizePhone(req.PhoneNumber)
	if err != nil {
		return nil, err
	}

	if s.limiter != nil {
		allowed, _, err := s.limiter.CheckOTPAttempt(ctx, phone)
		if err != nil {
			s.logger.Warn("otp rate limiter unavailable", zap.Error(err))
		} else if !allowed {
			return nil, xerrors.New(xerrors.ErrRateLimited, "too many attempts, please try again later")
		}
	}

	if req.OTP != s.otp {
		return nil, xerrors.Unauthorized("invalid verification code")
	}

	cust, ok, err := s.customers.Find(ctx, func(c customer.Customer) bool { return c.PhoneNumber == phone })
	if err != nil {
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}
	if !ok {
		return nil, xerrors.NotFound("no customer registered with this phone number")
	}

	if s.limiter != nil {
		if err := s.limiter.ResetOTPAttempts(ctx, phone); err != nil {
			s.logger.Warn("failed to reset otp attempts", zap.Error(err))
		}
	}

	resp, err := s.issue(auth.RoleCustomer, cust.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("customer logged in", zap.String("customer_id", cust.ID))
	return resp, nil
}

// ========== Staff Login ==========

func (s *AuthService) StaffLogin(ctx context.Context, req *auth.StaffLoginRequest) (*auth.LoginResponse, error) {
	acct, ok := s.staff[strings.ToLower(req.Username)]
	if !ok {
		return nil, xerrors.Unauthorized("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(req.Password)); err != nil {
		return nil, xerrors.Unauthorized("invalid credentials")
	}
	if s.jwt == nil {
		return nil, fmt.Errorf("token signing is not configured")
	}

	resp, err := s.issue(acct.Role, "")
	if err != nil {
		return nil, err
	}
	s.logger.Info("staff logged in", zap.String("username", acct.Username), zap.String("role", string(acct.Role)))
	return resp, nil
}

func (s *AuthService) issue(role auth.Role, subjectID string) (*auth.LoginResponse, error) {
	if s.jwt == nil {
		// demo mode: the static verifier understands these tokens
		return &auth.LoginResponse{
			Token:      CustomerToken(subjectID),
			Role:       role,
			CustomerID: subjectID,
			TokenType:  "Bearer",
		}, nil
	}
	issued, err := s.jwt.Generator.Generate(string(role), subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	return &auth.LoginResponse{
		Token:      issued.Token,
		Role:       role,
		CustomerID: subjectID,
		TokenType:  "Bearer",
		ExpiresAt:  issued.ExpiresAt,
	}, nil
}

// ========== Logout ==========

// Logout revokes the caller's token until it would have expired. Static
// credentials carry no token id and cannot be revoked.
func (s *AuthService) Logout(ctx context.Context, p auth.Principal) error {
	if p.TokenID == "" || s.revoker == nil {
		return nil
	}
	if err := s.revoker.BlacklistToken(ctx, p.TokenID, remainingTTL(p, time.Now())); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	s.logger.Info("token revoked", zap.String("jti", p.TokenID))
	return nil
}
