package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"loyalty-service/internal/domain/auth"
	xerrors "loyalty-service/internal/pkg/errors"
	"loyalty-service/internal/pkg/jwt"
)

// Verifier resolves a bearer credential to a Principal.
type Verifier interface {
	Resolve(ctx context.Context, token string) (auth.Principal, error)
}

// ErrUnrecognized tells a ChainVerifier to try the next verifier.
var ErrUnrecognized = errors.New("credential not recognized")

// Revocations reports whether a token id was revoked before expiry.
type Revocations interface {
	IsTokenBlacklisted(ctx context.Context, jti string) (bool, error)
}

// TokenVerifier accepts RS256 tokens issued by this service.
type TokenVerifier struct {
	verifier *jwt.Verifier
	revoked  Revocations
}

// NewTokenVerifier builds a verifier. revoked may be nil.
func NewTokenVerifier(v *jwt.Verifier, revoked Revocations) *TokenVerifier {
	return &TokenVerifier{verifier: v, revoked: revoked}
}

func (t *TokenVerifier) Resolve(ctx context.Context, token string) (auth.Principal, error) {
	if strings.Count(token, ".") != 2 {
		return auth.Principal{}, ErrUnrecognized
	}
	claims, err := t.verifier.Verify(token)
	if err != nil {
		return auth.Principal{}, xerrors.New(xerrors.ErrUnauthorized, "invalid or expired token")
	}
	role, ok := auth.ParseRole(claims.Role)
	if !ok {
		return auth.Principal{}, xerrors.Newf(xerrors.ErrUnauthorized, "unknown role %q", claims.Role)
	}
	if role == auth.RoleCustomer && claims.SubjectID == "" {
		return auth.Principal{}, xerrors.Unauthorized("customer token has no subject")
	}

	if t.revoked != nil {
		hit, err := t.revoked.IsTokenBlacklisted(ctx, claims.ID)
		if err != nil {
			return auth.Principal{}, fmt.Errorf("failed to check blacklist: %w", err)
		}
		if hit {
			return auth.Principal{}, xerrors.Unauthorized("token has been revoked")
		}
	}

	p := auth.Principal{Role: role, SubjectID: claims.SubjectID, TokenID: claims.ID}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p, nil
}

const customerTokenPrefix = "customer-jwt-"

// StaticVerifier maps fixed demo credentials and the POS system token.
type StaticVerifier struct {
	tokens        map[string]auth.Role
	allowCustomer bool
}

// NewStaticVerifier enables the demo tokens when demo is set. A non-empty
// systemToken resolves to the staff role.
func NewStaticVerifier(demo bool, systemToken string) *StaticVerifier {
	s := &StaticVerifier{tokens: map[string]auth.Role{}, allowCustomer: demo}
	if demo {
		s.tokens["demo-admin-jwt"] = auth.RoleAdmin
		s.tokens["demo-staff-jwt"] = auth.RoleStaff
		s.tokens["demo-manager-jwt"] = auth.RoleManager
	}
	if systemToken != "" {
		s.tokens[systemToken] = auth.RoleStaff
	}
	return s
}

func (s *StaticVerifier) Resolve(_ context.Context, token string) (auth.Principal, error) {
	if role, ok := s.tokens[token]; ok {
		return auth.Principal{Role: role}, nil
	}
	if s.allowCustomer && strings.HasPrefix(token, customerTokenPrefix) {
		id := strings.TrimPrefix(token, customerTokenPrefix)
		if id == "" {
			return auth.Principal{}, xerrors.Unauthorized("malformed customer token")
		}
		return auth.Principal{Role: auth.RoleCustomer, SubjectID: id}, nil
	}
	return auth.Principal{}, ErrUnrecognized
}

// CustomerToken is the demo credential for a customer id.
func CustomerToken(customerID string) string {
	return customerTokenPrefix + customerID
}

// ChainVerifier asks each verifier in turn until one recognizes the token.
type ChainVerifier []Verifier

func (c ChainVerifier) Resolve(ctx context.Context, token string) (auth.Principal, error) {
	if strings.TrimSpace(token) == "" {
		return auth.Principal{}, xerrors.Unauthorized("missing authorization token")
	}
	for _, v := range c {
		p, err := v.Resolve(ctx, token)
		if errors.Is(err, ErrUnrecognized) {
			continue
		}
		return p, err
	}
	return auth.Principal{}, xerrors.Unauthorized("invalid authorization token")
}

// remainingTTL is how long a revocation must be kept for p's token.
func remainingTTL(p auth.Principal, now time.Time) time.Duration {
	if p.ExpiresAt.IsZero() {
		return 0
	}
	return p.ExpiresAt.Sub(now)
}
