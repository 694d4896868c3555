// internal/pkg/jwt/generator.go
package jwt

import (
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

type Generator struct {
	priv     *rsa.PrivateKey
	issuer   string
	audience string
	kid      string // key id for rotation
	Ttl      time.Duration
}

func NewGenerator(priv *rsa.PrivateKey, issuer, audience, kid string, ttl time.Duration) *Generator {
	return &Generator{
		priv:     priv,
		issuer:   issuer,
		audience: audience,
		kid:      kid,
		Ttl:      ttl,
	}
}

// Issued is a signed token plus the values callers need to track it.
type Issued struct {
	Token     string
	JTI       string
	ExpiresAt time.Time
}

// Generate signs an RS256 token for role, optionally bound to one subject.
func (g *Generator) Generate(role, subjectID string) (Issued, error) {
	if g.priv == nil {
		return Issued{}, fmt.Errorf("jwt generator has nil private key")
	}

	now := time.Now()
	jti := ulid.Make().String()
	exp := now.Add(g.Ttl)

	claims := &Claims{
		Role:      role,
		SubjectID: subjectID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    g.issuer,
			Subject:   subjectID,
			Audience:  []string{g.audience},
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        jti,
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if g.kid != "" {
		tok.Header["kid"] = g.kid
	}

	signed, err := tok.SignedString(g.priv)
	if err != nil {
		return Issued{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return Issued{Token: signed, JTI: jti, ExpiresAt: exp}, nil
}
