package remote

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rshade/planfocus/internal/access"
)

// ErrUnauthorized is returned for a missing, expired, or malformed token.
var ErrUnauthorized = errors.New("unauthorized")

// DefaultTokenTTL is the lifetime of tokens minted by the token command.
const DefaultTokenTTL = 24 * time.Hour

// Claims are the JWT claims carried by a bearer token.
type Claims struct {
	Name string `json:"name,omitempty"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for session, valid for ttl.
func IssueToken(secret []byte, session access.Session, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", fmt.Errorf("%w: empty signing secret", ErrUnauthorized)
	}
	if err := session.Validate(); err != nil {
		return "", err
	}

	now := time.Now()
	claims := Claims{
		Name: session.ActorName,
		Role: string(session.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.ActorID,
			ID:        session.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies tokenString and returns the session it was issued for.
func ParseToken(secret []byte, tokenString string) (access.Session, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return access.Session{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return access.Session{}, fmt.Errorf("%w: token has no subject", ErrUnauthorized)
	}

	return access.Session{
		ID:        claims.ID,
		ActorID:   claims.Subject,
		ActorName: claims.Name,
		Role:      access.ParseRole(claims.Role),
	}, nil
}
