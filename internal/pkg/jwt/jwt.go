package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// ErrNoExpiry is returned when a token carries no exp claim.
var ErrNoExpiry = errors.New("token has no exp claim")

// Claims is the subset of the backend access token payload the site reads.
// Tokens are issued and verified by the backend; this server never holds the key.
type Claims struct {
	UserID string `json:"userId,omitempty"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	jwtlib.RegisteredClaims
}

// ParseUnverified decodes the token payload without checking the signature.
func ParseUnverified(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return claims, nil
}

// ExpiresAt returns the exp claim of the token.
func ExpiresAt(tokenStr string) (time.Time, error) {
	claims, err := ParseUnverified(tokenStr)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}

// Expired reports whether the token is past its exp claim at now, allowing for
// leeway. Undecodable tokens count as expired; tokens without exp do not.
func Expired(tokenStr string, now time.Time, leeway time.Duration) bool {
	exp, err := ExpiresAt(tokenStr)
	if errors.Is(err, ErrNoExpiry) {
		return false
	}
	if err != nil {
		return true
	}
	return !now.Add(leeway).Before(exp)
}
