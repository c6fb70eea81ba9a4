package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tally/internal/core"
)

// TokenManager issues and verifies fixed-lifetime session tokens for the
// HTTP edge. The services layer never sees tokens, only core.UserID;
// there is no revocation list and concurrent logins each mint an
// independent token.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenManager creates a manager with the provided secret and lifetime.
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}
}

// Generate issues a signed HS256 token for the given identity.
func (t *TokenManager) Generate(userID core.UserID, username string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":      t.issuer,
		"sub":      string(userID),
		"username": username,
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"exp":      now.Add(t.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify parses and validates a token string and returns the identity it
// carries. Expired or tampered tokens fail with core.ErrAuth.
func (t *TokenManager) Verify(tokenString string) (core.UserID, error) {
	token, err := jwt.Parse(tokenString, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithIssuer(t.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrAuth, err)
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("%w: token has no subject", core.ErrAuth)
	}
	return core.UserID(sub), nil
}
