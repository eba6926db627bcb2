package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/parley-chat/identity/internal/models"
)

// SessionClaims is the payload of a session token: a user identity bound
// to an issue time. Staleness against password changes is checked by the
// route guard, not here.
type SessionClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenManager mints and validates signed session tokens. The signature
// prevents tampering, not confidentiality; there is no server-side
// revocation list.
type TokenManager struct {
	secret string
	ttl    time.Duration
}

// NewTokenManager creates a new TokenManager
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: secret,
		ttl:    ttl,
	}
}

// Issue creates a session token for the given user.
func (tm *TokenManager) Issue(userID string) (string, error) {
	now := time.Now()

	claims := &SessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(tm.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return tokenString, nil
}

// Validate verifies a token's signature and structure and returns its
// claims. All failure modes collapse to models.ErrNotAuthenticated.
func (tm *TokenManager) Validate(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tm.secret), nil
	})

	if err != nil || !token.Valid {
		return nil, models.ErrNotAuthenticated
	}

	if claims.UserID == "" || claims.IssuedAt == nil {
		return nil, models.ErrNotAuthenticated
	}

	return claims, nil
}
