package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-chat/identity/internal/models"
)

const testSecret = "test-secret-32-characters-long!"

func TestTokenManager_IssueAndValidate(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)

	token, err := tm.Issue("user123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user123", claims.UserID)
	require.NotNil(t, claims.IssuedAt)
	assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, 5*time.Second)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenManager_Validate_WrongSecret(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)
	other := NewTokenManager("another-secret-32-characters-ok!", time.Hour)

	token, err := tm.Issue("user123")
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.ErrorIs(t, err, models.ErrNotAuthenticated)
}

func TestTokenManager_Validate_Malformed(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)

	for _, tokenString := range []string{"", "garbage", "a.b.c"} {
		_, err := tm.Validate(tokenString)
		assert.ErrorIs(t, err, models.ErrNotAuthenticated)
	}
}

func TestTokenManager_Validate_Expired(t *testing.T) {
	tm := NewTokenManager(testSecret, -time.Minute)

	token, err := tm.Issue("user123")
	require.NoError(t, err)

	_, err = tm.Validate(token)
	assert.ErrorIs(t, err, models.ErrNotAuthenticated)
}

func TestTokenManager_Validate_RejectsUnsignedAlg(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)

	claims := &SessionClaims{
		UserID: "user123",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	tokenString, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = tm.Validate(tokenString)
	assert.ErrorIs(t, err, models.ErrNotAuthenticated)
}

func TestTokenManager_Validate_MissingUserID(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)

	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = tm.Validate(tokenString)
	assert.ErrorIs(t, err, models.ErrNotAuthenticated)
}
