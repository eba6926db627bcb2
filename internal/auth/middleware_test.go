package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-chat/identity/internal/models"
)

type mockUserRepo struct {
	GetByIDWithSecretsFunc func(ctx context.Context, id string) (*models.User, error)
}

func (m *mockUserRepo) GetByIDWithSecrets(ctx context.Context, id string) (*models.User, error) {
	return m.GetByIDWithSecretsFunc(ctx, id)
}

func protectedEcho(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r)
		require.NotNil(t, user)
		w.Header().Set("X-User-ID", user.ID)
		w.WriteHeader(http.StatusOK)
	})
}

func TestProtect_MissingToken(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)
	repo := &mockUserRepo{
		GetByIDWithSecretsFunc: func(ctx context.Context, id string) (*models.User, error) {
			t.Fatal("repository should not be consulted without a token")
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rr := httptest.NewRecorder()

	Protect(tm, repo)(protectedEcho(t)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestProtect_InvalidToken(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)
	repo := &mockUserRepo{}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rr := httptest.NewRecorder()

	Protect(tm, repo)(protectedEcho(t)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestProtect_BearerToken_Success(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)
	repo := &mockUserRepo{
		GetByIDWithSecretsFunc: func(ctx context.Context, id string) (*models.User, error) {
			assert.Equal(t, "user123", id)
			return &models.User{ID: id, Email: "leslie@example.com", Verified: true}, nil
		},
	}

	token, err := tm.Issue("user123")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	Protect(tm, repo)(protectedEcho(t)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "user123", rr.Header().Get("X-User-ID"))
}

func TestProtect_SessionCookie_Success(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)
	repo := &mockUserRepo{
		GetByIDWithSecretsFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, Email: "leslie@example.com", Verified: true}, nil
		},
	}

	token, err := tm.Issue("user456")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	rr := httptest.NewRecorder()

	Protect(tm, repo)(protectedEcho(t)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "user456", rr.Header().Get("X-User-ID"))
}

func TestProtect_UnknownUser(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)
	repo := &mockUserRepo{
		GetByIDWithSecretsFunc: func(ctx context.Context, id string) (*models.User, error) {
			return nil, models.ErrNotFound
		},
	}

	token, err := tm.Issue("ghost")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	Protect(tm, repo)(protectedEcho(t)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestProtect_StaleToken_AfterPasswordChange(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)
	changedAt := time.Now().Add(time.Minute)
	repo := &mockUserRepo{
		GetByIDWithSecretsFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{
				ID:                id,
				Email:             "leslie@example.com",
				Verified:          true,
				PasswordChangedAt: &changedAt,
			}, nil
		},
	}

	token, err := tm.Issue("user123")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	Protect(tm, repo)(protectedEcho(t)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestProtect_TokenIssuedAfterPasswordChange(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)
	changedAt := time.Now().Add(-time.Hour)
	repo := &mockUserRepo{
		GetByIDWithSecretsFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{
				ID:                id,
				Email:             "leslie@example.com",
				Verified:          true,
				PasswordChangedAt: &changedAt,
			}, nil
		},
	}

	token, err := tm.Issue("user123")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	Protect(tm, repo)(protectedEcho(t)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestProtect_PasswordChangeSameSecond_TokenAccepted(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)

	token, err := tm.Issue("user123")
	require.NoError(t, err)

	// A change landing in the same wall-clock second as the token's iat
	// must not reject it: iat only carries second precision, and the token
	// minted by the password-change response itself falls in that second.
	claims, err := tm.Validate(token)
	require.NoError(t, err)
	changedAt := claims.IssuedAt.Time.Add(500 * time.Millisecond)
	repo := &mockUserRepo{
		GetByIDWithSecretsFunc: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{
				ID:                id,
				Email:             "leslie@example.com",
				Verified:          true,
				PasswordChangedAt: &changedAt,
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()

	Protect(tm, repo)(protectedEcho(t)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestExtractToken_MalformedAuthHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Basic abc123")
	assert.Empty(t, extractToken(req))
}
