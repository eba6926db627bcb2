package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-chat/identity/internal/auth"
	"github.com/parley-chat/identity/internal/models"
)

func requestWithUser(method, target string, body []byte, user *models.User) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	ctx := context.WithValue(req.Context(), auth.UserContextKey, user)
	return req.WithContext(ctx)
}

func testUser() *models.User {
	now := time.Now()
	return &models.User{
		ID:           "user123",
		Email:        "jane@example.com",
		FirstName:    "Jane",
		LastName:     "Doe",
		Verified:     true,
		PasswordHash: "$2a$12$secret",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestUserHandler_Me(t *testing.T) {
	h := NewUserHandler(&MockProfileRepository{})

	rec := httptest.NewRecorder()
	h.Me(rec, requestWithUser(http.MethodGet, "/me", nil, testUser()))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "user123", resp.ID)
	assert.Equal(t, "jane@example.com", resp.Email)

	// Credential material never leaks into the response body
	assert.NotContains(t, rec.Body.String(), "secret")
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestUserHandler_Me_NoUserInContext(t *testing.T) {
	h := NewUserHandler(&MockProfileRepository{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	h.Me(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserHandler_UpdateMe_MergesProvidedFields(t *testing.T) {
	var gotUpdate *models.User

	repo := &MockProfileRepository{
		UpdateProfileFunc: func(ctx context.Context, id string, user *models.User) (*models.User, error) {
			gotUpdate = user
			return user, nil
		},
	}

	h := NewUserHandler(repo)

	body, _ := json.Marshal(map[string]string{"about": "Hello there"})
	rec := httptest.NewRecorder()
	h.UpdateMe(rec, requestWithUser(http.MethodPatch, "/me", body, testUser()))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotUpdate)
	assert.Equal(t, "Hello there", gotUpdate.About)
	// Untouched fields keep their current values
	assert.Equal(t, "Jane", gotUpdate.FirstName)
	assert.Equal(t, "Doe", gotUpdate.LastName)
}

func TestUserHandler_UpdateMe_RejectsInvalidAvatarURL(t *testing.T) {
	called := false
	repo := &MockProfileRepository{
		UpdateProfileFunc: func(ctx context.Context, id string, user *models.User) (*models.User, error) {
			called = true
			return user, nil
		},
	}

	h := NewUserHandler(repo)

	body, _ := json.Marshal(map[string]string{"avatar": "not-a-url"})
	rec := httptest.NewRecorder()
	h.UpdateMe(rec, requestWithUser(http.MethodPatch, "/me", body, testUser()))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, called)
}
