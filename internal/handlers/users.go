package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/parley-chat/identity/internal/auth"
	"github.com/parley-chat/identity/internal/models"
	pkghttp "github.com/parley-chat/identity/pkg/http"
)

// ProfileRepository is the slice of the credential store the profile
// endpoints need.
type ProfileRepository interface {
	UpdateProfile(ctx context.Context, id string, user *models.User) (*models.User, error)
}

// UserHandler serves the authenticated user's own profile
type UserHandler struct {
	repo ProfileRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(repo ProfileRepository) *UserHandler {
	return &UserHandler{repo: repo}
}

// UserResponse represents a user in the HTTP response. Credential fields
// never appear here.
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	About     string `json:"about,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	Verified  bool   `json:"verified"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// UpdateProfileRequest represents the request body for a profile update.
// Only these fields can be changed here; credential and status fields are
// not accepted.
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,min=1"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,min=1"`
	About     *string `json:"about,omitempty" validate:"omitempty,max=500"`
	Avatar    *string `json:"avatar,omitempty" validate:"omitempty,url"`
}

// Me returns the authenticated user's profile
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromContext(r)
	if user == nil {
		pkghttp.WriteUnauthorized(w, "You are not logged in")
		return
	}

	writeJSON(w, http.StatusOK, userModelToResponse(user))
}

// UpdateMe updates the authenticated user's profile fields
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromContext(r)
	if user == nil {
		pkghttp.WriteUnauthorized(w, "You are not logged in")
		return
	}

	var req UpdateProfileRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	// Merge provided fields over the current profile
	updated := *user
	if req.FirstName != nil {
		updated.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		updated.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.About != nil {
		updated.About = strings.TrimSpace(*req.About)
	}
	if req.Avatar != nil {
		updated.Avatar = strings.TrimSpace(*req.Avatar)
	}

	result, err := h.repo.UpdateProfile(r.Context(), user.ID, &updated)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, userModelToResponse(result))
}

func userModelToResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		About:     user.About,
		Avatar:    user.Avatar,
		Verified:  user.Verified,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
}
