package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/parley-chat/identity/internal/auth"
	"github.com/parley-chat/identity/internal/models"
	"github.com/parley-chat/identity/internal/services"
	pkghttp "github.com/parley-chat/identity/pkg/http"
)

// AuthServiceInterface defines the interface for the registration and
// login workflow.
type AuthServiceInterface interface {
	Register(ctx context.Context, params services.RegisterParams) (string, error)
	ResendOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, candidate string) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
}

// PasswordResetServiceInterface defines the interface for the password
// reset workflow.
type PasswordResetServiceInterface interface {
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, plainToken, newPassword string) (string, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service      AuthServiceInterface
	resetService PasswordResetServiceInterface
	cookieConfig auth.CookieConfig
	cookieMaxAge int
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, resetService PasswordResetServiceInterface, cookieConfig auth.CookieConfig, cookieMaxAge int) *AuthHandler {
	return &AuthHandler{
		service:      service,
		resetService: resetService,
		cookieConfig: cookieConfig,
		cookieMaxAge: cookieMaxAge,
	}
}

// Request DTOs

// RegisterRequest represents the request body for registration
type RegisterRequest struct {
	FirstName string `json:"first_name" validate:"required,min=1"`
	LastName  string `json:"last_name" validate:"required,min=1"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
}

// SendOTPRequest represents the request body for re-sending an OTP
type SendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyOTPRequest represents the request body for OTP verification
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ForgotPasswordRequest represents the request body for a reset request
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest represents the request body for redeeming a reset token
type ResetPasswordRequest struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// TokenResponse carries an issued session token
type TokenResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// MessageResponse is a plain acknowledgement
type MessageResponse struct {
	Message string `json:"message"`
}

// Register handles user registration. OTP issuance is chained: a 200
// means a fresh OTP was persisted and delivered.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)

	_, err := h.service.Register(r.Context(), services.RegisterParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrEmailInUse):
			pkghttp.WriteBadRequest(w, "This email is already in use")
		case errors.Is(err, models.ErrDeliveryFailed):
			pkghttp.WriteInternalError(w, "Could not send verification email")
		case isPasswordValidationError(err):
			pkghttp.WriteBadRequest(w, err.Error())
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "OTP sent successfully"})
}

// SendOTP re-issues an OTP for a pending registration
func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req SendOTPRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := h.service.ResendOTP(r.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteBadRequest(w, "No pending registration for this email")
		case errors.Is(err, models.ErrDeliveryFailed):
			pkghttp.WriteInternalError(w, "Could not send verification email")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "OTP sent successfully"})
}

// VerifyOTP confirms email ownership and issues the first session token
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	token, err := h.service.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrOTPInvalidOrExpired):
			pkghttp.WriteBadRequest(w, "OTP is invalid or expired")
		case errors.Is(err, models.ErrOTPIncorrect):
			pkghttp.WriteBadRequest(w, "Incorrect OTP")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	auth.SetSessionCookie(w, token, h.cookieMaxAge, h.cookieConfig)
	writeJSON(w, http.StatusOK, TokenResponse{Message: "OTP verified successfully", Token: token})
}

// Login handles password login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, "Both email and password are required")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidCredentials):
			pkghttp.WriteBadRequest(w, "Incorrect email or password")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Both email and password are required")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	auth.SetSessionCookie(w, token, h.cookieMaxAge, h.cookieConfig)
	writeJSON(w, http.StatusOK, TokenResponse{Message: "Logged in successfully", Token: token})
}

// ForgotPassword issues an emailed reset link
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := h.resetService.ForgotPassword(r.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteBadRequest(w, "There is no user with this email address")
		case errors.Is(err, models.ErrDeliveryFailed):
			pkghttp.WriteInternalError(w, "Could not send reset email")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Reset link sent to your email"})
}

// ResetPassword redeems a reset token and issues a fresh session token
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	token, err := h.resetService.ResetPassword(r.Context(), req.Token, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrResetTokenInvalidOrExpired):
			pkghttp.WriteBadRequest(w, "Reset token is invalid or has expired")
		case isPasswordValidationError(err):
			pkghttp.WriteBadRequest(w, err.Error())
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	auth.SetSessionCookie(w, token, h.cookieMaxAge, h.cookieConfig)
	writeJSON(w, http.StatusOK, TokenResponse{Message: "Password reset successfully", Token: token})
}

// Logout removes the session cookie. Session tokens are stateless, so a
// bearer copy the client kept stays valid until it expires; logout only
// ends the cookie-based session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.cookieConfig)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
