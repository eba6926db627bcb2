package handlers

import (
	"context"

	"github.com/parley-chat/identity/internal/models"
	"github.com/parley-chat/identity/internal/services"
)

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	RegisterFunc  func(ctx context.Context, params services.RegisterParams) (string, error)
	ResendOTPFunc func(ctx context.Context, email string) error
	VerifyOTPFunc func(ctx context.Context, email, candidate string) (string, error)
	LoginFunc     func(ctx context.Context, email, password string) (string, error)
}

func (m *MockAuthService) Register(ctx context.Context, params services.RegisterParams) (string, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, params)
	}
	return "", models.ErrInternalServer
}

func (m *MockAuthService) ResendOTP(ctx context.Context, email string) error {
	if m.ResendOTPFunc != nil {
		return m.ResendOTPFunc(ctx, email)
	}
	return models.ErrInternalServer
}

func (m *MockAuthService) VerifyOTP(ctx context.Context, email, candidate string) (string, error) {
	if m.VerifyOTPFunc != nil {
		return m.VerifyOTPFunc(ctx, email, candidate)
	}
	return "", models.ErrInternalServer
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (string, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return "", models.ErrInternalServer
}

// MockPasswordResetService implements PasswordResetServiceInterface for testing
type MockPasswordResetService struct {
	ForgotPasswordFunc func(ctx context.Context, email string) error
	ResetPasswordFunc  func(ctx context.Context, plainToken, newPassword string) (string, error)
}

func (m *MockPasswordResetService) ForgotPassword(ctx context.Context, email string) error {
	if m.ForgotPasswordFunc != nil {
		return m.ForgotPasswordFunc(ctx, email)
	}
	return models.ErrInternalServer
}

func (m *MockPasswordResetService) ResetPassword(ctx context.Context, plainToken, newPassword string) (string, error) {
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(ctx, plainToken, newPassword)
	}
	return "", models.ErrInternalServer
}

// MockProfileRepository implements ProfileRepository for testing
type MockProfileRepository struct {
	UpdateProfileFunc func(ctx context.Context, id string, user *models.User) (*models.User, error)
}

func (m *MockProfileRepository) UpdateProfile(ctx context.Context, id string, user *models.User) (*models.User, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, id, user)
	}
	return nil, models.ErrInternalServer
}
