package services

import (
	"context"
	"time"

	"github.com/parley-chat/identity/internal/models"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByEmailFunc             func(ctx context.Context, email string) (*models.User, error)
	GetByEmailWithSecretsFunc  func(ctx context.Context, email string) (*models.User, error)
	GetByEmailWithValidOTPFunc func(ctx context.Context, email string, now time.Time) (*models.User, error)
	GetByResetDigestFunc       func(ctx context.Context, digest string, now time.Time) (*models.User, error)
	CreatePendingFunc          func(ctx context.Context, user *models.User, plainPassword string) (*models.User, error)
	UpdatePendingFunc          func(ctx context.Context, id string, user *models.User, plainPassword string) (*models.User, error)
	UpdateProfileFunc          func(ctx context.Context, id string, user *models.User) (*models.User, error)
	SetOTPFunc                 func(ctx context.Context, id, plainOTP string, expiresAt time.Time) error
	ClearOTPFunc               func(ctx context.Context, id string) error
	MarkVerifiedFunc           func(ctx context.Context, id string) error
	SetResetDigestFunc         func(ctx context.Context, id, digest string, expiresAt time.Time) error
	ClearResetDigestFunc       func(ctx context.Context, id string) error
	ReplacePasswordFunc        func(ctx context.Context, id, plainPassword string) error
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmailWithSecrets(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailWithSecretsFunc != nil {
		return m.GetByEmailWithSecretsFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmailWithValidOTP(ctx context.Context, email string, now time.Time) (*models.User, error) {
	if m.GetByEmailWithValidOTPFunc != nil {
		return m.GetByEmailWithValidOTPFunc(ctx, email, now)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByResetDigest(ctx context.Context, digest string, now time.Time) (*models.User, error) {
	if m.GetByResetDigestFunc != nil {
		return m.GetByResetDigestFunc(ctx, digest, now)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) CreatePending(ctx context.Context, user *models.User, plainPassword string) (*models.User, error) {
	if m.CreatePendingFunc != nil {
		return m.CreatePendingFunc(ctx, user, plainPassword)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) UpdatePending(ctx context.Context, id string, user *models.User, plainPassword string) (*models.User, error) {
	if m.UpdatePendingFunc != nil {
		return m.UpdatePendingFunc(ctx, id, user, plainPassword)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id string, user *models.User) (*models.User, error) {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, id, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) SetOTP(ctx context.Context, id, plainOTP string, expiresAt time.Time) error {
	if m.SetOTPFunc != nil {
		return m.SetOTPFunc(ctx, id, plainOTP, expiresAt)
	}
	return nil
}

func (m *MockUserRepository) ClearOTP(ctx context.Context, id string) error {
	if m.ClearOTPFunc != nil {
		return m.ClearOTPFunc(ctx, id)
	}
	return nil
}

func (m *MockUserRepository) MarkVerified(ctx context.Context, id string) error {
	if m.MarkVerifiedFunc != nil {
		return m.MarkVerifiedFunc(ctx, id)
	}
	return nil
}

func (m *MockUserRepository) SetResetDigest(ctx context.Context, id, digest string, expiresAt time.Time) error {
	if m.SetResetDigestFunc != nil {
		return m.SetResetDigestFunc(ctx, id, digest, expiresAt)
	}
	return nil
}

func (m *MockUserRepository) ClearResetDigest(ctx context.Context, id string) error {
	if m.ClearResetDigestFunc != nil {
		return m.ClearResetDigestFunc(ctx, id)
	}
	return nil
}

func (m *MockUserRepository) ReplacePassword(ctx context.Context, id, plainPassword string) error {
	if m.ReplacePasswordFunc != nil {
		return m.ReplacePasswordFunc(ctx, id, plainPassword)
	}
	return nil
}

// MockMailer implements Mailer for testing
type MockMailer struct {
	SendFunc func(ctx context.Context, msg Message) error
	Sent     []Message
}

func (m *MockMailer) Send(ctx context.Context, msg Message) error {
	if m.SendFunc != nil {
		if err := m.SendFunc(ctx, msg); err != nil {
			return err
		}
	}
	m.Sent = append(m.Sent, msg)
	return nil
}

// NewTestUser builds a user with sensible defaults for tests
func NewTestUser(id, email string, verified bool) *models.User {
	now := time.Now()
	return &models.User{
		ID:        id,
		Email:     email,
		FirstName: "Test",
		LastName:  "User",
		Verified:  verified,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
