package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/parley-chat/identity/internal/auth"
	"github.com/parley-chat/identity/internal/models"
	pkgauth "github.com/parley-chat/identity/pkg/auth"
	pkglogger "github.com/parley-chat/identity/pkg/logger"
)

// UserRepository defines the credential-store contract the workflows
// depend on. Methods taking plaintext secrets hash them before writing.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByEmailWithSecrets(ctx context.Context, email string) (*models.User, error)
	GetByEmailWithValidOTP(ctx context.Context, email string, now time.Time) (*models.User, error)
	GetByResetDigest(ctx context.Context, digest string, now time.Time) (*models.User, error)
	CreatePending(ctx context.Context, user *models.User, plainPassword string) (*models.User, error)
	UpdatePending(ctx context.Context, id string, user *models.User, plainPassword string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, user *models.User) (*models.User, error)
	SetOTP(ctx context.Context, id, plainOTP string, expiresAt time.Time) error
	ClearOTP(ctx context.Context, id string) error
	MarkVerified(ctx context.Context, id string) error
	SetResetDigest(ctx context.Context, id, digest string, expiresAt time.Time) error
	ClearResetDigest(ctx context.Context, id string) error
	ReplacePassword(ctx context.Context, id, plainPassword string) error
}

// AuthService orchestrates registration, OTP issuance/verification and
// password login.
type AuthService struct {
	repo        UserRepository
	codec       *pkgauth.Codec
	tm          *auth.TokenManager
	mailer      Mailer
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	otpTTL      time.Duration
}

// NewAuthService creates a new AuthService
func NewAuthService(repo UserRepository, codec *pkgauth.Codec, tm *auth.TokenManager, mailer Mailer, logger *slog.Logger, auditLogger *pkglogger.AuditLogger, otpTTL time.Duration) *AuthService {
	return &AuthService{
		repo:        repo,
		codec:       codec,
		tm:          tm,
		mailer:      mailer,
		logger:      logger,
		auditLogger: auditLogger,
		otpTTL:      otpTTL,
	}
}

// RegisterParams are the inputs to a registration attempt. Email arrives
// already lowercased and trimmed from the handler.
type RegisterParams struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Register creates or refreshes a pending user and chains straight into
// OTP issuance, so every registration attempt leaves exactly one fresh
// OTP outstanding.
//
// Branches: a verified user with this email fails with ErrEmailInUse and
// causes no mutation; an unverified user has profile and password
// overwritten in place; an unseen email creates a new pending record.
func (s *AuthService) Register(ctx context.Context, params RegisterParams) (string, error) {
	if err := pkgauth.ValidatePassword(params.Password); err != nil {
		return "", err
	}

	var userID string

	existing, err := s.repo.GetByEmail(ctx, params.Email)
	switch {
	case err == nil && existing.Verified:
		s.logger.Info("registration rejected: email already verified",
			slog.String("email", pkglogger.SanitizedEmail(params.Email)))
		return "", models.ErrEmailInUse

	case err == nil:
		updated, err := s.repo.UpdatePending(ctx, existing.ID, &models.User{
			FirstName: params.FirstName,
			LastName:  params.LastName,
		}, params.Password)
		if err != nil {
			s.logger.Error("failed to update pending user", slog.Any("error", err))
			return "", models.ErrInternalServer
		}
		userID = updated.ID

	case errors.Is(err, models.ErrNotFound):
		created, err := s.repo.CreatePending(ctx, &models.User{
			Email:     params.Email,
			FirstName: params.FirstName,
			LastName:  params.LastName,
		}, params.Password)
		if err != nil {
			// Lost the unique-index race against a concurrent registration.
			if errors.Is(err, models.ErrConflict) {
				return "", models.ErrEmailInUse
			}
			s.logger.Error("failed to create pending user", slog.Any("error", err))
			return "", models.ErrInternalServer
		}
		userID = created.ID
		s.auditLogger.LogAccountAction("user_registered", userID)

	default:
		s.logger.Error("failed to check for existing user", slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	if err := s.IssueOTP(ctx, userID, params.Email); err != nil {
		return "", err
	}

	return userID, nil
}

// IssueOTP generates a fresh OTP, persists its hash and expiry, then
// attempts delivery. If delivery fails or times out, the OTP fields are
// rolled back before the error is surfaced: an OTP must never stay active
// when the user was never notified of it.
func (s *AuthService) IssueOTP(ctx context.Context, userID, email string) error {
	otp, err := s.codec.GenerateOTP()
	if err != nil {
		s.logger.Error("failed to generate otp", slog.Any("error", err))
		return models.ErrInternalServer
	}

	expiresAt := time.Now().Add(s.otpTTL)

	if err := s.repo.SetOTP(ctx, userID, otp, expiresAt); err != nil {
		s.logger.Error("failed to store otp", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.mailer.Send(ctx, otpMessage(email, otp, s.otpTTL)); err != nil {
		s.logger.Error("otp delivery failed, rolling back",
			slog.String("user_id", userID),
			slog.Any("error", err))

		if rbErr := s.repo.ClearOTP(ctx, userID); rbErr != nil {
			s.logger.Error("failed to roll back otp after delivery failure",
				slog.String("user_id", userID),
				slog.Any("error", rbErr))
		}

		return fmt.Errorf("%w: %s", models.ErrDeliveryFailed, "otp email")
	}

	s.logger.Info("otp issued", slog.String("user_id", userID))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "otp_issued",
		UserID:    userID,
		Success:   true,
	})

	return nil
}

// ResendOTP re-issues an OTP for a pending registration. Verified accounts
// have nothing to verify and are treated as not found.
func (s *AuthService) ResendOTP(ctx context.Context, email string) error {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to look up user for otp resend", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if user.Verified {
		return models.ErrNotFound
	}

	return s.IssueOTP(ctx, user.ID, user.Email)
}

// VerifyOTP checks a candidate code against the outstanding OTP for the
// email. On success the account becomes verified, the OTP is cleared and
// a session token is issued.
func (s *AuthService) VerifyOTP(ctx context.Context, email, candidate string) (string, error) {
	user, err := s.repo.GetByEmailWithValidOTP(ctx, email, time.Now())
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "otp_verify_failed",
				Email:         pkglogger.SanitizedEmail(email),
				FailureReason: "invalid_or_expired",
				Success:       false,
			})
			return "", models.ErrOTPInvalidOrExpired
		}
		s.logger.Error("failed to look up user for otp verification", slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	if !s.codec.VerifySecret(candidate, user.OTPHash) {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "otp_verify_failed",
			UserID:        user.ID,
			FailureReason: "incorrect_code",
			Success:       false,
		})
		return "", models.ErrOTPIncorrect
	}

	if err := s.repo.MarkVerified(ctx, user.ID); err != nil {
		s.logger.Error("failed to mark user verified", slog.String("user_id", user.ID), slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	token, err := s.tm.Issue(user.ID)
	if err != nil {
		s.logger.Error("failed to issue session token", slog.String("user_id", user.ID), slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	s.logger.Info("user verified", slog.String("user_id", user.ID))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "otp_verified",
		UserID:    user.ID,
		Success:   true,
	})

	return token, nil
}

// Login authenticates email+password and issues a session token. Unknown
// email and wrong password produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", models.ErrBadRequest
	}

	user, err := s.repo.GetByEmailWithSecrets(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "login_failed",
				Email:         pkglogger.SanitizedEmail(email),
				FailureReason: "invalid_credentials",
				Success:       false,
			})
			return "", models.ErrInvalidCredentials
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	if user.PasswordHash == "" || !s.codec.VerifySecret(password, user.PasswordHash) {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			FailureReason: "invalid_credentials",
			Success:       false,
		})
		return "", models.ErrInvalidCredentials
	}

	token, err := s.tm.Issue(user.ID)
	if err != nil {
		s.logger.Error("failed to issue session token", slog.String("user_id", user.ID), slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    user.ID,
		Success:   true,
	})

	return token, nil
}
