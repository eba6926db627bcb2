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

// PasswordResetService orchestrates forgot-password token issuance and
// redemption.
type PasswordResetService struct {
	repo         UserRepository
	codec        *pkgauth.Codec
	tm           *auth.TokenManager
	mailer       Mailer
	logger       *slog.Logger
	auditLogger  *pkglogger.AuditLogger
	resetTTL     time.Duration
	resetURLBase string
}

// NewPasswordResetService creates a new PasswordResetService
func NewPasswordResetService(repo UserRepository, codec *pkgauth.Codec, tm *auth.TokenManager, mailer Mailer, logger *slog.Logger, auditLogger *pkglogger.AuditLogger, resetTTL time.Duration, resetURLBase string) *PasswordResetService {
	return &PasswordResetService{
		repo:         repo,
		codec:        codec,
		tm:           tm,
		mailer:       mailer,
		logger:       logger,
		auditLogger:  auditLogger,
		resetTTL:     resetTTL,
		resetURLBase: resetURLBase,
	}
}

// ForgotPassword issues a reset token for the account. Only the SHA-256
// lookup digest is persisted; the plaintext token travels exclusively in
// the emailed link. If delivery fails, the digest and expiry are rolled
// back before the error is surfaced.
func (s *PasswordResetService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to look up user for password reset", slog.Any("error", err))
		return models.ErrInternalServer
	}

	token, err := s.codec.GenerateResetToken()
	if err != nil {
		s.logger.Error("failed to generate reset token", slog.Any("error", err))
		return models.ErrInternalServer
	}

	digest := s.codec.HashResetTokenForLookup(token)
	expiresAt := time.Now().Add(s.resetTTL)

	if err := s.repo.SetResetDigest(ctx, user.ID, digest, expiresAt); err != nil {
		s.logger.Error("failed to store reset digest", slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	resetLink := fmt.Sprintf("%s/auth/new-password?token=%s", s.resetURLBase, token)

	if err := s.mailer.Send(ctx, resetMessage(user.Email, resetLink, s.resetTTL)); err != nil {
		s.logger.Error("reset email delivery failed, rolling back",
			slog.String("user_id", user.ID),
			slog.Any("error", err))

		if rbErr := s.repo.ClearResetDigest(ctx, user.ID); rbErr != nil {
			s.logger.Error("failed to roll back reset digest after delivery failure",
				slog.String("user_id", user.ID),
				slog.Any("error", rbErr))
		}

		return fmt.Errorf("%w: %s", models.ErrDeliveryFailed, "reset email")
	}

	s.logger.Info("password reset requested", slog.String("user_id", user.ID))
	s.auditLogger.LogAccountAction("password_reset_requested", user.ID)

	return nil
}

// ResetPassword redeems a reset token. On success the password is
// replaced (hashed on write), the token fields are cleared,
// password_changed_at is stamped so older session tokens go stale, and a
// fresh session token is issued.
func (s *PasswordResetService) ResetPassword(ctx context.Context, plainToken, newPassword string) (string, error) {
	if err := pkgauth.ValidatePassword(newPassword); err != nil {
		return "", err
	}

	digest := s.codec.HashResetTokenForLookup(plainToken)

	user, err := s.repo.GetByResetDigest(ctx, digest, time.Now())
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "password_reset_failed",
				FailureReason: "invalid_or_expired_token",
				Success:       false,
			})
			return "", models.ErrResetTokenInvalidOrExpired
		}
		s.logger.Error("failed to look up reset digest", slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	if err := s.repo.ReplacePassword(ctx, user.ID, newPassword); err != nil {
		s.logger.Error("failed to replace password", slog.String("user_id", user.ID), slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	token, err := s.tm.Issue(user.ID)
	if err != nil {
		s.logger.Error("failed to issue session token", slog.String("user_id", user.ID), slog.Any("error", err))
		return "", models.ErrInternalServer
	}

	s.logger.Info("password reset completed", slog.String("user_id", user.ID))
	s.auditLogger.LogPasswordChange(user.ID, true)

	return token, nil
}
