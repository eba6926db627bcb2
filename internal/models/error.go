package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Credential lifecycle errors
	ErrEmailInUse                 = errors.New("email already in use")
	ErrOTPInvalidOrExpired        = errors.New("otp is invalid or expired")
	ErrOTPIncorrect               = errors.New("incorrect otp")
	ErrInvalidCredentials         = errors.New("incorrect email or password")
	ErrResetTokenInvalidOrExpired = errors.New("reset token is invalid or expired")
	ErrNotAuthenticated           = errors.New("not authenticated")
	ErrStaleCredentials           = errors.New("token issued before last password change")
	ErrDeliveryFailed             = errors.New("notification delivery failed")
)
