package models

import (
	"time"
)

type User struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	About     string
	Avatar    string
	Verified  bool
	CreatedAt time.Time
	UpdatedAt time.Time

	// Secret fields. Populated only by repository queries that explicitly
	// opt in; default reads leave them zero-valued.
	PasswordHash         string
	OTPHash              string
	OTPExpiresAt         *time.Time
	PasswordResetDigest  string
	PasswordResetExpires *time.Time
	PasswordChangedAt    *time.Time
}

// HasValidOTP reports whether an OTP is outstanding and not yet expired.
func (u *User) HasValidOTP(now time.Time) bool {
	return u.OTPHash != "" && u.OTPExpiresAt != nil && u.OTPExpiresAt.After(now)
}

// HasValidResetToken reports whether a reset-token digest is outstanding and
// not yet expired.
func (u *User) HasValidResetToken(now time.Time) bool {
	return u.PasswordResetDigest != "" && u.PasswordResetExpires != nil && u.PasswordResetExpires.After(now)
}
