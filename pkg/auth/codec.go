package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultBcryptCost    = 12
	OTPDigits            = 6
	ResetTokenByteLength = 32 // 256 bits, 64 hex characters on the wire
)

// Codec generates and verifies the secrets in the credential lifecycle:
// passwords and OTPs (slow bcrypt hashes) and password-reset tokens
// (fast SHA-256 lookup digests).
type Codec struct {
	cost int
}

// NewCodec returns a Codec with the given bcrypt cost. Costs outside the
// range bcrypt accepts fall back to DefaultBcryptCost.
func NewCodec(cost int) *Codec {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &Codec{cost: cost}
}

// HashSecret hashes a plaintext password or OTP for storage.
func (c *Codec) HashSecret(plaintext string) (string, error) {
	if plaintext == "" {
		return "", fmt.Errorf("secret cannot be empty")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plaintext), c.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(hashedBytes), nil
}

// VerifySecret reports whether candidate matches the stored bcrypt hash.
func (c *Codec) VerifySecret(candidate, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}

// GenerateOTP returns a 6-digit numeric code drawn uniformly from
// crypto/rand. Leading zeros are preserved.
func (c *Codec) GenerateOTP() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < OTPDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", OTPDigits, n), nil
}

// GenerateResetToken returns a hex-encoded 32-byte random token. The
// plaintext goes into the emailed reset link; only its digest is stored.
func (c *Codec) GenerateResetToken() (string, error) {
	bytes := make([]byte, ResetTokenByteLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// HashResetTokenForLookup computes the SHA-256 lookup digest of a reset
// token. Reset tokens are found by equality against the stored digest, so
// this is deliberately a fast unkeyed hash rather than bcrypt.
func (c *Codec) HashResetTokenForLookup(token string) string {
	digest := sha256.Sum256([]byte(token))
	return hex.EncodeToString(digest[:])
}
