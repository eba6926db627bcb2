package integration

import (
	"fmt"
	"regexp"
	"time"
)

// TestUser generates unique test user credentials using timestamp
func TestUser(suffix string) (email, password string) {
	ts := time.Now().UnixNano()
	email = fmt.Sprintf("test-%d-%s@example.com", ts, suffix)
	password = "TestPassword123"
	return
}

var (
	otpPattern       = regexp.MustCompile(`\b(\d{6})\b`)
	resetLinkPattern = regexp.MustCompile(`https?://\S+\?token=([0-9a-f]{64})`)
)

// ExtractOTPFromEmail pulls the 6-digit verification code out of an
// email body
func ExtractOTPFromEmail(emailBody string) string {
	if m := otpPattern.FindStringSubmatch(emailBody); m != nil {
		return m[1]
	}
	return ""
}

// ExtractResetTokenFromEmail pulls the reset token out of the reset-link
// email body
func ExtractResetTokenFromEmail(emailBody string) string {
	if m := resetLinkPattern.FindStringSubmatch(emailBody); m != nil {
		return m[1]
	}
	return ""
}
