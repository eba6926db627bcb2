package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	// Set required env vars
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	tests := []struct {
		name     string
		actual   time.Duration
		expected time.Duration
	}{
		{"ReadTimeout", cfg.Server.ReadTimeout, 15 * time.Second},
		{"WriteTimeout", cfg.Server.WriteTimeout, 15 * time.Second},
		{"IdleTimeout", cfg.Server.IdleTimeout, 60 * time.Second},
		{"SessionTokenTTL", cfg.Auth.SessionTokenTTL, 30 * 24 * time.Hour},
		{"OTPTTL", cfg.Auth.OTPTTL, 10 * time.Minute},
		{"ResetTokenTTL", cfg.Auth.ResetTokenTTL, 10 * time.Minute},
		{"EmailSendTimeout", cfg.Email.SendTimeout, 10 * time.Second},
	}

	for _, tt := range tests {
		if tt.actual != tt.expected {
			t.Errorf("%s: got %v, want %v", tt.name, tt.actual, tt.expected)
		}
	}

	if cfg.Auth.BcryptCost != 12 {
		t.Errorf("BcryptCost: got %d, want 12", cfg.Auth.BcryptCost)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("OTP_TTL", "5m")
	os.Setenv("RESET_TOKEN_TTL", "20m")
	os.Setenv("BCRYPT_COST", "10")
	os.Setenv("EMAIL_SEND_TIMEOUT", "3s")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Auth.OTPTTL != 5*time.Minute {
		t.Errorf("OTPTTL: got %v, want 5m", cfg.Auth.OTPTTL)
	}
	if cfg.Auth.ResetTokenTTL != 20*time.Minute {
		t.Errorf("ResetTokenTTL: got %v, want 20m", cfg.Auth.ResetTokenTTL)
	}
	if cfg.Auth.BcryptCost != 10 {
		t.Errorf("BcryptCost: got %d, want 10", cfg.Auth.BcryptCost)
	}
	if cfg.Email.SendTimeout != 3*time.Second {
		t.Errorf("SendTimeout: got %v, want 3s", cfg.Email.SendTimeout)
	}
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	os.Clearenv()
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error for missing JWT_SECRET")
	}
}

func TestLoad_WeakJWTSecret(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_SECRET", "short")
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error for weak JWT_SECRET")
	}
}

func TestLoad_ProductionRequiresLongerSecret(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_SECRET", "sixteen-chars-ok")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("ENV", "production")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil, want error: 16-char secret too short for production")
	}
}
