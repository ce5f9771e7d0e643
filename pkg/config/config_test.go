package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "5000")
	t.Setenv("OTP_TTL", "10m")

	cfg := Load()

	assert.Equal(t, ":5000", cfg.Addr())
	assert.Equal(t, 10*time.Minute, cfg.Auth.OTPTTL)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8088")
	t.Setenv("STORAGE_DRIVER", "POSTGRES")
	t.Setenv("OTP_MAX_ATTEMPTS", "3")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("EMAIL_DEV_MODE", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://vedx.com, https://admin.vedx.com ,")

	cfg := Load()

	assert.Equal(t, ":8088", cfg.Addr())
	assert.Equal(t, StoragePostgres, cfg.Storage.Driver)
	assert.Equal(t, 3, cfg.Auth.OTPMaxAttempts)
	assert.Equal(t, 2*time.Hour, cfg.Auth.SessionTTL)
	assert.False(t, cfg.Email.DevMode)
	assert.Equal(t, []string{"https://vedx.com", "https://admin.vedx.com"}, cfg.Server.AllowedOrigins)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("OTP_MAX_ATTEMPTS", "many")
	t.Setenv("OTP_TTL", "soon")

	cfg := Load()

	assert.Equal(t, 5, cfg.Auth.OTPMaxAttempts)
	assert.Equal(t, 10*time.Minute, cfg.Auth.OTPTTL)
}
