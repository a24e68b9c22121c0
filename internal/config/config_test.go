package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/abaya")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("CORS_ORIGIN", "http://localhost:3000")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.Addr)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Equal(t, "PKR", cfg.Currency)
	assert.Equal(t, "uploads", cfg.UploadDir)
	assert.Equal(t, 5*1024*1024, cfg.MaxUploadBytes)
	assert.Equal(t, "log", cfg.MailProvider)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ADDR", ":9090")
	t.Setenv("JWT_TTL", "30m")
	t.Setenv("CURRENCY", "usd")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 30*time.Minute, cfg.JWTTTL)
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, 1024, cfg.MaxUploadBytes)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("CORS_ORIGIN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "CORS_ORIGIN")
}

func TestValidate_ShortSecret(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "short")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least")
}

func TestValidate_MailProviderNeedsKey(t *testing.T) {
	setRequired(t)
	t.Setenv("MAIL_PROVIDER", "postmark")
	t.Setenv("POSTMARK_SERVER_TOKEN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTMARK_SERVER_TOKEN")

	t.Setenv("MAIL_PROVIDER", "carrier-pigeon")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAIL_PROVIDER")
}
