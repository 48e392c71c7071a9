package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "  key  ")
	t.Setenv("WEB_ADDR", "")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "")
	t.Setenv("GEMINI_COPY_MODEL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "key", cfg.GeminiAPIKey)
	assert.Equal(t, ":8080", cfg.WebAddr)
	assert.Equal(t, 240*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "gemini-2.5-flash", cfg.CopyModel)
	assert.Equal(t, "v1beta", cfg.GeminiAPIVersion)
}

func TestLoadClampsInvalidValues(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("MAX_CONCURRENT", "0")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "-5")
	t.Setenv("SESSION_TTL_MINUTES", "nope")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.MaxConcurrent)
	assert.Equal(t, 180*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
}

func TestLoadBotRequiresToken(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	_, err := LoadBot()
	require.Error(t, err)

	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	cfg, err := LoadBot()
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.TelegramToken)
}

func TestLoadCookieAndTemperature(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("SECURE_COOKIE", "")
	t.Setenv("GEMINI_COPY_TEMPERATURE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.SecureCookie)
	assert.Zero(t, cfg.CopyTemperature)

	t.Setenv("SECURE_COOKIE", "true")
	t.Setenv("GEMINI_COPY_TEMPERATURE", "0.7")
	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.SecureCookie)
	assert.InDelta(t, 0.7, cfg.CopyTemperature, 1e-9)

	t.Setenv("GEMINI_COPY_TEMPERATURE", "9")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Zero(t, cfg.CopyTemperature)
}
