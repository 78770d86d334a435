package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("GEMINI_MODELS", "")
	t.Setenv("LEDGER_TIMEZONE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, DefaultGeminiModels, cfg.Gemini.Models)
	assert.Equal(t, int32(500), cfg.Gemini.MaxOutputTokens)
	assert.InDelta(t, 0.1, cfg.Gemini.Temperature, 1e-6)
	assert.Equal(t, "America/Sao_Paulo", cfg.Ledger.Location.String())
	assert.Equal(t, []string{"Pix", "Crédito", "Débito", "Caju"}, cfg.Ledger.PaymentMethods)
	assert.Contains(t, cfg.Ledger.DefaultIncomeTags, "Reembolso")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GEMINI_MODELS", "model-a, ,model-b")
	t.Setenv("TELEGRAM_ALLOWED_USER_ID", "12345")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"model-a", "model-b"}, cfg.Gemini.Models)
	assert.Equal(t, int64(12345), cfg.Telegram.AllowedUserID)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown backend", map[string]string{"STORE_BACKEND": "sheets"}},
		{"bigquery without project", map[string]string{"STORE_BACKEND": "bigquery", "GCP_PROJECT_ID": ""}},
		{"postgres without dsn", map[string]string{"STORE_BACKEND": "postgres", "DATABASE_URL": ""}},
		{"bad user id", map[string]string{"TELEGRAM_ALLOWED_USER_ID": "me"}},
		{"bad temperature", map[string]string{"GEMINI_TEMPERATURE": "warm"}},
		{"bad timezone", map[string]string{"LEDGER_TIMEZONE": "Mars/Olympus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestRequireTelegram(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.RequireTelegram())

	cfg.Telegram.Token = "token"
	assert.Error(t, cfg.RequireTelegram())

	cfg.Telegram.AllowedUserID = 7
	assert.NoError(t, cfg.RequireTelegram())
}

func TestRequireGemini(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.RequireGemini())

	cfg.Gemini.APIKey = "key"
	assert.NoError(t, cfg.RequireGemini())
}
