package internal

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("APP_URL", "")
	t.Setenv("BASE_URL", "")
	t.Setenv("ARCHIVE_PROVIDER", "")
	t.Setenv("AUTO_START_SERVICES", "")
	t.Setenv("TELEGRAM_API_URL", "")
	t.Setenv("TELEGRAM_POLL_TIMEOUT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "none", cfg.ArchiveProvider)
	assert.Equal(t, "https://api.telegram.org", cfg.TelegramAPIURL)
	assert.Equal(t, 30*time.Second, cfg.TelegramPollTimeout)
	assert.False(t, cfg.AutoStartServices)
	assert.False(t, cfg.IsSecure())
	assert.Empty(t, cfg.OTLPEndpoint)
}

func TestNewConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "unknown archive provider",
			env:     map[string]string{"ARCHIVE_PROVIDER": "s3"},
			wantErr: "ARCHIVE_PROVIDER must be one of",
		},
		{
			name:    "r2 without account",
			env:     map[string]string{"ARCHIVE_PROVIDER": "r2", "R2_ACCOUNT_ID": ""},
			wantErr: "R2_ACCOUNT_ID is required",
		},
		{
			name:    "auto start without bot token",
			env:     map[string]string{"AUTO_START_SERVICES": "true", "TELEGRAM_BOT_TOKEN": ""},
			wantErr: "TELEGRAM_BOT_TOKEN is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ARCHIVE_PROVIDER", "")
			t.Setenv("AUTO_START_SERVICES", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := NewConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_AppOrigin(t *testing.T) {
	tests := []struct {
		name    string
		appURL  string
		baseURL string
		want    string
	}{
		{"app url wins", "https://app.example.com", "https://legacy.example.com", "https://app.example.com"},
		{"legacy fallback", "", "https://legacy.example.com", "https://legacy.example.com"},
		{"neither", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{AppURL: tt.appURL, BaseURL: tt.baseURL}
			assert.Equal(t, tt.want, cfg.AppOrigin())
		})
	}
}

func TestNewLogger_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "production", "warn")

	logger.Info("dropped")
	logger.Warn("kept", "key", "value")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "value", entry["key"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}
