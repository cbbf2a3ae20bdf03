package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, kv map[string]string) {
	t.Helper()
	for _, k := range []string{"BOT_TOKEN", "POLICY_URL", "TZ", "DB_PATH", "DATABASE_URL", "ADMIN_CHAT_ID",
		"LEAD_WEBHOOK_URL", "LEAD_WEBHOOK_SECRET", "HTTP_ADDR", "WORKERS", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	for k, v := range kv {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, map[string]string{"BOT_TOKEN": "123:abc"})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.BotToken)
	assert.Equal(t, "https://example.com/policy", cfg.PolicyURL)
	assert.Equal(t, "Asia/Almaty", cfg.TZ)
	assert.Equal(t, "bot.db", cfg.DBPath)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 4, cfg.Workers)
	assert.Empty(t, cfg.DatabaseURL)

	_, ok := cfg.OperatorChatID()
	assert.False(t, ok)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoad_EnvOverride(t *testing.T) {
	setEnv(t, map[string]string{
		"BOT_TOKEN":     "123:abc",
		"POLICY_URL":    "https://acme.test/pd",
		"TZ":            "Europe/Moscow",
		"DB_PATH":       "/data/leads.db",
		"ADMIN_CHAT_ID": "-100200300",
		"WORKERS":       "8",
		"LOG_LEVEL":     "debug",
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://acme.test/pd", cfg.PolicyURL)
	assert.Equal(t, "Europe/Moscow", cfg.TZ)
	assert.Equal(t, "/data/leads.db", cfg.DBPath)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())

	id, ok := cfg.OperatorChatID()
	assert.True(t, ok)
	assert.Equal(t, int64(-100200300), id)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing token", map[string]string{}},
		{"blank token", map[string]string{"BOT_TOKEN": "   "}},
		{"bad admin chat", map[string]string{"BOT_TOKEN": "x", "ADMIN_CHAT_ID": "@operator"}},
		{"zero workers", map[string]string{"BOT_TOKEN": "x", "WORKERS": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.env)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestSlogLevel_Unknown(t *testing.T) {
	cfg := &Config{LogLevel: "loud"}
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}
