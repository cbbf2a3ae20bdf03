// Package config loads bot configuration from the environment using Viper.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config is built once at startup and passed to the components that need it.
type Config struct {
	// BotToken is the Telegram Bot API token. Required.
	BotToken string `mapstructure:"BOT_TOKEN"`
	// PolicyURL is the personal data policy shown at the consent step.
	PolicyURL string `mapstructure:"POLICY_URL"`
	// TZ is a zone label attached to operator notifications; no conversion is done with it.
	TZ string `mapstructure:"TZ"`
	// DBPath is the SQLite file used when DatabaseURL is empty.
	DBPath string `mapstructure:"DB_PATH"`
	// DatabaseURL is a Postgres DSN; when set, leads are stored in Postgres.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// AdminChatID is the operator chat. Empty disables notifications and operator commands.
	AdminChatID       string `mapstructure:"ADMIN_CHAT_ID"`
	LeadWebhookURL    string `mapstructure:"LEAD_WEBHOOK_URL"`
	LeadWebhookSecret string `mapstructure:"LEAD_WEBHOOK_SECRET"`
	// HTTPAddr is where the health endpoint listens.
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// Workers is the number of update shards processed in parallel.
	Workers  int    `mapstructure:"WORKERS"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
}

// Load builds and validates Config from the environment. A .env file, if any, is
// expected to be loaded into the environment by the caller.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("BOT_TOKEN", "")
	v.SetDefault("POLICY_URL", "https://example.com/policy")
	v.SetDefault("TZ", "Asia/Almaty")
	v.SetDefault("DB_PATH", "bot.db")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("ADMIN_CHAT_ID", "")
	v.SetDefault("LEAD_WEBHOOK_URL", "")
	v.SetDefault("LEAD_WEBHOOK_SECRET", "")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("WORKERS", 4)
	v.SetDefault("LOG_LEVEL", "info")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.BotToken = strings.TrimSpace(cfg.BotToken)
	if cfg.BotToken == "" {
		return nil, errors.New("config: BOT_TOKEN is not set")
	}
	if cfg.Workers < 1 {
		return nil, errors.New("config: WORKERS must be at least 1")
	}
	if _, _, err := cfg.parseAdminChatID(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// OperatorChatID returns the operator chat id, or false when notifications are disabled.
func (c *Config) OperatorChatID() (int64, bool) {
	id, ok, _ := c.parseAdminChatID()
	return id, ok
}

func (c *Config) parseAdminChatID() (int64, bool, error) {
	raw := strings.TrimSpace(c.AdminChatID)
	if raw == "" {
		return 0, false, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("config: ADMIN_CHAT_ID must be an integer: %w", err)
	}
	return id, true, nil
}

// SlogLevel maps LogLevel to a slog level; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
