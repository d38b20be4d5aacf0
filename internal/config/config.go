package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default values used when a variable is unset or invalid
const (
	DefaultMode               = "dev"
	DefaultDBType             = "sqlite"
	DefaultDSN                = "data/vocab.db"
	DefaultOpenAIModel        = "gpt-4o-mini"
	DefaultRefreshInterval    = 30 * time.Minute
	DefaultNotificationStart  = 8
	DefaultNotificationEnd    = 22
	DefaultRefreshConcurrency = 4
	DefaultLanguage           = "ko"
)

// Config is the runtime configuration of the service.
type Config struct {
	Mode                  string        // APP_MODE
	DBType                string        // DB_TYPE: sqlite or postgres
	DSN                   string        // DB_DSN
	TelegramToken         string        // TELEGRAM_BOT_TOKEN
	OpenAIKey             string        // OPENAI_API_KEY
	OpenAIModel           string        // OPENAI_MODEL
	OpenAIBaseURL         string        // OPENAI_BASE_URL, empty for the public API
	RefreshInterval       time.Duration // REFRESH_INTERVAL
	NotificationStartHour int           // NOTIFICATION_START_HOUR
	NotificationEndHour   int           // NOTIFICATION_END_HOUR
	RefreshConcurrency    int           // REFRESH_CONCURRENCY
	DefaultLanguage       string        // DEFAULT_LANGUAGE
}

// Load reads an optional .env file from the working directory and then the
// process environment. Variables already set in the environment win.
func Load() *Config {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) *Config {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Mode:                  get("APP_MODE", DefaultMode),
		DBType:                strings.ToLower(get("DB_TYPE", DefaultDBType)),
		DSN:                   get("DB_DSN", DefaultDSN),
		TelegramToken:         get("TELEGRAM_BOT_TOKEN", ""),
		OpenAIKey:             get("OPENAI_API_KEY", ""),
		OpenAIModel:           get("OPENAI_MODEL", DefaultOpenAIModel),
		OpenAIBaseURL:         get("OPENAI_BASE_URL", ""),
		RefreshInterval:       DefaultRefreshInterval,
		NotificationStartHour: hourOrDefault(get("NOTIFICATION_START_HOUR", ""), DefaultNotificationStart),
		NotificationEndHour:   hourOrDefault(get("NOTIFICATION_END_HOUR", ""), DefaultNotificationEnd),
		RefreshConcurrency:    DefaultRefreshConcurrency,
		DefaultLanguage:       get("DEFAULT_LANGUAGE", DefaultLanguage),
	}

	if d, err := time.ParseDuration(get("REFRESH_INTERVAL", "")); err == nil && d > 0 {
		cfg.RefreshInterval = d
	}
	if n, err := strconv.Atoi(get("REFRESH_CONCURRENCY", "")); err == nil && n > 0 {
		cfg.RefreshConcurrency = n
	}
	if cfg.DBType != "sqlite" && cfg.DBType != "postgres" {
		cfg.DBType = DefaultDBType
	}
	return cfg
}

func hourOrDefault(s string, def int) int {
	if h, err := strconv.Atoi(s); err == nil && h >= 0 && h <= 23 {
		return h
	}
	return def
}

// IsAIEnabled reports whether example sentence generation is configured.
func (c *Config) IsAIEnabled() bool {
	return c.OpenAIKey != ""
}

// InNotificationWindow reports whether hour lies inside the reminder window.
func (c *Config) InNotificationWindow(hour int) bool {
	return hour >= c.NotificationStartHour && hour <= c.NotificationEndHour
}
