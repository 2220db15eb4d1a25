package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL    string
	HTTPListenAddr string
	LogLevel       string
	Environment    string

	// CronSpecDailyRun controls when the daily dispatch run is triggered.
	// The engine itself decides whether a reminder tier is due that day.
	CronSpecDailyRun string

	// SMTP transport
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	SMTPFrom         string
	SMTPMaxPerSecond float64

	// OversightEmails receive copy/escalation summaries. Fixed at
	// deployment time, never computed.
	OversightEmails []string

	// Per-item retry policy
	SenderMaxRetries     int
	SenderAttemptTimeout time.Duration
	SenderRetryDelay     time.Duration

	// Alarm thresholds
	AlarmWarningRate  int
	AlarmCriticalRate int
	AlarmMaxFailed    int

	// Optional Telegram alarm paging. Disabled when the token is empty.
	TelegramToken   string
	AdminTelegramID int64
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.SMTPHost = os.Getenv("SMTP_HOST")
	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("SMTP_HOST is not set")
	}
	cfg.SMTPFrom = os.Getenv("SMTP_FROM")
	if cfg.SMTPFrom == "" {
		return nil, fmt.Errorf("SMTP_FROM is not set")
	}
	cfg.SMTPUsername = os.Getenv("SMTP_USERNAME")
	cfg.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	if cfg.SMTPPort, err = envInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	if cfg.SMTPMaxPerSecond, err = envFloat("SMTP_MAX_PER_SECOND", 1); err != nil {
		return nil, err
	}

	oversight := os.Getenv("OVERSIGHT_EMAILS")
	if oversight == "" {
		return nil, fmt.Errorf("OVERSIGHT_EMAILS is not set")
	}
	for _, addr := range strings.Split(oversight, ",") {
		addr = strings.TrimSpace(addr)
		if addr != "" {
			cfg.OversightEmails = append(cfg.OversightEmails, addr)
		}
	}
	if len(cfg.OversightEmails) == 0 {
		return nil, fmt.Errorf("OVERSIGHT_EMAILS contains no addresses")
	}

	if cfg.SenderMaxRetries, err = envInt("SENDER_MAX_RETRIES", 3); err != nil {
		return nil, err
	}
	if cfg.SenderAttemptTimeout, err = envDuration("SENDER_ATTEMPT_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.SenderRetryDelay, err = envDuration("SENDER_RETRY_DELAY", 2*time.Second); err != nil {
		return nil, err
	}

	if cfg.AlarmWarningRate, err = envInt("ALARM_WARNING_RATE", 80); err != nil {
		return nil, err
	}
	if cfg.AlarmCriticalRate, err = envInt("ALARM_CRITICAL_RATE", 50); err != nil {
		return nil, err
	}
	if cfg.AlarmMaxFailed, err = envInt("ALARM_MAX_FAILED", 10); err != nil {
		return nil, err
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken != "" {
		adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID")
		if adminIDStr == "" {
			return nil, fmt.Errorf("ADMIN_TELEGRAM_ID is not set (required when TELEGRAM_TOKEN is set)")
		}
		cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}

	cfg.HTTPListenAddr = os.Getenv("HTTP_LISTEN_ADDR")
	if cfg.HTTPListenAddr == "" {
		cfg.HTTPListenAddr = ":8080"
	}

	cfg.CronSpecDailyRun = os.Getenv("CRON_SPEC_DAILY_RUN")
	if cfg.CronSpecDailyRun == "" {
		cfg.CronSpecDailyRun = "0 8 * * *" // Default: 08:00 daily
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	return cfg, nil
}

func envInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
