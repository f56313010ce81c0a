package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	DBDSN       string

	// Calendar backend: "memory" for development, "http" against the
	// spreadsheet bridge.
	CalendarMode      string
	CalendarBridgeURL string
	CalendarBridgeKey string

	PollInterval time.Duration
	PollWorkers  int

	SuggestMax         int
	SuggestHorizonDays int

	RegionTablePath string
	MigrationsPath  string
	MetricsAddr     string

	SMTPHost    string
	SMTPPort    int
	SMTPUser    string
	SMTPPass    string
	MailFrom    string
	OfficeEmail string

	TelegramToken     string
	TelegramAdminChat int64
}

// Load reads .env if present, then the environment. Only the database DSN
// is required; everything else has a development default.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err == nil {
		log.Println("loaded configuration from .env file")
	}

	cfg := &Config{
		Environment:       getEnv("ENV", "development"),
		DBDSN:             os.Getenv("DB_DSN"),
		CalendarMode:      getEnv("CALENDAR_MODE", "memory"),
		CalendarBridgeURL: os.Getenv("CALENDAR_BRIDGE_URL"),
		CalendarBridgeKey: os.Getenv("CALENDAR_BRIDGE_KEY"),
		RegionTablePath:   os.Getenv("REGION_TABLE_PATH"),
		MigrationsPath:    getEnv("MIGRATIONS_PATH", "migrations"),
		MetricsAddr:       os.Getenv("METRICS_ADDR"),
		SMTPHost:          os.Getenv("SMTP_HOST"),
		SMTPUser:          os.Getenv("SMTP_USER"),
		SMTPPass:          os.Getenv("SMTP_PASS"),
		MailFrom:          getEnv("MAIL_FROM", "scheduling@machtek.example"),
		OfficeEmail:       os.Getenv("OFFICE_EMAIL"),
		TelegramToken:     os.Getenv("TELEGRAM_TOKEN"),
	}

	var err error
	if cfg.PollInterval, err = getDuration("POLL_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.PollWorkers, err = getInt("POLL_WORKERS", 4); err != nil {
		return nil, err
	}
	if cfg.SuggestMax, err = getInt("SUGGEST_MAX", 3); err != nil {
		return nil, err
	}
	if cfg.SuggestHorizonDays, err = getInt("SUGGEST_HORIZON_DAYS", 60); err != nil {
		return nil, err
	}
	if cfg.SMTPPort, err = getInt("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	if chat := os.Getenv("TELEGRAM_ADMIN_CHAT"); chat != "" {
		cfg.TelegramAdminChat, err = strconv.ParseInt(chat, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse TELEGRAM_ADMIN_CHAT: %w", err)
		}
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	if cfg.CalendarMode == "http" && cfg.CalendarBridgeURL == "" {
		return nil, fmt.Errorf("CALENDAR_BRIDGE_URL is required when CALENDAR_MODE=http")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
