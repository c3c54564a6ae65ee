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
	DatabaseURL        string
	ServiceRoleKey     string // privileged bearer credential for backend function calls
	WhatsAppGatewayURL string // dispatch endpoint of the internal WhatsApp function
	FirebaseCredJSON   string // service-account JSON for the push provider; may be empty
	HTTPPort           string
	LogLevel           string
	Environment        string
	CronSpecReminders  string        // daily schedule for both reminder jobs
	BadgePollInterval  time.Duration // fallback poll for the unread badge
	RelayQueueSize     int           // bounded event queue of the real-time relay
	AdminUserID        string        // optional: admin identity the relay session runs as
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.ServiceRoleKey = os.Getenv("SERVICE_ROLE_KEY")
	if cfg.ServiceRoleKey == "" {
		return nil, fmt.Errorf("SERVICE_ROLE_KEY is not set")
	}

	cfg.WhatsAppGatewayURL = os.Getenv("WHATSAPP_GATEWAY_URL")
	if cfg.WhatsAppGatewayURL == "" {
		return nil, fmt.Errorf("WHATSAPP_GATEWAY_URL is not set")
	}

	// Deliberately not required: a missing or malformed credential leaves
	// the push adapter non-functional for the run but must not stop the
	// WhatsApp job or the relay from working.
	cfg.FirebaseCredJSON = os.Getenv("FIREBASE_SERVICE_ACCOUNT_KEY")

	cfg.HTTPPort = os.Getenv("HTTP_PORT")
	if cfg.HTTPPort == "" {
		cfg.HTTPPort = "8080"
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	cfg.CronSpecReminders = os.Getenv("CRON_SPEC_REMINDERS")
	if cfg.CronSpecReminders == "" {
		cfg.CronSpecReminders = "0 8 * * *" // Default: 08:00 daily
	}

	pollStr := os.Getenv("BADGE_POLL_INTERVAL")
	if pollStr == "" {
		cfg.BadgePollInterval = 5 * time.Second
	} else {
		d, err := time.ParseDuration(pollStr)
		if err != nil {
			return nil, fmt.Errorf("invalid BADGE_POLL_INTERVAL: %w", err)
		}
		cfg.BadgePollInterval = d
	}

	// Optional: when set, the service keeps a live relay session open for
	// this admin and mirrors incoming notifications to the log stream.
	cfg.AdminUserID = os.Getenv("ADMIN_USER_ID")

	queueStr := os.Getenv("RELAY_QUEUE_SIZE")
	if queueStr == "" {
		cfg.RelayQueueSize = 64
	} else {
		n, err := strconv.Atoi(queueStr)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid RELAY_QUEUE_SIZE: %q", queueStr)
		}
		cfg.RelayQueueSize = n
	}

	return cfg, nil
}
