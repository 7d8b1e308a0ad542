package internal

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	Port        int
	LogLevel    string
	DatabaseUrl string // Optional; enables webhook event recording

	// Application base URL. AppURL wins over the legacy BaseURL name.
	AppURL  string
	BaseURL string

	// Twitter/X webhook signing secret (CRC handshake)
	TwitterConsumerSecret string

	// Telegram Bot API
	TelegramBotToken    string
	TelegramAPIURL      string
	TelegramChatID      string
	TelegramPollTimeout time.Duration
	TelegramHTTPTimeout time.Duration

	// Starts background services (Telegram poller) with the server
	AutoStartServices bool

	// Webhook payload archive
	ArchiveProvider  string // "none", "local" or "r2"
	ArchiveLocalPath string

	// R2 Storage
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string

	// Optional directory with messages.<locale>.toml overrides, watched for changes
	LocalesDir string

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string

	// OTLP/gRPC trace export; tracing is off when the endpoint is empty
	OTLPEndpoint string
	OTLPInsecure bool
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:         getEnv("ENV", "development"),
		Port:        getEnvInt("PORT", 8080),
		LogLevel:    getEnv("LOG_LEVEL", "debug"),
		DatabaseUrl: getEnv("DATABASE_URL", ""),

		AppURL:  strings.TrimSpace(getEnv("APP_URL", "")),
		BaseURL: strings.TrimSpace(getEnv("BASE_URL", "")),

		TwitterConsumerSecret: getEnv("TWITTER_CONSUMER_SECRET", ""),

		TelegramBotToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramAPIURL:      getEnv("TELEGRAM_API_URL", "https://api.telegram.org"),
		TelegramChatID:      getEnv("TELEGRAM_CHAT_ID", ""),
		TelegramPollTimeout: getEnvDuration("TELEGRAM_POLL_TIMEOUT", 30*time.Second),
		TelegramHTTPTimeout: getEnvDuration("TELEGRAM_HTTP_TIMEOUT", 10*time.Second),

		AutoStartServices: getEnvBool("AUTO_START_SERVICES", false),

		ArchiveProvider:  getEnv("ARCHIVE_PROVIDER", "none"),
		ArchiveLocalPath: getEnv("ARCHIVE_LOCAL_PATH", "./archive"),

		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),

		LocalesDir: getEnv("LOCALES_DIR", ""),

		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", false),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.ArchiveProvider {
	case "none", "local":
	case "r2":
		if c.R2AccountID == "" {
			return fmt.Errorf("R2_ACCOUNT_ID is required when ARCHIVE_PROVIDER is 'r2'")
		}
		if c.R2AccessKeyID == "" {
			return fmt.Errorf("R2_ACCESS_KEY_ID is required when ARCHIVE_PROVIDER is 'r2'")
		}
		if c.R2SecretAccessKey == "" {
			return fmt.Errorf("R2_SECRET_ACCESS_KEY is required when ARCHIVE_PROVIDER is 'r2'")
		}
		if c.R2BucketName == "" {
			return fmt.Errorf("R2_BUCKET_NAME is required when ARCHIVE_PROVIDER is 'r2'")
		}
	default:
		return fmt.Errorf("ARCHIVE_PROVIDER must be one of 'none', 'local' or 'r2', got: %s", c.ArchiveProvider)
	}

	if c.AutoStartServices && c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required when AUTO_START_SERVICES is enabled")
	}

	if c.TelegramPollTimeout < 0 {
		return fmt.Errorf("TELEGRAM_POLL_TIMEOUT must not be negative, got: %s", c.TelegramPollTimeout)
	}

	return nil
}

// AppOrigin returns the configured application URL candidate, preferring
// APP_URL over the legacy BASE_URL. It is not validated here; callers fall
// back to the request origin when it does not parse.
func (c *Config) AppOrigin() string {
	if c.AppURL != "" {
		return c.AppURL
	}
	return c.BaseURL
}

// IsSecure reports whether cookies set by the application should carry the
// Secure attribute.
func (c *Config) IsSecure() bool {
	return c.Env != "development"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
