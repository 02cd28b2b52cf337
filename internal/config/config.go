package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	LogLevel    string

	OTLPEndpoint string

	DBType     string
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	// Billing defaults applied to every order.
	TaxRateBps      int64
	DefaultCurrency string

	Stripe    StripeConfig
	RateLimit RateLimitConfig
	Metrics   MetricsConfig
}

// StripeConfig carries the gateway credentials. The key is injected into the
// gateway client; nothing in the codebase mutates global Stripe state.
type StripeConfig struct {
	APIKey    string
	AccountID string
	// BaseURL overrides the API endpoint; empty means api.stripe.com.
	BaseURL string
}

type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	OrderRate     float64
	OrderBurst    int
}

type MetricsConfig struct {
	Enabled  bool
	Exporter string
	Endpoint string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "hostbill"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		LogLevel:    getenv("LOG_LEVEL", "info"),

		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:     getenv("DATABASE_TYPE", "postgres"),
		DBHost:     getenv("DATABASE_HOST", "localhost"),
		DBPort:     getenv("DATABASE_PORT", "5432"),
		DBName:     getenv("DATABASE_NAME", "hostbill"),
		DBUser:     getenv("DATABASE_USER", "postgres"),
		DBPassword: getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:  getenv("DATABASE_SSLMODE", "disable"),

		TaxRateBps:      getenvInt64("TAX_RATE_BPS", 1600),
		DefaultCurrency: strings.ToUpper(getenv("DEFAULT_CURRENCY", "MXN")),

		Stripe: StripeConfig{
			APIKey:    strings.TrimSpace(getenv("STRIPE_API_KEY", "")),
			AccountID: strings.TrimSpace(getenv("STRIPE_ACCOUNT_ID", "")),
			BaseURL:   strings.TrimSpace(getenv("STRIPE_BASE_URL", "")),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:     strings.TrimSpace(getenv("RATE_LIMIT_REDIS_ADDR", "")),
			RedisPassword: strings.TrimSpace(getenv("RATE_LIMIT_REDIS_PASSWORD", "")),
			RedisDB:       int(getenvInt64("RATE_LIMIT_REDIS_DB", 0)),
			OrderRate:     getenvFloat("RATE_LIMIT_ORDER_RATE", 1),
			OrderBurst:    int(getenvInt64("RATE_LIMIT_ORDER_BURST", 5)),
		},
		Metrics: MetricsConfig{
			Enabled:  getenvBool("METRICS_ENABLED", false),
			Exporter: strings.ToLower(getenv("METRICS_EXPORTER", "grpc")),
			Endpoint: strings.TrimSpace(getenv("METRICS_ENDPOINT", "")),
		},
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
