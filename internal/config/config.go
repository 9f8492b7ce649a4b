package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	PayPal       PayPalConfig
	Checkout     CheckoutConfig
	Storage      StorageConfig
	Assistant    AssistantConfig
	Notification NotificationConfig
	Sentry       SentryConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	CORSOrigins           string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret              string
	AccessTokenTTLMinutes  int
	AccountTokenTTLMinutes int
	BcryptCost             int
}

// PayPalConfig holds provider API credentials and endpoints.
type PayPalConfig struct {
	BaseURL        string
	ClientID       string
	ClientSecret   string
	TimeoutSeconds int
	MaxRetries     int
}

// CheckoutConfig fixes the flat fee and redirect targets.
type CheckoutConfig struct {
	AmountCents            int64
	Currency               string
	SuccessURL             string
	FailureURL             string
	ReturnBaseURL          string
	ReconcileIntervalMin   int
	ReconcileStaleAfterMin int
}

// StorageConfig configures the document blob store.
type StorageConfig struct {
	Root        string
	MaxUploadMB int64
}

// AssistantConfig configures the chat-completion proxy.
type AssistantConfig struct {
	BaseURL        string
	APIKey         string
	Model          string
	TimeoutSeconds int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// SentryConfig enables crash reporting when a DSN is provided.
type SentryConfig struct {
	DSN string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	amountCents := int64(getEnvAsInt("CHECKOUT_AMOUNT_CENTS", 9900))
	if amountCents <= 0 {
		return nil, fmt.Errorf("CHECKOUT_AMOUNT_CENTS must be positive")
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "vehicle-exemption-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			CORSOrigins:           getEnv("HTTP_CORS_ORIGINS", "*"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:              getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes:  getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			AccountTokenTTLMinutes: getEnvAsInt("AUTH_ACCOUNT_TOKEN_TTL_MINUTES", 30),
			BcryptCost:             getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		PayPal: PayPalConfig{
			BaseURL:        getEnv("PAYPAL_BASE_URL", "https://api-m.sandbox.paypal.com"),
			ClientID:       os.Getenv("PAYPAL_CLIENT_ID"),
			ClientSecret:   os.Getenv("PAYPAL_CLIENT_SECRET"),
			TimeoutSeconds: getEnvAsInt("PAYPAL_TIMEOUT_SECONDS", 30),
			MaxRetries:     getEnvAsInt("PAYPAL_MAX_RETRIES", 3),
		},
		Checkout: CheckoutConfig{
			AmountCents:            amountCents,
			Currency:               getEnv("CHECKOUT_CURRENCY", "EUR"),
			SuccessURL:             getEnv("CHECKOUT_SUCCESS_URL", "https://app.example.com/payment/success"),
			FailureURL:             getEnv("CHECKOUT_FAILURE_URL", "https://app.example.com/payment/failed"),
			ReturnBaseURL:          getEnv("CHECKOUT_RETURN_BASE_URL", "http://localhost:8080"),
			ReconcileIntervalMin:   getEnvAsInt("CHECKOUT_RECONCILE_INTERVAL_MINUTES", 15),
			ReconcileStaleAfterMin: getEnvAsInt("CHECKOUT_RECONCILE_STALE_AFTER_MINUTES", 30),
		},
		Storage: StorageConfig{
			Root:        getEnv("STORAGE_ROOT", "data/documents"),
			MaxUploadMB: int64(getEnvAsInt("STORAGE_MAX_UPLOAD_MB", 10)),
		},
		Assistant: AssistantConfig{
			BaseURL:        getEnv("ASSISTANT_BASE_URL", "https://api.openai.com/v1/chat/completions"),
			APIKey:         os.Getenv("ASSISTANT_API_KEY"),
			Model:          getEnv("ASSISTANT_MODEL", "gpt-4o-mini"),
			TimeoutSeconds: getEnvAsInt("ASSISTANT_TIMEOUT_SECONDS", 20),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
		Sentry: SentryConfig{
			DSN: os.Getenv("SENTRY_DSN"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Amount renders the flat fee as a provider-format decimal string.
func (c CheckoutConfig) Amount() string {
	return fmt.Sprintf("%d.%02d", c.AmountCents/100, c.AmountCents%100)
}

// MaxUploadBytes returns the document upload size limit.
func (s StorageConfig) MaxUploadBytes() int64 {
	return s.MaxUploadMB * 1024 * 1024
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
