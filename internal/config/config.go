package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/utafrali/storefront/pkg/config"
)

const defaultSecret = "change-this-to-a-secure-secret"

// Config holds all configuration for the storefront server.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Version     string `env:"SERVICE_VERSION" envDefault:"0.1.0"`

	// HTTP server
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8080"`
	RequestTimeout  time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"storefront"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"storefront_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"storefront"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	DBMaxConns         int32         `env:"DB_MAX_CONNS" envDefault:"20"`
	DBMinConns         int32         `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLifetime  time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime  time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	SlowQueryThreshold time.Duration `env:"DB_SLOW_QUERY_THRESHOLD" envDefault:"200ms"`

	// Redis
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaBrokers       []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaConsumerGroup string   `env:"KAFKA_CONSUMER_GROUP" envDefault:"storefront-dashboard"`

	// Sessions
	ShopJWTSecret   string        `env:"SHOP_JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	AdminJWTSecret  string        `env:"ADMIN_JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	ShopSessionTTL  time.Duration `env:"SHOP_SESSION_TTL" envDefault:"168h"`
	AdminSessionTTL time.Duration `env:"ADMIN_SESSION_TTL" envDefault:"12h"`
	CookieSecure    bool          `env:"COOKIE_SECURE" envDefault:"false"`

	// Shop state
	CartTTL           time.Duration `env:"CART_TTL" envDefault:"168h"`
	OTPTTL            time.Duration `env:"OTP_TTL" envDefault:"5m"`
	OTPMaxAttempts    int           `env:"OTP_MAX_ATTEMPTS" envDefault:"5"`
	IdempotencyTTL    time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
	DashboardCacheTTL time.Duration `env:"DASHBOARD_CACHE_TTL" envDefault:"60s"`

	// Auth rate limiting (per client IP)
	AuthRateLimitRPS   float64 `env:"AUTH_RATE_LIMIT_RPS" envDefault:"1"`
	AuthRateLimitBurst int     `env:"AUTH_RATE_LIMIT_BURST" envDefault:"5"`

	AdminBootstrapPassword string `env:"ADMIN_BOOTSTRAP_PASSWORD"`

	// Media host
	MediaBaseURL    string `env:"MEDIA_BASE_URL" envDefault:"https://api.cloudinary.com"`
	MediaCloudName  string `env:"MEDIA_CLOUD_NAME"`
	MediaAPIKey     string `env:"MEDIA_API_KEY"`
	MediaAPISecret  string `env:"MEDIA_API_SECRET"`
	MediaRootFolder string `env:"MEDIA_ROOT_FOLDER" envDefault:"storefront"`

	// Payment gateway
	RazorpayBaseURL   string `env:"RAZORPAY_BASE_URL" envDefault:"https://api.razorpay.com"`
	RazorpayKeyID     string `env:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret string `env:"RAZORPAY_KEY_SECRET"`
	Currency          string `env:"CURRENCY" envDefault:"INR"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	// pprof is mounted only for these networks.
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.1/32,::1/128" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the environment parser cannot.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.OTPMaxAttempts < 1 {
		return fmt.Errorf("OTP_MAX_ATTEMPTS must be positive, got %d", c.OTPMaxAttempts)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be within [0, 1], got %v", c.OTELSampleRate)
	}
	for name, d := range map[string]time.Duration{
		"HTTP_REQUEST_TIMEOUT": c.RequestTimeout,
		"SHOP_SESSION_TTL":     c.ShopSessionTTL,
		"ADMIN_SESSION_TTL":    c.AdminSessionTTL,
		"CART_TTL":             c.CartTTL,
		"OTP_TTL":              c.OTPTTL,
		"IDEMPOTENCY_TTL":      c.IdempotencyTTL,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}

	// Outside development both session secrets must be set explicitly and be strong.
	if c.Environment != "development" {
		for name, secret := range map[string]string{
			"SHOP_JWT_SECRET":  c.ShopJWTSecret,
			"ADMIN_JWT_SECRET": c.AdminJWTSecret,
		} {
			if secret == defaultSecret {
				return fmt.Errorf("%s must be explicitly set via environment variable in %q mode", name, c.Environment)
			}
			if len(secret) < 32 {
				return fmt.Errorf("%s must be at least 32 characters long, got %d", name, len(secret))
			}
		}
		if c.ShopJWTSecret == c.AdminJWTSecret {
			return fmt.Errorf("SHOP_JWT_SECRET and ADMIN_JWT_SECRET must differ in %q mode", c.Environment)
		}
	}

	return nil
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}

// PaymentsConfigured reports whether a real payment gateway key pair is set.
func (c *Config) PaymentsConfigured() bool {
	return c.RazorpayKeyID != "" && c.RazorpayKeySecret != ""
}

// MediaConfigured reports whether media host credentials are set.
func (c *Config) MediaConfigured() bool {
	return c.MediaCloudName != "" && c.MediaAPIKey != "" && c.MediaAPISecret != ""
}
