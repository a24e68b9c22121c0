package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const minJWTSecretLen = 16

type Config struct {
	Addr        string
	DatabaseURL string
	JWTSecret   string
	JWTTTL      time.Duration
	CORSOrigin  string

	RedisURL string
	CacheTTL time.Duration

	StripeSecretKey string
	Currency        string

	UploadDir      string
	MaxUploadBytes int

	MailProvider        string
	PostmarkServerToken string
	SendGridAPIKey      string
	MailFrom            string
	SupportEmail        string

	LogLevel string
}

// Load reads configuration from the environment (and a .env file when
// present) and validates it.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Addr:        getEnv("ADDR", ":5000"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		JWTTTL:      getEnvAsDuration("JWT_TTL", time.Hour),
		CORSOrigin:  os.Getenv("CORS_ORIGIN"),

		RedisURL: os.Getenv("REDIS_URL"),
		CacheTTL: getEnvAsDuration("CACHE_TTL", time.Minute),

		StripeSecretKey: os.Getenv("STRIPE_SECRET_KEY"),
		Currency:        strings.ToUpper(getEnv("CURRENCY", "PKR")),

		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadBytes: getEnvAsInt("MAX_UPLOAD_BYTES", 5*1024*1024),

		MailProvider:        strings.ToLower(getEnv("MAIL_PROVIDER", "log")),
		PostmarkServerToken: os.Getenv("POSTMARK_SERVER_TOKEN"),
		SendGridAPIKey:      os.Getenv("SENDGRID_API_KEY"),
		MailFrom:            getEnv("MAIL_FROM", "no-reply@abayahaven.local"),
		SupportEmail:        getEnv("SUPPORT_EMAIL", "support@abayahaven.local"),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every problem at once so a misconfigured deployment
// can be fixed in a single pass.
func (c Config) Validate() error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is not set"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is not set"))
	} else if len(c.JWTSecret) < minJWTSecretLen {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLen))
	}
	if c.CORSOrigin == "" {
		errs = append(errs, errors.New("CORS_ORIGIN is not set"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, errors.New("CACHE_TTL must be positive"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	if len(c.Currency) != 3 {
		errs = append(errs, fmt.Errorf("CURRENCY %q must be a 3-letter code", c.Currency))
	}

	switch c.MailProvider {
	case "log":
	case "postmark":
		if c.PostmarkServerToken == "" {
			errs = append(errs, errors.New("POSTMARK_SERVER_TOKEN is required when MAIL_PROVIDER=postmark"))
		}
	case "sendgrid":
		if c.SendGridAPIKey == "" {
			errs = append(errs, errors.New("SENDGRID_API_KEY is required when MAIL_PROVIDER=sendgrid"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MAIL_PROVIDER %q", c.MailProvider))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown LOG_LEVEL %q", c.LogLevel))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
