package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Environment string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Email    EmailConfig
	Booksy   BooksyConfig
	Security SecurityConfig
	Business BusinessConfig
	I18n     I18nConfig
}

type DatabaseConfig struct {
	Host           string
	Port           int
	Name           string
	User           string
	Password       string
	MaxConnections int
	MaxIdle        int
}

type RedisConfig struct {
	Host           string
	Port           int
	Password       string
	DB             int
	MaxConnections int
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// BooksyConfig covers the inbound email webhook. WebhookSecret is optional;
// when empty the token check is skipped.
type BooksyConfig struct {
	WebhookSecret string
	SenderDomain  string
}

type SecurityConfig struct {
	BCryptCost        int
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSOrigins       []string
}

type BusinessConfig struct {
	SlotStepMinutes   int
	AvailabilityCache time.Duration
	ReminderHours     int
}

type I18nConfig struct {
	DefaultLanguage    string
	SupportedLanguages []string
}

func Load() *Config {
	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),

		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnvInt("DB_PORT", 5432),
			Name:           getEnv("DB_NAME", "salon"),
			User:           getEnv("DB_USER", "salon"),
			Password:       getEnv("DB_PASSWORD", ""),
			MaxConnections: getEnvInt("DB_MAX_CONNECTIONS", 20),
			MaxIdle:        getEnvInt("DB_MAX_IDLE", 5),
		},

		Redis: RedisConfig{
			Host:           getEnv("REDIS_HOST", "localhost"),
			Port:           getEnvInt("REDIS_PORT", 6379),
			Password:       getEnv("REDIS_PASSWORD", ""),
			DB:             getEnvInt("REDIS_DB", 0),
			MaxConnections: getEnvInt("REDIS_MAX_CONNECTIONS", 20),
		},

		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "change_me"),
			Expiry: getEnvDuration("JWT_EXPIRY", 24*time.Hour),
		},

		Email: EmailConfig{
			Host:     getEnv("EMAIL_HOST", "smtp.gmail.com"),
			Port:     getEnvInt("EMAIL_PORT", 587),
			User:     getEnv("EMAIL_USER", ""),
			Password: getEnv("EMAIL_PASSWORD", ""),
			From:     getEnv("EMAIL_FROM", "rezerwacje@salon.pl"),
		},

		Booksy: BooksyConfig{
			WebhookSecret: getEnv("BOOKSY_WEBHOOK_SECRET", ""),
			SenderDomain:  getEnv("BOOKSY_SENDER_DOMAIN", "booksy"),
		},

		Security: SecurityConfig{
			BCryptCost:        getEnvInt("BCRYPT_COST", 12),
			RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 100),
			RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
			CORSOrigins:       strings.Split(getEnv("CORS_ORIGINS", "*"), ","),
		},

		Business: BusinessConfig{
			SlotStepMinutes:   getEnvInt("SLOT_STEP_MINUTES", 30),
			AvailabilityCache: getEnvDuration("AVAILABILITY_CACHE_TTL", time.Minute),
			ReminderHours:     getEnvInt("REMINDER_HOURS", 24),
		},

		I18n: I18nConfig{
			DefaultLanguage:    getEnv("DEFAULT_LANGUAGE", "pl"),
			SupportedLanguages: strings.Split(getEnv("SUPPORTED_LANGUAGES", "pl,en,ru"), ","),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
