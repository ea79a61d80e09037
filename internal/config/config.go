package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	MinSideEffectAttempts = 1
	MaxSideEffectAttempts = 10

	AnchorLastPayment = "last_payment"
	AnchorJoiningDay  = "joining_day"
)

type Config struct {
	AppEnv   string
	Port     string
	LogLevel string

	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Auth     AuthConfig
	Receipt  ReceiptConfig
	Email    EmailConfig
	Export   ExportConfig

	SideEffects SideEffectConfig
	Alert       AlertConfig
}

type DatabaseConfig struct {
	Host       string
	User       string
	Password   string
	Name       string
	Port       string
	SSLMode    string
	MaxRetries int
}

type RedisConfig struct {
	Addr string
}

type KafkaConfig struct {
	Broker             string
	GroupID            string
	OutboxPollInterval time.Duration
}

type AuthConfig struct {
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// Seeded on startup when no account exists for AdminEmail.
	AdminEmail    string
	AdminName     string
	AdminPassword string
}

type ReceiptConfig struct {
	Dir           string
	PublicBaseURL string
	URLTTL        time.Duration
	MaxSizeBytes  int64
}

type EmailConfig struct {
	SendGridAPIKey     string
	SendGridHost       string
	FromAddress        string
	FromName           string
	PaymentTemplateID  string
	ReminderTemplateID string
	AlertRecipients    []string
}

type ExportConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

type SideEffectConfig struct {
	MaxAttempts int
	Timeout     time.Duration
}

type AlertConfig struct {
	AnchorPolicy string
	DigestCron   string
	Timezone     string
}

func Load() *Config {
	_ = godotenv.Load()

	attempts := getEnvInt("SIDE_EFFECT_MAX_ATTEMPTS", 3)
	if attempts > MaxSideEffectAttempts {
		zap.L().Warn("SIDE_EFFECT_MAX_ATTEMPTS exceeds safety limit, clamping",
			zap.Int("requested", attempts),
			zap.Int("limit", MaxSideEffectAttempts),
		)
		attempts = MaxSideEffectAttempts
	} else if attempts < MinSideEffectAttempts {
		attempts = MinSideEffectAttempts
	}

	policy := strings.ToLower(getEnv("ALERT_ANCHOR_POLICY", AnchorLastPayment))
	if policy != AnchorLastPayment && policy != AnchorJoiningDay {
		zap.L().Warn("unknown ALERT_ANCHOR_POLICY, using default",
			zap.String("requested", policy),
			zap.String("default", AnchorLastPayment),
		)
		policy = AnchorLastPayment
	}

	return &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		Port:     getEnv("PORT", "3000"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Database: DatabaseConfig{
			Host:       getEnv("DB_HOST", "localhost"),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", "postgres"),
			Name:       getEnv("DB_NAME", "salary_tracker"),
			Port:       getEnv("DB_PORT", "5432"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			MaxRetries: getEnvInt("DB_MAX_RETRIES", 5),
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Kafka: KafkaConfig{
			Broker:             getEnv("KAFKA_BROKER", ""),
			GroupID:            getEnv("KAFKA_GROUP_ID", "go-salary-side-effects"),
			OutboxPollInterval: time.Duration(getEnvInt("OUTBOX_POLL_INTERVAL_SEC", 3)) * time.Second,
		},
		Auth: AuthConfig{
			JWTSecret:       getEnv("JWT_SECRET", ""),
			AccessTokenTTL:  time.Duration(getEnvInt("ACCESS_TOKEN_TTL_MIN", 15)) * time.Minute,
			RefreshTokenTTL: time.Duration(getEnvInt("REFRESH_TOKEN_TTL_HOURS", 168)) * time.Hour,
			AdminEmail:      getEnv("ADMIN_EMAIL", ""),
			AdminName:       getEnv("ADMIN_NAME", "Administrator"),
			AdminPassword:   getEnv("ADMIN_PASSWORD", ""),
		},
		Receipt: ReceiptConfig{
			Dir:           getEnv("RECEIPT_DIR", "./storage"),
			PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),
			URLTTL:        time.Duration(getEnvInt("RECEIPT_URL_TTL_HOURS", 24*30)) * time.Hour,
			MaxSizeBytes:  int64(getEnvInt("RECEIPT_MAX_SIZE_MB", 10)) << 20,
		},
		Email: EmailConfig{
			SendGridAPIKey:     getEnv("SENDGRID_API_KEY", ""),
			SendGridHost:       getEnv("SENDGRID_HOST", "https://api.sendgrid.com"),
			FromAddress:        getEnv("EMAIL_FROM", ""),
			FromName:           getEnv("EMAIL_FROM_NAME", "Salary Tracker"),
			PaymentTemplateID:  getEnv("PAYMENT_TEMPLATE_ID", ""),
			ReminderTemplateID: getEnv("REMINDER_TEMPLATE_ID", ""),
			AlertRecipients:    getEnvList("ALERT_RECIPIENTS"),
		},
		Export: ExportConfig{
			URL:     getEnv("EXPORT_URL", ""),
			Token:   getEnv("EXPORT_TOKEN", ""),
			Timeout: time.Duration(getEnvInt("EXPORT_TIMEOUT_SEC", 10)) * time.Second,
		},
		SideEffects: SideEffectConfig{
			MaxAttempts: attempts,
			Timeout:     time.Duration(getEnvInt("SIDE_EFFECT_TIMEOUT_SEC", 10)) * time.Second,
		},
		Alert: AlertConfig{
			AnchorPolicy: policy,
			DigestCron:   getEnv("ALERT_DIGEST_CRON", "0 9 * * *"),
			Timezone:     getEnv("ALERT_TIMEZONE", "UTC"),
		},
	}
}

// Validate checks settings without which the API cannot serve requests.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}

	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
