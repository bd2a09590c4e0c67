package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENV" default:"production"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`

	// JWTSecret verifies tokens minted by the identity provider (Supabase / NextAuth).
	// It may hold an HMAC secret or a PEM public key.
	JWTSecret     string `envconfig:"JWT_SECRET" required:"true"`
	SessionSecret string `envconfig:"SESSION_SECRET"`
	SessionTTLHrs int    `envconfig:"SESSION_TTL_HOURS" default:"720"`
	FrontendURL   string `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`

	// Google OAuth sign-in
	GoogleClientID     string `envconfig:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `envconfig:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURI  string `envconfig:"GOOGLE_REDIRECT_URI"`

	// LLM vendor
	GeminiAPIKey    string `envconfig:"GEMINI_API_KEY"`
	GeminiModel     string `envconfig:"GEMINI_MODEL" default:"gemini-1.5-pro"`
	GeminiFastModel string `envconfig:"GEMINI_FAST_MODEL" default:"gemini-1.5-flash"`

	// AI-detection vendor
	AIDetectorAPIKey  string `envconfig:"AI_DETECTOR_API_KEY"`
	AIDetectorBaseURL string `envconfig:"AI_DETECTOR_BASE_URL" default:"https://api.gptzero.me/v2"`

	// Paystack
	PaystackSecretKey   string `envconfig:"PAYSTACK_SECRET_KEY"`
	PaystackPublicKey   string `envconfig:"PAYSTACK_PUBLIC_KEY"`
	PaystackBaseURL     string `envconfig:"PAYSTACK_BASE_URL" default:"https://api.paystack.co"`
	PaystackCallbackURL string `envconfig:"PAYSTACK_CALLBACK_URL"`

	PaystackPlanBasicMonthly string `envconfig:"PAYSTACK_PLAN_BASIC_MONTHLY"`
	PaystackPlanBasicAnnual  string `envconfig:"PAYSTACK_PLAN_BASIC_ANNUAL"`
	PaystackPlanProMonthly   string `envconfig:"PAYSTACK_PLAN_PRO_MONTHLY"`
	PaystackPlanProAnnual    string `envconfig:"PAYSTACK_PLAN_PRO_ANNUAL"`
	PaystackPlanUltraMonthly string `envconfig:"PAYSTACK_PLAN_ULTRA_MONTHLY"`
	PaystackPlanUltraAnnual  string `envconfig:"PAYSTACK_PLAN_ULTRA_ANNUAL"`

	// Rate limiting (disabled when RedisAddress is empty)
	RedisAddress       string `envconfig:"REDIS_ADDRESS"`
	RedisPassword      string `envconfig:"REDIS_PASSWORD"`
	RedisDB            int    `envconfig:"REDIS_DB" default:"0"`
	RateLimitPerMinute int    `envconfig:"RATE_LIMIT_PER_MINUTE" default:"20"`

	SentryDSN string `envconfig:"SENTRY_DSN"`

	// GCP (Pub/Sub usage events, Secret Manager)
	GCPProjectID         string `envconfig:"GCP_PROJECT_ID"`
	GCPCredentialsFile   string `envconfig:"GCP_CREDENTIALS_FILE"`
	PubSubUsageTopic     string `envconfig:"PUBSUB_USAGE_TOPIC"`
	SecretManagerEnabled bool   `envconfig:"SECRET_MANAGER_ENABLED" default:"false"`

	// S3-compatible storage for history exports
	S3URL       string `envconfig:"S3_URL"`
	S3Bucket    string `envconfig:"S3_BUCKET"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY"`

	// SMTP for notification emails
	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	SMTPFrom     string `envconfig:"SMTP_FROM" default:"no-reply@humanizer.app"`

	// Notification orchestrator settings
	NotificationQueueName           string `envconfig:"NOTIFICATION_QUEUE_NAME" default:"notification_queue"`
	NotificationPollTimeoutSec      int    `envconfig:"NOTIFICATION_POLL_TIMEOUT_SEC" default:"30"`
	NotificationPollMaxMsg          int    `envconfig:"NOTIFICATION_POLL_MAX_MSG" default:"1"`
	NotificationMaxRetries          int    `envconfig:"NOTIFICATION_MAX_RETRIES" default:"5"`
	NotificationBackoffInitialSec   int    `envconfig:"NOTIFICATION_BACKOFF_INITIAL_SEC" default:"1"`
	NotificationBackoffMaxSec       int    `envconfig:"NOTIFICATION_BACKOFF_MAX_SEC" default:"60"`
	NotificationDeadLetterQueueName string `envconfig:"NOTIFICATION_DEAD_LETTER_QUEUE_NAME" default:"notification_queue_dlq"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsDevelopment reports whether developer-only endpoints may be served.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// PlanCodes returns the configured Paystack plan codes keyed by "<tier>_<period>".
func (c *Config) PlanCodes() map[string]string {
	return map[string]string{
		"basic_monthly": c.PaystackPlanBasicMonthly,
		"basic_annual":  c.PaystackPlanBasicAnnual,
		"pro_monthly":   c.PaystackPlanProMonthly,
		"pro_annual":    c.PaystackPlanProAnnual,
		"ultra_monthly": c.PaystackPlanUltraMonthly,
		"ultra_annual":  c.PaystackPlanUltraAnnual,
	}
}

// SessionSigningKey returns the key used to mint first-party session tokens.
// Falls back to JWTSecret so a single HMAC secret can serve both roles.
func (c *Config) SessionSigningKey() string {
	if c.SessionSecret != "" {
		return c.SessionSecret
	}
	return c.JWTSecret
}
