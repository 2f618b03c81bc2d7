package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort  string `env:"APP_PORT" envDefault:"3000"`
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	AWSRegion      string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSEndpointURL string `env:"AWS_ENDPOINT_URL"` // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey   string `env:"AWS_SECRET_ACCESS_KEY"`
	DynamoTables   DynamoTables

	S3BucketName    string `env:"S3_BUCKET_NAME" envDefault:"medtrax-uploads"`
	S3PublicBaseURL string `env:"S3_PUBLIC_BASE_URL"`

	JWTSecret string        `env:"JWT_SECRET"`
	JWTExpiry time.Duration `env:"JWT_EXPIRY" envDefault:"1h"`
	OTPTTL    time.Duration `env:"OTP_TTL" envDefault:"10m"`

	OTPAttemptWindow time.Duration `env:"OTP_ATTEMPT_WINDOW" envDefault:"15m"`
	OTPAttemptMax    int           `env:"OTP_ATTEMPT_MAX" envDefault:"5"`
	RedisAddr        string        `env:"REDIS_ADDR"`
	RedisPassword    string        `env:"REDIS_PASSWORD"`
	RedisDB          int           `env:"REDIS_DB" envDefault:"0"`

	MailProvider   string `env:"MAIL_PROVIDER" envDefault:"smtp"` // "smtp" | "mailgun"
	SMTPHost       string `env:"SMTP_HOST" envDefault:"localhost"`
	SMTPPort       string `env:"SMTP_PORT" envDefault:"1025"`
	SMTPFrom       string `env:"SMTP_FROM" envDefault:"noreply@medtrax.app"`
	SMTPUsername   string `env:"SMTP_USERNAME"`
	SMTPPassword   string `env:"SMTP_PASSWORD"`
	MailgunDomain  string `env:"MAILGUN_DOMAIN"`
	MailgunAPIKey  string `env:"MAILGUN_API_KEY"`
	MailgunSender  string `env:"MAILGUN_SENDER"`

	SMSEnabled bool   `env:"SMS_ENABLED" envDefault:"false"`
	SNSRegion  string `env:"SNS_REGION" envDefault:"us-east-1"`

	VAPIDPublicKey  string `env:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `env:"VAPID_PRIVATE_KEY"`
	VAPIDSubject    string `env:"VAPID_SUBJECT" envDefault:"mailto:support@medtrax.app"`

	MLModelURL      string   `env:"ML_MODEL_URL" envDefault:"http://localhost:5001"`
	DefaultTimezone string   `env:"DEFAULT_TIMEZONE" envDefault:"UTC"`
	AllowedOrigins  []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"` // CORS allowed origins
	// TrustProxyHeaders takes the client address from X-Forwarded-For / X-Real-IP.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxyHeaders bool `env:"TRUST_PROXY_HEADERS" envDefault:"false"`
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users             string `env:"DYNAMO_TABLE_USERS" envDefault:"users"`
	OTPs              string `env:"DYNAMO_TABLE_OTPS" envDefault:"otps"`
	HealthMetrics     string `env:"DYNAMO_TABLE_HEALTH_METRICS" envDefault:"health_metrics"`
	Reminders         string `env:"DYNAMO_TABLE_REMINDERS" envDefault:"reminders"`
	Occurrences       string `env:"DYNAMO_TABLE_OCCURRENCES" envDefault:"reminder_occurrences"`
	PushSubscriptions string `env:"DYNAMO_TABLE_PUSH_SUBSCRIPTIONS" envDefault:"push_subscriptions"`
	Shops             string `env:"DYNAMO_TABLE_SHOPS" envDefault:"shops"`
	Reviews           string `env:"DYNAMO_TABLE_REVIEWS" envDefault:"reviews"`
}

// Load reads all configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
