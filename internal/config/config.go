package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// DefaultJWTSecret is only acceptable outside production.
const DefaultJWTSecret = "change-me-in-production"

type Config struct {
	// Database
	DatabaseURL string `envconfig:"DATABASE_URL" default:"sqlite://eshop.db"`

	// Redis, used for token revocation when set
	RedisURL string `envconfig:"REDIS_URL"`

	// Kafka
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"eshop-events"`
	KafkaGroupID string   `envconfig:"KAFKA_GROUP_ID" default:"eshop-worker"`

	// API Configuration
	APIPort        string   `envconfig:"API_PORT" default:"8080"`
	APIHost        string   `envconfig:"API_HOST" default:"0.0.0.0"`
	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	// JWT
	JWTSecret     string        `envconfig:"JWT_SECRET" default:"change-me-in-production"`
	JWTExpiration time.Duration `envconfig:"JWT_EXPIRATION" default:"12h"`

	// Directory with JSON settings files from older deployments
	DataDir string `envconfig:"DATA_DIR" default:"data"`

	Flexibee  FlexibeeConfig  `envconfig:"FLEXIBEE"`
	SMTP      SMTPConfig      `envconfig:"SMTP"`
	Telegram  TelegramConfig  `envconfig:"TELEGRAM"`
	Messenger MessengerConfig `envconfig:"MESSENGER"`

	// Environment
	Env       string `envconfig:"ENV" default:"development"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`
}

// FlexibeeConfig values take precedence over the settings stored by admins.
type FlexibeeConfig struct {
	URL        string `envconfig:"URL"`
	Company    string `envconfig:"COMPANY"`
	Username   string `envconfig:"USERNAME"`
	Password   string `envconfig:"PASSWORD"`
	AutoExport bool   `envconfig:"AUTO_EXPORT" default:"false"`
}

type SMTPConfig struct {
	Host     string `envconfig:"HOST"`
	Port     int    `envconfig:"PORT" default:"587"`
	Username string `envconfig:"USERNAME"`
	Password string `envconfig:"PASSWORD"`
	From     string `envconfig:"FROM" default:"eshop@localhost"`
}

type TelegramConfig struct {
	APIEndpoint  string        `envconfig:"API_ENDPOINT" default:"https://api.telegram.org/bot%s/%s"`
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"5s"`
}

type MessengerConfig struct {
	APIURL string `envconfig:"API_URL" default:"https://graph.facebook.com/v18.0"`
}

func Load() (*Config, error) {
	// A missing .env file is fine, the environment may already be populated
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	return &cfg, nil
}

// KafkaEnabled reports whether domain events should go through Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0 && c.KafkaBrokers[0] != ""
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate rejects settings that must never reach a production deployment.
func (c *Config) Validate() error {
	if c.IsProduction() && (strings.TrimSpace(c.JWTSecret) == "" || c.JWTSecret == DefaultJWTSecret) {
		return fmt.Errorf("JWT_SECRET must be set to a private value in production")
	}
	return nil
}
