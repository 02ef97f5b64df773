package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	Redis        RedisConfig
	SMTP         SMTPConfig
	RateLimit    RateLimitConfig
	Outbox       OutboxConfig
	Notification NotificationConfig
	Billing      BillingConfig
}

type BillingConfig struct {
	// WebhookSecret authenticates billing provider callbacks. Verification
	// is skipped when empty, which is only acceptable in development.
	WebhookSecret string `mapstructure:"webhook_secret" envconfig:"BILLING_WEBHOOK_SECRET"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port" envconfig:"SERVER_PORT"`
	TimeoutSeconds int `mapstructure:"timeoutSeconds" envconfig:"SERVER_TIMEOUT_SECONDS"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host" envconfig:"DB_HOST"`
	Port         int    `mapstructure:"port" envconfig:"DB_PORT"`
	User         string `mapstructure:"user" envconfig:"DB_USER"`
	Password     string `mapstructure:"password" envconfig:"DB_PASSWORD"`
	Name         string `mapstructure:"name" envconfig:"DB_NAME"`
	SSLMode      string `mapstructure:"sslmode" envconfig:"DB_SSLMODE"`
	MaxOpenConns int    `mapstructure:"max_open_conns" envconfig:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" envconfig:"DB_MAX_IDLE_CONNS"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret" envconfig:"JWT_SECRET"`
	ExpiryHours int    `mapstructure:"expiry_hours" envconfig:"JWT_EXPIRY_HOURS"`
}

func (c JWTConfig) Expiry() time.Duration {
	return time.Duration(c.ExpiryHours) * time.Hour
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" envconfig:"REDIS_ADDR"`
	Password string `mapstructure:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"db" envconfig:"REDIS_DB"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host" envconfig:"SMTP_HOST"`
	Port     int    `mapstructure:"port" envconfig:"SMTP_PORT"`
	Username string `mapstructure:"username" envconfig:"SMTP_USERNAME"`
	Password string `mapstructure:"password" envconfig:"SMTP_PASSWORD"`
	From     string `mapstructure:"from" envconfig:"SMTP_FROM"`
}

// RateLimitConfig throttles the unauthenticated public booking surface.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" envconfig:"RATE_LIMIT_RPS"`
	Burst             int     `mapstructure:"burst" envconfig:"RATE_LIMIT_BURST"`
}

type OutboxConfig struct {
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds" envconfig:"OUTBOX_POLL_INTERVAL_SECONDS"`
	BatchSize           int `mapstructure:"batch_size" envconfig:"OUTBOX_BATCH_SIZE"`
	RetentionDays       int `mapstructure:"retention_days" envconfig:"OUTBOX_RETENTION_DAYS"`
}

func (c OutboxConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

type NotificationConfig struct {
	// Enabled switches between the SMTP sender and the no-op sender.
	Enabled bool `mapstructure:"enabled" envconfig:"NOTIFICATIONS_ENABLED"`
}

// LoadConfig reads config.yaml and then applies environment overrides, so
// deployments can keep secrets out of the file.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to apply env overrides: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.TimeoutSeconds == 0 {
		c.Server.TimeoutSeconds = 30
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.JWT.ExpiryHours == 0 {
		c.JWT.ExpiryHours = 24
	}
	if c.RateLimit.RequestsPerSecond == 0 {
		c.RateLimit.RequestsPerSecond = 5
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 10
	}
	if c.Outbox.PollIntervalSeconds == 0 {
		c.Outbox.PollIntervalSeconds = 5
	}
	if c.Outbox.BatchSize == 0 {
		c.Outbox.BatchSize = 50
	}
	if c.Outbox.RetentionDays == 0 {
		c.Outbox.RetentionDays = 30
	}
}
