package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/mediconnect/mediconnect-api/internal/email"
	"github.com/mediconnect/mediconnect-api/internal/repository/postgres"
)

type Config struct {
	Server   ServerConfig      `mapstructure:"server"`
	Database postgres.DBConfig `mapstructure:"database"`
	Redis    RedisConfig       `mapstructure:"redis"`
	JWT      JWTConfig         `mapstructure:"jwt"`
	SMTP     email.Config      `mapstructure:"smtp"`
	Outbox   OutboxConfig      `mapstructure:"outbox"`
	Logging  LoggingConfig     `mapstructure:"logging"`
}

type ServerConfig struct {
	Port           int     `mapstructure:"port"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateBurst      int     `mapstructure:"rate_burst"`
}

type RedisConfig struct {
	URL          string `mapstructure:"url"`
	MaxRetries   int    `mapstructure:"max_retries"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

type JWTConfig struct {
	Secret             string `mapstructure:"secret"`
	RefreshSecret      string `mapstructure:"refresh_secret"`
	ExpiryHours        int    `mapstructure:"expiry_hours"`
	RefreshExpiryHours int    `mapstructure:"refresh_expiry_hours"`
}

type OutboxConfig struct {
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds"`
	BatchSize           int `mapstructure:"batch_size"`
	MaxRetries          int `mapstructure:"max_retries"`
	RetentionDays       int `mapstructure:"retention_days"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func (c *JWTConfig) Expiry() time.Duration {
	return time.Duration(c.ExpiryHours) * time.Hour
}

func (c *JWTConfig) RefreshExpiry() time.Duration {
	return time.Duration(c.RefreshExpiryHours) * time.Hour
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.JWT.Secret == "" || config.JWT.RefreshSecret == "" {
		return nil, fmt.Errorf("jwt secrets must be configured")
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.timeout_seconds", 30)
	viper.SetDefault("server.rate_limit", 100)
	viper.SetDefault("server.rate_burst", 200)
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("redis.url", "redis://localhost:6379/0")
	viper.SetDefault("redis.max_retries", 3)
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("redis.min_idle_conns", 2)
	viper.SetDefault("jwt.expiry_hours", 24)
	viper.SetDefault("jwt.refresh_expiry_hours", 168)
	viper.SetDefault("outbox.poll_interval_seconds", 5)
	viper.SetDefault("outbox.batch_size", 50)
	viper.SetDefault("outbox.max_retries", 5)
	viper.SetDefault("outbox.retention_days", 30)
	viper.SetDefault("logging.level", "info")
}
