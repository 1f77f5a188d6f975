package config

import (
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Bank     BankConfig     `mapstructure:"bank"`
	Fraud    FraudConfig    `mapstructure:"fraud"`
	ML       MLConfig       `mapstructure:"ml"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers          []string `mapstructure:"brokers"`
	AssessmentsTopic string   `mapstructure:"assessments_topic"`
	HighRiskTopic    string   `mapstructure:"high_risk_topic"`
	FeedbackTopic    string   `mapstructure:"feedback_topic"`
}

// BankConfig holds bank connector gateway configuration
type BankConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// FraudConfig holds risk engine configuration
type FraudConfig struct {
	IPBlacklist      []string      `mapstructure:"ip_blacklist"`
	BatchConcurrency int           `mapstructure:"batch_concurrency"`
	ScorerTimeout    time.Duration `mapstructure:"scorer_timeout"`

	// Pre-flight rate limiting
	PreflightWindow       time.Duration  `mapstructure:"preflight_window"`
	PreflightDefaultLimit int            `mapstructure:"preflight_default_limit"`
	PreflightRateLimits   map[string]int `mapstructure:"preflight_rate_limits"`
}

// RateLimitFor returns the pre-flight request limit for an endpoint. Unknown
// endpoints get the default limit.
func (c *FraudConfig) RateLimitFor(endpoint string) int {
	if limit, ok := c.PreflightRateLimits[endpoint]; ok {
		return limit
	}
	return c.PreflightDefaultLimit
}

// MLConfig holds model scorer configuration
type MLConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Endpoint     string        `mapstructure:"endpoint"`
	ModelVersion string        `mapstructure:"model_version"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "fraud_user",
			Password:        "",
			Name:            "fraud_assessments",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Host:         "localhost",
			Port:         6379,
			Password:     "",
			DB:           0,
			PoolSize:     10,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:          []string{"localhost:9092"},
			AssessmentsTopic: "fraud-assessments",
			HighRiskTopic:    "high-risk-transactions",
			FeedbackTopic:    "model-feedback",
		},
		Bank: BankConfig{
			Endpoint: "",
			Timeout:  3 * time.Second,
		},
		Fraud: FraudConfig{
			IPBlacklist:           []string{},
			BatchConcurrency:      8,
			ScorerTimeout:         2 * time.Second,
			PreflightWindow:       time.Minute,
			PreflightDefaultLimit: 60,
			PreflightRateLimits: map[string]int{
				"/api/v1/fraud/assess":       60,
				"/api/v1/fraud/assess/batch": 10,
			},
		},
		ML: MLConfig{
			Enabled:      false, // fallback scorer works without it
			Endpoint:     "",
			ModelVersion: "v1.0.0",
			Timeout:      2 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
