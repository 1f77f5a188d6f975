package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()

	// Set defaults from DefaultConfig
	setDefaults(v, cfg)

	// Read from config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Config file not found is ok - we use defaults and env vars
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	// Read from environment variables
	v.SetEnvPrefix("FRAUD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal into config struct
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	// Server defaults
	v.SetDefault("server.host", cfg.Server.Host)
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout)

	// Database defaults
	v.SetDefault("database.host", cfg.Database.Host)
	v.SetDefault("database.port", cfg.Database.Port)
	v.SetDefault("database.user", cfg.Database.User)
	v.SetDefault("database.name", cfg.Database.Name)
	v.SetDefault("database.ssl_mode", cfg.Database.SSLMode)

	// Redis defaults
	v.SetDefault("redis.host", cfg.Redis.Host)
	v.SetDefault("redis.port", cfg.Redis.Port)
	v.SetDefault("redis.db", cfg.Redis.DB)
	v.SetDefault("redis.pool_size", cfg.Redis.PoolSize)

	// Kafka defaults
	v.SetDefault("kafka.brokers", cfg.Kafka.Brokers)
	v.SetDefault("kafka.assessments_topic", cfg.Kafka.AssessmentsTopic)
	v.SetDefault("kafka.high_risk_topic", cfg.Kafka.HighRiskTopic)
	v.SetDefault("kafka.feedback_topic", cfg.Kafka.FeedbackTopic)

	// Bank defaults
	v.SetDefault("bank.timeout", cfg.Bank.Timeout)

	// Fraud defaults
	v.SetDefault("fraud.batch_concurrency", cfg.Fraud.BatchConcurrency)
	v.SetDefault("fraud.scorer_timeout", cfg.Fraud.ScorerTimeout)
	v.SetDefault("fraud.preflight_window", cfg.Fraud.PreflightWindow)
	v.SetDefault("fraud.preflight_default_limit", cfg.Fraud.PreflightDefaultLimit)

	// ML defaults
	v.SetDefault("ml.enabled", cfg.ML.Enabled)
	v.SetDefault("ml.model_version", cfg.ML.ModelVersion)
	v.SetDefault("ml.timeout", cfg.ML.Timeout)
}
