package config

import (
	"errors"
)

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	if c.Fraud.BatchConcurrency <= 0 {
		return errors.New("batch_concurrency must be positive")
	}

	if c.Fraud.ScorerTimeout <= 0 {
		return errors.New("scorer_timeout must be positive")
	}

	if c.Fraud.PreflightWindow <= 0 {
		return errors.New("preflight_window must be positive")
	}

	if c.Fraud.PreflightDefaultLimit <= 0 {
		return errors.New("preflight_default_limit must be positive")
	}

	if c.ML.Enabled && c.ML.Endpoint == "" {
		return errors.New("ml.endpoint is required when ml.enabled is true")
	}

	return nil
}
