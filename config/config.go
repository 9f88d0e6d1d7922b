// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the settings shared by the server, the workers and the starter.
type Config struct {
	APIBaseURL            string `mapstructure:"API_BASE_URL"`
	AuthRefreshURL        string `mapstructure:"AUTH_REFRESH_URL"`
	AuthRefreshToken      string `mapstructure:"AUTH_REFRESH_TOKEN"`
	RequestTimeoutSeconds int    `mapstructure:"REQUEST_TIMEOUT_SECONDS"`
	TemporalHostPort      string `mapstructure:"TEMPORAL_HOST_PORT"`
	TemporalNamespace     string `mapstructure:"TEMPORAL_NAMESPACE"`
	DatabaseURL           string `mapstructure:"DATABASE_URL"`
	RabbitMQURL           string `mapstructure:"RABBITMQ_URL"`
	OnboardingExchange    string `mapstructure:"ONBOARDING_EXCHANGE"`
	ServerPort            string `mapstructure:"SERVER_PORT"`
}

var keys = []string{
	"API_BASE_URL",
	"AUTH_REFRESH_URL",
	"AUTH_REFRESH_TOKEN",
	"REQUEST_TIMEOUT_SECONDS",
	"TEMPORAL_HOST_PORT",
	"TEMPORAL_NAMESPACE",
	"DATABASE_URL",
	"RABBITMQ_URL",
	"ONBOARDING_EXCHANGE",
	"SERVER_PORT",
}

func setDefaults() {
	viper.SetDefault("REQUEST_TIMEOUT_SECONDS", 30)
	viper.SetDefault("TEMPORAL_HOST_PORT", "localhost:7233")
	viper.SetDefault("TEMPORAL_NAMESPACE", "default")
	viper.SetDefault("ONBOARDING_EXCHANGE", "customer_events")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.AutomaticEnv()

	// Bind explicitly so every key appears in Unmarshal.
	for _, key := range keys {
		_ = viper.BindEnv(key)
	}
}

// LoadConfig reads configuration from environment variables and validates it.
// DATABASE_URL and RABBITMQ_URL are optional: without them the journal is kept
// in memory and no events are published.
func LoadConfig() (*Config, error) {
	setDefaults()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadTemporalConfig reads configuration without validating the API
// settings. The workflow worker and the starter only talk to Temporal.
func LoadTemporalConfig() (*Config, error) {
	setDefaults()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every missing required key at once.
func (c *Config) Validate() error {
	var missing []string
	if c.APIBaseURL == "" {
		missing = append(missing, "API_BASE_URL")
	}
	if c.AuthRefreshURL == "" {
		missing = append(missing, "AUTH_REFRESH_URL")
	}
	if c.AuthRefreshToken == "" {
		missing = append(missing, "AUTH_REFRESH_TOKEN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be positive, got %d", c.RequestTimeoutSeconds)
	}
	return nil
}

// RequestTimeout is the per-request timeout of the remote HTTP clients.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}
