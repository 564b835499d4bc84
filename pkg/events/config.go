package events

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/S-Corkum/eventbus/pkg/observability"
)

// Config holds the registry configuration
type Config struct {
	Observability observability.Config `mapstructure:"observability"`
}

// LoadConfig loads configuration from file and environment variables.
// The file path is taken from EVENTBUS_CONFIG_FILE and defaults to
// configs/eventbus.yaml; a missing file is fine as long as the
// environment provides what the defaults do not.
func LoadConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	configFile := os.Getenv("EVENTBUS_CONFIG_FILE")
	if configFile == "" {
		configFile = "configs/eventbus.yaml"
	}
	v.SetConfigFile(configFile)

	// Read from environment variables prefixed with EVENTBUS_
	v.SetEnvPrefix("EVENTBUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Config file is not required if environment variables are set
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Logging defaults
	v.SetDefault("observability.logging.level", "INFO")
	v.SetDefault("observability.logging.prefix", "eventbus")

	// Metrics defaults
	v.SetDefault("observability.metrics.enabled", false)
	v.SetDefault("observability.metrics.namespace", "eventbus")
	v.SetDefault("observability.metrics.subsystem", "registry")

	// Tracing defaults
	v.SetDefault("observability.tracing.enabled", false)
	v.SetDefault("observability.tracing.service_name", "eventbus")
}

// NewRegistryFromConfig builds a registry wired with the logger, metrics
// client, and tracing behavior the configuration asks for.
func NewRegistryFromConfig(cfg *Config) *Registry {
	if cfg == nil {
		return NewRegistry(nil, nil)
	}

	logger := observability.NewStandardLoggerWithLevel(
		cfg.Observability.Logging.Prefix,
		observability.LogLevel(strings.ToUpper(cfg.Observability.Logging.Level)),
	)

	var metrics observability.MetricsClient
	if cfg.Observability.Metrics.Enabled {
		metrics = observability.NewPrometheusMetricsClient(
			cfg.Observability.Metrics.Namespace,
			cfg.Observability.Metrics.Subsystem,
		)
	} else {
		metrics = observability.NewNoOpMetricsClient()
	}

	registry := NewRegistry(logger, metrics)
	if !cfg.Observability.Tracing.Enabled {
		registry.startSpan = observability.NoopStartSpan
	}
	return registry
}
