package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the disaster recovery service
type Config struct {
	// Service configuration
	Service ServiceConfig `mapstructure:"service"`

	// HTTP server configuration
	HTTP HTTPConfig `mapstructure:"http"`

	// Scenario source configuration
	Scenarios ScenariosConfig `mapstructure:"scenarios"`

	// Notification configuration
	Notifications NotificationsConfig `mapstructure:"notifications"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`

	// Metrics configuration
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ServiceConfig contains general service configuration
type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`

	// Graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// HTTPConfig contains HTTP server configuration
type HTTPConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// ScenariosConfig points the scenario source at its definitions
type ScenariosConfig struct {
	// Path is a YAML file or a directory of YAML files
	Path string `mapstructure:"path"`
}

// NotificationsConfig contains notification dispatcher configuration
type NotificationsConfig struct {
	RatePerSecond    float64       `mapstructure:"rate_per_second"`
	Burst            int           `mapstructure:"burst"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
	OpenTimeout      time.Duration `mapstructure:"open_timeout"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig contains metrics configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoadConfig loads configuration from file and environment
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/disaster-recovery")

	viper.SetEnvPrefix("DISASTER_RECOVERY")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// No config file found: defaults and environment apply.
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults() {
	viper.SetDefault("service.name", "disaster-recovery")
	viper.SetDefault("service.version", "1.0.0")
	viper.SetDefault("service.environment", "development")
	viper.SetDefault("service.debug", false)
	viper.SetDefault("service.shutdown_timeout", "30s")

	viper.SetDefault("http.host", "0.0.0.0")
	viper.SetDefault("http.port", "8080")
	viper.SetDefault("http.read_timeout", "30s")
	viper.SetDefault("http.write_timeout", "30s")
	viper.SetDefault("http.idle_timeout", "120s")

	viper.SetDefault("scenarios.path", "./scenarios")

	viper.SetDefault("notifications.rate_per_second", 10)
	viper.SetDefault("notifications.burst", 20)
	viper.SetDefault("notifications.failure_threshold", 5)
	viper.SetDefault("notifications.open_timeout", "30s")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")
}

// Validate checks the configuration for inconsistencies
func (c *Config) Validate() error {
	if c.Service.Name == "" {
		return fmt.Errorf("service.name is required")
	}
	if c.HTTP.Port == "" {
		return fmt.Errorf("http.port is required")
	}
	if c.Scenarios.Path == "" {
		return fmt.Errorf("scenarios.path is required")
	}
	if c.Notifications.RatePerSecond <= 0 {
		return fmt.Errorf("notifications.rate_per_second must be positive")
	}
	return nil
}
