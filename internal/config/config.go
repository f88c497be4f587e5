// Package config provides configuration loading, validation, and management
// for the ShopMate application. It handles reading from YAML files,
// environment variables, setting default values, and validating parameters.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config defines the application configuration parameters for all components
// of the ShopMate system, including the HTTP server, logging, database,
// sessions, and the maintenance scheduler.
type Config struct {
	ListenAddr string `mapstructure:"listen_addr" validate:"required"`

	LogLevel string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogJSON  bool   `mapstructure:"log_json"`

	DBPath string `mapstructure:"db_path" validate:"required"`

	SessionTTL  time.Duration `mapstructure:"session_ttl"  validate:"min=1m,max=720h"`
	ResultLimit int           `mapstructure:"result_limit" validate:"min=1,max=50"`

	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`

	MaintenanceInterval time.Duration `mapstructure:"maintenance_interval" validate:"min=1m"`
}

// LoadConfig reads configuration from the given YAML file, layers
// SHOPMATE_-prefixed environment variables on top, applies defaults for
// anything unset, and validates the result. A missing config file is not an
// error; defaults and environment variables are used instead.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("SHOPMATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
			}
		}
		slog.Info("Config file not found, using defaults and environment", "path", path)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", true)
	v.SetDefault("db_path", "shopmate.db")
	v.SetDefault("session_ttl", 24*time.Hour)
	v.SetDefault("result_limit", 6)
	v.SetDefault("cors_allowed_origins", []string{"*"})
	v.SetDefault("maintenance_interval", 24*time.Hour)
}
