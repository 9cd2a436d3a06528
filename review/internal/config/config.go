// Package config provides configuration loading for the review service.
package config

import (
	"github.com/spf13/viper"

	common "github.com/lendline/lendline-stack/common/config"
	"github.com/lendline/lendline-stack/common/middleware"
)

// Config holds all configuration for the review service
type Config struct {
	common.Infra `mapstructure:",squash"`
	CORS         middleware.CORSConfig `mapstructure:"cors"`
	Events       EventConfig           `mapstructure:"events"`
}

// EventConfig configures outgoing status events.
type EventConfig struct {
	// Actor is used when a request carries no authenticated officer.
	Actor string `mapstructure:"actor"`
}

// Load reads configuration from file and environment variables (REVIEW_SERVER_PORT, etc.)
func Load(configPath string) (*Config, error) {
	v := viper.New()
	common.SetInfraDefaults(v, "review", 8083)

	// CORS defaults for the officer dashboard
	v.SetDefault("cors.allowed_origins", []string{})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Content-Type", "X-Request-ID", "X-Lendline-Actor"})
	v.SetDefault("cors.max_age", 600)

	v.SetDefault("events.actor", "review-service")

	var cfg Config
	if err := common.Load(v, "REVIEW", configPath, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
