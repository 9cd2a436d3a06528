// Package config provides configuration loading for the origination service.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	common "github.com/lendline/lendline-stack/common/config"
)

// Config holds all configuration for the origination service
type Config struct {
	common.Infra `mapstructure:",squash"`
	IDs          IDConfig    `mapstructure:"ids"`
	Events       EventConfig `mapstructure:"events"`
}

// IDConfig configures entity id generation.
type IDConfig struct {
	// NodeID must be unique per running instance (0-1023).
	NodeID int64 `mapstructure:"node_id"`
}

// EventConfig configures outgoing events.
type EventConfig struct {
	// Actor is stamped on events that carry no acting user.
	Actor string `mapstructure:"actor"`
}

// Load reads configuration from file and environment variables (ORIGINATION_SERVER_PORT, etc.)
func Load(configPath string) (*Config, error) {
	v := viper.New()
	common.SetInfraDefaults(v, "origination", 8081)
	v.SetDefault("ids.node_id", 1)
	v.SetDefault("events.actor", "origination-service")

	var cfg Config
	if err := common.Load(v, "ORIGINATION", configPath, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the shared sections and the id node.
func (c *Config) Validate() error {
	if err := c.Infra.Validate(); err != nil {
		return err
	}
	if c.IDs.NodeID < 0 || c.IDs.NodeID > 1023 {
		return fmt.Errorf("ids.node_id must be between 0 and 1023, got %d", c.IDs.NodeID)
	}
	return nil
}
