package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// CLIConfig holds lendctl configuration (profiles and service endpoints).
type CLIConfig struct {
	CurrentProfile string                 `yaml:"current_profile" mapstructure:"current_profile"`
	Profiles       map[string]*CLIProfile `yaml:"profiles" mapstructure:"profiles"`
	Defaults       *CLIProfile            `yaml:"defaults" mapstructure:"defaults"`
	path           string
}

// CLIProfile holds endpoint configuration for one environment.
type CLIProfile struct {
	OriginationURL string `yaml:"origination_url" mapstructure:"origination_url"`
	ScoringURL     string `yaml:"scoring_url" mapstructure:"scoring_url"`
	ReviewURL      string `yaml:"review_url" mapstructure:"review_url"`
	WeightsFile    string `yaml:"weights_file,omitempty" mapstructure:"weights_file"`
}

// DefaultCLI returns a CLIConfig with default values
func DefaultCLI() *CLIConfig {
	return &CLIConfig{
		CurrentProfile: "default",
		Profiles:       make(map[string]*CLIProfile),
		Defaults: &CLIProfile{
			OriginationURL: "http://localhost:8081",
			ScoringURL:     "http://localhost:8082",
			ReviewURL:      "http://localhost:8083",
		},
	}
}

// LoadCLI loads configuration for lendctl.
// Uses $HOME/.lendctl unless LENDCTL_CONFIG_DIR is set.
func LoadCLI() (*CLIConfig, error) {
	v := viper.New()

	defaults := DefaultCLI()
	v.SetDefault("current_profile", defaults.CurrentProfile)
	v.SetDefault("defaults.origination_url", defaults.Defaults.OriginationURL)
	v.SetDefault("defaults.scoring_url", defaults.Defaults.ScoringURL)
	v.SetDefault("defaults.review_url", defaults.Defaults.ReviewURL)

	configDir := os.Getenv("LENDCTL_CONFIG_DIR")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to determine home directory: %w", err)
		}
		configDir = filepath.Join(home, ".lendctl")
	}

	configPath := filepath.Join(configDir, "config.yaml")
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("LENDCTL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Short forms, viper needs explicit bindings for nested keys
	_ = v.BindEnv("defaults.origination_url", "LENDCTL_ORIGINATION_URL")
	_ = v.BindEnv("defaults.scoring_url", "LENDCTL_SCORING_URL")
	_ = v.BindEnv("defaults.review_url", "LENDCTL_REVIEW_URL")
	_ = v.BindEnv("defaults.weights_file", "LENDCTL_WEIGHTS_FILE")

	_ = v.ReadInConfig() // file may not exist yet

	cfg := DefaultCLI()
	cfg.path = configPath

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]*CLIProfile)
	}

	return cfg, nil
}

// Save writes the CLI config to disk
func (c *CLIConfig) Save() error {
	if c.path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		c.path = filepath.Join(home, ".lendctl", "config.yaml")
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(c.path, data, 0600)
}

// SetProfile stores p under name and makes it current.
func (c *CLIConfig) SetProfile(name string, p *CLIProfile) error {
	if c.Profiles == nil {
		c.Profiles = make(map[string]*CLIProfile)
	}
	c.Profiles[name] = p
	c.CurrentProfile = name
	return c.Save()
}

// GetProfile retrieves a profile by name (or current profile if name is empty)
func (c *CLIConfig) GetProfile(name string) (*CLIProfile, error) {
	if name == "" {
		name = c.CurrentProfile
	}

	profile, ok := c.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("profile '%s' not found", name)
	}

	return profile, nil
}

// Resolve merges the named profile over the defaults.
func (c *CLIConfig) Resolve(name string) CLIProfile {
	out := CLIProfile{}
	if c.Defaults != nil {
		out = *c.Defaults
	}
	p, err := c.GetProfile(name)
	if err != nil {
		return out
	}
	if p.OriginationURL != "" {
		out.OriginationURL = p.OriginationURL
	}
	if p.ScoringURL != "" {
		out.ScoringURL = p.ScoringURL
	}
	if p.ReviewURL != "" {
		out.ReviewURL = p.ReviewURL
	}
	if p.WeightsFile != "" {
		out.WeightsFile = p.WeightsFile
	}
	return out
}
