// Package seeder fills an origination service with realistic borrowers,
// loan applications and documents for demos and load tests.
package seeder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete seeder configuration
type Config struct {
	Borrowers       int           `mapstructure:"borrowers" yaml:"borrowers"`
	ApplicationsMin int           `mapstructure:"applications_min" yaml:"applications_min"`
	ApplicationsMax int           `mapstructure:"applications_max" yaml:"applications_max"`
	DocumentsPer    int           `mapstructure:"documents_per_application" yaml:"documents_per_application"`
	Interval        time.Duration `mapstructure:"interval" yaml:"interval"`
	Seed            int64         `mapstructure:"seed" yaml:"seed"`
	Loans           LoanConfig    `mapstructure:"loans" yaml:"loans"`
}

// LoanConfig bounds the generated loan terms.
type LoanConfig struct {
	AmountMin float64 `mapstructure:"amount_min" yaml:"amount_min"`
	AmountMax float64 `mapstructure:"amount_max" yaml:"amount_max"`
	RateMin   float64 `mapstructure:"rate_min" yaml:"rate_min"`
	RateMax   float64 `mapstructure:"rate_max" yaml:"rate_max"`
	Terms     []int   `mapstructure:"terms" yaml:"terms"`
}

// LoadConfig loads configuration with cascade: flags > ./seeder.yaml > ~/.lendctl/seeder.yaml > defaults
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("seeder")
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SEEDER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".lendctl"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("borrowers", 25)
	v.SetDefault("applications_min", 1)
	v.SetDefault("applications_max", 3)
	v.SetDefault("documents_per_application", 2)
	v.SetDefault("interval", 0)
	v.SetDefault("seed", 0)
	v.SetDefault("loans.amount_min", 1000)
	v.SetDefault("loans.amount_max", 75000)
	v.SetDefault("loans.rate_min", 3.5)
	v.SetDefault("loans.rate_max", 18)
	v.SetDefault("loans.terms", []int{12, 24, 36, 48, 60})
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch {
	case c.Borrowers <= 0:
		return errors.New("borrowers must be positive")
	case c.ApplicationsMin < 0 || c.ApplicationsMax < c.ApplicationsMin:
		return fmt.Errorf("applications range %d..%d is invalid", c.ApplicationsMin, c.ApplicationsMax)
	case c.DocumentsPer < 0:
		return errors.New("documents_per_application must not be negative")
	case c.Loans.AmountMin <= 0 || c.Loans.AmountMax < c.Loans.AmountMin:
		return fmt.Errorf("loan amount range %.2f..%.2f is invalid", c.Loans.AmountMin, c.Loans.AmountMax)
	case c.Loans.RateMin < 0 || c.Loans.RateMax < c.Loans.RateMin:
		return fmt.Errorf("interest rate range %.2f..%.2f is invalid", c.Loans.RateMin, c.Loans.RateMax)
	case len(c.Loans.Terms) == 0:
		return errors.New("at least one loan term is required")
	}
	for _, t := range c.Loans.Terms {
		if t <= 0 {
			return fmt.Errorf("loan term %d must be positive", t)
		}
	}
	return nil
}
