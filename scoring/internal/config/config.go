// Package config provides configuration loading for the scoring service.
package config

import (
	"github.com/spf13/viper"

	common "github.com/lendline/lendline-stack/common/config"
	"github.com/lendline/lendline-stack/scoring/pkg/engine"
)

// Config holds all configuration for the scoring service
type Config struct {
	common.Infra `mapstructure:",squash"`
	Scoring      ScoringConfig `mapstructure:"scoring"`
}

// ScoringConfig holds the engine parameters. A weights file, when set,
// replaces the inline weights.
type ScoringConfig struct {
	Weights     engine.Weights `mapstructure:"weights"`
	WeightsFile string         `mapstructure:"weights_file"`
}

// Load reads configuration from file and environment variables (SCORING_SERVER_PORT, etc.)
func Load(configPath string) (*Config, error) {
	v := viper.New()
	common.SetInfraDefaults(v, "scoring", 8082)
	setWeightDefaults(v, engine.DefaultWeights())
	v.SetDefault("scoring.weights_file", "")

	var cfg Config
	if err := common.Load(v, "SCORING", configPath, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setWeightDefaults(v *viper.Viper, w engine.Weights) {
	v.SetDefault("scoring.weights.employment", w.Employment)
	v.SetDefault("scoring.weights.income_multiplier", w.IncomeMultiplier)
	v.SetDefault("scoring.weights.ratio_weight", w.RatioWeight)
	v.SetDefault("scoring.weights.no_income_ratio_score", w.NoIncomeRatioScore)
	v.SetDefault("scoring.weights.rate_penalty", w.RatePenalty)
	v.SetDefault("scoring.weights.year_bonus", w.YearBonus)
	v.SetDefault("scoring.weights.years_cap", w.YearsCap)
	v.SetDefault("scoring.weights.term_penalty", w.TermPenalty)

	v.SetDefault("scoring.weights.grades.excellent", w.Grades.Excellent)
	v.SetDefault("scoring.weights.grades.good", w.Grades.Good)
	v.SetDefault("scoring.weights.grades.fair", w.Grades.Fair)

	v.SetDefault("scoring.weights.risk.high_score_below", w.Risk.HighScoreBelow)
	v.SetDefault("scoring.weights.risk.high_dti_above", w.Risk.HighDTIAbove)
	v.SetDefault("scoring.weights.risk.high_employment", w.Risk.HighEmployment)
	v.SetDefault("scoring.weights.risk.low_score_at_least", w.Risk.LowScoreAtLeast)
	v.SetDefault("scoring.weights.risk.low_dti_below", w.Risk.LowDTIBelow)
	v.SetDefault("scoring.weights.risk.low_employment", w.Risk.LowEmployment)
}

// EngineWeights returns the weights the engine should use.
func (c *Config) EngineWeights() (engine.Weights, error) {
	if c.Scoring.WeightsFile != "" {
		return engine.LoadWeights(c.Scoring.WeightsFile)
	}
	return c.Scoring.Weights, c.Scoring.Weights.Validate()
}
