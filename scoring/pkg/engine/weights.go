package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lendline/lendline-stack/common/config"
	"github.com/lendline/lendline-stack/common/models"
)

// Weights parameterizes every factor of the score. Services load them from the
// scoring.weights configuration section and optionally a YAML weights file.
type Weights struct {
	// Employment maps a normalized employment status to its points. Unlisted statuses score 0.
	Employment map[string]int `yaml:"employment" mapstructure:"employment"`

	IncomeMultiplier   float64 `yaml:"income_multiplier" mapstructure:"income_multiplier"`
	RatioWeight        float64 `yaml:"ratio_weight" mapstructure:"ratio_weight"`
	NoIncomeRatioScore int     `yaml:"no_income_ratio_score" mapstructure:"no_income_ratio_score"`
	RatePenalty        float64 `yaml:"rate_penalty" mapstructure:"rate_penalty"`
	YearBonus          int     `yaml:"year_bonus" mapstructure:"year_bonus"`
	YearsCap           int     `yaml:"years_cap" mapstructure:"years_cap"`
	TermPenalty        int     `yaml:"term_penalty" mapstructure:"term_penalty"`

	Grades GradeThresholds `yaml:"grades" mapstructure:"grades"`
	Risk   RiskThresholds  `yaml:"risk" mapstructure:"risk"`
}

// GradeThresholds are inclusive lower bounds, descending.
type GradeThresholds struct {
	Excellent int `yaml:"excellent" mapstructure:"excellent"`
	Good      int `yaml:"good" mapstructure:"good"`
	Fair      int `yaml:"fair" mapstructure:"fair"`
}

// RiskThresholds decide the risk level. HIGH wins over LOW.
type RiskThresholds struct {
	HighScoreBelow  int     `yaml:"high_score_below" mapstructure:"high_score_below"`
	HighDTIAbove    float64 `yaml:"high_dti_above" mapstructure:"high_dti_above"`
	HighEmployment  string  `yaml:"high_employment" mapstructure:"high_employment"`
	LowScoreAtLeast int     `yaml:"low_score_at_least" mapstructure:"low_score_at_least"`
	LowDTIBelow     float64 `yaml:"low_dti_below" mapstructure:"low_dti_below"`
	LowEmployment   string  `yaml:"low_employment" mapstructure:"low_employment"`
}

// DefaultWeights returns the production weights.
func DefaultWeights() Weights {
	return Weights{
		Employment: map[string]int{
			models.EmploymentUnemployed:   -50,
			models.EmploymentEmployed:     100,
			models.EmploymentSelfEmployed: 75,
			models.EmploymentStudent:      25,
			models.EmploymentRetired:      50,
		},
		IncomeMultiplier:   0.001,
		RatioWeight:        -0.5,
		NoIncomeRatioScore: -100,
		RatePenalty:        -10,
		YearBonus:          5,
		YearsCap:           100,
		TermPenalty:        -2,
		Grades: GradeThresholds{
			Excellent: 750,
			Good:      650,
			Fair:      550,
		},
		Risk: RiskThresholds{
			HighScoreBelow:  450,
			HighDTIAbove:    0.5,
			HighEmployment:  models.EmploymentUnemployed,
			LowScoreAtLeast: 650,
			LowDTIBelow:     0.3,
			LowEmployment:   models.EmploymentEmployed,
		},
	}
}

// LoadWeights reads a YAML weights file over the defaults. Keys absent from the
// file keep their default value.
func LoadWeights(path string) (Weights, error) {
	w := DefaultWeights()
	if err := config.ReadYAML(path, &w); err != nil {
		return Weights{}, err
	}
	w.Employment = normalizeTable(w.Employment)
	if err := w.Validate(); err != nil {
		return Weights{}, fmt.Errorf("weights file %s: %w", path, err)
	}
	return w, nil
}

// Validate checks that grade thresholds descend and that ratios are sane.
func (w Weights) Validate() error {
	var errs []error
	if !(w.Grades.Excellent > w.Grades.Good && w.Grades.Good > w.Grades.Fair) {
		errs = append(errs, fmt.Errorf("grade thresholds must descend: excellent=%d good=%d fair=%d",
			w.Grades.Excellent, w.Grades.Good, w.Grades.Fair))
	}
	if w.Risk.HighDTIAbove < 0 || w.Risk.LowDTIBelow < 0 {
		errs = append(errs, errors.New("risk DTI thresholds must not be negative"))
	}
	if w.YearsCap < 0 {
		errs = append(errs, errors.New("years_cap must not be negative"))
	}
	return errors.Join(errs...)
}

// NormalizeEmployment lowercases s and maps "_" and spaces to "-", so
// "SELF_EMPLOYED" and "Self Employed" both become "self-employed".
func NormalizeEmployment(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("_", "-", " ", "-").Replace(s)
}

func normalizeTable(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[NormalizeEmployment(k)] = v
	}
	return out
}
