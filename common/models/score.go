package models

import (
	"fmt"
	"strings"
	"time"
)

// Grade buckets credit quality.
type Grade string

const (
	GradeExcellent Grade = "EXCELLENT"
	GradeGood      Grade = "GOOD"
	GradeFair      Grade = "FAIR"
	GradePoor      Grade = "POOR"
)

// ParseGrade accepts any casing.
func ParseGrade(s string) (Grade, error) {
	g := Grade(strings.ToUpper(strings.TrimSpace(s)))
	switch g {
	case GradeExcellent, GradeGood, GradeFair, GradePoor:
		return g, nil
	}
	return "", fmt.Errorf("unknown grade %q", s)
}

// Risk buckets lending risk. It is derived independently of Grade.
type Risk string

const (
	RiskLow    Risk = "LOW"
	RiskMedium Risk = "MEDIUM"
	RiskHigh   Risk = "HIGH"
)

// ParseRisk accepts any casing.
func ParseRisk(s string) (Risk, error) {
	r := Risk(strings.ToUpper(strings.TrimSpace(s)))
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return r, nil
	}
	return "", fmt.Errorf("unknown risk level %q", s)
}

// LoanScore is keyed by ApplicationID: one score per application, never recomputed
// or updated once stored.
type LoanScore struct {
	ApplicationID        int64     `json:"application_id"`
	BorrowerID           int64     `json:"borrower_id"`
	TotalScore           int       `json:"total_score"`
	EmploymentScore      int       `json:"employment_score"`
	IncomeScore          int       `json:"income_score"`
	LoanRatioScore       int       `json:"loan_ratio_score"`
	InterestRateScore    int       `json:"interest_rate_score"`
	EmploymentYearsScore int       `json:"employment_years_score"`
	LoanTermScore        int       `json:"loan_term_score"`
	Grade                Grade     `json:"grade"`
	Risk                 Risk      `json:"risk"`
	DebtToIncomeRatio    float64   `json:"debt_to_income_ratio"`
	Rationale            string    `json:"rationale"`
	CalculatedAt         time.Time `json:"calculated_at"`
}
