// Package engine computes the deterministic credit score of a loan application.
// It performs no I/O: weights and the clock are injected.
package engine

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/lendline/lendline-stack/common/models"
)

// ErrInvalidInput is returned for inputs the engine refuses to score.
var ErrInvalidInput = errors.New("invalid scoring input")

// Engine scores loan applications.
type Engine struct {
	weights Weights
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used for CalculatedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New returns an engine using w.
func New(w Weights, opts ...Option) (*Engine, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	w.Employment = normalizeTable(w.Employment)
	e := &Engine{weights: w, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Weights returns the weights in use.
func (e *Engine) Weights() Weights {
	return e.weights
}

// Components holds the six factor scores.
type Components struct {
	Employment      int
	Income          int
	LoanRatio       int
	InterestRate    int
	EmploymentYears int
	LoanTerm        int
}

// Total sums the components. The result is not clamped and may be negative.
// Each component is bounded by componentLimit, so the sum cannot overflow.
func (c Components) Total() int {
	return c.Employment + c.Income + c.LoanRatio + c.InterestRate + c.EmploymentYears + c.LoanTerm
}

// Score computes the score of app for its borrower b.
func (e *Engine) Score(b *models.Borrower, app *models.LoanApplication) (*models.LoanScore, error) {
	if err := validate(b, app); err != nil {
		return nil, err
	}

	status := NormalizeEmployment(b.EmploymentStatus)
	c := e.Components(b, app)
	total := c.Total()
	dti := DebtToIncome(app.MonthlyPayment, b.AnnualIncome)
	grade := e.Grade(total)
	risk := e.Risk(total, dti, status)

	return &models.LoanScore{
		ApplicationID:        app.ID,
		BorrowerID:           b.ID,
		TotalScore:           total,
		EmploymentScore:      c.Employment,
		IncomeScore:          c.Income,
		LoanRatioScore:       c.LoanRatio,
		InterestRateScore:    c.InterestRate,
		EmploymentYearsScore: c.EmploymentYears,
		LoanTermScore:        c.LoanTerm,
		Grade:                grade,
		Risk:                 risk,
		DebtToIncomeRatio:    dti,
		Rationale:            rationale(status, b.EmploymentYears, app.TermMonths, c, total, grade, dti, risk),
		CalculatedAt:         e.now().UTC(),
	}, nil
}

// Components computes the factor scores without validating the inputs.
func (e *Engine) Components(b *models.Borrower, app *models.LoanApplication) Components {
	w := e.weights
	c := Components{
		Employment:   saturate(float64(w.Employment[NormalizeEmployment(b.EmploymentStatus)])),
		InterestRate: truncate(app.InterestRate * w.RatePenalty),
		LoanTerm:     multiply(app.TermMonths, w.TermPenalty),
	}

	if b.AnnualIncome > 0 {
		c.Income = truncate(b.AnnualIncome * w.IncomeMultiplier)
		c.LoanRatio = truncate(app.LoanAmount / b.AnnualIncome * 100 * w.RatioWeight)
	} else {
		c.LoanRatio = w.NoIncomeRatioScore
	}

	if b.EmploymentYears != nil && *b.EmploymentYears > 0 {
		c.EmploymentYears = min(multiply(*b.EmploymentYears, w.YearBonus), w.YearsCap)
	}
	return c
}

// Grade maps a total score to its grade.
func (e *Engine) Grade(total int) models.Grade {
	g := e.weights.Grades
	switch {
	case total >= g.Excellent:
		return models.GradeExcellent
	case total >= g.Good:
		return models.GradeGood
	case total >= g.Fair:
		return models.GradeFair
	default:
		return models.GradePoor
	}
}

// Risk assesses the risk level. status must already be normalized.
func (e *Engine) Risk(total int, dti float64, status string) models.Risk {
	r := e.weights.Risk
	if total < r.HighScoreBelow || dti > r.HighDTIAbove || status == NormalizeEmployment(r.HighEmployment) {
		return models.RiskHigh
	}
	if total >= r.LowScoreAtLeast && dti < r.LowDTIBelow && status == NormalizeEmployment(r.LowEmployment) {
		return models.RiskLow
	}
	return models.RiskMedium
}

// DebtToIncome is the monthly payment over monthly income, rounded to 4 decimal
// places. It is 0 without income or payment.
func DebtToIncome(monthlyPayment, annualIncome float64) float64 {
	if annualIncome <= 0 || monthlyPayment <= 0 {
		return 0
	}
	return math.Round(monthlyPayment/(annualIncome/12)*1e4) / 1e4
}

// componentLimit bounds every factor score. Larger magnitudes saturate.
const componentLimit = math.MaxInt32

// truncate drops the fractional part after absorbing binary rounding noise,
// so 0.2*100 counts as 20 and not 19.
func truncate(v float64) int {
	return saturate(math.Trunc(math.Round(v*1e9) / 1e9))
}

// multiply returns a*b saturated to componentLimit.
func multiply(a, b int) int {
	return saturate(float64(a) * float64(b))
}

func saturate(v float64) int {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= componentLimit:
		return componentLimit
	case v <= -componentLimit:
		return -componentLimit
	}
	return int(v)
}

func validate(b *models.Borrower, app *models.LoanApplication) error {
	if b == nil {
		return fmt.Errorf("%w: nil borrower", ErrInvalidInput)
	}
	if app == nil {
		return fmt.Errorf("%w: nil loan application", ErrInvalidInput)
	}
	if app.BorrowerID != b.ID {
		return fmt.Errorf("%w: application %d belongs to borrower %d, not %d", ErrInvalidInput, app.ID, app.BorrowerID, b.ID)
	}
	fields := []struct {
		name string
		v    float64
	}{
		{"annual_income", b.AnnualIncome},
		{"loan_amount", app.LoanAmount},
		{"interest_rate", app.InterestRate},
		{"monthly_payment", app.MonthlyPayment},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidInput, f.name)
		}
	}
	return nil
}

func rationale(status string, years *int, term int, c Components, total int, grade models.Grade, dti float64, risk models.Risk) string {
	if status == "" {
		status = "unknown"
	}
	yrs := "none"
	if years != nil {
		yrs = fmt.Sprintf("%d", *years)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "employment(%s)=%+d; ", status, c.Employment)
	fmt.Fprintf(&sb, "income=%+d; ", c.Income)
	fmt.Fprintf(&sb, "loan_ratio=%+d; ", c.LoanRatio)
	fmt.Fprintf(&sb, "interest_rate=%+d; ", c.InterestRate)
	fmt.Fprintf(&sb, "employment_years(%s)=%+d; ", yrs, c.EmploymentYears)
	fmt.Fprintf(&sb, "loan_term(%dm)=%+d; ", term, c.LoanTerm)
	fmt.Fprintf(&sb, "total=%d; grade=%s; dti=%.4f; risk=%s", total, grade, dti, risk)
	return sb.String()
}
