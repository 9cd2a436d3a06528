package engine

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendline/lendline-stack/common/models"
)

var calculatedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(DefaultWeights(), WithClock(func() time.Time { return calculatedAt }))
	require.NoError(t, err)
	return e
}

func intPtr(v int) *int { return &v }

func workedBorrower() *models.Borrower {
	return &models.Borrower{
		ID:               1001,
		AnnualIncome:     50000,
		EmploymentStatus: "employed",
		EmploymentYears:  intPtr(5),
	}
}

func workedApplication() *models.LoanApplication {
	return &models.LoanApplication{
		ID:             2002,
		BorrowerID:     1001,
		LoanAmount:     10000,
		InterestRate:   5.5,
		TermMonths:     36,
		MonthlyPayment: 302.89,
	}
}

func TestScore_WorkedExample(t *testing.T) {
	score, err := newEngine(t).Score(workedBorrower(), workedApplication())
	require.NoError(t, err)

	assert.Equal(t, 100, score.EmploymentScore)
	assert.Equal(t, 50, score.IncomeScore)
	assert.Equal(t, -10, score.LoanRatioScore)
	assert.Equal(t, -55, score.InterestRateScore)
	assert.Equal(t, 25, score.EmploymentYearsScore)
	assert.Equal(t, -72, score.LoanTermScore)
	assert.Equal(t, 38, score.TotalScore)
	assert.Equal(t, models.GradePoor, score.Grade)
	assert.Equal(t, 0.0727, score.DebtToIncomeRatio)
	assert.Equal(t, models.RiskHigh, score.Risk)

	assert.Equal(t, int64(2002), score.ApplicationID)
	assert.Equal(t, int64(1001), score.BorrowerID)
	assert.Equal(t, calculatedAt, score.CalculatedAt)
	assert.Equal(t,
		"employment(employed)=+100; income=+50; loan_ratio=-10; interest_rate=-55; "+
			"employment_years(5)=+25; loan_term(36m)=-72; total=38; grade=POOR; dti=0.0727; risk=HIGH",
		score.Rationale)
}

func TestScore_Deterministic(t *testing.T) {
	e := newEngine(t)
	first, err := e.Score(workedBorrower(), workedApplication())
	require.NoError(t, err)
	second, err := e.Score(workedBorrower(), workedApplication())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, math.Float64bits(first.DebtToIncomeRatio), math.Float64bits(second.DebtToIncomeRatio))
}

func TestScore_ZeroIncome(t *testing.T) {
	b := workedBorrower()
	b.AnnualIncome = 0

	score, err := newEngine(t).Score(b, workedApplication())
	require.NoError(t, err)
	assert.Equal(t, -100, score.LoanRatioScore)
	assert.Equal(t, 0, score.IncomeScore)
	assert.Equal(t, 0.0, score.DebtToIncomeRatio)

	b.AnnualIncome = -1200
	score, err = newEngine(t).Score(b, workedApplication())
	require.NoError(t, err)
	assert.Equal(t, -100, score.LoanRatioScore)
	assert.Equal(t, 0, score.IncomeScore)
}

func TestGrade_Boundaries(t *testing.T) {
	e := newEngine(t)
	tests := []struct {
		total int
		want  models.Grade
	}{
		{750, models.GradeExcellent},
		{749, models.GradeGood},
		{650, models.GradeGood},
		{649, models.GradeFair},
		{550, models.GradeFair},
		{549, models.GradePoor},
		{-300, models.GradePoor},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, e.Grade(tt.total), "total %d", tt.total)
	}
}

func TestRisk(t *testing.T) {
	e := newEngine(t)
	tests := []struct {
		name   string
		total  int
		dti    float64
		status string
		want   models.Risk
	}{
		{"low score", 449, 0.1, "employed", models.RiskHigh},
		{"high dti", 800, 0.51, "employed", models.RiskHigh},
		{"unemployed", 800, 0.1, "unemployed", models.RiskHigh},
		{"low", 650, 0.29, "employed", models.RiskLow},
		{"dti at low bound", 650, 0.3, "employed", models.RiskMedium},
		{"self-employed never low", 800, 0.1, "self-employed", models.RiskMedium},
		{"score at high bound", 450, 0.5, "retired", models.RiskMedium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Risk(tt.total, tt.dti, tt.status))
		})
	}
}

func TestComponents_Employment(t *testing.T) {
	e := newEngine(t)
	tests := []struct {
		status string
		want   int
	}{
		{"EMPLOYED", 100},
		{"Self_Employed", 75},
		{"self employed", 75},
		{"student", 25},
		{"retired", 50},
		{"unemployed", -50},
		{"contractor", 0},
		{"", 0},
	}
	for _, tt := range tests {
		c := e.Components(&models.Borrower{EmploymentStatus: tt.status}, &models.LoanApplication{})
		assert.Equal(t, tt.want, c.Employment, "status %q", tt.status)
	}
}

func TestComponents_EmploymentYears(t *testing.T) {
	e := newEngine(t)
	tests := []struct {
		name  string
		years *int
		want  int
	}{
		{"nil", nil, 0},
		{"negative", intPtr(-3), 0},
		{"zero", intPtr(0), 0},
		{"capped", intPtr(30), 100},
		{"exact cap", intPtr(20), 100},
		{"below cap", intPtr(7), 35},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := e.Components(&models.Borrower{EmploymentYears: tt.years}, &models.LoanApplication{})
			assert.Equal(t, tt.want, c.EmploymentYears)
		})
	}
}

func TestComponents_Truncation(t *testing.T) {
	e := newEngine(t)
	c := e.Components(
		&models.Borrower{AnnualIncome: 45999},
		&models.LoanApplication{LoanAmount: 7000, InterestRate: 3.99},
	)
	assert.Equal(t, 45, c.Income)
	assert.Equal(t, -7, c.LoanRatio)
	assert.Equal(t, -39, c.InterestRate)
}

func TestScore_NegativeTotalIsKept(t *testing.T) {
	score, err := newEngine(t).Score(
		&models.Borrower{ID: 1, EmploymentStatus: "unemployed"},
		&models.LoanApplication{ID: 2, BorrowerID: 1, LoanAmount: 50000, InterestRate: 24, TermMonths: 84},
	)
	require.NoError(t, err)
	assert.Equal(t, -50+0-100-240+0-168, score.TotalScore)
	assert.Equal(t, models.GradePoor, score.Grade)
	assert.Equal(t, models.RiskHigh, score.Risk)
}

func TestScore_InvalidInput(t *testing.T) {
	e := newEngine(t)

	_, err := e.Score(nil, workedApplication())
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.Score(workedBorrower(), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	app := workedApplication()
	app.BorrowerID = 9
	_, err = e.Score(workedBorrower(), app)
	assert.ErrorIs(t, err, ErrInvalidInput)

	b := workedBorrower()
	b.AnnualIncome = math.NaN()
	_, err = e.Score(b, workedApplication())
	assert.ErrorIs(t, err, ErrInvalidInput)

	app = workedApplication()
	app.InterestRate = math.Inf(1)
	_, err = e.Score(workedBorrower(), app)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDebtToIncome(t *testing.T) {
	assert.Equal(t, 0.0727, DebtToIncome(302.89, 50000))
	assert.Equal(t, 0.0, DebtToIncome(0, 50000))
	assert.Equal(t, 0.0, DebtToIncome(300, 0))
	assert.Equal(t, 0.6, DebtToIncome(500, 10000))
}

func TestNew_RejectsBadWeights(t *testing.T) {
	w := DefaultWeights()
	w.Grades.Good = w.Grades.Excellent
	_, err := New(w)
	assert.Error(t, err)
}

func TestLoadWeights(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")
	content := `
income_multiplier: 0.002
employment:
  CONTRACTOR: 60
grades:
  fair: 500
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	w, err := LoadWeights(path)
	require.NoError(t, err)
	assert.Equal(t, 0.002, w.IncomeMultiplier)
	assert.Equal(t, -0.5, w.RatioWeight)
	assert.Equal(t, 60, w.Employment["contractor"])
	assert.Equal(t, 100, w.Employment["employed"])
	assert.Equal(t, 500, w.Grades.Fair)
	assert.Equal(t, 750, w.Grades.Excellent)

	e, err := New(w)
	require.NoError(t, err)
	assert.Equal(t, 100, e.Components(&models.Borrower{AnnualIncome: 50000}, &models.LoanApplication{}).Income)
}

func TestLoadWeights_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.yaml")
	require.NoError(t, os.WriteFile(path, []byte("grades:\n  fair: 900\n"), 0o600))

	_, err := LoadWeights(path)
	assert.Error(t, err)
}

func TestScore_HugeLoanOnTinyIncomeSaturates(t *testing.T) {
	score, err := newEngine(t).Score(
		&models.Borrower{ID: 1, AnnualIncome: 0.0001, EmploymentStatus: "employed"},
		&models.LoanApplication{ID: 2, BorrowerID: 1, LoanAmount: 1e15, InterestRate: 5, TermMonths: 36},
	)
	require.NoError(t, err)
	assert.Equal(t, -math.MaxInt32, score.LoanRatioScore)
	assert.Equal(t, 100+0-math.MaxInt32-50+0-72, score.TotalScore)
	assert.Equal(t, models.GradePoor, score.Grade)
	assert.Equal(t, models.RiskHigh, score.Risk)
}

func TestComponents_Saturation(t *testing.T) {
	e := newEngine(t)
	tests := []struct {
		name string
		b    *models.Borrower
		app  *models.LoanApplication
		want Components
	}{
		{
			name: "huge income",
			b:    &models.Borrower{AnnualIncome: 1e300},
			app:  &models.LoanApplication{LoanAmount: 1},
			want: Components{Income: math.MaxInt32},
		},
		{
			name: "huge interest rate",
			b:    &models.Borrower{},
			app:  &models.LoanApplication{InterestRate: 1e12},
			want: Components{LoanRatio: -100, InterestRate: -math.MaxInt32},
		},
		{
			name: "huge term",
			b:    &models.Borrower{},
			app:  &models.LoanApplication{TermMonths: math.MaxInt64 / 2},
			want: Components{LoanRatio: -100, LoanTerm: -math.MaxInt32},
		},
		{
			name: "huge employment years stay capped",
			b:    &models.Borrower{EmploymentYears: intPtr(math.MaxInt64 / 4)},
			app:  &models.LoanApplication{},
			want: Components{LoanRatio: -100, EmploymentYears: 100},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Components(tt.b, tt.app))
		})
	}
}

func TestComponents_TruncationAbsorbsRoundingNoise(t *testing.T) {
	e := newEngine(t)
	// 87000/150000*100 evaluates to 57.99999999999999 in binary floating point.
	c := e.Components(
		&models.Borrower{AnnualIncome: 150000},
		&models.LoanApplication{LoanAmount: 87000},
	)
	assert.Equal(t, -29, c.LoanRatio)
	assert.Equal(t, 150, c.Income)
}
