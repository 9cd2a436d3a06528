package repository

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendline/lendline-stack/common/models"
)

var baseTime = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func testBorrower(id int64) *models.Borrower {
	years := 5
	return &models.Borrower{
		ID:               id,
		FirstName:        "Ada",
		LastName:         "Lovelace",
		Email:            "ada@example.com",
		AnnualIncome:     50000,
		EmploymentStatus: "employed",
		EmploymentYears:  &years,
		CreatedAt:        baseTime,
		UpdatedAt:        baseTime,
	}
}

func testApplication(id, borrowerID int64) *models.LoanApplication {
	return &models.LoanApplication{
		ID:             id,
		BorrowerID:     borrowerID,
		LoanAmount:     10000,
		TermMonths:     36,
		InterestRate:   5.5,
		MonthlyPayment: 302.89,
		TotalPayment:   10904.04,
		Status:         models.LoanStatusSubmitted,
		Purpose:        "car",
		CreatedAt:      baseTime,
		UpdatedAt:      baseTime,
	}
}

func testScore(appID, borrowerID int64, total int, grade models.Grade, risk models.Risk, at time.Time) *models.LoanScore {
	return &models.LoanScore{
		ApplicationID:     appID,
		BorrowerID:        borrowerID,
		TotalScore:        total,
		EmploymentScore:   100,
		Grade:             grade,
		Risk:              risk,
		DebtToIncomeRatio: 0.0727,
		Rationale:         "total=" + string(grade),
		CalculatedAt:      at,
	}
}

// runRepositoryTests exercises the behaviour every Repository implementation shares.
func runRepositoryTests(t *testing.T, newRepo func(t *testing.T) Repository) {
	ctx := context.Background()

	t.Run("borrower create and get", func(t *testing.T) {
		repo := newRepo(t)
		exists, err := repo.BorrowerExists(ctx, 1)
		require.NoError(t, err)
		assert.False(t, exists)

		require.NoError(t, repo.CreateBorrower(ctx, testBorrower(1)))
		assert.ErrorIs(t, repo.CreateBorrower(ctx, testBorrower(1)), ErrBorrowerExists)

		exists, err = repo.BorrowerExists(ctx, 1)
		require.NoError(t, err)
		assert.True(t, exists)

		got, err := repo.GetBorrower(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Ada", got.FirstName)
		assert.Equal(t, 50000.0, got.AnnualIncome)
		require.NotNil(t, got.EmploymentYears)
		assert.Equal(t, 5, *got.EmploymentYears)

		_, err = repo.GetBorrower(ctx, 2)
		assert.ErrorIs(t, err, ErrBorrowerNotFound)
	})

	t.Run("application requires borrower", func(t *testing.T) {
		repo := newRepo(t)
		assert.ErrorIs(t, repo.CreateApplication(ctx, testApplication(10, 1)), ErrBorrowerNotFound)

		require.NoError(t, repo.CreateBorrower(ctx, testBorrower(1)))
		require.NoError(t, repo.CreateApplication(ctx, testApplication(10, 1)))
		assert.ErrorIs(t, repo.CreateApplication(ctx, testApplication(10, 1)), ErrApplicationExists)

		got, err := repo.GetApplication(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, models.LoanStatusSubmitted, got.Status)
		assert.Equal(t, 36, got.TermMonths)

		_, err = repo.GetApplication(ctx, 11)
		assert.ErrorIs(t, err, ErrApplicationNotFound)
	})

	t.Run("one score per application", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateBorrower(ctx, testBorrower(1)))
		require.NoError(t, repo.CreateApplication(ctx, testApplication(10, 1)))

		require.NoError(t, repo.CreateScore(ctx, testScore(10, 1, 38, models.GradePoor, models.RiskHigh, baseTime)))
		assert.ErrorIs(t, repo.CreateScore(ctx, testScore(10, 1, 900, models.GradeExcellent, models.RiskLow, baseTime)), ErrScoreExists)

		got, err := repo.GetScore(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, 38, got.TotalScore)
		assert.Equal(t, models.GradePoor, got.Grade)

		_, err = repo.GetScore(ctx, 11)
		assert.ErrorIs(t, err, ErrScoreNotFound)
	})

	t.Run("score beyond int32 range", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateBorrower(ctx, testBorrower(1)))
		require.NoError(t, repo.CreateApplication(ctx, testApplication(10, 1)))

		score := testScore(10, 1, 100-2*math.MaxInt32, models.GradePoor, models.RiskHigh, baseTime)
		score.LoanRatioScore = -math.MaxInt32
		score.InterestRateScore = -math.MaxInt32
		require.NoError(t, repo.CreateScore(ctx, score))

		got, err := repo.GetScore(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, 100-2*math.MaxInt32, got.TotalScore)
		assert.Equal(t, -math.MaxInt32, got.LoanRatioScore)
		assert.Equal(t, -math.MaxInt32, got.InterestRateScore)
	})

	t.Run("transaction rollback", func(t *testing.T) {
		repo := newRepo(t)
		boom := errors.New("boom")
		err := repo.InTx(ctx, func(tx Tx) error {
			require.NoError(t, tx.CreateBorrower(ctx, testBorrower(1)))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		exists, err := repo.BorrowerExists(ctx, 1)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("savepoint failure keeps outer writes", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateBorrower(ctx, testBorrower(1)))

		boom := errors.New("scoring exploded")
		err := repo.InTx(ctx, func(tx Tx) error {
			if err := tx.CreateApplication(ctx, testApplication(10, 1)); err != nil {
				return err
			}
			spErr := tx.Savepoint(ctx, func(sp Tx) error {
				if err := sp.CreateScore(ctx, testScore(10, 1, 38, models.GradePoor, models.RiskHigh, baseTime)); err != nil {
					return err
				}
				return boom
			})
			assert.ErrorIs(t, spErr, boom)
			return nil
		})
		require.NoError(t, err)

		exists, err := repo.ApplicationExists(ctx, 10)
		require.NoError(t, err)
		assert.True(t, exists)

		_, err = repo.GetScore(ctx, 10)
		assert.ErrorIs(t, err, ErrScoreNotFound)
	})

	t.Run("savepoint success commits with outer", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateBorrower(ctx, testBorrower(1)))

		err := repo.InTx(ctx, func(tx Tx) error {
			if err := tx.CreateApplication(ctx, testApplication(10, 1)); err != nil {
				return err
			}
			return tx.Savepoint(ctx, func(sp Tx) error {
				return sp.CreateScore(ctx, testScore(10, 1, 38, models.GradePoor, models.RiskHigh, baseTime))
			})
		})
		require.NoError(t, err)

		got, err := repo.GetScore(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.BorrowerID)
	})

	t.Run("list scores with filters", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateBorrower(ctx, testBorrower(1)))
		require.NoError(t, repo.CreateBorrower(ctx, testBorrower(2)))

		fixtures := []struct {
			app, borrower int64
			total         int
			grade         models.Grade
			risk          models.Risk
		}{
			{10, 1, 38, models.GradePoor, models.RiskHigh},
			{11, 1, 700, models.GradeGood, models.RiskLow},
			{12, 2, 800, models.GradeExcellent, models.RiskLow},
			{13, 2, -120, models.GradePoor, models.RiskHigh},
		}
		for i, f := range fixtures {
			require.NoError(t, repo.CreateApplication(ctx, testApplication(f.app, f.borrower)))
			at := baseTime.Add(time.Duration(i) * time.Minute)
			require.NoError(t, repo.CreateScore(ctx, testScore(f.app, f.borrower, f.total, f.grade, f.risk, at)))
		}

		lo, hi := 0, 750
		tests := []struct {
			name    string
			filter  ScoreFilter
			wantIDs []int64
		}{
			{name: "all newest first", filter: ScoreFilter{}, wantIDs: []int64{13, 12, 11, 10}},
			{name: "by borrower", filter: ScoreFilter{BorrowerID: 1}, wantIDs: []int64{11, 10}},
			{name: "by grade", filter: ScoreFilter{Grade: models.GradePoor}, wantIDs: []int64{13, 10}},
			{name: "by risk", filter: ScoreFilter{Risk: models.RiskLow}, wantIDs: []int64{12, 11}},
			{name: "score range", filter: ScoreFilter{MinScore: &lo, MaxScore: &hi}, wantIDs: []int64{11, 10}},
			{name: "second page", filter: ScoreFilter{Page: 2, Limit: 3}, wantIDs: []int64{10}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				scores, total, err := repo.ListScores(ctx, tt.filter)
				require.NoError(t, err)
				ids := make([]int64, 0, len(scores))
				for _, sc := range scores {
					ids = append(ids, sc.ApplicationID)
				}
				assert.Equal(t, tt.wantIDs, ids)
				if tt.filter.Page < 2 {
					assert.Equal(t, len(tt.wantIDs), total)
				}
			})
		}
	})
}
