package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendline/lendline-stack/common/models"
)

var baseTime = time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)

func testBorrower(id int64) *models.Borrower {
	return &models.Borrower{
		ID:               id,
		FirstName:        "Katherine",
		LastName:         "Johnson",
		Email:            "kj@example.com",
		AnnualIncome:     72000,
		EmploymentStatus: models.EmploymentEmployed,
		CreatedAt:        baseTime,
		UpdatedAt:        baseTime,
	}
}

func testApplication(id, borrowerID int64) *models.LoanApplication {
	return &models.LoanApplication{
		ID:             id,
		BorrowerID:     borrowerID,
		LoanAmount:     25000,
		TermMonths:     60,
		InterestRate:   7.25,
		MonthlyPayment: 497.98,
		TotalPayment:   29878.8,
		Status:         models.LoanStatusSubmitted,
		CreatedAt:      baseTime,
		UpdatedAt:      baseTime,
	}
}

func testDocument(id, borrowerID int64, applicationID *int64, uploaded time.Time) *models.Document {
	return &models.Document{
		ID:            id,
		BorrowerID:    borrowerID,
		ApplicationID: applicationID,
		DocumentType:  "BANK_STATEMENT",
		FileName:      "statement.pdf",
		Status:        models.DocumentStatusPending,
		UploadedAt:    uploaded,
		UpdatedAt:     uploaded,
	}
}

func int64Ptr(v int64) *int64 { return &v }

// runRepositoryTests exercises any Repository implementation. newRepo must
// return an empty repository.
func runRepositoryTests(t *testing.T, newRepo func(t *testing.T) Repository) {
	ctx := context.Background()

	t.Run("replicas are created once", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateBorrower(ctx, testBorrower(1)))
		assert.ErrorIs(t, repo.CreateBorrower(ctx, testBorrower(1)), ErrBorrowerExists)

		require.NoError(t, repo.CreateApplication(ctx, testApplication(10, 1)))
		assert.ErrorIs(t, repo.CreateApplication(ctx, testApplication(10, 1)), ErrApplicationExists)

		require.NoError(t, repo.CreateDocument(ctx, testDocument(20, 1, int64Ptr(10), baseTime)))
		assert.ErrorIs(t, repo.CreateDocument(ctx, testDocument(20, 1, nil, baseTime)), ErrDocumentExists)

		ok, err := repo.BorrowerExists(ctx, 1)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = repo.DocumentExists(ctx, 20)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = repo.ApplicationExists(ctx, 11)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("application requires borrower", func(t *testing.T) {
		repo := newRepo(t)
		assert.ErrorIs(t, repo.CreateApplication(ctx, testApplication(10, 1)), ErrBorrowerNotFound)
	})

	t.Run("status update and history", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateBorrower(ctx, testBorrower(1)))
		require.NoError(t, repo.CreateApplication(ctx, testApplication(10, 1)))

		app, err := repo.GetApplication(ctx, 10)
		require.NoError(t, err)
		at := baseTime.Add(time.Hour)
		app.ApplyStatus(models.LoanStatusRejected, models.StatusChange{UpdatedBy: "officer-1", UpdatedAt: at, RejectionReason: "debt too high"})
		require.NoError(t, repo.UpdateApplicationStatus(ctx, app))
		require.NoError(t, repo.RecordStatusChange(ctx, &StatusChange{
			Entity: EntityApplication, EntityID: 10, BorrowerID: 1,
			OldStatus: "SUBMITTED", NewStatus: "REJECTED", UpdatedBy: "officer-1",
			RejectionReason: app.RejectionReason, ChangedAt: at,
		}))

		got, err := repo.GetApplication(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, models.LoanStatusRejected, got.Status)
		require.NotNil(t, got.RejectionReason)
		assert.Equal(t, "debt too high", *got.RejectionReason)

		history, err := repo.ListStatusChanges(ctx, EntityApplication, 10)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.NotZero(t, history[0].ID)
		assert.Equal(t, "REJECTED", history[0].NewStatus)
		assert.True(t, at.Equal(history[0].ChangedAt))

		history, err = repo.ListStatusChanges(ctx, EntityDocument, 10)
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("application documents ordered by upload", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateBorrower(ctx, testBorrower(1)))
		require.NoError(t, repo.CreateApplication(ctx, testApplication(10, 1)))
		require.NoError(t, repo.CreateDocument(ctx, testDocument(22, 1, int64Ptr(10), baseTime.Add(2*time.Hour))))
		require.NoError(t, repo.CreateDocument(ctx, testDocument(21, 1, int64Ptr(10), baseTime.Add(time.Hour))))
		require.NoError(t, repo.CreateDocument(ctx, testDocument(23, 1, nil, baseTime)))

		docs, err := repo.ListApplicationDocuments(ctx, 10)
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, int64(21), docs[0].ID)
		assert.Equal(t, int64(22), docs[1].ID)

		doc, err := repo.GetDocument(ctx, 23)
		require.NoError(t, err)
		doc.ApplyStatus(models.DocumentStatusExpired, models.StatusChange{UpdatedBy: "officer-2", UpdatedAt: baseTime})
		require.NoError(t, repo.UpdateDocumentStatus(ctx, doc))

		got, err := repo.GetDocument(ctx, 23)
		require.NoError(t, err)
		assert.Equal(t, models.DocumentStatusExpired, got.Status)

		_, err = repo.GetDocument(ctx, 99)
		assert.ErrorIs(t, err, ErrDocumentNotFound)
		assert.ErrorIs(t, repo.UpdateDocumentStatus(ctx, testDocument(99, 1, nil, baseTime)), ErrDocumentNotFound)
	})

	t.Run("transaction rolls back on error", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateBorrower(ctx, testBorrower(1)))
		require.NoError(t, repo.CreateApplication(ctx, testApplication(10, 1)))

		boom := errors.New("boom")
		err := repo.InTx(ctx, func(s Store) error {
			app, err := s.GetApplication(ctx, 10)
			if err != nil {
				return err
			}
			app.ApplyStatus(models.LoanStatusApproved, models.StatusChange{UpdatedBy: "officer-1", UpdatedAt: baseTime})
			if err := s.UpdateApplicationStatus(ctx, app); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := repo.GetApplication(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, models.LoanStatusSubmitted, got.Status)
	})
}
