package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendline/lendline-stack/common/models"
)

var baseTime = time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)

func testBorrower(id int64, email string) *models.Borrower {
	years := 4
	return &models.Borrower{
		ID:          id,
		FirstName:   "Grace",
		LastName:    "Hopper",
		Email:       email,
		Phone:       "+1-555-0100",
		NationalID:  "123-45-6789",
		DateOfBirth: "1985-12-09",
		Address: models.Address{
			Line1:      "1 Main St",
			City:       "Arlington",
			State:      "VA",
			PostalCode: "22201",
			Country:    "US",
		},
		AnnualIncome:     85000,
		EmploymentStatus: models.EmploymentEmployed,
		EmploymentYears:  &years,
		CreatedAt:        baseTime.Add(time.Duration(id) * time.Minute),
		UpdatedAt:        baseTime.Add(time.Duration(id) * time.Minute),
	}
}

func testApplication(id, borrowerID int64) *models.LoanApplication {
	created := baseTime.Add(time.Duration(id) * time.Hour)
	return &models.LoanApplication{
		ID:             id,
		BorrowerID:     borrowerID,
		LoanAmount:     10000,
		TermMonths:     36,
		InterestRate:   5.5,
		MonthlyPayment: 301.96,
		TotalPayment:   10870.56,
		Status:         models.LoanStatusSubmitted,
		Purpose:        "home improvement",
		CreatedAt:      created,
		UpdatedAt:      created,
	}
}

func testDocument(id, borrowerID int64, applicationID *int64) *models.Document {
	uploaded := baseTime.Add(time.Duration(id) * time.Hour)
	return &models.Document{
		ID:            id,
		BorrowerID:    borrowerID,
		ApplicationID: applicationID,
		DocumentType:  "PAYSLIP",
		FileName:      "payslip.pdf",
		ContentType:   "application/pdf",
		SizeBytes:     2048,
		StoragePath:   "borrowers/1/payslip.pdf",
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

	t.Run("borrower roundtrip", func(t *testing.T) {
		repo := newRepo(t)
		want := testBorrower(1, "grace@example.com")
		require.NoError(t, repo.CreateBorrower(ctx, want))

		got, err := repo.GetBorrower(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, want.Email, got.Email)
		assert.Equal(t, want.Address, got.Address)
		require.NotNil(t, got.EmploymentYears)
		assert.Equal(t, 4, *got.EmploymentYears)
		assert.True(t, want.CreatedAt.Equal(got.CreatedAt))

		_, err = repo.GetBorrower(ctx, 99)
		assert.ErrorIs(t, err, ErrBorrowerNotFound)
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateBorrower(ctx, testBorrower(1, "dup@example.com")))
		err := repo.CreateBorrower(ctx, testBorrower(2, "dup@example.com"))
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("list borrowers newest first", func(t *testing.T) {
		repo := newRepo(t)
		for i := int64(1); i <= 3; i++ {
			require.NoError(t, repo.CreateBorrower(ctx, testBorrower(i, fmt.Sprintf("b%d@example.com", i))))
		}

		got, total, err := repo.ListBorrowers(ctx, ListFilter{Page: 1, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, got, 2)
		assert.Equal(t, int64(3), got[0].ID)
		assert.Equal(t, int64(2), got[1].ID)

		got, _, err = repo.ListBorrowers(ctx, ListFilter{Page: 2, Limit: 2})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, int64(1), got[0].ID)
	})

	t.Run("application requires borrower", func(t *testing.T) {
		repo := newRepo(t)
		err := repo.CreateApplication(ctx, testApplication(10, 1))
		assert.ErrorIs(t, err, ErrBorrowerNotFound)
	})

	t.Run("application status update", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateBorrower(ctx, testBorrower(1, "a@example.com")))
		require.NoError(t, repo.CreateApplication(ctx, testApplication(10, 1)))

		app, err := repo.GetApplication(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, models.LoanStatusSubmitted, app.Status)
		assert.Nil(t, app.RejectionReason)

		at := baseTime.Add(48 * time.Hour)
		app.ApplyStatus(models.LoanStatusRejected, models.StatusChange{
			UpdatedBy:       "officer-9",
			UpdatedAt:       at,
			RejectionReason: "insufficient income",
		})
		require.NoError(t, repo.UpdateApplicationStatus(ctx, app))

		got, err := repo.GetApplication(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, models.LoanStatusRejected, got.Status)
		assert.Equal(t, "officer-9", got.StatusUpdatedBy)
		require.NotNil(t, got.StatusUpdatedAt)
		assert.True(t, at.Equal(*got.StatusUpdatedAt))
		require.NotNil(t, got.RejectionReason)
		assert.Equal(t, "insufficient income", *got.RejectionReason)
		assert.Equal(t, 10000.0, got.LoanAmount)

		err = repo.UpdateApplicationStatus(ctx, testApplication(77, 1))
		assert.ErrorIs(t, err, ErrApplicationNotFound)
	})

	t.Run("list applications by borrower and status", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateBorrower(ctx, testBorrower(1, "one@example.com")))
		require.NoError(t, repo.CreateBorrower(ctx, testBorrower(2, "two@example.com")))
		require.NoError(t, repo.CreateApplication(ctx, testApplication(10, 1)))
		require.NoError(t, repo.CreateApplication(ctx, testApplication(11, 1)))
		require.NoError(t, repo.CreateApplication(ctx, testApplication(12, 2)))

		approved := testApplication(11, 1)
		approved.ApplyStatus(models.LoanStatusApproved, models.StatusChange{UpdatedBy: "o", UpdatedAt: baseTime})
		require.NoError(t, repo.UpdateApplicationStatus(ctx, approved))

		got, total, err := repo.ListApplications(ctx, ListFilter{BorrowerID: 1})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, got, 2)
		assert.Equal(t, int64(11), got[0].ID)

		got, total, err = repo.ListApplications(ctx, ListFilter{Status: string(models.LoanStatusSubmitted)})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		for _, a := range got {
			assert.Equal(t, models.LoanStatusSubmitted, a.Status)
		}
	})

	t.Run("document references", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateBorrower(ctx, testBorrower(1, "d@example.com")))

		assert.ErrorIs(t, repo.CreateDocument(ctx, testDocument(20, 5, nil)), ErrBorrowerNotFound)
		assert.ErrorIs(t, repo.CreateDocument(ctx, testDocument(20, 1, int64Ptr(404))), ErrApplicationNotFound)

		require.NoError(t, repo.CreateDocument(ctx, testDocument(20, 1, nil)))
		got, err := repo.GetDocument(ctx, 20)
		require.NoError(t, err)
		assert.Nil(t, got.ApplicationID)
		assert.Equal(t, models.DocumentStatusPending, got.Status)

		_, err = repo.GetDocument(ctx, 21)
		assert.ErrorIs(t, err, ErrDocumentNotFound)
	})

	t.Run("document status update and listing", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.CreateBorrower(ctx, testBorrower(1, "e@example.com")))
		require.NoError(t, repo.CreateApplication(ctx, testApplication(10, 1)))
		require.NoError(t, repo.CreateDocument(ctx, testDocument(20, 1, int64Ptr(10))))
		require.NoError(t, repo.CreateDocument(ctx, testDocument(21, 1, nil)))

		doc, err := repo.GetDocument(ctx, 20)
		require.NoError(t, err)
		doc.ApplyStatus(models.DocumentStatusVerified, models.StatusChange{UpdatedBy: "officer-2", UpdatedAt: baseTime})
		require.NoError(t, repo.UpdateDocumentStatus(ctx, doc))

		got, total, err := repo.ListDocuments(ctx, ListFilter{ApplicationID: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, got, 1)
		assert.Equal(t, models.DocumentStatusVerified, got[0].Status)
		assert.Equal(t, "officer-2", got[0].StatusUpdatedBy)

		_, total, err = repo.ListDocuments(ctx, ListFilter{BorrowerID: 1})
		require.NoError(t, err)
		assert.Equal(t, 2, total)

		assert.ErrorIs(t, repo.UpdateDocumentStatus(ctx, testDocument(99, 1, nil)), ErrDocumentNotFound)
	})
}
