package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoanApplication_ApplyStatus(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		start      *string
		status     LoanStatus
		reason     string
		wantReason *string
	}{
		{
			name:       "rejection with reason sets reason",
			status:     LoanStatusRejected,
			reason:     "income not verified",
			wantReason: strPtr("income not verified"),
		},
		{
			name:       "rejection without reason keeps previous",
			start:      strPtr("earlier"),
			status:     LoanStatusRejected,
			wantReason: strPtr("earlier"),
		},
		{
			name:       "approval ignores reason",
			status:     LoanStatusApproved,
			reason:     "should be ignored",
			wantReason: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := &LoanApplication{ID: 1, BorrowerID: 2, Status: LoanStatusSubmitted, RejectionReason: tt.start}
			app.ApplyStatus(tt.status, StatusChange{UpdatedBy: "officer-7", UpdatedAt: at, RejectionReason: tt.reason})

			assert.Equal(t, tt.status, app.Status)
			assert.Equal(t, "officer-7", app.StatusUpdatedBy)
			require.NotNil(t, app.StatusUpdatedAt)
			assert.True(t, app.StatusUpdatedAt.Equal(at))
			assert.Equal(t, tt.wantReason, app.RejectionReason)
		})
	}
}

func TestDocument_ApplyStatus(t *testing.T) {
	doc := &Document{ID: 5, BorrowerID: 2, Status: DocumentStatusPending}
	doc.ApplyStatus(DocumentStatusRejected, StatusChange{UpdatedBy: "officer-1", UpdatedAt: time.Now(), RejectionReason: "blurry scan"})

	assert.Equal(t, DocumentStatusRejected, doc.Status)
	require.NotNil(t, doc.RejectionReason)
	assert.Equal(t, "blurry scan", *doc.RejectionReason)
}

func TestParseStatuses(t *testing.T) {
	s, err := ParseLoanStatus(" under_review ")
	require.NoError(t, err)
	assert.Equal(t, LoanStatusUnderReview, s)

	_, err = ParseLoanStatus("DISBURSED")
	assert.Error(t, err)

	d, err := ParseDocumentStatus("verified")
	require.NoError(t, err)
	assert.Equal(t, DocumentStatusVerified, d)

	g, err := ParseGrade("good")
	require.NoError(t, err)
	assert.Equal(t, GradeGood, g)

	_, err = ParseRisk("extreme")
	assert.Error(t, err)
}

func TestBorrower_FullName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", (&Borrower{FirstName: "Ada", LastName: "Lovelace"}).FullName())
	assert.Equal(t, "Ada", (&Borrower{FirstName: "Ada"}).FullName())
}

func strPtr(s string) *string { return &s }
