package models

import (
	"fmt"
	"strings"
	"time"
)

// LoanStatus is the workflow state of a loan application.
type LoanStatus string

const (
	LoanStatusSubmitted   LoanStatus = "SUBMITTED"
	LoanStatusUnderReview LoanStatus = "UNDER_REVIEW"
	LoanStatusApproved    LoanStatus = "APPROVED"
	LoanStatusRejected    LoanStatus = "REJECTED"
	LoanStatusCancelled   LoanStatus = "CANCELLED"
)

var loanStatuses = map[LoanStatus]struct{}{
	LoanStatusSubmitted:   {},
	LoanStatusUnderReview: {},
	LoanStatusApproved:    {},
	LoanStatusRejected:    {},
	LoanStatusCancelled:   {},
}

// ParseLoanStatus normalizes s and checks it against the known statuses.
func ParseLoanStatus(s string) (LoanStatus, error) {
	status := LoanStatus(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := loanStatuses[status]; !ok {
		return "", fmt.Errorf("unknown loan status %q", s)
	}
	return status, nil
}

// IsRejection reports whether the status carries a rejection reason.
func (s LoanStatus) IsRejection() bool {
	return s == LoanStatusRejected
}

// IsTerminal reports whether no further officer transition is allowed.
func (s LoanStatus) IsTerminal() bool {
	return s == LoanStatusApproved || s == LoanStatusRejected || s == LoanStatusCancelled
}

// LoanApplication always has exactly one owning borrower.
type LoanApplication struct {
	ID              int64      `json:"id"`
	BorrowerID      int64      `json:"borrower_id"`
	LoanAmount      float64    `json:"loan_amount"`
	TermMonths      int        `json:"term_months"`
	InterestRate    float64    `json:"interest_rate"`
	MonthlyPayment  float64    `json:"monthly_payment"`
	TotalPayment    float64    `json:"total_payment"`
	Status          LoanStatus `json:"status"`
	Purpose         string     `json:"purpose,omitempty"`
	StatusUpdatedBy string     `json:"status_updated_by,omitempty"`
	StatusUpdatedAt *time.Time `json:"status_updated_at,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// StatusChange is a status mutation carried by a status-update event.
type StatusChange struct {
	NewStatus       string
	UpdatedBy       string
	UpdatedAt       time.Time
	RejectionReason string
}

// ApplyStatus overwrites the status audit fields. The rejection reason is only replaced
// when the new status is a rejection and a reason was supplied.
func (a *LoanApplication) ApplyStatus(status LoanStatus, change StatusChange) {
	a.Status = status
	a.StatusUpdatedBy = change.UpdatedBy
	at := change.UpdatedAt
	a.StatusUpdatedAt = &at
	if status.IsRejection() && change.RejectionReason != "" {
		reason := change.RejectionReason
		a.RejectionReason = &reason
	}
	a.UpdatedAt = change.UpdatedAt
}
