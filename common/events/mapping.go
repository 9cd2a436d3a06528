package events

import (
	"fmt"
	"strings"
	"time"

	"github.com/lendline/lendline-stack/common/models"
)

// NewBorrowerCreated copies b into an envelope.
func NewBorrowerCreated(b *models.Borrower) *BorrowerCreated {
	e := &BorrowerCreated{
		BorrowerID:       b.ID,
		FirstName:        b.FirstName,
		LastName:         b.LastName,
		Email:            b.Email,
		Phone:            b.Phone,
		NationalID:       b.NationalID,
		DateOfBirth:      b.DateOfBirth,
		AddressLine1:     b.Address.Line1,
		AddressLine2:     b.Address.Line2,
		City:             b.Address.City,
		State:            b.Address.State,
		PostalCode:       b.Address.PostalCode,
		Country:          b.Address.Country,
		AnnualIncome:     b.AnnualIncome,
		EmploymentStatus: b.EmploymentStatus,
		CreatedAt:        FormatTimestamp(b.CreatedAt),
	}
	if b.EmploymentYears != nil {
		years := *b.EmploymentYears
		e.EmploymentYears = &years
	}
	return e
}

// Borrower builds the replica carried by e.
func (e *BorrowerCreated) Borrower(parse TimeParser) *models.Borrower {
	created := parse(e.CreatedAt)
	b := &models.Borrower{
		ID:          e.BorrowerID,
		FirstName:   e.FirstName,
		LastName:    e.LastName,
		Email:       e.Email,
		Phone:       e.Phone,
		NationalID:  e.NationalID,
		DateOfBirth: e.DateOfBirth,
		Address: models.Address{
			Line1:      e.AddressLine1,
			Line2:      e.AddressLine2,
			City:       e.City,
			State:      e.State,
			PostalCode: e.PostalCode,
			Country:    e.Country,
		},
		AnnualIncome:     e.AnnualIncome,
		EmploymentStatus: e.EmploymentStatus,
		CreatedAt:        created,
		UpdatedAt:        created,
	}
	if e.EmploymentYears != nil {
		years := *e.EmploymentYears
		b.EmploymentYears = &years
	}
	return b
}

// NewLoanApplicationEvent copies a into an envelope.
func NewLoanApplicationEvent(a *models.LoanApplication) *LoanApplicationEvent {
	return &LoanApplicationEvent{
		ApplicationID:  a.ID,
		BorrowerID:     a.BorrowerID,
		LoanAmount:     a.LoanAmount,
		TermMonths:     a.TermMonths,
		InterestRate:   a.InterestRate,
		MonthlyPayment: a.MonthlyPayment,
		TotalPayment:   a.TotalPayment,
		Status:         string(a.Status),
		Purpose:        a.Purpose,
		CreatedAt:      FormatTimestamp(a.CreatedAt),
	}
}

// LoanApplication builds the replica carried by e. A missing status means SUBMITTED.
func (e *LoanApplicationEvent) LoanApplication(parse TimeParser) (*models.LoanApplication, error) {
	status := models.LoanStatusSubmitted
	if strings.TrimSpace(e.Status) != "" {
		s, err := models.ParseLoanStatus(e.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		status = s
	}

	created := parse(e.CreatedAt)
	return &models.LoanApplication{
		ID:             e.ApplicationID,
		BorrowerID:     e.BorrowerID,
		LoanAmount:     e.LoanAmount,
		TermMonths:     e.TermMonths,
		InterestRate:   e.InterestRate,
		MonthlyPayment: e.MonthlyPayment,
		TotalPayment:   e.TotalPayment,
		Status:         status,
		Purpose:        e.Purpose,
		CreatedAt:      created,
		UpdatedAt:      created,
	}, nil
}

// NewDocumentUploaded copies d into an envelope.
func NewDocumentUploaded(d *models.Document) *DocumentUploaded {
	e := &DocumentUploaded{
		DocumentID:   d.ID,
		BorrowerID:   d.BorrowerID,
		DocumentType: d.DocumentType,
		FileName:     d.FileName,
		ContentType:  d.ContentType,
		SizeBytes:    d.SizeBytes,
		StoragePath:  d.StoragePath,
		Status:       string(d.Status),
		UploadedAt:   FormatTimestamp(d.UploadedAt),
	}
	if d.ApplicationID != nil {
		id := *d.ApplicationID
		e.ApplicationID = &id
	}
	return e
}

// Document builds the replica carried by e. A missing status means PENDING.
func (e *DocumentUploaded) Document(parse TimeParser) (*models.Document, error) {
	status := models.DocumentStatusPending
	if strings.TrimSpace(e.Status) != "" {
		s, err := models.ParseDocumentStatus(e.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		status = s
	}

	uploaded := parse(e.UploadedAt)
	d := &models.Document{
		ID:           e.DocumentID,
		BorrowerID:   e.BorrowerID,
		DocumentType: e.DocumentType,
		FileName:     e.FileName,
		ContentType:  e.ContentType,
		SizeBytes:    e.SizeBytes,
		StoragePath:  e.StoragePath,
		Status:       status,
		UploadedAt:   uploaded,
		UpdatedAt:    uploaded,
	}
	if e.ApplicationID != nil {
		id := *e.ApplicationID
		d.ApplicationID = &id
	}
	return d, nil
}

// NewLoanStatusUpdate describes the transition of a from old to its current status.
func NewLoanStatusUpdate(a *models.LoanApplication, old models.LoanStatus) *LoanStatusUpdate {
	return &LoanStatusUpdate{
		ApplicationID: a.ID,
		StatusChange:  statusChange(a.BorrowerID, string(old), string(a.Status), a.StatusUpdatedBy, a.StatusUpdatedAt, a.RejectionReason),
	}
}

// NewDocumentStatusUpdate describes the transition of d from old to its current status.
func NewDocumentStatusUpdate(d *models.Document, old models.DocumentStatus) *DocumentStatusUpdate {
	return &DocumentStatusUpdate{
		DocumentID:   d.ID,
		StatusChange: statusChange(d.BorrowerID, string(old), string(d.Status), d.StatusUpdatedBy, d.StatusUpdatedAt, d.RejectionReason),
	}
}

func statusChange(borrowerID int64, old, status, by string, at *time.Time, reason *string) StatusChange {
	c := StatusChange{
		BorrowerID: borrowerID,
		OldStatus:  old,
		NewStatus:  status,
		UpdatedBy:  by,
	}
	if at != nil {
		c.UpdatedAt = FormatTimestamp(*at)
	}
	if reason != nil {
		c.RejectionReason = *reason
	}
	return c
}

// Change converts the carried status change for models.ApplyStatus.
func (s *StatusChange) Change(parse TimeParser) models.StatusChange {
	return models.StatusChange{
		NewStatus:       s.NewStatus,
		UpdatedBy:       s.UpdatedBy,
		UpdatedAt:       parse(s.UpdatedAt),
		RejectionReason: s.RejectionReason,
	}
}
