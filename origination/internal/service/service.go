// Package service implements the origination write path: every entity is
// assigned its id here, stored, and only then announced on the bus.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/lendline/lendline-stack/common/idgen"
	"github.com/lendline/lendline-stack/common/logging"
	"github.com/lendline/lendline-stack/common/models"
	"github.com/lendline/lendline-stack/origination/internal/repository"
	"github.com/lendline/lendline-stack/origination/pkg/payment"
)

var (
	// ErrValidation wraps every input rejection.
	ErrValidation = errors.New("validation failed")

	// ErrApplicationOwnership is returned when a document names an application
	// of another borrower.
	ErrApplicationOwnership = errors.New("loan application belongs to another borrower")
)

// EventPublisher announces stored entities. Implementations never report failures.
type EventPublisher interface {
	BorrowerCreated(ctx context.Context, b *models.Borrower)
	LoanApplicationCreated(ctx context.Context, a *models.LoanApplication)
	DocumentUploaded(ctx context.Context, d *models.Document)
}

// CreateBorrowerRequest carries the fields of a new borrower.
type CreateBorrowerRequest struct {
	FirstName        string         `json:"first_name"`
	LastName         string         `json:"last_name"`
	Email            string         `json:"email"`
	Phone            string         `json:"phone"`
	NationalID       string         `json:"national_id"`
	DateOfBirth      string         `json:"date_of_birth"`
	Address          models.Address `json:"address"`
	AnnualIncome     float64        `json:"annual_income"`
	EmploymentStatus string         `json:"employment_status"`
	EmploymentYears  *int           `json:"employment_years"`
}

// CreateApplicationRequest carries the fields of a new loan application.
type CreateApplicationRequest struct {
	BorrowerID   int64   `json:"borrower_id"`
	LoanAmount   float64 `json:"loan_amount"`
	TermMonths   int     `json:"term_months"`
	InterestRate float64 `json:"interest_rate"`
	Purpose      string  `json:"purpose"`
}

// CreateDocumentRequest carries the metadata of an uploaded file.
type CreateDocumentRequest struct {
	BorrowerID    int64  `json:"borrower_id"`
	ApplicationID *int64 `json:"application_id"`
	DocumentType  string `json:"document_type"`
	FileName      string `json:"file_name"`
	ContentType   string `json:"content_type"`
	SizeBytes     int64  `json:"size_bytes"`
	StoragePath   string `json:"storage_path"`
}

// Service provides business logic for the origination service
type Service struct {
	repo      repository.Repository
	ids       idgen.Generator
	publisher EventPublisher
	logger    *logging.Logger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new Service instance
func NewService(repo repository.Repository, ids idgen.Generator, publisher EventPublisher, logger *logging.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		repo:      repo,
		ids:       ids,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// CreateBorrower stores a new borrower and publishes BorrowerCreated.
func (s *Service) CreateBorrower(ctx context.Context, req CreateBorrowerRequest) (*models.Borrower, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	switch {
	case strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "":
		return nil, invalid("first_name and last_name are required")
	case email == "" || !strings.Contains(email, "@"):
		return nil, invalid("a valid email is required")
	case req.AnnualIncome < 0 || !finite(req.AnnualIncome):
		return nil, invalid("annual_income must be a non-negative number")
	case strings.TrimSpace(req.EmploymentStatus) == "":
		return nil, invalid("employment_status is required")
	case req.EmploymentYears != nil && *req.EmploymentYears < 0:
		return nil, invalid("employment_years must not be negative")
	}

	now := s.now().UTC()
	b := &models.Borrower{
		ID:               s.ids.Next(),
		FirstName:        strings.TrimSpace(req.FirstName),
		LastName:         strings.TrimSpace(req.LastName),
		Email:            email,
		Phone:            req.Phone,
		NationalID:       req.NationalID,
		DateOfBirth:      req.DateOfBirth,
		Address:          req.Address,
		AnnualIncome:     req.AnnualIncome,
		EmploymentStatus: strings.ToLower(strings.TrimSpace(req.EmploymentStatus)),
		EmploymentYears:  req.EmploymentYears,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.CreateBorrower(ctx, b); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "borrower created", logging.BorrowerID(b.ID))
	s.publisher.BorrowerCreated(ctx, b)
	return b, nil
}

// GetBorrower returns a borrower by id.
func (s *Service) GetBorrower(ctx context.Context, id int64) (*models.Borrower, error) {
	return s.repo.GetBorrower(ctx, id)
}

// ListBorrowers returns one page of borrowers.
func (s *Service) ListBorrowers(ctx context.Context, filter repository.ListFilter) ([]*models.Borrower, int, error) {
	return s.repo.ListBorrowers(ctx, filter)
}

// CreateApplication stores a SUBMITTED application for an existing borrower,
// with its repayment schedule, and publishes LoanApplicationEvent.
func (s *Service) CreateApplication(ctx context.Context, req CreateApplicationRequest) (*models.LoanApplication, error) {
	switch {
	case req.BorrowerID <= 0:
		return nil, invalid("borrower_id is required")
	case req.LoanAmount <= 0 || !finite(req.LoanAmount):
		return nil, invalid("loan_amount must be positive")
	case req.TermMonths <= 0:
		return nil, invalid("term_months must be positive")
	case req.InterestRate < 0 || !finite(req.InterestRate):
		return nil, invalid("interest_rate must not be negative")
	}

	if _, err := s.repo.GetBorrower(ctx, req.BorrowerID); err != nil {
		return nil, err
	}

	schedule := payment.Amortized(req.LoanAmount, req.InterestRate, req.TermMonths)
	now := s.now().UTC()
	a := &models.LoanApplication{
		ID:             s.ids.Next(),
		BorrowerID:     req.BorrowerID,
		LoanAmount:     req.LoanAmount,
		TermMonths:     req.TermMonths,
		InterestRate:   req.InterestRate,
		MonthlyPayment: schedule.Monthly,
		TotalPayment:   schedule.Total,
		Status:         models.LoanStatusSubmitted,
		Purpose:        req.Purpose,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.CreateApplication(ctx, a); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "loan application created",
		logging.ApplicationID(a.ID), logging.BorrowerID(a.BorrowerID))
	s.publisher.LoanApplicationCreated(ctx, a)
	return a, nil
}

// GetApplication returns a loan application by id.
func (s *Service) GetApplication(ctx context.Context, id int64) (*models.LoanApplication, error) {
	return s.repo.GetApplication(ctx, id)
}

// ListApplications returns one page of loan applications.
func (s *Service) ListApplications(ctx context.Context, filter repository.ListFilter) ([]*models.LoanApplication, int, error) {
	return s.repo.ListApplications(ctx, filter)
}

// CreateDocument stores PENDING document metadata and publishes DocumentUploaded.
// A referenced application must belong to the same borrower.
func (s *Service) CreateDocument(ctx context.Context, req CreateDocumentRequest) (*models.Document, error) {
	switch {
	case req.BorrowerID <= 0:
		return nil, invalid("borrower_id is required")
	case strings.TrimSpace(req.DocumentType) == "":
		return nil, invalid("document_type is required")
	case strings.TrimSpace(req.FileName) == "":
		return nil, invalid("file_name is required")
	case req.SizeBytes < 0:
		return nil, invalid("size_bytes must not be negative")
	}

	if _, err := s.repo.GetBorrower(ctx, req.BorrowerID); err != nil {
		return nil, err
	}
	if req.ApplicationID != nil {
		app, err := s.repo.GetApplication(ctx, *req.ApplicationID)
		if err != nil {
			return nil, err
		}
		if app.BorrowerID != req.BorrowerID {
			return nil, ErrApplicationOwnership
		}
	}

	now := s.now().UTC()
	d := &models.Document{
		ID:            s.ids.Next(),
		BorrowerID:    req.BorrowerID,
		ApplicationID: req.ApplicationID,
		DocumentType:  strings.ToUpper(strings.TrimSpace(req.DocumentType)),
		FileName:      req.FileName,
		ContentType:   req.ContentType,
		SizeBytes:     req.SizeBytes,
		StoragePath:   req.StoragePath,
		Status:        models.DocumentStatusPending,
		UploadedAt:    now,
		UpdatedAt:     now,
	}
	if err := s.repo.CreateDocument(ctx, d); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "document uploaded",
		logging.DocumentID(d.ID), logging.BorrowerID(d.BorrowerID))
	s.publisher.DocumentUploaded(ctx, d)
	return d, nil
}

// GetDocument returns document metadata by id.
func (s *Service) GetDocument(ctx context.Context, id int64) (*models.Document, error) {
	return s.repo.GetDocument(ctx, id)
}

// ListDocuments returns one page of documents.
func (s *Service) ListDocuments(ctx context.Context, filter repository.ListFilter) ([]*models.Document, int, error) {
	return s.repo.ListDocuments(ctx, filter)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
