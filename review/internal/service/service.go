// Package service implements the officer workflow: status decisions are
// checked against the allowed transitions, stored with their audit record in
// one transaction and announced after commit.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lendline/lendline-stack/common/logging"
	"github.com/lendline/lendline-stack/common/metrics"
	"github.com/lendline/lendline-stack/common/models"
	"github.com/lendline/lendline-stack/review/internal/repository"
)

var (
	// ErrValidation wraps every input rejection.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTransition is returned when the current status does not allow the requested one.
	ErrInvalidTransition = errors.New("status transition not allowed")
)

var loanTransitions = map[models.LoanStatus][]models.LoanStatus{
	models.LoanStatusSubmitted: {
		models.LoanStatusUnderReview, models.LoanStatusApproved,
		models.LoanStatusRejected, models.LoanStatusCancelled,
	},
	models.LoanStatusUnderReview: {
		models.LoanStatusApproved, models.LoanStatusRejected, models.LoanStatusCancelled,
	},
}

var documentTransitions = map[models.DocumentStatus][]models.DocumentStatus{
	models.DocumentStatusPending: {
		models.DocumentStatusVerified, models.DocumentStatusRejected, models.DocumentStatusExpired,
	},
	models.DocumentStatusVerified: {models.DocumentStatusExpired},
}

// CanTransitionLoan reports whether an officer may move an application from one status to another.
func CanTransitionLoan(from, to models.LoanStatus) bool {
	for _, s := range loanTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CanTransitionDocument reports whether an officer may move a document from one status to another.
func CanTransitionDocument(from, to models.DocumentStatus) bool {
	for _, s := range documentTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// EventPublisher announces committed decisions. Implementations never report failures.
type EventPublisher interface {
	LoanStatusChanged(ctx context.Context, a *models.LoanApplication, old models.LoanStatus)
	DocumentStatusChanged(ctx context.Context, d *models.Document, old models.DocumentStatus)
}

// StatusRequest is an officer decision.
type StatusRequest struct {
	Status          string `json:"status"`
	RejectionReason string `json:"rejection_reason"`
}

// ApplicationDetail is the review view of one application.
type ApplicationDetail struct {
	Application *models.LoanApplication    `json:"application"`
	Documents   []*models.Document         `json:"documents"`
	History     []*repository.StatusChange `json:"history"`
}

// Service provides business logic for the review service
type Service struct {
	repo      repository.Repository
	publisher EventPublisher
	logger    *logging.Logger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used for decision timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new Service instance
func NewService(repo repository.Repository, publisher EventPublisher, logger *logging.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		repo:      repo,
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

// GetApplication returns an application with its documents and decision history.
func (s *Service) GetApplication(ctx context.Context, id int64) (*ApplicationDetail, error) {
	app, err := s.repo.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	docs, err := s.repo.ListApplicationDocuments(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list documents of loan application %d: %w", id, err)
	}
	history, err := s.repo.ListStatusChanges(ctx, repository.EntityApplication, id)
	if err != nil {
		return nil, fmt.Errorf("list history of loan application %d: %w", id, err)
	}
	if docs == nil {
		docs = []*models.Document{}
	}
	if history == nil {
		history = []*repository.StatusChange{}
	}
	return &ApplicationDetail{Application: app, Documents: docs, History: history}, nil
}

// UpdateApplicationStatus applies an officer decision to an application and
// publishes LoanStatusUpdate once it is committed.
func (s *Service) UpdateApplicationStatus(ctx context.Context, id int64, req StatusRequest, actor string) (*models.LoanApplication, error) {
	status, err := models.ParseLoanStatus(req.Status)
	if err != nil {
		return nil, invalid("%v", err)
	}
	reason := strings.TrimSpace(req.RejectionReason)
	if status.IsRejection() && reason == "" {
		return nil, invalid("rejection_reason is required when rejecting")
	}
	if strings.TrimSpace(actor) == "" {
		return nil, invalid("actor is required")
	}

	var (
		app *models.LoanApplication
		old models.LoanStatus
	)
	now := s.now().UTC()
	err = s.repo.InTx(ctx, func(tx repository.Store) error {
		a, err := tx.GetApplication(ctx, id)
		if err != nil {
			return err
		}
		old = a.Status
		if !CanTransitionLoan(old, status) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, old, status)
		}

		a.ApplyStatus(status, models.StatusChange{
			NewStatus:       string(status),
			UpdatedBy:       actor,
			UpdatedAt:       now,
			RejectionReason: reason,
		})
		if err := tx.UpdateApplicationStatus(ctx, a); err != nil {
			return err
		}
		app = a
		return tx.RecordStatusChange(ctx, &repository.StatusChange{
			Entity:          repository.EntityApplication,
			EntityID:        a.ID,
			BorrowerID:      a.BorrowerID,
			OldStatus:       string(old),
			NewStatus:       string(status),
			UpdatedBy:       actor,
			RejectionReason: a.RejectionReason,
			ChangedAt:       now,
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.StatusChanges.WithLabelValues(repository.EntityApplication, string(status)).Inc()
	s.logger.InfoContext(ctx, "loan application status changed",
		logging.ApplicationID(app.ID),
		logging.BorrowerID(app.BorrowerID),
		"old_status", old,
		"new_status", status,
		"updated_by", actor,
	)
	s.publisher.LoanStatusChanged(ctx, app, old)
	return app, nil
}

// UpdateDocumentStatus applies an officer decision to a document and
// publishes DocumentStatusUpdate once it is committed.
func (s *Service) UpdateDocumentStatus(ctx context.Context, id int64, req StatusRequest, actor string) (*models.Document, error) {
	status, err := models.ParseDocumentStatus(req.Status)
	if err != nil {
		return nil, invalid("%v", err)
	}
	reason := strings.TrimSpace(req.RejectionReason)
	if status.IsRejection() && reason == "" {
		return nil, invalid("rejection_reason is required when rejecting")
	}
	if strings.TrimSpace(actor) == "" {
		return nil, invalid("actor is required")
	}

	var (
		doc *models.Document
		old models.DocumentStatus
	)
	now := s.now().UTC()
	err = s.repo.InTx(ctx, func(tx repository.Store) error {
		d, err := tx.GetDocument(ctx, id)
		if err != nil {
			return err
		}
		old = d.Status
		if !CanTransitionDocument(old, status) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, old, status)
		}

		d.ApplyStatus(status, models.StatusChange{
			NewStatus:       string(status),
			UpdatedBy:       actor,
			UpdatedAt:       now,
			RejectionReason: reason,
		})
		if err := tx.UpdateDocumentStatus(ctx, d); err != nil {
			return err
		}
		doc = d
		return tx.RecordStatusChange(ctx, &repository.StatusChange{
			Entity:          repository.EntityDocument,
			EntityID:        d.ID,
			BorrowerID:      d.BorrowerID,
			OldStatus:       string(old),
			NewStatus:       string(status),
			UpdatedBy:       actor,
			RejectionReason: d.RejectionReason,
			ChangedAt:       now,
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.StatusChanges.WithLabelValues(repository.EntityDocument, string(status)).Inc()
	s.logger.InfoContext(ctx, "document status changed",
		logging.DocumentID(doc.ID),
		logging.BorrowerID(doc.BorrowerID),
		"old_status", old,
		"new_status", status,
		"updated_by", actor,
	)
	s.publisher.DocumentStatusChanged(ctx, doc, old)
	return doc, nil
}

// DocumentHistory returns the decisions recorded for a document, oldest first.
func (s *Service) DocumentHistory(ctx context.Context, id int64) (*models.Document, []*repository.StatusChange, error) {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	history, err := s.repo.ListStatusChanges(ctx, repository.EntityDocument, id)
	if err != nil {
		return nil, nil, fmt.Errorf("list history of document %d: %w", id, err)
	}
	return doc, history, nil
}
