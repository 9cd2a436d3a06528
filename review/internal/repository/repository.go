// Package repository stores the review replicas and the officer decision history.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/lendline/lendline-stack/common/models"
)

var (
	ErrBorrowerNotFound    = errors.New("borrower not found")
	ErrBorrowerExists      = errors.New("borrower already exists")
	ErrApplicationNotFound = errors.New("loan application not found")
	ErrApplicationExists   = errors.New("loan application already exists")
	ErrDocumentNotFound    = errors.New("document not found")
	ErrDocumentExists      = errors.New("document already exists")
)

// Entity names used in the status history.
const (
	EntityApplication = "loan_application"
	EntityDocument    = "document"
)

// StatusChange is one officer decision kept for audit.
type StatusChange struct {
	ID              int64     `json:"id"`
	Entity          string    `json:"entity"`
	EntityID        int64     `json:"entity_id"`
	BorrowerID      int64     `json:"borrower_id"`
	OldStatus       string    `json:"old_status"`
	NewStatus       string    `json:"new_status"`
	UpdatedBy       string    `json:"updated_by"`
	RejectionReason *string   `json:"rejection_reason,omitempty"`
	ChangedAt       time.Time `json:"changed_at"`
}

// Store holds the operations available both on the repository and inside a transaction.
type Store interface {
	BorrowerExists(ctx context.Context, id int64) (bool, error)
	CreateBorrower(ctx context.Context, b *models.Borrower) error

	GetApplication(ctx context.Context, id int64) (*models.LoanApplication, error)
	ApplicationExists(ctx context.Context, id int64) (bool, error)
	CreateApplication(ctx context.Context, a *models.LoanApplication) error
	UpdateApplicationStatus(ctx context.Context, a *models.LoanApplication) error

	GetDocument(ctx context.Context, id int64) (*models.Document, error)
	DocumentExists(ctx context.Context, id int64) (bool, error)
	CreateDocument(ctx context.Context, d *models.Document) error
	UpdateDocumentStatus(ctx context.Context, d *models.Document) error
	ListApplicationDocuments(ctx context.Context, applicationID int64) ([]*models.Document, error)

	RecordStatusChange(ctx context.Context, c *StatusChange) error
	ListStatusChanges(ctx context.Context, entity string, entityID int64) ([]*StatusChange, error)
}

// Repository is the review store.
type Repository interface {
	Store

	// InTx runs fn in a transaction that commits when fn returns nil.
	InTx(ctx context.Context, fn func(Store) error) error

	Ping(ctx context.Context) error
	Close()
}
