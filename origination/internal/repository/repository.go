// Package repository stores the records origination is the source of truth for.
package repository

import (
	"context"
	"errors"

	"github.com/lendline/lendline-stack/common/models"
)

var (
	ErrBorrowerNotFound    = errors.New("borrower not found")
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrApplicationNotFound = errors.New("loan application not found")
	ErrDocumentNotFound    = errors.New("document not found")
)

// ListFilter narrows application and document listings. Zero values match everything.
type ListFilter struct {
	BorrowerID    int64
	ApplicationID int64
	Status        string
	Page          int
	Limit         int
}

// Repository defines the origination data access operations
type Repository interface {
	CreateBorrower(ctx context.Context, b *models.Borrower) error
	GetBorrower(ctx context.Context, id int64) (*models.Borrower, error)
	ListBorrowers(ctx context.Context, filter ListFilter) ([]*models.Borrower, int, error)

	CreateApplication(ctx context.Context, a *models.LoanApplication) error
	GetApplication(ctx context.Context, id int64) (*models.LoanApplication, error)
	ListApplications(ctx context.Context, filter ListFilter) ([]*models.LoanApplication, int, error)
	// UpdateApplicationStatus saves the status audit fields of a.
	UpdateApplicationStatus(ctx context.Context, a *models.LoanApplication) error

	CreateDocument(ctx context.Context, d *models.Document) error
	GetDocument(ctx context.Context, id int64) (*models.Document, error)
	ListDocuments(ctx context.Context, filter ListFilter) ([]*models.Document, int, error)
	// UpdateDocumentStatus saves the status audit fields of d.
	UpdateDocumentStatus(ctx context.Context, d *models.Document) error

	Ping(ctx context.Context) error
	Close()
}

func pageBounds(f ListFilter) (page, limit int) {
	page, limit = f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	return page, limit
}
