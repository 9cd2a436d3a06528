package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/lendline/lendline-stack/common/models"
)

// OriginationClient creates and reads borrowers, applications and documents.
type OriginationClient struct {
	base
}

// NewOriginationClient creates an OriginationClient pointing at baseURL.
func NewOriginationClient(baseURL string) *OriginationClient {
	return &OriginationClient{base: newBase(baseURL)}
}

// BorrowerRequest is the body of POST /api/v1/borrowers.
type BorrowerRequest struct {
	FirstName        string         `json:"first_name"`
	LastName         string         `json:"last_name"`
	Email            string         `json:"email"`
	Phone            string         `json:"phone,omitempty"`
	NationalID       string         `json:"national_id,omitempty"`
	DateOfBirth      string         `json:"date_of_birth,omitempty"`
	Address          models.Address `json:"address"`
	AnnualIncome     float64        `json:"annual_income"`
	EmploymentStatus string         `json:"employment_status"`
	EmploymentYears  *int           `json:"employment_years,omitempty"`
}

// ApplicationRequest is the body of POST /api/v1/loan-applications.
type ApplicationRequest struct {
	BorrowerID   int64   `json:"borrower_id"`
	LoanAmount   float64 `json:"loan_amount"`
	TermMonths   int     `json:"term_months"`
	InterestRate float64 `json:"interest_rate"`
	Purpose      string  `json:"purpose,omitempty"`
}

// DocumentRequest is the body of POST /api/v1/documents.
type DocumentRequest struct {
	BorrowerID    int64  `json:"borrower_id"`
	ApplicationID *int64 `json:"application_id,omitempty"`
	DocumentType  string `json:"document_type"`
	FileName      string `json:"file_name"`
	ContentType   string `json:"content_type,omitempty"`
	SizeBytes     int64  `json:"size_bytes,omitempty"`
	StoragePath   string `json:"storage_path,omitempty"`
}

// CreateBorrower registers a borrower.
func (c *OriginationClient) CreateBorrower(ctx context.Context, req BorrowerRequest) (*models.Borrower, error) {
	var b models.Borrower
	if err := c.sendResource(ctx, http.MethodPost, "/api/v1/borrowers", req, &b); err != nil {
		return nil, fmt.Errorf("create borrower: %w", err)
	}
	return &b, nil
}

// CreateApplication submits a loan application.
func (c *OriginationClient) CreateApplication(ctx context.Context, req ApplicationRequest) (*models.LoanApplication, error) {
	var a models.LoanApplication
	if err := c.sendResource(ctx, http.MethodPost, "/api/v1/loan-applications", req, &a); err != nil {
		return nil, fmt.Errorf("create loan application: %w", err)
	}
	return &a, nil
}

// CreateDocument records an uploaded document.
func (c *OriginationClient) CreateDocument(ctx context.Context, req DocumentRequest) (*models.Document, error) {
	var d models.Document
	if err := c.sendResource(ctx, http.MethodPost, "/api/v1/documents", req, &d); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return &d, nil
}

// GetApplication returns the origination view of an application.
func (c *OriginationClient) GetApplication(ctx context.Context, id int64) (*models.LoanApplication, error) {
	var a models.LoanApplication
	if err := c.getResource(ctx, fmt.Sprintf("/api/v1/loan-applications/%d", id), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListApplications returns one page of applications, optionally for one borrower.
func (c *OriginationClient) ListApplications(ctx context.Context, borrowerID int64, page, limit int) ([]*models.LoanApplication, Pagination, error) {
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("limit", fmt.Sprint(limit))
	if borrowerID > 0 {
		q.Set("borrower_id", fmt.Sprint(borrowerID))
	}

	var apps []*models.LoanApplication
	p, err := c.list(ctx, "/api/v1/loan-applications?"+q.Encode(), func(raw json.RawMessage) error {
		var a models.LoanApplication
		if err := json.Unmarshal(raw, &a); err != nil {
			return err
		}
		apps = append(apps, &a)
		return nil
	})
	return apps, p, err
}
