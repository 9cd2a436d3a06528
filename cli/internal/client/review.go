package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/lendline/lendline-stack/common/models"
)

// ReviewClient records officer decisions.
type ReviewClient struct {
	base
}

// NewReviewClient creates a ReviewClient. actor is sent as the officer name
// on every decision; empty leaves the service default.
func NewReviewClient(baseURL, actor string) *ReviewClient {
	c := &ReviewClient{base: newBase(baseURL)}
	c.actor = actor
	return c
}

// StatusChange is one recorded decision.
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

// ApplicationDetail is the review view of one application.
type ApplicationDetail struct {
	Application *models.LoanApplication `json:"application"`
	Documents   []*models.Document      `json:"documents"`
	History     []*StatusChange         `json:"history"`
}

type statusRequest struct {
	Status          string `json:"status"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

// GetApplication returns an application with its documents and history.
func (c *ReviewClient) GetApplication(ctx context.Context, id int64) (*ApplicationDetail, error) {
	var d ApplicationDetail
	if err := c.getResource(ctx, fmt.Sprintf("/api/v1/applications/%d", id), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// SetApplicationStatus moves an application to status.
func (c *ReviewClient) SetApplicationStatus(ctx context.Context, id int64, status, reason string) (*models.LoanApplication, error) {
	var a models.LoanApplication
	path := fmt.Sprintf("/api/v1/applications/%d/status", id)
	if err := c.sendResource(ctx, http.MethodPost, path, statusRequest{Status: status, RejectionReason: reason}, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// SetDocumentStatus moves a document to status.
func (c *ReviewClient) SetDocumentStatus(ctx context.Context, id int64, status, reason string) (*models.Document, error) {
	var d models.Document
	path := fmt.Sprintf("/api/v1/documents/%d/status", id)
	if err := c.sendResource(ctx, http.MethodPost, path, statusRequest{Status: status, RejectionReason: reason}, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
