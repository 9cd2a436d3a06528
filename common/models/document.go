package models

import (
	"fmt"
	"strings"
	"time"
)

// DocumentStatus is the verification state of an uploaded document.
type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "PENDING"
	DocumentStatusVerified DocumentStatus = "VERIFIED"
	DocumentStatusRejected DocumentStatus = "REJECTED"
	DocumentStatusExpired  DocumentStatus = "EXPIRED"
)

// ParseDocumentStatus normalizes s and checks it against the known statuses.
func ParseDocumentStatus(s string) (DocumentStatus, error) {
	status := DocumentStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch status {
	case DocumentStatusPending, DocumentStatusVerified, DocumentStatusRejected, DocumentStatusExpired:
		return status, nil
	}
	return "", fmt.Errorf("unknown document status %q", s)
}

// IsRejection reports whether the status carries a rejection reason.
func (s DocumentStatus) IsRejection() bool {
	return s == DocumentStatusRejected
}

// Document is file metadata owned by a borrower and optionally tied to one of
// that borrower's applications. The file bytes live outside this system.
type Document struct {
	ID              int64          `json:"id"`
	BorrowerID      int64          `json:"borrower_id"`
	ApplicationID   *int64         `json:"application_id,omitempty"`
	DocumentType    string         `json:"document_type"`
	FileName        string         `json:"file_name"`
	ContentType     string         `json:"content_type"`
	SizeBytes       int64          `json:"size_bytes"`
	StoragePath     string         `json:"storage_path"`
	Status          DocumentStatus `json:"status"`
	StatusUpdatedBy string         `json:"status_updated_by,omitempty"`
	StatusUpdatedAt *time.Time     `json:"status_updated_at,omitempty"`
	RejectionReason *string        `json:"rejection_reason,omitempty"`
	UploadedAt      time.Time      `json:"uploaded_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// ApplyStatus mirrors LoanApplication.ApplyStatus for documents.
func (d *Document) ApplyStatus(status DocumentStatus, change StatusChange) {
	d.Status = status
	d.StatusUpdatedBy = change.UpdatedBy
	at := change.UpdatedAt
	d.StatusUpdatedAt = &at
	if status.IsRejection() && change.RejectionReason != "" {
		reason := change.RejectionReason
		d.RejectionReason = &reason
	}
	d.UpdatedAt = change.UpdatedAt
}
