package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/lendline/lendline-stack/common/models"
)

// MemoryRepository is an in-memory Repository for tests and local runs.
type MemoryRepository struct {
	mu           sync.RWMutex
	borrowers    map[int64]models.Borrower
	emails       map[string]int64
	applications map[int64]models.LoanApplication
	documents    map[int64]models.Document
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		borrowers:    make(map[int64]models.Borrower),
		emails:       make(map[string]int64),
		applications: make(map[int64]models.LoanApplication),
		documents:    make(map[int64]models.Document),
	}
}

func (r *MemoryRepository) CreateBorrower(_ context.Context, b *models.Borrower) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(b.Email)
	if _, ok := r.emails[key]; ok {
		return ErrDuplicateEmail
	}
	r.borrowers[b.ID] = *b
	r.emails[key] = b.ID
	return nil
}

func (r *MemoryRepository) GetBorrower(_ context.Context, id int64) (*models.Borrower, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.borrowers[id]
	if !ok {
		return nil, ErrBorrowerNotFound
	}
	return &b, nil
}

// ListBorrowers returns borrowers newest first.
func (r *MemoryRepository) ListBorrowers(_ context.Context, filter ListFilter) ([]*models.Borrower, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Borrower, 0, len(r.borrowers))
	for _, b := range r.borrowers {
		b := b
		out = append(out, &b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	page, total := paginate(out, filter)
	return page, total, nil
}

func (r *MemoryRepository) CreateApplication(_ context.Context, a *models.LoanApplication) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.borrowers[a.BorrowerID]; !ok {
		return ErrBorrowerNotFound
	}
	r.applications[a.ID] = *a
	return nil
}

func (r *MemoryRepository) GetApplication(_ context.Context, id int64) (*models.LoanApplication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.applications[id]
	if !ok {
		return nil, ErrApplicationNotFound
	}
	return &a, nil
}

func (r *MemoryRepository) ListApplications(_ context.Context, filter ListFilter) ([]*models.LoanApplication, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.LoanApplication
	for _, a := range r.applications {
		if filter.BorrowerID != 0 && a.BorrowerID != filter.BorrowerID {
			continue
		}
		if filter.Status != "" && string(a.Status) != filter.Status {
			continue
		}
		a := a
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	page, total := paginate(out, filter)
	return page, total, nil
}

func (r *MemoryRepository) UpdateApplicationStatus(_ context.Context, a *models.LoanApplication) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.applications[a.ID]
	if !ok {
		return ErrApplicationNotFound
	}
	stored.Status = a.Status
	stored.StatusUpdatedBy = a.StatusUpdatedBy
	stored.StatusUpdatedAt = a.StatusUpdatedAt
	stored.RejectionReason = a.RejectionReason
	stored.UpdatedAt = a.UpdatedAt
	r.applications[a.ID] = stored
	return nil
}

func (r *MemoryRepository) CreateDocument(_ context.Context, d *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.borrowers[d.BorrowerID]; !ok {
		return ErrBorrowerNotFound
	}
	if d.ApplicationID != nil {
		if _, ok := r.applications[*d.ApplicationID]; !ok {
			return ErrApplicationNotFound
		}
	}
	r.documents[d.ID] = *d
	return nil
}

func (r *MemoryRepository) GetDocument(_ context.Context, id int64) (*models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.documents[id]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return &d, nil
}

func (r *MemoryRepository) ListDocuments(_ context.Context, filter ListFilter) ([]*models.Document, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.Document
	for _, d := range r.documents {
		if filter.BorrowerID != 0 && d.BorrowerID != filter.BorrowerID {
			continue
		}
		if filter.ApplicationID != 0 && (d.ApplicationID == nil || *d.ApplicationID != filter.ApplicationID) {
			continue
		}
		if filter.Status != "" && string(d.Status) != filter.Status {
			continue
		}
		d := d
		out = append(out, &d)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.After(out[j].UploadedAt)
		}
		return out[i].ID > out[j].ID
	})
	page, total := paginate(out, filter)
	return page, total, nil
}

func (r *MemoryRepository) UpdateDocumentStatus(_ context.Context, d *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.documents[d.ID]
	if !ok {
		return ErrDocumentNotFound
	}
	stored.Status = d.Status
	stored.StatusUpdatedBy = d.StatusUpdatedBy
	stored.StatusUpdatedAt = d.StatusUpdatedAt
	stored.RejectionReason = d.RejectionReason
	stored.UpdatedAt = d.UpdatedAt
	r.documents[d.ID] = stored
	return nil
}

// Ping always succeeds.
func (r *MemoryRepository) Ping(context.Context) error { return nil }

// Close is a no-op.
func (r *MemoryRepository) Close() {}

func paginate[T any](items []T, filter ListFilter) ([]T, int) {
	total := len(items)
	page, limit := pageBounds(filter)
	start := (page - 1) * limit
	if start >= total {
		return nil, total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return items[start:end], total
}
