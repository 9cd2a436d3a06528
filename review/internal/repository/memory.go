package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/lendline/lendline-stack/common/models"
)

// memState holds value copies so callers never alias stored rows.
type memState struct {
	borrowers    map[int64]models.Borrower
	applications map[int64]models.LoanApplication
	documents    map[int64]models.Document
	history      []StatusChange
	nextChangeID int64
}

func newMemState() *memState {
	return &memState{
		borrowers:    make(map[int64]models.Borrower),
		applications: make(map[int64]models.LoanApplication),
		documents:    make(map[int64]models.Document),
		nextChangeID: 1,
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.borrowers {
		c.borrowers[k] = v
	}
	for k, v := range s.applications {
		c.applications[k] = v
	}
	for k, v := range s.documents {
		c.documents[k] = v
	}
	c.history = append([]StatusChange(nil), s.history...)
	c.nextChangeID = s.nextChangeID
	return c
}

func (s *memState) BorrowerExists(_ context.Context, id int64) (bool, error) {
	_, ok := s.borrowers[id]
	return ok, nil
}

func (s *memState) CreateBorrower(_ context.Context, b *models.Borrower) error {
	if _, ok := s.borrowers[b.ID]; ok {
		return ErrBorrowerExists
	}
	s.borrowers[b.ID] = *b
	return nil
}

func (s *memState) GetApplication(_ context.Context, id int64) (*models.LoanApplication, error) {
	a, ok := s.applications[id]
	if !ok {
		return nil, ErrApplicationNotFound
	}
	return &a, nil
}

func (s *memState) ApplicationExists(_ context.Context, id int64) (bool, error) {
	_, ok := s.applications[id]
	return ok, nil
}

func (s *memState) CreateApplication(_ context.Context, a *models.LoanApplication) error {
	if _, ok := s.applications[a.ID]; ok {
		return ErrApplicationExists
	}
	if _, ok := s.borrowers[a.BorrowerID]; !ok {
		return ErrBorrowerNotFound
	}
	s.applications[a.ID] = *a
	return nil
}

func (s *memState) UpdateApplicationStatus(_ context.Context, a *models.LoanApplication) error {
	stored, ok := s.applications[a.ID]
	if !ok {
		return ErrApplicationNotFound
	}
	stored.Status = a.Status
	stored.StatusUpdatedBy = a.StatusUpdatedBy
	stored.StatusUpdatedAt = a.StatusUpdatedAt
	stored.RejectionReason = a.RejectionReason
	stored.UpdatedAt = a.UpdatedAt
	s.applications[a.ID] = stored
	return nil
}

func (s *memState) GetDocument(_ context.Context, id int64) (*models.Document, error) {
	d, ok := s.documents[id]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return &d, nil
}

func (s *memState) DocumentExists(_ context.Context, id int64) (bool, error) {
	_, ok := s.documents[id]
	return ok, nil
}

func (s *memState) CreateDocument(_ context.Context, d *models.Document) error {
	if _, ok := s.documents[d.ID]; ok {
		return ErrDocumentExists
	}
	if _, ok := s.borrowers[d.BorrowerID]; !ok {
		return ErrBorrowerNotFound
	}
	if d.ApplicationID != nil {
		if _, ok := s.applications[*d.ApplicationID]; !ok {
			return ErrApplicationNotFound
		}
	}
	s.documents[d.ID] = *d
	return nil
}

func (s *memState) UpdateDocumentStatus(_ context.Context, d *models.Document) error {
	stored, ok := s.documents[d.ID]
	if !ok {
		return ErrDocumentNotFound
	}
	stored.Status = d.Status
	stored.StatusUpdatedBy = d.StatusUpdatedBy
	stored.StatusUpdatedAt = d.StatusUpdatedAt
	stored.RejectionReason = d.RejectionReason
	stored.UpdatedAt = d.UpdatedAt
	s.documents[d.ID] = stored
	return nil
}

func (s *memState) ListApplicationDocuments(_ context.Context, applicationID int64) ([]*models.Document, error) {
	var out []*models.Document
	for _, d := range s.documents {
		if d.ApplicationID == nil || *d.ApplicationID != applicationID {
			continue
		}
		d := d
		out = append(out, &d)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.Before(out[j].UploadedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *memState) RecordStatusChange(_ context.Context, c *StatusChange) error {
	c.ID = s.nextChangeID
	s.nextChangeID++
	s.history = append(s.history, *c)
	return nil
}

func (s *memState) ListStatusChanges(_ context.Context, entity string, entityID int64) ([]*StatusChange, error) {
	var out []*StatusChange
	for _, c := range s.history {
		if c.Entity == entity && c.EntityID == entityID {
			c := c
			out = append(out, &c)
		}
	}
	return out, nil
}

// MemoryRepository is an in-memory Repository for tests and local runs.
// Every call is serialized; transactions swap in the committed copy.
type MemoryRepository struct {
	mu    sync.Mutex
	state *memState
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{state: newMemState()}
}

// InTx runs fn against a copy of the state and keeps the copy when fn succeeds.
func (r *MemoryRepository) InTx(_ context.Context, fn func(Store) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx := r.state.clone()
	if err := fn(tx); err != nil {
		return err
	}
	r.state = tx
	return nil
}

func (r *MemoryRepository) do(fn func(s *memState) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r.state)
}

func (r *MemoryRepository) BorrowerExists(ctx context.Context, id int64) (ok bool, err error) {
	err = r.do(func(s *memState) error { ok, err = s.BorrowerExists(ctx, id); return err })
	return ok, err
}

func (r *MemoryRepository) CreateBorrower(ctx context.Context, b *models.Borrower) error {
	return r.do(func(s *memState) error { return s.CreateBorrower(ctx, b) })
}

func (r *MemoryRepository) GetApplication(ctx context.Context, id int64) (a *models.LoanApplication, err error) {
	err = r.do(func(s *memState) error { a, err = s.GetApplication(ctx, id); return err })
	return a, err
}

func (r *MemoryRepository) ApplicationExists(ctx context.Context, id int64) (ok bool, err error) {
	err = r.do(func(s *memState) error { ok, err = s.ApplicationExists(ctx, id); return err })
	return ok, err
}

func (r *MemoryRepository) CreateApplication(ctx context.Context, a *models.LoanApplication) error {
	return r.do(func(s *memState) error { return s.CreateApplication(ctx, a) })
}

func (r *MemoryRepository) UpdateApplicationStatus(ctx context.Context, a *models.LoanApplication) error {
	return r.do(func(s *memState) error { return s.UpdateApplicationStatus(ctx, a) })
}

func (r *MemoryRepository) GetDocument(ctx context.Context, id int64) (d *models.Document, err error) {
	err = r.do(func(s *memState) error { d, err = s.GetDocument(ctx, id); return err })
	return d, err
}

func (r *MemoryRepository) DocumentExists(ctx context.Context, id int64) (ok bool, err error) {
	err = r.do(func(s *memState) error { ok, err = s.DocumentExists(ctx, id); return err })
	return ok, err
}

func (r *MemoryRepository) CreateDocument(ctx context.Context, d *models.Document) error {
	return r.do(func(s *memState) error { return s.CreateDocument(ctx, d) })
}

func (r *MemoryRepository) UpdateDocumentStatus(ctx context.Context, d *models.Document) error {
	return r.do(func(s *memState) error { return s.UpdateDocumentStatus(ctx, d) })
}

func (r *MemoryRepository) ListApplicationDocuments(ctx context.Context, applicationID int64) (docs []*models.Document, err error) {
	err = r.do(func(s *memState) error { docs, err = s.ListApplicationDocuments(ctx, applicationID); return err })
	return docs, err
}

func (r *MemoryRepository) RecordStatusChange(ctx context.Context, c *StatusChange) error {
	return r.do(func(s *memState) error { return s.RecordStatusChange(ctx, c) })
}

func (r *MemoryRepository) ListStatusChanges(ctx context.Context, entity string, entityID int64) (out []*StatusChange, err error) {
	err = r.do(func(s *memState) error { out, err = s.ListStatusChanges(ctx, entity, entityID); return err })
	return out, err
}

// Ping always succeeds.
func (r *MemoryRepository) Ping(context.Context) error { return nil }

// Close is a no-op.
func (r *MemoryRepository) Close() {}
