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
	scores       map[int64]models.LoanScore
}

func newMemState() *memState {
	return &memState{
		borrowers:    make(map[int64]models.Borrower),
		applications: make(map[int64]models.LoanApplication),
		scores:       make(map[int64]models.LoanScore),
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
	for k, v := range s.scores {
		c.scores[k] = v
	}
	return c
}

func (s *memState) BorrowerExists(_ context.Context, id int64) (bool, error) {
	_, ok := s.borrowers[id]
	return ok, nil
}

func (s *memState) GetBorrower(_ context.Context, id int64) (*models.Borrower, error) {
	b, ok := s.borrowers[id]
	if !ok {
		return nil, ErrBorrowerNotFound
	}
	return &b, nil
}

func (s *memState) CreateBorrower(_ context.Context, b *models.Borrower) error {
	if _, ok := s.borrowers[b.ID]; ok {
		return ErrBorrowerExists
	}
	s.borrowers[b.ID] = *b
	return nil
}

func (s *memState) ApplicationExists(_ context.Context, id int64) (bool, error) {
	_, ok := s.applications[id]
	return ok, nil
}

func (s *memState) GetApplication(_ context.Context, id int64) (*models.LoanApplication, error) {
	a, ok := s.applications[id]
	if !ok {
		return nil, ErrApplicationNotFound
	}
	return &a, nil
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

func (s *memState) CreateScore(_ context.Context, sc *models.LoanScore) error {
	if _, ok := s.scores[sc.ApplicationID]; ok {
		return ErrScoreExists
	}
	s.scores[sc.ApplicationID] = *sc
	return nil
}

func (s *memState) GetScore(_ context.Context, applicationID int64) (*models.LoanScore, error) {
	sc, ok := s.scores[applicationID]
	if !ok {
		return nil, ErrScoreNotFound
	}
	return &sc, nil
}

// MemoryRepository is an in-memory Repository for tests and local runs.
// Transactions are serialized and applied by swapping in the committed copy.
type MemoryRepository struct {
	mu    sync.RWMutex
	state *memState
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{state: newMemState()}
}

func (r *MemoryRepository) BorrowerExists(ctx context.Context, id int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.BorrowerExists(ctx, id)
}

func (r *MemoryRepository) GetBorrower(ctx context.Context, id int64) (*models.Borrower, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.GetBorrower(ctx, id)
}

func (r *MemoryRepository) CreateBorrower(ctx context.Context, b *models.Borrower) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.CreateBorrower(ctx, b)
}

func (r *MemoryRepository) ApplicationExists(ctx context.Context, id int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.ApplicationExists(ctx, id)
}

func (r *MemoryRepository) GetApplication(ctx context.Context, id int64) (*models.LoanApplication, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.GetApplication(ctx, id)
}

func (r *MemoryRepository) CreateApplication(ctx context.Context, a *models.LoanApplication) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.CreateApplication(ctx, a)
}

func (r *MemoryRepository) CreateScore(ctx context.Context, sc *models.LoanScore) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.CreateScore(ctx, sc)
}

func (r *MemoryRepository) GetScore(ctx context.Context, applicationID int64) (*models.LoanScore, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.GetScore(ctx, applicationID)
}

// ListScores filters, sorts newest first and paginates.
func (r *MemoryRepository) ListScores(_ context.Context, filter ScoreFilter) ([]*models.LoanScore, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*models.LoanScore
	for _, sc := range r.state.scores {
		if !filter.matches(sc) {
			continue
		}
		sc := sc
		matched = append(matched, &sc)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CalculatedAt.Equal(matched[j].CalculatedAt) {
			return matched[i].CalculatedAt.After(matched[j].CalculatedAt)
		}
		return matched[i].ApplicationID > matched[j].ApplicationID
	})

	total := len(matched)
	page, limit := pageBounds(filter)
	start := (page - 1) * limit
	if start >= total {
		return nil, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (f ScoreFilter) matches(sc models.LoanScore) bool {
	switch {
	case f.BorrowerID != 0 && sc.BorrowerID != f.BorrowerID:
		return false
	case f.Grade != "" && sc.Grade != f.Grade:
		return false
	case f.Risk != "" && sc.Risk != f.Risk:
		return false
	case f.MinScore != nil && sc.TotalScore < *f.MinScore:
		return false
	case f.MaxScore != nil && sc.TotalScore > *f.MaxScore:
		return false
	}
	return true
}

// InTx runs fn against a copy of the state and keeps the copy when fn succeeds.
func (r *MemoryRepository) InTx(_ context.Context, fn func(Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx := &memTx{memState: r.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	r.state = tx.memState
	return nil
}

// Ping always succeeds.
func (r *MemoryRepository) Ping(context.Context) error { return nil }

// Close is a no-op.
func (r *MemoryRepository) Close() {}

type memTx struct {
	*memState
}

func (t *memTx) Savepoint(_ context.Context, fn func(Tx) error) error {
	nested := &memTx{memState: t.memState.clone()}
	if err := fn(nested); err != nil {
		return err
	}
	t.memState = nested.memState
	return nil
}
