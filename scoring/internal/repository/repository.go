// Package repository stores the scoring replicas of borrowers and loan
// applications together with the scores computed from them.
package repository

import (
	"context"
	"errors"

	"github.com/lendline/lendline-stack/common/models"
)

var (
	ErrBorrowerNotFound    = errors.New("borrower not found")
	ErrBorrowerExists      = errors.New("borrower already exists")
	ErrApplicationNotFound = errors.New("loan application not found")
	ErrApplicationExists   = errors.New("loan application already exists")
	ErrScoreNotFound       = errors.New("loan score not found")
	ErrScoreExists         = errors.New("loan score already exists")
)

// Store holds the operations available both on the repository and inside a transaction.
type Store interface {
	BorrowerExists(ctx context.Context, id int64) (bool, error)
	GetBorrower(ctx context.Context, id int64) (*models.Borrower, error)
	CreateBorrower(ctx context.Context, b *models.Borrower) error

	ApplicationExists(ctx context.Context, id int64) (bool, error)
	GetApplication(ctx context.Context, id int64) (*models.LoanApplication, error)
	CreateApplication(ctx context.Context, a *models.LoanApplication) error

	// CreateScore returns ErrScoreExists when the application already has a score.
	CreateScore(ctx context.Context, s *models.LoanScore) error
	GetScore(ctx context.Context, applicationID int64) (*models.LoanScore, error)
}

// Tx is a Store bound to an open transaction.
type Tx interface {
	Store

	// Savepoint runs fn in a nested transaction. When fn fails only its own
	// writes are rolled back and the enclosing transaction stays usable.
	Savepoint(ctx context.Context, fn func(Tx) error) error
}

// ScoreFilter narrows ListScores. Zero values match everything.
type ScoreFilter struct {
	BorrowerID int64
	Grade      models.Grade
	Risk       models.Risk
	MinScore   *int
	MaxScore   *int
	Page       int
	Limit      int
}

// Repository is the scoring store.
type Repository interface {
	Store

	// ListScores returns one page of matching scores, newest first, and the total match count.
	ListScores(ctx context.Context, filter ScoreFilter) ([]*models.LoanScore, int, error)

	// InTx runs fn in a transaction that commits when fn returns nil.
	InTx(ctx context.Context, fn func(Tx) error) error

	Ping(ctx context.Context) error
	Close()
}
