package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lendline/lendline-stack/common/database"
	"github.com/lendline/lendline-stack/common/models"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgStore struct {
	q querier
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pgStore
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, connString string) (*PostgresRepository, error) {
	pool, err := database.NewPool(ctx, connString, database.DefaultPoolOptions())
	if err != nil {
		return nil, err
	}
	return &PostgresRepository{pgStore: pgStore{q: pool}, pool: pool}, nil
}

// Close closes the connection pool
func (r *PostgresRepository) Close() {
	r.pool.Close()
}

// Ping checks the database connection
func (r *PostgresRepository) Ping(ctx context.Context) error {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()
	return r.pool.Ping(ctx)
}

// InTx runs fn inside a transaction.
func (r *PostgresRepository) InTx(ctx context.Context, fn func(Store) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgStore{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *pgStore) exists(ctx context.Context, table string, id int64) (bool, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	var exists bool
	err := s.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM `+table+` WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", table, err)
	}
	return exists, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// ============================================================================
// Borrowers
// ============================================================================

func (s *pgStore) BorrowerExists(ctx context.Context, id int64) (bool, error) {
	return s.exists(ctx, "borrowers", id)
}

// CreateBorrower inserts the replica. An existing row yields ErrBorrowerExists
// without aborting the enclosing transaction.
func (s *pgStore) CreateBorrower(ctx context.Context, b *models.Borrower) error {
	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	query := `
		INSERT INTO borrowers (id, first_name, last_name, email, phone, annual_income,
			employment_status, employment_years, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`
	tag, err := s.q.Exec(ctx, query,
		b.ID, b.FirstName, b.LastName, b.Email, b.Phone, b.AnnualIncome,
		b.EmploymentStatus, b.EmploymentYears, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create borrower: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBorrowerExists
	}
	return nil
}

// ============================================================================
// Loan applications
// ============================================================================

const applicationColumns = `
	id, borrower_id, loan_amount, term_months, interest_rate, monthly_payment, total_payment,
	status, purpose, status_updated_by, status_updated_at, rejection_reason, created_at, updated_at`

func scanApplication(row pgx.Row) (*models.LoanApplication, error) {
	a := &models.LoanApplication{}
	err := row.Scan(
		&a.ID, &a.BorrowerID, &a.LoanAmount, &a.TermMonths, &a.InterestRate, &a.MonthlyPayment, &a.TotalPayment,
		&a.Status, &a.Purpose, &a.StatusUpdatedBy, &a.StatusUpdatedAt, &a.RejectionReason, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

func (s *pgStore) GetApplication(ctx context.Context, id int64) (*models.LoanApplication, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	a, err := scanApplication(s.q.QueryRow(ctx, `SELECT `+applicationColumns+` FROM loan_applications WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to get loan application: %w", err)
	}
	return a, nil
}

func (s *pgStore) ApplicationExists(ctx context.Context, id int64) (bool, error) {
	return s.exists(ctx, "loan_applications", id)
}

func (s *pgStore) CreateApplication(ctx context.Context, a *models.LoanApplication) error {
	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	query := `INSERT INTO loan_applications (` + applicationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING`
	tag, err := s.q.Exec(ctx, query,
		a.ID, a.BorrowerID, a.LoanAmount, a.TermMonths, a.InterestRate, a.MonthlyPayment, a.TotalPayment,
		a.Status, a.Purpose, a.StatusUpdatedBy, a.StatusUpdatedAt, a.RejectionReason, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrBorrowerNotFound
		}
		return fmt.Errorf("failed to create loan application: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrApplicationExists
	}
	return nil
}

func (s *pgStore) UpdateApplicationStatus(ctx context.Context, a *models.LoanApplication) error {
	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	query := `
		UPDATE loan_applications
		SET status = $2, status_updated_by = $3, status_updated_at = $4, rejection_reason = $5, updated_at = $6
		WHERE id = $1
	`
	tag, err := s.q.Exec(ctx, query, a.ID, a.Status, a.StatusUpdatedBy, a.StatusUpdatedAt, a.RejectionReason, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update loan application status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrApplicationNotFound
	}
	return nil
}

// ============================================================================
// Documents
// ============================================================================

const documentColumns = `
	id, borrower_id, application_id, document_type, file_name, content_type, size_bytes, storage_path,
	status, status_updated_by, status_updated_at, rejection_reason, uploaded_at, updated_at`

func scanDocument(row pgx.Row) (*models.Document, error) {
	d := &models.Document{}
	err := row.Scan(
		&d.ID, &d.BorrowerID, &d.ApplicationID, &d.DocumentType, &d.FileName, &d.ContentType, &d.SizeBytes, &d.StoragePath,
		&d.Status, &d.StatusUpdatedBy, &d.StatusUpdatedAt, &d.RejectionReason, &d.UploadedAt, &d.UpdatedAt,
	)
	return d, err
}

func (s *pgStore) GetDocument(ctx context.Context, id int64) (*models.Document, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	d, err := scanDocument(s.q.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return d, nil
}

func (s *pgStore) DocumentExists(ctx context.Context, id int64) (bool, error) {
	return s.exists(ctx, "documents", id)
}

func (s *pgStore) CreateDocument(ctx context.Context, d *models.Document) error {
	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	query := `INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING`
	tag, err := s.q.Exec(ctx, query,
		d.ID, d.BorrowerID, d.ApplicationID, d.DocumentType, d.FileName, d.ContentType, d.SizeBytes, d.StoragePath,
		d.Status, d.StatusUpdatedBy, d.StatusUpdatedAt, d.RejectionReason, d.UploadedAt, d.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrBorrowerNotFound
		}
		return fmt.Errorf("failed to create document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDocumentExists
	}
	return nil
}

func (s *pgStore) UpdateDocumentStatus(ctx context.Context, d *models.Document) error {
	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	query := `
		UPDATE documents
		SET status = $2, status_updated_by = $3, status_updated_at = $4, rejection_reason = $5, updated_at = $6
		WHERE id = $1
	`
	tag, err := s.q.Exec(ctx, query, d.ID, d.Status, d.StatusUpdatedBy, d.StatusUpdatedAt, d.RejectionReason, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update document status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// ListApplicationDocuments returns the documents attached to an application, oldest first.
func (s *pgStore) ListApplicationDocuments(ctx context.Context, applicationID int64) ([]*models.Document, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	rows, err := s.q.Query(ctx, `SELECT `+documentColumns+` FROM documents
		WHERE application_id = $1 ORDER BY uploaded_at, id`, applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var out []*models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ============================================================================
// Status history
// ============================================================================

func (s *pgStore) RecordStatusChange(ctx context.Context, c *StatusChange) error {
	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	query := `
		INSERT INTO status_changes (entity, entity_id, borrower_id, old_status, new_status,
			updated_by, rejection_reason, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := s.q.QueryRow(ctx, query,
		c.Entity, c.EntityID, c.BorrowerID, c.OldStatus, c.NewStatus, c.UpdatedBy, c.RejectionReason, c.ChangedAt,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("failed to record status change: %w", err)
	}
	return nil
}

// ListStatusChanges returns the history of one entity, oldest first.
func (s *pgStore) ListStatusChanges(ctx context.Context, entity string, entityID int64) ([]*StatusChange, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	rows, err := s.q.Query(ctx, `
		SELECT id, entity, entity_id, borrower_id, old_status, new_status, updated_by, rejection_reason, changed_at
		FROM status_changes
		WHERE entity = $1 AND entity_id = $2
		ORDER BY changed_at, id
	`, entity, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list status changes: %w", err)
	}
	defer rows.Close()

	var out []*StatusChange
	for rows.Next() {
		c := &StatusChange{}
		if err := rows.Scan(&c.ID, &c.Entity, &c.EntityID, &c.BorrowerID, &c.OldStatus, &c.NewStatus,
			&c.UpdatedBy, &c.RejectionReason, &c.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status change: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
