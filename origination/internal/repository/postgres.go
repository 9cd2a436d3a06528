package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lendline/lendline-stack/common/database"
	"github.com/lendline/lendline-stack/common/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, connString string) (*PostgresRepository, error) {
	pool, err := database.NewPool(ctx, connString, database.DefaultPoolOptions())
	if err != nil {
		return nil, err
	}
	return &PostgresRepository{pool: pool}, nil
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

func isViolation(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

func violatedConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

// ============================================================================
// Borrowers
// ============================================================================

const borrowerColumns = `
	id, first_name, last_name, email, phone, national_id, date_of_birth,
	address_line1, address_line2, city, state, postal_code, country,
	annual_income, employment_status, employment_years, created_at, updated_at`

func scanBorrower(row pgx.Row) (*models.Borrower, error) {
	b := &models.Borrower{}
	err := row.Scan(
		&b.ID, &b.FirstName, &b.LastName, &b.Email, &b.Phone, &b.NationalID, &b.DateOfBirth,
		&b.Address.Line1, &b.Address.Line2, &b.Address.City, &b.Address.State, &b.Address.PostalCode, &b.Address.Country,
		&b.AnnualIncome, &b.EmploymentStatus, &b.EmploymentYears, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

// CreateBorrower inserts a borrower
func (r *PostgresRepository) CreateBorrower(ctx context.Context, b *models.Borrower) error {
	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	query := `INSERT INTO borrowers (` + borrowerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	_, err := r.pool.Exec(ctx, query,
		b.ID, b.FirstName, b.LastName, b.Email, b.Phone, b.NationalID, b.DateOfBirth,
		b.Address.Line1, b.Address.Line2, b.Address.City, b.Address.State, b.Address.PostalCode, b.Address.Country,
		b.AnnualIncome, b.EmploymentStatus, b.EmploymentYears, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		// Check for unique constraint violation (23505)
		if isViolation(err, "23505") {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create borrower: %w", err)
	}
	return nil
}

// GetBorrower retrieves a borrower by ID
func (r *PostgresRepository) GetBorrower(ctx context.Context, id int64) (*models.Borrower, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	b, err := scanBorrower(r.pool.QueryRow(ctx, `SELECT `+borrowerColumns+` FROM borrowers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBorrowerNotFound
		}
		return nil, fmt.Errorf("failed to get borrower: %w", err)
	}
	return b, nil
}

// ListBorrowers retrieves a paginated list of borrowers, newest first
func (r *PostgresRepository) ListBorrowers(ctx context.Context, filter ListFilter) ([]*models.Borrower, int, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM borrowers`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count borrowers: %w", err)
	}

	page, limit := pageBounds(filter)
	rows, err := r.pool.Query(ctx, `SELECT `+borrowerColumns+` FROM borrowers
		ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list borrowers: %w", err)
	}
	defer rows.Close()

	var out []*models.Borrower
	for rows.Next() {
		b, err := scanBorrower(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan borrower: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate borrowers: %w", err)
	}
	return out, total, nil
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

// CreateApplication inserts a loan application
func (r *PostgresRepository) CreateApplication(ctx context.Context, a *models.LoanApplication) error {
	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	query := `INSERT INTO loan_applications (` + applicationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.pool.Exec(ctx, query,
		a.ID, a.BorrowerID, a.LoanAmount, a.TermMonths, a.InterestRate, a.MonthlyPayment, a.TotalPayment,
		a.Status, a.Purpose, a.StatusUpdatedBy, a.StatusUpdatedAt, a.RejectionReason, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isViolation(err, "23503") {
			return ErrBorrowerNotFound
		}
		return fmt.Errorf("failed to create loan application: %w", err)
	}
	return nil
}

// GetApplication retrieves a loan application by ID
func (r *PostgresRepository) GetApplication(ctx context.Context, id int64) (*models.LoanApplication, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	a, err := scanApplication(r.pool.QueryRow(ctx, `SELECT `+applicationColumns+` FROM loan_applications WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to get loan application: %w", err)
	}
	return a, nil
}

// ListApplications retrieves a filtered, paginated list of loan applications
func (r *PostgresRepository) ListApplications(ctx context.Context, filter ListFilter) ([]*models.LoanApplication, int, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	whereClause, args, argPos := listWhere(filter, false)

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM loan_applications "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count loan applications: %w", err)
	}

	page, limit := pageBounds(filter)
	args = append(args, limit, (page-1)*limit)
	query := fmt.Sprintf(`SELECT %s FROM loan_applications %s
		ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, applicationColumns, whereClause, argPos, argPos+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list loan applications: %w", err)
	}
	defer rows.Close()

	var out []*models.LoanApplication
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan loan application: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate loan applications: %w", err)
	}
	return out, total, nil
}

// UpdateApplicationStatus saves the status audit fields
func (r *PostgresRepository) UpdateApplicationStatus(ctx context.Context, a *models.LoanApplication) error {
	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	query := `
		UPDATE loan_applications
		SET status = $2, status_updated_by = $3, status_updated_at = $4, rejection_reason = $5, updated_at = $6
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, a.ID, a.Status, a.StatusUpdatedBy, a.StatusUpdatedAt, a.RejectionReason, a.UpdatedAt)
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

// CreateDocument inserts document metadata
func (r *PostgresRepository) CreateDocument(ctx context.Context, d *models.Document) error {
	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	query := `INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.pool.Exec(ctx, query,
		d.ID, d.BorrowerID, d.ApplicationID, d.DocumentType, d.FileName, d.ContentType, d.SizeBytes, d.StoragePath,
		d.Status, d.StatusUpdatedBy, d.StatusUpdatedAt, d.RejectionReason, d.UploadedAt, d.UpdatedAt,
	)
	if err != nil {
		if isViolation(err, "23503") {
			if strings.Contains(violatedConstraint(err), "application") {
				return ErrApplicationNotFound
			}
			return ErrBorrowerNotFound
		}
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

// GetDocument retrieves document metadata by ID
func (r *PostgresRepository) GetDocument(ctx context.Context, id int64) (*models.Document, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	d, err := scanDocument(r.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return d, nil
}

// ListDocuments retrieves a filtered, paginated list of documents
func (r *PostgresRepository) ListDocuments(ctx context.Context, filter ListFilter) ([]*models.Document, int, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	whereClause, args, argPos := listWhere(filter, true)

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM documents "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count documents: %w", err)
	}

	page, limit := pageBounds(filter)
	args = append(args, limit, (page-1)*limit)
	query := fmt.Sprintf(`SELECT %s FROM documents %s
		ORDER BY uploaded_at DESC, id DESC LIMIT $%d OFFSET $%d`, documentColumns, whereClause, argPos, argPos+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var out []*models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan document: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return out, total, nil
}

// UpdateDocumentStatus saves the status audit fields
func (r *PostgresRepository) UpdateDocumentStatus(ctx context.Context, d *models.Document) error {
	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	query := `
		UPDATE documents
		SET status = $2, status_updated_by = $3, status_updated_at = $4, rejection_reason = $5, updated_at = $6
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, d.ID, d.Status, d.StatusUpdatedBy, d.StatusUpdatedAt, d.RejectionReason, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update document status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// listWhere builds the WHERE clause shared by the list queries.
func listWhere(filter ListFilter, documents bool) (string, []interface{}, int) {
	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argPos := 1

	if filter.BorrowerID != 0 {
		whereClause += fmt.Sprintf(" AND borrower_id = $%d", argPos)
		args = append(args, filter.BorrowerID)
		argPos++
	}
	if documents && filter.ApplicationID != 0 {
		whereClause += fmt.Sprintf(" AND application_id = $%d", argPos)
		args = append(args, filter.ApplicationID)
		argPos++
	}
	if filter.Status != "" {
		whereClause += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, filter.Status)
		argPos++
	}
	return whereClause, args, argPos
}
