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
func (r *PostgresRepository) InTx(ctx context.Context, fn func(Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&postgresTx{pgStore: pgStore{q: tx}, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type postgresTx struct {
	pgStore
	tx pgx.Tx
}

// Savepoint uses a pgx nested transaction, which pgx implements with SAVEPOINT.
func (t *postgresTx) Savepoint(ctx context.Context, fn func(Tx) error) error {
	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to create savepoint: %w", err)
	}
	if err := fn(&postgresTx{pgStore: pgStore{q: sp}, tx: sp}); err != nil {
		if rbErr := sp.Rollback(ctx); rbErr != nil {
			return errors.Join(err, fmt.Errorf("failed to roll back savepoint: %w", rbErr))
		}
		return err
	}
	if err := sp.Commit(ctx); err != nil {
		return fmt.Errorf("failed to release savepoint: %w", err)
	}
	return nil
}

func (s pgStore) exists(ctx context.Context, query string, id int64) (bool, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	var exists bool
	if err := s.q.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// BorrowerExists reports whether the borrower replica is present.
func (s pgStore) BorrowerExists(ctx context.Context, id int64) (bool, error) {
	exists, err := s.exists(ctx, `SELECT EXISTS(SELECT 1 FROM borrowers WHERE id = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("failed to check borrower: %w", err)
	}
	return exists, nil
}

// GetBorrower retrieves a borrower replica by ID
func (s pgStore) GetBorrower(ctx context.Context, id int64) (*models.Borrower, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	query := `
		SELECT id, first_name, last_name, email, annual_income,
		       employment_status, employment_years, created_at, updated_at
		FROM borrowers
		WHERE id = $1
	`

	b := &models.Borrower{}
	err := s.q.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.FirstName, &b.LastName, &b.Email, &b.AnnualIncome,
		&b.EmploymentStatus, &b.EmploymentYears, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBorrowerNotFound
		}
		return nil, fmt.Errorf("failed to get borrower: %w", err)
	}
	return b, nil
}

// CreateBorrower inserts a borrower replica under the id assigned by origination.
func (s pgStore) CreateBorrower(ctx context.Context, b *models.Borrower) error {
	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	query := `
		INSERT INTO borrowers (id, first_name, last_name, email, annual_income,
		                       employment_status, employment_years, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`

	tag, err := s.q.Exec(ctx, query,
		b.ID, b.FirstName, b.LastName, b.Email, b.AnnualIncome,
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

// ApplicationExists reports whether the application replica is present.
func (s pgStore) ApplicationExists(ctx context.Context, id int64) (bool, error) {
	exists, err := s.exists(ctx, `SELECT EXISTS(SELECT 1 FROM loan_applications WHERE id = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("failed to check loan application: %w", err)
	}
	return exists, nil
}

// GetApplication retrieves a loan application replica by ID
func (s pgStore) GetApplication(ctx context.Context, id int64) (*models.LoanApplication, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	query := `
		SELECT id, borrower_id, loan_amount, term_months, interest_rate,
		       monthly_payment, total_payment, status, purpose, created_at, updated_at
		FROM loan_applications
		WHERE id = $1
	`

	a := &models.LoanApplication{}
	err := s.q.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.BorrowerID, &a.LoanAmount, &a.TermMonths, &a.InterestRate,
		&a.MonthlyPayment, &a.TotalPayment, &a.Status, &a.Purpose, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to get loan application: %w", err)
	}
	return a, nil
}

// CreateApplication inserts a loan application replica.
func (s pgStore) CreateApplication(ctx context.Context, a *models.LoanApplication) error {
	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	query := `
		INSERT INTO loan_applications (id, borrower_id, loan_amount, term_months, interest_rate,
		                               monthly_payment, total_payment, status, purpose, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`

	tag, err := s.q.Exec(ctx, query,
		a.ID, a.BorrowerID, a.LoanAmount, a.TermMonths, a.InterestRate,
		a.MonthlyPayment, a.TotalPayment, a.Status, a.Purpose, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrBorrowerNotFound
		}
		return fmt.Errorf("failed to create loan application: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrApplicationExists
	}
	return nil
}

const scoreColumns = `
	application_id, borrower_id, total_score, employment_score, income_score,
	loan_ratio_score, interest_rate_score, employment_years_score, loan_term_score,
	grade, risk, debt_to_income_ratio, rationale, calculated_at`

func scanScore(row pgx.Row) (*models.LoanScore, error) {
	sc := &models.LoanScore{}
	err := row.Scan(
		&sc.ApplicationID, &sc.BorrowerID, &sc.TotalScore, &sc.EmploymentScore, &sc.IncomeScore,
		&sc.LoanRatioScore, &sc.InterestRateScore, &sc.EmploymentYearsScore, &sc.LoanTermScore,
		&sc.Grade, &sc.Risk, &sc.DebtToIncomeRatio, &sc.Rationale, &sc.CalculatedAt,
	)
	return sc, err
}

// CreateScore inserts a score. The application_id primary key keeps one score per application.
func (s pgStore) CreateScore(ctx context.Context, sc *models.LoanScore) error {
	ctx, cancel := database.WriteContext(ctx)
	defer cancel()

	query := `INSERT INTO loan_scores (` + scoreColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (application_id) DO NOTHING`

	tag, err := s.q.Exec(ctx, query,
		sc.ApplicationID, sc.BorrowerID, sc.TotalScore, sc.EmploymentScore, sc.IncomeScore,
		sc.LoanRatioScore, sc.InterestRateScore, sc.EmploymentYearsScore, sc.LoanTermScore,
		sc.Grade, sc.Risk, sc.DebtToIncomeRatio, sc.Rationale, sc.CalculatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create loan score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrScoreExists
	}
	return nil
}

// GetScore retrieves the score of an application
func (s pgStore) GetScore(ctx context.Context, applicationID int64) (*models.LoanScore, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	query := `SELECT ` + scoreColumns + ` FROM loan_scores WHERE application_id = $1`

	sc, err := scanScore(s.q.QueryRow(ctx, query, applicationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrScoreNotFound
		}
		return nil, fmt.Errorf("failed to get loan score: %w", err)
	}
	return sc, nil
}

// ListScores retrieves a filtered, paginated list of scores
func (r *PostgresRepository) ListScores(ctx context.Context, filter ScoreFilter) ([]*models.LoanScore, int, error) {
	ctx, cancel := database.QueryContext(ctx)
	defer cancel()

	// Build WHERE clause
	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argPos := 1

	if filter.BorrowerID != 0 {
		whereClause += fmt.Sprintf(" AND borrower_id = $%d", argPos)
		args = append(args, filter.BorrowerID)
		argPos++
	}
	if filter.Grade != "" {
		whereClause += fmt.Sprintf(" AND grade = $%d", argPos)
		args = append(args, filter.Grade)
		argPos++
	}
	if filter.Risk != "" {
		whereClause += fmt.Sprintf(" AND risk = $%d", argPos)
		args = append(args, filter.Risk)
		argPos++
	}
	if filter.MinScore != nil {
		whereClause += fmt.Sprintf(" AND total_score >= $%d", argPos)
		args = append(args, *filter.MinScore)
		argPos++
	}
	if filter.MaxScore != nil {
		whereClause += fmt.Sprintf(" AND total_score <= $%d", argPos)
		args = append(args, *filter.MaxScore)
		argPos++
	}

	// Count total
	var total int
	countQuery := "SELECT COUNT(*) FROM loan_scores " + whereClause
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count loan scores: %w", err)
	}

	page, limit := pageBounds(filter)
	args = append(args, limit, (page-1)*limit)
	query := fmt.Sprintf(`SELECT %s FROM loan_scores %s
		ORDER BY calculated_at DESC, application_id DESC
		LIMIT $%d OFFSET $%d`, scoreColumns, whereClause, argPos, argPos+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list loan scores: %w", err)
	}
	defer rows.Close()

	var scores []*models.LoanScore
	for rows.Next() {
		sc, err := scanScore(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan loan score: %w", err)
		}
		scores = append(scores, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate loan scores: %w", err)
	}
	return scores, total, nil
}

func pageBounds(f ScoreFilter) (page, limit int) {
	page, limit = f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	return page, limit
}
