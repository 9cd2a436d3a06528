package repository

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/lendline/lendline-stack/common/database"
	"github.com/lendline/lendline-stack/review/migrations"
)

// setupTestDatabase creates a PostgreSQL testcontainer and runs migrations
func setupTestDatabase(t *testing.T) *PostgresRepository {
	if testing.Short() {
		t.Skip("skipping PostgreSQL container test in short mode")
	}
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("lendline_review_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	if err := database.Migrate(connStr, migrations.FS); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	repo, err := NewPostgresRepository(ctx, connStr)
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	t.Cleanup(repo.Close)
	return repo
}

func truncateAll(t *testing.T, repo *PostgresRepository) {
	_, err := repo.pool.Exec(context.Background(), `TRUNCATE status_changes, documents, loan_applications, borrowers`)
	if err != nil {
		t.Fatalf("Failed to truncate tables: %v", err)
	}
}

func TestPostgresRepository(t *testing.T) {
	repo := setupTestDatabase(t)
	runRepositoryTests(t, func(t *testing.T) Repository {
		truncateAll(t, repo)
		return repo
	})
}
