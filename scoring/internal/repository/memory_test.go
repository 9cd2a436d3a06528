package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository(t *testing.T) {
	runRepositoryTests(t, func(t *testing.T) Repository {
		return NewMemoryRepository()
	})
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	require.NoError(t, repo.CreateBorrower(ctx, testBorrower(1)))

	got, err := repo.GetBorrower(ctx, 1)
	require.NoError(t, err)
	got.AnnualIncome = 1

	again, err := repo.GetBorrower(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 50000.0, again.AnnualIncome)
}
