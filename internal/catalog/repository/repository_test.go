package repository_test

import (
	"context"
	"testing"
	"time"

	db "github.com/zsimmons25/see-more/internal/catalog/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *db.Repository {
	// Use in-memory database for tests
	repo, err := db.NewRepository(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test repository: %v", err)
	}

	if err := repo.RunMigrations("../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return repo
}

func TestGetAllProducts_Returns5AfterMigrations(t *testing.T) {
	repo := setupTestDB(t)
	defer repo.Close()

	products, err := repo.GetAllProducts(context.Background())

	require.NoError(t, err)
	assert.Len(t, products, 5) // The seed migration inserts 5 products
}

func TestGetAllProducts_WithContext(t *testing.T) {
	repo := setupTestDB(t)
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*1)
	defer cancel()

	products, err := repo.GetAllProducts(ctx)

	require.NoError(t, err)
	assert.Len(t, products, 5)
}

func TestGetAllProducts_CancelledContext(t *testing.T) {
	repo := setupTestDB(t)
	defer repo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.GetAllProducts(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetProduct_ReturnsProduct(t *testing.T) {
	repo := setupTestDB(t)
	defer repo.Close()

	product, err := repo.GetProduct(context.Background(), 1)

	require.NoError(t, err)
	require.NotNil(t, product)
	assert.NotEmpty(t, product.Name)
	assert.Greater(t, product.Price, 0.0)
}

func TestGetProduct_IncorrectId_ReturnsNotFound(t *testing.T) {
	repo := setupTestDB(t)
	defer repo.Close()

	product, err := repo.GetProduct(context.Background(), -1)

	assert.Nil(t, product)
	assert.ErrorIs(t, err, db.ErrProductNotFound)
}
