package repository

import (
	"testing"
	"time"

	"github.com/avyhea/avyhea-backend/internal/app/model"
	"github.com/avyhea/avyhea-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCartTest(t *testing.T) (*gorm.DB, CartRepository, *model.User, *model.Product) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	repo := NewCartRepository(testDB)

	user := &model.User{Email: "test@example.com", PasswordHash: "hash", Name: "Test User"}
	require.NoError(t, testDB.Create(user).Error)

	category := &model.Category{Name: "Ceramics"}
	require.NoError(t, testDB.Create(category).Error)

	product := &model.Product{Name: "Stoneware Mug", Price: 100, Stock: 10, CategoryID: category.ID}
	require.NoError(t, testDB.Create(product).Error)

	return testDB, repo, user, product
}

func TestCartRepository_FindOrCreateByUserID(t *testing.T) {
	testDB, repo, user, _ := setupCartTest(t)
	defer db.CleanupTestDB(testDB)

	cart, err := repo.FindOrCreateByUserID(user.ID)
	require.NoError(t, err)
	assert.NotZero(t, cart.ID)

	// Second call returns the same cart
	again, err := repo.FindOrCreateByUserID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)

	var count int64
	testDB.Model(&model.Cart{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCartRepository_FindByUserID_NotFound(t *testing.T) {
	testDB, repo, user, _ := setupCartTest(t)
	defer db.CleanupTestDB(testDB)

	_, err := repo.FindByUserID(user.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCartRepository_FindItem_MatchesColor(t *testing.T) {
	testDB, repo, user, product := setupCartTest(t)
	defer db.CleanupTestDB(testDB)

	cart, err := repo.FindOrCreateByUserID(user.ID)
	require.NoError(t, err)

	require.NoError(t, repo.CreateItem(&model.CartItem{
		CartID: cart.ID, ProductID: product.ID, Color: "blue", Quantity: 2, Price: 100,
	}))

	item, err := repo.FindItem(cart.ID, product.ID, "blue")
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity)

	_, err = repo.FindItem(cart.ID, product.ID, "green")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCartRepository_CountItems(t *testing.T) {
	testDB, repo, user, product := setupCartTest(t)
	defer db.CleanupTestDB(testDB)

	cart, err := repo.FindOrCreateByUserID(user.ID)
	require.NoError(t, err)

	count, err := repo.CountItems(cart.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	require.NoError(t, repo.CreateItem(&model.CartItem{
		CartID: cart.ID, ProductID: product.ID, Color: "blue", Quantity: 2, Price: 100,
	}))
	require.NoError(t, repo.CreateItem(&model.CartItem{
		CartID: cart.ID, ProductID: product.ID, Color: "green", Quantity: 1, Price: 100,
	}))

	count, err = repo.CountItems(cart.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestCartRepository_DeleteCart_RemovesItems(t *testing.T) {
	testDB, repo, user, product := setupCartTest(t)
	defer db.CleanupTestDB(testDB)

	cart, err := repo.FindOrCreateByUserID(user.ID)
	require.NoError(t, err)
	require.NoError(t, repo.CreateItem(&model.CartItem{
		CartID: cart.ID, ProductID: product.ID, Color: "blue", Quantity: 2, Price: 100,
	}))

	require.NoError(t, repo.DeleteCart(cart.ID))

	var cartCount, itemCount int64
	testDB.Model(&model.Cart{}).Count(&cartCount)
	testDB.Model(&model.CartItem{}).Count(&itemCount)
	assert.Equal(t, int64(0), cartCount)
	assert.Equal(t, int64(0), itemCount)
}

func TestCartRepository_DeleteStale(t *testing.T) {
	testDB, repo, user, product := setupCartTest(t)
	defer db.CleanupTestDB(testDB)

	other := &model.User{Email: "other@example.com", PasswordHash: "hash", Name: "Other"}
	require.NoError(t, testDB.Create(other).Error)

	staleCart, err := repo.FindOrCreateByUserID(user.ID)
	require.NoError(t, err)
	require.NoError(t, repo.CreateItem(&model.CartItem{
		CartID: staleCart.ID, ProductID: product.ID, Color: "blue", Quantity: 1, Price: 100,
	}))

	freshCart, err := repo.FindOrCreateByUserID(other.ID)
	require.NoError(t, err)
	require.NoError(t, repo.CreateItem(&model.CartItem{
		CartID: freshCart.ID, ProductID: product.ID, Color: "blue", Quantity: 1, Price: 100,
	}))

	// Backdate the stale cart past the cutoff
	old := time.Now().Add(-40 * 24 * time.Hour)
	require.NoError(t, testDB.Model(&model.Cart{}).Where("id = ?", staleCart.ID).
		Update("updated_at", old).Error)

	deleted, err := repo.DeleteStale(time.Now().Add(-30 * 24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var remaining []model.Cart
	testDB.Find(&remaining)
	require.Len(t, remaining, 1)
	assert.Equal(t, freshCart.ID, remaining[0].ID)

	// Orphaned items go with their cart
	var itemCount int64
	testDB.Model(&model.CartItem{}).Where("cart_id = ?", staleCart.ID).Count(&itemCount)
	assert.Equal(t, int64(0), itemCount)
}
