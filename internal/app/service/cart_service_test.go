package service

import (
	"testing"

	"github.com/avyhea/avyhea-backend/internal/app/model"
	"github.com/avyhea/avyhea-backend/internal/app/repository"
	"github.com/avyhea/avyhea-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCartServiceTest(t *testing.T) (CartService, *gorm.DB, *model.User, *model.Product) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	cartRepo := repository.NewCartRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	cartService := NewCartService(cartRepo, productRepo)

	user := &model.User{
		Email:        "cart@example.com",
		PasswordHash: "hash",
		Name:         "Cart User",
	}
	testDB.Create(user)

	category := &model.Category{Name: "Baskets"}
	testDB.Create(category)

	product := &model.Product{
		Name:       "Willow Basket",
		Price:      80,
		Stock:      20,
		CategoryID: category.ID,
	}
	testDB.Create(product)

	return cartService, testDB, user, product
}

func TestCartService_AddToCart_CreatesCartLazily(t *testing.T) {
	cartService, testDB, user, product := setupCartServiceTest(t)

	var count int64
	testDB.Model(&model.Cart{}).Count(&count)
	require.Zero(t, count)

	cart, err := cartService.AddToCart(user.ID, product.ID, "natural", 2, 0)
	require.NoError(t, err)
	require.NotNil(t, cart)
	assert.Equal(t, user.ID, cart.UserID)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	// Price defaults to the product price when none is given
	assert.Equal(t, float64(80), cart.Items[0].Price)
}

func TestCartService_AddToCart_InsufficientStock(t *testing.T) {
	cartService, testDB, user, product := setupCartServiceTest(t)

	_, err := cartService.AddToCart(user.ID, product.ID, "natural", 21, 0)

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Willow Basket", stockErr.ProductName)

	// Nothing was created
	var cartCount int64
	testDB.Model(&model.Cart{}).Count(&cartCount)
	assert.Zero(t, cartCount)
}

func TestCartService_AddToCart_MergesSameProductAndColor(t *testing.T) {
	cartService, _, user, product := setupCartServiceTest(t)

	_, err := cartService.AddToCart(user.ID, product.ID, "natural", 2, 80)
	require.NoError(t, err)

	// Same product and color: quantities sum, newer price wins
	cart, err := cartService.AddToCart(user.ID, product.ID, "natural", 3, 75)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, float64(75), cart.Items[0].Price)

	// Same product, different color: separate line
	cart, err = cartService.AddToCart(user.ID, product.ID, "charcoal", 1, 80)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
}

func TestCartService_AddToCart_UnknownProduct(t *testing.T) {
	cartService, _, user, _ := setupCartServiceTest(t)

	cart, err := cartService.AddToCart(user.ID, 9999, "natural", 1, 0)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Nil(t, cart)
}

func TestCartService_UpdateQuantity_IncreaseAndDecrease(t *testing.T) {
	cartService, _, user, product := setupCartServiceTest(t)

	cart, err := cartService.AddToCart(user.ID, product.ID, "natural", 2, 80)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	cart, err = cartService.UpdateQuantity(user.ID, itemID, CartActionIncrease)
	require.NoError(t, err)
	assert.Equal(t, 3, cart.Items[0].Quantity)

	cart, err = cartService.UpdateQuantity(user.ID, itemID, CartActionDecrease)
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Items[0].Quantity)

	_, err = cartService.UpdateQuantity(user.ID, itemID, "duplicate")
	assert.ErrorIs(t, err, ErrInvalidCartAction)
}

func TestCartService_UpdateQuantity_DecreaseToZeroRemovesLine(t *testing.T) {
	cartService, testDB, user, product := setupCartServiceTest(t)

	cart, err := cartService.AddToCart(user.ID, product.ID, "natural", 1, 80)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	// Dropping the only line to zero deletes the whole cart
	result, err := cartService.UpdateQuantity(user.ID, itemID, CartActionDecrease)
	require.NoError(t, err)
	assert.Nil(t, result)

	var count int64
	testDB.Model(&model.Cart{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Zero(t, count)
}

func TestCartService_UpdateQuantity_DeleteAction(t *testing.T) {
	cartService, testDB, user, product := setupCartServiceTest(t)

	_, err := cartService.AddToCart(user.ID, product.ID, "natural", 2, 80)
	require.NoError(t, err)
	cart, err := cartService.AddToCart(user.ID, product.ID, "charcoal", 1, 80)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)

	cart, err = cartService.UpdateQuantity(user.ID, cart.Items[0].ID, CartActionDelete)
	require.NoError(t, err)
	require.NotNil(t, cart)
	assert.Len(t, cart.Items, 1)

	// Removing the remaining line removes the cart itself
	result, err := cartService.UpdateQuantity(user.ID, cart.Items[0].ID, CartActionDelete)
	require.NoError(t, err)
	assert.Nil(t, result)

	var count int64
	testDB.Model(&model.Cart{}).Count(&count)
	assert.Zero(t, count)
}

func TestCartService_UpdateQuantity_MissingCartOrItem(t *testing.T) {
	cartService, _, user, product := setupCartServiceTest(t)

	_, err := cartService.UpdateQuantity(user.ID, 1, CartActionIncrease)
	assert.ErrorIs(t, err, ErrCartNotFound)

	_, err = cartService.AddToCart(user.ID, product.ID, "natural", 1, 80)
	require.NoError(t, err)

	_, err = cartService.UpdateQuantity(user.ID, 9999, CartActionIncrease)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
}

func TestCartService_GetCartItems(t *testing.T) {
	cartService, _, user, product := setupCartServiceTest(t)

	_, err := cartService.GetCartItems(user.ID)
	assert.ErrorIs(t, err, ErrCartNotFound)

	_, err = cartService.AddToCart(user.ID, product.ID, "natural", 2, 80)
	require.NoError(t, err)

	cart, err := cartService.GetCartItems(user.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "Willow Basket", cart.Items[0].Product.Name)
}

func TestCartService_GetCartCount(t *testing.T) {
	cartService, _, user, product := setupCartServiceTest(t)

	count, err := cartService.GetCartCount(user.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = cartService.AddToCart(user.ID, product.ID, "natural", 2, 80)
	require.NoError(t, err)
	_, err = cartService.AddToCart(user.ID, product.ID, "charcoal", 1, 80)
	require.NoError(t, err)

	count, err = cartService.GetCartCount(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
