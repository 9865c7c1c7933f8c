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

func setupProductServiceTest(t *testing.T) (ProductService, CategoryService, *gorm.DB, *model.Category) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	productRepo := repository.NewProductRepository(testDB)
	categoryRepo := repository.NewCategoryRepository(testDB)
	productService := NewProductService(productRepo, categoryRepo)
	categoryService := NewCategoryService(categoryRepo, productRepo)

	category := &model.Category{Name: "Glassware"}
	testDB.Create(category)

	return productService, categoryService, testDB, category
}

func TestProductService_CreateProduct(t *testing.T) {
	productService, _, _, category := setupProductServiceTest(t)

	product, err := productService.CreateProduct(ProductInput{
		Name:       "Blown Glass Pitcher",
		Price:      200,
		Stock:      5,
		CategoryID: category.ID,
		Colors:     []string{"clear", "amber"},
	})
	require.NoError(t, err)
	assert.NotZero(t, product.ID)
	// New listings start at the default rating
	assert.Equal(t, model.DefaultProductRating, product.AverageRating)
	assert.Zero(t, product.NumReviews)

	_, err = productService.CreateProduct(ProductInput{
		Name:       "Orphan Product",
		Price:      10,
		CategoryID: 9999,
	})
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestProductService_GetProducts_Filtering(t *testing.T) {
	productService, _, testDB, category := setupProductServiceTest(t)

	other := &model.Category{Name: "Jewelry"}
	testDB.Create(other)

	seed := []model.Product{
		{Name: "Tumbler Set", Price: 60, Stock: 10, CategoryID: category.ID, AverageRating: 4.5},
		{Name: "Wine Glasses", Price: 90, Stock: 10, CategoryID: category.ID, AverageRating: 3.8},
		{Name: "Silver Ring", Price: 150, Stock: 10, CategoryID: other.ID, AverageRating: 5},
	}
	for i := range seed {
		testDB.Create(&seed[i])
	}

	products, total, err := productService.GetProducts(repository.ProductFilter{CategoryID: &category.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, products, 2)

	min := 100
	products, total, err = productService.GetProducts(repository.ProductFilter{PriceMin: &min})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Silver Ring", products[0].Name)

	rating := 4.0
	_, total, err = productService.GetProducts(repository.ProductFilter{MinRating: &rating})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, total, err = productService.GetProducts(repository.ProductFilter{Search: "glass"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	products, total, err = productService.GetProducts(repository.ProductFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, products, 1)
}

func TestProductService_UpdateProduct(t *testing.T) {
	productService, _, _, category := setupProductServiceTest(t)

	product, err := productService.CreateProduct(ProductInput{
		Name:       "Vase",
		Price:      100,
		Stock:      3,
		CategoryID: category.ID,
	})
	require.NoError(t, err)

	updated, err := productService.UpdateProduct(product.ID, ProductInput{
		Price: 120,
		Stock: 7,
	})
	require.NoError(t, err)
	assert.Equal(t, float64(120), updated.Price)
	assert.Equal(t, 7, updated.Stock)
	assert.Equal(t, "Vase", updated.Name)

	_, err = productService.UpdateProduct(9999, ProductInput{Price: 1})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductService_DeleteProduct_Cascades(t *testing.T) {
	productService, _, testDB, category := setupProductServiceTest(t)

	product, err := productService.CreateProduct(ProductInput{
		Name:       "Decanter",
		Price:      180,
		Stock:      4,
		CategoryID: category.ID,
	})
	require.NoError(t, err)

	user := &model.User{Email: "buyer@example.com", PasswordHash: "hash", Name: "Buyer"}
	testDB.Create(user)

	order := &model.Order{
		UserID:        user.ID,
		TotalPrice:    280,
		PaymentMethod: model.PaymentCashOnDelivery,
		Status:        model.OrderStatusDelivered,
		Items: []model.OrderItem{
			{ProductID: product.ID, Color: "clear", Quantity: 1, Price: 180},
		},
	}
	testDB.Create(order)
	testDB.Create(&model.Review{UserID: user.ID, ProductID: product.ID, OrderID: order.ID, Rating: 5, Comment: "superb"})

	cart := &model.Cart{UserID: user.ID}
	testDB.Create(cart)
	testDB.Create(&model.CartItem{CartID: cart.ID, ProductID: product.ID, Color: "clear", Quantity: 1, Price: 180})

	require.NoError(t, productService.DeleteProduct(product.ID))

	var productCount, reviewCount, orderCount, orderItemCount, cartCount, cartItemCount int64
	testDB.Model(&model.Product{}).Count(&productCount)
	testDB.Model(&model.Review{}).Count(&reviewCount)
	testDB.Model(&model.Order{}).Count(&orderCount)
	testDB.Model(&model.OrderItem{}).Count(&orderItemCount)
	testDB.Model(&model.Cart{}).Count(&cartCount)
	testDB.Model(&model.CartItem{}).Count(&cartItemCount)

	assert.Zero(t, productCount)
	assert.Zero(t, reviewCount)
	// The order only held this product, so it goes too
	assert.Zero(t, orderCount)
	assert.Zero(t, orderItemCount)
	assert.Zero(t, cartCount)
	assert.Zero(t, cartItemCount)

	assert.ErrorIs(t, productService.DeleteProduct(product.ID), ErrProductNotFound)
}

func TestCategoryService_CRUD(t *testing.T) {
	_, categoryService, _, _ := setupProductServiceTest(t)

	category, err := categoryService.CreateCategory("Leather", "Bags and belts")
	require.NoError(t, err)
	assert.NotZero(t, category.ID)

	_, err = categoryService.CreateCategory("Leather", "dup")
	assert.ErrorIs(t, err, ErrCategoryExists)

	updated, err := categoryService.UpdateCategory(category.ID, "Leather Goods", "")
	require.NoError(t, err)
	assert.Equal(t, "Leather Goods", updated.Name)
	assert.Equal(t, "Bags and belts", updated.Description)

	categories, err := categoryService.GetCategories()
	require.NoError(t, err)
	// Glassware from setup plus the new one
	assert.Len(t, categories, 2)

	_, err = categoryService.GetCategoryByID(9999)
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestCategoryService_DeleteCascadesProducts(t *testing.T) {
	productService, categoryService, testDB, category := setupProductServiceTest(t)

	_, err := productService.CreateProduct(ProductInput{
		Name: "Goblet", Price: 45, Stock: 12, CategoryID: category.ID,
	})
	require.NoError(t, err)
	_, err = productService.CreateProduct(ProductInput{
		Name: "Carafe", Price: 75, Stock: 6, CategoryID: category.ID,
	})
	require.NoError(t, err)

	require.NoError(t, categoryService.DeleteCategory(category.ID))

	var categoryCount, productCount int64
	testDB.Model(&model.Category{}).Count(&categoryCount)
	testDB.Model(&model.Product{}).Count(&productCount)
	assert.Zero(t, categoryCount)
	assert.Zero(t, productCount)

	assert.ErrorIs(t, categoryService.DeleteCategory(category.ID), ErrCategoryNotFound)
}
