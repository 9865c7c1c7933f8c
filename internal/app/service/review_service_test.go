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

func setupReviewServiceTest(t *testing.T) (ReviewService, *gorm.DB, *model.User, *model.Product, *model.Order) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	reviewRepo := repository.NewReviewRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	orderRepo := repository.NewOrderRepository(testDB)
	reviewService := NewReviewService(reviewRepo, productRepo, orderRepo)

	user := &model.User{
		Email:        "review@example.com",
		PasswordHash: "hash",
		Name:         "Review User",
	}
	testDB.Create(user)

	category := &model.Category{Name: "Woodwork"}
	testDB.Create(category)

	product := &model.Product{
		Name:          "Carved Bowl",
		Price:         120,
		Stock:         10,
		CategoryID:    category.ID,
		AverageRating: model.DefaultProductRating,
	}
	testDB.Create(product)

	order := &model.Order{
		UserID:        user.ID,
		TotalPrice:    220,
		PaymentMethod: model.PaymentCashOnDelivery,
		Status:        model.OrderStatusDelivered,
		Items: []model.OrderItem{
			{ProductID: product.ID, Color: "oak", Quantity: 1, Price: 120},
		},
	}
	testDB.Create(order)

	return reviewService, testDB, user, product, order
}

func TestReviewService_CreateReview_Success(t *testing.T) {
	reviewService, testDB, user, product, order := setupReviewServiceTest(t)

	review, err := reviewService.CreateReview(user.ID, product.ID, order.ID, 4, "Lovely grain")
	require.NoError(t, err)
	assert.NotZero(t, review.ID)
	assert.Equal(t, 4, review.Rating)

	var updated model.Product
	testDB.First(&updated, product.ID)
	assert.Equal(t, float64(4), updated.AverageRating)
	assert.Equal(t, 1, updated.NumReviews)
}

func TestReviewService_CreateReview_Validation(t *testing.T) {
	reviewService, testDB, user, product, order := setupReviewServiceTest(t)

	_, err := reviewService.CreateReview(user.ID, product.ID, order.ID, 0, "bad rating")
	assert.ErrorIs(t, err, ErrInvalidRating)

	_, err = reviewService.CreateReview(user.ID, product.ID, order.ID, 6, "bad rating")
	assert.ErrorIs(t, err, ErrInvalidRating)

	_, err = reviewService.CreateReview(user.ID, product.ID, 9999, 4, "no such order")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	// Product was never part of this order
	category := &model.Category{Name: "Other"}
	testDB.Create(category)
	other := &model.Product{Name: "Other Product", Price: 10, CategoryID: category.ID}
	testDB.Create(other)

	_, err = reviewService.CreateReview(user.ID, other.ID, order.ID, 4, "never bought")
	assert.ErrorIs(t, err, ErrProductNotInOrder)

	// Someone else's order
	stranger := &model.User{Email: "stranger@example.com", PasswordHash: "hash", Name: "Stranger"}
	testDB.Create(stranger)
	_, err = reviewService.CreateReview(stranger.ID, product.ID, order.ID, 4, "not my order")
	assert.ErrorIs(t, err, ErrNotOrderOwner)
}

func TestReviewService_CreateReview_DuplicatePerOrder(t *testing.T) {
	reviewService, _, user, product, order := setupReviewServiceTest(t)

	_, err := reviewService.CreateReview(user.ID, product.ID, order.ID, 5, "first")
	require.NoError(t, err)

	_, err = reviewService.CreateReview(user.ID, product.ID, order.ID, 3, "second")
	assert.ErrorIs(t, err, ErrReviewExists)
}

func TestReviewService_RatingAggregate_RoundsToOneDecimal(t *testing.T) {
	reviewService, testDB, user, product, order := setupReviewServiceTest(t)

	// A second purchase of the same product lets the user review again
	secondOrder := &model.Order{
		UserID:        user.ID,
		TotalPrice:    220,
		PaymentMethod: model.PaymentCashOnDelivery,
		Status:        model.OrderStatusDelivered,
		Items: []model.OrderItem{
			{ProductID: product.ID, Color: "oak", Quantity: 1, Price: 120},
		},
	}
	testDB.Create(secondOrder)
	thirdOrder := &model.Order{
		UserID:        user.ID,
		TotalPrice:    220,
		PaymentMethod: model.PaymentCashOnDelivery,
		Status:        model.OrderStatusDelivered,
		Items: []model.OrderItem{
			{ProductID: product.ID, Color: "oak", Quantity: 1, Price: 120},
		},
	}
	testDB.Create(thirdOrder)

	_, err := reviewService.CreateReview(user.ID, product.ID, order.ID, 5, "great")
	require.NoError(t, err)
	_, err = reviewService.CreateReview(user.ID, product.ID, secondOrder.ID, 4, "good")
	require.NoError(t, err)
	_, err = reviewService.CreateReview(user.ID, product.ID, thirdOrder.ID, 4, "good again")
	require.NoError(t, err)

	// (5+4+4)/3 = 4.333... rounds to 4.3
	var updated model.Product
	testDB.First(&updated, product.ID)
	assert.Equal(t, 4.3, updated.AverageRating)
	assert.Equal(t, 3, updated.NumReviews)
}

func TestReviewService_UpdateReview(t *testing.T) {
	reviewService, testDB, user, product, order := setupReviewServiceTest(t)

	review, err := reviewService.CreateReview(user.ID, product.ID, order.ID, 2, "meh")
	require.NoError(t, err)

	updated, err := reviewService.UpdateReview(user.ID, review.ID, 5, "grew on me")
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Rating)
	assert.Equal(t, "grew on me", updated.Comment)

	var refreshed model.Product
	testDB.First(&refreshed, product.ID)
	assert.Equal(t, float64(5), refreshed.AverageRating)

	stranger := &model.User{Email: "stranger@example.com", PasswordHash: "hash", Name: "Stranger"}
	testDB.Create(stranger)
	_, err = reviewService.UpdateReview(stranger.ID, review.ID, 1, "sabotage")
	assert.ErrorIs(t, err, ErrNotReviewOwner)
}

func TestReviewService_DeleteReview_RestoresDefaultRating(t *testing.T) {
	reviewService, testDB, user, product, order := setupReviewServiceTest(t)

	review, err := reviewService.CreateReview(user.ID, product.ID, order.ID, 2, "meh")
	require.NoError(t, err)

	stranger := &model.User{Email: "stranger@example.com", PasswordHash: "hash", Name: "Stranger"}
	testDB.Create(stranger)
	err = reviewService.DeleteReview(stranger.ID, false, review.ID)
	assert.ErrorIs(t, err, ErrNotReviewOwner)

	// Admins can remove any review
	require.NoError(t, reviewService.DeleteReview(stranger.ID, true, review.ID))

	// No reviews left: the aggregate falls back to the default
	var updated model.Product
	testDB.First(&updated, product.ID)
	assert.Equal(t, model.DefaultProductRating, updated.AverageRating)
	assert.Zero(t, updated.NumReviews)
}

func TestReviewService_GetProductReviews(t *testing.T) {
	reviewService, _, user, product, order := setupReviewServiceTest(t)

	_, err := reviewService.GetProductReviews(9999)
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = reviewService.CreateReview(user.ID, product.ID, order.ID, 4, "nice")
	require.NoError(t, err)

	reviews, err := reviewService.GetProductReviews(product.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "nice", reviews[0].Comment)
}

func TestReviewService_GetUserReviews(t *testing.T) {
	reviewService, testDB, user, product, order := setupReviewServiceTest(t)

	other := &model.User{Email: "other@example.com", PasswordHash: "hash", Name: "Other"}
	testDB.Create(other)

	_, err := reviewService.CreateReview(user.ID, product.ID, order.ID, 5, "mine")
	require.NoError(t, err)

	reviews, err := reviewService.GetUserReviews(user.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "mine", reviews[0].Comment)
	assert.Equal(t, product.Name, reviews[0].Product.Name)

	reviews, err = reviewService.GetUserReviews(other.ID)
	require.NoError(t, err)
	assert.Empty(t, reviews)
}

func TestReviewService_GetAllReviews(t *testing.T) {
	reviewService, _, user, product, order := setupReviewServiceTest(t)

	_, err := reviewService.CreateReview(user.ID, product.ID, order.ID, 3, "decent")
	require.NoError(t, err)

	reviews, err := reviewService.GetAllReviews()
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, user.Name, reviews[0].User.Name)
	assert.Equal(t, product.Name, reviews[0].Product.Name)
}
