package service

import (
	"errors"
	"math"

	"github.com/avyhea/avyhea-backend/internal/app/model"
	"github.com/avyhea/avyhea-backend/internal/app/repository"
	"github.com/avyhea/avyhea-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrReviewNotFound    = errors.New("review not found")
	ErrReviewExists      = errors.New("product already reviewed for this order")
	ErrInvalidRating     = errors.New("rating must be between 1 and 5")
	ErrProductNotInOrder = errors.New("product is not part of this order")
	ErrNotReviewOwner    = errors.New("review belongs to another user")
)

type ReviewService interface {
	CreateReview(userID, productID, orderID uint, rating int, comment string) (*model.Review, error)
	UpdateReview(userID, reviewID uint, rating int, comment string) (*model.Review, error)
	DeleteReview(userID uint, isAdmin bool, reviewID uint) error
	GetProductReviews(productID uint) ([]model.Review, error)
	GetUserReviews(userID uint) ([]model.Review, error)
	GetAllReviews() ([]model.Review, error)
}

type reviewService struct {
	reviewRepo  repository.ReviewRepository
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
}

func NewReviewService(
	reviewRepo repository.ReviewRepository,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
) ReviewService {
	return &reviewService{
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
	}
}

// recomputeRating folds a review list into the product aggregate.
// Rounds to one decimal place; a product with no reviews falls back to
// the default rating.
func recomputeRating(reviews []model.Review) (float64, int) {
	if len(reviews) == 0 {
		return model.DefaultProductRating, 0
	}

	var sum int
	for _, review := range reviews {
		sum += review.Rating
	}
	avg := float64(sum) / float64(len(reviews))
	return math.Round(avg*10) / 10, len(reviews)
}

// CreateReview records a review for a product bought in the given
// order, then refreshes the product's rating aggregate
func (s *reviewService) CreateReview(userID, productID, orderID uint, rating int, comment string) (*model.Review, error) {
	logger.Info("Creating review", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"order_id":   orderID,
		"rating":     rating,
	})

	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrNotOrderOwner
	}

	purchased := false
	for _, item := range order.Items {
		if item.ProductID == productID {
			purchased = true
			break
		}
	}
	if !purchased {
		logger.Warn("Review rejected: product not in order", map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
			"order_id":   orderID,
		})
		return nil, ErrProductNotInOrder
	}

	if _, err := s.reviewRepo.FindByUserProductOrder(userID, productID, orderID); err == nil {
		return nil, ErrReviewExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	review := &model.Review{
		UserID:    userID,
		ProductID: productID,
		OrderID:   orderID,
		Rating:    rating,
		Comment:   comment,
	}
	if err := s.reviewRepo.Create(review); err != nil {
		return nil, err
	}

	if err := s.refreshProductRating(productID); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *reviewService) UpdateReview(userID, reviewID uint, rating int, comment string) (*model.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	review, err := s.reviewRepo.FindByID(reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	if review.UserID != userID {
		return nil, ErrNotReviewOwner
	}

	review.Rating = rating
	if comment != "" {
		review.Comment = comment
	}
	if err := s.reviewRepo.Update(review); err != nil {
		return nil, err
	}

	if err := s.refreshProductRating(review.ProductID); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *reviewService) DeleteReview(userID uint, isAdmin bool, reviewID uint) error {
	review, err := s.reviewRepo.FindByID(reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReviewNotFound
		}
		return err
	}
	if !isAdmin && review.UserID != userID {
		return ErrNotReviewOwner
	}

	if err := s.reviewRepo.Delete(reviewID); err != nil {
		return err
	}
	return s.refreshProductRating(review.ProductID)
}

func (s *reviewService) GetProductReviews(productID uint) ([]model.Review, error) {
	if _, err := s.productRepo.FindByID(productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return s.reviewRepo.FindByProductID(productID)
}

func (s *reviewService) GetUserReviews(userID uint) ([]model.Review, error) {
	return s.reviewRepo.FindByUserID(userID)
}

func (s *reviewService) GetAllReviews() ([]model.Review, error) {
	return s.reviewRepo.FindAll()
}

func (s *reviewService) refreshProductRating(productID uint) error {
	reviews, err := s.reviewRepo.FindByProductID(productID)
	if err != nil {
		return err
	}

	average, count := recomputeRating(reviews)
	if err := s.productRepo.UpdateRating(productID, average, count); err != nil {
		return err
	}

	logger.Debug("Product rating refreshed", map[string]interface{}{
		"product_id":     productID,
		"average_rating": average,
		"num_reviews":    count,
	})
	return nil
}
