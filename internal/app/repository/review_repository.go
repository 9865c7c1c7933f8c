package repository

import (
	"github.com/avyhea/avyhea-backend/internal/app/model"
	"github.com/avyhea/avyhea-backend/pkg/logger"
	"gorm.io/gorm"
)

type ReviewRepository interface {
	Create(review *model.Review) error
	Update(review *model.Review) error
	Delete(id uint) error
	FindByID(id uint) (*model.Review, error)
	FindByProductID(productID uint) ([]model.Review, error)
	FindByUserID(userID uint) ([]model.Review, error)
	FindAll() ([]model.Review, error)
	FindByUserProductOrder(userID, productID, orderID uint) (*model.Review, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(review *model.Review) error {
	logger.Debug("Creating review in database", map[string]interface{}{
		"user_id":    review.UserID,
		"product_id": review.ProductID,
		"order_id":   review.OrderID,
	})

	if err := r.db.Create(review).Error; err != nil {
		logger.Error("Failed to create review in database", err, map[string]interface{}{
			"user_id":    review.UserID,
			"product_id": review.ProductID,
		})
		return err
	}
	return nil
}

func (r *reviewRepository) Update(review *model.Review) error {
	if err := r.db.Save(review).Error; err != nil {
		logger.Error("Failed to update review in database", err, map[string]interface{}{
			"review_id": review.ID,
		})
		return err
	}
	return nil
}

func (r *reviewRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.Review{}, id).Error; err != nil {
		logger.Error("Failed to delete review from database", err, map[string]interface{}{
			"review_id": id,
		})
		return err
	}
	return nil
}

func (r *reviewRepository) FindByID(id uint) (*model.Review, error) {
	var review model.Review
	if err := r.db.First(&review, id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) FindByProductID(productID uint) ([]model.Review, error) {
	var reviews []model.Review
	err := r.db.Preload("User").
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		logger.Error("Failed to fetch reviews from database", err, map[string]interface{}{
			"product_id": productID,
		})
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepository) FindByUserID(userID uint) ([]model.Review, error) {
	var reviews []model.Review
	err := r.db.Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		logger.Error("Failed to fetch user reviews from database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepository) FindAll() ([]model.Review, error) {
	var reviews []model.Review
	err := r.db.Preload("User").Preload("Product").
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		logger.Error("Failed to fetch reviews from database", err, nil)
		return nil, err
	}
	return reviews, nil
}

// FindByUserProductOrder checks the one-review-per-purchase rule
func (r *reviewRepository) FindByUserProductOrder(userID, productID, orderID uint) (*model.Review, error) {
	var review model.Review
	err := r.db.Where("user_id = ? AND product_id = ? AND order_id = ?", userID, productID, orderID).
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}
