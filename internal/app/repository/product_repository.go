package repository

import (
	"github.com/avyhea/avyhea-backend/internal/app/model"
	"github.com/avyhea/avyhea-backend/pkg/logger"
	"gorm.io/gorm"
)

// ProductFilter narrows product listings. Nil pointer fields are
// treated as "no constraint".
type ProductFilter struct {
	CategoryID *uint
	PriceMin   *int
	PriceMax   *int
	MinRating  *float64
	Search     string
	Page       int
	Limit      int
}

type ProductRepository interface {
	Create(product *model.Product) error
	Update(product *model.Product) error
	DeleteCascade(ids []uint) error
	FindAll(filter ProductFilter) ([]model.Product, int64, error)
	FindByID(id uint) (*model.Product, error)
	FindByIDs(ids []uint) ([]model.Product, error)
	UpdateRating(productID uint, average float64, count int) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(product *model.Product) error {
	logger.Debug("Creating product in database", map[string]interface{}{
		"name":        product.Name,
		"category_id": product.CategoryID,
	})

	if err := r.db.Create(product).Error; err != nil {
		logger.Error("Failed to create product in database", err, map[string]interface{}{
			"name": product.Name,
		})
		return err
	}

	logger.Debug("Product created in database", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})
	return nil
}

func (r *productRepository) Update(product *model.Product) error {
	if err := r.db.Save(product).Error; err != nil {
		logger.Error("Failed to update product in database", err, map[string]interface{}{
			"product_id": product.ID,
		})
		return err
	}
	return nil
}

// DeleteCascade removes the products and every row that references
// them: reviews, order lines, cart lines, and any order or cart left
// without lines afterwards. Runs in a single transaction.
func (r *productRepository) DeleteCascade(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}

	logger.Debug("Cascade deleting products", map[string]interface{}{
		"product_ids": ids,
	})

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id IN ?", ids).Delete(&model.Review{}).Error; err != nil {
			return err
		}

		if err := tx.Where("product_id IN ?", ids).Delete(&model.OrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("NOT EXISTS (SELECT 1 FROM order_items WHERE order_items.order_id = orders.id)").
			Delete(&model.Order{}).Error; err != nil {
			return err
		}

		if err := tx.Where("product_id IN ?", ids).Delete(&model.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("NOT EXISTS (SELECT 1 FROM cart_items WHERE cart_items.cart_id = carts.id)").
			Delete(&model.Cart{}).Error; err != nil {
			return err
		}

		if err := tx.Where("id IN ?", ids).Delete(&model.Product{}).Error; err != nil {
			return err
		}
		return nil
	})
}

func (r *productRepository) FindAll(filter ProductFilter) ([]model.Product, int64, error) {
	logger.Debug("Finding products", map[string]interface{}{
		"category_id": filter.CategoryID,
		"search":      filter.Search,
		"page":        filter.Page,
		"limit":       filter.Limit,
	})

	query := r.db.Model(&model.Product{}).Preload("Category")

	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.PriceMin != nil {
		query = query.Where("price >= ?", *filter.PriceMin)
	}
	if filter.PriceMax != nil {
		query = query.Where("price <= ?", *filter.PriceMax)
	}
	if filter.MinRating != nil {
		query = query.Where("average_rating >= ?", *filter.MinRating)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count products", err, nil)
		return nil, 0, err
	}

	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.Limit).Limit(filter.Limit)
	}

	var products []model.Product
	if err := query.Order("created_at DESC").Find(&products).Error; err != nil {
		logger.Error("Failed to fetch products from database", err, nil)
		return nil, 0, err
	}
	return products, total, nil
}

func (r *productRepository) FindByID(id uint) (*model.Product, error) {
	var product model.Product
	if err := r.db.Preload("Category").Preload("Reviews").First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindByIDs(ids []uint) ([]model.Product, error) {
	var products []model.Product
	if err := r.db.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// UpdateRating persists a recomputed review aggregate
func (r *productRepository) UpdateRating(productID uint, average float64, count int) error {
	if err := r.db.Model(&model.Product{}).Where("id = ?", productID).
		Updates(map[string]interface{}{
			"average_rating": average,
			"num_reviews":    count,
		}).Error; err != nil {
		logger.Error("Failed to update product rating", err, map[string]interface{}{
			"product_id": productID,
		})
		return err
	}
	return nil
}
