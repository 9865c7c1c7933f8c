package repository

import (
	"time"

	"github.com/avyhea/avyhea-backend/internal/app/model"
	"github.com/avyhea/avyhea-backend/pkg/logger"
	"gorm.io/gorm"
)

type CartRepository interface {
	FindByUserID(userID uint) (*model.Cart, error)
	FindOrCreateByUserID(userID uint) (*model.Cart, error)
	FindItem(cartID, productID uint, color string) (*model.CartItem, error)
	FindItemByID(cartID, itemID uint) (*model.CartItem, error)
	CreateItem(item *model.CartItem) error
	UpdateItem(item *model.CartItem) error
	DeleteItem(itemID uint) error
	CountItems(cartID uint) (int64, error)
	Touch(cartID uint) error
	DeleteCart(cartID uint) error
	DeleteStale(before time.Time) (int64, error)
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

// FindByUserID returns the user's cart with its items and products
// preloaded. Returns gorm.ErrRecordNotFound if the user has no cart.
func (r *cartRepository) FindByUserID(userID uint) (*model.Cart, error) {
	var cart model.Cart
	err := r.db.Preload("Items.Product").
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// FindOrCreateByUserID lazily creates the cart on first use
func (r *cartRepository) FindOrCreateByUserID(userID uint) (*model.Cart, error) {
	cart, err := r.FindByUserID(userID)
	if err == nil {
		return cart, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	logger.Debug("Creating cart for user", map[string]interface{}{
		"user_id": userID,
	})

	newCart := model.Cart{UserID: userID}
	if err := r.db.Create(&newCart).Error; err != nil {
		logger.Error("Failed to create cart", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return &newCart, nil
}

// FindItem looks up a line by the merge key (product, color)
func (r *cartRepository) FindItem(cartID, productID uint, color string) (*model.CartItem, error) {
	var item model.CartItem
	err := r.db.Where("cart_id = ? AND product_id = ? AND color = ?", cartID, productID, color).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) FindItemByID(cartID, itemID uint) (*model.CartItem, error) {
	var item model.CartItem
	err := r.db.Where("cart_id = ? AND id = ?", cartID, itemID).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) CreateItem(item *model.CartItem) error {
	if err := r.db.Create(item).Error; err != nil {
		logger.Error("Failed to create cart item", err, map[string]interface{}{
			"cart_id":    item.CartID,
			"product_id": item.ProductID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) UpdateItem(item *model.CartItem) error {
	if err := r.db.Save(item).Error; err != nil {
		logger.Error("Failed to update cart item", err, map[string]interface{}{
			"item_id": item.ID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) DeleteItem(itemID uint) error {
	if err := r.db.Delete(&model.CartItem{}, itemID).Error; err != nil {
		logger.Error("Failed to delete cart item", err, map[string]interface{}{
			"item_id": itemID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) CountItems(cartID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.CartItem{}).Where("cart_id = ?", cartID).Count(&count).Error
	return count, err
}

// Touch bumps the cart's updated_at so idle-cart cleanup sees activity
func (r *cartRepository) Touch(cartID uint) error {
	return r.db.Model(&model.Cart{}).Where("id = ?", cartID).
		Update("updated_at", time.Now()).Error
}

// DeleteCart removes the cart and its items
func (r *cartRepository) DeleteCart(cartID uint) error {
	logger.Debug("Deleting cart", map[string]interface{}{
		"cart_id": cartID,
	})

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", cartID).Delete(&model.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Cart{}, cartID).Error
	})
}

// DeleteStale removes carts untouched since the given time, returning
// the number of carts removed
func (r *cartRepository) DeleteStale(before time.Time) (int64, error) {
	var stale []model.Cart
	if err := r.db.Where("updated_at < ?", before).Find(&stale).Error; err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	ids := make([]uint, 0, len(stale))
	for _, cart := range stale {
		ids = append(ids, cart.ID)
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id IN ?", ids).Delete(&model.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&model.Cart{}).Error
	})
	if err != nil {
		logger.Error("Failed to delete stale carts", err, nil)
		return 0, err
	}
	return int64(len(ids)), nil
}
