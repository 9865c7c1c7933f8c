package service

import (
	"errors"

	"github.com/avyhea/avyhea-backend/internal/app/model"
	"github.com/avyhea/avyhea-backend/internal/app/repository"
	"github.com/avyhea/avyhea-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrCartNotFound      = errors.New("cart not found")
	ErrCartItemNotFound  = errors.New("cart item not found")
	ErrInvalidCartAction = errors.New("invalid cart action")
)

// Cart quantity actions
const (
	CartActionIncrease = "increase"
	CartActionDecrease = "decrease"
	CartActionDelete   = "delete"
)

type CartService interface {
	AddToCart(userID, productID uint, color string, quantity int, price float64) (*model.Cart, error)
	UpdateQuantity(userID, itemID uint, action string) (*model.Cart, error)
	GetCartItems(userID uint) (*model.Cart, error)
	GetCartCount(userID uint) (int64, error)
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// AddToCart adds a line to the user's cart, creating the cart if this is
// the first item. Adding a (product, color) pair that is already in the
// cart sums the quantities and takes the newer price.
func (s *cartService) AddToCart(userID, productID uint, color string, quantity int, price float64) (*model.Cart, error) {
	logger.Info("Adding item to cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"color":      color,
		"quantity":   quantity,
	})

	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	if quantity < 1 {
		quantity = 1
	}
	if product.Stock < quantity {
		logger.Warn("Add to cart rejected: not enough stock", map[string]interface{}{
			"product_id": productID,
			"stock":      product.Stock,
			"quantity":   quantity,
		})
		return nil, &InsufficientStockError{ProductName: product.Name}
	}
	if price <= 0 {
		price = product.Price
	}

	cart, err := s.cartRepo.FindOrCreateByUserID(userID)
	if err != nil {
		return nil, err
	}

	existing, err := s.cartRepo.FindItem(cart.ID, productID, color)
	switch {
	case err == nil:
		existing.Quantity += quantity
		existing.Price = price
		if err := s.cartRepo.UpdateItem(existing); err != nil {
			return nil, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		item := &model.CartItem{
			CartID:    cart.ID,
			ProductID: productID,
			Color:     color,
			Quantity:  quantity,
			Price:     price,
		}
		if err := s.cartRepo.CreateItem(item); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if err := s.cartRepo.Touch(cart.ID); err != nil {
		return nil, err
	}
	return s.cartRepo.FindByUserID(userID)
}

// UpdateQuantity applies one of the quantity actions to a cart line.
// Decreasing to zero removes the line, and removing the last line
// deletes the whole cart.
func (s *cartService) UpdateQuantity(userID, itemID uint, action string) (*model.Cart, error) {
	logger.Info("Updating cart item quantity", map[string]interface{}{
		"user_id": userID,
		"item_id": itemID,
		"action":  action,
	})

	cart, err := s.cartRepo.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}

	item, err := s.cartRepo.FindItemByID(cart.ID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}

	removed := false
	switch action {
	case CartActionIncrease:
		item.Quantity++
		if err := s.cartRepo.UpdateItem(item); err != nil {
			return nil, err
		}
	case CartActionDecrease:
		item.Quantity--
		if item.Quantity <= 0 {
			if err := s.cartRepo.DeleteItem(item.ID); err != nil {
				return nil, err
			}
			removed = true
		} else {
			if err := s.cartRepo.UpdateItem(item); err != nil {
				return nil, err
			}
		}
	case CartActionDelete:
		if err := s.cartRepo.DeleteItem(item.ID); err != nil {
			return nil, err
		}
		removed = true
	default:
		return nil, ErrInvalidCartAction
	}

	if removed {
		count, err := s.cartRepo.CountItems(cart.ID)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			logger.Info("Cart emptied, deleting cart", map[string]interface{}{
				"cart_id": cart.ID,
			})
			if err := s.cartRepo.DeleteCart(cart.ID); err != nil {
				return nil, err
			}
			return nil, nil
		}
	}

	if err := s.cartRepo.Touch(cart.ID); err != nil {
		return nil, err
	}
	return s.cartRepo.FindByUserID(userID)
}

func (s *cartService) GetCartItems(userID uint) (*model.Cart, error) {
	cart, err := s.cartRepo.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}
	return cart, nil
}

// GetCartCount returns the number of lines in the user's cart, zero
// when no cart exists
func (s *cartService) GetCartCount(userID uint) (int64, error) {
	cart, err := s.cartRepo.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return s.cartRepo.CountItems(cart.ID)
}
