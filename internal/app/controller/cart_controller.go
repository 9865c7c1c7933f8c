package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/avyhea/avyhea-backend/internal/app/service"
	apperrors "github.com/avyhea/avyhea-backend/internal/errors"
	"github.com/avyhea/avyhea-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{
		cartService: cartService,
	}
}

type AddToCartRequest struct {
	ProductID uint    `json:"product_id" binding:"required"`
	Color     string  `json:"color"`
	Quantity  int     `json:"quantity" binding:"min=0"`
	Price     float64 `json:"price"`
}

// UpdateCartItemRequest carries the line action. ItemID is only read
// on the body-addressed route; the canonical route takes it from the path.
type UpdateCartItemRequest struct {
	ItemID uint   `json:"item_id"`
	Action string `json:"action" binding:"required"`
}

// AddToCart adds an item to the user's cart
// POST /api/v1/cart
func (ctrl *CartController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add-to-cart request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Please check the cart details")
		return
	}

	cart, err := ctrl.cartService.AddToCart(userID, req.ProductID, req.Color, req.Quantity, req.Price)
	if err != nil {
		var stockErr *service.InsufficientStockError
		if errors.Is(err, service.ErrProductNotFound) {
			apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
			return
		}
		if errors.As(err, &stockErr) {
			apperrors.BadRequest(c, apperrors.ProductOutOfStock,
				fmt.Sprintf("Not enough stock for %s", stockErr.ProductName))
			return
		}
		log.Error("Failed to add to cart", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": req.ProductID,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item added to cart",
		"cart":    cart,
	})
}

// UpdateCartItem applies increase/decrease/delete to a cart line
// PUT /api/v1/cart/:itemId
func (ctrl *CartController) UpdateCartItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	var itemID uint64
	if param := c.Param("itemId"); param != "" {
		var err error
		itemID, err = strconv.ParseUint(param, 10, 32)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid cart item ID")
			return
		}
	}

	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Action is required")
		return
	}
	if itemID == 0 {
		itemID = uint64(req.ItemID)
	}
	if itemID == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Cart item ID is required")
		return
	}

	cart, err := ctrl.cartService.UpdateQuantity(userID, uint(itemID), req.Action)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCartNotFound):
			apperrors.NotFound(c, apperrors.CartNotFound, "Cart not found")
		case errors.Is(err, service.ErrCartItemNotFound):
			apperrors.NotFound(c, apperrors.CartItemNotFound, "Cart item not found")
		case errors.Is(err, service.ErrInvalidCartAction):
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Action must be increase, decrease or delete")
		default:
			log.Error("Failed to update cart item", err, map[string]interface{}{
				"user_id": userID,
				"item_id": itemID,
			})
			apperrors.InternalError(c, "")
		}
		return
	}

	// cart is nil when the last line was removed and the cart deleted
	if cart == nil {
		c.JSON(http.StatusOK, gin.H{
			"message": "Cart is now empty",
			"cart":    nil,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart updated",
		"cart":    cart,
	})
}

// GetCart returns the user's cart
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	cart, err := ctrl.cartService.GetCartItems(userID)
	if err != nil {
		if errors.Is(err, service.ErrCartNotFound) {
			apperrors.NotFound(c, apperrors.CartNotFound, "Cart not found")
			return
		}
		log.Error("Failed to fetch cart", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cart": cart,
	})
}

// GetCartCount returns the number of lines in the user's cart
// GET /api/v1/cart/count
func (ctrl *CartController) GetCartCount(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	count, err := ctrl.cartService.GetCartCount(userID)
	if err != nil {
		log.Error("Failed to count cart items", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count": count,
	})
}
