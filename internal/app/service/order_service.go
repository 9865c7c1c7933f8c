package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avyhea/avyhea-backend/internal/app/model"
	"github.com/avyhea/avyhea-backend/internal/app/repository"
	"github.com/avyhea/avyhea-backend/pkg/logger"
	"github.com/avyhea/avyhea-backend/pkg/mailer"
	"gorm.io/gorm"
)

// ShippingFee is the flat delivery charge added to every order total
const ShippingFee = 100.0

const emailSendTimeout = 5 * time.Second

var (
	ErrOrderNotFound            = errors.New("order not found")
	ErrEmptyCart                = errors.New("cart is empty")
	ErrMissingShippingInfo      = errors.New("shipping information is incomplete")
	ErrInvalidPaymentMethod     = errors.New("invalid payment method")
	ErrIncompletePaymentDetails = errors.New("payment details are incomplete")
	ErrInvalidOrderStatus       = errors.New("invalid order status")
	ErrMissingCancellationNote  = errors.New("cancellation requires a note")
	ErrInsufficientStock        = errors.New("insufficient stock")
	ErrNotOrderOwner            = errors.New("order belongs to another user")
)

// InsufficientStockError reports which product ran out while an order
// was being placed. Unwraps to ErrInsufficientStock.
type InsufficientStockError struct {
	ProductName string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s", e.ProductName)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// Mailer sends transactional email. Failures are logged and swallowed;
// an undelivered email never fails the order operation that triggered it.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type OrderService interface {
	CreateOrder(userID uint, paymentMethod model.PaymentMethod, paymentDetails model.PaymentDetails, shippingAddress *model.ShippingInfo) (*model.Order, error)
	GetUserOrders(userID uint) ([]model.Order, error)
	GetAllOrders() ([]model.Order, error)
	GetOrderByID(orderID uint) (*model.Order, error)
	GetSalesStats(start, end *time.Time) ([]repository.MonthlySales, error)
	UpdateOrderStatus(orderID uint, status model.OrderStatus, note string) (*model.Order, error)
	CancelOrder(userID, orderID uint, note string) (*model.Order, error)
	DeleteOrder(orderID uint) error
}

type orderService struct {
	orderRepo repository.OrderRepository
	cartRepo  repository.CartRepository
	userRepo  repository.UserRepository
	mail      Mailer
	db        *gorm.DB
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	userRepo repository.UserRepository,
	mail Mailer,
	db *gorm.DB,
) OrderService {
	return &orderService{
		orderRepo: orderRepo,
		cartRepo:  cartRepo,
		userRepo:  userRepo,
		mail:      mail,
		db:        db,
	}
}

// CreateOrder turns the user's cart into an order. Stock for every line
// is decremented in one transaction; if any line cannot be covered the
// whole order is rolled back and no stock moves. The cart is deleted on
// success.
func (s *orderService) CreateOrder(userID uint, paymentMethod model.PaymentMethod, paymentDetails model.PaymentDetails, shippingAddress *model.ShippingInfo) (*model.Order, error) {
	logger.Info("Creating order", map[string]interface{}{
		"user_id":        userID,
		"payment_method": paymentMethod,
	})

	cart, err := s.cartRepo.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Order creation failed: no cart", map[string]interface{}{
				"user_id": userID,
			})
			return nil, ErrEmptyCart
		}
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	shipping := user.ShippingInfo
	if shippingAddress != nil {
		shipping = *shippingAddress
	}
	if !shipping.Complete() {
		logger.Warn("Order creation failed: incomplete shipping info", map[string]interface{}{
			"user_id": userID,
		})
		return nil, ErrMissingShippingInfo
	}

	if !paymentMethod.Valid() {
		return nil, ErrInvalidPaymentMethod
	}
	if paymentMethod == model.PaymentCreditCard && !paymentDetails.Complete() {
		return nil, ErrIncompletePaymentDetails
	}

	var order model.Order
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var itemsTotal float64
		orderItems := make([]model.OrderItem, 0, len(cart.Items))

		for _, line := range cart.Items {
			// Conditional decrement: succeeds only when enough stock
			// remains, so concurrent checkouts cannot oversell.
			result := tx.Model(&model.Product{}).
				Where("id = ? AND stock >= ?", line.ProductID, line.Quantity).
				Update("stock", gorm.Expr("stock - ?", line.Quantity))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				name := line.Product.Name
				if name == "" {
					name = "unknown"
				}
				logger.Warn("Order creation failed: insufficient stock", map[string]interface{}{
					"user_id":    userID,
					"product_id": line.ProductID,
					"requested":  line.Quantity,
				})
				return &InsufficientStockError{ProductName: name}
			}

			itemsTotal += line.Price * float64(line.Quantity)
			orderItems = append(orderItems, model.OrderItem{
				ProductID: line.ProductID,
				Color:     line.Color,
				Quantity:  line.Quantity,
				Price:     line.Price,
			})
		}

		order = model.Order{
			UserID:          userID,
			TotalPrice:      itemsTotal + ShippingFee,
			PaymentMethod:   paymentMethod,
			ShippingAddress: shipping,
			Status:          model.OrderStatusPending,
			Items:           orderItems,
		}
		if paymentMethod == model.PaymentCreditCard {
			order.PaymentDetails = paymentDetails
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		if err := tx.Where("cart_id = ?", cart.ID).Delete(&model.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Cart{}, cart.ID).Error
	})
	if err != nil {
		return nil, err
	}

	created, err := s.orderRepo.FindByID(order.ID)
	if err != nil {
		return nil, err
	}

	logger.Info("Order created", map[string]interface{}{
		"order_id":    created.ID,
		"user_id":     userID,
		"total_price": created.TotalPrice,
		"item_count":  len(created.Items),
	})

	s.sendConfirmationEmail(user, created)
	return created, nil
}

func (s *orderService) GetUserOrders(userID uint) ([]model.Order, error) {
	return s.orderRepo.FindByUserID(userID)
}

func (s *orderService) GetAllOrders() ([]model.Order, error) {
	return s.orderRepo.FindAll()
}

// GetSalesStats reports delivered-order revenue per month for the
// admin dashboard, optionally narrowed to a date range.
func (s *orderService) GetSalesStats(start, end *time.Time) ([]repository.MonthlySales, error) {
	return s.orderRepo.SalesByMonth(start, end)
}

func (s *orderService) GetOrderByID(orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// UpdateOrderStatus changes an order's status. Cancelling requires a
// note and returns each line's quantity to stock, but only on the first
// transition into Cancelled; repeating the cancellation never restores
// stock twice.
func (s *orderService) UpdateOrderStatus(orderID uint, status model.OrderStatus, note string) (*model.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidOrderStatus
	}

	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	logger.Info("Updating order status", map[string]interface{}{
		"order_id": orderID,
		"from":     order.Status,
		"to":       status,
	})

	if status == model.OrderStatusCancelled && note == "" {
		return nil, ErrMissingCancellationNote
	}

	fields := map[string]interface{}{"status": status}
	if note != "" {
		fields["note"] = note
	}

	// Stock restoration and the status write commit together. Stock
	// comes back only on the first transition into Cancelled.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if status == model.OrderStatusCancelled && order.Status != model.OrderStatusCancelled {
			if err := s.restoreStock(tx, order); err != nil {
				return err
			}
		}
		return tx.Model(&model.Order{}).Where("id = ?", orderID).Updates(fields).Error
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		return nil, err
	}

	s.sendStatusEmail(updated)
	return updated, nil
}

// CancelOrder lets a customer cancel their own order
func (s *orderService) CancelOrder(userID, orderID uint, note string) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.UserID != userID {
		logger.Warn("Cancellation rejected: not the order owner", map[string]interface{}{
			"order_id": orderID,
			"user_id":  userID,
		})
		return nil, ErrNotOrderOwner
	}
	return s.UpdateOrderStatus(orderID, model.OrderStatusCancelled, note)
}

// DeleteOrder removes the order outright without touching stock
func (s *orderService) DeleteOrder(orderID uint) error {
	if _, err := s.orderRepo.FindByID(orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return err
	}
	return s.orderRepo.Delete(orderID)
}

func (s *orderService) restoreStock(tx *gorm.DB, order *model.Order) error {
	for _, item := range order.Items {
		result := tx.Model(&model.Product{}).
			Where("id = ?", item.ProductID).
			Update("stock", gorm.Expr("stock + ?", item.Quantity))
		if result.Error != nil {
			return result.Error
		}
	}
	logger.Info("Stock restored for cancelled order", map[string]interface{}{
		"order_id":   order.ID,
		"item_count": len(order.Items),
	})
	return nil
}

func (s *orderService) sendConfirmationEmail(user *model.User, order *model.Order) {
	if s.mail == nil {
		return
	}

	lines := make([]mailer.OrderLine, 0, len(order.Items))
	var itemsTotal float64
	for _, item := range order.Items {
		name := item.Product.Name
		if name == "" {
			name = "unknown"
		}
		lines = append(lines, mailer.OrderLine{
			Name:     name,
			Quantity: item.Quantity,
			Price:    int(item.Price),
		})
		itemsTotal += item.Price * float64(item.Quantity)
	}

	body := mailer.OrderConfirmationBody(
		user.Name, order.ID, lines,
		int(itemsTotal), int(ShippingFee), int(order.TotalPrice),
	)

	ctx, cancel := context.WithTimeout(context.Background(), emailSendTimeout)
	defer cancel()

	if err := s.mail.Send(ctx, user.Email, fmt.Sprintf("Order #%d confirmed", order.ID), body); err != nil {
		logger.Error("Failed to send order confirmation email", err, map[string]interface{}{
			"order_id": order.ID,
			"user_id":  user.ID,
		})
	}
}

// sendStatusEmail notifies the customer of transitions they care
// about. Administrative shuffles back to Pending stay silent.
func (s *orderService) sendStatusEmail(order *model.Order) {
	if s.mail == nil {
		return
	}
	switch order.Status {
	case model.OrderStatusShipped, model.OrderStatusDelivered, model.OrderStatusCancelled:
	default:
		return
	}

	body := mailer.StatusUpdateBody(order.User.Name, order.ID, string(order.Status), order.Note)

	ctx, cancel := context.WithTimeout(context.Background(), emailSendTimeout)
	defer cancel()

	if err := s.mail.Send(ctx, order.User.Email, fmt.Sprintf("Order #%d update", order.ID), body); err != nil {
		logger.Error("Failed to send order status email", err, map[string]interface{}{
			"order_id": order.ID,
		})
	}
}
