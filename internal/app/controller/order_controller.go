package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/avyhea/avyhea-backend/internal/app/model"
	"github.com/avyhea/avyhea-backend/internal/app/repository"
	"github.com/avyhea/avyhea-backend/internal/app/service"
	apperrors "github.com/avyhea/avyhea-backend/internal/errors"
	"github.com/avyhea/avyhea-backend/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

type OrderController struct {
	orderService service.OrderService
}

func NewOrderController(orderService service.OrderService) *OrderController {
	return &OrderController{
		orderService: orderService,
	}
}

type CreateOrderRequest struct {
	PaymentMethod   string               `json:"payment_method" binding:"required"`
	PaymentDetails  *PaymentDetailsInput `json:"payment_details"`
	ShippingAddress *ShippingInfoRequest `json:"shipping_address"`
}

type PaymentDetailsInput struct {
	CardNumber string `json:"card_number"`
	ExpiryDate string `json:"expiry_date"`
	CVV        string `json:"cvv"`
}

// UpdateOrderStatusRequest carries the new status. OrderID is only
// read on the body-addressed route; the canonical route takes it from the path.
type UpdateOrderStatusRequest struct {
	OrderID uint   `json:"order_id"`
	Status  string `json:"status" binding:"required"`
	Note    string `json:"note"`
}

type DeleteOrderRequest struct {
	OrderID uint `json:"order_id" binding:"required"`
}

type CancelOrderRequest struct {
	Note string `json:"note" binding:"required"`
}

// CreateOrder turns the user's cart into an order
// POST /api/v1/orders/create
func (ctrl *OrderController) CreateOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid order request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Payment method is required")
		return
	}

	var details model.PaymentDetails
	if req.PaymentDetails != nil {
		details = model.PaymentDetails{
			CardNumber: req.PaymentDetails.CardNumber,
			ExpiryDate: req.PaymentDetails.ExpiryDate,
			CVV:        req.PaymentDetails.CVV,
		}
	}

	var shipping *model.ShippingInfo
	if req.ShippingAddress != nil {
		shipping = &model.ShippingInfo{
			Address:    req.ShippingAddress.Address,
			City:       req.ShippingAddress.City,
			PostalCode: req.ShippingAddress.PostalCode,
			Country:    req.ShippingAddress.Country,
		}
	}

	order, err := ctrl.orderService.CreateOrder(userID, model.PaymentMethod(req.PaymentMethod), details, shipping)
	if err != nil {
		var stockErr *service.InsufficientStockError
		switch {
		case errors.Is(err, service.ErrEmptyCart):
			apperrors.BadRequest(c, apperrors.CartEmpty, "Your cart is empty")
		case errors.Is(err, service.ErrMissingShippingInfo):
			apperrors.BadRequest(c, apperrors.OrderMissingShippingInfo, "Shipping information is incomplete")
		case errors.Is(err, service.ErrInvalidPaymentMethod):
			apperrors.BadRequest(c, apperrors.OrderInvalidPaymentMethod, "Payment method must be cashondelivery or creditcard")
		case errors.Is(err, service.ErrIncompletePaymentDetails):
			apperrors.BadRequest(c, apperrors.OrderIncompleteCardDetails, "Card number, expiry date and CVV are required")
		case errors.As(err, &stockErr):
			apperrors.BadRequest(c, apperrors.ProductOutOfStock,
				fmt.Sprintf("Not enough stock for %s", stockErr.ProductName))
		default:
			log.Error("Failed to create order", err, map[string]interface{}{
				"user_id": userID,
			})
			apperrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed",
		"order":   order,
	})
}

// GetOrders returns the authenticated user's orders, newest first
// GET /api/v1/orders
func (ctrl *OrderController) GetOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	orders, err := ctrl.orderService.GetUserOrders(userID)
	if err != nil {
		log.Error("Failed to fetch orders", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "")
		return
	}

	if len(orders) == 0 {
		apperrors.NotFound(c, apperrors.OrderNotFound, "No orders found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"orders":  orders,
	})
}

// GetOrderByID returns a single order. Users may only see their own;
// admins may see any.
// GET /api/v1/orders/:id
func (ctrl *OrderController) GetOrderByID(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid order ID")
		return
	}

	order, err := ctrl.orderService.GetOrderByID(uint(orderID))
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
			return
		}
		log.Error("Failed to fetch order", err, map[string]interface{}{
			"order_id": orderID,
		})
		apperrors.InternalError(c, "")
		return
	}

	if order.UserID != userID && !middleware.IsAdmin(c) {
		apperrors.Forbidden(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"order":   order,
	})
}

// CancelOrder cancels the user's own order; a note is mandatory
// PUT /api/v1/orders/:id/cancel
func (ctrl *OrderController) CancelOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid order ID")
		return
	}

	var req CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.OrderMissingNote, "A cancellation note is required")
		return
	}

	order, err := ctrl.orderService.CancelOrder(userID, uint(orderID), req.Note)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
		case errors.Is(err, service.ErrNotOrderOwner):
			apperrors.Forbidden(c, "")
		case errors.Is(err, service.ErrMissingCancellationNote):
			apperrors.BadRequest(c, apperrors.OrderMissingNote, "A cancellation note is required")
		default:
			log.Error("Failed to cancel order", err, map[string]interface{}{
				"user_id":  userID,
				"order_id": orderID,
			})
			apperrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"order":   order,
	})
}

// GetAllOrders lists every order (admin)
// GET /api/v1/admin/orders
func (ctrl *OrderController) GetAllOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	orders, err := ctrl.orderService.GetAllOrders()
	if err != nil {
		log.Error("Failed to fetch all orders", err, nil)
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(orders),
		"orders":  orders,
	})
}

// UpdateOrderStatus changes an order's status (admin)
// PUT /api/v1/admin/orders/:id
func (ctrl *OrderController) UpdateOrderStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var orderID uint64
	if param := c.Param("id"); param != "" {
		var err error
		orderID, err = strconv.ParseUint(param, 10, 32)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid order ID")
			return
		}
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Status is required")
		return
	}
	if orderID == 0 {
		orderID = uint64(req.OrderID)
	}
	if orderID == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Order ID is required")
		return
	}

	order, err := ctrl.orderService.UpdateOrderStatus(uint(orderID), model.OrderStatus(req.Status), req.Note)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
		case errors.Is(err, service.ErrInvalidOrderStatus):
			apperrors.BadRequest(c, apperrors.OrderInvalidStatus, "Unknown order status")
		case errors.Is(err, service.ErrMissingCancellationNote):
			apperrors.BadRequest(c, apperrors.OrderMissingNote, "Cancelling an order requires a note")
		default:
			log.Error("Failed to update order status", err, map[string]interface{}{
				"order_id": orderID,
			})
			apperrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"order":   order,
	})
}

// DeleteOrder removes an order without touching stock (admin)
// DELETE /api/v1/admin/orders/:id
func (ctrl *OrderController) DeleteOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var orderID uint64
	if param := c.Param("id"); param != "" {
		var err error
		orderID, err = strconv.ParseUint(param, 10, 32)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid order ID")
			return
		}
	} else {
		var req DeleteOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Order ID is required")
			return
		}
		orderID = uint64(req.OrderID)
	}

	if err := ctrl.orderService.DeleteOrder(uint(orderID)); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
			return
		}
		log.Error("Failed to delete order", err, map[string]interface{}{
			"order_id": orderID,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Order deleted",
	})
}

// GetSalesStats returns delivered-order revenue per month (admin).
// start_date and end_date narrow the range when both are given.
// GET /api/v1/admin/orders/delivered-stats
func (ctrl *OrderController) GetSalesStats(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var start, end *time.Time
	startParam := c.Query("start_date")
	endParam := c.Query("end_date")
	if startParam != "" && endParam != "" {
		from, err := time.Parse("2006-01-02", startParam)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidRange, "Dates must be in YYYY-MM-DD format")
			return
		}
		to, err := time.Parse("2006-01-02", endParam)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidRange, "Dates must be in YYYY-MM-DD format")
			return
		}
		// Make the end date inclusive of its whole day
		to = to.Add(24*time.Hour - time.Nanosecond)
		start, end = &from, &to
	}

	stats, err := ctrl.orderService.GetSalesStats(start, end)
	if err != nil {
		log.Error("Failed to aggregate sales stats", err, nil)
		apperrors.InternalError(c, "")
		return
	}

	if len(stats) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"message":    "No sales data found",
			"sales_data": []repository.MonthlySales{},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"sales_data": stats,
	})
}

// ExportOrders streams every order as an XLSX workbook (admin)
// GET /api/v1/admin/orders/export
func (ctrl *OrderController) ExportOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	orders, err := ctrl.orderService.GetAllOrders()
	if err != nil {
		log.Error("Failed to fetch orders for export", err, nil)
		apperrors.InternalError(c, "")
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Orders"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Order ID", "Customer", "Email", "Status", "Payment Method", "Total Price", "Items", "City", "Country", "Created At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, order := range orders {
		itemCount := 0
		for _, item := range order.Items {
			itemCount += item.Quantity
		}
		values := []interface{}{
			order.ID,
			order.User.Name,
			order.User.Email,
			string(order.Status),
			string(order.PaymentMethod),
			order.TotalPrice,
			itemCount,
			order.ShippingAddress.City,
			order.ShippingAddress.Country,
			order.CreatedAt.Format(time.RFC3339),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	filename := fmt.Sprintf("orders-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := f.Write(c.Writer); err != nil {
		log.Error("Failed to write orders export", err, nil)
	}
}
