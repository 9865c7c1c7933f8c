package repository

import (
	"time"

	"github.com/avyhea/avyhea-backend/internal/app/model"
	"github.com/avyhea/avyhea-backend/pkg/logger"
	"gorm.io/gorm"
)

// MonthlySales is one month's worth of delivered-order revenue
type MonthlySales struct {
	Month      string  `json:"date"`
	TotalSales float64 `json:"total_sales"`
}

type OrderRepository interface {
	FindByID(id uint) (*model.Order, error)
	FindByUserID(userID uint) ([]model.Order, error)
	FindAll() ([]model.Order, error)
	SalesByMonth(start, end *time.Time) ([]MonthlySales, error)
	Delete(id uint) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) FindByID(id uint) (*model.Order, error) {
	var order model.Order
	err := r.db.Preload("Items.Product").Preload("User").
		First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByUserID(userID uint) ([]model.Order, error) {
	logger.Debug("Finding orders for user", map[string]interface{}{
		"user_id": userID,
	})

	var orders []model.Order
	err := r.db.Preload("Items.Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		logger.Error("Failed to fetch user orders from database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) FindAll() ([]model.Order, error) {
	var orders []model.Order
	err := r.db.Preload("Items.Product").Preload("User").
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		logger.Error("Failed to fetch orders from database", err, nil)
		return nil, err
	}
	return orders, nil
}

// SalesByMonth sums delivered-order revenue per calendar month,
// oldest month first. Both bounds must be set to narrow the range.
func (r *orderRepository) SalesByMonth(start, end *time.Time) ([]MonthlySales, error) {
	monthExpr := "to_char(created_at, 'YYYY-MM')"
	if r.db.Dialector.Name() == "sqlite" {
		monthExpr = "strftime('%Y-%m', created_at)"
	}

	query := r.db.Model(&model.Order{}).
		Select(monthExpr+" as month, SUM(total_price) as total_sales").
		Where("status = ?", model.OrderStatusDelivered)
	if start != nil && end != nil {
		query = query.Where("created_at BETWEEN ? AND ?", *start, *end)
	}

	var rows []MonthlySales
	if err := query.Group("month").Order("month").Scan(&rows).Error; err != nil {
		logger.Error("Failed to aggregate monthly sales", err, nil)
		return nil, err
	}
	return rows, nil
}

// Delete removes the order and its lines
func (r *orderRepository) Delete(id uint) error {
	logger.Debug("Deleting order from database", map[string]interface{}{
		"order_id": id,
	})

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&model.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Order{}, id).Error
	})
}
