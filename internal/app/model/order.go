package model

import (
	"time"
)

type OrderStatus string
type PaymentMethod string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusShipped   OrderStatus = "Shipped"
	OrderStatusDelivered OrderStatus = "Delivered"
	OrderStatusCancelled OrderStatus = "Cancelled"
	OrderStatusCompleted OrderStatus = "Completed"

	PaymentCashOnDelivery PaymentMethod = "cashondelivery"
	PaymentCreditCard     PaymentMethod = "creditcard"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusShipped, OrderStatusDelivered,
		OrderStatusCancelled, OrderStatusCompleted:
		return true
	}
	return false
}

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCashOnDelivery || m == PaymentCreditCard
}

// PaymentDetails holds card fields for creditcard orders. They are stored
// as submitted; no processor validation happens anywhere in the system.
type PaymentDetails struct {
	CardNumber string `json:"card_number,omitempty"`
	ExpiryDate string `json:"expiry_date,omitempty"`
	CVV        string `json:"cvv,omitempty"`
}

// Complete reports whether every card field is present.
func (p PaymentDetails) Complete() bool {
	return p.CardNumber != "" && p.ExpiryDate != "" && p.CVV != ""
}

// Order is an immutable snapshot of the cart at checkout. Only Status and
// Note change after creation; TotalPrice is never recomputed even if the
// underlying product prices move.
type Order struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	UserID          uint           `gorm:"not null;index" json:"user_id"`
	TotalPrice      float64        `gorm:"not null" json:"total_price"`
	PaymentMethod   PaymentMethod  `gorm:"type:varchar(20);not null" json:"payment_method"`
	PaymentDetails  PaymentDetails `gorm:"embedded;embeddedPrefix:card_" json:"payment_details,omitempty"`
	ShippingAddress ShippingInfo   `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	Status          OrderStatus    `gorm:"type:varchar(20);default:'Pending'" json:"status"`
	Note            string         `gorm:"type:text" json:"note,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`

	User  User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

type OrderItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	Color     string    `gorm:"not null" json:"color"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	Price     float64   `gorm:"not null" json:"price"`
	CreatedAt time.Time `json:"created_at"`

	Order   Order   `gorm:"foreignKey:OrderID" json:"-"`
	Product Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
