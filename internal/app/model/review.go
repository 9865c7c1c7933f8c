package model

import (
	"time"
)

// Review is tied to the order the product was bought in; a user may review
// the same product once per order.
type Review struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_review_user_product_order,unique" json:"user_id"`
	ProductID uint      `gorm:"not null;index:idx_review_user_product_order,unique" json:"product_id"`
	OrderID   uint      `gorm:"not null;index:idx_review_user_product_order,unique" json:"order_id"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   string    `gorm:"type:text;not null" json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User    User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Product Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Order   Order   `gorm:"foreignKey:OrderID" json:"-"`
}

func (Review) TableName() string {
	return "reviews"
}
