package model

import (
	"time"

	"github.com/lib/pq"
)

// DefaultProductRating is the rating shown for a product that has no
// reviews yet. New listings start at 5, not 0.
const DefaultProductRating = 5.0

type Product struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	Name          string         `gorm:"not null" json:"name"`
	Description   string         `gorm:"type:text" json:"description"`
	Price         float64        `gorm:"not null" json:"price"`
	Stock         int            `gorm:"not null;default:0" json:"stock"`
	CategoryID    uint           `gorm:"not null;index" json:"category_id"`
	Images        pq.StringArray `gorm:"type:text[]" json:"images"`
	Colors        pq.StringArray `gorm:"type:text[]" json:"colors"`
	AverageRating float64        `gorm:"default:5" json:"average_rating"`
	NumReviews    int            `gorm:"default:0" json:"num_reviews"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`

	Category   Category    `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Reviews    []Review    `gorm:"foreignKey:ProductID" json:"-"`
	OrderItems []OrderItem `gorm:"foreignKey:ProductID" json:"-"`
	CartItems  []CartItem  `gorm:"foreignKey:ProductID" json:"-"`
}

func (Product) TableName() string {
	return "products"
}
