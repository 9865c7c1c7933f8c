package model

import (
	"time"
)

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// ShippingInfo is the address block snapshotted onto orders at checkout.
// All four fields must be present before a user can place an order.
type ShippingInfo struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Complete reports whether every shipping field has been filled in.
func (s ShippingInfo) Complete() bool {
	return s.Address != "" && s.City != "" && s.PostalCode != "" && s.Country != ""
}

type User struct {
	ID           uint         `gorm:"primarykey" json:"id"`
	Email        string       `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string       `gorm:"not null" json:"-"`
	Name         string       `gorm:"not null" json:"name"`
	Role         UserRole     `gorm:"type:varchar(20);default:'user'" json:"role"`
	ShippingInfo ShippingInfo `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_info"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`

	Orders []Order `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string {
	return "users"
}
