package model

import (
	"time"
)

// Cart is created lazily on first access; one row per user.
// Items are hard-deleted so the (cart_id, product_id) unique index
// stays usable after remove/re-add.
type Cart struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	User  User       `gorm:"foreignKey:UserID" json:"-"`
	Items []CartItem `gorm:"foreignKey:CartID" json:"items,omitempty"`
}

func (Cart) TableName() string {
	return "carts"
}

type CartItem struct {
	ID        uint `gorm:"primarykey" json:"id"`
	CartID    uint `gorm:"not null;uniqueIndex:idx_cart_items_cart_product" json:"cart_id"`
	ProductID uint `gorm:"not null;uniqueIndex:idx_cart_items_cart_product" json:"product_id"`
	Quantity  int  `gorm:"not null;default:1" json:"quantity"`
	// Price captured when the line was first created; never refreshed
	// from the product afterwards.
	UnitPrice float64   `gorm:"not null" json:"unit_price"`
	AddedAt   time.Time `json:"added_at"`

	// Relationships
	Cart    Cart    `gorm:"foreignKey:CartID" json:"-"`
	Product Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (CartItem) TableName() string {
	return "cart_items"
}
