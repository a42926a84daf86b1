package model

import (
	"time"

	"gorm.io/gorm"
)

type ProductCondition string

const (
	ConditionNew  ProductCondition = "new"
	ConditionUsed ProductCondition = "used"
)

type Product struct {
	ID           uint             `gorm:"primarykey" json:"id"`
	Title        string           `gorm:"not null" json:"title"`
	Description  string           `gorm:"type:text" json:"description"`
	Price        float64          `gorm:"not null" json:"price"`
	Currency     string           `gorm:"type:varchar(3);default:'ARS'" json:"currency"`
	Condition    ProductCondition `gorm:"type:varchar(20);default:'new'" json:"condition"`
	FreeShipping bool             `gorm:"default:false" json:"free_shipping"`
	Stock        int              `gorm:"default:0" json:"stock"`
	Location     string           `json:"location"`
	CategoryID   *uint            `gorm:"index" json:"category_id,omitempty"`
	SellerID     uint             `gorm:"not null;index" json:"seller_id"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	DeletedAt    gorm.DeletedAt   `gorm:"index" json:"-"`

	// Relationships
	Category *Category      `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Seller   User           `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	Images   []ProductImage `gorm:"foreignKey:ProductID" json:"images,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

// ProductImage keeps the image list ordered by Position.
type ProductImage struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	ProductID uint   `gorm:"not null;index" json:"product_id"`
	URL       string `gorm:"not null" json:"url"`
	Position  int    `gorm:"default:0" json:"position"`
}

func (ProductImage) TableName() string {
	return "product_images"
}

// MainImageURL returns the first image by position, or "" when the
// product has no images.
func (p *Product) MainImageURL() string {
	if len(p.Images) == 0 {
		return ""
	}
	main := p.Images[0]
	for _, img := range p.Images[1:] {
		if img.Position < main.Position {
			main = img
		}
	}
	return main.URL
}
