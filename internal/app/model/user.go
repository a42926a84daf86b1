package model

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleUser   UserRole = "user"
	RoleSeller UserRole = "seller"
	RoleAdmin  UserRole = "admin"
)

type SellerReputation string

const (
	ReputationBronze   SellerReputation = "bronze"
	ReputationSilver   SellerReputation = "silver"
	ReputationGold     SellerReputation = "gold"
	ReputationPlatinum SellerReputation = "platinum"
)

type User struct {
	ID           uint             `gorm:"primarykey" json:"id"`
	Email        string           `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string           `gorm:"not null" json:"-"`
	FirstName    string           `gorm:"not null" json:"first_name"`
	LastName     string           `gorm:"not null" json:"last_name"`
	Nickname     string           `gorm:"uniqueIndex;not null" json:"nickname"` // auto-generated, editable
	Avatar       string           `json:"avatar"`
	Role         UserRole         `gorm:"type:varchar(20);default:'user'" json:"role"`
	Reputation   SellerReputation `gorm:"type:varchar(20);default:'bronze'" json:"reputation"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	DeletedAt    gorm.DeletedAt   `gorm:"index" json:"-"`

	// Relationships
	Products []Product `gorm:"foreignKey:SellerID" json:"-"`
	Cart     *Cart     `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string {
	return "users"
}
