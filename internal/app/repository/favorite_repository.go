package repository

import (
	"github.com/mercadotrucho/backend/internal/app/model"
	"github.com/mercadotrucho/backend/pkg/logger"
	"gorm.io/gorm"
)

type FavoriteRepository interface {
	Create(favorite *model.Favorite) error
	FindByUserID(userID uint) ([]model.Favorite, error)
	FindByUserAndProduct(userID, productID uint) (*model.Favorite, error)
	Delete(userID, productID uint) error
	CountByUserID(userID uint) (int64, error)
}

type favoriteRepository struct {
	db *gorm.DB
}

func NewFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

func (r *favoriteRepository) Create(favorite *model.Favorite) error {
	logger.Debug("Creating favorite in database", map[string]interface{}{
		"user_id":    favorite.UserID,
		"product_id": favorite.ProductID,
	})

	if err := r.db.Create(favorite).Error; err != nil {
		logger.Error("Failed to create favorite in database", err, map[string]interface{}{
			"user_id":    favorite.UserID,
			"product_id": favorite.ProductID,
		})
		return err
	}
	return nil
}

func (r *favoriteRepository) FindByUserID(userID uint) ([]model.Favorite, error) {
	logger.Debug("Finding favorites by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var favorites []model.Favorite
	err := r.db.Where("user_id = ?", userID).
		Preload("Product").
		Preload("Product.Seller").
		Preload("Product.Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("product_images.position ASC")
		}).
		Order("created_at DESC").
		Find(&favorites).Error
	if err != nil {
		logger.Error("Failed to find favorites by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	return favorites, nil
}

func (r *favoriteRepository) FindByUserAndProduct(userID, productID uint) (*model.Favorite, error) {
	var favorite model.Favorite
	err := r.db.
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&favorite).Error
	if err != nil {
		return nil, err
	}
	return &favorite, nil
}

func (r *favoriteRepository) Delete(userID, productID uint) error {
	logger.Debug("Deleting favorite from database", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	})

	if err := r.db.
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&model.Favorite{}).Error; err != nil {
		logger.Error("Failed to delete favorite from database", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return err
	}
	return nil
}

func (r *favoriteRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Favorite{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		logger.Error("Failed to count favorites by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return 0, err
	}
	return count, nil
}
