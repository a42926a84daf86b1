package service

import (
	"errors"

	"github.com/mercadotrucho/backend/internal/app/model"
	"github.com/mercadotrucho/backend/internal/app/repository"
	"github.com/mercadotrucho/backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrFavoriteAlreadyExists = errors.New("product already in favorites")
	ErrFavoriteNotFound      = errors.New("favorite not found")
)

type FavoriteService interface {
	GetUserFavorites(userID uint) ([]model.Favorite, error)
	AddToFavorites(userID, productID uint) (*model.Favorite, error)
	RemoveFromFavorites(userID, productID uint) error
	IsFavorite(userID, productID uint) (bool, error)
	CountFavorites(userID uint) (int64, error)
}

type favoriteService struct {
	favoriteRepo repository.FavoriteRepository
	productRepo  repository.ProductRepository
}

func NewFavoriteService(
	favoriteRepo repository.FavoriteRepository,
	productRepo repository.ProductRepository,
) FavoriteService {
	return &favoriteService{
		favoriteRepo: favoriteRepo,
		productRepo:  productRepo,
	}
}

func (s *favoriteService) GetUserFavorites(userID uint) ([]model.Favorite, error) {
	logger.Debug("Fetching user favorites", map[string]interface{}{
		"user_id": userID,
	})

	favorites, err := s.favoriteRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to fetch favorites", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return favorites, nil
}

func (s *favoriteService) AddToFavorites(userID, productID uint) (*model.Favorite, error) {
	logger.Info("Adding product to favorites", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	})

	if _, err := s.productRepo.FindByID(productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Product not found for favorite", map[string]interface{}{
				"product_id": productID,
			})
			return nil, ErrProductNotFound
		}
		logger.Error("Failed to fetch product for favorite", err, map[string]interface{}{
			"product_id": productID,
		})
		return nil, err
	}

	existing, err := s.favoriteRepo.FindByUserAndProduct(userID, productID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing favorite", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return nil, err
	}
	if existing != nil {
		logger.Warn("Product already in favorites", map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return nil, ErrFavoriteAlreadyExists
	}

	favorite := &model.Favorite{
		UserID:    userID,
		ProductID: productID,
	}
	if err := s.favoriteRepo.Create(favorite); err != nil {
		logger.Error("Failed to create favorite", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return nil, err
	}

	logger.Info("Product added to favorites", map[string]interface{}{
		"user_id":     userID,
		"product_id":  productID,
		"favorite_id": favorite.ID,
	})
	return favorite, nil
}

func (s *favoriteService) RemoveFromFavorites(userID, productID uint) error {
	logger.Info("Removing product from favorites", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	})

	if _, err := s.favoriteRepo.FindByUserAndProduct(userID, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Favorite not found", map[string]interface{}{
				"user_id":    userID,
				"product_id": productID,
			})
			return ErrFavoriteNotFound
		}
		logger.Error("Failed to check favorite", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return err
	}

	if err := s.favoriteRepo.Delete(userID, productID); err != nil {
		logger.Error("Failed to delete favorite", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return err
	}

	logger.Info("Product removed from favorites", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	})
	return nil
}

func (s *favoriteService) IsFavorite(userID, productID uint) (bool, error) {
	_, err := s.favoriteRepo.FindByUserAndProduct(userID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *favoriteService) CountFavorites(userID uint) (int64, error) {
	return s.favoriteRepo.CountByUserID(userID)
}
