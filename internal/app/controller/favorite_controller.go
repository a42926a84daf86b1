package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mercadotrucho/backend/internal/app/service"
	"github.com/mercadotrucho/backend/internal/middleware"
)

type FavoriteController struct {
	favoriteService service.FavoriteService
}

func NewFavoriteController(favoriteService service.FavoriteService) *FavoriteController {
	return &FavoriteController{
		favoriteService: favoriteService,
	}
}

type AddFavoriteRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
}

// GetFavorites returns the user's favorites
// GET /api/v1/favorites
func (ctrl *FavoriteController) GetFavorites(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized access to favorites", nil)
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	favorites, err := ctrl.favoriteService.GetUserFavorites(userID)
	if err != nil {
		log.Error("Failed to fetch favorites", err, map[string]interface{}{
			"user_id": userID,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to fetch favorites",
		})
		return
	}

	log.Info("Favorites fetched successfully", map[string]interface{}{
		"user_id": userID,
		"count":   len(favorites),
	})

	c.JSON(http.StatusOK, gin.H{
		"favorites": favorites,
		"count":     len(favorites),
	})
}

// AddFavorite adds a product to the user's favorites
// POST /api/v1/favorites
func (ctrl *FavoriteController) AddFavorite(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized attempt to add favorite", nil)
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	var req AddFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add favorite request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	favorite, err := ctrl.favoriteService.AddToFavorites(userID, req.ProductID)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			log.Warn("Product not found for favorite", map[string]interface{}{
				"product_id": req.ProductID,
			})
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Product not found",
			})
			return
		}
		if errors.Is(err, service.ErrFavoriteAlreadyExists) {
			log.Warn("Product already in favorites", map[string]interface{}{
				"user_id":    userID,
				"product_id": req.ProductID,
			})
			c.JSON(http.StatusConflict, gin.H{
				"error": "Product already in favorites",
			})
			return
		}
		log.Error("Failed to add favorite", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": req.ProductID,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to add favorite",
		})
		return
	}

	log.Info("Favorite added successfully", map[string]interface{}{
		"user_id":    userID,
		"product_id": req.ProductID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Product added to favorites",
		"favorite": favorite,
	})
}

// RemoveFavorite removes a product from the user's favorites
// DELETE /api/v1/favorites/:id
func (ctrl *FavoriteController) RemoveFavorite(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized attempt to remove favorite", nil)
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	productID, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := ctrl.favoriteService.RemoveFromFavorites(userID, productID); err != nil {
		if errors.Is(err, service.ErrFavoriteNotFound) {
			log.Warn("Favorite not found", map[string]interface{}{
				"user_id":    userID,
				"product_id": productID,
			})
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Favorite not found",
			})
			return
		}
		log.Error("Failed to remove favorite", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to remove favorite",
		})
		return
	}

	log.Info("Favorite removed successfully", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Product removed from favorites",
	})
}

// CheckFavorite reports whether a product is in the user's favorites
// GET /api/v1/favorites/:id/check
func (ctrl *FavoriteController) CheckFavorite(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	productID, ok := parseIDParam(c)
	if !ok {
		return
	}

	isFavorite, err := ctrl.favoriteService.IsFavorite(userID, productID)
	if err != nil {
		log.Error("Failed to check favorite", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to check favorite",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"is_favorite": isFavorite,
	})
}
