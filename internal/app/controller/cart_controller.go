package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mercadotrucho/backend/internal/app/service"
	"github.com/mercadotrucho/backend/internal/middleware"
)

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{
		cartService: cartService,
	}
}

type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// GetCart returns the user's cart, creating an empty one on first access
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized access to cart", nil)
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	cart, err := ctrl.cartService.GetCart(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			log.Warn("Cart requested for unknown user", map[string]interface{}{
				"user_id": userID,
			})
			c.JSON(http.StatusNotFound, gin.H{
				"error": "User not found",
			})
			return
		}
		log.Error("Failed to fetch cart", err, map[string]interface{}{
			"user_id": userID,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to fetch cart",
		})
		return
	}

	log.Info("Cart fetched successfully", map[string]interface{}{
		"user_id":     userID,
		"total_items": cart.TotalItems,
		"total_price": cart.TotalPrice,
	})

	c.JSON(http.StatusOK, gin.H{
		"cart": cart,
	})
}

// AddToCart adds a product to the cart, merging quantities when the
// product is already present
// POST /api/v1/cart/items
func (ctrl *CartController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized attempt to add to cart", nil)
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	log.Debug("Adding item to cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": req.ProductID,
		"quantity":   req.Quantity,
	})

	cart, err := ctrl.cartService.AddItem(userID, req.ProductID, req.Quantity)
	if err != nil {
		if errors.Is(err, service.ErrInvalidQuantity) {
			log.Warn("Invalid quantity for cart item", map[string]interface{}{
				"user_id":    userID,
				"product_id": req.ProductID,
				"quantity":   req.Quantity,
			})
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Quantity must be at least 1",
			})
			return
		}
		if errors.Is(err, service.ErrProductNotFound) {
			log.Warn("Product not found for cart", map[string]interface{}{
				"user_id":    userID,
				"product_id": req.ProductID,
			})
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Product not found",
			})
			return
		}
		if errors.Is(err, service.ErrUserNotFound) {
			log.Warn("Unknown user adding to cart", map[string]interface{}{
				"user_id": userID,
			})
			c.JSON(http.StatusNotFound, gin.H{
				"error": "User not found",
			})
			return
		}
		log.Error("Failed to add item to cart", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": req.ProductID,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to add item to cart",
		})
		return
	}

	log.Info("Item added to cart successfully", map[string]interface{}{
		"user_id":    userID,
		"product_id": req.ProductID,
		"quantity":   req.Quantity,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Item added to cart successfully",
		"cart":    cart,
	})
}

// UpdateCartItem replaces a cart line's quantity
// PUT /api/v1/cart/items/:id
func (ctrl *CartController) UpdateCartItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized attempt to update cart item", nil)
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		log.Warn("Invalid cart item ID format", map[string]interface{}{
			"user_id":      userID,
			"cart_item_id": idStr,
			"error":        err.Error(),
		})
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cart item ID",
		})
		return
	}

	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid update cart request", map[string]interface{}{
			"user_id":      userID,
			"cart_item_id": id,
			"error":        err.Error(),
		})
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	log.Debug("Updating cart item", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": id,
		"quantity":     req.Quantity,
	})

	cart, err := ctrl.cartService.UpdateItemQuantity(userID, uint(id), req.Quantity)
	if err != nil {
		ctrl.respondItemError(c, err, userID, uint(id))
		return
	}

	log.Info("Cart item updated successfully", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": id,
		"quantity":     req.Quantity,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart item updated successfully",
		"cart":    cart,
	})
}

// RemoveFromCart removes a line from the cart
// DELETE /api/v1/cart/items/:id
func (ctrl *CartController) RemoveFromCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized attempt to remove cart item", nil)
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		log.Warn("Invalid cart item ID format", map[string]interface{}{
			"user_id":      userID,
			"cart_item_id": idStr,
			"error":        err.Error(),
		})
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cart item ID",
		})
		return
	}

	log.Debug("Removing cart item", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": id,
	})

	cart, err := ctrl.cartService.RemoveItem(userID, uint(id))
	if err != nil {
		ctrl.respondItemError(c, err, userID, uint(id))
		return
	}

	log.Info("Cart item removed successfully", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": id,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart item removed successfully",
		"cart":    cart,
	})
}

// ClearCart removes every line from the user's cart
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized attempt to clear cart", nil)
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	log.Debug("Clearing cart", map[string]interface{}{
		"user_id": userID,
	})

	err := ctrl.cartService.ClearCart(userID)
	if err != nil {
		if errors.Is(err, service.ErrCartNotFound) {
			log.Warn("Clear requested but cart does not exist", map[string]interface{}{
				"user_id": userID,
			})
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Cart not found",
			})
			return
		}
		log.Error("Failed to clear cart", err, map[string]interface{}{
			"user_id": userID,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to clear cart",
		})
		return
	}

	log.Info("Cart cleared successfully", map[string]interface{}{
		"user_id": userID,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared successfully",
	})
}

// respondItemError maps cart item mutation errors to HTTP responses.
// Missing lines are 404 while lines owned by another user are 403.
func (ctrl *CartController) respondItemError(c *gin.Context, err error, userID, itemID uint) {
	log := middleware.GetLoggerFromContext(c)

	switch {
	case errors.Is(err, service.ErrInvalidQuantity):
		log.Warn("Invalid quantity for cart item", map[string]interface{}{
			"user_id":      userID,
			"cart_item_id": itemID,
		})
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Quantity must be at least 1",
		})
	case errors.Is(err, service.ErrCartItemNotFound):
		log.Warn("Cart item not found", map[string]interface{}{
			"user_id":      userID,
			"cart_item_id": itemID,
		})
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Cart item not found",
		})
	case errors.Is(err, service.ErrCartItemForbidden):
		log.Warn("Cart item belongs to another user", map[string]interface{}{
			"user_id":      userID,
			"cart_item_id": itemID,
		})
		c.JSON(http.StatusForbidden, gin.H{
			"error": "You do not have permission to modify this item",
		})
	default:
		log.Error("Failed to modify cart item", err, map[string]interface{}{
			"user_id":      userID,
			"cart_item_id": itemID,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to modify cart item",
		})
	}
}
