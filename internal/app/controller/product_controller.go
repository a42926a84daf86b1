package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mercadotrucho/backend/internal/app/model"
	"github.com/mercadotrucho/backend/internal/app/repository"
	"github.com/mercadotrucho/backend/internal/app/service"
	"github.com/mercadotrucho/backend/internal/middleware"
)

type ProductController struct {
	productService service.ProductService
}

func NewProductController(productService service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

type ProductRequest struct {
	Title        string   `json:"title" binding:"required"`
	Description  string   `json:"description"`
	Price        float64  `json:"price" binding:"required,gt=0"`
	Currency     string   `json:"currency"`
	Condition    string   `json:"condition" binding:"required,oneof=new used"`
	FreeShipping bool     `json:"free_shipping"`
	Stock        int      `json:"stock" binding:"gte=0"`
	Location     string   `json:"location"`
	CategoryID   *uint    `json:"category_id"`
	ImageURLs    []string `json:"image_urls"`
}

func (req *ProductRequest) toInput() service.ProductInput {
	return service.ProductInput{
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		Currency:     req.Currency,
		Condition:    model.ProductCondition(req.Condition),
		FreeShipping: req.FreeShipping,
		Stock:        req.Stock,
		Location:     req.Location,
		CategoryID:   req.CategoryID,
		ImageURLs:    req.ImageURLs,
	}
}

// ListProducts returns a filtered, paginated product listing
// GET /api/v1/products
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	filter := repository.ProductFilter{
		Search: c.Query("q"),
		Limit:  parseIntQuery(c, "limit", 20),
		Offset: parseIntQuery(c, "offset", 0),
	}

	if categoryStr := c.Query("category_id"); categoryStr != "" {
		if id, err := strconv.ParseUint(categoryStr, 10, 32); err == nil {
			categoryID := uint(id)
			filter.CategoryID = &categoryID
		}
	}
	if sellerStr := c.Query("seller_id"); sellerStr != "" {
		if id, err := strconv.ParseUint(sellerStr, 10, 32); err == nil {
			sellerID := uint(id)
			filter.SellerID = &sellerID
		}
	}
	if freeShipping := c.Query("free_shipping"); freeShipping != "" {
		v := freeShipping == "true"
		filter.FreeShipping = &v
	}
	if conditionStr := c.Query("condition"); conditionStr == "new" || conditionStr == "used" {
		condition := model.ProductCondition(conditionStr)
		filter.Condition = &condition
	}
	if sortBy := c.Query("sort"); sortBy == "price" || sortBy == "created_at" {
		filter.SortBy = repository.ProductSort(sortBy)
		filter.SortAscending = c.Query("order") != "desc"
	}

	result, err := ctrl.productService.ListProducts(filter)
	if err != nil {
		log.Error("Failed to fetch products", err, nil)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to fetch products",
		})
		return
	}

	log.Info("Products fetched successfully", map[string]interface{}{
		"count": len(result.Products),
		"total": result.Total,
	})

	c.JSON(http.StatusOK, gin.H{
		"products": result.Products,
		"total":    result.Total,
		"limit":    result.Limit,
		"offset":   result.Offset,
	})
}

// GetProductByID returns a product by ID
// GET /api/v1/products/:id
func (ctrl *ProductController) GetProductByID(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	product, err := ctrl.productService.GetProductByID(id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			log.Warn("Product not found", map[string]interface{}{
				"product_id": id,
			})
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Product not found",
			})
			return
		}
		log.Error("Failed to fetch product", err, map[string]interface{}{
			"product_id": id,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to fetch product",
		})
		return
	}

	log.Info("Product fetched successfully", map[string]interface{}{
		"product_id": product.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"product": product,
	})
}

// CreateProduct publishes a new product for the authenticated seller
// POST /api/v1/products
func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized attempt to create product", nil)
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid product creation request", map[string]interface{}{
			"error": err.Error(),
		})
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	log.Debug("Creating product", map[string]interface{}{
		"seller_id": userID,
		"title":     req.Title,
		"price":     req.Price,
	})

	product, err := ctrl.productService.CreateProduct(userID, req.toInput())
	if err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			log.Warn("Category not found for product", map[string]interface{}{
				"category_id": req.CategoryID,
			})
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Category not found",
			})
			return
		}
		if errors.Is(err, service.ErrInvalidPrice) ||
			errors.Is(err, service.ErrInvalidStock) ||
			errors.Is(err, service.ErrInvalidCondition) {
			log.Warn("Product validation failed", map[string]interface{}{
				"seller_id": userID,
				"error":     err.Error(),
			})
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
			return
		}
		log.Error("Failed to create product", err, map[string]interface{}{
			"seller_id": userID,
			"title":     req.Title,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create product",
		})
		return
	}

	log.Info("Product created successfully", map[string]interface{}{
		"product_id": product.ID,
		"seller_id":  userID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Product created successfully",
		"product": product,
	})
}

// UpdateProduct updates an existing product (seller or admin)
// PUT /api/v1/products/:id
func (ctrl *ProductController) UpdateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized attempt to update product", nil)
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid product update request", map[string]interface{}{
			"product_id": id,
			"error":      err.Error(),
		})
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	log.Debug("Updating product", map[string]interface{}{
		"product_id": id,
		"user_id":    userID,
	})

	product, err := ctrl.productService.UpdateProduct(userID, id, ctrl.isAdmin(c), req.toInput())
	if err != nil {
		ctrl.respondProductError(c, err, userID, id)
		return
	}

	log.Info("Product updated successfully", map[string]interface{}{
		"product_id": product.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Product updated successfully",
		"product": product,
	})
}

// DeleteProduct removes a product (seller or admin)
// DELETE /api/v1/products/:id
func (ctrl *ProductController) DeleteProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		log.Warn("Unauthorized attempt to delete product", nil)
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	log.Debug("Deleting product", map[string]interface{}{
		"product_id": id,
		"user_id":    userID,
	})

	if err := ctrl.productService.DeleteProduct(userID, id, ctrl.isAdmin(c)); err != nil {
		ctrl.respondProductError(c, err, userID, id)
		return
	}

	log.Info("Product deleted successfully", map[string]interface{}{
		"product_id": id,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Product deleted successfully",
	})
}

func (ctrl *ProductController) isAdmin(c *gin.Context) bool {
	role, ok := middleware.GetUserRole(c)
	return ok && role == model.RoleAdmin
}

func (ctrl *ProductController) respondProductError(c *gin.Context, err error, userID, productID uint) {
	log := middleware.GetLoggerFromContext(c)

	switch {
	case errors.Is(err, service.ErrProductNotFound):
		log.Warn("Product not found", map[string]interface{}{
			"product_id": productID,
		})
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Product not found",
		})
	case errors.Is(err, service.ErrNotProductOwner):
		log.Warn("Product ownership check failed", map[string]interface{}{
			"product_id": productID,
			"user_id":    userID,
		})
		c.JSON(http.StatusForbidden, gin.H{
			"error": "You do not have permission to modify this product",
		})
	case errors.Is(err, service.ErrCategoryNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Category not found",
		})
	case errors.Is(err, service.ErrInvalidPrice),
		errors.Is(err, service.ErrInvalidStock),
		errors.Is(err, service.ErrInvalidCondition):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
	default:
		log.Error("Failed to modify product", err, map[string]interface{}{
			"product_id": productID,
			"user_id":    userID,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to modify product",
		})
	}
}

func parseIDParam(c *gin.Context) (uint, bool) {
	log := middleware.GetLoggerFromContext(c)

	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		log.Warn("Invalid ID format", map[string]interface{}{
			"id":    idStr,
			"error": err.Error(),
		})
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid ID",
		})
		return 0, false
	}
	return uint(id), true
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	value := c.Query(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}
