package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mercadotrucho/backend/internal/app/service"
	"github.com/mercadotrucho/backend/internal/middleware"
)

type CategoryController struct {
	categoryService service.CategoryService
}

func NewCategoryController(categoryService service.CategoryService) *CategoryController {
	return &CategoryController{
		categoryService: categoryService,
	}
}

type CategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// GetAllCategories returns all categories
// GET /api/v1/categories
func (ctrl *CategoryController) GetAllCategories(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	categories, err := ctrl.categoryService.GetAllCategories()
	if err != nil {
		log.Error("Failed to fetch categories", err, nil)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to fetch categories",
		})
		return
	}

	log.Info("Categories fetched successfully", map[string]interface{}{
		"count": len(categories),
	})

	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
		"count":      len(categories),
	})
}

// GetCategoryByID returns a category by ID
// GET /api/v1/categories/:id
func (ctrl *CategoryController) GetCategoryByID(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	category, err := ctrl.categoryService.GetCategoryByID(id)
	if err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			log.Warn("Category not found", map[string]interface{}{
				"category_id": id,
			})
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Category not found",
			})
			return
		}
		log.Error("Failed to fetch category", err, map[string]interface{}{
			"category_id": id,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to fetch category",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category": category,
	})
}

// CreateCategory creates a new category (Admin only)
// POST /api/v1/categories
func (ctrl *CategoryController) CreateCategory(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid category creation request", map[string]interface{}{
			"error": err.Error(),
		})
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	category, err := ctrl.categoryService.CreateCategory(req.Name, req.Description)
	if err != nil {
		if errors.Is(err, service.ErrCategoryAlreadyExists) {
			log.Warn("Category already exists", map[string]interface{}{
				"name": req.Name,
			})
			c.JSON(http.StatusConflict, gin.H{
				"error": "Category already exists",
			})
			return
		}
		log.Error("Failed to create category", err, map[string]interface{}{
			"name": req.Name,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create category",
		})
		return
	}

	log.Info("Category created successfully", map[string]interface{}{
		"category_id": category.ID,
		"name":        category.Name,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Category created successfully",
		"category": category,
	})
}

// UpdateCategory updates an existing category (Admin only)
// PUT /api/v1/categories/:id
func (ctrl *CategoryController) UpdateCategory(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid category update request", map[string]interface{}{
			"category_id": id,
			"error":       err.Error(),
		})
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	category, err := ctrl.categoryService.UpdateCategory(id, req.Name, req.Description)
	if err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			log.Warn("Category not found for update", map[string]interface{}{
				"category_id": id,
			})
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Category not found",
			})
			return
		}
		if errors.Is(err, service.ErrCategoryAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{
				"error": "Category already exists",
			})
			return
		}
		log.Error("Failed to update category", err, map[string]interface{}{
			"category_id": id,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to update category",
		})
		return
	}

	log.Info("Category updated successfully", map[string]interface{}{
		"category_id": category.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"message":  "Category updated successfully",
		"category": category,
	})
}

// DeleteCategory removes a category (Admin only)
// DELETE /api/v1/categories/:id
func (ctrl *CategoryController) DeleteCategory(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := ctrl.categoryService.DeleteCategory(id); err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			log.Warn("Category not found for deletion", map[string]interface{}{
				"category_id": id,
			})
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Category not found",
			})
			return
		}
		log.Error("Failed to delete category", err, map[string]interface{}{
			"category_id": id,
		})
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to delete category",
		})
		return
	}

	log.Info("Category deleted successfully", map[string]interface{}{
		"category_id": id,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Category deleted successfully",
	})
}
