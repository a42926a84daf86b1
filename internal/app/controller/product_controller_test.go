package controller

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mercadotrucho/backend/internal/app/model"
	"github.com/mercadotrucho/backend/internal/app/repository"
	"github.com/mercadotrucho/backend/internal/app/service"
	"github.com/mercadotrucho/backend/internal/db"
	"github.com/mercadotrucho/backend/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setUserAndRoleInContext simulates the auth middleware including the
// role claim, needed for admin checks
func setUserAndRoleInContext(userID uint, role model.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Set(middleware.UserRoleKey, role)
		c.Next()
	}
}

func setupProductControllerTest(t *testing.T) (*ProductController, *gorm.DB, *model.User, *model.Category) {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	productRepo := repository.NewProductRepository(testDB)
	categoryRepo := repository.NewCategoryRepository(testDB)
	productService := service.NewProductService(productRepo, categoryRepo)
	productController := NewProductController(productService)

	seller := &model.User{
		Email:        "seller@example.com",
		PasswordHash: "hash",
		FirstName:    "Test",
		LastName:     "Seller",
		Nickname:     "seller1",
		Role:         model.RoleSeller,
	}
	require.NoError(t, testDB.Create(seller).Error)

	category := &model.Category{Name: "Electronics"}
	require.NoError(t, testDB.Create(category).Error)

	return productController, testDB, seller, category
}

func productRouterFor(ctrl *ProductController, userID uint, role model.UserRole) *gin.Engine {
	router := gin.New()
	router.GET("/products", ctrl.ListProducts)
	router.GET("/products/:id", ctrl.GetProductByID)

	authed := router.Group("", setUserAndRoleInContext(userID, role))
	{
		authed.POST("/products", ctrl.CreateProduct)
		authed.PUT("/products/:id", ctrl.UpdateProduct)
		authed.DELETE("/products/:id", ctrl.DeleteProduct)
	}
	return router
}

func TestProductController_CreateProduct_Success(t *testing.T) {
	ctrl, _, seller, category := setupProductControllerTest(t)
	router := productRouterFor(ctrl, seller.ID, model.RoleSeller)

	w := performJSON(t, router, http.MethodPost, "/products", ProductRequest{
		Title:      "New Phone",
		Price:      1500,
		Condition:  "new",
		Stock:      5,
		CategoryID: &category.ID,
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decodeBody(t, w)
	product := resp["product"].(map[string]interface{})
	assert.Equal(t, "New Phone", product["title"])
	assert.Equal(t, float64(1500), product["price"])
}

func TestProductController_CreateProduct_InvalidRequests(t *testing.T) {
	ctrl, _, seller, _ := setupProductControllerTest(t)
	router := productRouterFor(ctrl, seller.ID, model.RoleSeller)

	tests := []struct {
		name       string
		body       map[string]interface{}
		wantStatus int
	}{
		{
			name:       "missing title",
			body:       map[string]interface{}{"price": 100, "condition": "new"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "zero price",
			body:       map[string]interface{}{"title": "X", "price": 0, "condition": "new"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad condition",
			body:       map[string]interface{}{"title": "X", "price": 100, "condition": "refurbished"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "unknown category",
			body: map[string]interface{}{
				"title": "X", "price": 100, "condition": "new", "category_id": 9999,
			},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performJSON(t, router, http.MethodPost, "/products", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestProductController_ListProducts(t *testing.T) {
	ctrl, testDB, seller, _ := setupProductControllerTest(t)
	router := productRouterFor(ctrl, seller.ID, model.RoleSeller)

	for i := 0; i < 3; i++ {
		require.NoError(t, testDB.Create(&model.Product{
			Title:     fmt.Sprintf("Product %d", i),
			Price:     float64(100 * (i + 1)),
			Condition: model.ConditionNew,
			SellerID:  seller.ID,
		}).Error)
	}

	w := performJSON(t, router, http.MethodGet, "/products?limit=2", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)
	products := resp["products"].([]interface{})
	assert.Len(t, products, 2)
	assert.Equal(t, float64(3), resp["total"])
	assert.Equal(t, float64(2), resp["limit"])
}

func TestProductController_GetProductByID(t *testing.T) {
	ctrl, testDB, seller, _ := setupProductControllerTest(t)
	router := productRouterFor(ctrl, seller.ID, model.RoleSeller)

	product := &model.Product{
		Title:     "Lookup Target",
		Price:     500,
		Condition: model.ConditionUsed,
		SellerID:  seller.ID,
	}
	require.NoError(t, testDB.Create(product).Error)

	t.Run("found", func(t *testing.T) {
		w := performJSON(t, router, http.MethodGet, fmt.Sprintf("/products/%d", product.ID), nil)
		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeBody(t, w)
		got := resp["product"].(map[string]interface{})
		assert.Equal(t, "Lookup Target", got["title"])
	})

	t.Run("not found", func(t *testing.T) {
		w := performJSON(t, router, http.MethodGet, "/products/9999", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		w := performJSON(t, router, http.MethodGet, "/products/abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestProductController_UpdateProduct_Ownership(t *testing.T) {
	ctrl, testDB, seller, _ := setupProductControllerTest(t)

	product := &model.Product{
		Title:     "Owned Product",
		Price:     500,
		Condition: model.ConditionNew,
		SellerID:  seller.ID,
	}
	require.NoError(t, testDB.Create(product).Error)

	otherSeller := &model.User{
		Email:        "rival@example.com",
		PasswordHash: "hash",
		FirstName:    "Rival",
		LastName:     "Seller",
		Nickname:     "rival1",
		Role:         model.RoleSeller,
	}
	require.NoError(t, testDB.Create(otherSeller).Error)

	update := ProductRequest{Title: "Renamed", Price: 600, Condition: "new"}
	path := fmt.Sprintf("/products/%d", product.ID)

	t.Run("owner can update", func(t *testing.T) {
		router := productRouterFor(ctrl, seller.ID, model.RoleSeller)
		w := performJSON(t, router, http.MethodPut, path, update)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		router := productRouterFor(ctrl, otherSeller.ID, model.RoleSeller)
		w := performJSON(t, router, http.MethodPut, path, update)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin bypasses ownership", func(t *testing.T) {
		admin := &model.User{
			Email:        "admin@example.com",
			PasswordHash: "hash",
			FirstName:    "Site",
			LastName:     "Admin",
			Nickname:     "admin1",
			Role:         model.RoleAdmin,
		}
		require.NoError(t, testDB.Create(admin).Error)

		router := productRouterFor(ctrl, admin.ID, model.RoleAdmin)
		w := performJSON(t, router, http.MethodPut, path, update)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing product", func(t *testing.T) {
		router := productRouterFor(ctrl, seller.ID, model.RoleSeller)
		w := performJSON(t, router, http.MethodPut, "/products/9999", update)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestProductController_DeleteProduct(t *testing.T) {
	ctrl, testDB, seller, _ := setupProductControllerTest(t)
	router := productRouterFor(ctrl, seller.ID, model.RoleSeller)

	product := &model.Product{
		Title:     "Doomed Product",
		Price:     100,
		Condition: model.ConditionUsed,
		SellerID:  seller.ID,
	}
	require.NoError(t, testDB.Create(product).Error)

	path := fmt.Sprintf("/products/%d", product.ID)

	w := performJSON(t, router, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = performJSON(t, router, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
