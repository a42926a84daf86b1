package service

import (
	"errors"

	"github.com/mercadotrucho/backend/internal/app/model"
	"github.com/mercadotrucho/backend/internal/app/repository"
	"github.com/mercadotrucho/backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrNotProductOwner  = errors.New("not authorized to modify this product")
	ErrInvalidPrice     = errors.New("price must be positive")
	ErrInvalidStock     = errors.New("stock cannot be negative")
	ErrInvalidCondition = errors.New("condition must be new or used")
)

type ProductInput struct {
	Title        string
	Description  string
	Price        float64
	Currency     string
	Condition    model.ProductCondition
	FreeShipping bool
	Stock        int
	Location     string
	CategoryID   *uint
	ImageURLs    []string
}

type ProductList struct {
	Products []model.Product
	Total    int64
	Limit    int
	Offset   int
}

type ProductService interface {
	ListProducts(filter repository.ProductFilter) (*ProductList, error)
	GetProductByID(id uint) (*model.Product, error)
	GetProductsBySeller(sellerID uint) ([]model.Product, error)
	CreateProduct(sellerID uint, input ProductInput) (*model.Product, error)
	UpdateProduct(userID, productID uint, isAdmin bool, input ProductInput) (*model.Product, error)
	DeleteProduct(userID, productID uint, isAdmin bool) error
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
) ProductService {
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
	}
}

func (s *productService) ListProducts(filter repository.ProductFilter) (*ProductList, error) {
	logger.Debug("Listing products", map[string]interface{}{
		"search": filter.Search,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})

	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	products, total, err := s.productRepo.FindWithFilter(filter)
	if err != nil {
		logger.Error("Failed to list products", err, map[string]interface{}{
			"search": filter.Search,
		})
		return nil, err
	}

	return &ProductList{
		Products: products,
		Total:    total,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	}, nil
}

func (s *productService) GetProductByID(id uint) (*model.Product, error) {
	logger.Debug("Fetching product by ID", map[string]interface{}{
		"product_id": id,
	})

	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Product not found", map[string]interface{}{
				"product_id": id,
			})
			return nil, ErrProductNotFound
		}
		logger.Error("Failed to fetch product", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}

	return product, nil
}

func (s *productService) GetProductsBySeller(sellerID uint) ([]model.Product, error) {
	logger.Debug("Fetching products by seller", map[string]interface{}{
		"seller_id": sellerID,
	})

	filter := repository.ProductFilter{
		SellerID: &sellerID,
		Limit:    100,
	}
	products, _, err := s.productRepo.FindWithFilter(filter)
	if err != nil {
		logger.Error("Failed to fetch products by seller", err, map[string]interface{}{
			"seller_id": sellerID,
		})
		return nil, err
	}
	return products, nil
}

func (s *productService) CreateProduct(sellerID uint, input ProductInput) (*model.Product, error) {
	logger.Info("Creating product", map[string]interface{}{
		"seller_id": sellerID,
		"title":     input.Title,
	})

	if err := s.validateInput(input); err != nil {
		logger.Warn("Product validation failed", map[string]interface{}{
			"seller_id": sellerID,
			"error":     err.Error(),
		})
		return nil, err
	}

	if input.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(*input.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Warn("Category not found for product", map[string]interface{}{
					"category_id": *input.CategoryID,
				})
				return nil, ErrCategoryNotFound
			}
			return nil, err
		}
	}

	product := &model.Product{
		Title:        input.Title,
		Description:  input.Description,
		Price:        input.Price,
		Currency:     input.Currency,
		Condition:    input.Condition,
		FreeShipping: input.FreeShipping,
		Stock:        input.Stock,
		Location:     input.Location,
		CategoryID:   input.CategoryID,
		SellerID:     sellerID,
	}
	for i, url := range input.ImageURLs {
		product.Images = append(product.Images, model.ProductImage{
			URL:      url,
			Position: i,
		})
	}

	if err := s.productRepo.Create(product); err != nil {
		logger.Error("Failed to create product", err, map[string]interface{}{
			"seller_id": sellerID,
			"title":     input.Title,
		})
		return nil, err
	}

	logger.Info("Product created successfully", map[string]interface{}{
		"product_id": product.ID,
		"seller_id":  sellerID,
	})

	return s.GetProductByID(product.ID)
}

func (s *productService) UpdateProduct(userID, productID uint, isAdmin bool, input ProductInput) (*model.Product, error) {
	logger.Info("Updating product", map[string]interface{}{
		"product_id": productID,
		"user_id":    userID,
	})

	product, err := s.findOwnedProduct(userID, productID, isAdmin)
	if err != nil {
		return nil, err
	}

	if err := s.validateInput(input); err != nil {
		logger.Warn("Product validation failed", map[string]interface{}{
			"product_id": productID,
			"error":      err.Error(),
		})
		return nil, err
	}

	if input.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(*input.CategoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, err
		}
	}

	product.Title = input.Title
	product.Description = input.Description
	product.Price = input.Price
	if input.Currency != "" {
		product.Currency = input.Currency
	}
	product.Condition = input.Condition
	product.FreeShipping = input.FreeShipping
	product.Stock = input.Stock
	product.Location = input.Location
	product.CategoryID = input.CategoryID

	if err := s.productRepo.Update(product); err != nil {
		logger.Error("Failed to update product", err, map[string]interface{}{
			"product_id": productID,
		})
		return nil, err
	}

	if input.ImageURLs != nil {
		if err := s.productRepo.ReplaceImages(product.ID, input.ImageURLs); err != nil {
			logger.Error("Failed to replace product images", err, map[string]interface{}{
				"product_id": productID,
			})
			return nil, err
		}
	}

	logger.Info("Product updated successfully", map[string]interface{}{
		"product_id": productID,
	})

	return s.GetProductByID(productID)
}

func (s *productService) DeleteProduct(userID, productID uint, isAdmin bool) error {
	logger.Info("Deleting product", map[string]interface{}{
		"product_id": productID,
		"user_id":    userID,
	})

	if _, err := s.findOwnedProduct(userID, productID, isAdmin); err != nil {
		return err
	}

	if err := s.productRepo.Delete(productID); err != nil {
		logger.Error("Failed to delete product", err, map[string]interface{}{
			"product_id": productID,
		})
		return err
	}

	logger.Info("Product deleted successfully", map[string]interface{}{
		"product_id": productID,
	})
	return nil
}

// findOwnedProduct loads the product and checks that the caller is the
// seller, unless the caller is an admin. Existence is checked before
// ownership.
func (s *productService) findOwnedProduct(userID, productID uint, isAdmin bool) (*model.Product, error) {
	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Product not found", map[string]interface{}{
				"product_id": productID,
			})
			return nil, ErrProductNotFound
		}
		logger.Error("Failed to fetch product", err, map[string]interface{}{
			"product_id": productID,
		})
		return nil, err
	}

	if !isAdmin && product.SellerID != userID {
		logger.Warn("Product ownership check failed", map[string]interface{}{
			"product_id": productID,
			"user_id":    userID,
			"seller_id":  product.SellerID,
		})
		return nil, ErrNotProductOwner
	}

	return product, nil
}

func (s *productService) validateInput(input ProductInput) error {
	if input.Price <= 0 {
		return ErrInvalidPrice
	}
	if input.Stock < 0 {
		return ErrInvalidStock
	}
	if input.Condition != model.ConditionNew && input.Condition != model.ConditionUsed {
		return ErrInvalidCondition
	}
	return nil
}
