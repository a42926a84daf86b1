package service

import (
	"errors"

	"github.com/mercadotrucho/backend/internal/app/model"
	"github.com/mercadotrucho/backend/internal/app/repository"
	"github.com/mercadotrucho/backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrCategoryNotFound      = errors.New("category not found")
	ErrCategoryAlreadyExists = errors.New("category already exists")
)

type CategoryService interface {
	GetAllCategories() ([]model.Category, error)
	GetCategoryByID(id uint) (*model.Category, error)
	CreateCategory(name, description string) (*model.Category, error)
	UpdateCategory(id uint, name, description string) (*model.Category, error)
	DeleteCategory(id uint) error
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
}

func NewCategoryService(categoryRepo repository.CategoryRepository) CategoryService {
	return &categoryService{categoryRepo: categoryRepo}
}

func (s *categoryService) GetAllCategories() ([]model.Category, error) {
	logger.Debug("Fetching all categories", nil)

	categories, err := s.categoryRepo.FindAll()
	if err != nil {
		logger.Error("Failed to fetch categories", err, nil)
		return nil, err
	}
	return categories, nil
}

func (s *categoryService) GetCategoryByID(id uint) (*model.Category, error) {
	category, err := s.categoryRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Category not found", map[string]interface{}{
				"category_id": id,
			})
			return nil, ErrCategoryNotFound
		}
		logger.Error("Failed to fetch category", err, map[string]interface{}{
			"category_id": id,
		})
		return nil, err
	}
	return category, nil
}

func (s *categoryService) CreateCategory(name, description string) (*model.Category, error) {
	logger.Info("Creating category", map[string]interface{}{
		"name": name,
	})

	existing, err := s.categoryRepo.FindByName(name)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing category", err, map[string]interface{}{
			"name": name,
		})
		return nil, err
	}
	if existing != nil {
		logger.Warn("Category creation failed: name already exists", map[string]interface{}{
			"name": name,
		})
		return nil, ErrCategoryAlreadyExists
	}

	category := &model.Category{
		Name:        name,
		Description: description,
	}
	if err := s.categoryRepo.Create(category); err != nil {
		logger.Error("Failed to create category", err, map[string]interface{}{
			"name": name,
		})
		return nil, err
	}

	logger.Info("Category created successfully", map[string]interface{}{
		"category_id": category.ID,
		"name":        name,
	})
	return category, nil
}

func (s *categoryService) UpdateCategory(id uint, name, description string) (*model.Category, error) {
	logger.Info("Updating category", map[string]interface{}{
		"category_id": id,
	})

	category, err := s.GetCategoryByID(id)
	if err != nil {
		return nil, err
	}

	if name != "" && name != category.Name {
		existing, err := s.categoryRepo.FindByName(name)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if existing != nil {
			logger.Warn("Category update failed: name already exists", map[string]interface{}{
				"category_id": id,
				"name":        name,
			})
			return nil, ErrCategoryAlreadyExists
		}
		category.Name = name
	}
	if description != "" {
		category.Description = description
	}

	if err := s.categoryRepo.Update(category); err != nil {
		logger.Error("Failed to update category", err, map[string]interface{}{
			"category_id": id,
		})
		return nil, err
	}

	logger.Info("Category updated successfully", map[string]interface{}{
		"category_id": id,
	})
	return category, nil
}

func (s *categoryService) DeleteCategory(id uint) error {
	logger.Info("Deleting category", map[string]interface{}{
		"category_id": id,
	})

	if _, err := s.GetCategoryByID(id); err != nil {
		return err
	}

	if err := s.categoryRepo.Delete(id); err != nil {
		logger.Error("Failed to delete category", err, map[string]interface{}{
			"category_id": id,
		})
		return err
	}

	logger.Info("Category deleted successfully", map[string]interface{}{
		"category_id": id,
	})
	return nil
}
