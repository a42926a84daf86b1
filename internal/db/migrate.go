package db

import (
	"github.com/mercadotrucho/backend/internal/app/model"
	"github.com/mercadotrucho/backend/pkg/logger"
)

// Migrate runs database migrations
func Migrate() error {
	logger.Info("Running database migrations...")

	models := []interface{}{
		&model.User{},
		&model.Category{},
		&model.Product{},
		&model.ProductImage{},
		&model.Cart{},
		&model.CartItem{},
		&model.Favorite{},
	}

	if err := DB.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	if err := seedInitialData(); err != nil {
		logger.Error("Failed to seed initial data during migration", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// Seed adds initial data to the database (optional)
func Seed() error {
	return seedInitialData()
}

func seedInitialData() error {
	logger.Info("Seeding initial data...")

	if err := seedCategories(); err != nil {
		logger.Error("Failed to seed categories", err)
		return err
	}

	logger.Info("Initial data seeded successfully")
	return nil
}

// seedCategories creates the default category tree used by product
// listings and filters. Skipped when categories already exist.
func seedCategories() error {
	var count int64
	if err := DB.Model(&model.Category{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		logger.Info("Categories already seeded, skipping...", map[string]interface{}{
			"existing_count": count,
		})
		return nil
	}

	logger.Info("Seeding category data...")

	categories := []model.Category{
		{Name: "Electronics", Description: "Phones, computers, audio and accessories"},
		{Name: "Home & Garden", Description: "Furniture, appliances and decor"},
		{Name: "Fashion", Description: "Clothing, footwear and accessories"},
		{Name: "Sports", Description: "Equipment, apparel and outdoor gear"},
		{Name: "Vehicles", Description: "Parts and accessories for cars and motorcycles"},
		{Name: "Toys & Games", Description: "Toys, board games and consoles"},
		{Name: "Books & Music", Description: "Books, vinyl, instruments and media"},
		{Name: "Tools", Description: "Hand tools, power tools and construction"},
	}

	totalInserted := 0
	for _, category := range categories {
		if err := DB.Create(&category).Error; err != nil {
			logger.Error("Failed to create category", err, map[string]interface{}{
				"category": category.Name,
			})
			return err
		}
		totalInserted++
	}

	logger.Info("Categories seeded successfully", map[string]interface{}{
		"total_categories": totalInserted,
	})

	return nil
}
