package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/mercadotrucho/backend/config"
	"github.com/mercadotrucho/backend/internal/app/model"
	"github.com/mercadotrucho/backend/internal/app/repository"
	"github.com/mercadotrucho/backend/internal/db"
	"github.com/mercadotrucho/backend/pkg/util"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Imports a product catalog from an XLSX file. Expected columns:
// title, description, price, currency, condition, free_shipping,
// stock, location, category. Products are attached to a seed seller
// account created on first run.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path>")
	}

	filePath := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	productRepo := repository.NewProductRepository(db.GetDB())
	categoryRepo := repository.NewCategoryRepository(db.GetDB())

	seller, err := ensureSeedSeller(db.GetDB())
	if err != nil {
		log.Fatal("Failed to create seed seller:", err)
	}

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	products, skipped, err := readProductsFromXLSX(filePath, seller.ID, categoryRepo)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("Total products to import: %d (skipped %d invalid rows)\n", len(products), skipped)

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	batchSize := 500
	fmt.Printf("Starting bulk import with batch size: %d\n", batchSize)
	if err := productRepo.BulkCreate(products, batchSize); err != nil {
		log.Fatal("Failed to bulk create products:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Total products imported: %d\n", len(products))
}

// ensureSeedSeller returns the catalog seller account, creating it if
// this is the first import.
func ensureSeedSeller(gdb *gorm.DB) (*model.User, error) {
	var seller model.User
	err := gdb.Where("email = ?", "catalog@mercadotrucho.local").First(&seller).Error
	if err == nil {
		return &seller, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	hash, err := util.HashPassword("seed-only-account")
	if err != nil {
		return nil, err
	}

	seller = model.User{
		Email:        "catalog@mercadotrucho.local",
		PasswordHash: hash,
		FirstName:    "Catalog",
		LastName:     "Importer",
		Nickname:     "catalog_importer",
		Role:         model.RoleSeller,
	}
	if err := gdb.Create(&seller).Error; err != nil {
		return nil, err
	}
	fmt.Printf("Created seed seller account (id=%d)\n", seller.ID)
	return &seller, nil
}

func readProductsFromXLSX(filePath string, sellerID uint, categoryRepo repository.CategoryRepository) ([]model.Product, int, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, 0, fmt.Errorf("no sheets found in XLSX file")
	}

	fmt.Printf("Reading sheet: %s\n", sheetName)

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read rows: %w", err)
	}

	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("no data found in XLSX file")
	}

	// Category names are resolved once and cached
	categoryCache := make(map[string]*uint)

	var products []model.Product
	skippedCount := 0

	for i, row := range rows {
		if i == 0 {
			fmt.Printf("Headers: %v\n", row)
			continue
		}

		if len(row) < 9 {
			skippedCount++
			continue
		}

		title := strings.TrimSpace(row[0])
		description := strings.TrimSpace(row[1])
		priceStr := strings.TrimSpace(row[2])
		currency := strings.TrimSpace(row[3])
		condition := strings.ToLower(strings.TrimSpace(row[4]))
		freeShipping := strings.EqualFold(strings.TrimSpace(row[5]), "true")
		stockStr := strings.TrimSpace(row[6])
		location := strings.TrimSpace(row[7])
		categoryName := strings.TrimSpace(row[8])

		if title == "" || priceStr == "" {
			skippedCount++
			continue
		}

		price, err := strconv.ParseFloat(priceStr, 64)
		if err != nil || price <= 0 {
			skippedCount++
			continue
		}

		stock, err := strconv.Atoi(stockStr)
		if err != nil || stock < 0 {
			stock = 0
		}

		if condition != string(model.ConditionNew) && condition != string(model.ConditionUsed) {
			condition = string(model.ConditionUsed)
		}
		if currency == "" {
			currency = "ARS"
		}

		categoryID, ok := categoryCache[categoryName]
		if !ok {
			categoryID = resolveCategory(categoryRepo, categoryName)
			categoryCache[categoryName] = categoryID
		}

		products = append(products, model.Product{
			Title:        title,
			Description:  description,
			Price:        price,
			Currency:     currency,
			Condition:    model.ProductCondition(condition),
			FreeShipping: freeShipping,
			Stock:        stock,
			Location:     location,
			CategoryID:   categoryID,
			SellerID:     sellerID,
		})
	}

	return products, skippedCount, nil
}

// resolveCategory maps a category name to its ID, creating the
// category when it does not exist yet. Unknown or empty names leave
// the product uncategorized.
func resolveCategory(categoryRepo repository.CategoryRepository, name string) *uint {
	if name == "" {
		return nil
	}

	category, err := categoryRepo.FindByName(name)
	if err == nil {
		return &category.ID
	}

	created := &model.Category{Name: name}
	if err := categoryRepo.Create(created); err != nil {
		fmt.Printf("Warning: could not create category %q, leaving products uncategorized\n", name)
		return nil
	}
	return &created.ID
}
