package repository

import (
	"github.com/mercadotrucho/backend/internal/app/model"
	"github.com/mercadotrucho/backend/pkg/logger"
	"gorm.io/gorm"
)

type CartRepository interface {
	// WithTx returns a repository bound to the given transaction so a
	// compound read-then-write sequence runs as one atomic unit.
	WithTx(tx *gorm.DB) CartRepository

	FindByUserID(userID uint) (*model.Cart, error)
	Create(cart *model.Cart) error
	Save(cart *model.Cart) error

	FindItemByID(id uint) (*model.CartItem, error)
	FindItemByCartAndProduct(cartID, productID uint) (*model.CartItem, error)
	CreateItem(item *model.CartItem) error
	SaveItem(item *model.CartItem) error
	DeleteItem(id uint) error
	DeleteItemsByCartID(cartID uint) error
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) WithTx(tx *gorm.DB) CartRepository {
	return &cartRepository{db: tx}
}

// cartPreloads loads everything the cart view needs in one pass, so the
// service never reaches back into the session after the query returns.
func (r *cartRepository) cartPreloads() *gorm.DB {
	return r.db.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("cart_items.id ASC")
		}).
		Preload("Items.Product").
		Preload("Items.Product.Seller").
		Preload("Items.Product.Images")
}

func (r *cartRepository) FindByUserID(userID uint) (*model.Cart, error) {
	logger.Debug("Finding cart by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var cart model.Cart
	err := r.cartPreloads().Where("user_id = ?", userID).First(&cart).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find cart by user ID in database", err, map[string]interface{}{
				"user_id": userID,
			})
		}
		return nil, err
	}

	logger.Debug("Cart found by user ID in database", map[string]interface{}{
		"cart_id":    cart.ID,
		"user_id":    userID,
		"item_count": len(cart.Items),
	})
	return &cart, nil
}

func (r *cartRepository) Create(cart *model.Cart) error {
	logger.Debug("Creating cart in database", map[string]interface{}{
		"user_id": cart.UserID,
	})

	if err := r.db.Create(cart).Error; err != nil {
		logger.Error("Failed to create cart in database", err, map[string]interface{}{
			"user_id": cart.UserID,
		})
		return err
	}

	logger.Debug("Cart created in database", map[string]interface{}{
		"cart_id": cart.ID,
		"user_id": cart.UserID,
	})
	return nil
}

func (r *cartRepository) Save(cart *model.Cart) error {
	if err := r.db.Omit("Items", "User").Save(cart).Error; err != nil {
		logger.Error("Failed to save cart in database", err, map[string]interface{}{
			"cart_id": cart.ID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) FindItemByID(id uint) (*model.CartItem, error) {
	logger.Debug("Finding cart item by ID in database", map[string]interface{}{
		"cart_item_id": id,
	})

	var item model.CartItem
	err := r.db.Preload("Cart").First(&item, id).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find cart item by ID in database", err, map[string]interface{}{
				"cart_item_id": id,
			})
		}
		return nil, err
	}

	return &item, nil
}

func (r *cartRepository) FindItemByCartAndProduct(cartID, productID uint) (*model.CartItem, error) {
	var item model.CartItem
	err := r.db.
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepository) CreateItem(item *model.CartItem) error {
	logger.Debug("Creating cart item in database", map[string]interface{}{
		"cart_id":    item.CartID,
		"product_id": item.ProductID,
		"quantity":   item.Quantity,
	})

	if err := r.db.Create(item).Error; err != nil {
		logger.Error("Failed to create cart item in database", err, map[string]interface{}{
			"cart_id":    item.CartID,
			"product_id": item.ProductID,
		})
		return err
	}

	logger.Debug("Cart item created in database", map[string]interface{}{
		"cart_item_id": item.ID,
		"cart_id":      item.CartID,
		"product_id":   item.ProductID,
	})
	return nil
}

func (r *cartRepository) SaveItem(item *model.CartItem) error {
	if err := r.db.Omit("Cart", "Product").Save(item).Error; err != nil {
		logger.Error("Failed to save cart item in database", err, map[string]interface{}{
			"cart_item_id": item.ID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) DeleteItem(id uint) error {
	logger.Debug("Deleting cart item from database", map[string]interface{}{
		"cart_item_id": id,
	})

	if err := r.db.Delete(&model.CartItem{}, id).Error; err != nil {
		logger.Error("Failed to delete cart item from database", err, map[string]interface{}{
			"cart_item_id": id,
		})
		return err
	}
	return nil
}

func (r *cartRepository) DeleteItemsByCartID(cartID uint) error {
	logger.Debug("Deleting cart items by cart ID from database", map[string]interface{}{
		"cart_id": cartID,
	})

	if err := r.db.Where("cart_id = ?", cartID).Delete(&model.CartItem{}).Error; err != nil {
		logger.Error("Failed to delete cart items by cart ID from database", err, map[string]interface{}{
			"cart_id": cartID,
		})
		return err
	}
	return nil
}
