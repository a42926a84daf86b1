package service

import (
	"errors"
	"time"

	"github.com/mercadotrucho/backend/internal/app/model"
	"github.com/mercadotrucho/backend/internal/app/repository"
	apperrors "github.com/mercadotrucho/backend/internal/errors"
	"github.com/mercadotrucho/backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrCartNotFound      = errors.New("cart not found")
	ErrCartItemNotFound  = errors.New("cart item not found")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrCartItemForbidden = errors.New("not authorized to modify this item")
)

// CartView is the derived read model returned by every cart operation.
// Unit price is the value captured when the line was created; stock,
// free-shipping and seller data are read live from the product at view
// time.
type CartView struct {
	ID         uint           `json:"id"`
	UserID     uint           `json:"user_id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	Items      []CartItemView `json:"items"`
	TotalItems int            `json:"total_items"`
	TotalPrice float64        `json:"total_price"`
}

type CartItemView struct {
	ID             uint    `json:"id"`
	ProductID      uint    `json:"product_id"`
	Title          string  `json:"title"`
	ImageURL       string  `json:"image_url,omitempty"`
	Quantity       int     `json:"quantity"`
	UnitPrice      float64 `json:"unit_price"`
	Stock          int     `json:"stock"`
	FreeShipping   bool    `json:"free_shipping"`
	SellerNickname string  `json:"seller_nickname,omitempty"`
	SellerRep      string  `json:"seller_reputation,omitempty"`
}

type CartService interface {
	GetCart(userID uint) (*CartView, error)
	AddItem(userID, productID uint, quantity int) (*CartView, error)
	UpdateItemQuantity(userID, itemID uint, quantity int) (*CartView, error)
	RemoveItem(userID, itemID uint) (*CartView, error)
	ClearCart(userID uint) error
}

type cartService struct {
	cartRepo repository.CartRepository
	userRepo repository.UserRepository
	db       *gorm.DB
}

func NewCartService(
	cartRepo repository.CartRepository,
	userRepo repository.UserRepository,
	db *gorm.DB,
) CartService {
	return &cartService{
		cartRepo: cartRepo,
		userRepo: userRepo,
		db:       db,
	}
}

// GetCart returns the user's cart, creating an empty one on first
// access. Creation is race-safe: a concurrent first access loses the
// insert on the carts.user_id unique index and re-reads the winner.
func (s *cartService) GetCart(userID uint) (*CartView, error) {
	logger.Debug("Fetching user cart", map[string]interface{}{
		"user_id": userID,
	})

	err := s.db.Transaction(func(tx *gorm.DB) error {
		_, err := s.getOrCreateCart(tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return s.loadView(userID)
}

func (s *cartService) AddItem(userID, productID uint, quantity int) (*CartView, error) {
	logger.Info("Adding item to cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	})

	if quantity <= 0 {
		logger.Warn("Cannot add to cart: non-positive quantity", map[string]interface{}{
			"user_id":  userID,
			"quantity": quantity,
		})
		return nil, ErrInvalidQuantity
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		cart, err := s.getOrCreateCart(tx, userID)
		if err != nil {
			return err
		}

		var product model.Product
		if err := tx.First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Warn("Cannot add to cart: product not found", map[string]interface{}{
					"user_id":    userID,
					"product_id": productID,
				})
				return ErrProductNotFound
			}
			logger.Error("Failed to fetch product for cart", err, map[string]interface{}{
				"product_id": productID,
			})
			return err
		}

		repo := s.cartRepo.WithTx(tx)

		existing, err := repo.FindItemByCartAndProduct(cart.ID, product.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("Failed to check existing cart item", err, map[string]interface{}{
				"cart_id":    cart.ID,
				"product_id": product.ID,
			})
			return err
		}

		if existing != nil {
			// Merge: sum quantities, keep the unit price captured on
			// first add.
			logger.Debug("Merging into existing cart item", map[string]interface{}{
				"cart_item_id": existing.ID,
				"old_qty":      existing.Quantity,
				"added_qty":    quantity,
			})
			existing.Quantity += quantity
			if err := repo.SaveItem(existing); err != nil {
				return err
			}
		} else {
			item := &model.CartItem{
				CartID:    cart.ID,
				ProductID: product.ID,
				Quantity:  quantity,
				UnitPrice: product.Price,
				AddedAt:   time.Now(),
			}
			// The insert runs under a savepoint: postgres aborts the
			// whole transaction after a failed statement, so recovering
			// from a unique violation needs a rollback point that keeps
			// the rest of the transaction usable.
			if err := tx.SavePoint("cart_item_insert").Error; err != nil {
				return err
			}
			if err := repo.CreateItem(item); err != nil {
				// A concurrent add for the same product won the
				// (cart_id, product_id) unique index; fold into it.
				if apperrors.IsUniqueViolation(err) {
					if rbErr := tx.RollbackTo("cart_item_insert").Error; rbErr != nil {
						return rbErr
					}
					racer, ferr := repo.FindItemByCartAndProduct(cart.ID, product.ID)
					if ferr != nil {
						return ferr
					}
					racer.Quantity += quantity
					if err := repo.SaveItem(racer); err != nil {
						return err
					}
				} else {
					return err
				}
			}
		}

		return s.touchCart(repo, cart)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Cart item added successfully", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	})
	return s.loadView(userID)
}

func (s *cartService) UpdateItemQuantity(userID, itemID uint, quantity int) (*CartView, error) {
	logger.Info("Updating cart item quantity", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": itemID,
		"quantity":     quantity,
	})

	if quantity <= 0 {
		logger.Warn("Cannot update cart item: non-positive quantity", map[string]interface{}{
			"user_id":  userID,
			"quantity": quantity,
		})
		return nil, ErrInvalidQuantity
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.cartRepo.WithTx(tx)

		item, err := s.findOwnedItem(repo, userID, itemID)
		if err != nil {
			return err
		}

		item.Quantity = quantity
		if err := repo.SaveItem(item); err != nil {
			return err
		}

		return s.touchCart(repo, &item.Cart)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Cart item updated successfully", map[string]interface{}{
		"cart_item_id": itemID,
	})
	return s.loadView(userID)
}

func (s *cartService) RemoveItem(userID, itemID uint) (*CartView, error) {
	logger.Info("Removing cart item", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": itemID,
	})

	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.cartRepo.WithTx(tx)

		item, err := s.findOwnedItem(repo, userID, itemID)
		if err != nil {
			return err
		}

		if err := repo.DeleteItem(item.ID); err != nil {
			return err
		}

		return s.touchCart(repo, &item.Cart)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Cart item removed", map[string]interface{}{
		"cart_item_id": itemID,
	})
	return s.loadView(userID)
}

// ClearCart requires an existing cart; unlike AddItem it never creates
// one.
func (s *cartService) ClearCart(userID uint) error {
	logger.Info("Clearing user cart", map[string]interface{}{
		"user_id": userID,
	})

	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.cartRepo.WithTx(tx)

		var cart model.Cart
		if err := tx.Where("user_id = ?", userID).First(&cart).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Warn("Cannot clear cart: cart not found", map[string]interface{}{
					"user_id": userID,
				})
				return ErrCartNotFound
			}
			return err
		}

		if err := repo.DeleteItemsByCartID(cart.ID); err != nil {
			return err
		}

		return s.touchCart(repo, &cart)
	})
	if err != nil {
		return err
	}

	logger.Info("User cart cleared", map[string]interface{}{
		"user_id": userID,
	})
	return nil
}

// getOrCreateCart is the race-safe half of the lazy-creation contract:
// the user must exist, and two concurrent first accesses must end up
// sharing one cart row.
func (s *cartService) getOrCreateCart(tx *gorm.DB, userID uint) (*model.Cart, error) {
	var cart model.Cart
	err := tx.Where("user_id = ?", userID).First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if _, err := s.userRepo.WithTx(tx).FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cannot access cart: user not found", map[string]interface{}{
				"user_id": userID,
			})
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// Savepoint so a lost insert race leaves the transaction usable on
	// postgres, which aborts it after any failed statement.
	if err := tx.SavePoint("cart_insert").Error; err != nil {
		return nil, err
	}
	cart = model.Cart{UserID: userID}
	if err := s.cartRepo.WithTx(tx).Create(&cart); err != nil {
		if apperrors.IsUniqueViolation(err) {
			// Lost the carts.user_id race; the other request's cart is
			// the cart.
			if rbErr := tx.RollbackTo("cart_insert").Error; rbErr != nil {
				return nil, rbErr
			}
			var winner model.Cart
			if ferr := tx.Where("user_id = ?", userID).First(&winner).Error; ferr != nil {
				return nil, ferr
			}
			return &winner, nil
		}
		return nil, err
	}

	logger.Info("Cart created lazily for user", map[string]interface{}{
		"cart_id": cart.ID,
		"user_id": userID,
	})
	return &cart, nil
}

// findOwnedItem resolves an item id and enforces ownership. A missing
// item is NotFound; an item in someone else's cart is always Forbidden,
// regardless of any other condition.
func (s *cartService) findOwnedItem(repo repository.CartRepository, userID, itemID uint) (*model.CartItem, error) {
	item, err := repo.FindItemByID(itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cart item not found", map[string]interface{}{
				"cart_item_id": itemID,
			})
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}

	if item.Cart.UserID != userID {
		logger.Warn("Cart item access denied: ownership mismatch", map[string]interface{}{
			"user_id":      userID,
			"cart_item_id": itemID,
			"owner_id":     item.Cart.UserID,
		})
		return nil, ErrCartItemForbidden
	}

	return item, nil
}

func (s *cartService) touchCart(repo repository.CartRepository, cart *model.Cart) error {
	cart.UpdatedAt = time.Now()
	return repo.Save(cart)
}

func (s *cartService) loadView(userID uint) (*CartView, error) {
	cart, err := s.cartRepo.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}
	return BuildCartView(cart), nil
}

// BuildCartView derives totals from the persisted lines:
// TotalItems = Σ quantity, TotalPrice = Σ (unit price × quantity).
// Product fields on each line come from the product as loaded now, not
// from the add-time snapshot.
func BuildCartView(cart *model.Cart) *CartView {
	view := &CartView{
		ID:        cart.ID,
		UserID:    cart.UserID,
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
		Items:     make([]CartItemView, 0, len(cart.Items)),
	}

	for i := range cart.Items {
		item := &cart.Items[i]
		itemView := CartItemView{
			ID:             item.ID,
			ProductID:      item.ProductID,
			Title:          item.Product.Title,
			ImageURL:       item.Product.MainImageURL(),
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			Stock:          item.Product.Stock,
			FreeShipping:   item.Product.FreeShipping,
			SellerNickname: item.Product.Seller.Nickname,
			SellerRep:      string(item.Product.Seller.Reputation),
		}
		view.Items = append(view.Items, itemView)
		view.TotalItems += item.Quantity
		view.TotalPrice += item.UnitPrice * float64(item.Quantity)
	}

	return view
}
