package service

import (
	"errors"
	"testing"
	"time"

	"github.com/mercadotrucho/backend/internal/app/model"
	"github.com/mercadotrucho/backend/internal/app/repository"
	"github.com/mercadotrucho/backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCartServiceTest(t *testing.T) (CartService, *gorm.DB, *model.User, *model.Product) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	cartRepo := repository.NewCartRepository(testDB)
	userRepo := repository.NewUserRepository(testDB)
	cartService := NewCartService(cartRepo, userRepo, testDB)

	user := &model.User{
		Email:        "buyer@example.com",
		PasswordHash: "hash",
		FirstName:    "Test",
		LastName:     "Buyer",
		Nickname:     "buyer1",
		Role:         model.RoleUser,
	}
	require.NoError(t, testDB.Create(user).Error)

	seller := &model.User{
		Email:        "seller@example.com",
		PasswordHash: "hash",
		FirstName:    "Test",
		LastName:     "Seller",
		Nickname:     "seller1",
		Role:         model.RoleSeller,
		Reputation:   model.ReputationGold,
	}
	require.NoError(t, testDB.Create(seller).Error)

	product := &model.Product{
		Title:        "Test Product",
		Price:        100,
		Currency:     "ARS",
		Condition:    model.ConditionNew,
		FreeShipping: true,
		Stock:        10,
		SellerID:     seller.ID,
	}
	require.NoError(t, testDB.Create(product).Error)

	return cartService, testDB, user, product
}

func TestCartService_GetCart_CreatesLazily(t *testing.T) {
	cartService, _, user, _ := setupCartServiceTest(t)

	cart, err := cartService.GetCart(user.ID)
	require.NoError(t, err)
	require.NotNil(t, cart)

	assert.NotZero(t, cart.ID)
	assert.Equal(t, user.ID, cart.UserID)
	assert.Empty(t, cart.Items)
	assert.Equal(t, 0, cart.TotalItems)
	assert.Equal(t, float64(0), cart.TotalPrice)

	// Second access returns the same cart instead of creating another
	again, err := cartService.GetCart(user.ID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, again.ID)
}

func TestCartService_GetCart_UserNotFound(t *testing.T) {
	cartService, _, _, _ := setupCartServiceTest(t)

	cart, err := cartService.GetCart(9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Nil(t, cart)
}

func TestCartService_AddItem_NewLine(t *testing.T) {
	cartService, _, user, product := setupCartServiceTest(t)

	cart, err := cartService.AddItem(user.ID, product.ID, 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)

	item := cart.Items[0]
	assert.Equal(t, product.ID, item.ProductID)
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, float64(100), item.UnitPrice)
	assert.Equal(t, 2, cart.TotalItems)
	assert.Equal(t, float64(200), cart.TotalPrice)
}

func TestCartService_AddItem_CreatesCartOnFirstAdd(t *testing.T) {
	cartService, testDB, user, product := setupCartServiceTest(t)

	var count int64
	testDB.Model(&model.Cart{}).Where("user_id = ?", user.ID).Count(&count)
	require.Zero(t, count)

	_, err := cartService.AddItem(user.ID, product.ID, 1)
	require.NoError(t, err)

	testDB.Model(&model.Cart{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCartService_AddItem_MergesQuantities(t *testing.T) {
	cartService, _, user, product := setupCartServiceTest(t)

	_, err := cartService.AddItem(user.ID, product.ID, 2)
	require.NoError(t, err)

	cart, err := cartService.AddItem(user.ID, product.ID, 3)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, 5, cart.TotalItems)
	assert.Equal(t, float64(500), cart.TotalPrice)
}

func TestCartService_AddItem_KeepsFirstAddPrice(t *testing.T) {
	cartService, testDB, user, product := setupCartServiceTest(t)

	_, err := cartService.AddItem(user.ID, product.ID, 2)
	require.NoError(t, err)

	// Catalog price changes after the line was created
	require.NoError(t, testDB.Model(product).Update("price", 150).Error)

	cart, err := cartService.AddItem(user.ID, product.ID, 3)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, float64(100), cart.Items[0].UnitPrice)
	assert.Equal(t, float64(500), cart.TotalPrice)
}

func TestCartService_AddItem_SnapshotsCurrentPriceForNewLine(t *testing.T) {
	cartService, testDB, user, product := setupCartServiceTest(t)

	require.NoError(t, testDB.Model(product).Update("price", 250).Error)

	cart, err := cartService.AddItem(user.ID, product.ID, 1)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, float64(250), cart.Items[0].UnitPrice)
}

func TestCartService_AddItem_InvalidQuantity(t *testing.T) {
	cartService, _, user, product := setupCartServiceTest(t)

	for _, quantity := range []int{0, -1, -10} {
		cart, err := cartService.AddItem(user.ID, product.ID, quantity)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
		assert.Nil(t, cart)
	}
}

func TestCartService_AddItem_ProductNotFound(t *testing.T) {
	cartService, _, user, _ := setupCartServiceTest(t)

	cart, err := cartService.AddItem(user.ID, 9999, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Nil(t, cart)
}

func TestCartService_AddItem_UserNotFound(t *testing.T) {
	cartService, _, _, product := setupCartServiceTest(t)

	cart, err := cartService.AddItem(9999, product.ID, 1)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Nil(t, cart)
}

func TestCartService_ViewReflectsLiveProductFields(t *testing.T) {
	cartService, testDB, user, product := setupCartServiceTest(t)

	_, err := cartService.AddItem(user.ID, product.ID, 1)
	require.NoError(t, err)

	// Stock and shipping change; price stays frozen in the line
	require.NoError(t, testDB.Model(product).Updates(map[string]interface{}{
		"stock":         3,
		"free_shipping": false,
		"price":         999,
	}).Error)

	cart, err := cartService.GetCart(user.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)

	item := cart.Items[0]
	assert.Equal(t, 3, item.Stock)
	assert.False(t, item.FreeShipping)
	assert.Equal(t, float64(100), item.UnitPrice)
	assert.Equal(t, "seller1", item.SellerNickname)
}

func TestCartService_UpdateItemQuantity_Success(t *testing.T) {
	cartService, _, user, product := setupCartServiceTest(t)

	cart, err := cartService.AddItem(user.ID, product.ID, 2)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	updated, err := cartService.UpdateItemQuantity(user.ID, itemID, 5)
	require.NoError(t, err)

	require.Len(t, updated.Items, 1)
	assert.Equal(t, 5, updated.Items[0].Quantity)
	assert.Equal(t, float64(500), updated.TotalPrice)
}

func TestCartService_UpdateItemQuantity_InvalidQuantity(t *testing.T) {
	cartService, _, user, product := setupCartServiceTest(t)

	cart, err := cartService.AddItem(user.ID, product.ID, 2)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	updated, err := cartService.UpdateItemQuantity(user.ID, itemID, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Nil(t, updated)

	// Quantity unchanged after the rejected update
	current, err := cartService.GetCart(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, current.Items[0].Quantity)
}

func TestCartService_UpdateItemQuantity_NotFound(t *testing.T) {
	cartService, _, user, _ := setupCartServiceTest(t)

	updated, err := cartService.UpdateItemQuantity(user.ID, 9999, 5)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
	assert.Nil(t, updated)
}

func TestCartService_UpdateItemQuantity_ForeignItem(t *testing.T) {
	cartService, testDB, user, product := setupCartServiceTest(t)

	cart, err := cartService.AddItem(user.ID, product.ID, 2)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	other := &model.User{
		Email:        "other@example.com",
		PasswordHash: "hash",
		FirstName:    "Other",
		LastName:     "User",
		Nickname:     "other1",
		Role:         model.RoleUser,
	}
	require.NoError(t, testDB.Create(other).Error)

	updated, err := cartService.UpdateItemQuantity(other.ID, itemID, 5)
	assert.ErrorIs(t, err, ErrCartItemForbidden)
	assert.Nil(t, updated)

	// Owner's line untouched
	current, err := cartService.GetCart(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, current.Items[0].Quantity)
}

func TestCartService_RemoveItem_Success(t *testing.T) {
	cartService, _, user, product := setupCartServiceTest(t)

	cart, err := cartService.AddItem(user.ID, product.ID, 2)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	updated, err := cartService.RemoveItem(user.ID, itemID)
	require.NoError(t, err)

	assert.Empty(t, updated.Items)
	assert.Equal(t, 0, updated.TotalItems)
	assert.Equal(t, float64(0), updated.TotalPrice)
}

func TestCartService_RemoveItem_ThenReAdd(t *testing.T) {
	cartService, testDB, user, product := setupCartServiceTest(t)

	cart, err := cartService.AddItem(user.ID, product.ID, 2)
	require.NoError(t, err)

	_, err = cartService.RemoveItem(user.ID, cart.Items[0].ID)
	require.NoError(t, err)

	// Re-adding after removal takes a fresh price snapshot
	require.NoError(t, testDB.Model(product).Update("price", 300).Error)

	again, err := cartService.AddItem(user.ID, product.ID, 1)
	require.NoError(t, err)
	require.Len(t, again.Items, 1)
	assert.Equal(t, float64(300), again.Items[0].UnitPrice)
}

func TestCartService_RemoveItem_NotFound(t *testing.T) {
	cartService, _, user, _ := setupCartServiceTest(t)

	updated, err := cartService.RemoveItem(user.ID, 9999)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
	assert.Nil(t, updated)
}

func TestCartService_RemoveItem_ForeignItem(t *testing.T) {
	cartService, testDB, user, product := setupCartServiceTest(t)

	cart, err := cartService.AddItem(user.ID, product.ID, 2)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	other := &model.User{
		Email:        "other@example.com",
		PasswordHash: "hash",
		FirstName:    "Other",
		LastName:     "User",
		Nickname:     "other2",
		Role:         model.RoleUser,
	}
	require.NoError(t, testDB.Create(other).Error)

	updated, err := cartService.RemoveItem(other.ID, itemID)
	assert.ErrorIs(t, err, ErrCartItemForbidden)
	assert.Nil(t, updated)
}

func TestCartService_ClearCart_Success(t *testing.T) {
	cartService, _, user, product := setupCartServiceTest(t)

	_, err := cartService.AddItem(user.ID, product.ID, 2)
	require.NoError(t, err)

	require.NoError(t, cartService.ClearCart(user.ID))

	cart, err := cartService.GetCart(user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Equal(t, 0, cart.TotalItems)
}

func TestCartService_ClearCart_NoCart(t *testing.T) {
	cartService, _, user, _ := setupCartServiceTest(t)

	// Clearing never creates a cart; without one it fails
	err := cartService.ClearCart(user.ID)
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestCartService_MultipleProducts_Totals(t *testing.T) {
	cartService, testDB, user, product := setupCartServiceTest(t)

	second := &model.Product{
		Title:     "Second Product",
		Price:     50,
		Currency:  "ARS",
		Condition: model.ConditionUsed,
		Stock:     5,
		SellerID:  product.SellerID,
	}
	require.NoError(t, testDB.Create(second).Error)

	_, err := cartService.AddItem(user.ID, product.ID, 2)
	require.NoError(t, err)

	cart, err := cartService.AddItem(user.ID, second.ID, 3)
	require.NoError(t, err)

	require.Len(t, cart.Items, 2)
	assert.Equal(t, 5, cart.TotalItems)
	assert.Equal(t, float64(350), cart.TotalPrice) // 2*100 + 3*50
}

// lostItemInsertCartRepo makes AddItem lose the (cart_id, product_id)
// insert race: the first not-found line lookup inserts the competing
// line within the same transaction, so the following insert hits the
// unique index and AddItem has to recover by folding into the winner.
type lostItemInsertCartRepo struct {
	repository.CartRepository
	raced *bool
}

func (r *lostItemInsertCartRepo) WithTx(tx *gorm.DB) repository.CartRepository {
	return &lostItemInsertCartRepo{
		CartRepository: r.CartRepository.WithTx(tx),
		raced:          r.raced,
	}
}

func (r *lostItemInsertCartRepo) FindItemByCartAndProduct(cartID, productID uint) (*model.CartItem, error) {
	item, err := r.CartRepository.FindItemByCartAndProduct(cartID, productID)
	if err == nil || !errors.Is(err, gorm.ErrRecordNotFound) || *r.raced {
		return item, err
	}

	*r.raced = true
	winner := &model.CartItem{
		CartID:    cartID,
		ProductID: productID,
		Quantity:  1,
		UnitPrice: 100,
		AddedAt:   time.Now(),
	}
	if cerr := r.CartRepository.CreateItem(winner); cerr != nil {
		return nil, cerr
	}
	return nil, gorm.ErrRecordNotFound
}

func TestCartService_AddItem_FoldsIntoConcurrentLine(t *testing.T) {
	_, testDB, user, product := setupCartServiceTest(t)

	raced := false
	cartRepo := &lostItemInsertCartRepo{
		CartRepository: repository.NewCartRepository(testDB),
		raced:          &raced,
	}
	cartService := NewCartService(cartRepo, repository.NewUserRepository(testDB), testDB)

	cart, err := cartService.AddItem(user.ID, product.ID, 2)
	require.NoError(t, err)
	require.True(t, raced)

	// One merged line: the winner's quantity plus ours, winner's price
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, float64(100), cart.Items[0].UnitPrice)
	assert.Equal(t, 3, cart.TotalItems)
	assert.Equal(t, float64(300), cart.TotalPrice)

	var count int64
	testDB.Model(&model.CartItem{}).Where("cart_id = ?", cart.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

// lostCartInsertUserRepo makes getOrCreateCart lose the carts.user_id
// insert race: the in-transaction user lookup is the window in which a
// competing request creates the cart first.
type lostCartInsertUserRepo struct {
	repository.UserRepository
	tx       *gorm.DB
	raced    *bool
	winnerID *uint
}

func (r *lostCartInsertUserRepo) WithTx(tx *gorm.DB) repository.UserRepository {
	return &lostCartInsertUserRepo{
		UserRepository: r.UserRepository.WithTx(tx),
		tx:             tx,
		raced:          r.raced,
		winnerID:       r.winnerID,
	}
}

func (r *lostCartInsertUserRepo) FindByID(id uint) (*model.User, error) {
	user, err := r.UserRepository.FindByID(id)
	if err != nil || *r.raced || r.tx == nil {
		return user, err
	}

	*r.raced = true
	winner := model.Cart{UserID: id}
	if cerr := r.tx.Create(&winner).Error; cerr != nil {
		return nil, cerr
	}
	*r.winnerID = winner.ID
	return user, nil
}

func TestCartService_GetCart_AdoptsConcurrentlyCreatedCart(t *testing.T) {
	_, testDB, user, _ := setupCartServiceTest(t)

	raced := false
	var winnerID uint
	userRepo := &lostCartInsertUserRepo{
		UserRepository: repository.NewUserRepository(testDB),
		raced:          &raced,
		winnerID:       &winnerID,
	}
	cartService := NewCartService(repository.NewCartRepository(testDB), userRepo, testDB)

	cart, err := cartService.GetCart(user.ID)
	require.NoError(t, err)
	require.True(t, raced)

	// The competing cart is adopted, not duplicated
	assert.Equal(t, winnerID, cart.ID)

	var count int64
	testDB.Model(&model.Cart{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}
