package repository

import (
	"testing"
	"time"

	"github.com/mercadotrucho/backend/internal/app/model"
	"github.com/mercadotrucho/backend/internal/db"
	apperrors "github.com/mercadotrucho/backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCartRepositoryTest(t *testing.T) (CartRepository, *gorm.DB, *model.User, *model.Product) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

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
	}
	require.NoError(t, testDB.Create(seller).Error)

	product := &model.Product{
		Title:     "Test Product",
		Price:     100,
		Condition: model.ConditionNew,
		Stock:     10,
		SellerID:  seller.ID,
	}
	require.NoError(t, testDB.Create(product).Error)

	return NewCartRepository(testDB), testDB, user, product
}

func TestCartRepository_OneCartPerUser(t *testing.T) {
	cartRepo, _, user, _ := setupCartRepositoryTest(t)

	require.NoError(t, cartRepo.Create(&model.Cart{UserID: user.ID}))

	// The unique index rejects a second cart for the same user
	err := cartRepo.Create(&model.Cart{UserID: user.ID})
	require.Error(t, err)
	assert.True(t, apperrors.IsUniqueViolation(err))
}

func TestCartRepository_OneLinePerProduct(t *testing.T) {
	cartRepo, _, user, product := setupCartRepositoryTest(t)

	cart := &model.Cart{UserID: user.ID}
	require.NoError(t, cartRepo.Create(cart))

	item := &model.CartItem{
		CartID:    cart.ID,
		ProductID: product.ID,
		Quantity:  1,
		UnitPrice: product.Price,
		AddedAt:   time.Now(),
	}
	require.NoError(t, cartRepo.CreateItem(item))

	dup := &model.CartItem{
		CartID:    cart.ID,
		ProductID: product.ID,
		Quantity:  3,
		UnitPrice: product.Price,
		AddedAt:   time.Now(),
	}
	err := cartRepo.CreateItem(dup)
	require.Error(t, err)
	assert.True(t, apperrors.IsUniqueViolation(err))
}

func TestCartRepository_FindByUserID_PreloadsItems(t *testing.T) {
	cartRepo, _, user, product := setupCartRepositoryTest(t)

	cart := &model.Cart{UserID: user.ID}
	require.NoError(t, cartRepo.Create(cart))
	require.NoError(t, cartRepo.CreateItem(&model.CartItem{
		CartID:    cart.ID,
		ProductID: product.ID,
		Quantity:  2,
		UnitPrice: product.Price,
		AddedAt:   time.Now(),
	}))

	found, err := cartRepo.FindByUserID(user.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Test Product", found.Items[0].Product.Title)
	assert.Equal(t, "seller1", found.Items[0].Product.Seller.Nickname)
}

func TestCartRepository_FindByUserID_NotFound(t *testing.T) {
	cartRepo, _, user, _ := setupCartRepositoryTest(t)

	_, err := cartRepo.FindByUserID(user.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCartRepository_DeleteItemsByCartID(t *testing.T) {
	cartRepo, testDB, user, product := setupCartRepositoryTest(t)

	cart := &model.Cart{UserID: user.ID}
	require.NoError(t, cartRepo.Create(cart))
	require.NoError(t, cartRepo.CreateItem(&model.CartItem{
		CartID:    cart.ID,
		ProductID: product.ID,
		Quantity:  2,
		UnitPrice: product.Price,
		AddedAt:   time.Now(),
	}))

	require.NoError(t, cartRepo.DeleteItemsByCartID(cart.ID))

	var count int64
	testDB.Model(&model.CartItem{}).Where("cart_id = ?", cart.ID).Count(&count)
	assert.Zero(t, count)
}

func TestCartRepository_WithTx_RollsBack(t *testing.T) {
	cartRepo, testDB, user, _ := setupCartRepositoryTest(t)

	err := testDB.Transaction(func(tx *gorm.DB) error {
		txRepo := cartRepo.WithTx(tx)
		if err := txRepo.Create(&model.Cart{UserID: user.ID}); err != nil {
			return err
		}
		return gorm.ErrInvalidTransaction
	})
	require.Error(t, err)

	var count int64
	testDB.Model(&model.Cart{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Zero(t, count)
}
