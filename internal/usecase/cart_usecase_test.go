package usecase

import (
	"context"
	"testing"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCartFixture(store *memStore) *CartUseCase {
	return NewCartUC(&fakeCartRepo{store: store}, &fakeProductRepo{store: store}, nopLogger{})
}

func TestGetCart_CreatesEmptyCartLazily(t *testing.T) {
	store := newMemStore()
	uc := newCartFixture(store)

	view, err := uc.GetCart(context.Background(), domain.NewIdentity(7, domain.RoleUser))
	require.NoError(t, err)

	assert.Empty(t, view.Items)
	assert.Zero(t, view.Subtotal)
	assert.NotNil(t, store.carts[7])
}

func TestGetCart_ComputesSubtotal(t *testing.T) {
	store := newMemStore()
	store.addProduct(1, "keyboard", 599_99, 10, true)
	store.addProduct(2, "mouse", 149_50, 4, true)
	store.setCart(7, map[int64]int64{1: 2, 2: 3})

	uc := newCartFixture(store)

	view, err := uc.GetCart(context.Background(), domain.NewIdentity(7, domain.RoleUser))
	require.NoError(t, err)

	assert.Len(t, view.Items, 2)
	assert.EqualValues(t, 2*599_99+3*149_50, view.Subtotal)
}

func TestAddItem_RejectsNonPositiveQuantity(t *testing.T) {
	store := newMemStore()
	store.addProduct(1, "keyboard", 100_00, 5, true)
	uc := newCartFixture(store)

	identity := domain.NewIdentity(7, domain.RoleUser)
	assert.ErrorIs(t, uc.AddItem(context.Background(), identity, 1, 0), e.ErrQuantityMustBePositive)
	assert.ErrorIs(t, uc.AddItem(context.Background(), identity, 1, -2), e.ErrQuantityMustBePositive)
}

func TestAddItem_UnknownProduct(t *testing.T) {
	store := newMemStore()
	uc := newCartFixture(store)

	err := uc.AddItem(context.Background(), domain.NewIdentity(7, domain.RoleUser), 42, 1)
	assert.ErrorIs(t, err, e.ErrProductNotFound)
}

func TestAddItem_InactiveProduct(t *testing.T) {
	store := newMemStore()
	store.addProduct(1, "discontinued", 100_00, 5, false)
	uc := newCartFixture(store)

	err := uc.AddItem(context.Background(), domain.NewIdentity(7, domain.RoleUser), 1, 1)
	assert.ErrorIs(t, err, e.ErrProductInactive)
}

func TestAddItem_AccumulatesQuantity(t *testing.T) {
	store := newMemStore()
	store.addProduct(1, "keyboard", 100_00, 5, true)
	uc := newCartFixture(store)

	identity := domain.NewIdentity(7, domain.RoleUser)
	require.NoError(t, uc.AddItem(context.Background(), identity, 1, 2))
	require.NoError(t, uc.AddItem(context.Background(), identity, 1, 3))

	assert.EqualValues(t, 5, store.carts[7][1])
}

func TestUpdateItem_SetsQuantity(t *testing.T) {
	store := newMemStore()
	store.addProduct(1, "keyboard", 100_00, 5, true)
	store.setCart(7, map[int64]int64{1: 2})
	uc := newCartFixture(store)

	require.NoError(t, uc.UpdateItem(context.Background(), domain.NewIdentity(7, domain.RoleUser), 1, 4))
	assert.EqualValues(t, 4, store.carts[7][1])
}

func TestUpdateItem_RejectsNonPositiveQuantity(t *testing.T) {
	store := newMemStore()
	store.setCart(7, map[int64]int64{1: 2})
	uc := newCartFixture(store)

	err := uc.UpdateItem(context.Background(), domain.NewIdentity(7, domain.RoleUser), 1, 0)
	assert.ErrorIs(t, err, e.ErrQuantityMustBePositive)
	assert.EqualValues(t, 2, store.carts[7][1])
}

func TestUpdateItem_MissingLine(t *testing.T) {
	store := newMemStore()
	store.setCart(7, map[int64]int64{})
	uc := newCartFixture(store)

	err := uc.UpdateItem(context.Background(), domain.NewIdentity(7, domain.RoleUser), 42, 1)
	assert.ErrorIs(t, err, e.ErrCartItemNotFound)
}

func TestRemoveItem(t *testing.T) {
	store := newMemStore()
	store.addProduct(1, "keyboard", 100_00, 5, true)
	store.setCart(7, map[int64]int64{1: 2})
	uc := newCartFixture(store)

	require.NoError(t, uc.RemoveItem(context.Background(), domain.NewIdentity(7, domain.RoleUser), 1))
	assert.Empty(t, store.carts[7])

	err := uc.RemoveItem(context.Background(), domain.NewIdentity(7, domain.RoleUser), 1)
	assert.ErrorIs(t, err, e.ErrCartItemNotFound)
}
