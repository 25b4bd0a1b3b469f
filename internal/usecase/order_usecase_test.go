package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckout_CreatesOrderAndClearsCart(t *testing.T) {
	store := newMemStore()
	store.addProduct(1, "keyboard", 599_99, 10, true)
	store.addProduct(2, "mouse", 149_50, 4, true)
	store.setCart(7, map[int64]int64{1: 2, 2: 1})

	uc, _ := newOrderFixture(store)

	order, err := uc.Checkout(context.Background(), domain.NewIdentity(7, domain.RoleUser))
	require.NoError(t, err)
	require.NotNil(t, order)

	assert.Equal(t, domain.StatusPending, order.Status)
	assert.Equal(t, int64(7), order.UserID)
	assert.EqualValues(t, 2*599_99+149_50, order.Total)
	assert.Len(t, order.Items, 2)
	assert.NotEmpty(t, order.OrderNumber)

	// Остатки списаны, корзина пуста
	assert.EqualValues(t, 8, store.products[1].stock)
	assert.EqualValues(t, 3, store.products[2].stock)
	assert.Empty(t, store.carts[7])

	// Событие записано в той же транзакции
	require.Len(t, store.events, 1)
	assert.Equal(t, EventOrderCreated, store.events[0].EventType)
	assert.Equal(t, order.ID, store.events[0].OrderID)
}

func TestCheckout_EmptyCart(t *testing.T) {
	store := newMemStore()
	store.setCart(7, map[int64]int64{})

	uc, _ := newOrderFixture(store)

	_, err := uc.Checkout(context.Background(), domain.NewIdentity(7, domain.RoleUser))
	assert.ErrorIs(t, err, e.ErrEmptyCart)
	assert.Empty(t, store.orders)
	assert.Empty(t, store.events)
}

func TestCheckout_InsufficientStockRollsBackEverything(t *testing.T) {
	store := newMemStore()
	store.addProduct(1, "keyboard", 100_00, 10, true)
	store.addProduct(2, "monitor", 300_00, 1, true)
	store.setCart(7, map[int64]int64{1: 2, 2: 5})

	uc, _ := newOrderFixture(store)

	_, err := uc.Checkout(context.Background(), domain.NewIdentity(7, domain.RoleUser))

	var stockErr *e.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Len(t, stockErr.Items, 1)
	assert.EqualValues(t, 2, stockErr.Items[0].ProductID)
	assert.EqualValues(t, 5, stockErr.Items[0].Requested)
	assert.EqualValues(t, 1, stockErr.Items[0].Available)

	// Ничего не изменилось: ни заказа, ни списаний, ни событий, корзина цела
	assert.Empty(t, store.orders)
	assert.Empty(t, store.events)
	assert.EqualValues(t, 10, store.products[1].stock)
	assert.EqualValues(t, 1, store.products[2].stock)
	assert.Len(t, store.carts[7], 2)
}

func TestCheckout_ReportsAllShortagesAtOnce(t *testing.T) {
	store := newMemStore()
	store.addProduct(1, "keyboard", 100_00, 1, true)
	store.addProduct(2, "monitor", 300_00, 2, true)
	store.setCart(7, map[int64]int64{1: 3, 2: 4})

	uc, _ := newOrderFixture(store)

	_, err := uc.Checkout(context.Background(), domain.NewIdentity(7, domain.RoleUser))

	var stockErr *e.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Len(t, stockErr.Items, 2)
}

func TestCheckout_InactiveProduct(t *testing.T) {
	store := newMemStore()
	store.addProduct(1, "discontinued", 100_00, 10, false)
	store.setCart(7, map[int64]int64{1: 1})

	uc, _ := newOrderFixture(store)

	_, err := uc.Checkout(context.Background(), domain.NewIdentity(7, domain.RoleUser))
	assert.ErrorIs(t, err, e.ErrProductInactive)
	assert.EqualValues(t, 10, store.products[1].stock)
}

func TestCheckout_RetriesOnOrderNumberCollision(t *testing.T) {
	store := newMemStore()
	store.addProduct(1, "keyboard", 100_00, 5, true)
	store.setCart(7, map[int64]int64{1: 1})

	uc, orderRepo := newOrderFixture(store)
	orderRepo.collisions = 2

	order, err := uc.Checkout(context.Background(), domain.NewIdentity(7, domain.RoleUser))
	require.NoError(t, err)
	require.NotNil(t, order)

	// Ровно одно списание несмотря на повторы
	assert.EqualValues(t, 4, store.products[1].stock)
	assert.Len(t, store.orders, 1)
	assert.Len(t, store.events, 1)
}

func TestCheckout_GivesUpAfterRepeatedCollisions(t *testing.T) {
	store := newMemStore()
	store.addProduct(1, "keyboard", 100_00, 5, true)
	store.setCart(7, map[int64]int64{1: 1})

	uc, orderRepo := newOrderFixture(store)
	orderRepo.collisions = 10

	_, err := uc.Checkout(context.Background(), domain.NewIdentity(7, domain.RoleUser))
	assert.ErrorIs(t, err, e.ErrOrderNumberCollision)
	assert.EqualValues(t, 5, store.products[1].stock)
	assert.Empty(t, store.orders)
}

func TestCheckout_ConcurrentBuyersNeverOversell(t *testing.T) {
	store := newMemStore()
	store.addProduct(1, "limited", 100_00, 5, true)
	store.setCart(1, map[int64]int64{1: 3})
	store.setCart(2, map[int64]int64{1: 3})

	uc, _ := newOrderFixture(store)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, userID := range []int64{1, 2} {
		i, userID := i, userID
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = uc.Checkout(context.Background(), domain.NewIdentity(userID, domain.RoleUser))
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			var stockErr *e.InsufficientStockError
			assert.ErrorAs(t, err, &stockErr)
		}
	}

	assert.Equal(t, 1, succeeded)
	assert.EqualValues(t, 2, store.products[1].stock)
	assert.GreaterOrEqual(t, store.products[1].stock, int64(0))
	assert.Len(t, store.orders, 1)
}

func TestCheckout_FreezesPriceAtPurchaseTime(t *testing.T) {
	store := newMemStore()
	store.addProduct(1, "keyboard", 100_00, 5, true)
	store.setCart(7, map[int64]int64{1: 1})

	uc, _ := newOrderFixture(store)

	order, err := uc.Checkout(context.Background(), domain.NewIdentity(7, domain.RoleUser))
	require.NoError(t, err)

	// Последующее изменение цены товара не трогает позиции заказа
	store.products[1].price = 999_99

	stored := store.orders[order.ID]
	require.Len(t, stored.Items, 1)
	assert.EqualValues(t, 100_00, stored.Items[0].Price)
	assert.EqualValues(t, 100_00, stored.Total)
}

func checkoutOrder(t *testing.T, uc *OrderUseCase, store *memStore, userID int64) *domain.Order {
	t.Helper()
	order, err := uc.Checkout(context.Background(), domain.NewIdentity(userID, domain.RoleUser))
	require.NoError(t, err)
	return order
}

func TestCancel_RestoresStock(t *testing.T) {
	store := newMemStore()
	store.addProduct(1, "keyboard", 100_00, 5, true)
	store.setCart(7, map[int64]int64{1: 3})

	uc, _ := newOrderFixture(store)
	order := checkoutOrder(t, uc, store, 7)
	require.EqualValues(t, 2, store.products[1].stock)

	cancelled, err := uc.Cancel(context.Background(), domain.NewIdentity(7, domain.RoleUser), order.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	assert.EqualValues(t, 5, store.products[1].stock)
	assert.True(t, cancelled.UpdatedAt.After(order.UpdatedAt))

	// Событие отмены добавилось к событию создания
	require.Len(t, store.events, 2)
	assert.Equal(t, EventOrderCancelled, store.events[1].EventType)
}

func TestCancel_SecondAttemptFails(t *testing.T) {
	store := newMemStore()
	store.addProduct(1, "keyboard", 100_00, 5, true)
	store.setCart(7, map[int64]int64{1: 3})

	uc, _ := newOrderFixture(store)
	order := checkoutOrder(t, uc, store, 7)

	_, err := uc.Cancel(context.Background(), domain.NewIdentity(7, domain.RoleUser), order.ID)
	require.NoError(t, err)

	_, err = uc.Cancel(context.Background(), domain.NewIdentity(7, domain.RoleUser), order.ID)
	var transitionErr *e.StateTransitionError
	require.ErrorAs(t, err, &transitionErr)

	// Возврат остатков произошёл ровно один раз
	assert.EqualValues(t, 5, store.products[1].stock)
}

func TestCancel_ForbiddenForOtherUser(t *testing.T) {
	store := newMemStore()
	store.addProduct(1, "keyboard", 100_00, 5, true)
	store.setCart(7, map[int64]int64{1: 1})

	uc, _ := newOrderFixture(store)
	order := checkoutOrder(t, uc, store, 7)

	_, err := uc.Cancel(context.Background(), domain.NewIdentity(8, domain.RoleUser), order.ID)
	assert.ErrorIs(t, err, e.ErrForbidden)
	assert.Equal(t, domain.StatusPending, store.orders[order.ID].Status)
}

func TestCancel_AdminMayCancelAnyOrder(t *testing.T) {
	store := newMemStore()
	store.addProduct(1, "keyboard", 100_00, 5, true)
	store.setCart(7, map[int64]int64{1: 2})

	uc, _ := newOrderFixture(store)
	order := checkoutOrder(t, uc, store, 7)

	cancelled, err := uc.Cancel(context.Background(), domain.NewIdentity(99, domain.RoleAdmin), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	assert.EqualValues(t, 5, store.products[1].stock)
}

func TestCancel_DeliveredOrderCannotBeCancelled(t *testing.T) {
	store := newMemStore()
	store.addProduct(1, "keyboard", 100_00, 5, true)
	store.setCart(7, map[int64]int64{1: 1})

	uc, _ := newOrderFixture(store)
	order := checkoutOrder(t, uc, store, 7)
	store.orders[order.ID].Status = domain.StatusDelivered

	_, err := uc.Cancel(context.Background(), domain.NewIdentity(7, domain.RoleUser), order.ID)

	var transitionErr *e.StateTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, string(domain.StatusDelivered), transitionErr.From)
	assert.EqualValues(t, 4, store.products[1].stock)
}

func TestUpdateStatus_RequiresAdmin(t *testing.T) {
	store := newMemStore()
	uc, _ := newOrderFixture(store)

	_, err := uc.UpdateStatus(context.Background(), domain.NewIdentity(7, domain.RoleUser), 1, domain.StatusShipped)
	assert.ErrorIs(t, err, e.ErrForbidden)
}

func TestUpdateStatus_ValidTransition(t *testing.T) {
	store := newMemStore()
	store.addProduct(1, "keyboard", 100_00, 5, true)
	store.setCart(7, map[int64]int64{1: 1})

	uc, _ := newOrderFixture(store)
	order := checkoutOrder(t, uc, store, 7)

	updated, err := uc.UpdateStatus(context.Background(), domain.NewIdentity(99, domain.RoleAdmin), order.ID, domain.StatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, updated.Status)

	require.Len(t, store.events, 2)
	assert.Equal(t, EventOrderStatusChanged, store.events[1].EventType)
}

func TestUpdateStatus_KeepsOrderItems(t *testing.T) {
	store := newMemStore()
	store.addProduct(1, "keyboard", 100_00, 5, true)
	store.setCart(7, map[int64]int64{1: 2})

	uc, _ := newOrderFixture(store)
	order := checkoutOrder(t, uc, store, 7)

	updated, err := uc.UpdateStatus(context.Background(), domain.NewIdentity(99, domain.RoleAdmin), order.ID, domain.StatusProcessing)
	require.NoError(t, err)

	// Репозиторий возвращает заказ без позиций, usecase обязан их вернуть
	require.Len(t, updated.Items, 1)
	assert.Equal(t, int64(1), updated.Items[0].ProductID)
	assert.EqualValues(t, 2, updated.Items[0].Quantity)
}

func TestUpdateStatus_BumpsUpdatedAt(t *testing.T) {
	store := newMemStore()
	store.addProduct(1, "keyboard", 100_00, 5, true)
	store.setCart(7, map[int64]int64{1: 1})

	uc, _ := newOrderFixture(store)
	order := checkoutOrder(t, uc, store, 7)

	updated, err := uc.UpdateStatus(context.Background(), domain.NewIdentity(99, domain.RoleAdmin), order.ID, domain.StatusShipped)
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.After(order.UpdatedAt))
}

func TestUpdateStatus_TerminalStatusRejectsTransitions(t *testing.T) {
	store := newMemStore()
	store.addProduct(1, "keyboard", 100_00, 5, true)
	store.setCart(7, map[int64]int64{1: 1})

	uc, _ := newOrderFixture(store)
	order := checkoutOrder(t, uc, store, 7)
	store.orders[order.ID].Status = domain.StatusDelivered

	_, err := uc.UpdateStatus(context.Background(), domain.NewIdentity(99, domain.RoleAdmin), order.ID, domain.StatusProcessing)

	var transitionErr *e.StateTransitionError
	assert.ErrorAs(t, err, &transitionErr)
}

func TestUpdateStatus_ToCancelledCompensatesStock(t *testing.T) {
	store := newMemStore()
	store.addProduct(1, "keyboard", 100_00, 5, true)
	store.setCart(7, map[int64]int64{1: 2})

	uc, _ := newOrderFixture(store)
	order := checkoutOrder(t, uc, store, 7)

	_, err := uc.UpdateStatus(context.Background(), domain.NewIdentity(99, domain.RoleAdmin), order.ID, domain.StatusProcessing)
	require.NoError(t, err)

	cancelled, err := uc.UpdateStatus(context.Background(), domain.NewIdentity(99, domain.RoleAdmin), order.ID, domain.StatusCancelled)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	assert.EqualValues(t, 5, store.products[1].stock)
	assert.Equal(t, EventOrderCancelled, store.events[len(store.events)-1].EventType)
}

func TestUpdateStatus_ShippedOrderCannotBeCancelled(t *testing.T) {
	store := newMemStore()
	store.addProduct(1, "keyboard", 100_00, 5, true)
	store.setCart(7, map[int64]int64{1: 2})

	uc, _ := newOrderFixture(store)
	order := checkoutOrder(t, uc, store, 7)
	store.orders[order.ID].Status = domain.StatusShipped

	_, err := uc.UpdateStatus(context.Background(), domain.NewIdentity(99, domain.RoleAdmin), order.ID, domain.StatusCancelled)

	var transitionErr *e.StateTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.EqualValues(t, 3, store.products[1].stock)
}

func TestGetOrder_HidesForeignOrders(t *testing.T) {
	store := newMemStore()
	store.addProduct(1, "keyboard", 100_00, 5, true)
	store.setCart(7, map[int64]int64{1: 1})

	uc, _ := newOrderFixture(store)
	order := checkoutOrder(t, uc, store, 7)

	_, err := uc.GetOrder(context.Background(), domain.NewIdentity(8, domain.RoleUser), order.ID)
	assert.ErrorIs(t, err, e.ErrOrderNotFound)

	got, err := uc.GetOrder(context.Background(), domain.NewIdentity(7, domain.RoleUser), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	got, err = uc.GetOrder(context.Background(), domain.NewIdentity(99, domain.RoleAdmin), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
}

func TestListOrders_AdminSeesAll(t *testing.T) {
	store := newMemStore()
	store.addProduct(1, "keyboard", 100_00, 10, true)
	store.setCart(7, map[int64]int64{1: 1})
	store.setCart(8, map[int64]int64{1: 1})

	uc, _ := newOrderFixture(store)
	checkoutOrder(t, uc, store, 7)
	checkoutOrder(t, uc, store, 8)

	mine, err := uc.ListOrders(context.Background(), domain.NewIdentity(7, domain.RoleUser))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.EqualValues(t, 7, mine[0].UserID)

	all, err := uc.ListOrders(context.Background(), domain.NewIdentity(99, domain.RoleAdmin))
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
