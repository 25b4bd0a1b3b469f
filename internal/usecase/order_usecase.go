package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OrderUseCase реализует жизненный цикл заказа: оформление корзины,
// отмену с компенсацией остатков и административные переходы статусов.
// Каждая операция выполняется одной транзакцией БД.
type OrderUseCase struct {
	orderRepo   OrderRepository
	cartRepo    CartRepository
	productRepo ProductRepository
	outboxRepo  OutboxRepository
	dbPool      transaction.Transactional
	logger      logger.Logger
}

func NewOrderUC(
	orderRepo OrderRepository,
	cartRepo CartRepository,
	productRepo ProductRepository,
	outboxRepo OutboxRepository,
	dbPool transaction.Transactional,
	logger logger.Logger,
) *OrderUseCase {
	return &OrderUseCase{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		outboxRepo:  outboxRepo,
		dbPool:      dbPool,
		logger:      logger,
	}
}

// Checkout превращает корзину пользователя в заказ.
// Уникальность номера заказа гарантируется ограничением БД: при коллизии
// вся транзакция повторяется с новым номером.
func (o *OrderUseCase) Checkout(ctx context.Context, identity domain.Identity) (*domain.Order, error) {
	const maxAttempts = 3

	var (
		order *domain.Order
		err   error
	)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		order, err = o.checkout(ctx, identity)
		if errors.Is(err, e.ErrOrderNumberCollision) {
			o.logger.Warnf("order number collision, retrying checkout: user_id=%d attempt=%d", identity.UserID, attempt+1)
			continue
		}

		return order, err
	}

	return nil, err
}

// checkout выполняет одну транзакционную попытку оформления заказа:
// чтение корзины → проверка остатков → создание заказа → списание остатков →
// очистка корзины → запись события в outbox.
func (o *OrderUseCase) checkout(ctx context.Context, identity domain.Identity) (*domain.Order, error) {
	const op = "OrderUseCase.Checkout"

	var err error
	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, o.dbPool)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	lines, err := o.cartRepo.GetLines(ctx, identity.UserID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if len(lines) == 0 {
		err = e.ErrEmptyCart
		return nil, e.Wrap(op, err)
	}

	// Предварительная проверка по прочитанному слепку. Она даёт быстрый отказ
	// с перечислением всех проблемных позиций, но не является источником истины:
	// авторитетная проверка совмещена со списанием ниже.
	if err = validateLines(lines); err != nil {
		return nil, e.Wrap(op, err)
	}

	order, err := o.materializeOrder(ctx, identity.UserID, lines)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Авторитетное списание: условие stock >= quantity проверяется
	// непосредственно в момент записи, параллельное оформление того же
	// товара не может увести остаток ниже нуля.
	for _, line := range lines {
		var decremented bool
		decremented, err = o.productRepo.DecrementStock(ctx, line.ProductID, line.Quantity)
		if err != nil {
			return nil, e.Wrap(op, err)
		}

		if !decremented {
			available, stockErr := o.productRepo.GetAvailableStock(ctx, line.ProductID)
			if stockErr != nil {
				available = 0
			}

			err = e.NewInsufficientStockError([]e.InsufficientStockItem{
				{ProductID: line.ProductID, Requested: line.Quantity, Available: available},
			})
			return nil, e.Wrap(op, err)
		}
	}

	if err = o.cartRepo.Clear(ctx, identity.UserID); err != nil {
		return nil, e.Wrap(op, err)
	}

	if err = o.enqueueOrderEvent(ctx, EventOrderCreated, order); err != nil {
		return nil, e.Wrap(op, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, e.Wrap(op, err)
	}

	return order, nil
}

// Cancel отменяет заказ владельца или по воле администратора.
// Смена статуса и возврат остатков — одна атомарная единица.
func (o *OrderUseCase) Cancel(ctx context.Context, identity domain.Identity, orderID int64) (*domain.Order, error) {
	const op = "OrderUseCase.Cancel"

	var err error
	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, o.dbPool)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	order, err := o.orderRepo.GetByIDForUpdate(ctx, orderID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if !identity.CanAccessOrder(order.UserID) {
		err = e.ErrForbidden
		return nil, e.Wrap(op, err)
	}

	order, err = o.cancelLocked(ctx, order)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, e.Wrap(op, err)
	}

	return order, nil
}

// UpdateStatus выполняет административный переход статуса заказа.
// Перевод в CANCELLED идёт через общий путь отмены с компенсацией остатков.
func (o *OrderUseCase) UpdateStatus(ctx context.Context, identity domain.Identity, orderID int64, target domain.OrderStatus) (*domain.Order, error) {
	const op = "OrderUseCase.UpdateStatus"

	if !identity.IsAdmin() {
		return nil, e.Wrap(op, e.ErrForbidden)
	}

	var err error
	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, o.dbPool)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	order, err := o.orderRepo.GetByIDForUpdate(ctx, orderID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if !order.Status.CanTransitionTo(target) {
		err = e.NewStateTransitionError(string(order.Status), string(target))
		return nil, e.Wrap(op, err)
	}

	if target == domain.StatusCancelled {
		order, err = o.cancelLocked(ctx, order)
	} else {
		items := order.Items
		order, err = o.orderRepo.UpdateStatus(ctx, order.ID, target)
		if err == nil {
			// UpdateStatus не гидрирует позиции, подвешиваем загруженные ранее.
			order.Items = items
			err = o.enqueueOrderEvent(ctx, EventOrderStatusChanged, order)
		}
	}
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, e.Wrap(op, err)
	}

	return order, nil
}

// GetOrder возвращает заказ, видимый вызывающему. Чужой заказ для
// не-администратора неотличим от несуществующего.
func (o *OrderUseCase) GetOrder(ctx context.Context, identity domain.Identity, orderID int64) (*domain.Order, error) {
	const op = "OrderUseCase.GetOrder"

	order, err := o.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if !identity.CanAccessOrder(order.UserID) {
		return nil, e.Wrap(op, e.ErrOrderNotFound)
	}

	return order, nil
}

// ListOrders возвращает историю заказов вызывающего; администратору — все заказы.
func (o *OrderUseCase) ListOrders(ctx context.Context, identity domain.Identity) ([]domain.Order, error) {
	const op = "OrderUseCase.ListOrders"

	var (
		orders []domain.Order
		err    error
	)
	if identity.IsAdmin() {
		orders, err = o.orderRepo.ListAll(ctx)
	} else {
		orders, err = o.orderRepo.ListByUser(ctx, identity.UserID)
	}
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return orders, nil
}

// cancelLocked выполняет отмену заказа, строка которого уже заблокирована
// в текущей транзакции: проверка допустимости, компенсирующий возврат
// остатков по каждой позиции и смена статуса.
func (o *OrderUseCase) cancelLocked(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if !order.Status.CanCancel() {
		return nil, e.NewStateTransitionError(string(order.Status), "")
	}

	for _, item := range order.Items {
		if err := o.productRepo.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			return nil, err
		}
	}

	cancelled, err := o.orderRepo.UpdateStatus(ctx, order.ID, domain.StatusCancelled)
	if err != nil {
		return nil, err
	}
	cancelled.Items = order.Items

	if err := o.enqueueOrderEvent(ctx, EventOrderCancelled, cancelled); err != nil {
		return nil, err
	}

	return cancelled, nil
}

// materializeOrder считает итог по замороженным ценам слепка и сохраняет
// заказ с позициями в статусе PENDING.
func (o *OrderUseCase) materializeOrder(ctx context.Context, userID int64, lines []domain.CartLine) (*domain.Order, error) {
	items := make([]domain.OrderItem, 0, len(lines))
	var total int64
	for _, line := range lines {
		items = append(items, domain.OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.Price,
		})
		total += line.Price * line.Quantity
	}

	order := domain.NewOrder(generateOrderNumber(userID), userID, total, items)

	return o.orderRepo.Create(ctx, order)
}

// enqueueOrderEvent записывает событие жизненного цикла заказа в outbox
// внутри текущей транзакции.
func (o *OrderUseCase) enqueueOrderEvent(ctx context.Context, eventType OutboxEventType, order *domain.Order) error {
	eventID := uuid.NewString()

	payload, err := json.Marshal(NewOrderEventPayload(eventID, eventType, order))
	if err != nil {
		return err
	}

	_, err = o.outboxRepo.Create(ctx, NewOutboxEvent(eventID, eventType, order.ID, payload))
	return err
}

// validateLines проверяет слепок корзины перед оформлением: активность товаров
// и достаточность остатков. Собирает все проблемные позиции разом.
func validateLines(lines []domain.CartLine) error {
	var shortages []e.InsufficientStockItem
	for _, line := range lines {
		if line.Quantity <= 0 {
			return e.ErrQuantityMustBePositive
		}

		if !line.IsActive {
			return fmt.Errorf("product %d: %w", line.ProductID, e.ErrProductInactive)
		}

		if line.Stock < line.Quantity {
			shortages = append(shortages, e.InsufficientStockItem{
				ProductID: line.ProductID,
				Requested: line.Quantity,
				Available: line.Stock,
			})
		}
	}

	if len(shortages) > 0 {
		return e.NewInsufficientStockError(shortages)
	}

	return nil
}

// generateOrderNumber формирует человекочитаемый номер заказа из метки времени,
// идентификатора пользователя и случайного суффикса. Уникальность гарантирует
// не генерация, а ограничение БД.
func generateOrderNumber(userID int64) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%d-%s", time.Now().UTC().Format("20060102150405"), userID, suffix)
}
