package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// OrderRepo реализует репозиторий заказов поверх PostgreSQL.
type OrderRepo struct {
	pool *pgxpool.Pool
	conv converter.OrderConverter
}

func NewOrderRepo(pool *pgxpool.Pool, conv converter.OrderConverter) *OrderRepo {
	return &OrderRepo{
		pool: pool,
		conv: conv,
	}
}

// Create сохраняет заказ и его позиции. Позиции несут замороженную цену
// на момент покупки. При коллизии номера заказа возвращает
// e.ErrOrderNumberCollision, вызывающий повторяет транзакцию с новым номером.
func (o *OrderRepo) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	orderQuery := `
		INSERT INTO orders (order_number, user_id, total, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at;
	`

	model := converter.OrderModel{
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Total:       order.Total,
		Status:      string(order.Status),
	}
	if err := tx.QueryRow(ctx, orderQuery,
		model.OrderNumber, model.UserID, model.Total, model.Status,
	).Scan(&model.ID, &model.CreatedAt, &model.UpdatedAt); err != nil {
		if postgresDuplicate(err) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrOrderNumberCollision)
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id;
	`

	itemModels := make([]converter.OrderItemModel, 0, len(order.Items))
	for _, item := range order.Items {
		itemModel := converter.OrderItemModel{
			OrderID:   model.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
		if err := tx.QueryRow(ctx, itemQuery,
			itemModel.OrderID, itemModel.ProductID, itemModel.Quantity, itemModel.Price,
		).Scan(&itemModel.ID); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		itemModels = append(itemModels, itemModel)
	}

	return o.conv.ToEntity(&model, itemModels), nil
}

// GetByID возвращает заказ с позициями.
func (o *OrderRepo) GetByID(ctx context.Context, orderID int64) (*domain.Order, error) {
	return o.getByID(ctx, o.pool, orderID, "")
}

// GetByIDForUpdate возвращает заказ, блокируя его строку до конца транзакции.
// Используется путями отмены и смены статуса, чтобы исключить гонку
// двух одновременных переходов.
func (o *OrderRepo) GetByIDForUpdate(ctx context.Context, orderID int64) (*domain.Order, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return o.getByID(ctx, tx, orderID, "FOR UPDATE")
}

func (o *OrderRepo) getByID(ctx context.Context, q querier, orderID int64, locking string) (*domain.Order, error) {
	query := `
		SELECT id, order_number, user_id, total, status, created_at, updated_at
		FROM orders
		WHERE id = $1 ` + locking

	var model converter.OrderModel
	err := q.QueryRow(ctx, query, orderID).Scan(
		&model.ID, &model.OrderNumber, &model.UserID, &model.Total,
		&model.Status, &model.CreatedAt, &model.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrOrderNotFound)
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	items, err := o.loadItems(ctx, q, []int64{model.ID})
	if err != nil {
		return nil, err
	}

	return o.conv.ToEntity(&model, items[model.ID]), nil
}

// UpdateStatus переводит заказ в новый статус и обновляет updated_at.
// Легальность перехода проверяет usecase, заблокировав строку заранее.
func (o *OrderRepo) UpdateStatus(ctx context.Context, orderID int64, status domain.OrderStatus) (*domain.Order, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		UPDATE orders
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING id, order_number, user_id, total, status, created_at, updated_at;
	`

	var model converter.OrderModel
	err = tx.QueryRow(ctx, query, orderID, string(status)).Scan(
		&model.ID, &model.OrderNumber, &model.UserID, &model.Total,
		&model.Status, &model.CreatedAt, &model.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrOrderNotFound)
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return o.conv.ToEntity(&model, nil), nil
}

// ListByUser возвращает заказы пользователя, новые первыми.
func (o *OrderRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	return o.list(ctx, `WHERE user_id = $1`, userID)
}

// ListAll возвращает все заказы (административный обзор), новые первыми.
func (o *OrderRepo) ListAll(ctx context.Context) ([]domain.Order, error) {
	return o.list(ctx, ``)
}

func (o *OrderRepo) list(ctx context.Context, where string, args ...any) ([]domain.Order, error) {
	query := `
		SELECT id, order_number, user_id, total, status, created_at, updated_at
		FROM orders ` + where + `
		ORDER BY created_at DESC
	`

	rows, err := o.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	var models []converter.OrderModel
	ids := make([]int64, 0)
	for rows.Next() {
		var model converter.OrderModel
		if err := rows.Scan(
			&model.ID, &model.OrderNumber, &model.UserID, &model.Total,
			&model.Status, &model.CreatedAt, &model.UpdatedAt,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		models = append(models, model)
		ids = append(ids, model.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	itemsByOrder, err := o.loadItems(ctx, o.pool, ids)
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(models))
	for i := range models {
		orders = append(orders, *o.conv.ToEntity(&models[i], itemsByOrder[models[i].ID]))
	}

	return orders, nil
}

// loadItems загружает позиции для набора заказов одним запросом.
func (o *OrderRepo) loadItems(ctx context.Context, q querier, orderIDs []int64) (map[int64][]converter.OrderItemModel, error) {
	if len(orderIDs) == 0 {
		return map[int64][]converter.OrderItemModel{}, nil
	}

	query := `
		SELECT id, order_id, product_id, quantity, price
		FROM order_items
		WHERE order_id = ANY($1)
	`

	rows, err := q.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make(map[int64][]converter.OrderItemModel, len(orderIDs))
	for rows.Next() {
		var item converter.OrderItemModel
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Price); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		result[item.OrderID] = append(result[item.OrderID], item)
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}
