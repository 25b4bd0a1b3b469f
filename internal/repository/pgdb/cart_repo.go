package pgdb

import (
	"context"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/tr"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// CartRepo реализует репозиторий корзин поверх PostgreSQL.
// Корзина создаётся лениво, одна на пользователя.
type CartRepo struct {
	pool *pgxpool.Pool
}

func NewCartRepo(pool *pgxpool.Pool) *CartRepo {
	return &CartRepo{pool: pool}
}

// GetOrCreate возвращает корзину пользователя, создавая её при первом обращении.
func (c *CartRepo) GetOrCreate(ctx context.Context, userID int64) (*domain.Cart, error) {
	query := `
		WITH inserted AS (
			INSERT INTO carts(user_id) VALUES ($1)
			ON CONFLICT (user_id) DO NOTHING
			RETURNING id, user_id, created_at
		)
		SELECT id, user_id, created_at FROM inserted
		UNION ALL
		SELECT id, user_id, created_at FROM carts
		WHERE user_id = $1 AND NOT EXISTS (SELECT 1 FROM inserted);
	`

	var cart domain.Cart
	if err := c.pool.QueryRow(ctx, query, userID).
		Scan(&cart.ID, &cart.UserID, &cart.CreatedAt); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &cart, nil
}

// GetLines возвращает слепок корзины: позиции вместе с текущей ценой,
// остатком и признаком активности товара. Внутри транзакции оформления
// читает через неё, поэтому слепок согласован с последующим списанием.
func (c *CartRepo) GetLines(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	q := pick(ctx, c.pool)

	query := `
		SELECT ci.product_id, pr.name, ci.quantity, pr.price, pr.stock, pr.is_active
		FROM cart_items ci
		JOIN carts ca ON ci.cart_id = ca.id
		JOIN products pr ON ci.product_id = pr.id
		WHERE ca.user_id = $1
	`

	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	lines := make([]domain.CartLine, 0)
	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.ProductID, &line.ProductName, &line.Quantity, &line.Price, &line.Stock, &line.IsActive); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return lines, nil
}

// AddItem добавляет позицию либо увеличивает количество существующей.
// На пару (корзина, товар) приходится не более одной записи.
func (c *CartRepo) AddItem(ctx context.Context, userID, productID, quantity int64) error {
	query := `
		INSERT INTO cart_items (cart_id, product_id, quantity)
		SELECT ca.id, $2, $3 FROM carts ca WHERE ca.user_id = $1
		ON CONFLICT (cart_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
	`

	tag, err := c.pool.Exec(ctx, query, userID, productID, quantity)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if tag.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrCartNotFound)
	}

	return nil
}

// SetItemQuantity выставляет количество существующей позиции.
func (c *CartRepo) SetItemQuantity(ctx context.Context, userID, productID, quantity int64) error {
	query := `
		UPDATE cart_items ci
		SET quantity = $3
		FROM carts ca
		WHERE ci.cart_id = ca.id AND ca.user_id = $1 AND ci.product_id = $2
	`

	tag, err := c.pool.Exec(ctx, query, userID, productID, quantity)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if tag.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrCartItemNotFound)
	}

	return nil
}

// RemoveItem удаляет позицию из корзины.
func (c *CartRepo) RemoveItem(ctx context.Context, userID, productID int64) error {
	query := `
		DELETE FROM cart_items ci
		USING carts ca
		WHERE ci.cart_id = ca.id AND ca.user_id = $1 AND ci.product_id = $2
	`

	tag, err := c.pool.Exec(ctx, query, userID, productID)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if tag.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrCartItemNotFound)
	}

	return nil
}

// Clear атомарно удаляет все позиции корзины. Вызывается только внутри
// транзакции успешного оформления заказа.
func (c *CartRepo) Clear(ctx context.Context, userID int64) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		DELETE FROM cart_items ci
		USING carts ca
		WHERE ci.cart_id = ca.id AND ca.user_id = $1
	`

	if _, err := tx.Exec(ctx, query, userID); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
