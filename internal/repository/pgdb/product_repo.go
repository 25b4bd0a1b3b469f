package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// ProductRepo реализует репозиторий товаров поверх PostgreSQL.
type ProductRepo struct {
	pool *pgxpool.Pool
	conv converter.ProductConverter
}

func NewProductRepo(pool *pgxpool.Pool, conv converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		pool: pool,
		conv: conv,
	}
}

// Upsert идемпотентно создаёт или обновляет товар по уникальному имени.
// Запись обновляется только при изменении цены, остатка или категории.
func (p *ProductRepo) Upsert(ctx context.Context, product *domain.Product) (*usecase.UpsertProductRes, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	// VALUES ($1, $2, $3, $4) name, price, stock, category_id
	query := `
		WITH upsert AS (
		INSERT INTO products (name, price, stock, category_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name)
		DO UPDATE SET
			price = EXCLUDED.price,
			stock = EXCLUDED.stock,
			category_id = EXCLUDED.category_id,
			updated_at = NOW()
		WHERE
			products.price IS DISTINCT FROM EXCLUDED.price OR
			products.stock IS DISTINCT FROM EXCLUDED.stock OR
			products.category_id IS DISTINCT FROM EXCLUDED.category_id
		RETURNING
			id, name, price, stock, is_active, category_id, created_at, updated_at
		)
		SELECT
			id, name, price, stock, is_active, category_id, created_at, updated_at,
			false AS no_changes
		FROM upsert

		UNION ALL

		SELECT
			id, name, price, stock, is_active, category_id, created_at, updated_at,
			true AS no_changes
		FROM products
		WHERE name = $1
		  AND NOT EXISTS (SELECT 1 FROM upsert);
	`

	var model converter.ProductModel
	var noChanges bool
	err = tx.QueryRow(ctx, query, product.Name, product.Price, product.Stock, product.CategoryID).
		Scan(
			&model.ID, &model.Name, &model.Price, &model.Stock, &model.IsActive,
			&model.CategoryID, &model.CreatedAt, &model.UpdatedAt, &noChanges,
		)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return usecase.NewUpsertProductRes(p.conv.ToEntity(&model), noChanges), nil
}

// GetProductsInfo возвращает информацию о товарах по их идентификаторам, включая название категории.
func (p *ProductRepo) GetProductsInfo(ctx context.Context, ids []int64) ([]usecase.ProductInfo, error) {
	query := `
		SELECT pr.id, pr.name, cat.name, pr.price, pr.is_active
		FROM products pr
		JOIN categories cat ON pr.category_id = cat.id
		WHERE pr.id = ANY($1)
	`

	rows, err := p.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]usecase.ProductInfo, 0)
	for rows.Next() {
		var product usecase.ProductInfo
		if err := rows.Scan(&product.ID, &product.Name, &product.CategoryName, &product.Price, &product.IsActive); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		result = append(result, product)
	}

	return result, nil
}

// DecrementStock списывает количество, только если остатка хватает.
// Условие stock >= quantity входит в сам UPDATE: это авторитетная проверка,
// защищающая от гонки параллельных оформлений. Возвращает false при нехватке.
func (p *ProductRepo) DecrementStock(ctx context.Context, productID, quantity int64) (bool, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
	`

	tag, err := tx.Exec(ctx, query, productID, quantity)
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return tag.RowsAffected() > 0, nil
}

// IncrementStock возвращает количество на остаток (компенсация при отмене заказа).
func (p *ProductRepo) IncrementStock(ctx context.Context, productID, quantity int64) error {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		UPDATE products
		SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, productID, quantity)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if tag.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
	}

	return nil
}

// GetAvailableStock возвращает текущий остаток товара. Работает и внутри
// транзакции usecase, и вне её.
func (p *ProductRepo) GetAvailableStock(ctx context.Context, productID int64) (int64, error) {
	q := pick(ctx, p.pool)

	var stock int64
	err := q.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, productID).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
		}

		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return stock, nil
}

// SetStock выставляет остаток товара напрямую (административное пополнение).
func (p *ProductRepo) SetStock(ctx context.Context, productID, stock int64) error {
	query := `
		UPDATE products
		SET stock = $2, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := p.pool.Exec(ctx, query, productID, stock)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if tag.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
	}

	return nil
}
