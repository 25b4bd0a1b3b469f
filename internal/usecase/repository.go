package usecase

import (
	"context"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
)

type ProductRepository interface {
	Upsert(ctx context.Context, product *domain.Product) (*UpsertProductRes, error)
	GetProductsInfo(ctx context.Context, ids []int64) ([]ProductInfo, error)
	// DecrementStock атомарно списывает количество, только если остатка хватает.
	// Возвращает false, если списание нарушило бы инвариант stock >= 0.
	DecrementStock(ctx context.Context, productID, quantity int64) (bool, error)
	IncrementStock(ctx context.Context, productID, quantity int64) error
	GetAvailableStock(ctx context.Context, productID int64) (int64, error)
	SetStock(ctx context.Context, productID, stock int64) error
}

type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) (*domain.Category, error)
}

type CartRepository interface {
	GetOrCreate(ctx context.Context, userID int64) (*domain.Cart, error)
	// GetLines возвращает позиции корзины вместе с актуальными ценой, остатком
	// и признаком активности товара.
	GetLines(ctx context.Context, userID int64) ([]domain.CartLine, error)
	AddItem(ctx context.Context, userID, productID, quantity int64) error
	SetItemQuantity(ctx context.Context, userID, productID, quantity int64) error
	RemoveItem(ctx context.Context, userID, productID int64) error
	Clear(ctx context.Context, userID int64) error
}

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, orderID int64) (*domain.Order, error)
	// GetByIDForUpdate блокирует строку заказа до конца транзакции.
	GetByIDForUpdate(ctx context.Context, orderID int64) (*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, status domain.OrderStatus) (*domain.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
}

type CacheRepository interface {
	GetProducts(ctx context.Context, ids []int64) (map[int64]ProductInfo, error)
	SetProducts(ctx context.Context, products []ProductInfo) error
	DeleteProducts(ctx context.Context, ids []int64) error
}

type ImageRepository interface {
	Upload(ctx context.Context, image *domain.Image) (string, error)
	Delete(ctx context.Context, key string) error
}
