package usecase

import (
	"context"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
)

type OrderUC interface {
	Checkout(ctx context.Context, identity domain.Identity) (*domain.Order, error)
	Cancel(ctx context.Context, identity domain.Identity, orderID int64) (*domain.Order, error)
	UpdateStatus(ctx context.Context, identity domain.Identity, orderID int64, target domain.OrderStatus) (*domain.Order, error)
	GetOrder(ctx context.Context, identity domain.Identity, orderID int64) (*domain.Order, error)
	ListOrders(ctx context.Context, identity domain.Identity) ([]domain.Order, error)
}

type CartUC interface {
	GetCart(ctx context.Context, identity domain.Identity) (*CartView, error)
	AddItem(ctx context.Context, identity domain.Identity, productID, quantity int64) error
	UpdateItem(ctx context.Context, identity domain.Identity, productID, quantity int64) error
	RemoveItem(ctx context.Context, identity domain.Identity, productID int64) error
}

type ProductUC interface {
	RegisterNewProduct(ctx context.Context, req *AddNewProductReq) (*domain.Product, error)
	GetProductsInfo(ctx context.Context, req *GetProductsReq) (*GetProductsRes, error)
	SetStock(ctx context.Context, productID, stock int64) error
}
