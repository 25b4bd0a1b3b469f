package usecase

import (
	"context"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
)

// CartUseCase реализует управление корзиной: ленивое создание, добавление,
// изменение количества и удаление позиций. Остатки здесь не резервируются —
// проверка выполняется при оформлении заказа.
type CartUseCase struct {
	cartRepo    CartRepository
	productRepo ProductRepository
	logger      logger.Logger
}

func NewCartUC(cartRepo CartRepository, productRepo ProductRepository, logger logger.Logger) *CartUseCase {
	return &CartUseCase{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		logger:      logger,
	}
}

// GetCart возвращает корзину вызывающего, создавая пустую при первом обращении.
func (c *CartUseCase) GetCart(ctx context.Context, identity domain.Identity) (*CartView, error) {
	const op = "CartUseCase.GetCart"

	if _, err := c.cartRepo.GetOrCreate(ctx, identity.UserID); err != nil {
		return nil, e.Wrap(op, err)
	}

	lines, err := c.cartRepo.GetLines(ctx, identity.UserID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return NewCartView(lines), nil
}

// AddItem добавляет товар в корзину либо увеличивает количество существующей позиции.
func (c *CartUseCase) AddItem(ctx context.Context, identity domain.Identity, productID, quantity int64) error {
	const op = "CartUseCase.AddItem"

	if quantity <= 0 {
		return e.Wrap(op, e.ErrQuantityMustBePositive)
	}

	if err := c.ensureSellable(ctx, productID); err != nil {
		return e.Wrap(op, err)
	}

	if _, err := c.cartRepo.GetOrCreate(ctx, identity.UserID); err != nil {
		return e.Wrap(op, err)
	}

	if err := c.cartRepo.AddItem(ctx, identity.UserID, productID, quantity); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

// UpdateItem выставляет количество существующей позиции корзины.
func (c *CartUseCase) UpdateItem(ctx context.Context, identity domain.Identity, productID, quantity int64) error {
	const op = "CartUseCase.UpdateItem"

	if quantity <= 0 {
		return e.Wrap(op, e.ErrQuantityMustBePositive)
	}

	if err := c.cartRepo.SetItemQuantity(ctx, identity.UserID, productID, quantity); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

// RemoveItem удаляет позицию из корзины.
func (c *CartUseCase) RemoveItem(ctx context.Context, identity domain.Identity, productID int64) error {
	const op = "CartUseCase.RemoveItem"

	if err := c.cartRepo.RemoveItem(ctx, identity.UserID, productID); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

// ensureSellable проверяет, что товар существует и активен.
func (c *CartUseCase) ensureSellable(ctx context.Context, productID int64) error {
	infos, err := c.productRepo.GetProductsInfo(ctx, []int64{productID})
	if err != nil {
		return err
	}

	if len(infos) == 0 {
		return e.ErrProductNotFound
	}

	if !infos[0].IsActive {
		return e.ErrProductInactive
	}

	return nil
}
