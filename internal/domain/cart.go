package domain

import "time"

// Cart — корзина пользователя, одна на аккаунт. Создаётся лениво при первом обращении.
type Cart struct {
	ID        int64
	UserID    int64
	Items     []CartItem
	CreatedAt time.Time
}

// CartItem — позиция корзины. На пару (корзина, товар) приходится не более одной записи.
type CartItem struct {
	ID        int64
	CartID    int64
	ProductID int64
	Quantity  int64
}

// CartLine — позиция корзины вместе с актуальным состоянием товара на момент чтения.
// Цена и остаток здесь справочные: авторитетная проверка остатка выполняется
// в момент списания внутри транзакции оформления заказа.
type CartLine struct {
	ProductID   int64
	ProductName string
	Quantity    int64
	Price       int64
	Stock       int64
	IsActive    bool
}
