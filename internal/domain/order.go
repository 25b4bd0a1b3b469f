package domain

import (
	"time"

	"github.com/DRSN-tech/storefront-backend/pkg/e"
)

// OrderStatus — статус жизненного цикла заказа.
type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"
	StatusProcessing OrderStatus = "PROCESSING"
	StatusShipped    OrderStatus = "SHIPPED"
	StatusDelivered  OrderStatus = "DELIVERED"
	StatusCancelled  OrderStatus = "CANCELLED"
)

// ParseOrderStatus валидирует строковое представление статуса.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return OrderStatus(s), nil
	default:
		return "", e.ErrInvalidOrderStatus
	}
}

// IsTerminal сообщает, является ли статус конечным.
// Из DELIVERED и CANCELLED переходы запрещены для любых ролей.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanCancel сообщает, допускает ли текущий статус отмену заказа пользователем.
func (s OrderStatus) CanCancel() bool {
	return s == StatusPending || s == StatusProcessing
}

// CanTransitionTo проверяет административный переход статуса.
// Между нетерминальными статусами переходы не ограничены по направлению,
// терминальные статусы заморожены, а CANCELLED достижим только из
// PENDING и PROCESSING.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}

	switch target {
	case StatusCancelled:
		return s.CanCancel()
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered:
		return true
	default:
		return false
	}
}

// Order — неизменяемый после создания слепок оформленной покупки.
// Мутируют только Status и UpdatedAt.
type Order struct {
	ID          int64
	OrderNumber string
	UserID      int64
	Total       int64 // Сумма в минорных единицах, равна Σ позиций price*quantity
	Status      OrderStatus
	Items       []OrderItem
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OrderItem — позиция заказа. Price — цена за единицу на момент покупки,
// исторический слепок, никогда не пересчитывается из актуального товара.
type OrderItem struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Quantity  int64
	Price     int64
}

func NewOrder(orderNumber string, userID int64, total int64, items []OrderItem) *Order {
	return &Order{
		OrderNumber: orderNumber,
		UserID:      userID,
		Total:       total,
		Status:      StatusPending,
		Items:       items,
	}
}
