package e

import (
	"fmt"
	"strings"
)

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Внутренние ошибки окружения
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect env variable")

	// Коллизия номера заказа: уникальность гарантирует БД, вызывающий повторяет
	// всю транзакцию оформления с новым номером
	ErrOrderNumberCollision = fmt.Errorf("order number collision")

	// 400 Bad Request
	ErrEmptyCart              = fmt.Errorf("cart is empty")
	ErrQuantityMustBePositive = fmt.Errorf("quantity must be positive")
	ErrProductInactive        = fmt.Errorf("product is not available for sale")
	ErrProductNameRequired    = fmt.Errorf("product name is required")
	ErrPriceMustBeNonNegative = fmt.Errorf("price must not be negative")
	ErrInvalidPrice           = fmt.Errorf("invalid price")
	ErrPricePrecision         = fmt.Errorf("price must have at most 2 decimal places")
	ErrInvalidOrderStatus     = fmt.Errorf("unknown order status")
	ErrMissingFields          = fmt.Errorf("missing required fields")
	ErrNoImages               = fmt.Errorf("no images provided")
	ErrTooManyImages          = fmt.Errorf("too many images")
	ErrFileTooLarge           = fmt.Errorf("file too large")
	ErrUnsupportedMediaType   = fmt.Errorf("unsupported media type")
	ErrExpectedMultipart      = fmt.Errorf("expected multipart/form-data")
	ErrStatusBadRequest       = fmt.Errorf("bad request")

	// 401 / 403
	ErrUnauthorized = fmt.Errorf("authentication required")
	ErrForbidden    = fmt.Errorf("operation is not permitted for this user")

	// 404 Not Found
	ErrOrderNotFound    = fmt.Errorf("order not found")
	ErrProductNotFound  = fmt.Errorf("product not found")
	ErrCartNotFound     = fmt.Errorf("cart not found")
	ErrCartItemNotFound = fmt.Errorf("cart item not found")

	// 500
	ErrInternalServerError = fmt.Errorf("internal server error")
)

// InsufficientStockItem описывает одну позицию, для которой не хватило остатка.
type InsufficientStockItem struct {
	ProductID int64
	Requested int64
	Available int64
}

// InsufficientStockError возвращается, когда хотя бы по одной позиции корзины
// запрошенное количество превышает доступный остаток. Заказ при этом не создаётся.
type InsufficientStockError struct {
	Items []InsufficientStockItem
}

func NewInsufficientStockError(items []InsufficientStockItem) *InsufficientStockError {
	return &InsufficientStockError{Items: items}
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Items))
	for _, it := range e.Items {
		parts = append(parts, fmt.Sprintf("product %d: requested %d, available %d", it.ProductID, it.Requested, it.Available))
	}

	return "insufficient stock: " + strings.Join(parts, "; ")
}

// StateTransitionError возвращается при запрещённом переходе статуса заказа.
type StateTransitionError struct {
	From string
	To   string
}

func NewStateTransitionError(from, to string) *StateTransitionError {
	return &StateTransitionError{From: from, To: to}
}

func (e *StateTransitionError) Error() string {
	if e.To == "" {
		return fmt.Sprintf("order in status %s cannot be cancelled", e.From)
	}

	return fmt.Sprintf("transition from %s to %s is not allowed", e.From, e.To)
}

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
