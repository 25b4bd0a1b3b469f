package domain

import (
	"testing"

	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/stretchr/testify/assert"
)

func TestParseOrderStatus(t *testing.T) {
	for _, valid := range []string{"PENDING", "PROCESSING", "SHIPPED", "DELIVERED", "CANCELLED"} {
		status, err := ParseOrderStatus(valid)
		assert.NoError(t, err)
		assert.Equal(t, OrderStatus(valid), status)
	}

	for _, invalid := range []string{"", "pending", "REFUNDED", "NEW"} {
		_, err := ParseOrderStatus(invalid)
		assert.ErrorIs(t, err, e.ErrInvalidOrderStatus, "input %q", invalid)
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	assert.True(t, StatusDelivered.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusProcessing.IsTerminal())
	assert.False(t, StatusShipped.IsTerminal())
}

func TestOrderStatusCanCancel(t *testing.T) {
	assert.True(t, StatusPending.CanCancel())
	assert.True(t, StatusProcessing.CanCancel())
	assert.False(t, StatusShipped.CanCancel())
	assert.False(t, StatusDelivered.CanCancel())
	assert.False(t, StatusCancelled.CanCancel())
}

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusShipped, true},
		{StatusPending, StatusDelivered, true},
		{StatusPending, StatusCancelled, true},
		{StatusProcessing, StatusPending, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusShipped, StatusProcessing, true},
		{StatusShipped, StatusDelivered, true},
		// Отмена доступна только до отгрузки
		{StatusShipped, StatusCancelled, false},
		// Терминальные статусы заморожены
		{StatusDelivered, StatusProcessing, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusDelivered, false},
		// Неизвестный целевой статус
		{StatusPending, OrderStatus("REFUNDED"), false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestNewOrderStartsPending(t *testing.T) {
	order := NewOrder("ORD-X", 7, 500, []OrderItem{{ProductID: 1, Quantity: 2, Price: 250}})
	assert.Equal(t, StatusPending, order.Status)
	assert.EqualValues(t, 500, order.Total)
}
