package usecase

import (
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
)

type OutboxStatus string

const (
	Pending    OutboxStatus = "PENDING"
	Processing OutboxStatus = "PROCESSING"
	Processed  OutboxStatus = "PROCESSED"
)

type OutboxEventType string

const (
	EventOrderCreated       OutboxEventType = "order.created"
	EventOrderCancelled     OutboxEventType = "order.cancelled"
	EventOrderStatusChanged OutboxEventType = "order.status_changed"
)

// OutboxEvent — событие жизненного цикла заказа, записываемое в outbox
// в той же транзакции, что и сама мутация. Фоновый worker доставляет
// события в Kafka, поэтому откат транзакции никогда не порождает событие.
type OutboxEvent struct {
	ID          int64
	EventID     string
	EventType   OutboxEventType
	OrderID     int64
	Payload     []byte
	Status      OutboxStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

func NewOutboxEvent(eventID string, eventType OutboxEventType, orderID int64, payload []byte) *OutboxEvent {
	return &OutboxEvent{
		EventID:   eventID,
		EventType: eventType,
		OrderID:   orderID,
		Payload:   payload,
		Status:    Pending,
		CreatedAt: time.Now().UTC(),
	}
}

// OrderEventPayload — JSON-тело события для консьюмеров аналитики.
type OrderEventPayload struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	OrderID     int64     `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      int64     `json:"user_id"`
	Status      string    `json:"status"`
	Total       int64     `json:"total"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func NewOrderEventPayload(eventID string, eventType OutboxEventType, order *domain.Order) *OrderEventPayload {
	return &OrderEventPayload{
		EventID:     eventID,
		EventType:   string(eventType),
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Status:      string(order.Status),
		Total:       order.Total,
		OccurredAt:  time.Now().UTC(),
	}
}
