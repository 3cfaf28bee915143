package models

import "time"

// Event types
const (
	EventTypeOrderConfirmed     = "ORDER_CONFIRMED"
	EventTypeOrderStatusUpdated = "ORDER_STATUS_UPDATED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderConfirmedEvent published after an order has been appended to the ledger
type OrderConfirmedEvent struct {
	BaseEvent
	UserID      int64  `json:"user_id"`
	OrderNumber int    `json:"order_number"`
	ProductID   string `json:"product_id"`
	Summary     string `json:"summary"`
	Total       string `json:"total"`
}

// OrderStatusUpdatedEvent published when an admin changes an order status
type OrderStatusUpdatedEvent struct {
	BaseEvent
	UserID      int64  `json:"user_id"`
	OrderNumber int    `json:"order_number"`
	Status      string `json:"status"`
	UpdatedBy   int64  `json:"updated_by"`
}
