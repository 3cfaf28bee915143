package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront-bot/internal/models"
	"storefront-bot/internal/util"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Publisher writes an encoded event under a partition key
type Publisher interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer Publisher
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer Publisher) *EventPublisher {
	return &EventPublisher{producer: producer}
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}

func userKey(userID int64) string {
	return fmt.Sprintf("user-%d", userID)
}

// PublishOrderConfirmed publishes an OrderConfirmed event for rec
func (ep *EventPublisher) PublishOrderConfirmed(ctx context.Context, rec models.OrderRecord) error {
	event := &models.OrderConfirmedEvent{
		BaseEvent:   newBaseEvent(models.EventTypeOrderConfirmed),
		UserID:      rec.UserID,
		OrderNumber: rec.OrderNumber,
		ProductID:   rec.ProductID,
		Summary:     rec.Summary,
		Total:       models.FormatAmount(rec.Total),
	}
	return ep.producer.PublishEvent(ctx, userKey(rec.UserID), event)
}

// PublishOrderStatusUpdated publishes an OrderStatusUpdated event
func (ep *EventPublisher) PublishOrderStatusUpdated(ctx context.Context, userID int64, orderNumber int, status string, updatedBy int64) error {
	event := &models.OrderStatusUpdatedEvent{
		BaseEvent:   newBaseEvent(models.EventTypeOrderStatusUpdated),
		UserID:      userID,
		OrderNumber: orderNumber,
		Status:      status,
		UpdatedBy:   updatedBy,
	}
	return ep.producer.PublishEvent(ctx, userKey(userID), event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onOrderConfirmed     func(context.Context, *models.OrderConfirmedEvent) error
	onOrderStatusUpdated func(context.Context, *models.OrderStatusUpdatedEvent) error
	logger               *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnOrderConfirmed registers a handler for OrderConfirmed events
func (eh *EventHandler) OnOrderConfirmed(handler func(context.Context, *models.OrderConfirmedEvent) error) {
	eh.onOrderConfirmed = handler
}

// OnOrderStatusUpdated registers a handler for OrderStatusUpdated events
func (eh *EventHandler) OnOrderStatusUpdated(handler func(context.Context, *models.OrderStatusUpdatedEvent) error) {
	eh.onOrderStatusUpdated = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("event_type", baseEvent.EventType),
		zap.String("event_id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeOrderConfirmed:
		if eh.onOrderConfirmed != nil {
			var event models.OrderConfirmedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OrderConfirmed event: %w", err)
			}
			return eh.onOrderConfirmed(ctx, &event)
		}

	case models.EventTypeOrderStatusUpdated:
		if eh.onOrderStatusUpdated != nil {
			var event models.OrderStatusUpdatedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OrderStatusUpdated event: %w", err)
			}
			return eh.onOrderStatusUpdated(ctx, &event)
		}

	default:
		eh.logger.Warn("Unhandled event type", zap.String("event_type", baseEvent.EventType))
	}

	return nil
}
