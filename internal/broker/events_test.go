package broker

import (
	"context"
	"testing"
	"time"

	"storefront-bot/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineDeliveryRoutesOrderConfirmed(t *testing.T) {
	handler := NewEventHandler()

	var got *models.OrderConfirmedEvent
	handler.OnOrderConfirmed(func(_ context.Context, e *models.OrderConfirmedEvent) error {
		got = e
		return nil
	})

	publisher := NewEventPublisher(NewInlineProducer(handler.HandleMessage))
	err := publisher.PublishOrderConfirmed(context.Background(), models.OrderRecord{
		UserID:      42,
		OrderNumber: 3,
		ProductID:   "custom",
		Summary:     "Frame: Frameless (+$0)",
		Total:       decimal.NewFromInt(11),
		CreatedAt:   time.Now(),
	})
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, models.EventTypeOrderConfirmed, got.EventType)
	assert.NotEmpty(t, got.EventID)
	assert.Equal(t, int64(42), got.UserID)
	assert.Equal(t, 3, got.OrderNumber)
	assert.Equal(t, "$11", got.Total)
}

func TestInlineDeliveryRoutesStatusUpdated(t *testing.T) {
	handler := NewEventHandler()

	var got *models.OrderStatusUpdatedEvent
	handler.OnOrderStatusUpdated(func(_ context.Context, e *models.OrderStatusUpdatedEvent) error {
		got = e
		return nil
	})

	publisher := NewEventPublisher(NewInlineProducer(handler.HandleMessage))
	require.NoError(t, publisher.PublishOrderStatusUpdated(context.Background(), 7, 2, "Shipped", 1))

	require.NotNil(t, got)
	assert.Equal(t, int64(7), got.UserID)
	assert.Equal(t, 2, got.OrderNumber)
	assert.Equal(t, "Shipped", got.Status)
	assert.Equal(t, int64(1), got.UpdatedBy)
}

func TestHandleMessageIgnoresUnknownTypes(t *testing.T) {
	handler := NewEventHandler()
	err := handler.HandleMessage(context.Background(), kafka.Message{Value: []byte(`{"event_type":"SOMETHING_ELSE"}`)})
	assert.NoError(t, err)

	err = handler.HandleMessage(context.Background(), kafka.Message{Value: []byte(`not json`)})
	assert.Error(t, err)
}

type recordingPublisher struct {
	keys []string
}

func (p *recordingPublisher) PublishEvent(_ context.Context, key string, _ interface{}) error {
	p.keys = append(p.keys, key)
	return nil
}

func TestEventsAreKeyedByUser(t *testing.T) {
	rec := &recordingPublisher{}
	publisher := NewEventPublisher(rec)

	require.NoError(t, publisher.PublishOrderConfirmed(context.Background(), models.OrderRecord{UserID: 5}))
	require.NoError(t, publisher.PublishOrderStatusUpdated(context.Background(), 5, 1, "Done", 1))
	assert.Equal(t, []string{"user-5", "user-5"}, rec.keys)
}
