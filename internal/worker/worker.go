package worker

import (
	"context"
	"fmt"
	"time"

	"storefront-bot/internal/broker"
	"storefront-bot/internal/models"
	"storefront-bot/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const dedupTTL = 24 * time.Hour

// Consumer is the source of order events
type Consumer interface {
	StartConsuming(ctx context.Context, handler broker.MessageHandler) error
	Close() error
}

// Notifier delivers a plain-text message to a chat
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// Deduper remembers which events were already delivered
type Deduper interface {
	CheckIdempotencyKey(ctx context.Context, key string) (bool, error)
	SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// NotificationWorker turns order events into chat notifications: new orders
// go to the staff chat, status changes go to the customer.
type NotificationWorker struct {
	consumer     Consumer
	eventHandler *broker.EventHandler
	notifier     Notifier
	staffChatID  int64
	dedup        Deduper
	logger       *zap.Logger
}

// NewNotificationWorker creates a notification worker. consumer is nil when
// events are delivered inline through HandleMessage. dedup is optional.
func NewNotificationWorker(consumer Consumer, notifier Notifier, staffChatID int64, dedup Deduper) *NotificationWorker {
	w := &NotificationWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		notifier:     notifier,
		staffChatID:  staffChatID,
		dedup:        dedup,
		logger:       util.GetLogger(),
	}

	w.eventHandler.OnOrderConfirmed(w.handleOrderConfirmed)
	w.eventHandler.OnOrderStatusUpdated(w.handleOrderStatusUpdated)
	return w
}

// HandleMessage processes one encoded event
func (w *NotificationWorker) HandleMessage(ctx context.Context, msg kafka.Message) error {
	return w.eventHandler.HandleMessage(ctx, msg)
}

// Start consumes events until ctx is cancelled
func (w *NotificationWorker) Start(ctx context.Context) error {
	if w.consumer == nil {
		return nil
	}
	w.logger.Info("Starting notification worker")
	return w.consumer.StartConsuming(ctx, w.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	if w.consumer == nil {
		return nil
	}
	w.logger.Info("Stopping notification worker")
	return w.consumer.Close()
}

func (w *NotificationWorker) handleOrderConfirmed(ctx context.Context, e *models.OrderConfirmedEvent) error {
	if w.staffChatID == 0 {
		return nil
	}
	text := fmt.Sprintf("New order created by user %d:\n[%d / ORDER ID: %d-%d] %s\nStatus: %s",
		e.UserID, e.OrderNumber, e.UserID, e.OrderNumber, e.Summary, models.OrderStatusCreated)
	return w.deliver(ctx, "order_confirmed", e.EventID, w.staffChatID, text)
}

func (w *NotificationWorker) handleOrderStatusUpdated(ctx context.Context, e *models.OrderStatusUpdatedEvent) error {
	text := fmt.Sprintf("Your order [%d-%d] has been updated.\nStatus: %s", e.UserID, e.OrderNumber, e.Status)
	return w.deliver(ctx, "status_updated", e.EventID, e.UserID, text)
}

func (w *NotificationWorker) deliver(ctx context.Context, kind, eventID string, chatID int64, text string) error {
	key := "notified:" + eventID

	if w.dedup != nil {
		seen, err := w.dedup.CheckIdempotencyKey(ctx, key)
		if err != nil {
			w.logger.Warn("Idempotency check failed, delivering anyway",
				zap.String("event_id", eventID), zap.Error(err))
		} else if seen {
			util.NotificationsTotal.WithLabelValues(kind, "duplicate").Inc()
			return nil
		}
	}

	if err := w.notifier.Notify(ctx, chatID, text); err != nil {
		util.NotificationsTotal.WithLabelValues(kind, "failed").Inc()
		w.logger.Error("Failed to deliver notification",
			zap.String("type", kind),
			zap.String("event_id", eventID),
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		return fmt.Errorf("failed to deliver %s notification: %w", kind, err)
	}
	util.NotificationsTotal.WithLabelValues(kind, "sent").Inc()

	if w.dedup != nil {
		if err := w.dedup.SetIdempotencyKey(ctx, key, chatID, dedupTTL); err != nil {
			w.logger.Warn("Failed to record delivered event", zap.String("event_id", eventID), zap.Error(err))
		}
	}
	return nil
}
