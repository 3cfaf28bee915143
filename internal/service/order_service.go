package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-bot/internal/models"
	"storefront-bot/internal/store"
	"storefront-bot/internal/util"
	"storefront-bot/internal/wizard"

	"go.uber.org/zap"
)

// ErrLockUnavailable is returned when the cross-process user lock could not be taken
var ErrLockUnavailable = errors.New("user lock unavailable")

// EventPublisher is the outbound side of order events
type EventPublisher interface {
	PublishOrderConfirmed(ctx context.Context, rec models.OrderRecord) error
	PublishOrderStatusUpdated(ctx context.Context, userID int64, orderNumber int, status string, updatedBy int64) error
}

// UserLocker serializes ledger writes for one user across processes
type UserLocker interface {
	LockUser(ctx context.Context, userID int64) (func(), error)
}

// OrderService handles order business logic
type OrderService struct {
	ledger         store.Ledger
	locker         UserLocker
	eventPublisher EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// NewOrderService creates a new order service. locker may be nil when the
// bot runs as a single replica.
func NewOrderService(ledger store.Ledger, locker UserLocker, eventPublisher EventPublisher) *OrderService {
	return &OrderService{
		ledger:         ledger,
		locker:         locker,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
		now:            time.Now,
	}
}

// Confirm commits the user's finished wizard to the ledger. The wizard is
// reset only after the append succeeded; on error it keeps the order so the
// user can retry.
func (s *OrderService) Confirm(ctx context.Context, userID int64, w *wizard.Wizard) (models.OrderRecord, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.Confirm")
	defer span.End()

	var placed models.OrderRecord
	err := w.Confirm(func(d wizard.Draft) error {
		rec, err := s.place(ctx, userID, d)
		if err != nil {
			return err
		}
		placed = rec
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, wizard.ErrInvalidTransition):
			util.OrdersFailedTotal.WithLabelValues("invalid_stage").Inc()
		case errors.Is(err, ErrLockUnavailable):
			util.OrdersFailedTotal.WithLabelValues("lock").Inc()
		default:
			util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		}
		return models.OrderRecord{}, err
	}

	util.OrdersConfirmedTotal.Inc()
	s.logger.Info("Order confirmed",
		zap.Int64("user_id", placed.UserID),
		zap.Int("order_number", placed.OrderNumber),
		zap.String("total", placed.Total.String()))

	if err := s.eventPublisher.PublishOrderConfirmed(ctx, placed); err != nil {
		s.logger.Error("Failed to publish OrderConfirmed event",
			zap.Int64("user_id", placed.UserID),
			zap.Int("order_number", placed.OrderNumber),
			zap.Error(err))
	}

	return placed, nil
}

func (s *OrderService) place(ctx context.Context, userID int64, d wizard.Draft) (models.OrderRecord, error) {
	if s.locker != nil {
		unlock, err := s.locker.LockUser(ctx, userID)
		if err != nil {
			return models.OrderRecord{}, fmt.Errorf("%w: %w", ErrLockUnavailable, err)
		}
		defer unlock()
	}

	start := time.Now()
	rec, err := s.ledger.Append(ctx, models.OrderRecord{
		UserID:    userID,
		ProductID: d.ProductID,
		Summary:   d.Summary(),
		Total:     d.Total,
		Status:    models.OrderStatusCreated,
		CreatedAt: s.now(),
	})
	util.LedgerAppendLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		s.logger.Error("Failed to append order",
			zap.Int64("user_id", userID),
			zap.Error(err))
		return models.OrderRecord{}, fmt.Errorf("failed to append order: %w", err)
	}
	return rec, nil
}

// ListOrders returns the user's orders, oldest first
func (s *OrderService) ListOrders(ctx context.Context, userID int64) ([]models.OrderRecord, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ListOrders")
	defer span.End()

	return s.ledger.ListForUser(ctx, userID)
}
