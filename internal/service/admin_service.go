package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront-bot/internal/models"
	"storefront-bot/internal/store"
	"storefront-bot/internal/util"

	"go.uber.org/zap"
)

// ErrUnauthorized is returned when a caller lacks the admin role
var ErrUnauthorized = errors.New("not authorized")

// ErrEmptyStatus is returned when a status update carries no status text
var ErrEmptyStatus = errors.New("status is empty")

// Roles answers whether a user holds the admin role
type Roles interface {
	IsAdmin(userID int64) bool
}

// AllowList grants the admin role to a fixed set of user ids
type AllowList map[int64]struct{}

// NewAllowList builds an allow-list from ids
func NewAllowList(ids []int64) AllowList {
	l := make(AllowList, len(ids))
	for _, id := range ids {
		l[id] = struct{}{}
	}
	return l
}

// IsAdmin implements Roles
func (l AllowList) IsAdmin(userID int64) bool {
	_, ok := l[userID]
	return ok
}

// AdminService holds the privileged ledger operations. Callers gate chat
// users with Authorize before invoking them.
type AdminService struct {
	ledger         store.Ledger
	roles          Roles
	eventPublisher EventPublisher
	logger         *zap.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(ledger store.Ledger, roles Roles, eventPublisher EventPublisher) *AdminService {
	return &AdminService{
		ledger:         ledger,
		roles:          roles,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// Authorize returns ErrUnauthorized unless userID is an admin
func (s *AdminService) Authorize(userID int64) error {
	if s.roles == nil || !s.roles.IsAdmin(userID) {
		s.logger.Warn("Unauthorized admin attempt", zap.Int64("user_id", userID))
		return ErrUnauthorized
	}
	return nil
}

// ListAll returns every user's orders
func (s *AdminService) ListAll(ctx context.Context) (map[int64][]models.OrderRecord, error) {
	ctx, span := util.StartSpan(ctx, "AdminService.ListAll")
	defer span.End()

	return s.ledger.ListAll(ctx)
}

// UpdateStatus sets an order's status and notifies the customer through an
// OrderStatusUpdated event
func (s *AdminService) UpdateStatus(ctx context.Context, updatedBy, userID int64, orderNumber int, status string) error {
	ctx, span := util.StartSpan(ctx, "AdminService.UpdateStatus")
	defer span.End()

	status = strings.TrimSpace(status)
	if status == "" {
		return ErrEmptyStatus
	}

	if err := s.ledger.UpdateStatus(ctx, userID, orderNumber, status); err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	util.OrderStatusUpdatesTotal.Inc()
	s.logger.Info("Order status updated",
		zap.Int64("user_id", userID),
		zap.Int("order_number", orderNumber),
		zap.String("status", status),
		zap.Int64("updated_by", updatedBy))

	if err := s.eventPublisher.PublishOrderStatusUpdated(ctx, userID, orderNumber, status, updatedBy); err != nil {
		s.logger.Error("Failed to publish OrderStatusUpdated event",
			zap.Int64("user_id", userID),
			zap.Int("order_number", orderNumber),
			zap.Error(err))
	}
	return nil
}
