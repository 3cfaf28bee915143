package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"storefront-bot/internal/service"
	"storefront-bot/internal/store"
	"storefront-bot/internal/util"

	"go.uber.org/zap"
)

// authorized replies with the denial message unless the caller is an admin
func (d *Dispatcher) authorized(ctx context.Context, c Command) bool {
	if err := d.admin.Authorize(c.UserID); err != nil {
		d.reply(ctx, c.ChatID, notAuthorizedText)
		return false
	}
	return true
}

func (d *Dispatcher) announce(ctx context.Context, c Command) {
	if !d.authorized(ctx, c) {
		return
	}

	content := strings.TrimSpace(c.Args)
	if content == "" {
		d.reply(ctx, c.ChatID, announceUsageText)
		return
	}
	if d.broadcast.IsZero() {
		d.reply(ctx, c.ChatID, noChannelText)
		return
	}

	if _, err := d.transport.SendMessage(ctx, d.broadcast, content, shopKeyboard(d.links.Shop)); err != nil {
		d.logger.Error("Failed to broadcast announcement", zap.Int64("user_id", c.UserID), zap.Error(err))
		d.reply(ctx, c.ChatID, genericErrorText)
		return
	}

	util.AnnouncementsTotal.Inc()
	d.logger.Info("Announcement broadcast", zap.Int64("user_id", c.UserID))
	d.reply(ctx, c.ChatID, announcedText)
}

func (d *Dispatcher) viewAllOrders(ctx context.Context, c Command) {
	if !d.authorized(ctx, c) {
		return
	}

	byUser, err := d.admin.ListAll(ctx)
	if err != nil {
		d.logger.Error("Failed to list all orders", zap.Error(err))
		d.reply(ctx, c.ChatID, genericErrorText)
		return
	}

	for _, msg := range allOrdersMessages(byUser) {
		if err := d.send(ctx, c.ChatID, msg, nil); err != nil {
			d.logger.Error("Failed to send order listing", zap.Int64("chat_id", c.ChatID), zap.Error(err))
			return
		}
	}
}

func (d *Dispatcher) updateOrderStatus(ctx context.Context, c Command) {
	if !d.authorized(ctx, c) {
		return
	}

	userID, orderNumber, status, ok := parseStatusUpdate(c.Args)
	if !ok {
		d.reply(ctx, c.ChatID, updateUsageText)
		return
	}

	err := d.admin.UpdateStatus(ctx, c.UserID, userID, orderNumber, status)
	switch {
	case err == nil:
		d.reply(ctx, c.ChatID, statusUpdatedText)
	case errors.Is(err, store.ErrNotFound):
		d.reply(ctx, c.ChatID, d.notFoundText(ctx, userID))
	case errors.Is(err, service.ErrEmptyStatus):
		d.reply(ctx, c.ChatID, updateUsageText)
	default:
		d.logger.Error("Failed to update order status",
			zap.Int64("user_id", userID),
			zap.Int("order_number", orderNumber),
			zap.Error(err))
		d.reply(ctx, c.ChatID, genericErrorText)
	}
}

func (d *Dispatcher) notFoundText(ctx context.Context, userID int64) string {
	records, err := d.orders.ListOrders(ctx, userID)
	if err == nil && len(records) == 0 {
		return userHasNoOrdersText
	}
	return invalidOrderIndexText
}

// parseStatusUpdate splits "<user_id> <order_number> <new status...>"
func parseStatusUpdate(args string) (int64, int, string, bool) {
	fields := strings.Fields(args)
	if len(fields) < 3 {
		return 0, 0, "", false
	}

	userID, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, 0, "", false
	}
	orderNumber, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, "", false
	}
	return userID, orderNumber, strings.Join(fields[2:], " "), true
}
