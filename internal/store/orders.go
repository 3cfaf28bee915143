package store

import (
	"context"
	"fmt"
	"time"

	"storefront-bot/internal/models"
	"storefront-bot/internal/util"

	"github.com/jmoiron/sqlx"
)

const orderColumns = "user_id, order_number, product_id, summary, total, status, created_at, updated_at"

// NextOrderNumber returns the number the user's next order will get
func (s *Store) NextOrderNumber(ctx context.Context, userID int64) (int, error) {
	n, err := countOrders(ctx, s.db, userID)
	if err != nil {
		return 0, persistenceError("count orders", err)
	}
	return n + 1, nil
}

type queryer interface {
	sqlx.QueryerContext
	Rebind(query string) string
}

func countOrders(ctx context.Context, q queryer, userID int64) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, q, &n, q.Rebind("SELECT COUNT(*) FROM orders WHERE user_id = ?"), userID)
	return n, err
}

// Append stores rec under the user's next order number
func (s *Store) Append(ctx context.Context, rec models.OrderRecord) (models.OrderRecord, error) {
	ctx, span := util.StartSpan(ctx, "Store.Append")
	defer span.End()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.OrderRecord{}, persistenceError("begin append", err)
	}
	defer tx.Rollback()

	if err := s.lockUser(ctx, tx, rec.UserID); err != nil {
		return models.OrderRecord{}, persistenceError("lock user", err)
	}

	n, err := countOrders(ctx, tx, rec.UserID)
	if err != nil {
		return models.OrderRecord{}, persistenceError("count orders", err)
	}

	rec.OrderNumber = n + 1
	if rec.Status == "" {
		rec.Status = models.OrderStatusCreated
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.CreatedAt

	query := tx.Rebind(`
		INSERT INTO orders (` + orderColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err = tx.ExecContext(ctx, query,
		rec.UserID, rec.OrderNumber, rec.ProductID, rec.Summary,
		rec.Total, rec.Status, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return models.OrderRecord{}, persistenceError("insert order", err)
	}

	if err := tx.Commit(); err != nil {
		return models.OrderRecord{}, persistenceError("commit append", err)
	}
	return rec, nil
}

// ListForUser returns the user's orders by order number; empty when none
func (s *Store) ListForUser(ctx context.Context, userID int64) ([]models.OrderRecord, error) {
	orders := []models.OrderRecord{}
	err := s.db.SelectContext(ctx, &orders, s.db.Rebind(
		"SELECT "+orderColumns+" FROM orders WHERE user_id = ? ORDER BY order_number"), userID)
	if err != nil {
		return nil, persistenceError("list orders", err)
	}
	return orders, nil
}

// ListAll returns every user's orders
func (s *Store) ListAll(ctx context.Context) (map[int64][]models.OrderRecord, error) {
	var orders []models.OrderRecord
	err := s.db.SelectContext(ctx, &orders,
		"SELECT "+orderColumns+" FROM orders ORDER BY user_id, order_number")
	if err != nil {
		return nil, persistenceError("list all orders", err)
	}

	byUser := make(map[int64][]models.OrderRecord)
	for _, o := range orders {
		byUser[o.UserID] = append(byUser[o.UserID], o)
	}
	return byUser, nil
}

// UpdateStatus sets the status of one order
func (s *Store) UpdateStatus(ctx context.Context, userID int64, orderNumber int, status string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		"UPDATE orders SET status = ?, updated_at = ? WHERE user_id = ? AND order_number = ?"),
		status, time.Now().UTC(), userID, orderNumber)
	if err != nil {
		return persistenceError("update status", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return persistenceError("update status", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: order %d for user %d", ErrNotFound, orderNumber, userID)
	}
	return nil
}
