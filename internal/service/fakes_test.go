package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"storefront-bot/internal/catalog"
	"storefront-bot/internal/models"
	"storefront-bot/internal/store"
	"storefront-bot/internal/wizard"

	"github.com/stretchr/testify/require"
)

type memLedger struct {
	mu        sync.Mutex
	orders    map[int64][]models.OrderRecord
	appendErr error
}

func newMemLedger() *memLedger {
	return &memLedger{orders: make(map[int64][]models.OrderRecord)}
}

func (l *memLedger) NextOrderNumber(_ context.Context, userID int64) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.orders[userID]) + 1, nil
}

func (l *memLedger) Append(_ context.Context, rec models.OrderRecord) (models.OrderRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.appendErr != nil {
		return models.OrderRecord{}, l.appendErr
	}
	rec.OrderNumber = len(l.orders[rec.UserID]) + 1
	l.orders[rec.UserID] = append(l.orders[rec.UserID], rec)
	return rec, nil
}

func (l *memLedger) ListForUser(_ context.Context, userID int64) ([]models.OrderRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.OrderRecord{}, l.orders[userID]...), nil
}

func (l *memLedger) ListAll(_ context.Context) (map[int64][]models.OrderRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[int64][]models.OrderRecord, len(l.orders))
	for k, v := range l.orders {
		out[k] = append([]models.OrderRecord{}, v...)
	}
	return out, nil
}

func (l *memLedger) UpdateStatus(_ context.Context, userID int64, orderNumber int, status string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	orders := l.orders[userID]
	if orderNumber < 1 || orderNumber > len(orders) {
		return store.ErrNotFound
	}
	orders[orderNumber-1].Status = status
	return nil
}

func (l *memLedger) Close() error { return nil }

type statusEvent struct {
	userID      int64
	orderNumber int
	status      string
	updatedBy   int64
}

type fakePublisher struct {
	confirmed []models.OrderRecord
	updated   []statusEvent
	err       error
}

func (p *fakePublisher) PublishOrderConfirmed(_ context.Context, rec models.OrderRecord) error {
	p.confirmed = append(p.confirmed, rec)
	return p.err
}

func (p *fakePublisher) PublishOrderStatusUpdated(_ context.Context, userID int64, orderNumber int, status string, updatedBy int64) error {
	p.updated = append(p.updated, statusEvent{userID, orderNumber, status, updatedBy})
	return p.err
}

type fakeLocker struct {
	locks   int
	unlocks int
	err     error
}

func (l *fakeLocker) LockUser(_ context.Context, _ int64) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.locks++
	return func() { l.unlocks++ }, nil
}

var errDiskFull = errors.New("disk full")

func completedWizard(t *testing.T, options ...string) *wizard.Wizard {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)

	w := wizard.New(c)
	require.NoError(t, w.StartFlow("custom"))
	for _, opt := range options {
		require.NoError(t, w.SelectOption(opt))
	}
	return w
}
