package service

import (
	"context"
	"testing"

	"storefront-bot/internal/models"
	"storefront-bot/internal/wizard"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmAppendsThenPublishes(t *testing.T) {
	ledger := newMemLedger()
	pub := &fakePublisher{}
	locker := &fakeLocker{}
	svc := NewOrderService(ledger, locker, pub)

	w := completedWizard(t, "standing_frame", "mini_polaroid", "text", "asap", "self_pickup")
	require.NoError(t, w.SkipDiscount())

	rec, err := svc.Confirm(context.Background(), 42, w)
	require.NoError(t, err)

	assert.Equal(t, 1, rec.OrderNumber)
	assert.True(t, decimal.NewFromInt(11).Equal(rec.Total), "total = %s", rec.Total)
	assert.Equal(t, models.OrderStatusCreated, rec.Status)
	assert.Contains(t, rec.Summary, "Total: $11")
	assert.Equal(t, wizard.StageIdle, w.Stage())

	require.Len(t, pub.confirmed, 1)
	assert.Equal(t, rec.OrderNumber, pub.confirmed[0].OrderNumber)
	assert.Equal(t, 1, locker.locks)
	assert.Equal(t, 1, locker.unlocks)
}

func TestConfirmWithDiscountAndDateReduction(t *testing.T) {
	svc := NewOrderService(newMemLedger(), nil, &fakePublisher{})

	w := completedWizard(t, "standing_frame", "mini_polaroid", "text", "specific_date", "self_pickup")
	require.NoError(t, w.RequestDiscount())
	_, err := w.SubmitDiscountCode("opening")
	require.NoError(t, err)

	rec, err := svc.Confirm(context.Background(), 42, w)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(7).Equal(rec.Total), "total = %s", rec.Total)
	assert.Contains(t, rec.Summary, "Discount code: OPENING (-$2)")
}

func TestConfirmNumbersOrdersPerUser(t *testing.T) {
	svc := NewOrderService(newMemLedger(), nil, &fakePublisher{})
	opts := []string{"frameless", "mini_polaroid", "none", "asap", "self_pickup"}

	for want := 1; want <= 3; want++ {
		w := completedWizard(t, opts...)
		rec, err := svc.Confirm(context.Background(), 1, w)
		require.NoError(t, err)
		assert.Equal(t, want, rec.OrderNumber)
	}

	rec, err := svc.Confirm(context.Background(), 2, completedWizard(t, opts...))
	require.NoError(t, err)
	assert.Equal(t, 1, rec.OrderNumber)
}

func TestConfirmFailureKeepsWizardAndSkipsEvent(t *testing.T) {
	ledger := newMemLedger()
	ledger.appendErr = errDiskFull
	pub := &fakePublisher{}
	svc := NewOrderService(ledger, nil, pub)

	w := completedWizard(t, "frameless", "mini_polaroid", "none", "asap", "self_pickup")
	_, err := svc.Confirm(context.Background(), 9, w)
	require.ErrorIs(t, err, errDiskFull)

	assert.Equal(t, wizard.StageAwaitingConfirmation, w.Stage())
	assert.Empty(t, pub.confirmed)

	ledger.appendErr = nil
	rec, err := svc.Confirm(context.Background(), 9, w)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.OrderNumber)
}

func TestConfirmLockFailure(t *testing.T) {
	ledger := newMemLedger()
	svc := NewOrderService(ledger, &fakeLocker{err: errDiskFull}, &fakePublisher{})

	w := completedWizard(t, "frameless", "mini_polaroid", "none", "asap", "self_pickup")
	_, err := svc.Confirm(context.Background(), 9, w)
	require.ErrorIs(t, err, ErrLockUnavailable)

	orders, err := ledger.ListForUser(context.Background(), 9)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestConfirmPublishFailureStillConfirms(t *testing.T) {
	svc := NewOrderService(newMemLedger(), nil, &fakePublisher{err: errDiskFull})

	w := completedWizard(t, "frameless", "mini_polaroid", "none", "asap", "self_pickup")
	rec, err := svc.Confirm(context.Background(), 3, w)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.OrderNumber)
}

func TestConfirmBeforeFlowComplete(t *testing.T) {
	svc := NewOrderService(newMemLedger(), nil, &fakePublisher{})

	w := completedWizard(t, "frameless")
	_, err := svc.Confirm(context.Background(), 3, w)
	assert.ErrorIs(t, err, wizard.ErrInvalidTransition)
}

func TestListOrdersEmpty(t *testing.T) {
	svc := NewOrderService(newMemLedger(), nil, &fakePublisher{})
	orders, err := svc.ListOrders(context.Background(), 77)
	require.NoError(t, err)
	assert.Empty(t, orders)
}
