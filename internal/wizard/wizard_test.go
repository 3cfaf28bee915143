package wizard

import (
	"errors"
	"testing"

	"storefront-bot/internal/catalog"
	"storefront-bot/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWizard(t *testing.T) *Wizard {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	return New(c)
}

func walk(t *testing.T, w *Wizard, options ...string) {
	t.Helper()
	for _, opt := range options {
		require.NoError(t, w.SelectOption(opt), opt)
	}
}

func TestCustomOrderTotal(t *testing.T) {
	w := newWizard(t)

	require.NoError(t, w.StartFlow("custom"))
	assert.Equal(t, StageSelectingOption, w.Stage())

	walk(t, w, "standing_frame", "mini_polaroid", "text", "asap", "self_pickup")
	assert.Equal(t, StageAwaitingConfirmation, w.Stage())
	assert.True(t, w.Total().Equal(decimal.NewFromInt(11)), w.Total().String())

	var committed Draft
	err := w.Confirm(func(d Draft) error {
		committed = d
		return nil
	})
	require.NoError(t, err)

	assert.True(t, committed.Total.Equal(decimal.NewFromInt(11)))
	assert.Equal(t, "custom", committed.ProductID)
	assert.Len(t, committed.Selections, 5)
	assert.Equal(t, StageIdle, w.Stage())
	assert.Empty(t, w.Selections())
}

func TestCustomOrderWithDiscount(t *testing.T) {
	w := newWizard(t)

	require.NoError(t, w.StartFlow("custom"))
	walk(t, w, "standing_frame", "mini_polaroid", "text", "specific_date", "self_pickup")

	require.NoError(t, w.RequestDiscount())
	assert.Equal(t, StageAwaitingDiscount, w.Stage())

	amount, err := w.SubmitDiscountCode("opening")
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, StageAwaitingConfirmation, w.Stage())
	assert.True(t, w.Total().Equal(decimal.NewFromInt(7)), w.Total().String())

	summary := w.Draft().Summary()
	assert.Contains(t, summary, "Delivery Date: After 14 Days (-$2)")
	assert.Contains(t, summary, "Discount code: OPENING (-$2)")
	assert.Contains(t, summary, "Total: $7")
}

func TestEveryTraversalSumsDeltas(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)
	product, err := c.GetProduct("custom")
	require.NoError(t, err)

	var paths [][]models.Option
	var build func(step int, acc []models.Option)
	build = func(step int, acc []models.Option) {
		if step == len(product.Flow) {
			paths = append(paths, append([]models.Option(nil), acc...))
			return
		}
		category, ok := c.Category(product, product.Flow[step])
		require.True(t, ok)
		for _, opt := range category.Options {
			build(step+1, append(acc, opt))
		}
	}
	build(0, nil)
	require.Len(t, paths, 2*1*5*2*2)

	for _, path := range paths {
		w := New(c)
		require.NoError(t, w.StartFlow("custom"))
		expected := product.BasePrice
		for _, opt := range path {
			require.NoError(t, w.SelectOption(opt.ID))
			expected = expected.Add(opt.Delta)
		}
		assert.Equal(t, StageAwaitingConfirmation, w.Stage())
		assert.True(t, w.Total().Equal(expected), "path %v: got %s want %s", path, w.Total(), expected)
	}
}

func TestSelectInvalidOptionLeavesStateUnchanged(t *testing.T) {
	w := newWizard(t)
	require.NoError(t, w.StartFlow("custom"))
	walk(t, w, "frameless")

	before := w.Selections()
	err := w.SelectOption("standing_frame")
	assert.True(t, errors.Is(err, ErrInvalidOption))
	assert.Equal(t, 1, w.Step())
	assert.Equal(t, before, w.Selections())
	assert.Equal(t, StageSelectingOption, w.Stage())
}

func TestStartFlowUnknownProduct(t *testing.T) {
	w := newWizard(t)
	err := w.StartFlow("christmas")
	assert.True(t, errors.Is(err, catalog.ErrUnknownProduct))
	assert.Equal(t, StageIdle, w.Stage())
}

func TestStartFlowOnlyFromIdle(t *testing.T) {
	w := newWizard(t)
	require.NoError(t, w.StartFlow("custom"))
	walk(t, w, "frameless")

	err := w.StartFlow("custom")
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, 1, w.Step())
}

func TestTransitionsRejectedOutsideTheirStage(t *testing.T) {
	w := newWizard(t)

	assert.True(t, errors.Is(w.SelectOption("frameless"), ErrInvalidTransition))
	assert.True(t, errors.Is(w.RequestDiscount(), ErrInvalidTransition))
	_, err := w.SubmitDiscountCode("OPENING")
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.True(t, errors.Is(w.SkipDiscount(), ErrInvalidTransition))
	assert.True(t, errors.Is(w.Confirm(func(Draft) error { return nil }), ErrInvalidTransition))

	require.NoError(t, w.StartFlow("custom"))
	assert.True(t, errors.Is(w.RequestDiscount(), ErrInvalidTransition))

	walk(t, w, "frameless", "mini_polaroid", "none", "asap", "self_pickup")
	assert.True(t, errors.Is(w.SelectOption("asap"), ErrInvalidTransition))

	require.NoError(t, w.RequestDiscount())
	err = w.Confirm(func(Draft) error { return nil })
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, StageAwaitingDiscount, w.Stage())
}

func TestInvalidDiscountKeepsWaiting(t *testing.T) {
	w := newWizard(t)
	require.NoError(t, w.StartFlow("custom"))
	walk(t, w, "frameless", "mini_polaroid", "none", "asap", "self_pickup")
	require.NoError(t, w.RequestDiscount())

	_, err := w.SubmitDiscountCode("BOGUS")
	assert.True(t, errors.Is(err, ErrInvalidDiscountCode))
	assert.Equal(t, StageAwaitingDiscount, w.Stage())

	code, amount := w.Discount()
	assert.Empty(t, code)
	assert.True(t, amount.IsZero())
}

func TestDiscountOverwritesInsteadOfStacking(t *testing.T) {
	w := newWizard(t)
	require.NoError(t, w.StartFlow("custom"))
	walk(t, w, "standing_frame", "mini_polaroid", "text", "asap", "self_pickup")

	for i := 0; i < 2; i++ {
		require.NoError(t, w.RequestDiscount())
		amount, err := w.SubmitDiscountCode("OPENING")
		require.NoError(t, err)
		assert.True(t, amount.Equal(decimal.NewFromInt(2)))
		_, applied := w.Discount()
		assert.True(t, applied.Equal(decimal.NewFromInt(2)))
		assert.True(t, w.Total().Equal(decimal.NewFromInt(9)))
	}

	require.NoError(t, w.RequestDiscount())
	_, err := w.SubmitDiscountCode("BUNDLE")
	require.NoError(t, err)
	code, applied := w.Discount()
	assert.Equal(t, "BUNDLE", code)
	assert.True(t, applied.Equal(decimal.NewFromInt(1)))
}

func TestSkipDiscountClearsAppliedCode(t *testing.T) {
	w := newWizard(t)
	require.NoError(t, w.StartFlow("custom"))
	walk(t, w, "standing_frame", "mini_polaroid", "text", "asap", "self_pickup")

	require.NoError(t, w.RequestDiscount())
	_, err := w.SubmitDiscountCode("CHRISTMAS")
	require.NoError(t, err)

	require.NoError(t, w.RequestDiscount())
	require.NoError(t, w.SkipDiscount())
	assert.Equal(t, StageAwaitingConfirmation, w.Stage())
	assert.True(t, w.Total().Equal(decimal.NewFromInt(11)))
	assert.Contains(t, w.Draft().Summary(), "Discount code: None (-$0)")
}

func TestConfirmFailureKeepsOrder(t *testing.T) {
	w := newWizard(t)
	require.NoError(t, w.StartFlow("custom"))
	walk(t, w, "standing_frame", "mini_polaroid", "text", "asap", "self_pickup")

	boom := errors.New("disk full")
	err := w.Confirm(func(Draft) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StageAwaitingConfirmation, w.Stage())
	assert.Len(t, w.Selections(), 5)

	require.NoError(t, w.Confirm(func(Draft) error { return nil }))
	assert.Equal(t, StageIdle, w.Stage())
}

func TestCancelFromAnyStage(t *testing.T) {
	w := newWizard(t)
	w.Cancel()
	assert.Equal(t, StageIdle, w.Stage())

	require.NoError(t, w.StartFlow("custom"))
	walk(t, w, "standing_frame", "mini_polaroid")
	w.Cancel()
	assert.Equal(t, StageIdle, w.Stage())
	assert.True(t, w.Total().IsZero())

	require.NoError(t, w.StartFlow("custom"))
	walk(t, w, "standing_frame", "mini_polaroid", "text", "asap", "self_pickup")
	require.NoError(t, w.RequestDiscount())
	w.Cancel()
	assert.Equal(t, StageIdle, w.Stage())
	code, _ := w.Discount()
	assert.Empty(t, code)
}

func TestTotalFloorsAtZero(t *testing.T) {
	doc := `{
		"products":[{"id":"cheap","name":"Cheap","base_price":"0","options":{
			"date":{"label":"Date","options":[{"id":"late","name":"Late","delta":"-2"}]}
		},"flow":["date"]}],
		"discount_codes":{"BIG":"5"}
	}`
	c, err := catalog.Parse([]byte(doc))
	require.NoError(t, err)

	w := New(c)
	require.NoError(t, w.StartFlow("cheap"))
	require.NoError(t, w.SelectOption("late"))
	assert.True(t, w.Subtotal().Equal(decimal.NewFromInt(-2)))
	assert.True(t, w.Total().IsZero())

	require.NoError(t, w.RequestDiscount())
	_, err = w.SubmitDiscountCode("big")
	require.NoError(t, err)
	assert.True(t, w.Total().IsZero())
}

func TestSummaryInProgress(t *testing.T) {
	w := newWizard(t)
	require.NoError(t, w.StartFlow("custom"))
	walk(t, w, "standing_frame")

	summary := w.Draft().Summary()
	assert.Equal(t, "Fully Customised Frame & Photo (Starting at $2)\n\nFrame: Standing Frame (+$1)", summary)
	assert.NotContains(t, summary, "Total")
}
