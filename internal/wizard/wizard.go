package wizard

import (
	"errors"
	"fmt"
	"strings"

	"storefront-bot/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidOption       = errors.New("invalid option")
	ErrInvalidDiscountCode = errors.New("invalid discount code")
	ErrInvalidTransition   = errors.New("invalid transition")
)

// Stage is the position of a wizard in the order flow
type Stage int

const (
	StageIdle Stage = iota
	StageSelectingOption
	StageAwaitingConfirmation
	StageAwaitingDiscount
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageSelectingOption:
		return "selecting_option"
	case StageAwaitingConfirmation:
		return "awaiting_confirmation"
	case StageAwaitingDiscount:
		return "awaiting_discount"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Catalog is the read-only lookup surface the wizard needs
type Catalog interface {
	GetProduct(id string) (*models.Product, error)
	Category(product *models.Product, name string) (*models.OptionCategory, bool)
	ValidateDiscount(code string) decimal.Decimal
}

// Wizard is the per-user order configuration state machine.
// It is not safe for concurrent use; callers serialize access per user.
type Wizard struct {
	catalog Catalog

	product          *models.Product
	step             int
	selections       []models.Selection
	awaitingDiscount bool
	discountCode     string
	discount         decimal.Decimal
}

// New creates an idle wizard
func New(catalog Catalog) *Wizard {
	return &Wizard{catalog: catalog, discount: decimal.Zero}
}

// Stage derives the current stage from the wizard's fields
func (w *Wizard) Stage() Stage {
	switch {
	case w.product == nil:
		return StageIdle
	case w.step < len(w.product.Flow):
		return StageSelectingOption
	case w.awaitingDiscount:
		return StageAwaitingDiscount
	default:
		return StageAwaitingConfirmation
	}
}

// Product returns the product being configured, nil when idle
func (w *Wizard) Product() *models.Product {
	return w.product
}

// Step returns the index of the current flow step
func (w *Wizard) Step() int {
	return w.step
}

// Selections returns a copy of the selections made so far, in flow order
func (w *Wizard) Selections() []models.Selection {
	out := make([]models.Selection, len(w.selections))
	copy(out, w.selections)
	return out
}

// Discount returns the applied discount code and amount
func (w *Wizard) Discount() (string, decimal.Decimal) {
	return w.discountCode, w.discount
}

// CurrentCategory returns the option category of the current step
func (w *Wizard) CurrentCategory() (*models.OptionCategory, error) {
	if w.Stage() != StageSelectingOption {
		return nil, fmt.Errorf("%w: no option step in stage %s", ErrInvalidTransition, w.Stage())
	}
	name := w.product.Flow[w.step]
	category, ok := w.catalog.Category(w.product, name)
	if !ok {
		return nil, fmt.Errorf("option category %q not found", name)
	}
	return category, nil
}

// StartFlow begins configuring productID
func (w *Wizard) StartFlow(productID string) error {
	if w.Stage() != StageIdle {
		return fmt.Errorf("%w: start flow in stage %s", ErrInvalidTransition, w.Stage())
	}

	product, err := w.catalog.GetProduct(productID)
	if err != nil {
		return err
	}

	w.Reset()
	w.product = product
	return nil
}

// SelectOption records optionID for the current step and advances
func (w *Wizard) SelectOption(optionID string) error {
	category, err := w.CurrentCategory()
	if err != nil {
		return err
	}

	opt, ok := category.Lookup(optionID)
	if !ok {
		return fmt.Errorf("%w: %q in %s", ErrInvalidOption, optionID, category.Name)
	}

	w.selections = append(w.selections, models.Selection{
		Category: category.Name,
		Label:    category.Label,
		OptionID: opt.ID,
		Name:     opt.Name,
		Delta:    opt.Delta,
	})
	w.step++
	return nil
}

// RequestDiscount switches to waiting for a free-text discount code
func (w *Wizard) RequestDiscount() error {
	if w.Stage() != StageAwaitingConfirmation {
		return fmt.Errorf("%w: request discount in stage %s", ErrInvalidTransition, w.Stage())
	}
	w.awaitingDiscount = true
	return nil
}

// SubmitDiscountCode validates text as a discount code. An unknown code
// leaves the wizard waiting for another attempt. A valid code replaces any
// previously applied one.
func (w *Wizard) SubmitDiscountCode(text string) (decimal.Decimal, error) {
	if w.Stage() != StageAwaitingDiscount {
		return decimal.Zero, fmt.Errorf("%w: submit discount in stage %s", ErrInvalidTransition, w.Stage())
	}

	code := strings.ToUpper(strings.TrimSpace(text))
	amount := w.catalog.ValidateDiscount(code)
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidDiscountCode, code)
	}

	w.discountCode = code
	w.discount = amount
	w.awaitingDiscount = false
	return amount, nil
}

// SkipDiscount clears any discount and returns to the confirmation summary
func (w *Wizard) SkipDiscount() error {
	switch w.Stage() {
	case StageAwaitingConfirmation, StageAwaitingDiscount:
	default:
		return fmt.Errorf("%w: skip discount in stage %s", ErrInvalidTransition, w.Stage())
	}
	w.discountCode = ""
	w.discount = decimal.Zero
	w.awaitingDiscount = false
	return nil
}

// Subtotal is the base price plus every selected price delta
func (w *Wizard) Subtotal() decimal.Decimal {
	if w.product == nil {
		return decimal.Zero
	}
	total := w.product.BasePrice
	for _, sel := range w.selections {
		total = total.Add(sel.Delta)
	}
	return total
}

// Total is the subtotal minus the discount, floored at zero
func (w *Wizard) Total() decimal.Decimal {
	total := w.Subtotal().Sub(w.discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// Draft snapshots the wizard for rendering and persistence
func (w *Wizard) Draft() Draft {
	d := Draft{
		Selections:   w.Selections(),
		DiscountCode: w.discountCode,
		Discount:     w.discount,
		Total:        w.Total(),
		Complete:     w.Stage() == StageAwaitingConfirmation || w.Stage() == StageAwaitingDiscount,
	}
	if w.product != nil {
		d.ProductID = w.product.ID
		d.ProductName = w.product.Name
		d.BasePrice = w.product.BasePrice
	}
	return d
}

// Confirm hands the finished order to commit. The wizard resets only when
// commit succeeds, so a failed commit can be retried.
func (w *Wizard) Confirm(commit func(Draft) error) error {
	if w.Stage() != StageAwaitingConfirmation {
		return fmt.Errorf("%w: confirm in stage %s", ErrInvalidTransition, w.Stage())
	}

	if err := commit(w.Draft()); err != nil {
		return err
	}

	w.Reset()
	return nil
}

// Cancel abandons the current order
func (w *Wizard) Cancel() {
	w.Reset()
}

// Reset returns the wizard to idle
func (w *Wizard) Reset() {
	w.product = nil
	w.step = 0
	w.selections = nil
	w.awaitingDiscount = false
	w.discountCode = ""
	w.discount = decimal.Zero
}
