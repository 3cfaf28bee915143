package wizard

import (
	"fmt"
	"strings"

	"storefront-bot/internal/models"

	"github.com/shopspring/decimal"
)

// Draft is a read-only snapshot of a wizard. Its text is always derived
// from the numeric fields, never the other way round.
type Draft struct {
	ProductID    string
	ProductName  string
	BasePrice    decimal.Decimal
	Selections   []models.Selection
	DiscountCode string
	Discount     decimal.Decimal
	Total        decimal.Decimal
	Complete     bool
}

// Heading is the product line shown above the selections
func (d Draft) Heading() string {
	return fmt.Sprintf("%s (Starting at %s)", d.ProductName, models.FormatAmount(d.BasePrice))
}

// Summary renders the selections, and once every step is done the
// discount and total lines.
func (d Draft) Summary() string {
	var b strings.Builder
	b.WriteString(d.Heading())
	b.WriteString("\n")

	if len(d.Selections) > 0 {
		b.WriteString("\n")
	}
	for _, sel := range d.Selections {
		label := sel.Label
		if label == "" {
			label = sel.Category
		}
		fmt.Fprintf(&b, "%s: %s (%s)\n", label, sel.Name, models.FormatDelta(sel.Delta))
	}

	if !d.Complete {
		return strings.TrimRight(b.String(), "\n")
	}

	if d.DiscountCode == "" {
		b.WriteString("Discount code: None (-$0)\n")
	} else {
		fmt.Fprintf(&b, "Discount code: %s (%s)\n", d.DiscountCode, models.FormatDelta(d.Discount.Neg()))
	}
	fmt.Fprintf(&b, "\nTotal: %s", models.FormatAmount(d.Total))
	return b.String()
}
