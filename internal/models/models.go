package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Option is a single selectable choice inside an option category
type Option struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Delta decimal.Decimal `json:"delta"`
}

// OptionCategory is a named group of mutually exclusive options
type OptionCategory struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Prompt  string   `json:"prompt"`
	Options []Option `json:"options"`
}

// Lookup finds an option by id
func (c *OptionCategory) Lookup(optionID string) (Option, bool) {
	for _, opt := range c.Options {
		if opt.ID == optionID {
			return opt, true
		}
	}
	return Option{}, false
}

// Product is a configurable product walked through by the order wizard
type Product struct {
	ID        string                     `json:"id"`
	Name      string                     `json:"name"`
	BasePrice decimal.Decimal            `json:"base_price"`
	Options   map[string]*OptionCategory `json:"options"`
	Flow      []string                   `json:"flow"`
}

// Selection records the option chosen for one category of the flow
type Selection struct {
	Category string          `json:"category"`
	Label    string          `json:"label"`
	OptionID string          `json:"option_id"`
	Name     string          `json:"name"`
	Delta    decimal.Decimal `json:"delta"`
}

// Promo is one entry of the promotions carousel
type Promo struct {
	Title string `json:"title"`
	Image string `json:"image"`
}

// OrderRecord is a confirmed order persisted in the ledger
type OrderRecord struct {
	UserID      int64           `db:"user_id" json:"user_id"`
	OrderNumber int             `db:"order_number" json:"order_number"`
	ProductID   string          `db:"product_id" json:"product_id"`
	Summary     string          `db:"summary" json:"summary"`
	Total       decimal.Decimal `db:"total" json:"total"`
	Status      string          `db:"status" json:"status"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// Order statuses
const (
	OrderStatusCreated = "Created"
)
