package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"storefront-bot/internal/models"

	"github.com/shopspring/decimal"
)

//go:embed catalog.json
var defaultCatalog []byte

// ErrUnknownProduct is returned when a product id is not in the catalog
var ErrUnknownProduct = errors.New("unknown product")

type catalogFile struct {
	Products      []*models.Product                 `json:"products"`
	SharedOptions map[string]*models.OptionCategory `json:"shared_options"`
	DiscountCodes map[string]decimal.Decimal        `json:"discount_codes"`
	Promos        []models.Promo                    `json:"promos"`
}

// Catalog holds the read-only product definitions, shared option
// categories, discount codes and promotions. It is immutable after Load.
type Catalog struct {
	products  map[string]*models.Product
	order     []string
	shared    map[string]*models.OptionCategory
	discounts map[string]decimal.Decimal
	promos    []models.Promo
}

// Default returns the catalog embedded in the binary
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from path, falling back to the embedded one when path is empty
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a catalog document
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	c := &Catalog{
		products:  make(map[string]*models.Product, len(file.Products)),
		shared:    make(map[string]*models.OptionCategory, len(file.SharedOptions)),
		discounts: make(map[string]decimal.Decimal, len(file.DiscountCodes)),
		promos:    file.Promos,
	}

	for name, category := range file.SharedOptions {
		if category == nil {
			return nil, fmt.Errorf("shared option category %q is empty", name)
		}
		category.Name = name
		c.shared[name] = category
	}

	for code, amount := range file.DiscountCodes {
		c.discounts[strings.ToUpper(code)] = amount
	}

	for i, product := range file.Products {
		if product == nil {
			return nil, fmt.Errorf("product #%d is empty", i+1)
		}
		if _, dup := c.products[product.ID]; dup {
			return nil, fmt.Errorf("duplicate product %q", product.ID)
		}
		for name, category := range product.Options {
			if category == nil {
				return nil, fmt.Errorf("product %q: option category %q is empty", product.ID, name)
			}
			category.Name = name
		}
		c.products[product.ID] = product
		c.order = append(c.order, product.ID)
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) validate() error {
	if len(c.products) == 0 {
		return errors.New("catalog has no products")
	}

	for _, id := range c.order {
		product := c.products[id]
		if product.BasePrice.IsNegative() {
			return fmt.Errorf("product %q has a negative base price", id)
		}
		if len(product.Flow) == 0 {
			return fmt.Errorf("product %q has an empty flow", id)
		}
		for _, step := range product.Flow {
			category, ok := c.Category(product, step)
			if !ok {
				return fmt.Errorf("product %q: flow step %q does not resolve to an option category", id, step)
			}
			if len(category.Options) == 0 {
				return fmt.Errorf("product %q: option category %q has no options", id, step)
			}
		}
	}

	for code, amount := range c.discounts {
		if !amount.IsPositive() {
			return fmt.Errorf("discount code %q must have a positive amount", code)
		}
	}

	return nil
}

// GetProduct looks up a product by id
func (c *Catalog) GetProduct(id string) (*models.Product, error) {
	product, ok := c.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, id)
	}
	return product, nil
}

// Products returns products in catalog order
func (c *Catalog) Products() []*models.Product {
	products := make([]*models.Product, 0, len(c.order))
	for _, id := range c.order {
		products = append(products, c.products[id])
	}
	return products
}

// Category resolves a flow step name against the product's own options
// first and the shared delivery categories second.
func (c *Catalog) Category(product *models.Product, name string) (*models.OptionCategory, bool) {
	if category, ok := product.Options[name]; ok {
		return category, true
	}
	category, ok := c.shared[name]
	return category, ok
}

// ValidateDiscount returns the discount for code, or zero when the code is unknown.
// Codes are case-insensitive.
func (c *Catalog) ValidateDiscount(code string) decimal.Decimal {
	amount, ok := c.discounts[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return decimal.Zero
	}
	return amount
}

// Promos returns the promotions in display order
func (c *Catalog) Promos() []models.Promo {
	return c.promos
}
