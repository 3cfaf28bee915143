package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	product, err := c.GetProduct("custom")
	require.NoError(t, err)
	assert.True(t, product.BasePrice.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, []string{"frame", "print_type", "customisation", "delivery_date", "delivery_method"}, product.Flow)

	for _, step := range product.Flow {
		category, ok := c.Category(product, step)
		require.True(t, ok, step)
		assert.Equal(t, step, category.Name)
	}

	date, _ := c.Category(product, "delivery_date")
	opt, ok := date.Lookup("specific_date")
	require.True(t, ok)
	assert.True(t, opt.Delta.Equal(decimal.NewFromInt(-2)))

	assert.Len(t, c.Promos(), 3)
	assert.Len(t, c.Products(), 1)
}

func TestGetProductUnknown(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	_, err = c.GetProduct("christmas")
	assert.True(t, errors.Is(err, ErrUnknownProduct))
}

func TestValidateDiscount(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.True(t, c.ValidateDiscount("OPENING").Equal(decimal.NewFromInt(2)))
	assert.True(t, c.ValidateDiscount("opening").Equal(decimal.NewFromInt(2)))
	assert.True(t, c.ValidateDiscount(" Christmas ").Equal(decimal.NewFromInt(1)))
	assert.True(t, c.ValidateDiscount("FREE").IsZero())
	assert.True(t, c.ValidateDiscount("").IsZero())
}

func TestParseRejectsUnresolvedFlow(t *testing.T) {
	doc := `{"products":[{"id":"p","name":"P","base_price":"1","options":{},"flow":["missing"]}]}`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestParseRejectsZeroDiscount(t *testing.T) {
	doc := `{
		"products":[{"id":"p","name":"P","base_price":"1","options":{"a":{"options":[{"id":"x","name":"X","delta":"0"}]}},"flow":["a"]}],
		"discount_codes":{"NOTHING":"0"}
	}`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
}

func TestParseRejectsNegativeBasePrice(t *testing.T) {
	doc := `{"products":[{"id":"p","name":"P","base_price":"-1","options":{"a":{"options":[{"id":"x","name":"X","delta":"0"}]}},"flow":["a"]}]}`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
}

func TestParseRejectsNullEntries(t *testing.T) {
	docs := map[string]string{
		"product option": `{"products":[{"id":"p","name":"P","base_price":"1","options":{"frame":null},"flow":["frame"]}]}`,
		"shared option":  `{"products":[{"id":"p","name":"P","base_price":"1","options":{},"flow":["d"]}],"shared_options":{"d":null}}`,
		"product":        `{"products":[null]}`,
	}
	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			var err error
			require.NotPanics(t, func() { _, err = Parse([]byte(doc)) })
			assert.ErrorContains(t, err, "empty")
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, defaultCatalog, 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	_, err = c.GetProduct("custom")
	assert.NoError(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
