package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "$11", FormatAmount(decimal.NewFromInt(11)))
	assert.Equal(t, "$0", FormatAmount(decimal.Zero))
	assert.Equal(t, "$2.50", FormatAmount(decimal.RequireFromString("2.5")))
	assert.Equal(t, "-$2", FormatAmount(decimal.NewFromInt(-2)))
}

func TestFormatDelta(t *testing.T) {
	assert.Equal(t, "+$0", FormatDelta(decimal.Zero))
	assert.Equal(t, "+$3", FormatDelta(decimal.NewFromInt(3)))
	assert.Equal(t, "-$2", FormatDelta(decimal.NewFromInt(-2)))
}
