package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertPriceIdentity(t *testing.T) {
	assert.Equal(t, 1500.0, ConvertPrice(1500, "SDG"))
}

func TestConvertPriceToDisplayCurrency(t *testing.T) {
	// 10000 SDG * 0.0017 = 17 USD
	assert.Equal(t, 17.0, ConvertPrice(10000, "USD"))
	assert.Equal(t, 810.0, ConvertPrice(10000, "EGP"))
}

func TestConvertPriceUnknownCurrencyFallsBack(t *testing.T) {
	assert.Equal(t, ConvertPrice(500, "SDG"), ConvertPrice(500, "XYZ"))
}

func TestNormalizeCurrency(t *testing.T) {
	assert.Equal(t, "USD", NormalizeCurrency("usd"))
	assert.Equal(t, "EUR", NormalizeCurrency(" eur "))
	assert.Equal(t, "SDG", NormalizeCurrency(""))
	assert.Equal(t, "SDG", NormalizeCurrency("BTC"))
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "$17.00", FormatPrice(17, "USD"))
	assert.Equal(t, "SDG 1500.50", FormatPrice(1500.5, "SDG"))
}

func TestRound2HalfUp(t *testing.T) {
	// 0.125 is exactly representable, so the half really rounds up.
	assert.Equal(t, 0.13, Round2(0.125))
	assert.Equal(t, 1.23, Round2(1.234))
	assert.Equal(t, 1.24, Round2(1.236))
}
