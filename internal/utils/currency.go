package utils

import (
	"math"
	"strconv"
	"strings"
)

// Rates are units of currency per 1 unit of the stored currency (SDG).
// They are display rates only; order totals stay in the stored currency.
var currencyRates = map[string]float64{
	"SDG": 1,
	"USD": 0.0017,
	"EUR": 0.0015,
	"EGP": 0.081,
	"SAR": 0.0063,
	"AED": 0.0061,
}

var currencySymbols = map[string]string{
	"SDG": "SDG ",
	"USD": "$",
	"EUR": "€",
	"EGP": "E£",
	"SAR": "SAR ",
	"AED": "AED ",
}

var (
	storedCurrency  = "SDG"
	defaultCurrency = "SDG"
)

// SetStoredCurrency sets the currency prices are persisted in.
func SetStoredCurrency(code string) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if _, ok := currencyRates[code]; ok {
		storedCurrency = code
	}
}

// SetDefaultCurrency sets the fallback used for unknown currency codes.
func SetDefaultCurrency(code string) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if _, ok := currencyRates[code]; ok {
		defaultCurrency = code
	}
}

// NormalizeCurrency maps a code to a known currency, falling back to the
// configured default.
func NormalizeCurrency(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if _, ok := currencyRates[code]; ok {
		return code
	}
	return defaultCurrency
}

// ConvertPrice converts a stored-currency price into the target display
// currency, rounded to 2 decimal places (half up).
func ConvertPrice(price float64, target string) float64 {
	target = NormalizeCurrency(target)
	return Round2(price * currencyRates[target] / currencyRates[storedCurrency])
}

// FormatPrice renders an amount with its currency symbol. No locale-aware
// thousands separators.
func FormatPrice(amount float64, currency string) string {
	currency = NormalizeCurrency(currency)
	return currencySymbols[currency] + strconv.FormatFloat(Round2(amount), 'f', 2, 64)
}

// Round2 rounds half up to 2 decimal places.
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
