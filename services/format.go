package services

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var usdPrinter = message.NewPrinter(language.English)

// FormatUSD formats an amount as a dollar string with thousands separators and
// exactly 2 decimal places (e.g., $1,234.56). Negative amounts print as -$12.00.
func FormatUSD(amount float64) string {
	rounded := RoundCents(amount)
	if rounded < 0 {
		return "-$" + usdPrinter.Sprintf("%.2f", -rounded)
	}
	return "$" + usdPrinter.Sprintf("%.2f", rounded)
}

// RoundCents rounds half away from zero to 2 decimal places, the same rule
// spreadsheet engines apply when displaying #,##0.00.
func RoundCents(amount float64) float64 {
	f, _ := decimal.NewFromFloat(amount).Round(2).Float64()
	if f == 0 {
		return 0
	}
	return f
}

// formatPlainNumber prints integral values without decimals and everything
// else in the shortest form that round-trips.
func formatPlainNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatQty returns a string representation of the quantity value.
// Whole numbers are formatted without decimals; fractional values get 2 decimal places.
func formatQty(qty float64) string {
	if qty == math.Trunc(qty) {
		return strconv.FormatFloat(qty, 'f', 0, 64)
	}
	return strconv.FormatFloat(qty, 'f', 2, 64)
}

// formatPercent prints a rate without trailing zeros: 8.25 → "8.25", 10 → "10".
func formatPercent(rate float64) string {
	s := strconv.FormatFloat(rate, 'f', 4, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
