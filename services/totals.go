package services

import "github.com/shopspring/decimal"

// QuoteTotals holds the aggregate figures of a quote.
type QuoteTotals struct {
	Subtotal float64 `json:"subtotal"`
	// Discount is the configured flat discount; the clamp applies to Running.
	Discount   float64 `json:"discount"`
	Running    float64 `json:"running"`
	Tax        float64 `json:"tax"`
	GrandTotal float64 `json:"grand_total"`
	// MarkupAmount is the share of Subtotal attributable to markup, backed out
	// of the already marked-up subtotal. It does not feed GrandTotal.
	MarkupAmount float64 `json:"markup_amount"`
}

// SumTotalColumn adds the numeric value of every Total cell across tables.
// Tables without a Total column and non-numeric cells contribute 0.
func SumTotalColumn(tables []Table) float64 {
	sum := decimal.Zero
	for _, t := range tables {
		idx := t.ColumnIndex(ColTotal)
		if idx < 0 {
			continue
		}
		for _, row := range t.Rows {
			sum = sum.Add(decimal.NewFromFloat(NumberOrZero(cellAt(row, idx))))
		}
	}
	return sum.InexactFloat64()
}

// CalcQuoteTotals computes the totals of canonical, marked-up tables:
// discount first, then tax on the discounted amount.
func CalcQuoteTotals(tables []Table, cfg QuoteConfig) QuoteTotals {
	return CalcTotalsFromSubtotal(SumTotalColumn(tables), cfg)
}

// CalcTotalsFromSubtotal applies discount, tax and the markup breakdown to a
// known subtotal. Arithmetic runs in decimal so 110 backed out of a 10% markup
// is exactly 100.
func CalcTotalsFromSubtotal(subtotal float64, cfg QuoteConfig) QuoteTotals {
	hundred := decimal.NewFromInt(100)
	sub := decimal.NewFromFloat(subtotal)

	running := sub.Sub(decimal.NewFromFloat(cfg.DiscountFlat))
	if running.IsNegative() {
		running = decimal.Zero
	}

	tax := decimal.Zero
	switch {
	case cfg.TaxMode == TaxPercentage && cfg.SalesTaxPct > 0:
		tax = running.Mul(decimal.NewFromFloat(cfg.SalesTaxPct)).Div(hundred)
	case cfg.TaxMode == TaxFlat && cfg.SalesTaxFlat > 0:
		tax = decimal.NewFromFloat(cfg.SalesTaxFlat)
	}

	markup := decimal.Zero
	if cfg.MarkupPercent > 0 {
		mult := decimal.NewFromInt(1).Add(decimal.NewFromFloat(cfg.MarkupPercent).Div(hundred))
		markup = sub.Sub(sub.Div(mult))
	}

	return QuoteTotals{
		Subtotal:     subtotal,
		Discount:     cfg.DiscountFlat,
		Running:      running.InexactFloat64(),
		Tax:          tax.InexactFloat64(),
		GrandTotal:   running.Add(tax).InexactFloat64(),
		MarkupAmount: markup.InexactFloat64(),
	}
}
